//go:build sqlite
// +build sqlite

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"eventwatch/internal/feed"
	"eventwatch/pkg/logx"
)

var errClosed = errors.New("sqlite store closed")

const schema = `
CREATE TABLE IF NOT EXISTS events (
	pos      INTEGER NOT NULL,
	code     TEXT NOT NULL PRIMARY KEY,
	title    TEXT NOT NULL,
	category TEXT NOT NULL,
	location TEXT NOT NULL,
	status   TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS subscribers (
	chat_id INTEGER NOT NULL PRIMARY KEY
);
`

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &sqliteStore{db: db, log: log}, nil
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) LoadEvents(ctx context.Context) ([]feed.Event, error) {
	if s == nil || s.db == nil {
		return nil, errClosed
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT code, title, category, location, status FROM events ORDER BY pos ASC`)
	if err != nil {
		s.log.Warn("load events failed, starting empty", logx.Err(err))
		return nil, nil
	}
	defer rows.Close()

	var out []feed.Event
	for rows.Next() {
		var e feed.Event
		if err := rows.Scan(&e.Code, &e.Title, &e.Category, &e.Location, &e.Status); err != nil {
			s.log.Warn("scan event failed, starting empty", logx.Err(err))
			return nil, nil
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		s.log.Warn("load events failed, starting empty", logx.Err(err))
		return nil, nil
	}
	return out, nil
}

func (s *sqliteStore) SaveEvents(ctx context.Context, events []feed.Event) error {
	if s == nil || s.db == nil {
		return errClosed
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM events`); err != nil {
		return err
	}
	for i, e := range events {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO events(pos, code, title, category, location, status) VALUES(?,?,?,?,?,?)`,
			i, e.Code, e.Title, e.Category, e.Location, e.Status)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *sqliteStore) LoadSubscribers(ctx context.Context) ([]int64, error) {
	if s == nil || s.db == nil {
		return nil, errClosed
	}
	rows, err := s.db.QueryContext(ctx, `SELECT chat_id FROM subscribers`)
	if err != nil {
		s.log.Warn("load subscribers failed, starting empty", logx.Err(err))
		return nil, nil
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			s.log.Warn("scan subscriber failed, starting empty", logx.Err(err))
			return nil, nil
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		s.log.Warn("load subscribers failed, starting empty", logx.Err(err))
		return nil, nil
	}
	return out, nil
}

func (s *sqliteStore) SaveSubscribers(ctx context.Context, users []int64) error {
	if s == nil || s.db == nil {
		return errClosed
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM subscribers`); err != nil {
		return err
	}
	for _, id := range users {
		if _, err := tx.ExecContext(ctx, `INSERT INTO subscribers(chat_id) VALUES(?)`, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}
