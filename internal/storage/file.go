package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"eventwatch/internal/feed"
	"eventwatch/pkg/logx"
)

// fileStore is a dependency-free persistence backend.
//
// Files:
//   - <prefix>.events.json (the event store document)
//   - <prefix>.users.json  (the subscriber registry document)
//
// Each document is replaced atomically (write tmp + rename) on save.
type fileStore struct {
	log logx.Logger

	mu sync.Mutex

	eventsPath string
	usersPath  string
}

type eventsDoc struct {
	Events []feed.Event `json:"events"`
}

type usersDoc struct {
	Users []int64 `json:"users"`
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	prefix := filepath.Join(dir, base)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	return &fileStore{
		log:        log,
		eventsPath: prefix + ".events.json",
		usersPath:  prefix + ".users.json",
	}, nil
}

func (s *fileStore) Close() error { return nil }

func (s *fileStore) LoadEvents(ctx context.Context) ([]feed.Event, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	var doc eventsDoc
	if !s.loadDoc(s.eventsPath, &doc) {
		return nil, nil
	}
	return doc.Events, nil
}

func (s *fileStore) SaveEvents(ctx context.Context, events []feed.Event) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if events == nil {
		events = []feed.Event{}
	}
	return writeDoc(s.eventsPath, eventsDoc{Events: events})
}

func (s *fileStore) LoadSubscribers(ctx context.Context) ([]int64, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	var doc usersDoc
	if !s.loadDoc(s.usersPath, &doc) {
		return nil, nil
	}
	return doc.Users, nil
}

func (s *fileStore) SaveSubscribers(ctx context.Context, users []int64) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if users == nil {
		users = []int64{}
	}
	return writeDoc(s.usersPath, usersDoc{Users: users})
}

// loadDoc reads one JSON document into out. Missing files and corrupt
// content both degrade to "no document"; corruption is worth a warning,
// absence is not.
func (s *fileStore) loadDoc(path string, out any) bool {
	b, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("read document failed", logx.String("path", path), logx.Err(err))
		}
		return false
	}
	if err := json.Unmarshal(b, out); err != nil {
		s.log.Warn("malformed document, starting empty", logx.String("path", path), logx.Err(err))
		return false
	}
	return true
}

func writeDoc(path string, doc any) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
