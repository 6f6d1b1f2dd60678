package storage

import (
	"context"
	"time"

	"eventwatch/internal/feed"
)

// Config configures storage.
//
// Driver values:
//   - "file": dependency-free file backend (two JSON documents)
//   - "sqlite": SQLite database file (optional build tag)
//
// If Driver is empty, "file" is assumed.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Store is the persistence API used by the engine.
//
// Loads return the empty default when the underlying document is missing
// or malformed; saves replace the whole document atomically.
type Store interface {
	LoadEvents(ctx context.Context) ([]feed.Event, error)
	SaveEvents(ctx context.Context, events []feed.Event) error
	LoadSubscribers(ctx context.Context) ([]int64, error)
	SaveSubscribers(ctx context.Context, users []int64) error
	Close() error
}
