package engine

import (
	"context"

	"eventwatch/internal/feed"
	"eventwatch/internal/storage"
	"eventwatch/pkg/logx"
)

const DefaultMaxStored = 50

// EventStore is the ordered, deduplicated, size-bounded collection of
// previously-seen events. Newest first. Owned by the engine; persisted
// through the storage layer after every mutation.
type EventStore struct {
	log logx.Logger
	db  storage.Store
	max int

	events []feed.Event
	known  map[string]bool // codes present in events
}

func NewEventStore(db storage.Store, max int, log logx.Logger) *EventStore {
	if max <= 0 {
		max = DefaultMaxStored
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &EventStore{
		log:   log,
		db:    db,
		max:   max,
		known: map[string]bool{},
	}
}

// Load pulls the persisted document into memory. Called once at startup;
// a missing or corrupt document means starting empty.
func (s *EventStore) Load(ctx context.Context) error {
	events, err := s.db.LoadEvents(ctx)
	if err != nil {
		return err
	}
	s.events = s.events[:0]
	s.known = map[string]bool{}
	for _, e := range events {
		if e.Code == "" || s.known[e.Code] {
			// A persisted duplicate or empty code would break the dedup
			// invariant; drop it rather than carrying it forward.
			continue
		}
		s.events = append(s.events, e)
		s.known[e.Code] = true
	}
	if len(s.events) > s.max {
		s.truncate()
	}
	return nil
}

func (s *EventStore) Len() int { return len(s.events) }

// Recent returns up to n stored events, newest first.
func (s *EventStore) Recent(n int) []feed.Event {
	if n > len(s.events) {
		n = len(s.events)
	}
	out := make([]feed.Event, n)
	copy(out, s.events[:n])
	return out
}

// Reconcile diffs candidates against the store and prepends the unseen
// ones.
//
// Candidates must arrive in the remote API's order, oldest first: each
// new event is prepended as encountered, so the single newest arrival
// ends up at index 0. Returns the newly inserted events newest-first.
// The store is persisted only when something was inserted.
func (s *EventStore) Reconcile(ctx context.Context, candidates []feed.Event) ([]feed.Event, error) {
	var fresh []feed.Event
	for _, c := range candidates {
		if c.Code == "" || s.known[c.Code] {
			continue
		}
		s.events = append([]feed.Event{c}, s.events...)
		s.known[c.Code] = true
		// newest-first result: newer arrivals go in front
		fresh = append([]feed.Event{c}, fresh...)
	}
	if len(fresh) == 0 {
		return nil, nil
	}
	s.truncate()
	if err := s.db.SaveEvents(ctx, s.events); err != nil {
		return fresh, err
	}
	return fresh, nil
}

// Seed replaces the store content wholesale (first-run initialization
// from the recent-events query). Events must be newest-first.
func (s *EventStore) Seed(ctx context.Context, events []feed.Event) error {
	s.events = s.events[:0]
	s.known = map[string]bool{}
	for _, e := range events {
		if e.Code == "" || s.known[e.Code] {
			continue
		}
		s.events = append(s.events, e)
		s.known[e.Code] = true
	}
	s.truncate()
	return s.db.SaveEvents(ctx, s.events)
}

func (s *EventStore) truncate() {
	if len(s.events) <= s.max {
		return
	}
	for _, e := range s.events[s.max:] {
		delete(s.known, e.Code)
	}
	s.events = s.events[:s.max]
}
