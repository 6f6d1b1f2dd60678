package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"eventwatch/internal/feed"
	"eventwatch/internal/transport"
	"eventwatch/pkg/logx"
)

const adminID int64 = 1

// memStore is an in-memory storage.Store that counts saves, so tests
// can assert when persistence happens, not just what was persisted.
type memStore struct {
	events []feed.Event
	users  []int64

	eventSaves int
	userSaves  int
}

func (m *memStore) LoadEvents(ctx context.Context) ([]feed.Event, error) { return m.events, nil }
func (m *memStore) SaveEvents(ctx context.Context, events []feed.Event) error {
	m.events = append([]feed.Event(nil), events...)
	m.eventSaves++
	return nil
}
func (m *memStore) LoadSubscribers(ctx context.Context) ([]int64, error) { return m.users, nil }
func (m *memStore) SaveSubscribers(ctx context.Context, users []int64) error {
	m.users = append([]int64(nil), users...)
	m.userSaves++
	return nil
}
func (m *memStore) Close() error { return nil }

type sentMsg struct {
	chat int64
	text string
}

type fakeSender struct {
	msgs []sentMsg
	fail map[int64]bool
}

func (f *fakeSender) SendText(ctx context.Context, chatID int64, text string) error {
	if f.fail[chatID] {
		return errors.New("recipient unreachable")
	}
	f.msgs = append(f.msgs, sentMsg{chat: chatID, text: text})
	return nil
}

func (f *fakeSender) sentTo(chatID int64) []string {
	var out []string
	for _, m := range f.msgs {
		if m.chat == chatID {
			out = append(out, m.text)
		}
	}
	return out
}

type fakeFeed struct {
	records []feed.RawRecord
	err     error
	calls   int
}

func (f *fakeFeed) FetchRecords(ctx context.Context) ([]feed.RawRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

// rawEvent builds a notifiable raw record.
func rawEvent(code, title string) feed.RawRecord {
	return feed.RawRecord{
		Title: title,
		Fields: []feed.RawField{
			{ValidationKey: "event_code", Value: code},
			{ValidationKey: "event_category", Value: "Competition"},
			{ValidationKey: "event_location", Value: "ONLINE"},
			{ValidationKey: "event_status", Value: "Active"},
		},
	}
}

func knownEvent(code string) feed.Event {
	return feed.Event{
		Code:     code,
		Title:    "known " + code,
		Category: "Competition",
		Location: "ONLINE",
		Status:   "Active",
	}
}

type harness struct {
	eng     *Engine
	sender  *fakeSender
	db      *memStore
	ff      *fakeFeed
	updates chan transport.Message
}

func newHarness(t *testing.T, ff *fakeFeed, db *memStore, opts Options) *harness {
	t.Helper()
	if db == nil {
		db = &memStore{}
	}
	sender := &fakeSender{}
	store := NewEventStore(db, 0, logx.Nop())
	reg := NewRegistry(db, adminID, logx.Nop())
	// High rate so tests never block on the limiter.
	disp := NewDispatcher(sender, reg, 1000, logx.Nop())
	updates := make(chan transport.Message, 16)
	eng := New(opts, ff, store, reg, disp, updates, logx.Nop())
	if err := eng.Load(context.Background()); err != nil {
		t.Fatalf("engine load: %v", err)
	}
	return &harness{eng: eng, sender: sender, db: db, ff: ff, updates: updates}
}

func (h *harness) subscribe(t *testing.T, id int64) {
	t.Helper()
	if _, err := h.eng.reg.Add(context.Background(), id); err != nil {
		t.Fatalf("registry add: %v", err)
	}
}

func expiredErr() error {
	return fmt.Errorf("fetch activity list: status 401: %w", feed.ErrSessionExpired)
}
