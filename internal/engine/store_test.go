package engine

import (
	"context"
	"testing"

	"eventwatch/internal/feed"
	"eventwatch/pkg/logx"
)

func TestReconcileOrdering(t *testing.T) {
	db := &memStore{}
	s := NewEventStore(db, 0, logx.Nop())

	// Remote order: oldest first.
	candidates := []feed.Event{knownEvent("A"), knownEvent("B"), knownEvent("C")}
	fresh, err := s.Reconcile(context.Background(), candidates)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(fresh) != 3 {
		t.Fatalf("expected 3 fresh, got %d", len(fresh))
	}
	// Newest-first both in the store and in the returned set.
	for i, want := range []string{"C", "B", "A"} {
		if fresh[i].Code != want {
			t.Fatalf("fresh[%d] = %s, want %s", i, fresh[i].Code, want)
		}
		if s.events[i].Code != want {
			t.Fatalf("store[%d] = %s, want %s", i, s.events[i].Code, want)
		}
	}
}

func TestReconcileIdempotent(t *testing.T) {
	db := &memStore{}
	s := NewEventStore(db, 0, logx.Nop())

	candidates := []feed.Event{knownEvent("A"), knownEvent("B")}
	if _, err := s.Reconcile(context.Background(), candidates); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	savesAfterFirst := db.eventSaves

	fresh, err := s.Reconcile(context.Background(), candidates)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(fresh) != 0 {
		t.Fatalf("expected no fresh events on second reconcile, got %d", len(fresh))
	}
	if s.Len() != 2 {
		t.Fatalf("store changed on idempotent reconcile: len=%d", s.Len())
	}
	if db.eventSaves != savesAfterFirst {
		t.Fatalf("no-op reconcile must not persist (saves %d -> %d)", savesAfterFirst, db.eventSaves)
	}
}

func TestReconcileCapEnforcement(t *testing.T) {
	db := &memStore{}
	s := NewEventStore(db, 3, logx.Nop())

	if _, err := s.Reconcile(context.Background(), []feed.Event{knownEvent("A"), knownEvent("B"), knownEvent("C")}); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if s.Len() != 3 {
		t.Fatalf("expected store at cap, got %d", s.Len())
	}

	if _, err := s.Reconcile(context.Background(), []feed.Event{knownEvent("D")}); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if s.Len() != 3 {
		t.Fatalf("cap exceeded: len=%d", s.Len())
	}
	if s.events[0].Code != "D" {
		t.Fatalf("new event not at index 0: %s", s.events[0].Code)
	}
	for _, e := range s.events {
		if e.Code == "A" {
			t.Fatalf("oldest event survived cap truncation")
		}
	}
}

func TestLoadDropsDuplicatesAndEmptyCodes(t *testing.T) {
	db := &memStore{events: []feed.Event{
		knownEvent("A"),
		{Code: "", Title: "broken"},
		knownEvent("A"),
		knownEvent("B"),
	}}
	s := NewEventStore(db, 0, logx.Nop())
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 events after load, got %d", s.Len())
	}
	if s.events[0].Code != "A" || s.events[1].Code != "B" {
		t.Fatalf("unexpected order after load: %+v", s.events)
	}
}

func TestSeedReplacesContent(t *testing.T) {
	db := &memStore{events: []feed.Event{knownEvent("old")}}
	s := NewEventStore(db, 0, logx.Nop())
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := s.Seed(context.Background(), []feed.Event{knownEvent("N2"), knownEvent("N1")}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if s.Len() != 2 || s.events[0].Code != "N2" {
		t.Fatalf("unexpected store after seed: %+v", s.events)
	}
	if db.eventSaves != 1 {
		t.Fatalf("seed must persist exactly once, got %d saves", db.eventSaves)
	}
}
