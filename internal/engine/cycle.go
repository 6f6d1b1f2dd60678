package engine

import (
	"context"
	"sync"

	"eventwatch/internal/feed"
	"eventwatch/internal/transport"
	"eventwatch/pkg/logx"
)

// FeedClient is the authenticated fetch collaborator.
type FeedClient interface {
	FetchRecords(ctx context.Context) ([]feed.RawRecord, error)
}

// Options tune the engine.
type Options struct {
	// RecentCount is N for the /last5-style query. Default 5.
	RecentCount int
	// SeedOnStart makes the first reconcile against an empty store
	// populate it silently instead of broadcasting every live record.
	SeedOnStart bool
}

// Engine drives the change-detection cycle and the command loop.
//
// Tick and Poll are the only public triggers; they share one run mutex
// so the scheduler can never interleave a cycle with a drain. An
// overlapping trigger skips its turn.
type Engine struct {
	log  logx.Logger
	opts Options

	feed    FeedClient
	store   *EventStore
	reg     *Registry
	disp    *Dispatcher
	updates <-chan transport.Message

	runMu sync.Mutex

	// cursor is the highest inbound update id consumed. In-memory only:
	// a restart resets it, which may redeliver at most one already
	// handled command. Tolerated.
	cursor int
}

func New(opts Options, fc FeedClient, store *EventStore, reg *Registry, disp *Dispatcher, updates <-chan transport.Message, log logx.Logger) *Engine {
	if opts.RecentCount <= 0 {
		opts.RecentCount = 5
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Engine{
		log:     log,
		opts:    opts,
		feed:    fc,
		store:   store,
		reg:     reg,
		disp:    disp,
		updates: updates,
	}
}

// Load restores persisted state. Call once before the first trigger.
func (e *Engine) Load(ctx context.Context) error {
	if err := e.store.Load(ctx); err != nil {
		return err
	}
	if err := e.reg.Load(ctx); err != nil {
		return err
	}
	e.log.Info("engine state loaded",
		logx.Int("events", e.store.Len()),
		logx.Int("subscribers", e.reg.Len()))
	return nil
}

// Announce broadcasts an operator-facing line (startup notice).
func (e *Engine) Announce(ctx context.Context, text string) {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	e.disp.Broadcast(ctx, text)
}

// AnnounceStarted broadcasts the startup notice.
func (e *Engine) AnnounceStarted(ctx context.Context) {
	e.Announce(ctx, msgStarted)
}

// Tick runs one scheduled change-detection cycle. Skips if a cycle or
// drain is already in flight.
func (e *Engine) Tick(ctx context.Context) {
	if !e.runMu.TryLock() {
		e.log.Debug("cycle skipped; engine busy")
		return
	}
	defer e.runMu.Unlock()
	e.runCycle(ctx, false, 0)
}

// Poll runs one command drain. Skips if a cycle or drain is already in
// flight.
func (e *Engine) Poll(ctx context.Context) {
	if !e.runMu.TryLock() {
		e.log.Debug("drain skipped; engine busy")
		return
	}
	defer e.runMu.Unlock()
	e.drain(ctx)
}

// runCycle is the shared body of the scheduled and manual cycle.
//
// Scheduled (manual=false): session expiry is broadcast to everyone;
// transport failures and empty diffs stay silent.
// Manual (manual=true, replyTo set): expiry and "nothing new" go to the
// invoker only, so an on-demand check never spams the other subscribers.
func (e *Engine) runCycle(ctx context.Context, manual bool, replyTo int64) {
	records, err := e.feed.FetchRecords(ctx)
	switch feed.ClassifySession(err) {
	case feed.SessionExpired:
		e.log.Warn("session expired", logx.Err(err))
		if manual {
			e.disp.Reply(ctx, replyTo, msgSessionExpired)
		} else {
			e.disp.Broadcast(ctx, msgSessionExpired)
		}
		return
	case feed.FeedUnreachable:
		// Transient by assumption: log and wait for the next tick so a
		// network blip is never confused with a dead credential.
		e.log.Warn("activity fetch failed", logx.Err(err))
		if manual {
			e.disp.Reply(ctx, replyTo, msgUnreachable)
		}
		return
	}

	candidates := normalizeRecords(records)
	coldStart := e.store.Len() == 0

	fresh, err := e.store.Reconcile(ctx, candidates)
	if err != nil {
		e.log.Error("persist event store failed", logx.Err(err))
	}

	if coldStart && e.opts.SeedOnStart {
		e.log.Info("event store seeded without notify", logx.Int("events", len(fresh)))
		if manual {
			e.disp.Reply(ctx, replyTo, formatSeeded(len(fresh)))
		}
		return
	}

	if len(fresh) == 0 {
		if manual {
			e.disp.Reply(ctx, replyTo, msgNoNewEvents)
		}
		return
	}

	e.log.Info("new events detected", logx.Int("count", len(fresh)), logx.Bool("manual", manual))
	for _, ev := range fresh {
		e.disp.Broadcast(ctx, formatNewEvent(ev))
	}
}

// normalizeRecords runs the normalizer and validity filter over the raw
// records, preserving the remote API's order.
func normalizeRecords(records []feed.RawRecord) []feed.Event {
	var out []feed.Event
	for _, r := range records {
		ev, ok := feed.Normalize(r)
		if !ok {
			continue
		}
		if !feed.Notifiable(ev) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// recentEvents serves the /last5 query. A non-empty store answers from
// memory. An empty store does one fetch and keeps the newest valid
// candidates as the initial store content; read-mostly, no broadcast.
func (e *Engine) recentEvents(ctx context.Context) ([]feed.Event, error) {
	n := e.opts.RecentCount
	if e.store.Len() > 0 {
		return e.store.Recent(n), nil
	}

	records, err := e.feed.FetchRecords(ctx)
	if err != nil {
		return nil, err
	}
	candidates := normalizeRecords(records)

	// The feed lists oldest first; the newest N are the tail, flipped
	// into the store's newest-first order.
	if len(candidates) > n {
		candidates = candidates[len(candidates)-n:]
	}
	top := make([]feed.Event, 0, len(candidates))
	for i := len(candidates) - 1; i >= 0; i-- {
		top = append(top, candidates[i])
	}

	if err := e.store.Seed(ctx, top); err != nil {
		e.log.Error("persist seeded store failed", logx.Err(err))
	}
	return top, nil
}
