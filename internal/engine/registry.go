package engine

import (
	"context"

	"eventwatch/internal/storage"
	"eventwatch/pkg/logx"
)

// Registry is the persisted set of broadcast recipients. The configured
// administrator is always a member.
type Registry struct {
	log   logx.Logger
	db    storage.Store
	admin int64

	ids   []int64
	index map[int64]bool
}

func NewRegistry(db storage.Store, admin int64, log logx.Logger) *Registry {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Registry{
		log:   log,
		db:    db,
		admin: admin,
		index: map[int64]bool{},
	}
}

// Load restores the persisted registry and re-seeds the administrator.
func (r *Registry) Load(ctx context.Context) error {
	users, err := r.db.LoadSubscribers(ctx)
	if err != nil {
		return err
	}
	r.ids = r.ids[:0]
	r.index = map[int64]bool{}
	for _, id := range users {
		if id == 0 || r.index[id] {
			continue
		}
		r.ids = append(r.ids, id)
		r.index[id] = true
	}
	if !r.index[r.admin] {
		r.ids = append(r.ids, r.admin)
		r.index[r.admin] = true
		// Persist the seed so a fresh deployment has a registry document
		// from the first run on.
		if err := r.db.SaveSubscribers(ctx, r.ids); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) Contains(id int64) bool { return r.index[id] }

func (r *Registry) Len() int { return len(r.ids) }

// Add registers a recipient and persists the registry. Reports whether
// the id was actually new.
func (r *Registry) Add(ctx context.Context, id int64) (bool, error) {
	if id == 0 || r.index[id] {
		return false, nil
	}
	r.ids = append(r.ids, id)
	r.index[id] = true
	if err := r.db.SaveSubscribers(ctx, r.ids); err != nil {
		return true, err
	}
	return true, nil
}

// Snapshot returns the recipients in registry order.
func (r *Registry) Snapshot() []int64 {
	out := make([]int64, len(r.ids))
	copy(out, r.ids)
	return out
}
