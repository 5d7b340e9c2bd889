// internal/play/registry.go
//
// Registry keeps one Table per player in memory.
//
// Characteristics:
//   - Concurrency-safe via RWMutex.
//   - Tables are created lazily by a factory (which loads the player's records)
//     outside the lock.
//   - Sweep closes tables idle longer than a cutoff; state is lost on restart.

package play

import (
	"sync"
	"time"
)

// Registry maps player ids to tables.
type Registry struct {
	mu     sync.RWMutex
	tables map[string]*Table
	create func(player string) *Table
}

// NewRegistry builds a registry that creates missing tables with create.
func NewRegistry(create func(player string) *Table) *Registry {
	return &Registry{tables: make(map[string]*Table), create: create}
}

// Get returns the player's table, or nil.
func (r *Registry) Get(player string) *Table {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tables[player]
}

// Ensure returns the player's table, creating it when missing. The factory
// runs without the registry lock; if two requests race, the loser's table is
// closed and the winner's returned.
func (r *Registry) Ensure(player string) *Table {
	if t := r.Get(player); t != nil {
		return t
	}
	fresh := r.create(player)

	r.mu.Lock()
	t, ok := r.tables[player]
	if !ok {
		r.tables[player] = fresh
	}
	r.mu.Unlock()

	if ok {
		fresh.Close()
		return t
	}
	return fresh
}

// Sweep closes tables whose last request is older than maxIdle and returns
// how many it removed. Idle times are read without the registry lock, so a
// table busy in a hook only delays the sweep.
func (r *Registry) Sweep(now time.Time, maxIdle time.Duration) int {
	r.mu.RLock()
	snapshot := make(map[string]*Table, len(r.tables))
	for p, t := range r.tables {
		snapshot[p] = t
	}
	r.mu.RUnlock()

	idle := make(map[string]*Table)
	for p, t := range snapshot {
		if now.Sub(t.IdleSince()) > maxIdle {
			idle[p] = t
		}
	}
	if len(idle) == 0 {
		return 0
	}

	var stale []*Table
	r.mu.Lock()
	for p, t := range idle {
		if r.tables[p] == t {
			delete(r.tables, p)
			stale = append(stale, t)
		}
	}
	r.mu.Unlock()

	for _, t := range stale {
		t.Close()
	}
	return len(stale)
}

// Len is the number of live tables.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tables)
}
