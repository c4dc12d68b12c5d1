// Package connectivity tracks whether the remote store is reachable.
package connectivity

import (
	"log/slog"
	"sort"
	"sync"
)

// Monitor holds the current online flag and notifies subscribers on every
// change of it. Setting the flag to the value it already has notifies nobody.
type Monitor struct {
	log *slog.Logger

	mu     sync.Mutex
	online bool
	next   int
	subs   map[int]func(online bool)
}

func NewMonitor(online bool, log *slog.Logger) *Monitor {
	return &Monitor{
		log:    log,
		online: online,
		subs:   make(map[int]func(bool)),
	}
}

func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

func (m *Monitor) Set(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online

	ids := make([]int, 0, len(m.subs))
	for id := range m.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(bool), len(ids))
	for i, id := range ids {
		fns[i] = m.subs[id]
	}
	m.mu.Unlock()

	if online {
		m.log.Info("connectivity restored")
	} else {
		m.log.Warn("connectivity lost")
	}
	// callbacks run outside the lock so they may read the monitor
	for _, fn := range fns {
		fn(online)
	}
}

// Subscribe registers fn for future changes and returns a func that removes it.
func (m *Monitor) Subscribe(fn func(online bool)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.next
	m.next++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}
