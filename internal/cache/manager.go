// Package cache keeps the last known-good list of approved events so the
// directory stays readable while the remote store is unreachable.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"campus-events/internal/apperr"
	"campus-events/internal/host"
	"campus-events/internal/kv"
	"campus-events/internal/model"
)

const snapshotKey = "cached_events"

type Source interface {
	ListEvents(ctx context.Context, status model.Status) ([]model.EventRecord, error)
}

// Result is the outcome of a Refresh. When Stale is set the events come from
// the stored snapshot and Err says why the fetch did not succeed. Fresh
// events with a non-nil Err were fetched but could not be stored; the
// snapshot and LastSyncedAt are then unchanged.
type Result struct {
	Events       []model.EventRecord
	Stale        bool
	Err          error
	LastSyncedAt *time.Time
}

type Status struct {
	Online       bool       `json:"online"`
	LastSyncedAt *time.Time `json:"last_synced_at"`
	CachedCount  int        `json:"cached_count"`
}

type Manager struct {
	source  Source
	store   kv.Store
	signals host.Signals
	log     *slog.Logger
	now     func() time.Time

	// serialises refreshes so a snapshot is always written whole
	mu sync.Mutex
}

func New(source Source, store kv.Store, signals host.Signals, log *slog.Logger) *Manager {
	return &Manager{
		source:  source,
		store:   store,
		signals: signals,
		log:     log,
		now:     time.Now,
	}
}

// Refresh fetches every approved event and replaces the snapshot with it.
// When the fetch cannot happen or fails, a non-empty snapshot is returned as
// stale with a nil error; without one the failure is returned.
func (m *Manager) Refresh(ctx context.Context) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.signals.Online() {
		return m.fallback(ctx, apperr.NewConnectivity("offline: remote fetch not attempted"))
	}

	events, err := m.source.ListEvents(ctx, model.StatusApproved)
	if err != nil {
		return m.fallback(ctx, fmt.Errorf("fetch approved events: %w", err))
	}
	if events == nil {
		events = []model.EventRecord{}
	}
	slices.SortStableFunc(events, func(a, b model.EventRecord) int {
		return a.Date.Compare(b.Date)
	})

	synced := m.now().UTC()
	snap := model.CacheSnapshot{Items: events, LastSyncedAt: &synced}
	if err := kv.PutJSON(m.store, snapshotKey, snap); err != nil {
		m.log.ErrorContext(ctx, "failed to store event snapshot", "err", err)
		return Result{Events: slices.Clone(events), Err: fmt.Errorf("store event snapshot: %w", err)}, nil
	}

	m.log.InfoContext(ctx, "events refreshed", "count", len(events))
	return Result{Events: slices.Clone(events), LastSyncedAt: &synced}, nil
}

func (m *Manager) fallback(ctx context.Context, cause error) (Result, error) {
	snap, err := m.load()
	if err != nil {
		m.log.ErrorContext(ctx, "failed to read event snapshot", "err", err)
		return Result{}, cause
	}
	if len(snap.Items) == 0 {
		return Result{}, cause
	}

	m.log.WarnContext(ctx, "serving cached events", "count", len(snap.Items), "reason", cause)
	return Result{
		Events:       snap.Items,
		Stale:        true,
		Err:          cause,
		LastSyncedAt: snap.LastSyncedAt,
	}, nil
}

func (m *Manager) load() (model.CacheSnapshot, error) {
	var snap model.CacheSnapshot
	if _, err := kv.GetJSON(m.store, snapshotKey, &snap); err != nil {
		return model.CacheSnapshot{}, err
	}
	return snap, nil
}

// Snapshot returns the stored events without touching the network. It is
// the read path once the caller already knows it is offline.
func (m *Manager) Snapshot() []model.EventRecord {
	snap, err := m.load()
	if err != nil {
		m.log.Error("failed to read event snapshot", "err", err)
		return nil
	}
	return snap.Items
}

func (m *Manager) Status() Status {
	st := Status{Online: m.signals.Online()}
	snap, err := m.load()
	if err != nil {
		m.log.Error("failed to read event snapshot", "err", err)
		return st
	}
	st.LastSyncedAt = snap.LastSyncedAt
	st.CachedCount = len(snap.Items)
	return st
}

// Clear drops the snapshot and its sync time.
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Delete(snapshotKey)
}
