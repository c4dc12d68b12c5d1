package approval

import (
	"context"
	"io"
	"log/slog"
	"net"
	"slices"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-events/internal/apperr"
	"campus-events/internal/host"
	"campus-events/internal/model"
)

const (
	admin  = "acct-admin"
	member = "acct-member"
)

var t0 = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

// memStore mimics the conditional update of the SQL store.
type memStore struct {
	mu     sync.Mutex
	events map[string]model.EventRecord
	roles  map[string]model.Role
	calls  int
	// down, when set, is returned by every write
	down error
}

func newMemStore() *memStore {
	return &memStore{
		events: make(map[string]model.EventRecord),
		roles:  map[string]model.Role{admin: model.RoleAdmin, member: model.RoleUser},
	}
}

func (m *memStore) InsertEvent(_ context.Context, e *model.EventRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.down != nil {
		return m.down
	}
	m.events[e.ID] = *e
	return nil
}

func (m *memStore) ListEventsForReview(_ context.Context, status model.Status) ([]model.EventRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	var out []model.EventRecord
	for _, e := range m.events {
		if e.Status == status {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b model.EventRecord) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (m *memStore) GetEvent(_ context.Context, id string) (*model.EventRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	e, ok := m.events[id]
	if !ok {
		return nil, apperr.NewNotFound("event %s not found", id)
	}
	return &e, nil
}

func (m *memStore) UpdateEventStatus(_ context.Context, id string, from, to model.Status, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.down != nil {
		return m.down
	}
	e, ok := m.events[id]
	if !ok {
		return apperr.NewNotFound("event %s not found", id)
	}
	if e.Status != from {
		return apperr.NewConflict("event %s is %s, expected %s", id, e.Status, from)
	}
	e.Status = to
	e.UpdatedAt = at
	m.events[id] = e
	return nil
}

func (m *memStore) DeleteEvent(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.down != nil {
		return m.down
	}
	if _, ok := m.events[id]; !ok {
		return apperr.NewNotFound("event %s not found", id)
	}
	delete(m.events, id)
	return nil
}

func (m *memStore) AccountRole(_ context.Context, accountID string) (model.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	role, ok := m.roles[accountID]
	if !ok {
		return "", apperr.NewNotFound("account %s not found", accountID)
	}
	return role, nil
}

func (m *memStore) get(id string) (model.EventRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	return e, ok
}

type fixture struct {
	store *memStore
	net   *host.Static
	clock time.Time
	w     *Workflow
}

func newFixture() *fixture {
	f := &fixture{store: newMemStore(), net: &host.Static{IsOnline: true}, clock: t0}
	f.w = New(f.store, f.net, slog.New(slog.NewTextHandler(io.Discard, nil)))
	f.w.now = func() time.Time { return f.clock }
	return f
}

func (f *fixture) tick(d time.Duration) { f.clock = f.clock.Add(d) }

func (f *fixture) seed(id string, status model.Status, createdAt time.Time) model.EventRecord {
	rec := model.EventRecord{
		ID:          id,
		Title:       "Title " + id,
		Description: "Description " + id,
		Department:  model.DepartmentComputing,
		Date:        t0.Add(7 * 24 * time.Hour),
		Venue:       "Venue " + id,
		Status:      status,
		CreatedBy:   member,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	f.store.events[id] = rec
	return rec
}

func draft() model.EventDraft {
	return model.EventDraft{
		Title:       "Robotics Showcase",
		Description: "Student robots on display",
		Department:  model.DepartmentEngineering,
		Date:        t0.Add(48 * time.Hour),
		Venue:       "Engineering Block",
	}
}

func TestCreate(t *testing.T) {
	tests := []struct {
		name  string
		actor string
		want  model.Status
	}{
		{"admin author is approved", admin, model.StatusApproved},
		{"member author is pending", member, model.StatusPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()

			rec, err := f.w.Create(context.Background(), tt.actor, draft())

			require.NoError(t, err)
			assert.NotEmpty(t, rec.ID)
			assert.Equal(t, tt.want, rec.Status)
			assert.Equal(t, tt.actor, rec.CreatedBy)
			assert.Equal(t, t0, rec.CreatedAt)
			assert.Equal(t, t0, rec.UpdatedAt)
			stored, ok := f.store.get(rec.ID)
			require.True(t, ok)
			assert.Equal(t, rec, stored)
		})
	}
}

func TestCreateRejectsInvalidDraft(t *testing.T) {
	f := newFixture()
	d := draft()
	d.Date = t0.Add(-time.Hour)

	_, err := f.w.Create(context.Background(), member, d)

	assert.True(t, apperr.IsValidation(err))
	assert.Empty(t, f.store.events)
}

func TestCreateUnknownAccount(t *testing.T) {
	f := newFixture()

	_, err := f.w.Create(context.Background(), "acct-ghost", draft())

	assert.True(t, apperr.IsAuthorization(err))
	assert.Empty(t, f.store.events)
}

func TestOfflineOperationsAreNotAttempted(t *testing.T) {
	f := newFixture()
	rec := f.seed("E", model.StatusPending, t0)
	f.net.IsOnline = false
	ctx := context.Background()

	_, err := f.w.Create(ctx, admin, draft())
	assert.True(t, apperr.IsConnectivity(err))
	_, err = f.w.Approve(ctx, admin, rec)
	assert.True(t, apperr.IsConnectivity(err))
	_, err = f.w.TransitionID(ctx, admin, "E", "", model.StatusRejected)
	assert.True(t, apperr.IsConnectivity(err))
	err = f.w.Delete(ctx, admin, "E")
	assert.True(t, apperr.IsConnectivity(err))
	_, err = f.w.Review(ctx, admin, model.StatusPending)
	assert.True(t, apperr.IsConnectivity(err))

	assert.Zero(t, f.store.calls)
}

func TestApproveRejectApproveSequence(t *testing.T) {
	f := newFixture()
	rec := f.seed("E", model.StatusPending, t0)
	ctx := context.Background()

	f.tick(time.Minute)
	rec, err := f.w.Approve(ctx, admin, rec)
	require.NoError(t, err)
	first := rec.UpdatedAt

	f.tick(time.Minute)
	rec, err = f.w.Reject(ctx, admin, rec)
	require.NoError(t, err)
	second := rec.UpdatedAt

	f.tick(time.Minute)
	rec, err = f.w.Approve(ctx, admin, rec)
	require.NoError(t, err)

	assert.Equal(t, model.StatusApproved, rec.Status)
	assert.False(t, second.Before(first))
	assert.False(t, rec.UpdatedAt.Before(second))
	stored, _ := f.store.get("E")
	assert.Equal(t, rec, stored)
}

func TestUpdatedAtNeverGoesBackwards(t *testing.T) {
	f := newFixture()
	rec := f.seed("E", model.StatusPending, t0.Add(time.Hour))

	updated, err := f.w.Approve(context.Background(), admin, rec)

	require.NoError(t, err)
	assert.Equal(t, t0.Add(time.Hour), updated.UpdatedAt)
}

func TestNonAdminCannotTransition(t *testing.T) {
	for _, actor := range []string{member, "acct-ghost"} {
		t.Run(actor, func(t *testing.T) {
			f := newFixture()
			rec := f.seed("E", model.StatusPending, t0)

			got, err := f.w.Approve(context.Background(), actor, rec)

			assert.True(t, apperr.IsAuthorization(err))
			assert.Equal(t, rec, got)
			stored, _ := f.store.get("E")
			assert.Equal(t, model.StatusPending, stored.Status)

			err = f.w.Delete(context.Background(), actor, "E")
			assert.True(t, apperr.IsAuthorization(err))
			_, ok := f.store.get("E")
			assert.True(t, ok)
		})
	}
}

func TestTransitionToPendingIsRefused(t *testing.T) {
	f := newFixture()
	rec := f.seed("E", model.StatusApproved, t0)

	_, err := f.w.Transition(context.Background(), admin, rec, model.StatusPending)

	assert.True(t, apperr.IsValidation(err))
	assert.Zero(t, f.store.calls)
}

func TestTransitionOnStaleCopyConflicts(t *testing.T) {
	f := newFixture()
	rec := f.seed("E", model.StatusPending, t0)
	ctx := context.Background()
	_, err := f.w.Approve(ctx, admin, rec)
	require.NoError(t, err)

	_, err = f.w.Reject(ctx, admin, rec)

	assert.True(t, apperr.IsConflict(err))
	stored, _ := f.store.get("E")
	assert.Equal(t, model.StatusApproved, stored.Status)
}

func TestTransitionOnDeletedRecord(t *testing.T) {
	f := newFixture()
	rec := f.seed("E", model.StatusPending, t0)
	require.NoError(t, f.w.Delete(context.Background(), admin, "E"))

	_, err := f.w.Approve(context.Background(), admin, rec)

	assert.True(t, apperr.IsNotFound(err))
}

func TestReapproveBumpsTimestamp(t *testing.T) {
	f := newFixture()
	rec := f.seed("E", model.StatusApproved, t0)
	f.tick(time.Minute)

	got, err := f.w.Approve(context.Background(), admin, rec)

	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, got.Status)
	assert.Equal(t, t0.Add(time.Minute), got.UpdatedAt)
}

func TestRejectThenReapprove(t *testing.T) {
	f := newFixture()
	rec := f.seed("D", model.StatusApproved, t0)
	ctx := context.Background()

	f.tick(time.Minute)
	rec, err := f.w.Reject(ctx, admin, rec)
	require.NoError(t, err)
	f.tick(time.Minute)
	rec, err = f.w.Approve(ctx, admin, rec)
	require.NoError(t, err)

	stored, ok := f.store.get("D")
	require.True(t, ok)
	assert.Equal(t, model.StatusApproved, stored.Status)
	assert.Equal(t, t0.Add(2*time.Minute), stored.UpdatedAt)
	assert.Equal(t, rec, stored)
}

func TestTransitionID(t *testing.T) {
	f := newFixture()
	f.seed("E", model.StatusPending, t0)
	ctx := context.Background()

	_, err := f.w.TransitionID(ctx, admin, "E", model.StatusApproved, model.StatusRejected)
	assert.True(t, apperr.IsConflict(err))

	got, err := f.w.TransitionID(ctx, admin, "E", model.StatusPending, model.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, got.Status)

	got, err = f.w.TransitionID(ctx, admin, "E", "", model.StatusRejected)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, got.Status)

	_, err = f.w.TransitionID(ctx, admin, "missing", "", model.StatusApproved)
	assert.True(t, apperr.IsNotFound(err))
}

func TestDeleteMissing(t *testing.T) {
	f := newFixture()

	err := f.w.Delete(context.Background(), admin, "missing")

	assert.True(t, apperr.IsNotFound(err))
}

func TestUnreachableStoreIsConnectivityError(t *testing.T) {
	f := newFixture()
	rec := f.seed("E", model.StatusPending, t0)
	f.store.down = apperr.NewConnectivity("update event status: %w",
		&net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED})
	ctx := context.Background()

	got, err := f.w.Approve(ctx, admin, rec)
	assert.True(t, apperr.IsConnectivity(err))
	assert.ErrorIs(t, err, syscall.ECONNREFUSED)
	assert.Equal(t, rec, got)

	_, err = f.w.Create(ctx, admin, draft())
	assert.True(t, apperr.IsConnectivity(err))

	err = f.w.Delete(ctx, admin, "E")
	assert.True(t, apperr.IsConnectivity(err))

	stored, _ := f.store.get("E")
	assert.Equal(t, model.StatusPending, stored.Status)
}
