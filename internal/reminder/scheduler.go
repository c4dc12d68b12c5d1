// Package reminder arms one timer per approved upcoming event and emits an
// alert an hour before it starts. Registrations are persisted so they can be
// re-armed after a restart.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"campus-events/internal/alert"
	"campus-events/internal/host"
	"campus-events/internal/kv"
	"campus-events/internal/model"
)

const storageKey = "scheduled_notifications"

type Emitter interface {
	Emit(ctx context.Context, a alert.Alert) error
}

// Handle is the cancellation capability of one armed registration. It goes
// stale once its timer fires or a newer registration for the same event
// replaces it.
type Handle struct {
	s        *Scheduler
	reminder model.ScheduledReminder
	timer    Timer
}

func (h *Handle) EventID() string { return h.reminder.EventID }

func (h *Handle) Reminder() model.ScheduledReminder { return h.reminder }

// Cancel disarms the registration and forgets its persisted entry. A stale
// handle is a no-op.
func (h *Handle) Cancel() error {
	s := h.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.armed[h.reminder.EventID] != h {
		return nil
	}
	h.timer.Stop()
	delete(s.armed, h.reminder.EventID)
	return s.remove(h.reminder.EventID)
}

type Scheduler struct {
	store   kv.Store
	signals host.Signals
	emitter Emitter
	clock   Clock
	log     *slog.Logger

	mu    sync.Mutex
	armed map[string]*Handle
}

func New(store kv.Store, signals host.Signals, emitter Emitter, clock Clock, log *slog.Logger) *Scheduler {
	return &Scheduler{
		store:   store,
		signals: signals,
		emitter: emitter,
		clock:   clock,
		log:     log,
		armed:   make(map[string]*Handle),
	}
}

// Schedule registers a reminder for ev. It returns a nil handle, and does
// nothing, when alert permission is not granted or the reminder time has
// already passed.
func (s *Scheduler) Schedule(ev model.EventRecord) (*Handle, error) {
	if s.signals.AlertPermission() != alert.PermissionGranted {
		return nil, nil
	}
	r := model.NewReminder(ev)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !r.FiresAt.After(s.clock.Now()) {
		return nil, nil
	}
	entries, err := s.load()
	if err != nil {
		return nil, err
	}
	entries[r.EventID] = r
	if err := s.save(entries); err != nil {
		return nil, err
	}
	return s.arm(r), nil
}

// Cancel forgets the reminder for eventID and disarms its timer if one is live.
func (s *Scheduler) Cancel(eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.armed[eventID]; ok {
		h.timer.Stop()
		delete(s.armed, eventID)
	}
	return s.remove(eventID)
}

// RestoreAll re-arms the persisted reminders at start-up. Entries whose time
// has passed are discarded without firing.
func (s *Scheduler) RestoreAll() ([]*Handle, error) {
	if s.signals.AlertPermission() != alert.PermissionGranted {
		s.log.Info("reminder restore skipped, alert permission not granted")
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	var handles []*Handle
	expired := 0
	for id, r := range entries {
		if !r.FiresAt.After(now) || !r.EventDate.After(now) {
			delete(entries, id)
			expired++
			continue
		}
		handles = append(handles, s.arm(r))
	}
	if expired > 0 {
		if err := s.save(entries); err != nil {
			return handles, err
		}
	}
	slices.SortFunc(handles, func(a, b *Handle) int {
		return a.reminder.FiresAt.Compare(b.reminder.FiresAt)
	})

	s.log.Info("reminders restored", "armed", len(handles), "discarded", expired)
	return handles, nil
}

// Reconcile brings the registrations in line with the observed approved
// events: upcoming ones get a reminder, and reminders for events that are no
// longer observed are cancelled.
func (s *Scheduler) Reconcile(events []model.EventRecord) error {
	observed := make(map[string]bool, len(events))
	var errs []error
	for _, ev := range events {
		if ev.Status != model.StatusApproved {
			continue
		}
		observed[ev.ID] = true
		if _, err := s.Schedule(ev); err != nil {
			errs = append(errs, fmt.Errorf("schedule %s: %w", ev.ID, err))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, h := range s.armed {
		if !observed[id] {
			h.timer.Stop()
			delete(s.armed, id)
		}
	}
	entries, err := s.load()
	if err != nil {
		return errors.Join(append(errs, err)...)
	}
	dropped := 0
	for id := range entries {
		if !observed[id] {
			delete(entries, id)
			dropped++
		}
	}
	if dropped > 0 {
		if err := s.save(entries); err != nil {
			errs = append(errs, err)
		}
		s.log.Info("reminders dropped for events no longer listed", "count", dropped)
	}
	return errors.Join(errs...)
}

func (s *Scheduler) Armed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.armed)
}

// Pending lists the persisted reminders, soonest first.
func (s *Scheduler) Pending() ([]model.ScheduledReminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]model.ScheduledReminder, 0, len(entries))
	for _, r := range entries {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b model.ScheduledReminder) int {
		return a.FiresAt.Compare(b.FiresAt)
	})
	return out, nil
}

// arm must be called with s.mu held. An identical live registration is
// kept as is; a different one is stopped and replaced.
func (s *Scheduler) arm(r model.ScheduledReminder) *Handle {
	if cur, ok := s.armed[r.EventID]; ok {
		if sameReminder(cur.reminder, r) {
			return cur
		}
		cur.timer.Stop()
	}
	h := &Handle{s: s, reminder: r}
	h.timer = s.clock.AfterFunc(r.FiresAt.Sub(s.clock.Now()), func() { s.fire(h) })
	s.armed[r.EventID] = h
	s.log.Info("reminder armed", "event", r.EventID, "fires_at", r.FiresAt)
	return h
}

func (s *Scheduler) fire(h *Handle) {
	id := h.reminder.EventID

	s.mu.Lock()
	if s.armed[id] != h {
		// superseded or cancelled after the timer had already started
		s.mu.Unlock()
		return
	}
	delete(s.armed, id)
	s.mu.Unlock()

	a := alert.Alert{
		Title: "Upcoming Event: " + h.reminder.EventTitle,
		Body:  "Starting in 1 hour at " + h.reminder.Venue,
		Tag:   id,
	}
	if err := s.emitter.Emit(context.Background(), a); err != nil {
		s.log.Error("failed to emit reminder", "event", id, "err", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, rearmed := s.armed[id]; rearmed {
		return
	}
	if err := s.remove(id); err != nil {
		s.log.Error("failed to drop fired reminder", "event", id, "err", err)
	}
}

func (s *Scheduler) load() (map[string]model.ScheduledReminder, error) {
	entries := make(map[string]model.ScheduledReminder)
	if _, err := kv.GetJSON(s.store, storageKey, &entries); err != nil {
		return nil, fmt.Errorf("load reminders: %w", err)
	}
	if entries == nil {
		entries = make(map[string]model.ScheduledReminder)
	}
	return entries, nil
}

func (s *Scheduler) save(entries map[string]model.ScheduledReminder) error {
	if err := kv.PutJSON(s.store, storageKey, entries); err != nil {
		return fmt.Errorf("save reminders: %w", err)
	}
	return nil
}

func (s *Scheduler) remove(eventID string) error {
	entries, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := entries[eventID]; !ok {
		return nil
	}
	delete(entries, eventID)
	return s.save(entries)
}

func sameReminder(a, b model.ScheduledReminder) bool {
	return a.EventID == b.EventID &&
		a.EventTitle == b.EventTitle &&
		a.Venue == b.Venue &&
		a.EventDate.Equal(b.EventDate) &&
		a.FiresAt.Equal(b.FiresAt)
}
