// Package approval drives event records through pending, approved and
// rejected. Only admins may move or delete a record; anyone with an account
// may submit one.
package approval

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"campus-events/internal/apperr"
	"campus-events/internal/model"
)

type Store interface {
	InsertEvent(ctx context.Context, e *model.EventRecord) error
	ListEventsForReview(ctx context.Context, status model.Status) ([]model.EventRecord, error)
	GetEvent(ctx context.Context, id string) (*model.EventRecord, error)
	UpdateEventStatus(ctx context.Context, id string, from, to model.Status, at time.Time) error
	DeleteEvent(ctx context.Context, id string) error
	AccountRole(ctx context.Context, accountID string) (model.Role, error)
}

type Connectivity interface {
	Online() bool
}

type Workflow struct {
	store Store
	net   Connectivity
	log   *slog.Logger
	now   func() time.Time
}

func New(store Store, net Connectivity, log *slog.Logger) *Workflow {
	return &Workflow{store: store, net: net, log: log, now: time.Now}
}

// Create validates the draft and stores it. Records written by an admin are
// approved straight away, everyone else's wait for review.
func (w *Workflow) Create(ctx context.Context, actorID string, draft model.EventDraft) (model.EventRecord, error) {
	if err := w.requireOnline("create event"); err != nil {
		return model.EventRecord{}, err
	}
	now := w.now().UTC()
	if err := draft.Validate(now); err != nil {
		return model.EventRecord{}, err
	}

	role, err := w.store.AccountRole(ctx, actorID)
	if apperr.IsNotFound(err) {
		return model.EventRecord{}, apperr.NewAuthorization("account %s is not known", actorID)
	}
	if err != nil {
		return model.EventRecord{}, fmt.Errorf("look up account %s: %w", actorID, err)
	}

	status := model.StatusPending
	if role == model.RoleAdmin {
		status = model.StatusApproved
	}
	rec := draft.Record(uuid.New().String(), actorID, status, now)
	if err := w.store.InsertEvent(ctx, &rec); err != nil {
		return model.EventRecord{}, fmt.Errorf("insert event: %w", err)
	}

	w.log.InfoContext(ctx, "event created", "event", rec.ID, "status", rec.Status)
	return rec, nil
}

func (w *Workflow) Approve(ctx context.Context, actorID string, rec model.EventRecord) (model.EventRecord, error) {
	return w.Transition(ctx, actorID, rec, model.StatusApproved)
}

func (w *Workflow) Reject(ctx context.Context, actorID string, rec model.EventRecord) (model.EventRecord, error) {
	return w.Transition(ctx, actorID, rec, model.StatusRejected)
}

// Transition moves rec to the target status on the condition that the stored
// record is still in rec.Status. Moving a record to the status it already
// has only bumps UpdatedAt. On failure rec is returned unchanged.
func (w *Workflow) Transition(ctx context.Context, actorID string, rec model.EventRecord, to model.Status) (model.EventRecord, error) {
	if to != model.StatusApproved && to != model.StatusRejected {
		return rec, apperr.NewValidation(fmt.Sprintf("status %q is not a review outcome", to))
	}
	if err := w.requireOnline("update event"); err != nil {
		return rec, err
	}
	if err := w.authorize(ctx, actorID); err != nil {
		return rec, err
	}

	at := w.now().UTC()
	if at.Before(rec.UpdatedAt) {
		at = rec.UpdatedAt
	}
	if err := w.store.UpdateEventStatus(ctx, rec.ID, rec.Status, to, at); err != nil {
		return rec, fmt.Errorf("move event %s to %s: %w", rec.ID, to, err)
	}

	w.log.InfoContext(ctx, "event status changed", "event", rec.ID, "from", rec.Status, "to", to)
	updated := rec
	updated.Status = to
	updated.UpdatedAt = at
	return updated, nil
}

// TransitionID loads the record first. A non-empty expected status must
// still match the stored one, so a reviewer acting on an outdated board
// gets a conflict.
func (w *Workflow) TransitionID(ctx context.Context, actorID, id string, expected, to model.Status) (model.EventRecord, error) {
	if err := w.requireOnline("update event"); err != nil {
		return model.EventRecord{}, err
	}
	rec, err := w.store.GetEvent(ctx, id)
	if err != nil {
		return model.EventRecord{}, fmt.Errorf("load event %s: %w", id, err)
	}
	if expected != "" && rec.Status != expected {
		return *rec, apperr.NewConflict("event %s is %s, expected %s", id, rec.Status, expected)
	}
	return w.Transition(ctx, actorID, *rec, to)
}

func (w *Workflow) Delete(ctx context.Context, actorID, id string) error {
	if err := w.requireOnline("delete event"); err != nil {
		return err
	}
	if err := w.authorize(ctx, actorID); err != nil {
		return err
	}
	if err := w.store.DeleteEvent(ctx, id); err != nil {
		return fmt.Errorf("delete event %s: %w", id, err)
	}
	w.log.InfoContext(ctx, "event deleted", "event", id)
	return nil
}

func (w *Workflow) requireOnline(op string) error {
	if !w.net.Online() {
		return apperr.NewConnectivity("offline: %s not attempted", op)
	}
	return nil
}

func (w *Workflow) authorize(ctx context.Context, actorID string) error {
	role, err := w.store.AccountRole(ctx, actorID)
	if apperr.IsNotFound(err) {
		return apperr.NewAuthorization("account %s is not known", actorID)
	}
	if err != nil {
		return fmt.Errorf("look up account %s: %w", actorID, err)
	}
	if role != model.RoleAdmin {
		w.log.WarnContext(ctx, "review action refused", "account", actorID, "role", role)
		return apperr.NewAuthorization("account %s is not an admin", actorID)
	}
	return nil
}
