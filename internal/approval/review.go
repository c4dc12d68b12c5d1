package approval

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"campus-events/internal/apperr"
	"campus-events/internal/model"
)

// ReviewList is an admin's board of events in one status, newest submission
// first. Actions update the board only when the store accepted them.
type ReviewList struct {
	w       *Workflow
	actorID string
	status  model.Status

	mu    sync.Mutex
	items []model.EventRecord
}

// Review loads the board of events in status for an admin.
func (w *Workflow) Review(ctx context.Context, actorID string, status model.Status) (*ReviewList, error) {
	if !status.Valid() {
		return nil, apperr.NewValidation(fmt.Sprintf("unknown status %q", status))
	}
	if err := w.requireOnline("load review list"); err != nil {
		return nil, err
	}
	if err := w.authorize(ctx, actorID); err != nil {
		return nil, err
	}
	items, err := w.store.ListEventsForReview(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list %s events: %w", status, err)
	}
	return &ReviewList{w: w, actorID: actorID, status: status, items: items}, nil
}

func (l *ReviewList) Status() model.Status { return l.status }

func (l *ReviewList) Items() []model.EventRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.items)
}

func (l *ReviewList) Approve(ctx context.Context, id string) (model.EventRecord, error) {
	return l.move(ctx, id, model.StatusApproved)
}

func (l *ReviewList) Reject(ctx context.Context, id string) (model.EventRecord, error) {
	return l.move(ctx, id, model.StatusRejected)
}

func (l *ReviewList) Delete(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	i, err := l.index(id)
	if err != nil {
		return err
	}
	if err := l.w.Delete(ctx, l.actorID, id); err != nil {
		return err
	}
	l.items = slices.Delete(l.items, i, i+1)
	return nil
}

func (l *ReviewList) move(ctx context.Context, id string, to model.Status) (model.EventRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i, err := l.index(id)
	if err != nil {
		return model.EventRecord{}, err
	}
	updated, err := l.w.Transition(ctx, l.actorID, l.items[i], to)
	if err != nil {
		return l.items[i], err
	}
	if to == l.status {
		l.items[i] = updated
	} else {
		l.items = slices.Delete(l.items, i, i+1)
	}
	return updated, nil
}

func (l *ReviewList) index(id string) (int, error) {
	i := slices.IndexFunc(l.items, func(e model.EventRecord) bool { return e.ID == id })
	if i < 0 {
		return -1, apperr.NewNotFound("event %s is not on the %s list", id, l.status)
	}
	return i, nil
}
