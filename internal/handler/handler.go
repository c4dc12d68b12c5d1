// Package handler serves the event directory over HTTP with JSON bodies.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"campus-events/internal/alert"
	"campus-events/internal/apperr"
	"campus-events/internal/approval"
	"campus-events/internal/cache"
	"campus-events/internal/middleware"
	"campus-events/internal/model"
	"campus-events/internal/reminder"
)

type Directory interface {
	Sync(ctx context.Context) (cache.Result, error)
}

type Cache interface {
	Status() cache.Status
	Snapshot() []model.EventRecord
}

type Events interface {
	GetEvent(ctx context.Context, id string) (*model.EventRecord, error)
}

type Workflow interface {
	Create(ctx context.Context, actorID string, draft model.EventDraft) (model.EventRecord, error)
	TransitionID(ctx context.Context, actorID, id string, expected, to model.Status) (model.EventRecord, error)
	Delete(ctx context.Context, actorID, id string) error
	Review(ctx context.Context, actorID string, status model.Status) (*approval.ReviewList, error)
}

type Reminders interface {
	Armed() int
	Pending() ([]model.ScheduledReminder, error)
	RestoreAll() ([]*reminder.Handle, error)
}

type Notifier interface {
	Permission() alert.Permission
	RequestPermission(ctx context.Context) (alert.Permission, error)
}

type Handler struct {
	directory Directory
	cache     Cache
	events    Events
	workflow  Workflow
	reminders Reminders
	notifier  Notifier
	log       *slog.Logger
	now       func() time.Time
}

type Deps struct {
	Directory Directory
	Cache     Cache
	Events    Events
	Workflow  Workflow
	Reminders Reminders
	Notifier  Notifier
	Log       *slog.Logger
}

func New(d Deps) *Handler {
	return &Handler{
		directory: d.Directory,
		cache:     d.Cache,
		events:    d.Events,
		workflow:  d.Workflow,
		reminders: d.Reminders,
		notifier:  d.Notifier,
		log:       d.Log,
		now:       time.Now,
	}
}

// Routes wires every endpoint. Routes other than the directory listing and
// its status need a bearer token signed with secret.
func (h *Handler) Routes(secret string) http.Handler {
	authed := middleware.Auth(secret)
	mux := http.NewServeMux()

	mux.HandleFunc("GET /events", h.listEvents)
	mux.HandleFunc("GET /events/status", h.status)
	mux.Handle("GET /events/{id}", authed(http.HandlerFunc(h.getEvent)))
	mux.Handle("POST /events", authed(http.HandlerFunc(h.createEvent)))

	mux.Handle("GET /admin/events", authed(http.HandlerFunc(h.reviewEvents)))
	mux.Handle("POST /admin/events/{id}/approve", authed(h.transition(model.StatusApproved)))
	mux.Handle("POST /admin/events/{id}/reject", authed(h.transition(model.StatusRejected)))
	mux.Handle("DELETE /admin/events/{id}", authed(http.HandlerFunc(h.deleteEvent)))

	mux.HandleFunc("GET /notifications", h.pendingReminders)
	mux.Handle("POST /notifications/permission", authed(http.HandlerFunc(h.requestPermission)))

	return mux
}

func actor(r *http.Request) string {
	uid, _ := middleware.UserID(r.Context())
	return uid
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error    string   `json:"error"`
	Problems []string `json:"problems,omitempty"`
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	switch {
	case apperr.IsValidation(err):
		code = http.StatusBadRequest
	case apperr.IsAuthorization(err):
		code = http.StatusForbidden
	case apperr.IsNotFound(err):
		code = http.StatusNotFound
	case apperr.IsConflict(err):
		code = http.StatusConflict
	case apperr.IsConnectivity(err):
		code = http.StatusServiceUnavailable
	}

	if code == http.StatusInternalServerError {
		h.log.ErrorContext(r.Context(), "request failed", "err", err)
		writeJSON(w, code, errorBody{Error: "internal error"})
		return
	}
	body := errorBody{Error: err.Error()}
	var verr apperr.ValidationError
	if errors.As(err, &verr) {
		body.Problems = verr.Problems
	}
	writeJSON(w, code, body)
}
