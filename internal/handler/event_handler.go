package handler

import (
	"encoding/json"
	"net/http"
	"slices"
	"strings"
	"time"

	"campus-events/internal/apperr"
	"campus-events/internal/cache"
	"campus-events/internal/model"
)

type listResponse struct {
	Events       []model.EventRecord `json:"events"`
	Stale        bool                `json:"stale"`
	Error        string              `json:"error,omitempty"`
	LastSyncedAt *time.Time          `json:"last_synced_at"`
}

// listEvents serves the approved events, from the cache when the store is out
// of reach. Query parameters q, department and range narrow the list; range
// defaults to upcoming.
func (h *Handler) listEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := cache.Filter{
		Search:     q.Get("q"),
		Department: model.Department(q.Get("department")),
		Range:      cache.TimeRange(q.Get("range")),
	}
	switch f.Range {
	case "":
		f.Range = cache.RangeUpcoming
	case cache.RangeUpcoming, cache.RangePast, cache.RangeAll:
	default:
		h.writeError(w, r, apperr.NewValidation("range must be one of: upcoming, past, all"))
		return
	}
	if f.Department != "" && f.Department != "all" && !f.Department.Valid() {
		h.writeError(w, r, apperr.NewValidation("unknown department "+string(f.Department)))
		return
	}

	res, err := h.directory.Sync(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := listResponse{
		Events:       f.Apply(res.Events, h.now()),
		Stale:        res.Stale,
		LastSyncedAt: res.LastSyncedAt,
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	writeJSON(w, http.StatusOK, out)
}

type statusResponse struct {
	cache.Status
	ArmedReminders int    `json:"armed_reminders"`
	Permission     string `json:"alert_permission"`
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Status:         h.cache.Status(),
		ArmedReminders: h.reminders.Armed(),
		Permission:     string(h.notifier.Permission()),
	})
}

// getEvent reads one event from the store, or from the cached approved list
// while offline.
func (h *Handler) getEvent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !h.cache.Status().Online {
		snap := h.cache.Snapshot()
		i := slices.IndexFunc(snap, func(e model.EventRecord) bool { return e.ID == id })
		if i < 0 {
			h.writeError(w, r, apperr.NewNotFound("event %s is not cached", id))
			return
		}
		writeJSON(w, http.StatusOK, snap[i])
		return
	}

	ev, err := h.events.GetEvent(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (h *Handler) createEvent(w http.ResponseWriter, r *http.Request) {
	var d model.EventDraft
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		h.writeError(w, r, apperr.NewValidation("malformed body: "+strings.TrimPrefix(err.Error(), "json: ")))
		return
	}

	rec, err := h.workflow.Create(r.Context(), actor(r), d)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}
