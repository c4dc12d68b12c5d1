package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"campus-events/internal/apperr"
	"campus-events/internal/model"
)

func (h *Handler) reviewEvents(w http.ResponseWriter, r *http.Request) {
	status := model.Status(r.URL.Query().Get("status"))
	if status == "" {
		status = model.StatusPending
	}
	l, err := h.workflow.Review(r.Context(), actor(r), status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": l.Status(),
		"events": l.Items(),
	})
}

type transitionRequest struct {
	// ExpectedStatus is the status the reviewer saw. Empty skips the check.
	ExpectedStatus model.Status `json:"expected_status"`
}

func (h *Handler) transition(to model.Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req transitionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			h.writeError(w, r, apperr.NewValidation("malformed body"))
			return
		}
		if req.ExpectedStatus != "" && !req.ExpectedStatus.Valid() {
			h.writeError(w, r, apperr.NewValidation("unknown expected_status "+string(req.ExpectedStatus)))
			return
		}

		rec, err := h.workflow.TransitionID(r.Context(), actor(r), r.PathValue("id"), req.ExpectedStatus, to)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func (h *Handler) deleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.workflow.Delete(r.Context(), actor(r), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
