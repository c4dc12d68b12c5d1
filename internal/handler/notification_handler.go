package handler

import (
	"net/http"

	"campus-events/internal/alert"
)

func (h *Handler) pendingReminders(w http.ResponseWriter, r *http.Request) {
	pending, err := h.reminders.Pending()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"armed":     h.reminders.Armed(),
		"reminders": pending,
	})
}

// requestPermission asks the alert facility once. A grant re-arms the
// persisted reminders straight away.
func (h *Handler) requestPermission(w http.ResponseWriter, r *http.Request) {
	perm, err := h.notifier.RequestPermission(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	restored := 0
	if perm == alert.PermissionGranted {
		handles, err := h.reminders.RestoreAll()
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		restored = len(handles)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"permission": perm,
		"restored":   restored,
	})
}
