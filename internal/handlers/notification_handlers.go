package handlers

import (
	"net/http"

	"vibely/internal/services"
)

type NotificationHandlers struct {
	notificationService *services.NotificationService
}

func NewNotificationHandlers(notificationService *services.NotificationService) *NotificationHandlers {
	return &NotificationHandlers{notificationService: notificationService}
}

func (h *NotificationHandlers) List(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.notificationService.List(r.Context(), UserIDFromContext(r.Context()), r.PathValue("userId"))
	if err != nil {
		writeError(w, "List notifications", err)
		return
	}
	writeJSON(w, http.StatusOK, notifications)
}

func (h *NotificationHandlers) MarkRead(w http.ResponseWriter, r *http.Request) {
	if err := h.notificationService.MarkRead(r.Context(), UserIDFromContext(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, "Mark notification read", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.notificationService.Delete(r.Context(), UserIDFromContext(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, "Delete notification", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
