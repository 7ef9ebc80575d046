package handlers

import (
	"net/http"

	"vibely/internal/models"
	"vibely/internal/services"
)

type EventHandlers struct {
	eventService *services.EventService
}

func NewEventHandlers(eventService *services.EventService) *EventHandlers {
	return &EventHandlers{eventService: eventService}
}

func (h *EventHandlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.eventService.ListEvents(r.Context())
	if err != nil {
		writeError(w, "List events", err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *EventHandlers) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.eventService.GetEvent(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, "Get event", err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *EventHandlers) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req models.CreateEventRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	event, err := h.eventService.CreateEvent(r.Context(), UserIDFromContext(r.Context()), &req)
	if err != nil {
		writeError(w, "Create event", err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (h *EventHandlers) JoinEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.eventService.JoinEvent(r.Context(), UserIDFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, "Join event", err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *EventHandlers) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.eventService.DeleteEvent(r.Context(), UserIDFromContext(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, "Delete event", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
