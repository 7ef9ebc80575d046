package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"vibely/internal/models"
	"vibely/internal/services"
)

// OnlineLister reports the users connected to a room over the realtime channel.
type OnlineLister interface {
	OnlineUsers(roomID string) []string
}

type ChatroomHandlers struct {
	chatroomService *services.ChatroomService
	online          OnlineLister
}

func NewChatroomHandlers(chatroomService *services.ChatroomService, online OnlineLister) *ChatroomHandlers {
	return &ChatroomHandlers{
		chatroomService: chatroomService,
		online:          online,
	}
}

func (h *ChatroomHandlers) ListChatrooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.chatroomService.ListUserChatrooms(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, "List chatrooms", err)
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

func (h *ChatroomHandlers) ListPublic(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.chatroomService.ListPublicChatrooms(r.Context())
	if err != nil {
		writeError(w, "List public chatrooms", err)
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

// CreateChatroom opens a private room with participantId, or a public room
// called name. An existing private room is returned with 200.
func (h *ChatroomHandlers) CreateChatroom(w http.ResponseWriter, r *http.Request) {
	var req models.CreateChatroomRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	userID := UserIDFromContext(r.Context())

	switch {
	case strings.TrimSpace(req.ParticipantID) != "":
		room, created, err := h.chatroomService.GetOrCreatePrivate(r.Context(), userID, strings.TrimSpace(req.ParticipantID))
		if err != nil {
			writeError(w, "Create chatroom", err)
			return
		}
		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		writeJSON(w, status, room)

	case strings.TrimSpace(req.Name) != "":
		room, err := h.chatroomService.CreatePublic(r.Context(), userID, req.Name)
		if err != nil {
			writeError(w, "Create chatroom", err)
			return
		}
		writeJSON(w, http.StatusCreated, room)

	default:
		jsonError(w, http.StatusBadRequest, "participantId or name is required")
	}
}

func (h *ChatroomHandlers) SearchPrivate(w http.ResponseWriter, r *http.Request) {
	room, err := h.chatroomService.FindPrivate(r.Context(), UserIDFromContext(r.Context()), r.PathValue("userId"))
	if err != nil {
		writeError(w, "Search private chatroom", err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (h *ChatroomHandlers) History(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			jsonError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	messages, err := h.chatroomService.History(r.Context(), UserIDFromContext(r.Context()), r.PathValue("chatroomId"), limit)
	if err != nil {
		writeError(w, "Chat history", err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

func (h *ChatroomHandlers) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req models.SendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	msg, err := h.chatroomService.PostMessage(r.Context(), UserIDFromContext(r.Context()), r.PathValue("chatroomId"), &req)
	if err != nil {
		writeError(w, "Post message", err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (h *ChatroomHandlers) Participants(w http.ResponseWriter, r *http.Request) {
	participants, err := h.chatroomService.Participants(r.Context(), UserIDFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, "Chatroom participants", err)
		return
	}
	writeJSON(w, http.StatusOK, participants)
}

func (h *ChatroomHandlers) Online(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")
	if _, err := h.chatroomService.Authorize(r.Context(), UserIDFromContext(r.Context()), roomID); err != nil {
		writeError(w, "Online users", err)
		return
	}

	online := h.online.OnlineUsers(roomID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"chatroom_id":  roomID,
		"online_users": online,
		"count":        len(online),
	})
}

func (h *ChatroomHandlers) MarkRead(w http.ResponseWriter, r *http.Request) {
	if err := h.chatroomService.MarkRead(r.Context(), UserIDFromContext(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, "Mark chatroom read", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ChatroomHandlers) DeleteChatroom(w http.ResponseWriter, r *http.Request) {
	if err := h.chatroomService.DeleteChatroom(r.Context(), UserIDFromContext(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, "Delete chatroom", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
