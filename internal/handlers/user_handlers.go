package handlers

import (
	"net/http"

	"vibely/internal/models"
	"vibely/internal/services"
)

const maxAvatarUpload = 5<<20 + 1<<16

type UserHandlers struct {
	userService *services.UserService
}

func NewUserHandlers(userService *services.UserService) *UserHandlers {
	return &UserHandlers{userService: userService}
}

func (h *UserHandlers) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetUser(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, "Get user", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandlers) Search(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, "Search users", err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), UserIDFromContext(r.Context()), r.PathValue("id"), &req)
	if err != nil {
		writeError(w, "Update profile", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UploadAvatar accepts a multipart form with the image in the "file" field.
func (h *UserHandlers) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarUpload)
	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	user, err := h.userService.UploadAvatar(r.Context(), UserIDFromContext(r.Context()), r.PathValue("id"),
		header.Header.Get("Content-Type"), file, header.Size)
	if err != nil {
		writeError(w, "Upload avatar", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandlers) JoinedEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.userService.JoinedEvents(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, "Joined events", err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *UserHandlers) LeaveEvent(w http.ResponseWriter, r *http.Request) {
	var req models.LeaveEventRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.userService.LeaveEvent(r.Context(), UserIDFromContext(r.Context()), r.PathValue("id"), req.EventID); err != nil {
		writeError(w, "Leave event", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "left event"})
}

func (h *UserHandlers) Friends(w http.ResponseWriter, r *http.Request) {
	friends, err := h.userService.Friends(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, "List friends", err)
		return
	}
	writeJSON(w, http.StatusOK, friends)
}

func (h *UserHandlers) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	err := h.userService.RemoveFriend(r.Context(), UserIDFromContext(r.Context()), r.PathValue("id"), r.PathValue("friendId"))
	if err != nil {
		writeError(w, "Remove friend", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SendFriendRequest sends a request from the caller to the user in the path.
func (h *UserHandlers) SendFriendRequest(w http.ResponseWriter, r *http.Request) {
	req, err := h.userService.SendFriendRequest(r.Context(), UserIDFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, "Send friend request", err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (h *UserHandlers) PendingFriendRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.userService.PendingFriendRequests(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, "List friend requests", err)
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

func (h *UserHandlers) AcceptFriendRequest(w http.ResponseWriter, r *http.Request) {
	h.respondFriendRequest(w, r, true)
}

func (h *UserHandlers) DeclineFriendRequest(w http.ResponseWriter, r *http.Request) {
	h.respondFriendRequest(w, r, false)
}

func (h *UserHandlers) respondFriendRequest(w http.ResponseWriter, r *http.Request, accept bool) {
	req, err := h.userService.RespondFriendRequest(r.Context(), UserIDFromContext(r.Context()), r.PathValue("id"), accept)
	if err != nil {
		writeError(w, "Respond to friend request", err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}
