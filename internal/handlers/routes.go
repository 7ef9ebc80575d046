package handlers

import (
	"net/http"
)

// Routes bundles every handler group served by the API.
type Routes struct {
	Auth          *AuthHandlers
	Users         *UserHandlers
	Events        *EventHandlers
	Chatrooms     *ChatroomHandlers
	Notifications *NotificationHandlers
	WebSocket     *WebSocketHandlers
}

// Register mounts the API on mux. Everything except register, login and the
// websocket (which authenticates with ?token=) requires a bearer token.
func (rt *Routes) Register(mux *http.ServeMux, verifier TokenVerifier) {
	authed := AuthMiddleware(verifier)
	protect := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, authed(h))
	}

	// Auth routes
	mux.HandleFunc("POST /api/users", rt.Auth.Register)
	mux.HandleFunc("POST /api/users/login", rt.Auth.Login)

	// User routes
	protect("GET /api/users/search", rt.Users.Search)
	protect("GET /api/users/{id}", rt.Users.GetUser)
	protect("PATCH /api/users/{id}", rt.Users.UpdateProfile)
	protect("POST /api/users/{id}/avatar", rt.Users.UploadAvatar)
	protect("GET /api/users/{id}/joined-events", rt.Users.JoinedEvents)
	protect("PATCH /api/users/{id}/leave-event", rt.Users.LeaveEvent)
	protect("GET /api/users/{id}/friends", rt.Users.Friends)
	protect("DELETE /api/users/{id}/friends/{friendId}", rt.Users.RemoveFriend)
	protect("POST /api/users/{id}/friend-request", rt.Users.SendFriendRequest)
	protect("GET /api/friend-requests", rt.Users.PendingFriendRequests)
	protect("POST /api/friend-requests/{id}/accept", rt.Users.AcceptFriendRequest)
	protect("POST /api/friend-requests/{id}/decline", rt.Users.DeclineFriendRequest)

	// Event routes
	protect("GET /api/events", rt.Events.ListEvents)
	protect("POST /api/events", rt.Events.CreateEvent)
	protect("GET /api/events/{id}", rt.Events.GetEvent)
	protect("DELETE /api/events/{id}", rt.Events.DeleteEvent)
	protect("POST /api/events/{id}/join", rt.Events.JoinEvent)

	// Notification routes
	protect("GET /api/notifications/{userId}", rt.Notifications.List)
	protect("DELETE /api/notifications/{id}", rt.Notifications.Delete)
	protect("PATCH /api/notifications/{id}/read", rt.Notifications.MarkRead)

	// Chatroom routes
	protect("GET /api/chatrooms", rt.Chatrooms.ListChatrooms)
	protect("POST /api/chatrooms", rt.Chatrooms.CreateChatroom)
	protect("GET /api/chatrooms/public", rt.Chatrooms.ListPublic)
	protect("GET /api/chatrooms/searchPri/{userId}", rt.Chatrooms.SearchPrivate)
	protect("GET /api/chatrooms/history/{chatroomId}", rt.Chatrooms.History)
	protect("POST /api/chatrooms/messages/{chatroomId}", rt.Chatrooms.PostMessage)
	protect("GET /api/chatrooms/participants/{id}", rt.Chatrooms.Participants)
	protect("GET /api/chatrooms/online/{id}", rt.Chatrooms.Online)
	protect("POST /api/chatrooms/read/{id}", rt.Chatrooms.MarkRead)
	protect("DELETE /api/chatrooms/{id}", rt.Chatrooms.DeleteChatroom)

	// WebSocket route
	if rt.WebSocket != nil {
		mux.HandleFunc("GET /ws", rt.WebSocket.HandleWebSocket)
	}
}

// Endpoints lists the mounted routes for the startup banner.
func Endpoints() []string {
	return []string{
		"POST   /api/users",
		"POST   /api/users/login",
		"GET    /api/users/search?q=",
		"GET    /api/users/{id}",
		"PATCH  /api/users/{id}",
		"POST   /api/users/{id}/avatar",
		"GET    /api/users/{id}/joined-events",
		"PATCH  /api/users/{id}/leave-event",
		"GET    /api/users/{id}/friends",
		"DELETE /api/users/{id}/friends/{friendId}",
		"POST   /api/users/{id}/friend-request",
		"GET    /api/friend-requests",
		"POST   /api/friend-requests/{id}/accept",
		"POST   /api/friend-requests/{id}/decline",
		"GET    /api/events",
		"POST   /api/events",
		"GET    /api/events/{id}",
		"DELETE /api/events/{id}",
		"POST   /api/events/{id}/join",
		"GET    /api/notifications/{userId}",
		"DELETE /api/notifications/{id}",
		"PATCH  /api/notifications/{id}/read",
		"GET    /api/chatrooms",
		"POST   /api/chatrooms",
		"GET    /api/chatrooms/public",
		"GET    /api/chatrooms/searchPri/{userId}",
		"GET    /api/chatrooms/history/{chatroomId}",
		"POST   /api/chatrooms/messages/{chatroomId}",
		"GET    /api/chatrooms/participants/{id}",
		"GET    /api/chatrooms/online/{id}",
		"POST   /api/chatrooms/read/{id}",
		"DELETE /api/chatrooms/{id}",
		"GET    /ws?token=",
	}
}
