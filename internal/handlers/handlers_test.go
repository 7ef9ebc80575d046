package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vibely/internal/auth"
	"vibely/internal/config"
	"vibely/internal/database"
	"vibely/internal/models"
	"vibely/internal/services"
	ws "vibely/internal/websocket"
)

type testAPI struct {
	srv  *httptest.Server
	auth *auth.Service
}

type stubObjects struct{}

func (stubObjects) Put(_ context.Context, key, _ string, r io.Reader, _ int64) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	return "http://objects.test/" + key, nil
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	db, err := database.NewSQLiteDB(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	hubs, err := ws.NewManager(context.Background(), nil)
	if err != nil {
		t.Fatalf("hub manager: %v", err)
	}
	t.Cleanup(func() { hubs.Close() })

	authService := auth.NewService(db, config.JWTConfig{Secret: "0123456789abcdef0123", ExpiresIn: time.Hour})
	chatrooms := services.NewChatroomService(db)
	routes := &Routes{
		Auth:          NewAuthHandlers(authService),
		Users:         NewUserHandlers(services.NewUserService(db, stubObjects{})),
		Events:        NewEventHandlers(services.NewEventService(db)),
		Chatrooms:     NewChatroomHandlers(chatrooms, hubs),
		Notifications: NewNotificationHandlers(services.NewNotificationService(db)),
		WebSocket:     NewWebSocketHandlers(authService, chatrooms, hubs, "*"),
	}
	mux := http.NewServeMux()
	routes.Register(mux, authService)

	srv := httptest.NewServer(CORSMiddleware("*")(mux))
	t.Cleanup(srv.Close)
	return &testAPI{srv: srv, auth: authService}
}

func (a *testAPI) call(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, a.srv.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		data, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s: status %d, want %d; body %s", resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, want, data)
	}
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

func errorMessage(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body errorResponse
	decodeBody(t, resp, &body)
	return body.Error
}

func (a *testAPI) register(t *testing.T, username string) models.LoginResponse {
	t.Helper()
	resp := a.call(t, http.MethodPost, "/api/users", "", models.RegisterRequest{
		Name:     strings.ToUpper(username[:1]) + username[1:],
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
	})
	expectStatus(t, resp, http.StatusCreated)
	var login models.LoginResponse
	decodeBody(t, resp, &login)
	return login
}

func (a *testAPI) befriend(t *testing.T, from, to models.LoginResponse) {
	t.Helper()
	resp := a.call(t, http.MethodPost, "/api/users/"+to.User.ID+"/friend-request", from.Token, nil)
	expectStatus(t, resp, http.StatusCreated)
	var req models.FriendRequest
	decodeBody(t, resp, &req)

	resp = a.call(t, http.MethodPost, "/api/friend-requests/"+req.ID+"/accept", to.Token, nil)
	expectStatus(t, resp, http.StatusOK)
}

func TestAuthMiddleware(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)

	resp := api.call(t, http.MethodGet, "/api/events", "", nil)
	expectStatus(t, resp, http.StatusUnauthorized)
	if msg := errorMessage(t, resp); msg != "missing Authorization header" {
		t.Fatalf("message = %q", msg)
	}

	req, _ := http.NewRequest(http.MethodGet, api.srv.URL+"/api/events", nil)
	req.Header.Set("Authorization", "Token abc")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusUnauthorized)
	if msg := errorMessage(t, resp); msg != "invalid token format" {
		t.Fatalf("message = %q", msg)
	}

	resp = api.call(t, http.MethodGet, "/api/events", "forged", nil)
	expectStatus(t, resp, http.StatusUnauthorized)
	if msg := errorMessage(t, resp); msg != "invalid token" {
		t.Fatalf("message = %q", msg)
	}
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	resp := api.call(t, http.MethodOptions, "/api/events", "", nil)
	expectStatus(t, resp, http.StatusOK)
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow origin = %q", got)
	}
}

func TestRegisterAndLoginHandlers(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	alice := api.register(t, "alice")
	if alice.Token == "" || alice.User.ID == "" {
		t.Fatalf("register response = %+v", alice)
	}

	resp := api.call(t, http.MethodPost, "/api/users", "", models.RegisterRequest{
		Name: "Again", Username: "alice", Email: "again@example.com", Password: "password123",
	})
	expectStatus(t, resp, http.StatusConflict)
	if msg := errorMessage(t, resp); msg != "email or username already taken" {
		t.Fatalf("message = %q", msg)
	}

	resp = api.call(t, http.MethodPost, "/api/users/login", "", models.LoginRequest{Email: "alice@example.com", Password: "nope-nope"})
	expectStatus(t, resp, http.StatusUnauthorized)

	resp = api.call(t, http.MethodPost, "/api/users/login", "", models.LoginRequest{Email: "alice@example.com", Password: "password123"})
	expectStatus(t, resp, http.StatusOK)

	req, _ := http.NewRequest(http.MethodPost, api.srv.URL+"/api/users/login", strings.NewReader("{not json"))
	bad, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer bad.Body.Close()
	expectStatus(t, bad, http.StatusBadRequest)
}

func TestUserHandlers(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	alice := api.register(t, "alice")
	bob := api.register(t, "bob")

	resp := api.call(t, http.MethodGet, "/api/users/search?q=bo", alice.Token, nil)
	expectStatus(t, resp, http.StatusOK)
	var found []models.User
	decodeBody(t, resp, &found)
	if len(found) != 1 || found[0].ID != bob.User.ID {
		t.Fatalf("search = %+v", found)
	}

	resp = api.call(t, http.MethodGet, "/api/users/missing", alice.Token, nil)
	expectStatus(t, resp, http.StatusNotFound)
	if msg := errorMessage(t, resp); msg != "user not found" {
		t.Fatalf("message = %q", msg)
	}

	bio := "hello"
	resp = api.call(t, http.MethodPatch, "/api/users/"+bob.User.ID, alice.Token, models.UpdateProfileRequest{Bio: &bio})
	expectStatus(t, resp, http.StatusForbidden)

	resp = api.call(t, http.MethodPatch, "/api/users/"+alice.User.ID, alice.Token, models.UpdateProfileRequest{Bio: &bio})
	expectStatus(t, resp, http.StatusOK)
	var updated models.User
	decodeBody(t, resp, &updated)
	if updated.Bio != "hello" {
		t.Fatalf("bio = %q", updated.Bio)
	}

	api.befriend(t, alice, bob)
	resp = api.call(t, http.MethodGet, "/api/users/"+bob.User.ID+"/friends", alice.Token, nil)
	expectStatus(t, resp, http.StatusOK)
	var friends []models.UserSummary
	decodeBody(t, resp, &friends)
	if len(friends) != 1 || friends[0].ID != alice.User.ID {
		t.Fatalf("bob friends = %+v", friends)
	}

	resp = api.call(t, http.MethodDelete, "/api/users/"+alice.User.ID+"/friends/"+bob.User.ID, alice.Token, nil)
	expectStatus(t, resp, http.StatusNoContent)
	resp = api.call(t, http.MethodDelete, "/api/users/"+alice.User.ID+"/friends/"+bob.User.ID, alice.Token, nil)
	expectStatus(t, resp, http.StatusNotFound)
}

func TestUploadAvatarHandler(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	alice := api.register(t, "alice")

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="me.png"`)
	header.Set("Content-Type", "image/png")
	part, _ := form.CreatePart(header)
	part.Write([]byte("\x89PNG image"))
	form.Close()

	req, _ := http.NewRequest(http.MethodPost, api.srv.URL+"/api/users/"+alice.User.ID+"/avatar", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+alice.Token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	var user models.User
	decodeBody(t, resp, &user)
	if !strings.HasPrefix(user.ProfilePicture, "http://objects.test/"+alice.User.ID+"/") {
		t.Fatalf("profile picture = %q", user.ProfilePicture)
	}

	empty := api.call(t, http.MethodPost, "/api/users/"+alice.User.ID+"/avatar", alice.Token, nil)
	expectStatus(t, empty, http.StatusBadRequest)
}

func TestEventHandlers(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	alice := api.register(t, "alice")
	bob := api.register(t, "bob")

	resp := api.call(t, http.MethodPost, "/api/events", alice.Token, models.CreateEventRequest{Title: "Picnic", Type: "outdoor", Date: "2026-07-01", Location: "Park"})
	expectStatus(t, resp, http.StatusCreated)
	var event models.Event
	decodeBody(t, resp, &event)

	resp = api.call(t, http.MethodPost, "/api/events", alice.Token, models.CreateEventRequest{Title: "Picnic"})
	expectStatus(t, resp, http.StatusBadRequest)

	resp = api.call(t, http.MethodPost, "/api/events/"+event.ID+"/join", bob.Token, nil)
	expectStatus(t, resp, http.StatusOK)
	resp = api.call(t, http.MethodPost, "/api/events/"+event.ID+"/join", bob.Token, nil)
	expectStatus(t, resp, http.StatusConflict)

	resp = api.call(t, http.MethodGet, "/api/users/"+bob.User.ID+"/joined-events", bob.Token, nil)
	expectStatus(t, resp, http.StatusOK)
	var joined []models.Event
	decodeBody(t, resp, &joined)
	if len(joined) != 1 || joined[0].ID != event.ID {
		t.Fatalf("joined = %+v", joined)
	}

	resp = api.call(t, http.MethodPatch, "/api/users/"+bob.User.ID+"/leave-event", bob.Token, models.LeaveEventRequest{EventID: event.ID})
	expectStatus(t, resp, http.StatusOK)
	resp = api.call(t, http.MethodPatch, "/api/users/"+bob.User.ID+"/leave-event", bob.Token, models.LeaveEventRequest{EventID: event.ID})
	expectStatus(t, resp, http.StatusNotFound)
	if msg := errorMessage(t, resp); msg != "event participation not found" {
		t.Fatalf("message = %q", msg)
	}

	resp = api.call(t, http.MethodDelete, "/api/events/"+event.ID, bob.Token, nil)
	expectStatus(t, resp, http.StatusForbidden)
	resp = api.call(t, http.MethodDelete, "/api/events/"+event.ID, alice.Token, nil)
	expectStatus(t, resp, http.StatusNoContent)
	resp = api.call(t, http.MethodGet, "/api/events/"+event.ID, alice.Token, nil)
	expectStatus(t, resp, http.StatusNotFound)
}

func TestChatroomHandlers(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	alice := api.register(t, "alice")
	bob := api.register(t, "bob")
	carol := api.register(t, "carol")

	resp := api.call(t, http.MethodPost, "/api/chatrooms", alice.Token, models.CreateChatroomRequest{})
	expectStatus(t, resp, http.StatusBadRequest)

	resp = api.call(t, http.MethodPost, "/api/chatrooms", alice.Token, models.CreateChatroomRequest{ParticipantID: bob.User.ID})
	expectStatus(t, resp, http.StatusForbidden)

	api.befriend(t, alice, bob)
	resp = api.call(t, http.MethodGet, "/api/chatrooms/searchPri/"+bob.User.ID, alice.Token, nil)
	expectStatus(t, resp, http.StatusNotFound)

	resp = api.call(t, http.MethodPost, "/api/chatrooms", alice.Token, models.CreateChatroomRequest{ParticipantID: bob.User.ID})
	expectStatus(t, resp, http.StatusCreated)
	var room models.Chatroom
	decodeBody(t, resp, &room)

	resp = api.call(t, http.MethodPost, "/api/chatrooms", bob.Token, models.CreateChatroomRequest{ParticipantID: alice.User.ID})
	expectStatus(t, resp, http.StatusOK)

	resp = api.call(t, http.MethodPost, "/api/chatrooms/messages/"+room.ID, alice.Token, models.SendMessageRequest{Content: "hey bob"})
	expectStatus(t, resp, http.StatusCreated)

	resp = api.call(t, http.MethodPost, "/api/chatrooms/messages/"+room.ID, carol.Token, models.SendMessageRequest{Content: "let me in"})
	expectStatus(t, resp, http.StatusForbidden)

	resp = api.call(t, http.MethodGet, "/api/chatrooms/history/"+room.ID+"?limit=abc", bob.Token, nil)
	expectStatus(t, resp, http.StatusBadRequest)

	resp = api.call(t, http.MethodGet, "/api/chatrooms/history/"+room.ID+"?limit=10", bob.Token, nil)
	expectStatus(t, resp, http.StatusOK)
	var history []models.Message
	decodeBody(t, resp, &history)
	if len(history) != 1 || history[0].Content != "hey bob" {
		t.Fatalf("history = %+v", history)
	}

	resp = api.call(t, http.MethodGet, "/api/chatrooms", bob.Token, nil)
	expectStatus(t, resp, http.StatusOK)
	var rooms []models.Chatroom
	decodeBody(t, resp, &rooms)
	if len(rooms) != 1 || rooms[0].UnreadCount != 1 || rooms[0].Name != "Alice" {
		t.Fatalf("bob rooms = %+v", rooms)
	}

	resp = api.call(t, http.MethodGet, "/api/notifications/"+bob.User.ID, bob.Token, nil)
	expectStatus(t, resp, http.StatusOK)
	var notes []models.Notification
	decodeBody(t, resp, &notes)
	if len(notes) != 1 || notes[0].Type != models.NotificationMessage {
		t.Fatalf("bob notifications = %+v", notes)
	}

	resp = api.call(t, http.MethodPost, "/api/chatrooms/read/"+room.ID, bob.Token, nil)
	expectStatus(t, resp, http.StatusNoContent)

	resp = api.call(t, http.MethodGet, "/api/chatrooms/participants/"+room.ID, bob.Token, nil)
	expectStatus(t, resp, http.StatusOK)
	var participants []models.UserSummary
	decodeBody(t, resp, &participants)
	if len(participants) != 2 {
		t.Fatalf("participants = %+v", participants)
	}

	resp = api.call(t, http.MethodGet, "/api/chatrooms/online/"+room.ID, bob.Token, nil)
	expectStatus(t, resp, http.StatusOK)
	var online struct {
		ChatroomID  string   `json:"chatroom_id"`
		OnlineUsers []string `json:"online_users"`
		Count       int      `json:"count"`
	}
	decodeBody(t, resp, &online)
	if online.ChatroomID != room.ID || online.Count != 0 || online.OnlineUsers == nil {
		t.Fatalf("online = %+v", online)
	}

	resp = api.call(t, http.MethodDelete, "/api/chatrooms/"+room.ID, carol.Token, nil)
	expectStatus(t, resp, http.StatusForbidden)
	resp = api.call(t, http.MethodDelete, "/api/chatrooms/"+room.ID, bob.Token, nil)
	expectStatus(t, resp, http.StatusNoContent)
}

func TestPublicChatroomHandlers(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	alice := api.register(t, "alice")
	bob := api.register(t, "bob")

	resp := api.call(t, http.MethodPost, "/api/chatrooms", alice.Token, models.CreateChatroomRequest{Name: "Lobby"})
	expectStatus(t, resp, http.StatusCreated)
	var room models.Chatroom
	decodeBody(t, resp, &room)

	resp = api.call(t, http.MethodGet, "/api/chatrooms/public", bob.Token, nil)
	expectStatus(t, resp, http.StatusOK)
	var rooms []models.Chatroom
	decodeBody(t, resp, &rooms)
	if len(rooms) != 1 || rooms[0].Name != "Lobby" {
		t.Fatalf("public rooms = %+v", rooms)
	}

	resp = api.call(t, http.MethodPost, "/api/chatrooms/messages/"+room.ID, bob.Token, models.SendMessageRequest{Content: "hello lobby"})
	expectStatus(t, resp, http.StatusCreated)

	resp = api.call(t, http.MethodDelete, "/api/chatrooms/"+room.ID, bob.Token, nil)
	expectStatus(t, resp, http.StatusForbidden)
}

func TestNotificationHandlers(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	alice := api.register(t, "alice")
	bob := api.register(t, "bob")

	resp := api.call(t, http.MethodPost, "/api/users/"+bob.User.ID+"/friend-request", alice.Token, nil)
	expectStatus(t, resp, http.StatusCreated)

	resp = api.call(t, http.MethodGet, "/api/notifications/"+bob.User.ID, alice.Token, nil)
	expectStatus(t, resp, http.StatusForbidden)

	resp = api.call(t, http.MethodGet, "/api/notifications/"+bob.User.ID, bob.Token, nil)
	expectStatus(t, resp, http.StatusOK)
	var notes []models.Notification
	decodeBody(t, resp, &notes)
	if len(notes) != 1 || notes[0].Type != models.NotificationFriendRequest || !notes[0].Unread {
		t.Fatalf("notifications = %+v", notes)
	}

	resp = api.call(t, http.MethodPatch, "/api/notifications/"+notes[0].ID+"/read", alice.Token, nil)
	expectStatus(t, resp, http.StatusForbidden)
	resp = api.call(t, http.MethodPatch, "/api/notifications/"+notes[0].ID+"/read", bob.Token, nil)
	expectStatus(t, resp, http.StatusNoContent)
	resp = api.call(t, http.MethodDelete, "/api/notifications/"+notes[0].ID, bob.Token, nil)
	expectStatus(t, resp, http.StatusNoContent)
	resp = api.call(t, http.MethodDelete, "/api/notifications/"+notes[0].ID, bob.Token, nil)
	expectStatus(t, resp, http.StatusNotFound)
}

func TestWebSocketRequiresToken(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	resp := api.call(t, http.MethodGet, "/ws", "", nil)
	expectStatus(t, resp, http.StatusUnauthorized)

	resp = api.call(t, http.MethodGet, "/ws?token=forged", "", nil)
	expectStatus(t, resp, http.StatusUnauthorized)
}

func TestPublicMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{services.ErrNotFound, "not found"},
		{fmt.Errorf("%w: chatroom", services.ErrNotFound), "chatroom not found"},
		{fmt.Errorf("%w: only the author can delete the event", services.ErrForbidden), "only the author can delete the event"},
		{fmt.Errorf("wrapped: %w", fmt.Errorf("%w: already friends", services.ErrConflict)), "already friends"},
	}
	for _, tt := range tests {
		if got := publicMessage(tt.err); got != tt.want {
			t.Fatalf("publicMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestEndpointsListsEveryRoute(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for _, e := range Endpoints() {
		if seen[e] {
			t.Fatalf("duplicate endpoint %q", e)
		}
		seen[e] = true
	}
	if len(seen) != 33 {
		t.Fatalf("endpoints = %d, want 33", len(seen))
	}
}
