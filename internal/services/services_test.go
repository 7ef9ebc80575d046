package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vibely/internal/database"
	"vibely/internal/models"
)

func newTestDB(t *testing.T) *database.SQLiteDB {
	t.Helper()
	db, err := database.NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func createUser(t *testing.T, db database.Database, id, username string) *models.User {
	t.Helper()
	user := &models.User{
		ID:           id,
		Name:         strings.ToUpper(username[:1]) + username[1:],
		Username:     username,
		Email:        username + "@example.com",
		Status:       models.StatusAvailable,
		PasswordHash: "x",
		CreatedAt:    time.Now().UTC(),
	}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func befriend(t *testing.T, db database.Database, a, b string) {
	t.Helper()
	if err := db.AddFriendship(context.Background(), a, b); err != nil {
		t.Fatalf("add friendship: %v", err)
	}
}

type memoryObjects struct {
	keys []string
	data [][]byte
}

func (m *memoryObjects) Put(_ context.Context, key, _ string, r io.Reader, _ int64) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.keys = append(m.keys, key)
	m.data = append(m.data, b)
	return "http://objects.test/avatars/" + key, nil
}

func TestValidateReportsFirstField(t *testing.T) {
	t.Parallel()

	err := Validate(&models.SendMessageRequest{})
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("got %v, want ErrInvalid", err)
	}
	if !strings.Contains(err.Error(), "content failed required") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestUserServiceUpdateProfile(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	createUser(t, db, "u1", "alice")
	createUser(t, db, "u2", "bob")
	svc := NewUserService(db, nil)

	bio := "likes jazz"
	if _, err := svc.UpdateProfile(ctx, "u2", "u1", &models.UpdateProfileRequest{Bio: &bio}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("editing another profile: got %v, want ErrForbidden", err)
	}

	bad := models.UserStatus("asleep")
	if _, err := svc.UpdateProfile(ctx, "u1", "u1", &models.UpdateProfileRequest{Status: &bad}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("bad status: got %v, want ErrInvalid", err)
	}

	taken := "bob"
	if _, err := svc.UpdateProfile(ctx, "u1", "u1", &models.UpdateProfileRequest{Username: &taken}); !errors.Is(err, ErrConflict) {
		t.Fatalf("taken username: got %v, want ErrConflict", err)
	}

	interests := []string{" Jazz ", "jazz", "Hiking"}
	away := models.StatusAway
	user, err := svc.UpdateProfile(ctx, "u1", "u1", &models.UpdateProfileRequest{Bio: &bio, Status: &away, Interests: &interests})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if user.Bio != bio || user.Status != models.StatusAway {
		t.Fatalf("update not applied: %+v", user)
	}
	if len(user.Interests) != 2 || user.Interests[0] != "Jazz" || user.Interests[1] != "Hiking" {
		t.Fatalf("interests = %v", user.Interests)
	}

	stored, _ := svc.GetUser(ctx, "u1")
	if stored.Bio != bio {
		t.Fatalf("stored bio = %q", stored.Bio)
	}
}

func TestUserServiceSearch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	createUser(t, db, "u1", "alice")
	svc := NewUserService(db, nil)

	users, err := svc.Search(ctx, "   ")
	if err != nil || users == nil || len(users) != 0 {
		t.Fatalf("blank search = %v, %v", users, err)
	}
	users, _ = svc.Search(ctx, "ALI")
	if len(users) != 1 || users[0].ID != "u1" {
		t.Fatalf("search = %+v", users)
	}
	if _, err := svc.GetUser(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing user: got %v, want ErrNotFound", err)
	}
}

func TestUserServiceUploadAvatar(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	createUser(t, db, "u1", "alice")

	if _, err := NewUserService(db, nil).UploadAvatar(ctx, "u1", "u1", "image/png", strings.NewReader("x"), 1); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("no storage: got %v, want ErrUnavailable", err)
	}

	objects := &memoryObjects{}
	svc := NewUserService(db, objects)
	if _, err := svc.UploadAvatar(ctx, "u1", "u1", "text/plain", strings.NewReader("x"), 1); !errors.Is(err, ErrInvalid) {
		t.Fatalf("text upload: got %v, want ErrInvalid", err)
	}

	img := []byte("\x89PNG fake")
	user, err := svc.UploadAvatar(ctx, "u1", "u1", "image/png", bytes.NewReader(img), int64(len(img)))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if len(objects.keys) != 1 || !strings.HasPrefix(objects.keys[0], "u1/") || !strings.HasSuffix(objects.keys[0], ".png") {
		t.Fatalf("object keys = %v", objects.keys)
	}
	if !bytes.Equal(objects.data[0], img) {
		t.Fatal("stored bytes differ from upload")
	}
	if user.ProfilePicture != "http://objects.test/avatars/"+objects.keys[0] {
		t.Fatalf("profile picture = %q", user.ProfilePicture)
	}
}

func TestUserServiceFriendRequestFlow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	createUser(t, db, "u1", "alice")
	createUser(t, db, "u2", "bob")
	createUser(t, db, "u3", "carol")
	svc := NewUserService(db, nil)

	if _, err := svc.SendFriendRequest(ctx, "u1", "u1"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("self request: got %v, want ErrInvalid", err)
	}

	req, err := svc.SendFriendRequest(ctx, "u1", "u2")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if req.Sender == nil || req.Sender.Username != "alice" {
		t.Fatalf("sender summary = %+v", req.Sender)
	}
	if _, err := svc.SendFriendRequest(ctx, "u2", "u1"); !errors.Is(err, ErrConflict) {
		t.Fatalf("reverse pending request: got %v, want ErrConflict", err)
	}

	notifications, _ := db.ListNotifications(ctx, "u2")
	if len(notifications) != 1 || notifications[0].Type != models.NotificationFriendRequest || notifications[0].ReferenceID != req.ID {
		t.Fatalf("notifications = %+v", notifications)
	}
	if notifications[0].Content != "Alice sent you a friend request" {
		t.Fatalf("notification content = %q", notifications[0].Content)
	}

	if _, err := svc.RespondFriendRequest(ctx, "u3", req.ID, true); !errors.Is(err, ErrForbidden) {
		t.Fatalf("third party accept: got %v, want ErrForbidden", err)
	}

	accepted, err := svc.RespondFriendRequest(ctx, "u2", req.ID, true)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.Status != models.FriendRequestAccepted {
		t.Fatalf("status = %s", accepted.Status)
	}
	if _, err := svc.RespondFriendRequest(ctx, "u2", req.ID, false); !errors.Is(err, ErrConflict) {
		t.Fatalf("respond twice: got %v, want ErrConflict", err)
	}
	if remaining, _ := db.ListNotifications(ctx, "u2"); len(remaining) != 0 {
		t.Fatalf("expected request notification consumed, got %d", len(remaining))
	}

	friends, _ := svc.Friends(ctx, "u1")
	if len(friends) != 1 || friends[0].ID != "u2" {
		t.Fatalf("friends = %+v", friends)
	}
	if _, err := svc.SendFriendRequest(ctx, "u1", "u2"); !errors.Is(err, ErrConflict) {
		t.Fatalf("request to friend: got %v, want ErrConflict", err)
	}

	if err := svc.RemoveFriend(ctx, "u2", "u1", "u2"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("remove for someone else: got %v, want ErrForbidden", err)
	}
	if err := svc.RemoveFriend(ctx, "u1", "u1", "u2"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if friends, _ := svc.Friends(ctx, "u2"); len(friends) != 0 {
		t.Fatalf("expected friendship removed both ways, got %+v", friends)
	}
}

func TestUserServiceDeclineFriendRequest(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	createUser(t, db, "u1", "alice")
	createUser(t, db, "u2", "bob")
	svc := NewUserService(db, nil)

	req, err := svc.SendFriendRequest(ctx, "u1", "u2")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	declined, err := svc.RespondFriendRequest(ctx, "u2", req.ID, false)
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	if declined.Status != models.FriendRequestDeclined {
		t.Fatalf("status = %s", declined.Status)
	}
	if friends, _ := svc.Friends(ctx, "u1"); len(friends) != 0 {
		t.Fatalf("decline must not create a friendship, got %+v", friends)
	}
	if pending, _ := svc.PendingFriendRequests(ctx, "u2"); len(pending) != 0 {
		t.Fatalf("pending = %+v", pending)
	}
	if _, err := svc.SendFriendRequest(ctx, "u1", "u2"); err != nil {
		t.Fatalf("request after decline: %v", err)
	}
}

func TestEventServiceLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	createUser(t, db, "u1", "alice")
	createUser(t, db, "u2", "bob")
	events := NewEventService(db)
	users := NewUserService(db, nil)

	if _, err := events.CreateEvent(ctx, "u1", &models.CreateEventRequest{Title: "Gig", Type: "music", Date: "next friday", Location: "Club"}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("bad date: got %v, want ErrInvalid", err)
	}
	if _, err := events.CreateEvent(ctx, "u1", &models.CreateEventRequest{Title: "  ", Type: "music", Date: "2026-06-01", Location: "Club"}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("blank title: got %v, want ErrInvalid", err)
	}

	event, err := events.CreateEvent(ctx, "u1", &models.CreateEventRequest{Title: "Gig", Type: "music", Date: "2026-06-01", Location: "Club"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if event.AuthorID != "u1" || !event.Date.Equal(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("event = %+v", event)
	}

	joined, err := events.JoinEvent(ctx, "u2", event.ID)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if !joined.HasJoined("u2") {
		t.Fatalf("joined users = %v", joined.JoinedUsers)
	}
	if _, err := events.JoinEvent(ctx, "u2", event.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("join twice: got %v, want ErrConflict", err)
	}
	if _, err := events.JoinEvent(ctx, "u2", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("join missing: got %v, want ErrNotFound", err)
	}

	list, _ := users.JoinedEvents(ctx, "u2")
	if len(list) != 1 || list[0].ID != event.ID {
		t.Fatalf("joined events = %+v", list)
	}

	if err := users.LeaveEvent(ctx, "u1", "u2", event.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("leave for someone else: got %v, want ErrForbidden", err)
	}
	if err := users.LeaveEvent(ctx, "u2", "u2", event.ID); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if err := users.LeaveEvent(ctx, "u2", "u2", event.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("leave twice: got %v, want ErrNotFound", err)
	}

	if err := events.DeleteEvent(ctx, "u2", event.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-author delete: got %v, want ErrForbidden", err)
	}
	if err := events.DeleteEvent(ctx, "u1", event.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := events.GetEvent(ctx, event.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted event: got %v, want ErrNotFound", err)
	}
}

func TestParseEventDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2026-06-01", time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), true},
		{"2026-06-01T18:30:00+02:00", time.Date(2026, 6, 1, 16, 30, 0, 0, time.UTC), true},
		{"06/01/2026", time.Time{}, false},
	}
	for _, tt := range tests {
		got, err := ParseEventDate(tt.in)
		if (err == nil) != tt.ok {
			t.Fatalf("ParseEventDate(%q) err = %v", tt.in, err)
		}
		if tt.ok && !got.Equal(tt.want) {
			t.Fatalf("ParseEventDate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestChatroomServicePrivateRooms(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	createUser(t, db, "u1", "alice")
	createUser(t, db, "u2", "bob")
	createUser(t, db, "u3", "carol")
	svc := NewChatroomService(db)

	if _, _, err := svc.GetOrCreatePrivate(ctx, "u1", "u1"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("self chat: got %v, want ErrInvalid", err)
	}
	if _, _, err := svc.GetOrCreatePrivate(ctx, "u1", "u2"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-friend chat: got %v, want ErrForbidden", err)
	}
	if _, err := svc.FindPrivate(ctx, "u1", "u2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("find before create: got %v, want ErrNotFound", err)
	}

	befriend(t, db, "u1", "u2")
	room, created, err := svc.GetOrCreatePrivate(ctx, "u1", "u2")
	if err != nil || !created {
		t.Fatalf("create = %v, created %v", err, created)
	}
	if room.Name != "Bob" {
		t.Fatalf("private room name for alice = %q, want Bob", room.Name)
	}

	again, created, err := svc.GetOrCreatePrivate(ctx, "u2", "u1")
	if err != nil || created {
		t.Fatalf("reopen = %v, created %v", err, created)
	}
	if again.ID != room.ID || again.Name != "Alice" {
		t.Fatalf("reopened room = %+v", again)
	}

	if _, err := svc.History(ctx, "u3", room.ID, 0); !errors.Is(err, ErrForbidden) {
		t.Fatalf("outsider history: got %v, want ErrForbidden", err)
	}
	if err := svc.JoinRoom(ctx, "u3", room.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("outsider join: got %v, want ErrForbidden", err)
	}

	long := strings.Repeat("é", 100)
	msg, err := svc.PostMessage(ctx, "u1", room.ID, &models.SendMessageRequest{Content: "  " + long + "  "})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if msg.Content != long || msg.Sender.Username != "alice" {
		t.Fatalf("message = %+v", msg)
	}

	stored, err := svc.SentMessage(ctx, "u1", msg.ID)
	if err != nil || stored.Content != long || stored.ChatroomID != room.ID {
		t.Fatalf("sent message = %+v, %v", stored, err)
	}
	if _, err := svc.SentMessage(ctx, "u2", msg.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("someone else's message: got %v, want ErrForbidden", err)
	}
	if _, err := svc.SentMessage(ctx, "u1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown message: got %v, want ErrNotFound", err)
	}

	notes, _ := db.ListNotifications(ctx, "u2")
	if len(notes) != 1 || notes[0].Type != models.NotificationMessage || notes[0].ReferenceID != room.ID {
		t.Fatalf("notifications = %+v", notes)
	}
	wantContent := "Alice: " + strings.Repeat("é", 80) + "…"
	if notes[0].Content != wantContent {
		t.Fatalf("notification content = %q", notes[0].Content)
	}
	if own, _ := db.ListNotifications(ctx, "u1"); len(own) != 0 {
		t.Fatalf("sender got %d notifications", len(own))
	}

	rooms, _ := svc.ListUserChatrooms(ctx, "u2")
	if len(rooms) != 1 || rooms[0].UnreadCount != 1 || rooms[0].Name != "Alice" {
		t.Fatalf("bob rooms = %+v", rooms)
	}
	if err := svc.MarkRead(ctx, "u2", room.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	rooms, _ = svc.ListUserChatrooms(ctx, "u2")
	if rooms[0].UnreadCount != 0 {
		t.Fatalf("unread after mark read = %d", rooms[0].UnreadCount)
	}

	if err := svc.DeleteChatroom(ctx, "u3", room.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("outsider delete: got %v, want ErrForbidden", err)
	}
	if err := svc.DeleteChatroom(ctx, "u2", room.ID); err != nil {
		t.Fatalf("participant delete: %v", err)
	}
	if _, err := svc.FindPrivate(ctx, "u1", "u2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("find after delete: got %v, want ErrNotFound", err)
	}
}

func TestChatroomServiceExistingRoomSurvivesUnfriend(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	createUser(t, db, "u1", "alice")
	createUser(t, db, "u2", "bob")
	svc := NewChatroomService(db)

	befriend(t, db, "u1", "u2")
	room, _, err := svc.GetOrCreatePrivate(ctx, "u1", "u2")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := db.RemoveFriendship(ctx, "u1", "u2"); err != nil {
		t.Fatalf("unfriend: %v", err)
	}

	again, created, err := svc.GetOrCreatePrivate(ctx, "u1", "u2")
	if err != nil || created || again.ID != room.ID {
		t.Fatalf("reopen after unfriend = %+v, created %v, err %v", again, created, err)
	}
}

func TestChatroomServicePublicRooms(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	createUser(t, db, "u1", "alice")
	createUser(t, db, "u2", "bob")
	createUser(t, db, "u3", "carol")
	svc := NewChatroomService(db)

	if _, err := svc.CreatePublic(ctx, "u1", "   "); !errors.Is(err, ErrInvalid) {
		t.Fatalf("blank name: got %v, want ErrInvalid", err)
	}
	room, err := svc.CreatePublic(ctx, "u1", "Lobby")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if room.IsPrivate || !room.HasParticipant("u1") {
		t.Fatalf("room = %+v", room)
	}

	if err := svc.JoinRoom(ctx, "u2", room.ID); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := svc.PostMessage(ctx, "u3", room.ID, &models.SendMessageRequest{Content: "hi all"}); err != nil {
		t.Fatalf("post: %v", err)
	}

	participants, err := svc.Participants(ctx, "u1", room.ID)
	if err != nil {
		t.Fatalf("participants: %v", err)
	}
	if len(participants) != 3 {
		t.Fatalf("participants = %+v", participants)
	}
	for _, id := range []string{"u1", "u2"} {
		if notes, _ := db.ListNotifications(ctx, id); len(notes) != 0 {
			t.Fatalf("public room message notified %s", id)
		}
	}

	if _, err := svc.PostMessage(ctx, "u1", room.ID, &models.SendMessageRequest{Content: "   "}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("blank message: got %v, want ErrInvalid", err)
	}

	publics, _ := svc.ListPublicChatrooms(ctx)
	if len(publics) != 1 || publics[0].LastMessage != "hi all" {
		t.Fatalf("public rooms = %+v", publics)
	}

	if err := svc.DeleteChatroom(ctx, "u2", room.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("member delete: got %v, want ErrForbidden", err)
	}
	if err := svc.DeleteChatroom(ctx, "u1", room.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
}

func TestChatroomServiceHistoryLimit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	createUser(t, db, "u1", "alice")
	svc := NewChatroomService(db)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	room, err := svc.CreatePublic(ctx, "u1", "Busy")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 0; i < DefaultHistoryLimit+5; i++ {
		if _, err := svc.PostMessage(ctx, "u1", room.ID, &models.SendMessageRequest{Content: "msg"}); err != nil {
			t.Fatalf("post %d: %v", i, err)
		}
	}

	history, err := svc.History(ctx, "u1", room.ID, 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != DefaultHistoryLimit {
		t.Fatalf("default history = %d, want %d", len(history), DefaultHistoryLimit)
	}
	for i := 1; i < len(history); i++ {
		if history[i].CreatedAt.Before(history[i-1].CreatedAt) {
			t.Fatal("history is not oldest first")
		}
	}

	short, _ := svc.History(ctx, "u1", room.ID, 3)
	if len(short) != 3 || short[2].ID != history[len(history)-1].ID {
		t.Fatalf("limited history should end with the newest message")
	}
}

func TestNotificationServiceOwnership(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	createUser(t, db, "u1", "alice")
	createUser(t, db, "u2", "bob")
	users := NewUserService(db, nil)
	svc := NewNotificationService(db)

	if _, err := users.SendFriendRequest(ctx, "u1", "u2"); err != nil {
		t.Fatalf("send: %v", err)
	}

	if _, err := svc.List(ctx, "u1", "u2"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("list someone else's: got %v, want ErrForbidden", err)
	}
	list, err := svc.List(ctx, "u2", "u2")
	if err != nil || len(list) != 1 {
		t.Fatalf("list = %+v, %v", list, err)
	}
	id := list[0].ID

	if err := svc.MarkRead(ctx, "u1", id); !errors.Is(err, ErrForbidden) {
		t.Fatalf("mark someone else's: got %v, want ErrForbidden", err)
	}
	if err := svc.MarkRead(ctx, "u2", id); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	list, _ = svc.List(ctx, "u2", "u2")
	if list[0].Unread {
		t.Fatal("expected notification read")
	}

	if err := svc.Delete(ctx, "u2", id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, "u2", id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("delete twice: got %v, want ErrNotFound", err)
	}
}
