package database

import (
	"context"
	"errors"

	"vibely/internal/models"
)

var (
	// ErrNotFound indicates a requested row is missing.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a write collided with a uniqueness constraint.
	ErrConflict = errors.New("record conflict")
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	SearchUsers(ctx context.Context, query string, limit int) ([]*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	ListFriends(ctx context.Context, userID string) ([]models.UserSummary, error)
	AddFriendship(ctx context.Context, userID, friendID string) error
	RemoveFriendship(ctx context.Context, userID, friendID string) error
}

type FriendRequestRepository interface {
	CreateFriendRequest(ctx context.Context, req *models.FriendRequest) error
	GetFriendRequest(ctx context.Context, id string) (*models.FriendRequest, error)
	FindPendingFriendRequest(ctx context.Context, userA, userB string) (*models.FriendRequest, error)
	ListPendingFriendRequests(ctx context.Context, receiverID string) ([]models.FriendRequest, error)
	UpdateFriendRequestStatus(ctx context.Context, id string, status models.FriendRequestStatus) error
}

type EventRepository interface {
	CreateEvent(ctx context.Context, event *models.Event) error
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	ListEvents(ctx context.Context) ([]*models.Event, error)
	DeleteEvent(ctx context.Context, id string) error
	AddEventParticipant(ctx context.Context, eventID, userID string) error
	RemoveEventParticipant(ctx context.Context, eventID, userID string) error
	ListJoinedEvents(ctx context.Context, userID string) ([]*models.Event, error)
}

type ChatroomRepository interface {
	CreateChatroom(ctx context.Context, room *models.Chatroom, participantIDs []string) error
	GetChatroom(ctx context.Context, id, viewerID string) (*models.Chatroom, error)
	FindPrivateChatroom(ctx context.Context, userA, userB string) (*models.Chatroom, error)
	ListUserChatrooms(ctx context.Context, userID string) ([]*models.Chatroom, error)
	ListPublicChatrooms(ctx context.Context) ([]*models.Chatroom, error)
	AddParticipant(ctx context.Context, roomID, userID string) error
	IsParticipant(ctx context.Context, roomID, userID string) (bool, error)
	ResetUnread(ctx context.Context, roomID, userID string) error
	DeleteChatroom(ctx context.Context, id string) error
}

type MessageRepository interface {
	// SaveMessage stores msg, moves the room's last message forward and bumps
	// the unread counter of every participant except the sender.
	SaveMessage(ctx context.Context, msg *models.Message) error
	GetMessage(ctx context.Context, id string) (*models.Message, error)
	// LoadRecentMessages returns the newest limit messages oldest first,
	// ordered by creation time and then id.
	LoadRecentMessages(ctx context.Context, roomID string, limit int) ([]*models.Message, error)
}

type NotificationRepository interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	GetNotification(ctx context.Context, id string) (*models.Notification, error)
	ListNotifications(ctx context.Context, userID string) ([]*models.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	DeleteNotification(ctx context.Context, id string) error
	DeleteNotificationsByReference(ctx context.Context, userID, referenceID string) error
}

type Database interface {
	UserRepository
	FriendRequestRepository
	EventRepository
	ChatroomRepository
	MessageRepository
	NotificationRepository
	Close() error
}
