package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"vibely/internal/database"
	"vibely/internal/models"

	"github.com/google/uuid"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
	notificationPreview = 80
)

type ChatroomService struct {
	db  database.Database
	now func() time.Time
}

func NewChatroomService(db database.Database) *ChatroomService {
	return &ChatroomService{db: db, now: time.Now}
}

// ListUserChatrooms returns the caller's rooms, most recently active first,
// with private rooms named after the other participant.
func (s *ChatroomService) ListUserChatrooms(ctx context.Context, userID string) ([]*models.Chatroom, error) {
	rooms, err := s.db.ListUserChatrooms(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list chatrooms: %w", err)
	}
	for _, room := range rooms {
		room.ViewFor(userID)
	}
	return rooms, nil
}

func (s *ChatroomService) ListPublicChatrooms(ctx context.Context) ([]*models.Chatroom, error) {
	rooms, err := s.db.ListPublicChatrooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("list public chatrooms: %w", err)
	}
	return rooms, nil
}

// GetOrCreatePrivate returns the private room between caller and other,
// creating it on first use. The two users must be friends. The boolean
// reports whether the room was created by this call.
func (s *ChatroomService) GetOrCreatePrivate(ctx context.Context, callerID, otherID string) (*models.Chatroom, bool, error) {
	if callerID == otherID {
		return nil, false, invalid("cannot open a private chat with yourself")
	}
	caller, err := s.db.GetUserByID(ctx, callerID)
	if err != nil {
		return nil, false, storeError(err, "user")
	}
	if _, err := s.db.GetUserByID(ctx, otherID); err != nil {
		return nil, false, storeError(err, "user")
	}

	if room, err := s.FindPrivate(ctx, callerID, otherID); err == nil {
		return room, false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	if !caller.IsFriend(otherID) {
		return nil, false, forbidden("private chats are only available between friends")
	}

	room := &models.Chatroom{
		ID:        uuid.NewString(),
		IsPrivate: true,
		OwnerID:   callerID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.db.CreateChatroom(ctx, room, []string{callerID, otherID}); err != nil {
		if errors.Is(err, database.ErrConflict) {
			// Lost a creation race with the other participant.
			existing, findErr := s.FindPrivate(ctx, callerID, otherID)
			return existing, false, findErr
		}
		return nil, false, fmt.Errorf("create chatroom: %w", err)
	}

	created, err := s.db.GetChatroom(ctx, room.ID, callerID)
	if err != nil {
		return nil, false, storeError(err, "chatroom")
	}
	created.ViewFor(callerID)
	return created, true, nil
}

// FindPrivate looks up the private room between caller and other.
func (s *ChatroomService) FindPrivate(ctx context.Context, callerID, otherID string) (*models.Chatroom, error) {
	room, err := s.db.FindPrivateChatroom(ctx, callerID, otherID)
	if err != nil {
		return nil, storeError(err, "chatroom")
	}
	room.ViewFor(callerID)
	return room, nil
}

func (s *ChatroomService) CreatePublic(ctx context.Context, ownerID, name string) (*models.Chatroom, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("room name is required")
	}
	if len(name) > 80 {
		return nil, invalid("room name must be at most 80 characters")
	}

	room := &models.Chatroom{
		ID:        uuid.NewString(),
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.db.CreateChatroom(ctx, room, []string{ownerID}); err != nil {
		return nil, fmt.Errorf("create chatroom: %w", err)
	}
	return s.db.GetChatroom(ctx, room.ID, ownerID)
}

// Authorize loads the room and checks the user may read and post in it.
// Public rooms are open to everyone; private rooms to their participants.
func (s *ChatroomService) Authorize(ctx context.Context, userID, roomID string) (*models.Chatroom, error) {
	room, err := s.db.GetChatroom(ctx, roomID, userID)
	if err != nil {
		return nil, storeError(err, "chatroom")
	}
	if room.IsPrivate && !room.HasParticipant(userID) {
		return nil, forbidden("not a participant of this chatroom")
	}
	return room, nil
}

// JoinRoom authorizes a realtime subscription, enrolling the user in public rooms.
func (s *ChatroomService) JoinRoom(ctx context.Context, userID, roomID string) error {
	room, err := s.Authorize(ctx, userID, roomID)
	if err != nil {
		return err
	}
	if !room.IsPrivate && !room.HasParticipant(userID) {
		if err := s.db.AddParticipant(ctx, roomID, userID); err != nil {
			return fmt.Errorf("join chatroom: %w", err)
		}
	}
	return nil
}

// History returns up to limit messages, oldest first.
func (s *ChatroomService) History(ctx context.Context, userID, roomID string, limit int) ([]*models.Message, error) {
	if _, err := s.Authorize(ctx, userID, roomID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	messages, err := s.db.LoadRecentMessages(ctx, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return messages, nil
}

// PostMessage stores a message from sender. In private rooms the other
// participant gets a Message notification.
func (s *ChatroomService) PostMessage(ctx context.Context, senderID, roomID string, req *models.SendMessageRequest) (*models.Message, error) {
	req.Content = strings.TrimSpace(req.Content)
	if err := Validate(req); err != nil {
		return nil, err
	}

	room, err := s.Authorize(ctx, senderID, roomID)
	if err != nil {
		return nil, err
	}
	sender, err := s.db.GetUserByID(ctx, senderID)
	if err != nil {
		return nil, storeError(err, "user")
	}
	if !room.IsPrivate && !room.HasParticipant(senderID) {
		if err := s.db.AddParticipant(ctx, roomID, senderID); err != nil {
			return nil, fmt.Errorf("join chatroom: %w", err)
		}
	}

	msg := &models.Message{
		ID:         uuid.NewString(),
		ChatroomID: roomID,
		Sender:     sender.Summary(),
		Content:    req.Content,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.db.SaveMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("save message: %w", err)
	}

	if room.IsPrivate {
		for _, p := range room.Participants {
			if p.ID == senderID {
				continue
			}
			n := &models.Notification{
				ID:          uuid.NewString(),
				UserID:      p.ID,
				Type:        models.NotificationMessage,
				Content:     fmt.Sprintf("%s: %s", displayName(msg.Sender), preview(msg.Content)),
				Sender:      msg.Sender,
				ReferenceID: roomID,
				Unread:      true,
				CreatedAt:   msg.CreatedAt,
			}
			if err := s.db.CreateNotification(ctx, n); err != nil {
				return nil, fmt.Errorf("create notification: %w", err)
			}
		}
	}
	return msg, nil
}

// SentMessage returns the stored copy of a message the user posted.
func (s *ChatroomService) SentMessage(ctx context.Context, userID, messageID string) (*models.Message, error) {
	if strings.TrimSpace(messageID) == "" {
		return nil, invalid("message id is required")
	}
	msg, err := s.db.GetMessage(ctx, messageID)
	if err != nil {
		return nil, storeError(err, "message")
	}
	if msg.Sender.ID != userID {
		return nil, forbidden("message was sent by another user")
	}
	return msg, nil
}

func preview(content string) string {
	runes := []rune(content)
	if len(runes) <= notificationPreview {
		return content
	}
	return string(runes[:notificationPreview]) + "…"
}

func (s *ChatroomService) Participants(ctx context.Context, userID, roomID string) ([]models.UserSummary, error) {
	room, err := s.Authorize(ctx, userID, roomID)
	if err != nil {
		return nil, err
	}
	return room.Participants, nil
}

// MarkRead resets the caller's unread counter for the room.
func (s *ChatroomService) MarkRead(ctx context.Context, userID, roomID string) error {
	if _, err := s.Authorize(ctx, userID, roomID); err != nil {
		return err
	}
	if err := s.db.ResetUnread(ctx, roomID, userID); err != nil {
		return storeError(err, "chatroom participant")
	}
	return nil
}

// DeleteChatroom removes a room. Private rooms may be deleted by either
// participant, public rooms only by their owner.
func (s *ChatroomService) DeleteChatroom(ctx context.Context, userID, roomID string) error {
	room, err := s.Authorize(ctx, userID, roomID)
	if err != nil {
		return err
	}
	if !room.IsPrivate && room.OwnerID != userID {
		return forbidden("only the owner can delete a public chatroom")
	}
	if err := s.db.DeleteChatroom(ctx, roomID); err != nil {
		return storeError(err, "chatroom")
	}
	return nil
}
