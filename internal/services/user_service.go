package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"vibely/internal/database"
	"vibely/internal/models"
	"vibely/internal/storage"

	"github.com/google/uuid"
)

const (
	maxSearchResults = 50
	maxAvatarBytes   = 5 << 20
)

var avatarTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type UserService struct {
	db      database.Database
	objects storage.ObjectStore
	now     func() time.Time
}

// NewUserService builds the profile and friendship service. objects may be nil,
// in which case avatar uploads report ErrUnavailable.
func NewUserService(db database.Database, objects storage.ObjectStore) *UserService {
	return &UserService{db: db, objects: objects, now: time.Now}
}

func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.db.GetUserByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "user")
	}
	return user, nil
}

func (s *UserService) Search(ctx context.Context, query string) ([]*models.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*models.User{}, nil
	}
	users, err := s.db.SearchUsers(ctx, query, maxSearchResults)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	if users == nil {
		users = []*models.User{}
	}
	return users, nil
}

// UpdateProfile applies the non-nil fields of req to the caller's own profile.
func (s *UserService) UpdateProfile(ctx context.Context, callerID, userID string, req *models.UpdateProfileRequest) (*models.User, error) {
	if callerID != userID {
		return nil, forbidden("cannot edit another user's profile")
	}
	if err := Validate(req); err != nil {
		return nil, err
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, invalid("status must be one of available, away, busy, offline")
	}

	user, err := s.db.GetUserByID(ctx, userID)
	if err != nil {
		return nil, storeError(err, "user")
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Username != nil {
		user.Username = strings.TrimSpace(*req.Username)
	}
	if req.Phone != nil {
		user.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.Location != nil {
		user.Location = strings.TrimSpace(*req.Location)
	}
	if req.ProfilePicture != nil {
		user.ProfilePicture = strings.TrimSpace(*req.ProfilePicture)
	}
	if req.Status != nil {
		user.Status = *req.Status
	}
	if req.Interests != nil {
		user.Interests = normalizeInterests(*req.Interests)
	}

	if err := s.db.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrConflict) {
			return nil, fmt.Errorf("%w: username already taken", ErrConflict)
		}
		return nil, storeError(err, "user")
	}
	return user, nil
}

func normalizeInterests(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		key := strings.ToLower(v)
		if v == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}

// UploadAvatar stores the image and points the user's profile picture at it.
func (s *UserService) UploadAvatar(ctx context.Context, callerID, userID, contentType string, r io.Reader, size int64) (*models.User, error) {
	if callerID != userID {
		return nil, forbidden("cannot edit another user's profile")
	}
	if s.objects == nil {
		return nil, fmt.Errorf("%w: avatar storage is not configured", ErrUnavailable)
	}
	ext, ok := avatarTypes[contentType]
	if !ok {
		return nil, invalid("avatar must be png, jpeg, gif or webp")
	}
	if size <= 0 || size > maxAvatarBytes {
		return nil, invalid("avatar must be between 1 byte and 5MB")
	}

	user, err := s.db.GetUserByID(ctx, userID)
	if err != nil {
		return nil, storeError(err, "user")
	}

	key := path.Join(userID, uuid.NewString()+ext)
	url, err := s.objects.Put(ctx, key, contentType, r, size)
	if err != nil {
		return nil, fmt.Errorf("upload avatar: %w", err)
	}

	user.ProfilePicture = url
	if err := s.db.UpdateUser(ctx, user); err != nil {
		return nil, storeError(err, "user")
	}
	return user, nil
}

func (s *UserService) JoinedEvents(ctx context.Context, userID string) ([]*models.Event, error) {
	if _, err := s.db.GetUserByID(ctx, userID); err != nil {
		return nil, storeError(err, "user")
	}
	events, err := s.db.ListJoinedEvents(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list joined events: %w", err)
	}
	return events, nil
}

// LeaveEvent removes the caller from the event's joined list.
func (s *UserService) LeaveEvent(ctx context.Context, callerID, userID, eventID string) error {
	if callerID != userID {
		return forbidden("cannot leave an event on behalf of another user")
	}
	if strings.TrimSpace(eventID) == "" {
		return invalid("eventId is required")
	}
	if err := s.db.RemoveEventParticipant(ctx, eventID, userID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("%w: event participation", ErrNotFound)
		}
		return fmt.Errorf("leave event: %w", err)
	}
	return nil
}

func (s *UserService) Friends(ctx context.Context, userID string) ([]models.UserSummary, error) {
	if _, err := s.db.GetUserByID(ctx, userID); err != nil {
		return nil, storeError(err, "user")
	}
	friends, err := s.db.ListFriends(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	return friends, nil
}

func (s *UserService) RemoveFriend(ctx context.Context, callerID, userID, friendID string) error {
	if callerID != userID {
		return forbidden("cannot edit another user's friends")
	}
	if err := s.db.RemoveFriendship(ctx, userID, friendID); err != nil {
		return storeError(err, "friendship")
	}
	return nil
}

// SendFriendRequest records a pending request from sender to receiver and
// notifies the receiver.
func (s *UserService) SendFriendRequest(ctx context.Context, senderID, receiverID string) (*models.FriendRequest, error) {
	if senderID == receiverID {
		return nil, invalid("cannot send a friend request to yourself")
	}

	sender, err := s.db.GetUserByID(ctx, senderID)
	if err != nil {
		return nil, storeError(err, "user")
	}
	if _, err := s.db.GetUserByID(ctx, receiverID); err != nil {
		return nil, storeError(err, "user")
	}
	if sender.IsFriend(receiverID) {
		return nil, fmt.Errorf("%w: already friends", ErrConflict)
	}

	if _, err := s.db.FindPendingFriendRequest(ctx, senderID, receiverID); err == nil {
		return nil, fmt.Errorf("%w: friend request already pending", ErrConflict)
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("find friend request: %w", err)
	}

	req := &models.FriendRequest{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Status:     models.FriendRequestPending,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.db.CreateFriendRequest(ctx, req); err != nil {
		return nil, storeError(err, "friend request")
	}
	summary := sender.Summary()
	req.Sender = &summary

	notification := &models.Notification{
		ID:          uuid.NewString(),
		UserID:      receiverID,
		Type:        models.NotificationFriendRequest,
		Content:     fmt.Sprintf("%s sent you a friend request", displayName(summary)),
		Sender:      summary,
		ReferenceID: req.ID,
		Unread:      true,
		CreatedAt:   req.CreatedAt,
	}
	if err := s.db.CreateNotification(ctx, notification); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	return req, nil
}

func (s *UserService) PendingFriendRequests(ctx context.Context, userID string) ([]models.FriendRequest, error) {
	requests, err := s.db.ListPendingFriendRequests(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list friend requests: %w", err)
	}
	return requests, nil
}

// RespondFriendRequest accepts or declines a pending request addressed to the
// caller. Either way the request's notification is consumed.
func (s *UserService) RespondFriendRequest(ctx context.Context, callerID, requestID string, accept bool) (*models.FriendRequest, error) {
	req, err := s.db.GetFriendRequest(ctx, requestID)
	if err != nil {
		return nil, storeError(err, "friend request")
	}
	if req.ReceiverID != callerID {
		return nil, forbidden("friend request is addressed to another user")
	}
	if req.Status != models.FriendRequestPending {
		return nil, fmt.Errorf("%w: friend request already %s", ErrConflict, req.Status)
	}

	status := models.FriendRequestDeclined
	if accept {
		if err := s.db.AddFriendship(ctx, req.SenderID, req.ReceiverID); err != nil {
			return nil, fmt.Errorf("add friendship: %w", err)
		}
		status = models.FriendRequestAccepted
	}
	if err := s.db.UpdateFriendRequestStatus(ctx, req.ID, status); err != nil {
		return nil, storeError(err, "friend request")
	}
	if err := s.db.DeleteNotificationsByReference(ctx, callerID, req.ID); err != nil {
		return nil, fmt.Errorf("clear notification: %w", err)
	}

	req.Status = status
	return req, nil
}

func displayName(u models.UserSummary) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}
