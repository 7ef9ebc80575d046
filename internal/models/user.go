package models

import "time"

type UserStatus string

const (
	StatusAvailable UserStatus = "available"
	StatusAway      UserStatus = "away"
	StatusBusy      UserStatus = "busy"
	StatusOffline   UserStatus = "offline"
)

// Valid reports whether s is one of the known statuses.
func (s UserStatus) Valid() bool {
	switch s {
	case StatusAvailable, StatusAway, StatusBusy, StatusOffline:
		return true
	}
	return false
}

type User struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Username       string          `json:"username"`
	Email          string          `json:"email"`
	Phone          string          `json:"phone,omitempty"`
	ProfilePicture string          `json:"profile_picture,omitempty"`
	Bio            string          `json:"bio,omitempty"`
	Location       string          `json:"location,omitempty"`
	Status         UserStatus      `json:"status"`
	Interests      []string        `json:"interests"`
	Friends        []string        `json:"friends"`
	FriendRequests []FriendRequest `json:"friend_requests"`
	PasswordHash   string          `json:"-"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Summary returns the fields embedded in messages, rooms and notifications.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:             u.ID,
		Name:           u.Name,
		Username:       u.Username,
		ProfilePicture: u.ProfilePicture,
	}
}

// IsFriend reports whether id is in the user's friend list.
func (u *User) IsFriend(id string) bool {
	for _, f := range u.Friends {
		if f == id {
			return true
		}
	}
	return false
}

type UserSummary struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profile_picture,omitempty"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=80"`
	Username string `json:"username" validate:"required,min=3,max=30,alphanumunicode"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"omitempty,max=32"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// UpdateProfileRequest carries a partial profile edit; nil fields are left unchanged.
type UpdateProfileRequest struct {
	Name           *string     `json:"name,omitempty" validate:"omitempty,min=1,max=80"`
	Username       *string     `json:"username,omitempty" validate:"omitempty,min=3,max=30,alphanumunicode"`
	Phone          *string     `json:"phone,omitempty" validate:"omitempty,max=32"`
	Bio            *string     `json:"bio,omitempty" validate:"omitempty,max=500"`
	Location       *string     `json:"location,omitempty" validate:"omitempty,max=120"`
	ProfilePicture *string     `json:"profile_picture,omitempty" validate:"omitempty,max=1024"`
	Status         *UserStatus `json:"status,omitempty"`
	Interests      *[]string   `json:"interests,omitempty" validate:"omitempty,max=30,dive,min=1,max=40"`
}

type FriendRequestStatus string

const (
	FriendRequestPending  FriendRequestStatus = "pending"
	FriendRequestAccepted FriendRequestStatus = "accepted"
	FriendRequestDeclined FriendRequestStatus = "declined"
)

type FriendRequest struct {
	ID         string              `json:"id"`
	SenderID   string              `json:"sender_id"`
	ReceiverID string              `json:"receiver_id"`
	Status     FriendRequestStatus `json:"status"`
	Sender     *UserSummary        `json:"sender,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
}
