package models

import "time"

type NotificationType string

const (
	NotificationMessage       NotificationType = "Message"
	NotificationFriendRequest NotificationType = "Friend Request"
)

type Notification struct {
	ID          string           `json:"id"`
	UserID      string           `json:"user_id"`
	Type        NotificationType `json:"type"`
	Content     string           `json:"content"`
	Sender      UserSummary      `json:"sender"`
	ReferenceID string           `json:"reference_id,omitempty"`
	Unread      bool             `json:"unread"`
	CreatedAt   time.Time        `json:"created_at"`
}
