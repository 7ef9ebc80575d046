package models

import "time"

type Chatroom struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Avatar        string        `json:"avatar,omitempty"`
	IsPrivate     bool          `json:"is_private"`
	OwnerID       string        `json:"owner_id,omitempty"`
	Participants  []UserSummary `json:"participants"`
	LastMessage   string        `json:"last_message,omitempty"`
	LastMessageAt *time.Time    `json:"last_message_at,omitempty"`
	UnreadCount   int           `json:"unread_count"`
	CreatedAt     time.Time     `json:"created_at"`
}

// HasParticipant reports whether userID takes part in the room.
func (c *Chatroom) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}

// Other returns the first participant that is not userID.
func (c *Chatroom) Other(userID string) (UserSummary, bool) {
	for _, p := range c.Participants {
		if p.ID != userID {
			return p, true
		}
	}
	return UserSummary{}, false
}

// ViewFor derives the per-user presentation of a private room: the name and
// avatar of the other participant.
func (c *Chatroom) ViewFor(userID string) {
	if !c.IsPrivate {
		return
	}
	if other, ok := c.Other(userID); ok {
		c.Name = other.Name
		if c.Name == "" {
			c.Name = other.Username
		}
		c.Avatar = other.ProfilePicture
	}
}

type Message struct {
	ID         string      `json:"id"`
	ChatroomID string      `json:"chatroom_id"`
	Sender     UserSummary `json:"sender"`
	Content    string      `json:"content"`
	CreatedAt  time.Time   `json:"created_at"`
}

type CreateChatroomRequest struct {
	ParticipantID string `json:"participantId,omitempty"`
	Name          string `json:"name,omitempty" validate:"omitempty,max=80"`
}

type SendMessageRequest struct {
	Content string `json:"content" validate:"required,max=4000"`
}
