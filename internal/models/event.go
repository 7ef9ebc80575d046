package models

import "time"

type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Type        string    `json:"type"`
	Date        time.Time `json:"date"`
	Time        string    `json:"time,omitempty"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	AuthorID    string    `json:"author_id"`
	Image       string    `json:"image,omitempty"`
	JoinedUsers []string  `json:"joined_users"`
	CreatedAt   time.Time `json:"created_at"`
}

// HasJoined reports whether userID is in the event's joined list.
func (e *Event) HasJoined(userID string) bool {
	for _, id := range e.JoinedUsers {
		if id == userID {
			return true
		}
	}
	return false
}

type CreateEventRequest struct {
	Title       string `json:"title" validate:"required,max=120"`
	Type        string `json:"type" validate:"required,max=40"`
	Date        string `json:"date" validate:"required"` // RFC3339 or YYYY-MM-DD
	Time        string `json:"time" validate:"omitempty,max=20"`
	Location    string `json:"location" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Image       string `json:"image" validate:"omitempty,max=1024"`
}

type LeaveEventRequest struct {
	EventID string `json:"eventId" validate:"required"`
}
