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

type EventService struct {
	db  database.Database
	now func() time.Time
}

func NewEventService(db database.Database) *EventService {
	return &EventService{db: db, now: time.Now}
}

func (s *EventService) ListEvents(ctx context.Context) ([]*models.Event, error) {
	events, err := s.db.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

func (s *EventService) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.db.GetEvent(ctx, id)
	if err != nil {
		return nil, storeError(err, "event")
	}
	return event, nil
}

func (s *EventService) CreateEvent(ctx context.Context, authorID string, req *models.CreateEventRequest) (*models.Event, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Type = strings.TrimSpace(req.Type)
	req.Location = strings.TrimSpace(req.Location)
	if err := Validate(req); err != nil {
		return nil, err
	}

	date, err := ParseEventDate(req.Date)
	if err != nil {
		return nil, err
	}

	event := &models.Event{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Type:        req.Type,
		Date:        date,
		Time:        strings.TrimSpace(req.Time),
		Location:    req.Location,
		Description: req.Description,
		AuthorID:    authorID,
		Image:       strings.TrimSpace(req.Image),
		JoinedUsers: []string{},
		CreatedAt:   s.now().UTC(),
	}
	if err := s.db.CreateEvent(ctx, event); err != nil {
		return nil, storeError(err, "event")
	}
	return event, nil
}

// ParseEventDate accepts RFC3339 or YYYY-MM-DD.
func ParseEventDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Time{}, invalid("invalid date format (use RFC3339 or YYYY-MM-DD)")
}

// JoinEvent adds the user to the event's joined list. Joining twice is a conflict.
func (s *EventService) JoinEvent(ctx context.Context, userID, eventID string) (*models.Event, error) {
	if _, err := s.db.GetEvent(ctx, eventID); err != nil {
		return nil, storeError(err, "event")
	}
	if err := s.db.AddEventParticipant(ctx, eventID, userID); err != nil {
		if errors.Is(err, database.ErrConflict) {
			return nil, fmt.Errorf("%w: already joined this event", ErrConflict)
		}
		return nil, fmt.Errorf("join event: %w", err)
	}
	return s.GetEvent(ctx, eventID)
}

// DeleteEvent removes an event; only its author may do so.
func (s *EventService) DeleteEvent(ctx context.Context, userID, eventID string) error {
	event, err := s.db.GetEvent(ctx, eventID)
	if err != nil {
		return storeError(err, "event")
	}
	if event.AuthorID != userID {
		return forbidden("only the author can delete the event")
	}
	if err := s.db.DeleteEvent(ctx, eventID); err != nil {
		return storeError(err, "event")
	}
	return nil
}
