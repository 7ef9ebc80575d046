package services

import (
	"context"
	"fmt"

	"vibely/internal/database"
	"vibely/internal/models"
)

type NotificationService struct {
	db database.Database
}

func NewNotificationService(db database.Database) *NotificationService {
	return &NotificationService{db: db}
}

// List returns the user's notifications, newest first. Users may only read their own.
func (s *NotificationService) List(ctx context.Context, callerID, userID string) ([]*models.Notification, error) {
	if callerID != userID {
		return nil, forbidden("cannot read another user's notifications")
	}
	notifications, err := s.db.ListNotifications(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

func (s *NotificationService) owned(ctx context.Context, callerID, id string) error {
	n, err := s.db.GetNotification(ctx, id)
	if err != nil {
		return storeError(err, "notification")
	}
	if n.UserID != callerID {
		return forbidden("notification belongs to another user")
	}
	return nil
}

func (s *NotificationService) MarkRead(ctx context.Context, callerID, id string) error {
	if err := s.owned(ctx, callerID, id); err != nil {
		return err
	}
	if err := s.db.MarkNotificationRead(ctx, id); err != nil {
		return storeError(err, "notification")
	}
	return nil
}

func (s *NotificationService) Delete(ctx context.Context, callerID, id string) error {
	if err := s.owned(ctx, callerID, id); err != nil {
		return err
	}
	if err := s.db.DeleteNotification(ctx, id); err != nil {
		return storeError(err, "notification")
	}
	return nil
}
