package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var validTypes = map[string]bool{
	"info": true, "success": true, "warning": true, "error": true,
}

// ErrNotOwner is returned when a user acts on someone else's notification.
var ErrNotOwner = errors.New("notification belongs to another user")

type Service struct {
	notifications NotificationRepository
	now           func() time.Time
}

func NewService(notifications NotificationRepository) *Service {
	return &Service{notifications: notifications, now: time.Now}
}

func (s *Service) CreateNotification(ctx context.Context, n *Notification) error {
	n.UserID = strings.TrimSpace(n.UserID)
	n.Title = strings.TrimSpace(n.Title)
	n.Message = strings.TrimSpace(n.Message)
	if n.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if n.Title == "" {
		return fmt.Errorf("title is required")
	}
	if n.Message == "" {
		return fmt.Errorf("message is required")
	}
	if n.Type == "" {
		n.Type = "info"
	}
	if !validTypes[n.Type] {
		return fmt.Errorf("invalid type: %q", n.Type)
	}
	n.Read = false
	n.ReadAt = nil
	return s.notifications.Create(ctx, n)
}

// ListForUser lists the caller's notifications, newest first, together with
// the unread count.
func (s *Service) ListForUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]*Notification, int, int, error) {
	items, total, err := s.notifications.ListByUser(ctx, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, 0, 0, err
	}
	unread, err := s.notifications.CountUnread(ctx, userID)
	if err != nil {
		return nil, 0, 0, err
	}
	return items, total, unread, nil
}

func (s *Service) MarkAsRead(ctx context.Context, id uuid.UUID, userID string) error {
	if _, err := s.owned(ctx, id, userID); err != nil {
		return err
	}
	return s.notifications.MarkAsRead(ctx, id, s.now().UTC())
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.notifications.MarkAllRead(ctx, userID, s.now().UTC())
}

func (s *Service) DeleteNotification(ctx context.Context, id uuid.UUID, userID string) error {
	if _, err := s.owned(ctx, id, userID); err != nil {
		return err
	}
	return s.notifications.Delete(ctx, id)
}

func (s *Service) owned(ctx context.Context, id uuid.UUID, userID string) (*Notification, error) {
	n, err := s.notifications.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, ErrNotOwner
	}
	return n, nil
}
