package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/tripmate/tripmate-api/internal/domain"
	"github.com/tripmate/tripmate-api/internal/repository"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNotNotificationOwner = errors.New("notification belongs to another user")
)

type NotificationService interface {
	List(ctx context.Context, userID string, query *domain.NotificationQuery) (*domain.Page[domain.Notification], error)
	Get(ctx context.Context, id, userID string) (*domain.Notification, error)
	MarkRead(ctx context.Context, userID string, req *domain.MarkReadRequest) (int64, error)
	MarkUnread(ctx context.Context, id, userID string) error
	Delete(ctx context.Context, id, userID string) error
	ClearAll(ctx context.Context, userID string) (int64, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	Stats(ctx context.Context, userID string) (*domain.NotificationStats, error)
}

type notificationService struct {
	notificationRepo repository.NotificationRepository
}

func NewNotificationService(notificationRepo repository.NotificationRepository) NotificationService {
	return &notificationService{notificationRepo: notificationRepo}
}

func (s *notificationService) List(ctx context.Context, userID string, query *domain.NotificationQuery) (*domain.Page[domain.Notification], error) {
	notifications, total, err := s.notificationRepo.List(ctx, userID, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return domain.NewPage(notifications, total, query.Page, query.Limit), nil
}

func (s *notificationService) Get(ctx context.Context, id, userID string) (*domain.Notification, error) {
	notification, err := s.notificationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find notification: %w", err)
	}
	if notification == nil {
		return nil, ErrNotificationNotFound
	}
	if notification.UserID != userID {
		return nil, ErrNotNotificationOwner
	}
	return notification, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID string, req *domain.MarkReadRequest) (int64, error) {
	if req.All || len(req.IDs) == 0 {
		count, err := s.notificationRepo.MarkAllRead(ctx, userID)
		if err != nil {
			return 0, fmt.Errorf("failed to mark notifications read: %w", err)
		}
		return count, nil
	}

	count, err := s.notificationRepo.MarkRead(ctx, userID, req.IDs)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return count, nil
}

func (s *notificationService) MarkUnread(ctx context.Context, id, userID string) error {
	ok, err := s.notificationRepo.MarkUnread(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification unread: %w", err)
	}
	if !ok {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *notificationService) Delete(ctx context.Context, id, userID string) error {
	ok, err := s.notificationRepo.Delete(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if !ok {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *notificationService) ClearAll(ctx context.Context, userID string) (int64, error) {
	count, err := s.notificationRepo.ClearAll(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear notifications: %w", err)
	}
	return count, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	count, err := s.notificationRepo.UnreadCount(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (s *notificationService) Stats(ctx context.Context, userID string) (*domain.NotificationStats, error) {
	stats, err := s.notificationRepo.Stats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load notification stats: %w", err)
	}
	return stats, nil
}
