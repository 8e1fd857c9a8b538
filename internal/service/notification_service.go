package service

import (
	"context"
	"errors"

	"stockdesk/internal/apperror"
	"stockdesk/internal/auth"
	"stockdesk/internal/model"
	"stockdesk/internal/repository"
)

// NotificationService is the principal's inbox: notifications addressed to their
// user id or to their role.
type NotificationService interface {
	List(ctx context.Context, p *auth.Principal, unreadOnly bool, page, limit int) ([]model.Notification, int64, error)
	MarkRead(ctx context.Context, p *auth.Principal, id string) error
}

type notificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) NotificationService {
	return &notificationService{repo: repo}
}

func (s *notificationService) List(ctx context.Context, p *auth.Principal, unreadOnly bool, page, limit int) ([]model.Notification, int64, error) {
	if err := auth.Require(p); err != nil {
		return nil, 0, err
	}
	page, limit = normalizePage(page, limit)

	out, total, err := s.repo.ListForRecipient(ctx, p.ID, string(p.Role), unreadOnly, page, limit)
	if err != nil {
		return nil, 0, storeError(err)
	}
	return out, total, nil
}

func (s *notificationService) MarkRead(ctx context.Context, p *auth.Principal, id string) error {
	if err := auth.Require(p); err != nil {
		return err
	}
	nid, err := parseID(id, "notification")
	if err != nil {
		return err
	}
	if err := s.repo.MarkRead(ctx, nid, p.ID, string(p.Role)); err != nil {
		if errors.Is(err, repository.ErrGuardFailed) {
			return apperror.NotFound("Notification not found")
		}
		return storeError(err)
	}
	return nil
}
