package repository

import (
	"context"

	"stockdesk/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListForRecipient(ctx context.Context, userID uuid.UUID, role string, unreadOnly bool, page, limit int) ([]model.Notification, int64, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID, role string) error
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	return GetDB(ctx, r.db).Create(n).Error
}

func (r *notificationRepository) ListForRecipient(ctx context.Context, userID uuid.UUID, role string, unreadOnly bool, page, limit int) ([]model.Notification, int64, error) {
	var out []model.Notification
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Notification{}).
		Where("recipient_user_id = ? OR recipient_role = ?", userID, role)
	if unreadOnly {
		query = query.Where("read = ?", false)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// MarkRead flips the read flag on a notification addressed to the caller. A role
// notification is one row shared by the role, so it reads as handled for all its members.
func (r *notificationRepository) MarkRead(ctx context.Context, id, userID uuid.UUID, role string) error {
	res := GetDB(ctx, r.db).Model(&model.Notification{}).
		Where("id = ? AND (recipient_user_id = ? OR recipient_role = ?)", id, userID, role).
		Update("read", true)
	return guarded(res.RowsAffected, res.Error)
}
