package repository

import (
	"context"

	"stockdesk/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReconciliationRepository interface {
	Create(ctx context.Context, rec *model.Reconciliation) error
	List(ctx context.Context, itemID *uuid.UUID, page, limit int) ([]model.Reconciliation, int64, error)
}

type reconciliationRepository struct {
	db *gorm.DB
}

func NewReconciliationRepository(db *gorm.DB) ReconciliationRepository {
	return &reconciliationRepository{db: db}
}

func (r *reconciliationRepository) Create(ctx context.Context, rec *model.Reconciliation) error {
	return GetDB(ctx, r.db).Create(rec).Error
}

func (r *reconciliationRepository) List(ctx context.Context, itemID *uuid.UUID, page, limit int) ([]model.Reconciliation, int64, error) {
	var out []model.Reconciliation
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Reconciliation{})
	if itemID != nil {
		query = query.Where("item_id = ?", *itemID)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("counted_at DESC").Offset(offset).Limit(limit).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
