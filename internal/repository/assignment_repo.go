package repository

import (
	"context"

	"stockdesk/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AssignmentRepository is insert-only: assignment records are never updated or deleted.
type AssignmentRepository interface {
	Create(ctx context.Context, a *model.Assignment) error
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]model.Assignment, error)
	List(ctx context.Context, itemID *uuid.UUID, page, limit int) ([]model.Assignment, int64, error)
}

type assignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) Create(ctx context.Context, a *model.Assignment) error {
	return GetDB(ctx, r.db).Create(a).Error
}

func (r *assignmentRepository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]model.Assignment, error) {
	var out []model.Assignment
	if err := GetDB(ctx, r.db).Where("request_id = ?", requestID).Order("assigned_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *assignmentRepository) List(ctx context.Context, itemID *uuid.UUID, page, limit int) ([]model.Assignment, int64, error) {
	var out []model.Assignment
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Assignment{})
	if itemID != nil {
		query = query.Where("item_id = ?", *itemID)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("assigned_at DESC").Offset(offset).Limit(limit).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
