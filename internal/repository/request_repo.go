package repository

import (
	"context"
	"time"

	"stockdesk/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RequestFilter struct {
	Status      string
	RequesterID *uuid.UUID
	Page        int
	Limit       int
}

type RequestRepository interface {
	Create(ctx context.Context, req *model.Request) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Request, error)
	List(ctx context.Context, filter RequestFilter) ([]model.Request, int64, error)
	Transition(ctx context.Context, id uuid.UUID, from, to string, values map[string]interface{}) error
}

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

// Create inserts the request together with its line snapshot.
func (r *requestRepository) Create(ctx context.Context, req *model.Request) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *requestRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	var req model.Request
	if err := GetDB(ctx, r.db).Preload("Lines").First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) List(ctx context.Context, filter RequestFilter) ([]model.Request, int64, error) {
	var requests []model.Request
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Request{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.RequesterID != nil {
		query = query.Where("requester_id = ?", *filter.RequesterID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := query.Preload("Lines").Order("submitted_at DESC").Offset(offset).Limit(filter.Limit).Find(&requests).Error; err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

// Transition moves a request from one status to another only if it is still in from.
func (r *requestRepository) Transition(ctx context.Context, id uuid.UUID, from, to string, values map[string]interface{}) error {
	updates := map[string]interface{}{"status": to, "updated_at": time.Now()}
	for k, v := range values {
		updates[k] = v
	}
	res := GetDB(ctx, r.db).Model(&model.Request{}).Where("id = ? AND status = ?", id, from).Updates(updates)
	return guarded(res.RowsAffected, res.Error)
}
