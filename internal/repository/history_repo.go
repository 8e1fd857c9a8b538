package repository

import (
	"context"

	"stockdesk/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HistoryRepository stores per-item assignment history entries.
type HistoryRepository interface {
	Append(ctx context.Context, entry *model.AssignmentEntry) error
	FindEntry(ctx context.Context, itemID, entryID uuid.UUID) (*model.AssignmentEntry, error)
	DeleteEntry(ctx context.Context, entryID uuid.UUID) error
	LatestAssigned(ctx context.Context, itemID uuid.UUID) (*model.AssignmentEntry, error)
	Outstanding(ctx context.Context, itemID uuid.UUID, userID *uuid.UUID) (int, error)
	ListByItem(ctx context.Context, itemID uuid.UUID) ([]model.AssignmentEntry, error)
}

type historyRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) Append(ctx context.Context, entry *model.AssignmentEntry) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *historyRepository) FindEntry(ctx context.Context, itemID, entryID uuid.UUID) (*model.AssignmentEntry, error) {
	var entry model.AssignmentEntry
	if err := GetDB(ctx, r.db).Where("id = ? AND item_id = ?", entryID, itemID).First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *historyRepository) DeleteEntry(ctx context.Context, entryID uuid.UUID) error {
	res := GetDB(ctx, r.db).Where("id = ?", entryID).Delete(&model.AssignmentEntry{})
	return guarded(res.RowsAffected, res.Error)
}

// LatestAssigned returns the most recent "assigned" entry, or gorm.ErrRecordNotFound.
func (r *historyRepository) LatestAssigned(ctx context.Context, itemID uuid.UUID) (*model.AssignmentEntry, error) {
	var entry model.AssignmentEntry
	if err := GetDB(ctx, r.db).
		Where("item_id = ? AND action = ?", itemID, model.ActionAssigned).
		Order("created_at DESC").
		First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// Outstanding is assigned minus returned quantity for the item, optionally for one user.
// The result may be negative when history was corrected by hand.
func (r *historyRepository) Outstanding(ctx context.Context, itemID uuid.UUID, userID *uuid.UUID) (int, error) {
	var net int
	db := GetDB(ctx, r.db).Model(&model.AssignmentEntry{}).
		Select("COALESCE(SUM(CASE WHEN action = ? THEN quantity ELSE -quantity END), 0)", model.ActionAssigned).
		Where("item_id = ?", itemID)
	if userID != nil {
		db = db.Where("user_id = ?", *userID)
	}
	if err := db.Scan(&net).Error; err != nil {
		return 0, err
	}
	return net, nil
}

func (r *historyRepository) ListByItem(ctx context.Context, itemID uuid.UUID) ([]model.AssignmentEntry, error) {
	var entries []model.AssignmentEntry
	if err := GetDB(ctx, r.db).Where("item_id = ?", itemID).Order("created_at ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
