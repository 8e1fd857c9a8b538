package repository

import (
	"context"
	"strings"
	"time"

	"stockdesk/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ItemRepository owns the stock counters. Every counter mutation is a single
// conditional UPDATE whose WHERE clause carries the guard; a guard that does not
// hold at write time yields ErrGuardFailed and leaves the row untouched.
type ItemRepository interface {
	Create(ctx context.Context, item *model.Item) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Item, error)
	FindByIDWithHistory(ctx context.Context, id uuid.UUID) (*model.Item, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Item, error)
	FindByIdentity(ctx context.Context, category, name string, isScrap bool) (*model.Item, error)
	List(ctx context.Context, page, limit int, search, category string) ([]model.Item, int64, error)
	ListIDs(ctx context.Context) ([]uuid.UUID, error)

	Reserve(ctx context.Context, id uuid.UUID, qty int) error
	Release(ctx context.Context, id uuid.UUID, qty int) error
	Consume(ctx context.Context, id uuid.UUID, qty int, assigneeID uuid.UUID, assigneeName string) error
	Withdraw(ctx context.Context, id uuid.UUID, qty int, assigneeID uuid.UUID, assigneeName string) error
	Restock(ctx context.Context, id uuid.UUID, qty int) error
	AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) error
	SetAssignee(ctx context.Context, id uuid.UUID, assigneeID *uuid.UUID, assigneeName string) error
	ClearAssignee(ctx context.Context, id uuid.UUID, assigneeID uuid.UUID) error
	SetTotal(ctx context.Context, id uuid.UUID, total int) error

	AddStockAddition(ctx context.Context, addition *model.StockAddition) error
}

type itemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) Create(ctx context.Context, item *model.Item) error {
	return GetDB(ctx, r.db).Create(item).Error
}

// Delete removes an item and its sub-ledgers. Items with reserved stock are kept.
func (r *itemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	res := db.Where("id = ? AND reserved = 0", id).Delete(&model.Item{})
	if err := guarded(res.RowsAffected, res.Error); err != nil {
		return err
	}
	if err := db.Where("item_id = ?", id).Delete(&model.StockAddition{}).Error; err != nil {
		return err
	}
	return db.Where("item_id = ?", id).Delete(&model.AssignmentEntry{}).Error
}

func (r *itemRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	var item model.Item
	if err := GetDB(ctx, r.db).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) FindByIDWithHistory(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	var item model.Item
	if err := GetDB(ctx, r.db).
		Preload("StockAdditions", func(db *gorm.DB) *gorm.DB { return db.Order("added_at ASC") }).
		Preload("AssignmentHistory", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Item, error) {
	var items []model.Item
	if err := GetDB(ctx, r.db).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *itemRepository) FindByIdentity(ctx context.Context, category, name string, isScrap bool) (*model.Item, error) {
	var item model.Item
	if err := GetDB(ctx, r.db).
		Where("category = ? AND name = ? AND is_scrap = ?", category, name, isScrap).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) List(ctx context.Context, page, limit int, search, category string) ([]model.Item, int64, error) {
	var items []model.Item
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Item{})
	if search != "" {
		db = db.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	if category != "" {
		db = db.Where("category = ?", category)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("category ASC, name ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (r *itemRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := GetDB(ctx, r.db).Model(&model.Item{}).Order("created_at ASC").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *itemRepository) update(ctx context.Context, where string, args []interface{}, values map[string]interface{}) error {
	values["updated_at"] = time.Now()
	res := GetDB(ctx, r.db).Model(&model.Item{}).Where(where, args...).Updates(values)
	return guarded(res.RowsAffected, res.Error)
}

// Reserve holds qty units only if quantity-reserved still covers them.
func (r *itemRepository) Reserve(ctx context.Context, id uuid.UUID, qty int) error {
	return r.update(ctx, "id = ? AND quantity - reserved >= ?", []interface{}{id, qty}, map[string]interface{}{
		"reserved": gorm.Expr("reserved + ?", qty),
	})
}

// Release gives back qty reserved units; it never drives reserved below zero.
func (r *itemRepository) Release(ctx context.Context, id uuid.UUID, qty int) error {
	return r.update(ctx, "id = ? AND reserved >= ?", []interface{}{id, qty}, map[string]interface{}{
		"reserved": gorm.Expr("reserved - ?", qty),
	})
}

// Consume turns a reservation into a stock decrement for a fulfilled request.
func (r *itemRepository) Consume(ctx context.Context, id uuid.UUID, qty int, assigneeID uuid.UUID, assigneeName string) error {
	return r.update(ctx, "id = ? AND reserved >= ? AND quantity >= ?", []interface{}{id, qty, qty}, map[string]interface{}{
		"reserved":         gorm.Expr("reserved - ?", qty),
		"quantity":         gorm.Expr("quantity - ?", qty),
		"assigned_to_id":   assigneeID,
		"assigned_to_name": assigneeName,
	})
}

// Withdraw takes unreserved stock for a direct assignment.
func (r *itemRepository) Withdraw(ctx context.Context, id uuid.UUID, qty int, assigneeID uuid.UUID, assigneeName string) error {
	return r.update(ctx, "id = ? AND quantity - reserved >= ?", []interface{}{id, qty}, map[string]interface{}{
		"quantity":         gorm.Expr("quantity - ?", qty),
		"assigned_to_id":   assigneeID,
		"assigned_to_name": assigneeName,
	})
}

// Restock adds received stock to both the on-hand and the lifetime counters.
func (r *itemRepository) Restock(ctx context.Context, id uuid.UUID, qty int) error {
	return r.update(ctx, "id = ?", []interface{}{id}, map[string]interface{}{
		"quantity":       gorm.Expr("quantity + ?", qty),
		"total_quantity": gorm.Expr("total_quantity + ?", qty),
	})
}

// AdjustQuantity moves on-hand stock without touching reserved or total. A negative
// delta may only take stock that is not reserved.
func (r *itemRepository) AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) error {
	if delta < 0 {
		return r.update(ctx, "id = ? AND quantity - reserved >= ?", []interface{}{id, -delta}, map[string]interface{}{
			"quantity": gorm.Expr("quantity - ?", -delta),
		})
	}
	return r.update(ctx, "id = ?", []interface{}{id}, map[string]interface{}{
		"quantity": gorm.Expr("quantity + ?", delta),
	})
}

func (r *itemRepository) SetAssignee(ctx context.Context, id uuid.UUID, assigneeID *uuid.UUID, assigneeName string) error {
	return r.update(ctx, "id = ?", []interface{}{id}, map[string]interface{}{
		"assigned_to_id":   assigneeID,
		"assigned_to_name": assigneeName,
	})
}

// ClearAssignee unsets the assignee only while it is still assigneeID, so two returns
// racing for the same holding cannot both proceed.
func (r *itemRepository) ClearAssignee(ctx context.Context, id uuid.UUID, assigneeID uuid.UUID) error {
	return r.update(ctx, "id = ? AND assigned_to_id = ?", []interface{}{id, assigneeID}, map[string]interface{}{
		"assigned_to_id":   nil,
		"assigned_to_name": "",
	})
}

// SetTotal overwrites the derived lifetime total. Only the consistency auditor calls it.
func (r *itemRepository) SetTotal(ctx context.Context, id uuid.UUID, total int) error {
	return r.update(ctx, "id = ?", []interface{}{id}, map[string]interface{}{
		"total_quantity": total,
	})
}

func (r *itemRepository) AddStockAddition(ctx context.Context, addition *model.StockAddition) error {
	return GetDB(ctx, r.db).Create(addition).Error
}
