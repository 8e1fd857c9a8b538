package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stockdesk/internal/apperror"
	"stockdesk/internal/auth"
	"stockdesk/internal/model"
	"stockdesk/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs
type CreateItemRequest struct {
	Category        string           `json:"category" binding:"required"`
	Name            string           `json:"name" binding:"required"`
	IsScrap         bool             `json:"is_scrap"`
	Unit            string           `json:"unit"`
	InitialQuantity int              `json:"initial_quantity" binding:"min=0"`
	UnitPrice       *decimal.Decimal `json:"unit_price"`
	Vendor          string           `json:"vendor"`
}

type AddStockRequest struct {
	Quantity  int              `json:"quantity" binding:"required"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
	Note      string           `json:"note"`
	Vendor    string           `json:"vendor"`
}

type DirectAssignRequest struct {
	UserID   string `json:"user_id" binding:"required"`
	UserName string `json:"user_name"`
	Quantity int    `json:"quantity" binding:"required"`
}

type ItemFilter struct {
	Search   string
	Category string
	Page     int
	Limit    int
}

type ItemResponse struct {
	model.Item
	Available int `json:"available"`
}

func toItemResponse(item *model.Item) *ItemResponse {
	return &ItemResponse{Item: *item, Available: item.Available()}
}

// LedgerService manages items and their stock counters outside the request lifecycle.
type LedgerService interface {
	CreateItem(ctx context.Context, p *auth.Principal, req CreateItemRequest) (*ItemResponse, error)
	GetItem(ctx context.Context, p *auth.Principal, id string) (*ItemResponse, error)
	ListItems(ctx context.Context, p *auth.Principal, filter ItemFilter) ([]ItemResponse, int64, error)
	DeleteItem(ctx context.Context, p *auth.Principal, id string) error
	AddStock(ctx context.Context, p *auth.Principal, itemID string, req AddStockRequest) (*ItemResponse, error)
	DirectAssign(ctx context.Context, p *auth.Principal, itemID string, req DirectAssignRequest) (*ItemResponse, error)
	ReturnItem(ctx context.Context, p *auth.Principal, itemID string) (*ItemResponse, error)
	ListAssignments(ctx context.Context, p *auth.Principal, itemID string, page, limit int) ([]model.Assignment, int64, error)
}

type ledgerService struct {
	items       repository.ItemRepository
	history     repository.HistoryRepository
	assignments repository.AssignmentRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
}

func NewLedgerService(
	items repository.ItemRepository,
	history repository.HistoryRepository,
	assignments repository.AssignmentRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) LedgerService {
	return &ledgerService{
		items:       items,
		history:     history,
		assignments: assignments,
		auditRepo:   auditRepo,
		txManager:   txManager,
	}
}

func validatePrice(price *decimal.Decimal) error {
	if price != nil && price.IsNegative() {
		return apperror.InvalidArgument("Unit price must not be negative")
	}
	return nil
}

func nullPrice(price *decimal.Decimal) decimal.NullDecimal {
	if price == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *price, Valid: true}
}

func (s *ledgerService) CreateItem(ctx context.Context, p *auth.Principal, req CreateItemRequest) (*ItemResponse, error) {
	if err := auth.Require(p, auth.RoleAdmin, auth.RoleWarehouse); err != nil {
		return nil, err
	}
	category := strings.TrimSpace(req.Category)
	name := strings.TrimSpace(req.Name)
	if category == "" || name == "" {
		return nil, apperror.InvalidArgument("Category and name are required")
	}
	if req.InitialQuantity < 0 {
		return nil, apperror.InvalidArgument("Initial quantity must not be negative")
	}
	if err := validatePrice(req.UnitPrice); err != nil {
		return nil, err
	}

	var created *model.Item
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		_, err := s.items.FindByIdentity(txCtx, category, name, req.IsScrap)
		if err == nil {
			return apperror.Conflict("Item already exists")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		item := &model.Item{
			Category:      category,
			Name:          name,
			IsScrap:       req.IsScrap,
			Unit:          req.Unit,
			Quantity:      req.InitialQuantity,
			TotalQuantity: req.InitialQuantity,
		}
		if err := s.items.Create(txCtx, item); err != nil {
			return fmt.Errorf("failed to create item: %w", err)
		}

		if req.InitialQuantity > 0 {
			if err := s.items.AddStockAddition(txCtx, &model.StockAddition{
				ItemID:      item.ID,
				Quantity:    req.InitialQuantity,
				UnitPrice:   nullPrice(req.UnitPrice),
				Note:        "Initial stock",
				Vendor:      req.Vendor,
				AddedByID:   p.ID,
				AddedByName: p.Name,
				AddedAt:     time.Now(),
			}); err != nil {
				return fmt.Errorf("failed to record initial stock: %w", err)
			}
		}

		if err := writeAudit(txCtx, s.auditRepo, p, model.ActionCreateItem, item.ID.String(), item.Name, req); err != nil {
			return err
		}

		created, err = s.items.FindByIDWithHistory(txCtx, item.ID)
		return err
	})
	if err != nil {
		return nil, storeError(err)
	}
	return toItemResponse(created), nil
}

func (s *ledgerService) GetItem(ctx context.Context, p *auth.Principal, id string) (*ItemResponse, error) {
	if err := auth.Require(p); err != nil {
		return nil, err
	}
	itemID, err := parseID(id, "item")
	if err != nil {
		return nil, err
	}
	item, err := s.items.FindByIDWithHistory(ctx, itemID)
	if err != nil {
		return nil, storeError(notFoundOr(err, "Item not found"))
	}
	return toItemResponse(item), nil
}

func (s *ledgerService) ListItems(ctx context.Context, p *auth.Principal, filter ItemFilter) ([]ItemResponse, int64, error) {
	if err := auth.Require(p); err != nil {
		return nil, 0, err
	}
	page, limit := normalizePage(filter.Page, filter.Limit)

	items, total, err := s.items.List(ctx, page, limit, filter.Search, filter.Category)
	if err != nil {
		return nil, 0, storeError(err)
	}

	res := make([]ItemResponse, 0, len(items))
	for i := range items {
		res = append(res, *toItemResponse(&items[i]))
	}
	return res, total, nil
}

// DeleteItem removes an item that holds no reserved stock.
func (s *ledgerService) DeleteItem(ctx context.Context, p *auth.Principal, id string) error {
	if err := auth.Require(p, auth.RoleAdmin); err != nil {
		return err
	}
	itemID, err := parseID(id, "item")
	if err != nil {
		return err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		item, err := s.items.FindByID(txCtx, itemID)
		if err != nil {
			return notFoundOr(err, "Item not found")
		}
		if err := s.items.Delete(txCtx, itemID); err != nil {
			if errors.Is(err, repository.ErrGuardFailed) {
				return apperror.Conflict("Item has reserved stock")
			}
			return err
		}
		return writeAudit(txCtx, s.auditRepo, p, model.ActionDeleteItem, item.ID.String(), item.Name, map[string]interface{}{
			"quantity":       item.Quantity,
			"total_quantity": item.TotalQuantity,
		})
	})
	return storeError(err)
}

// AddStock receives qty units into an item, raising both on-hand and lifetime totals.
func (s *ledgerService) AddStock(ctx context.Context, p *auth.Principal, itemID string, req AddStockRequest) (*ItemResponse, error) {
	if err := auth.Require(p); err != nil {
		return nil, err
	}
	id, err := parseID(itemID, "item")
	if err != nil {
		return nil, err
	}
	if req.Quantity <= 0 {
		return nil, apperror.InvalidArgument("Quantity must be a positive integer")
	}
	if err := validatePrice(req.UnitPrice); err != nil {
		return nil, err
	}

	var updated *model.Item
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.items.Restock(txCtx, id, req.Quantity); err != nil {
			if errors.Is(err, repository.ErrGuardFailed) {
				return apperror.NotFound("Item not found")
			}
			return err
		}

		if err := s.items.AddStockAddition(txCtx, &model.StockAddition{
			ItemID:      id,
			Quantity:    req.Quantity,
			UnitPrice:   nullPrice(req.UnitPrice),
			Note:        req.Note,
			Vendor:      req.Vendor,
			AddedByID:   p.ID,
			AddedByName: p.Name,
			AddedAt:     time.Now(),
		}); err != nil {
			return fmt.Errorf("failed to record stock addition: %w", err)
		}

		updated, err = s.items.FindByIDWithHistory(txCtx, id)
		if err != nil {
			return err
		}
		return writeAudit(txCtx, s.auditRepo, p, model.ActionAddStock, id.String(), updated.Name, req)
	})
	if err != nil {
		return nil, storeError(err)
	}
	return toItemResponse(updated), nil
}

// DirectAssign hands unreserved stock straight to a user without a request.
func (s *ledgerService) DirectAssign(ctx context.Context, p *auth.Principal, itemID string, req DirectAssignRequest) (*ItemResponse, error) {
	if err := auth.Require(p, auth.RoleAdmin); err != nil {
		return nil, err
	}
	id, err := parseID(itemID, "item")
	if err != nil {
		return nil, err
	}
	userID, err := parseID(req.UserID, "user")
	if err != nil {
		return nil, err
	}
	if req.Quantity <= 0 {
		return nil, apperror.InvalidArgument("Quantity must be a positive integer")
	}

	var updated *model.Item
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		item, err := s.items.FindByID(txCtx, id)
		if err != nil {
			return notFoundOr(err, "Item not found")
		}

		if err := s.items.Withdraw(txCtx, id, req.Quantity, userID, req.UserName); err != nil {
			if errors.Is(err, repository.ErrGuardFailed) {
				return apperror.InvalidArgument(fmt.Sprintf("Only %d unit(s) available", max(item.Available(), 0)))
			}
			return err
		}

		now := time.Now()
		if err := s.history.Append(txCtx, &model.AssignmentEntry{
			ItemID:          id,
			UserID:          userID,
			UserName:        req.UserName,
			PerformedByID:   p.ID,
			PerformedByName: p.Name,
			Action:          model.ActionAssigned,
			Quantity:        req.Quantity,
			AssignedAt:      &now,
		}); err != nil {
			return fmt.Errorf("failed to append assignment history: %w", err)
		}

		if err := writeAudit(txCtx, s.auditRepo, p, model.ActionDirectAssign, id.String(), item.Name, req); err != nil {
			return err
		}

		updated, err = s.items.FindByIDWithHistory(txCtx, id)
		return err
	})
	if err != nil {
		return nil, storeError(err)
	}
	return toItemResponse(updated), nil
}

// ReturnItem takes back everything the current assignee still holds and clears the
// assignee pointer. The returned units go back on hand.
func (s *ledgerService) ReturnItem(ctx context.Context, p *auth.Principal, itemID string) (*ItemResponse, error) {
	if err := auth.Require(p); err != nil {
		return nil, err
	}
	id, err := parseID(itemID, "item")
	if err != nil {
		return nil, err
	}

	var updated *model.Item
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		item, err := s.items.FindByID(txCtx, id)
		if err != nil {
			return notFoundOr(err, "Item not found")
		}
		if item.AssignedToID == nil {
			return apperror.InvalidArgument("Item is not assigned")
		}
		assignee := *item.AssignedToID

		// Claim the holding before touching stock. A guard miss means another return or a
		// reassignment committed since the read.
		if err := s.items.ClearAssignee(txCtx, id, assignee); err != nil {
			if errors.Is(err, repository.ErrGuardFailed) {
				return apperror.Conflict("Item was returned by another operation")
			}
			return err
		}

		outstanding, err := s.history.Outstanding(txCtx, id, &assignee)
		if err != nil {
			return err
		}
		if outstanding < 0 {
			outstanding = 0
		}
		if outstanding > 0 {
			if err := s.items.AdjustQuantity(txCtx, id, outstanding); err != nil {
				return err
			}
		}

		now := time.Now()
		if err := s.history.Append(txCtx, &model.AssignmentEntry{
			ItemID:          id,
			UserID:          assignee,
			UserName:        item.AssignedToName,
			PerformedByID:   p.ID,
			PerformedByName: p.Name,
			Action:          model.ActionReturned,
			Quantity:        outstanding,
			ReturnedAt:      &now,
		}); err != nil {
			return fmt.Errorf("failed to append return history: %w", err)
		}

		if err := writeAudit(txCtx, s.auditRepo, p, model.ActionReturnItem, id.String(), item.Name, map[string]interface{}{
			"user_id":  assignee.String(),
			"quantity": outstanding,
		}); err != nil {
			return err
		}

		updated, err = s.items.FindByIDWithHistory(txCtx, id)
		return err
	})
	if err != nil {
		return nil, storeError(err)
	}
	return toItemResponse(updated), nil
}

func (s *ledgerService) ListAssignments(ctx context.Context, p *auth.Principal, itemID string, page, limit int) ([]model.Assignment, int64, error) {
	if err := auth.Require(p); err != nil {
		return nil, 0, err
	}
	var filter *uuid.UUID
	if itemID != "" {
		id, err := parseID(itemID, "item")
		if err != nil {
			return nil, 0, err
		}
		filter = &id
	}
	page, limit = normalizePage(page, limit)

	out, total, err := s.assignments.List(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, storeError(err)
	}
	return out, total, nil
}
