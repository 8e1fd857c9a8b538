package service

import (
	"context"
	"time"

	"stockdesk/internal/apperror"
	"stockdesk/internal/auth"
	"stockdesk/internal/model"
	"stockdesk/internal/repository"

	"github.com/google/uuid"
)

type RecordCountRequest struct {
	CountedQty *int   `json:"counted_qty" binding:"required"`
	Department string `json:"department"`
	Notes      string `json:"notes"`
}

// StockCountService records physical counts against the ledger. A count never
// changes the item counters.
type StockCountService interface {
	RecordCount(ctx context.Context, p *auth.Principal, itemID string, req RecordCountRequest) (*model.Reconciliation, error)
	ListReconciliations(ctx context.Context, p *auth.Principal, itemID string, page, limit int) ([]model.Reconciliation, int64, error)
}

type stockCountService struct {
	items     repository.ItemRepository
	recs      repository.ReconciliationRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
}

func NewStockCountService(
	items repository.ItemRepository,
	recs repository.ReconciliationRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) StockCountService {
	return &stockCountService{items: items, recs: recs, auditRepo: auditRepo, txManager: txManager}
}

func (s *stockCountService) RecordCount(ctx context.Context, p *auth.Principal, itemID string, req RecordCountRequest) (*model.Reconciliation, error) {
	if err := auth.Require(p, auth.RoleAdmin, auth.RoleWarehouse); err != nil {
		return nil, err
	}
	id, err := parseID(itemID, "item")
	if err != nil {
		return nil, err
	}
	if req.CountedQty == nil || *req.CountedQty < 0 {
		return nil, apperror.InvalidArgument("Counted quantity must not be negative")
	}

	var rec *model.Reconciliation
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		item, err := s.items.FindByID(txCtx, id)
		if err != nil {
			return notFoundOr(err, "Item not found")
		}

		rec = &model.Reconciliation{
			ItemID:        item.ID,
			ItemName:      item.Name,
			CountedQty:    *req.CountedQty,
			SystemQty:     item.Quantity,
			Delta:         *req.CountedQty - item.Quantity,
			Department:    req.Department,
			CountedAt:     time.Now(),
			CountedByID:   p.ID,
			CountedByName: p.Name,
			Notes:         req.Notes,
		}
		if err := s.recs.Create(txCtx, rec); err != nil {
			return err
		}
		return writeAudit(txCtx, s.auditRepo, p, model.ActionRecordCount, item.ID.String(), item.Name, map[string]interface{}{
			"counted_qty": rec.CountedQty,
			"system_qty":  rec.SystemQty,
			"delta":       rec.Delta,
		})
	})
	if err != nil {
		return nil, storeError(err)
	}
	return rec, nil
}

func (s *stockCountService) ListReconciliations(ctx context.Context, p *auth.Principal, itemID string, page, limit int) ([]model.Reconciliation, int64, error) {
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

	recs, total, err := s.recs.List(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, storeError(err)
	}
	return recs, total, nil
}
