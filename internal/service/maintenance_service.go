package service

import (
	"context"
	"errors"
	"fmt"

	"stockdesk/internal/apperror"
	"stockdesk/internal/auth"
	"stockdesk/internal/model"
	"stockdesk/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ReconcileResult struct {
	Checked   int `json:"checked"`
	Corrected int `json:"corrected"`
	Failed    int `json:"failed"`
}

// MaintenanceService holds manual correction operations. They are kept apart from the
// request lifecycle and are never called by it.
type MaintenanceService interface {
	DeleteAssignmentEntry(ctx context.Context, p *auth.Principal, itemID, entryID string) (*ItemResponse, error)
	// ReconcileTotals accepts a nil principal when run by the maintenance binary.
	ReconcileTotals(ctx context.Context, p *auth.Principal) (*ReconcileResult, error)
}

type maintenanceService struct {
	items     repository.ItemRepository
	history   repository.HistoryRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	log       *zap.Logger
}

func NewMaintenanceService(
	items repository.ItemRepository,
	history repository.HistoryRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	log *zap.Logger,
) MaintenanceService {
	return &maintenanceService{
		items:     items,
		history:   history,
		auditRepo: auditRepo,
		txManager: txManager,
		log:       log,
	}
}

// DeleteAssignmentEntry removes one history entry and reverses its effect on quantity.
// reserved and totalQuantity are left alone.
func (s *maintenanceService) DeleteAssignmentEntry(ctx context.Context, p *auth.Principal, itemID, entryID string) (*ItemResponse, error) {
	if err := auth.Require(p); err != nil {
		return nil, err
	}
	iid, err := parseID(itemID, "item")
	if err != nil {
		return nil, err
	}
	eid, err := parseID(entryID, "history entry")
	if err != nil {
		return nil, err
	}

	var updated *model.Item
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		item, err := s.items.FindByID(txCtx, iid)
		if err != nil {
			return notFoundOr(err, "Item not found")
		}
		entry, err := s.history.FindEntry(txCtx, iid, eid)
		if err != nil {
			return notFoundOr(err, "History entry not found")
		}

		delta := entry.Quantity
		if entry.Action == model.ActionReturned {
			delta = -delta
		}
		if delta != 0 {
			if err := s.items.AdjustQuantity(txCtx, iid, delta); err != nil {
				if errors.Is(err, repository.ErrGuardFailed) {
					return apperror.Conflict("Not enough available stock to reverse the return")
				}
				return err
			}
		}

		if err := s.history.DeleteEntry(txCtx, eid); err != nil {
			if errors.Is(err, repository.ErrGuardFailed) {
				return apperror.NotFound("History entry not found")
			}
			return err
		}

		latest, err := s.history.LatestAssigned(txCtx, iid)
		switch {
		case err == nil:
			uid := latest.UserID
			err = s.items.SetAssignee(txCtx, iid, &uid, latest.UserName)
		case errors.Is(err, gorm.ErrRecordNotFound):
			err = s.items.SetAssignee(txCtx, iid, nil, "")
		}
		if err != nil {
			return err
		}

		if err := writeAudit(txCtx, s.auditRepo, p, model.ActionDeleteAssignmentEntry, iid.String(), item.Name, map[string]interface{}{
			"entry_id": eid.String(),
			"action":   entry.Action,
			"quantity": entry.Quantity,
			"user_id":  entry.UserID.String(),
		}); err != nil {
			return err
		}

		updated, err = s.items.FindByIDWithHistory(txCtx, iid)
		return err
	})
	if err != nil {
		return nil, storeError(err)
	}
	return toItemResponse(updated), nil
}

// ReconcileTotals recomputes totalQuantity for every item, one transaction per item.
// A failing item is logged and counted; the rest of the batch still runs.
func (s *maintenanceService) ReconcileTotals(ctx context.Context, p *auth.Principal) (*ReconcileResult, error) {
	ids, err := s.items.ListIDs(ctx)
	if err != nil {
		return nil, storeError(err)
	}

	res := &ReconcileResult{}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return res, apperror.Unavailable("Reconciliation interrupted", err)
		}
		res.Checked++

		corrected, err := s.reconcileItem(ctx, p, id)
		if err != nil {
			res.Failed++
			s.log.Warn("reconcile item failed", zap.String("item_id", id.String()), zap.Error(err))
			continue
		}
		if corrected {
			res.Corrected++
		}
	}

	s.log.Info("reconcile totals finished",
		zap.Int("checked", res.Checked),
		zap.Int("corrected", res.Corrected),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}

func (s *maintenanceService) reconcileItem(ctx context.Context, p *auth.Principal, id uuid.UUID) (bool, error) {
	corrected := false
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		item, err := s.items.FindByID(txCtx, id)
		if err != nil {
			// deleted since ListIDs
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		net, err := s.history.Outstanding(txCtx, id, nil)
		if err != nil {
			return err
		}
		expected := item.Quantity + max(net, 0)
		if expected == item.TotalQuantity {
			return nil
		}

		if err := s.items.SetTotal(txCtx, id, expected); err != nil {
			return fmt.Errorf("failed to set total: %w", err)
		}
		corrected = true
		return writeAudit(txCtx, s.auditRepo, p, model.ActionReconcileTotal, id.String(), item.Name, map[string]interface{}{
			"previous": item.TotalQuantity,
			"expected": expected,
		})
	})
	return corrected, err
}
