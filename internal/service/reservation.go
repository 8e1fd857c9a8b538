package service

import (
	"context"
	"errors"
	"fmt"

	"stockdesk/internal/apperror"
	"stockdesk/internal/repository"

	"github.com/google/uuid"
)

// Line is one (item, quantity) pair of a reservation.
type Line struct {
	ItemID uuid.UUID
	Qty    int
}

// ReservationEngine moves stock in and out of the reserved counter. Both operations
// must run inside a transaction: Reserve reports shortages without undoing earlier
// lines, and it is the caller's rollback that discards them.
type ReservationEngine struct {
	items repository.ItemRepository
}

func NewReservationEngine(items repository.ItemRepository) *ReservationEngine {
	return &ReservationEngine{items: items}
}

// Reserve attempts every line and returns one shortage per line whose guarded
// increment did not apply. A non-nil error means the attempt itself failed.
func (e *ReservationEngine) Reserve(ctx context.Context, lines []Line) ([]apperror.Shortage, error) {
	var shortages []apperror.Shortage
	for _, line := range lines {
		err := e.items.Reserve(ctx, line.ItemID, line.Qty)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrGuardFailed) {
			return nil, err
		}

		item, findErr := e.items.FindByID(ctx, line.ItemID)
		if findErr != nil {
			return nil, notFoundOr(findErr, fmt.Sprintf("Item not found: %s", line.ItemID))
		}
		available := item.Available()
		if available < 0 {
			available = 0
		}
		shortages = append(shortages, apperror.Shortage{
			ItemID:    item.ID.String(),
			ItemName:  item.Name,
			Available: available,
			Requested: line.Qty,
		})
	}
	return shortages, nil
}

// Release returns reserved stock. A line whose reserved counter does not cover the
// release is a bookkeeping fault and is reported as a conflict, never clamped.
func (e *ReservationEngine) Release(ctx context.Context, lines []Line) error {
	for _, line := range lines {
		if err := e.items.Release(ctx, line.ItemID, line.Qty); err != nil {
			if errors.Is(err, repository.ErrGuardFailed) {
				return apperror.Conflict("Reserved stock does not cover the release")
			}
			return err
		}
	}
	return nil
}
