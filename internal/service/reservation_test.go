package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"stockdesk/internal/apperror"
	"stockdesk/internal/database"
	"stockdesk/internal/model"
	"stockdesk/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedItem(t *testing.T, items repository.ItemRepository, name string, qty, reserved int) *model.Item {
	t.Helper()
	item := &model.Item{Category: "Parts", Name: name, Quantity: qty, Reserved: reserved, TotalQuantity: qty}
	require.NoError(t, items.Create(context.Background(), item))
	return item
}

func TestReserveReportsEveryShortLine(t *testing.T) {
	db := database.NewTestDB(t)
	items := repository.NewItemRepository(db)
	tx := repository.NewTransactionManager(db, time.Second)
	engine := NewReservationEngine(items)

	a := seedItem(t, items, "A", 10, 0)
	b := seedItem(t, items, "B", 3, 1)
	c := seedItem(t, items, "C", 1, 0)

	errShort := errors.New("short")
	var shortages []apperror.Shortage
	err := tx.RunInTx(context.Background(), func(txCtx context.Context) error {
		var err error
		shortages, err = engine.Reserve(txCtx, []Line{{a.ID, 5}, {b.ID, 3}, {c.ID, 2}})
		if err != nil {
			return err
		}
		if len(shortages) > 0 {
			return errShort
		}
		return nil
	})
	require.ErrorIs(t, err, errShort)

	require.Len(t, shortages, 2)
	assert.Equal(t, apperror.Shortage{ItemID: b.ID.String(), ItemName: "B", Available: 2, Requested: 3}, shortages[0])
	assert.Equal(t, apperror.Shortage{ItemID: c.ID.String(), ItemName: "C", Available: 1, Requested: 2}, shortages[1])

	// the rollback discarded the line that did fit
	got, err := items.FindByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Reserved)
}

func TestReserveUnknownItem(t *testing.T) {
	db := database.NewTestDB(t)
	engine := NewReservationEngine(repository.NewItemRepository(db))

	_, err := engine.Reserve(context.Background(), []Line{{uuid.New(), 1}})
	requireKind(t, err, apperror.KindNotFound)
}

func TestReleaseNeverClamps(t *testing.T) {
	db := database.NewTestDB(t)
	items := repository.NewItemRepository(db)
	engine := NewReservationEngine(items)
	item := seedItem(t, items, "A", 10, 2)

	err := engine.Release(context.Background(), []Line{{item.ID, 3}})
	requireKind(t, err, apperror.KindConflict)

	got, err := items.FindByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Reserved)

	require.NoError(t, engine.Release(context.Background(), []Line{{item.ID, 2}}))
	got, err = items.FindByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Reserved)
}
