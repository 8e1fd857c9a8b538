package service

import (
	"context"
	"testing"

	"stockdesk/internal/apperror"
	"stockdesk/internal/model"
	"stockdesk/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	price := decimal.RequireFromString("4.50")

	item, err := f.ledger.CreateItem(ctx, f.warehouse, CreateItemRequest{
		Category:        " Cables ",
		Name:            "HDMI 2m",
		Unit:            "pcs",
		InitialQuantity: 12,
		UnitPrice:       &price,
	})
	require.NoError(t, err)
	assert.Equal(t, "Cables", item.Category)
	assert.Equal(t, 12, item.Quantity)
	assert.Equal(t, 12, item.TotalQuantity)
	assert.Equal(t, 12, item.Available)
	require.Len(t, item.StockAdditions, 1)
	assert.True(t, item.StockAdditions[0].UnitPrice.Valid)
	assert.True(t, price.Equal(item.StockAdditions[0].UnitPrice.Decimal))

	_, err = f.ledger.CreateItem(ctx, f.admin, CreateItemRequest{Category: "Cables", Name: "HDMI 2m"})
	requireKind(t, err, apperror.KindConflict)

	scrap, err := f.ledger.CreateItem(ctx, f.admin, CreateItemRequest{Category: "Cables", Name: "HDMI 2m", IsScrap: true})
	require.NoError(t, err)
	assert.Empty(t, scrap.StockAdditions)

	_, err = f.ledger.CreateItem(ctx, f.alice, CreateItemRequest{Category: "Cables", Name: "USB"})
	requireKind(t, err, apperror.KindForbidden)
	_, err = f.ledger.CreateItem(ctx, f.admin, CreateItemRequest{Category: "Cables", Name: "  "})
	requireKind(t, err, apperror.KindInvalidArgument)
}

func TestAddStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	widget := f.item(t, "Widget", 5)
	price := decimal.RequireFromString("2.25")

	updated, err := f.ledger.AddStock(ctx, f.alice, widget.ID.String(), AddStockRequest{
		Quantity:  7,
		UnitPrice: &price,
		Note:      "restock",
		Vendor:    "Acme",
	})
	require.NoError(t, err)
	assert.Equal(t, 12, updated.Quantity)
	assert.Equal(t, 12, updated.TotalQuantity)
	require.Len(t, updated.StockAdditions, 2)
	last := updated.StockAdditions[1]
	assert.Equal(t, 7, last.Quantity)
	assert.Equal(t, "Acme", last.Vendor)
	assert.Equal(t, f.alice.ID, last.AddedByID)

	_, err = f.ledger.AddStock(ctx, f.alice, widget.ID.String(), AddStockRequest{Quantity: 0})
	requireKind(t, err, apperror.KindInvalidArgument)
	_, err = f.ledger.AddStock(ctx, f.alice, widget.ID.String(), AddStockRequest{Quantity: -3})
	requireKind(t, err, apperror.KindInvalidArgument)
	negative := decimal.NewFromInt(-1)
	_, err = f.ledger.AddStock(ctx, f.alice, widget.ID.String(), AddStockRequest{Quantity: 1, UnitPrice: &negative})
	requireKind(t, err, apperror.KindInvalidArgument)
	_, err = f.ledger.AddStock(ctx, f.alice, uuid.New().String(), AddStockRequest{Quantity: 1})
	requireKind(t, err, apperror.KindNotFound)
	_, err = f.ledger.AddStock(ctx, nil, widget.ID.String(), AddStockRequest{Quantity: 1})
	requireKind(t, err, apperror.KindUnauthorized)

	assert.Equal(t, 12, f.reload(t, widget.ID).Quantity)
}

func TestDirectAssignCannotTakeReservedStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	widget := f.item(t, "Widget", 10)
	f.submit(t, f.bob, line(widget.ID, 8))

	_, err := f.ledger.DirectAssign(ctx, f.admin, widget.ID.String(), DirectAssignRequest{
		UserID: f.alice.ID.String(), UserName: "Alice", Quantity: 3,
	})
	requireKind(t, err, apperror.KindInvalidArgument)

	updated, err := f.ledger.DirectAssign(ctx, f.admin, widget.ID.String(), DirectAssignRequest{
		UserID: f.alice.ID.String(), UserName: "Alice", Quantity: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 8, updated.Quantity)
	assert.Equal(t, 8, updated.Reserved)
	assert.Equal(t, 0, updated.Available)
	assert.Equal(t, 10, updated.TotalQuantity)
	require.NotNil(t, updated.AssignedToID)
	assert.Equal(t, f.alice.ID, *updated.AssignedToID)
	require.Len(t, updated.AssignmentHistory, 1)
	assert.Equal(t, model.ActionAssigned, updated.AssignmentHistory[0].Action)
	assert.Nil(t, updated.AssignmentHistory[0].RequestID)

	// no immutable assignment record for the shortcut path
	assert.Zero(t, f.count(t, &model.Assignment{}))
}

func TestDirectAssignChecks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	widget := f.item(t, "Widget", 10)
	req := DirectAssignRequest{UserID: f.alice.ID.String(), Quantity: 1}

	_, err := f.ledger.DirectAssign(ctx, f.warehouse, widget.ID.String(), req)
	requireKind(t, err, apperror.KindForbidden)
	_, err = f.ledger.DirectAssign(ctx, f.admin, uuid.New().String(), req)
	requireKind(t, err, apperror.KindNotFound)
	_, err = f.ledger.DirectAssign(ctx, f.admin, widget.ID.String(), DirectAssignRequest{UserID: "x", Quantity: 1})
	requireKind(t, err, apperror.KindInvalidArgument)
	_, err = f.ledger.DirectAssign(ctx, f.admin, widget.ID.String(), DirectAssignRequest{UserID: f.alice.ID.String(), Quantity: 0})
	requireKind(t, err, apperror.KindInvalidArgument)
}

func TestReturnItemRestoresOutstandingQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	widget := f.item(t, "Widget", 10)

	_, err := f.ledger.DirectAssign(ctx, f.admin, widget.ID.String(), DirectAssignRequest{
		UserID: f.alice.ID.String(), UserName: "Alice", Quantity: 2,
	})
	require.NoError(t, err)

	returned, err := f.ledger.ReturnItem(ctx, f.alice, widget.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 10, returned.Quantity)
	assert.Equal(t, 10, returned.TotalQuantity)
	assert.Nil(t, returned.AssignedToID)
	require.Len(t, returned.AssignmentHistory, 2)
	entry := returned.AssignmentHistory[1]
	assert.Equal(t, model.ActionReturned, entry.Action)
	assert.Equal(t, 2, entry.Quantity)
	assert.Equal(t, f.alice.ID, entry.UserID)
	assert.NotNil(t, entry.ReturnedAt)

	_, err = f.ledger.ReturnItem(ctx, f.alice, widget.ID.String())
	requireKind(t, err, apperror.KindInvalidArgument)
	_, err = f.ledger.ReturnItem(ctx, f.alice, uuid.New().String())
	requireKind(t, err, apperror.KindNotFound)
}

// staleItems serves a fixed snapshot of one item from FindByID, the view a transaction
// holds when another one commits between its read and its writes.
type staleItems struct {
	repository.ItemRepository
	snapshot model.Item
}

func (s *staleItems) FindByID(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	if id == s.snapshot.ID {
		item := s.snapshot
		return &item, nil
	}
	return s.ItemRepository.FindByID(ctx, id)
}

func TestReturnItemFromStaleReadDoesNotRestockTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	widget := f.item(t, "Widget", 10)

	_, err := f.ledger.DirectAssign(ctx, f.admin, widget.ID.String(), DirectAssignRequest{
		UserID: f.alice.ID.String(), UserName: "Alice", Quantity: 4,
	})
	require.NoError(t, err)
	snapshot := *f.reload(t, widget.ID)
	require.NotNil(t, snapshot.AssignedToID)

	late := NewLedgerService(&staleItems{ItemRepository: f.items, snapshot: snapshot}, f.history, f.assignments, f.auditRepo, f.tx)

	_, err = f.ledger.ReturnItem(ctx, f.alice, widget.ID.String())
	require.NoError(t, err)

	_, err = late.ReturnItem(ctx, f.alice, widget.ID.String())
	requireKind(t, err, apperror.KindConflict)

	item, err := f.ledger.GetItem(ctx, f.admin, widget.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 10, item.Quantity)
	assert.Equal(t, 10, item.Available)
	assert.Equal(t, 10, item.TotalQuantity)
	require.Len(t, item.AssignmentHistory, 2)
	assert.Equal(t, model.ActionReturned, item.AssignmentHistory[1].Action)

	// the holding moved to someone else before the late return wrote anything
	_, err = f.ledger.DirectAssign(ctx, f.admin, widget.ID.String(), DirectAssignRequest{
		UserID: f.bob.ID.String(), UserName: "Bob", Quantity: 3,
	})
	require.NoError(t, err)

	_, err = late.ReturnItem(ctx, f.alice, widget.ID.String())
	requireKind(t, err, apperror.KindConflict)

	held := f.reload(t, widget.ID)
	assert.Equal(t, 7, held.Quantity)
	require.NotNil(t, held.AssignedToID)
	assert.Equal(t, f.bob.ID, *held.AssignedToID)
}

func TestReturnAfterFulfillment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	widget := f.item(t, "Widget", 10)
	req := f.submit(t, f.alice, line(widget.ID, 4))
	_, err := f.requests.Approve(ctx, f.admin, req.ID.String())
	require.NoError(t, err)
	_, err = f.requests.Fulfill(ctx, f.warehouse, req.ID.String(), "")
	require.NoError(t, err)

	returned, err := f.ledger.ReturnItem(ctx, f.warehouse, widget.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 10, returned.Quantity)
	assert.Equal(t, 0, returned.Reserved)
	assert.Equal(t, 10, returned.TotalQuantity)

	// the immutable trail is unaffected by the return
	assert.Equal(t, int64(1), f.count(t, &model.Assignment{}))
}

func TestDeleteItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	widget := f.item(t, "Widget", 10)
	req := f.submit(t, f.alice, line(widget.ID, 1))

	err := f.ledger.DeleteItem(ctx, f.admin, widget.ID.String())
	requireKind(t, err, apperror.KindConflict)

	_, err = f.requests.Reject(ctx, f.admin, req.ID.String(), "")
	require.NoError(t, err)

	err = f.ledger.DeleteItem(ctx, f.alice, widget.ID.String())
	requireKind(t, err, apperror.KindForbidden)

	require.NoError(t, f.ledger.DeleteItem(ctx, f.admin, widget.ID.String()))
	_, err = f.ledger.GetItem(ctx, f.admin, widget.ID.String())
	requireKind(t, err, apperror.KindNotFound)
	assert.Zero(t, f.count(t, &model.StockAddition{}))

	err = f.ledger.DeleteItem(ctx, f.admin, widget.ID.String())
	requireKind(t, err, apperror.KindNotFound)
}

func TestListItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.item(t, "Hammer", 1)
	f.item(t, "Hand saw", 1)
	_, err := f.ledger.CreateItem(ctx, f.admin, CreateItemRequest{Category: "Paint", Name: "Primer"})
	require.NoError(t, err)

	items, total, err := f.ledger.ListItems(ctx, f.alice, ItemFilter{Search: "HA"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 2)
	assert.Equal(t, "Hammer", items[0].Name)

	_, total, err = f.ledger.ListItems(ctx, f.alice, ItemFilter{Category: "Paint"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	page, total, err := f.ledger.ListItems(ctx, f.alice, ItemFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, page, 1)
}
