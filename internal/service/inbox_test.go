package service

import (
	"context"
	"testing"

	"stockdesk/internal/apperror"
	"stockdesk/internal/auth"
	"stockdesk/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationInbox(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	widget := f.item(t, "Widget", 10)
	req := f.submit(t, f.alice, line(widget.ID, 1))
	_, err := f.requests.Approve(ctx, f.admin, req.ID.String())
	require.NoError(t, err)

	adminInbox, total, err := f.notifications.List(ctx, f.admin, false, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, model.NotificationRequestSubmitted, adminInbox[0].Type)

	whInbox, _, err := f.notifications.List(ctx, f.warehouse, false, 1, 20)
	require.NoError(t, err)
	require.Len(t, whInbox, 1)
	assert.Equal(t, model.NotificationReadyToFulfill, whInbox[0].Type)

	aliceInbox, _, err := f.notifications.List(ctx, f.alice, true, 1, 20)
	require.NoError(t, err)
	require.Len(t, aliceInbox, 1)
	assert.Equal(t, model.NotificationRequestApproved, aliceInbox[0].Type)

	bobInbox, total, err := f.notifications.List(ctx, f.bob, false, 1, 20)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, bobInbox)

	err = f.notifications.MarkRead(ctx, f.bob, aliceInbox[0].ID.String())
	requireKind(t, err, apperror.KindNotFound)

	require.NoError(t, f.notifications.MarkRead(ctx, f.alice, aliceInbox[0].ID.String()))
	_, total, err = f.notifications.List(ctx, f.alice, true, 1, 20)
	require.NoError(t, err)
	assert.Zero(t, total)

	// a role notification is one shared row: any admin handling it clears it for all
	otherAdmin := &auth.Principal{ID: uuid.New(), Name: "Second Admin", Role: auth.RoleAdmin}
	require.NoError(t, f.notifications.MarkRead(ctx, otherAdmin, adminInbox[0].ID.String()))
	_, total, err = f.notifications.List(ctx, f.admin, true, 1, 20)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestStockCounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	widget := f.item(t, "Widget", 10)

	rec, err := f.counts.RecordCount(ctx, f.warehouse, widget.ID.String(), RecordCountRequest{
		CountedQty: intPtr(7),
		Department: "Stores",
		Notes:      "shelf B",
	})
	require.NoError(t, err)
	assert.Equal(t, 7, rec.CountedQty)
	assert.Equal(t, 10, rec.SystemQty)
	assert.Equal(t, -3, rec.Delta)
	assert.Equal(t, "Widget", rec.ItemName)

	// a count records, it does not adjust
	assert.Equal(t, 10, f.reload(t, widget.ID).Quantity)

	_, err = f.counts.RecordCount(ctx, f.alice, widget.ID.String(), RecordCountRequest{CountedQty: intPtr(1)})
	requireKind(t, err, apperror.KindForbidden)
	_, err = f.counts.RecordCount(ctx, f.admin, widget.ID.String(), RecordCountRequest{CountedQty: intPtr(-1)})
	requireKind(t, err, apperror.KindInvalidArgument)
	_, err = f.counts.RecordCount(ctx, f.admin, widget.ID.String(), RecordCountRequest{})
	requireKind(t, err, apperror.KindInvalidArgument)

	recs, total, err := f.counts.ListReconciliations(ctx, f.alice, widget.ID.String(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, rec.ID, recs[0].ID)
}

func TestReports(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	widget := f.item(t, "Widget", 10)
	f.item(t, "Gadget", 4)
	price := decimal.RequireFromString("1.50")
	_, err := f.ledger.AddStock(ctx, f.admin, widget.ID.String(), AddStockRequest{Quantity: 2, UnitPrice: &price})
	require.NoError(t, err)

	req := f.submit(t, f.alice, line(widget.ID, 3))
	_, err = f.requests.Approve(ctx, f.admin, req.ID.String())
	require.NoError(t, err)
	_, err = f.requests.Fulfill(ctx, f.warehouse, req.ID.String(), "")
	require.NoError(t, err)
	f.submit(t, f.bob, line(widget.ID, 1))

	summary, err := f.reports.CategorySummary(ctx, f.admin)
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.Equal(t, "Tools", summary[0].Category)
	assert.Equal(t, 2, summary[0].Items)
	assert.Equal(t, 13, summary[0].Quantity)
	assert.Equal(t, 1, summary[0].Reserved)
	assert.Equal(t, 12, summary[0].Available)
	assert.Equal(t, "13.5", summary[0].StockValue.String())

	// the newest priced addition sets the price; unpriced additions do not reset it
	newer := decimal.RequireFromString("2.00")
	_, err = f.ledger.AddStock(ctx, f.admin, widget.ID.String(), AddStockRequest{Quantity: 1, UnitPrice: &newer})
	require.NoError(t, err)
	_, err = f.ledger.AddStock(ctx, f.admin, widget.ID.String(), AddStockRequest{Quantity: 1})
	require.NoError(t, err)

	summary, err = f.reports.CategorySummary(ctx, f.admin)
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.Equal(t, 15, summary[0].Quantity)
	assert.True(t, decimal.NewFromInt(22).Equal(summary[0].StockValue), "got %s", summary[0].StockValue)

	top, err := f.reports.TopRequestedItems(ctx, f.warehouse, "", "", 5)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, widget.ID.String(), top[0].ItemID)
	assert.Equal(t, 3, top[0].TotalQuantity)
	assert.Equal(t, 1, top[0].Requests)

	_, err = f.reports.CategorySummary(ctx, f.alice)
	requireKind(t, err, apperror.KindForbidden)
	_, err = f.reports.TopRequestedItems(ctx, f.admin, "2024-13-01", "", 5)
	requireKind(t, err, apperror.KindInvalidArgument)
	_, err = f.reports.TopRequestedItems(ctx, f.admin, "2024-05-02", "2024-05-01", 5)
	requireKind(t, err, apperror.KindInvalidArgument)
}

func TestAuditLogsAreAdminOnly(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.audit.GetAuditLogs(context.Background(), f.warehouse, "", 1, 10)
	requireKind(t, err, apperror.KindForbidden)
}

func intPtr(v int) *int { return &v }
