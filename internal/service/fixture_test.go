package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"stockdesk/internal/apperror"
	"stockdesk/internal/auth"
	"stockdesk/internal/database"
	"stockdesk/internal/model"
	"stockdesk/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingSink struct {
	mu  sync.Mutex
	got []model.Notification
}

func (s *recordingSink) Deliver(_ context.Context, n model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, n)
	return nil
}

func (s *recordingSink) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.got))
	for _, n := range s.got {
		out = append(out, n.Type)
	}
	return out
}

type fixture struct {
	db          *gorm.DB
	items       repository.ItemRepository
	history     repository.HistoryRepository
	assignments repository.AssignmentRepository
	auditRepo   repository.AuditRepository
	tx          repository.TransactionManager
	sink        *recordingSink

	ledger        LedgerService
	requests      RequestService
	maintenance   MaintenanceService
	counts        StockCountService
	notifications NotificationService
	audit         AuditService
	reports       ReportService

	admin     *auth.Principal
	warehouse *auth.Principal
	alice     *auth.Principal
	bob       *auth.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureOn(t, database.NewTestDB(t))
}

// newFixtureOn wires every service over db with a recording notification sink.
func newFixtureOn(t *testing.T, db *gorm.DB) *fixture {
	t.Helper()

	log := zap.NewNop()
	sink := &recordingSink{}

	tx := repository.NewTransactionManager(db, 10*time.Second)
	items := repository.NewItemRepository(db)
	history := repository.NewHistoryRepository(db)
	requests := repository.NewRequestRepository(db)
	assignments := repository.NewAssignmentRepository(db)
	notifications := repository.NewNotificationRepository(db)
	recs := repository.NewReconciliationRepository(db)
	audit := repository.NewAuditRepository(db)

	return &fixture{
		db:          db,
		items:       items,
		history:     history,
		assignments: assignments,
		auditRepo:   audit,
		tx:          tx,
		sink:        sink,

		ledger:        NewLedgerService(items, history, assignments, audit, tx),
		requests:      NewRequestService(items, requests, history, assignments, notifications, audit, tx, NewDispatcher(log, sink), log),
		maintenance:   NewMaintenanceService(items, history, audit, tx, log),
		counts:        NewStockCountService(items, recs, audit, tx),
		notifications: NewNotificationService(notifications),
		audit:         NewAuditService(audit),
		reports:       NewReportService(repository.NewReportRepository(db)),

		admin:     &auth.Principal{ID: uuid.New(), Name: "Ada Admin", Role: auth.RoleAdmin},
		warehouse: &auth.Principal{ID: uuid.New(), Name: "Wes Warehouse", Role: auth.RoleWarehouse},
		alice:     &auth.Principal{ID: uuid.New(), Name: "Alice", Role: auth.RoleStaff},
		bob:       &auth.Principal{ID: uuid.New(), Name: "Bob", Role: auth.RoleStaff},
	}
}

func (f *fixture) item(t *testing.T, name string, qty int) *ItemResponse {
	t.Helper()
	item, err := f.ledger.CreateItem(context.Background(), f.admin, CreateItemRequest{
		Category:        "Tools",
		Name:            name,
		InitialQuantity: qty,
	})
	require.NoError(t, err)
	return item
}

func (f *fixture) reload(t *testing.T, id uuid.UUID) *model.Item {
	t.Helper()
	item, err := f.items.FindByID(context.Background(), id)
	require.NoError(t, err)
	return item
}

func (f *fixture) submit(t *testing.T, p *auth.Principal, lines ...RequestLineInput) *model.Request {
	t.Helper()
	req, err := f.requests.Submit(context.Background(), p, SubmitRequestDTO{Items: lines})
	require.NoError(t, err)
	return req
}

func (f *fixture) count(t *testing.T, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(m).Count(&n).Error)
	return n
}

func line(id uuid.UUID, qty int) RequestLineInput {
	return RequestLineInput{ItemID: id.String(), Qty: qty}
}

func requireKind(t *testing.T, err error, kind apperror.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, apperror.KindOf(err), "unexpected error: %v", err)
}
