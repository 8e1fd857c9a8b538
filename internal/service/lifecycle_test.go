package service

import (
	"context"
	"fmt"
	"testing"

	"stockdesk/internal/apperror"
	"stockdesk/internal/auth"
	"stockdesk/internal/model"

	"github.com/cucumber/godog"
	"github.com/google/uuid"
)

type lifecycleContext struct {
	t         *testing.T
	f         *fixture
	items     map[string]uuid.UUID
	users     map[string]*auth.Principal
	request   *model.Request
	err       error
	reconcile *ReconcileResult
}

func (c *lifecycleContext) reset() {
	c.f = newFixture(c.t)
	c.items = map[string]uuid.UUID{}
	c.users = map[string]*auth.Principal{"alice": c.f.alice, "bob": c.f.bob, "admin": c.f.admin}
	c.request = nil
	c.err = nil
	c.reconcile = nil
}

func (c *lifecycleContext) anItemWithOnHand(name string, qty int) error {
	item, err := c.f.ledger.CreateItem(context.Background(), c.f.admin, CreateItemRequest{
		Category: "Tools", Name: name, InitialQuantity: qty,
	})
	if err != nil {
		return err
	}
	c.items[name] = item.ID
	return nil
}

func (c *lifecycleContext) submit(user string, lines ...RequestLineInput) error {
	req, err := c.f.requests.Submit(context.Background(), c.users[user], SubmitRequestDTO{Items: lines})
	c.err = err
	if err == nil {
		c.request = req
	}
	return nil
}

func (c *lifecycleContext) userSubmits(user string, qty int, name string) error {
	return c.submit(user, line(c.items[name], qty))
}

func (c *lifecycleContext) userSubmitsTwo(user string, qtyA int, nameA string, qtyB int, nameB string) error {
	return c.submit(user, line(c.items[nameA], qtyA), line(c.items[nameB], qtyB))
}

func (c *lifecycleContext) requestID() string {
	if c.request == nil {
		return uuid.Nil.String()
	}
	return c.request.ID.String()
}

func (c *lifecycleContext) adminApproves() error {
	_, c.err = c.f.requests.Approve(context.Background(), c.f.admin, c.requestID())
	return nil
}

func (c *lifecycleContext) userApproves(user string) error {
	_, c.err = c.f.requests.Approve(context.Background(), c.users[user], c.requestID())
	return nil
}

func (c *lifecycleContext) adminRejects(reason string) error {
	_, c.err = c.f.requests.Reject(context.Background(), c.f.admin, c.requestID(), reason)
	return nil
}

func (c *lifecycleContext) warehouseFulfills() error {
	_, c.err = c.f.requests.Fulfill(context.Background(), c.f.warehouse, c.requestID(), "")
	return nil
}

func (c *lifecycleContext) totalsAreReconciled() error {
	c.reconcile, c.err = c.f.maintenance.ReconcileTotals(context.Background(), c.f.admin)
	return c.err
}

func (c *lifecycleContext) submissionSucceeds() error {
	if c.err != nil {
		return fmt.Errorf("expected success, got %v", c.err)
	}
	return nil
}

func (c *lifecycleContext) submissionFailsWithShortage(available, requested int, name string) error {
	if apperror.KindOf(c.err) != apperror.KindConflict {
		return fmt.Errorf("expected conflict, got %v", c.err)
	}
	for _, s := range apperror.From(c.err).Shortages {
		if s.ItemID == c.items[name].String() {
			if s.Available != available || s.Requested != requested {
				return fmt.Errorf("shortage for %s is %d/%d, want %d/%d", name, s.Available, s.Requested, available, requested)
			}
			return nil
		}
	}
	return fmt.Errorf("no shortage reported for %s", name)
}

func (c *lifecycleContext) itemHasCounters(name string, qty, reserved, available int) error {
	item, err := c.f.items.FindByID(context.Background(), c.items[name])
	if err != nil {
		return err
	}
	if item.Quantity != qty || item.Reserved != reserved || item.Available() != available {
		return fmt.Errorf("%s has %d on hand, %d reserved, %d available", name, item.Quantity, item.Reserved, item.Available())
	}
	return nil
}

func (c *lifecycleContext) itemHasTotal(name string, total int) error {
	item, err := c.f.items.FindByID(context.Background(), c.items[name])
	if err != nil {
		return err
	}
	if item.TotalQuantity != total {
		return fmt.Errorf("%s total is %d, want %d", name, item.TotalQuantity, total)
	}
	return nil
}

func (c *lifecycleContext) thereAreRequests(n int) error {
	var count int64
	if err := c.f.db.Model(&model.Request{}).Count(&count).Error; err != nil {
		return err
	}
	if int(count) != n {
		return fmt.Errorf("found %d requests, want %d", count, n)
	}
	return nil
}

func (c *lifecycleContext) requestIs(status string) error {
	req, err := c.f.requests.Get(context.Background(), c.f.admin, c.requestID())
	if err != nil {
		return err
	}
	if req.Status != status {
		return fmt.Errorf("request is %s, want %s", req.Status, status)
	}
	return nil
}

func (c *lifecycleContext) lastOperationFails(kind string) error {
	if got := apperror.KindOf(c.err); c.err == nil || string(got) != kind {
		return fmt.Errorf("expected %s, got %v", kind, c.err)
	}
	return nil
}

func (c *lifecycleContext) requestHasAssignments(n int) error {
	out, err := c.f.requests.Assignments(context.Background(), c.f.admin, c.requestID())
	if err != nil {
		return err
	}
	if len(out) != n {
		return fmt.Errorf("found %d assignments, want %d", len(out), n)
	}
	return nil
}

func (c *lifecycleContext) itemHasHistoryEntry(name string, n int, action string, qty int) error {
	item, err := c.f.ledger.GetItem(context.Background(), c.f.admin, c.items[name].String())
	if err != nil {
		return err
	}
	found := 0
	for _, e := range item.AssignmentHistory {
		if e.Action == action && e.Quantity == qty {
			found++
		}
	}
	if found != n {
		return fmt.Errorf("found %d %s entries of %d, want %d", found, action, qty, n)
	}
	return nil
}

func (c *lifecycleContext) lastReconciliationCorrected(n int) error {
	if c.reconcile == nil {
		return fmt.Errorf("no reconciliation ran")
	}
	if c.reconcile.Corrected != n {
		return fmt.Errorf("corrected %d, want %d", c.reconcile.Corrected, n)
	}
	return nil
}

func initializeLifecycleScenario(t *testing.T) func(*godog.ScenarioContext) {
	return func(ctx *godog.ScenarioContext) {
		tc := &lifecycleContext{t: t}

		ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
			tc.reset()
			return ctx, nil
		})

		// Given steps
		ctx.Step(`^an item "([^"]*)" with (\d+) on hand$`, tc.anItemWithOnHand)

		// When steps
		ctx.Step(`^"([^"]*)" submits a request for (\d+) "([^"]*)"$`, tc.userSubmits)
		ctx.Step(`^"([^"]*)" submits a request for (\d+) "([^"]*)" and (\d+) "([^"]*)"$`, tc.userSubmitsTwo)
		ctx.Step(`^the admin approves the request$`, tc.adminApproves)
		ctx.Step(`^"([^"]*)" approves the request$`, tc.userApproves)
		ctx.Step(`^the admin rejects the request with reason "([^"]*)"$`, tc.adminRejects)
		ctx.Step(`^the warehouse fulfills the request$`, tc.warehouseFulfills)
		ctx.Step(`^totals are reconciled$`, tc.totalsAreReconciled)

		// Then steps
		ctx.Step(`^the submission succeeds$`, tc.submissionSucceeds)
		ctx.Step(`^the submission fails with a shortage of (\d+) available and (\d+) requested for "([^"]*)"$`, tc.submissionFailsWithShortage)
		ctx.Step(`^"([^"]*)" has (\d+) on hand, (\d+) reserved and (\d+) available$`, tc.itemHasCounters)
		ctx.Step(`^"([^"]*)" has a total of (\d+)$`, tc.itemHasTotal)
		ctx.Step(`^there are (\d+) requests$`, tc.thereAreRequests)
		ctx.Step(`^the request is "([^"]*)"$`, tc.requestIs)
		ctx.Step(`^the last operation fails with "([^"]*)"$`, tc.lastOperationFails)
		ctx.Step(`^the request has (\d+) assignment records?$`, tc.requestHasAssignments)
		ctx.Step(`^"([^"]*)" has (\d+) "([^"]*)" history entry of (\d+)$`, tc.itemHasHistoryEntry)
		ctx.Step(`^the last reconciliation corrected (\d+) items$`, tc.lastReconciliationCorrected)
	}
}

func TestRequestLifecycleFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeLifecycleScenario(t),
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/request_lifecycle.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
