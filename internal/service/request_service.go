package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stockdesk/internal/apperror"
	"stockdesk/internal/auth"
	"stockdesk/internal/model"
	"stockdesk/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// --- DTOs ---

type RequestLineInput struct {
	ItemID string `json:"item_id" binding:"required"`
	Qty    int    `json:"qty" binding:"required,gt=0"`
}

type SubmitRequestDTO struct {
	Items []RequestLineInput `json:"items" binding:"required,min=1,dive"`
	Note  string             `json:"note"`
}

type DecisionDTO struct {
	Reason string `json:"reason"`
}

type FulfillDTO struct {
	Note string `json:"note"`
}

type RequestFilter struct {
	Status string
	Mine   bool
	Page   int
	Limit  int
}

// --- Interface ---

// RequestService is the request state machine: pending → approved/rejected, approved → completed.
// Each transition runs as one transaction together with its stock mutations,
// notifications and audit entry.
type RequestService interface {
	Submit(ctx context.Context, p *auth.Principal, req SubmitRequestDTO) (*model.Request, error)
	Approve(ctx context.Context, p *auth.Principal, id string) (*model.Request, error)
	Reject(ctx context.Context, p *auth.Principal, id string, reason string) (*model.Request, error)
	Fulfill(ctx context.Context, p *auth.Principal, id string, note string) (*model.Request, error)
	Get(ctx context.Context, p *auth.Principal, id string) (*model.Request, error)
	List(ctx context.Context, p *auth.Principal, filter RequestFilter) ([]model.Request, int64, error)
	Assignments(ctx context.Context, p *auth.Principal, id string) ([]model.Assignment, error)
}

type requestService struct {
	items         repository.ItemRepository
	requests      repository.RequestRepository
	history       repository.HistoryRepository
	assignments   repository.AssignmentRepository
	notifications repository.NotificationRepository
	auditRepo     repository.AuditRepository
	txManager     repository.TransactionManager
	engine        *ReservationEngine
	dispatcher    NotificationDispatcher
	log           *zap.Logger
}

func NewRequestService(
	items repository.ItemRepository,
	requests repository.RequestRepository,
	history repository.HistoryRepository,
	assignments repository.AssignmentRepository,
	notifications repository.NotificationRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	dispatcher NotificationDispatcher,
	log *zap.Logger,
) RequestService {
	return &requestService{
		items:         items,
		requests:      requests,
		history:       history,
		assignments:   assignments,
		notifications: notifications,
		auditRepo:     auditRepo,
		txManager:     txManager,
		engine:        NewReservationEngine(items),
		dispatcher:    dispatcher,
		log:           log,
	}
}

// validateLines checks a submission before the store is touched.
func validateLines(inputs []RequestLineInput) ([]Line, error) {
	if len(inputs) == 0 {
		return nil, apperror.InvalidArgument("Request must contain at least one item")
	}

	lines := make([]Line, 0, len(inputs))
	seen := make(map[uuid.UUID]bool, len(inputs))
	for _, in := range inputs {
		id, err := parseID(in.ItemID, "item")
		if err != nil {
			return nil, err
		}
		if in.Qty < 1 {
			return nil, apperror.InvalidArgument("Quantity must be a positive integer")
		}
		if seen[id] {
			return nil, apperror.InvalidArgument(fmt.Sprintf("Duplicate item in request: %s", id))
		}
		seen[id] = true
		lines = append(lines, Line{ItemID: id, Qty: in.Qty})
	}
	return lines, nil
}

func requestLines(req *model.Request) []Line {
	lines := make([]Line, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, Line{ItemID: l.ItemID, Qty: l.Qty})
	}
	return lines
}

func (s *requestService) Submit(ctx context.Context, p *auth.Principal, dto SubmitRequestDTO) (*model.Request, error) {
	if err := auth.Require(p); err != nil {
		return nil, err
	}
	lines, err := validateLines(dto.Items)
	if err != nil {
		return nil, err
	}

	box := newOutbox(s.notifications)
	var created *model.Request

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		ids := make([]uuid.UUID, 0, len(lines))
		for _, l := range lines {
			ids = append(ids, l.ItemID)
		}
		found, err := s.items.FindByIDs(txCtx, ids)
		if err != nil {
			return err
		}
		byID := make(map[uuid.UUID]model.Item, len(found))
		for _, item := range found {
			byID[item.ID] = item
		}

		req := &model.Request{
			RequesterID:   p.ID,
			RequesterName: p.Name,
			Status:        model.RequestPending,
			Note:          dto.Note,
			SubmittedAt:   time.Now(),
		}
		for _, l := range lines {
			item, ok := byID[l.ItemID]
			if !ok {
				return apperror.NotFound(fmt.Sprintf("Item not found: %s", l.ItemID))
			}
			req.Lines = append(req.Lines, model.RequestLine{
				ItemID:   item.ID,
				ItemName: item.Name,
				Category: item.Category,
				Qty:      l.Qty,
			})
		}

		shortages, err := s.engine.Reserve(txCtx, lines)
		if err != nil {
			return err
		}
		if len(shortages) > 0 {
			return apperror.InsufficientStock(shortages)
		}

		if err := s.requests.Create(txCtx, req); err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		msg := fmt.Sprintf("New request from %s with %d item(s)", displayName(p), len(req.Lines))
		if err := box.toRole(txCtx, model.NotificationRequestSubmitted, req.ID, auth.RoleAdmin, msg, map[string]interface{}{
			"requester_id": p.ID.String(),
		}); err != nil {
			return err
		}

		if err := writeAudit(txCtx, s.auditRepo, p, model.ActionSubmitRequest, req.ID.String(), displayName(p), map[string]interface{}{
			"items": req.Lines,
			"note":  dto.Note,
		}); err != nil {
			return err
		}

		created = req
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}

	box.flush(ctx, s.dispatcher)
	s.log.Info("request submitted", zap.String("request_id", created.ID.String()), zap.String("requester_id", p.ID.String()))
	return created, nil
}

// loadForTransition reads the request inside the transaction and checks its current status.
func (s *requestService) loadForTransition(ctx context.Context, id uuid.UUID, want string) (*model.Request, error) {
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Request not found")
	}
	if req.Status != want {
		return nil, apperror.Conflict("Not " + want)
	}
	return req, nil
}

// transition applies the status change, treating a lost race as the same conflict
// the caller would have seen had it read the newer status.
func (s *requestService) transition(ctx context.Context, id uuid.UUID, from, to string, values map[string]interface{}) error {
	err := s.requests.Transition(ctx, id, from, to, values)
	if errors.Is(err, repository.ErrGuardFailed) {
		return apperror.Conflict("Not " + from)
	}
	return err
}

func (s *requestService) Approve(ctx context.Context, p *auth.Principal, id string) (*model.Request, error) {
	if err := auth.Require(p, auth.RoleAdmin); err != nil {
		return nil, err
	}
	requestID, err := parseID(id, "request")
	if err != nil {
		return nil, err
	}

	box := newOutbox(s.notifications)
	var result *model.Request

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		req, err := s.loadForTransition(txCtx, requestID, model.RequestPending)
		if err != nil {
			return err
		}

		now := time.Now()
		if err := s.transition(txCtx, requestID, model.RequestPending, model.RequestApproved, map[string]interface{}{
			"decision_at":      now,
			"decision_by_id":   p.ID,
			"decision_by_name": p.Name,
		}); err != nil {
			return err
		}

		if err := box.toUser(txCtx, model.NotificationRequestApproved, req.ID, req.RequesterID,
			"Your request has been approved", nil); err != nil {
			return err
		}
		if err := box.toRole(txCtx, model.NotificationReadyToFulfill, req.ID, auth.RoleWarehouse,
			fmt.Sprintf("Request from %s is ready for fulfillment", req.RequesterName), nil); err != nil {
			return err
		}

		if err := writeAudit(txCtx, s.auditRepo, p, model.ActionApproveRequest, req.ID.String(), req.RequesterName, map[string]interface{}{
			"from": model.RequestPending,
			"to":   model.RequestApproved,
		}); err != nil {
			return err
		}

		result, err = s.requests.FindByID(txCtx, requestID)
		return err
	})
	if err != nil {
		return nil, storeError(err)
	}

	box.flush(ctx, s.dispatcher)
	s.log.Info("request approved", zap.String("request_id", id), zap.String("actor_id", p.ID.String()))
	return result, nil
}

func (s *requestService) Reject(ctx context.Context, p *auth.Principal, id string, reason string) (*model.Request, error) {
	if err := auth.Require(p, auth.RoleAdmin); err != nil {
		return nil, err
	}
	requestID, err := parseID(id, "request")
	if err != nil {
		return nil, err
	}

	box := newOutbox(s.notifications)
	var result *model.Request

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		req, err := s.loadForTransition(txCtx, requestID, model.RequestPending)
		if err != nil {
			return err
		}

		if err := s.engine.Release(txCtx, requestLines(req)); err != nil {
			return err
		}

		now := time.Now()
		if err := s.transition(txCtx, requestID, model.RequestPending, model.RequestRejected, map[string]interface{}{
			"decision_at":      now,
			"decision_by_id":   p.ID,
			"decision_by_name": p.Name,
			"decision_note":    reason,
		}); err != nil {
			return err
		}

		msg := "Your request has been rejected"
		if reason != "" {
			msg += ": " + reason
		}
		if err := box.toUser(txCtx, model.NotificationRequestRejected, req.ID, req.RequesterID, msg, map[string]interface{}{
			"reason": reason,
		}); err != nil {
			return err
		}

		if err := writeAudit(txCtx, s.auditRepo, p, model.ActionRejectRequest, req.ID.String(), req.RequesterName, map[string]interface{}{
			"reason": reason,
		}); err != nil {
			return err
		}

		result, err = s.requests.FindByID(txCtx, requestID)
		return err
	})
	if err != nil {
		return nil, storeError(err)
	}

	box.flush(ctx, s.dispatcher)
	s.log.Info("request rejected", zap.String("request_id", id), zap.String("actor_id", p.ID.String()))
	return result, nil
}

// Fulfill consumes every line's reservation, records history and the immutable
// assignment trail, and completes the request. Any line that no longer has the
// reserved and on-hand stock it needs aborts the whole fulfillment.
func (s *requestService) Fulfill(ctx context.Context, p *auth.Principal, id string, note string) (*model.Request, error) {
	if err := auth.Require(p, auth.RoleAdmin, auth.RoleWarehouse); err != nil {
		return nil, err
	}
	requestID, err := parseID(id, "request")
	if err != nil {
		return nil, err
	}

	box := newOutbox(s.notifications)
	var result *model.Request

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		req, err := s.loadForTransition(txCtx, requestID, model.RequestApproved)
		if err != nil {
			return err
		}

		now := time.Now()
		for _, line := range req.Lines {
			if err := s.items.Consume(txCtx, line.ItemID, line.Qty, req.RequesterID, req.RequesterName); err != nil {
				if errors.Is(err, repository.ErrGuardFailed) {
					return apperror.Conflict("Insufficient stock on fulfillment")
				}
				return err
			}

			rid := req.ID
			assignedAt := now
			if err := s.history.Append(txCtx, &model.AssignmentEntry{
				ItemID:          line.ItemID,
				UserID:          req.RequesterID,
				UserName:        req.RequesterName,
				PerformedByID:   p.ID,
				PerformedByName: p.Name,
				Action:          model.ActionAssigned,
				Quantity:        line.Qty,
				RequestID:       &rid,
				AssignedAt:      &assignedAt,
			}); err != nil {
				return fmt.Errorf("failed to append assignment history: %w", err)
			}

			if err := s.assignments.Create(txCtx, &model.Assignment{
				RequestID:      req.ID,
				ItemID:         line.ItemID,
				ItemName:       line.ItemName,
				Qty:            line.Qty,
				AssignedToID:   req.RequesterID,
				AssignedToName: req.RequesterName,
				AssignedByID:   p.ID,
				AssignedByName: p.Name,
				AssignedAt:     now,
			}); err != nil {
				return fmt.Errorf("failed to record assignment: %w", err)
			}
		}

		if err := s.transition(txCtx, requestID, model.RequestApproved, model.RequestCompleted, map[string]interface{}{
			"fulfilled_at":      now,
			"fulfilled_by_id":   p.ID,
			"fulfilled_by_name": p.Name,
			"fulfillment_note":  note,
		}); err != nil {
			return err
		}

		if err := box.toUser(txCtx, model.NotificationRequestFulfilled, req.ID, req.RequesterID,
			"Your request has been fulfilled", map[string]interface{}{"note": note}); err != nil {
			return err
		}

		if err := writeAudit(txCtx, s.auditRepo, p, model.ActionFulfillRequest, req.ID.String(), req.RequesterName, map[string]interface{}{
			"items": req.Lines,
			"note":  note,
		}); err != nil {
			return err
		}

		result, err = s.requests.FindByID(txCtx, requestID)
		return err
	})
	if err != nil {
		return nil, storeError(err)
	}

	box.flush(ctx, s.dispatcher)
	s.log.Info("request fulfilled", zap.String("request_id", id), zap.String("actor_id", p.ID.String()))
	return result, nil
}

// canSeeAll reports whether p may read requests other than their own.
func canSeeAll(p *auth.Principal) bool {
	return p.Is(auth.RoleAdmin, auth.RoleWarehouse)
}

func (s *requestService) Get(ctx context.Context, p *auth.Principal, id string) (*model.Request, error) {
	if err := auth.Require(p); err != nil {
		return nil, err
	}
	requestID, err := parseID(id, "request")
	if err != nil {
		return nil, err
	}

	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, storeError(notFoundOr(err, "Request not found"))
	}
	if !canSeeAll(p) && req.RequesterID != p.ID {
		return nil, apperror.NotFound("Request not found")
	}
	return req, nil
}

func (s *requestService) List(ctx context.Context, p *auth.Principal, filter RequestFilter) ([]model.Request, int64, error) {
	if err := auth.Require(p); err != nil {
		return nil, 0, err
	}
	page, limit := normalizePage(filter.Page, filter.Limit)

	repoFilter := repository.RequestFilter{Status: filter.Status, Page: page, Limit: limit}
	if filter.Mine || !canSeeAll(p) {
		id := p.ID
		repoFilter.RequesterID = &id
	}

	requests, total, err := s.requests.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, storeError(err)
	}
	return requests, total, nil
}

func (s *requestService) Assignments(ctx context.Context, p *auth.Principal, id string) ([]model.Assignment, error) {
	req, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	out, err := s.assignments.ListByRequest(ctx, req.ID)
	if err != nil {
		return nil, storeError(err)
	}
	return out, nil
}

func displayName(p *auth.Principal) string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID.String()
}
