package service

import (
	"context"
	"encoding/json"
	"fmt"

	"stockdesk/internal/auth"
	"stockdesk/internal/model"
	"stockdesk/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NotificationSink delivers a committed notification somewhere outside the store.
type NotificationSink interface {
	Deliver(ctx context.Context, n model.Notification) error
}

// NotificationDispatcher hands committed notifications to their sinks.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, notifications []model.Notification)
}

type dispatcher struct {
	log   *zap.Logger
	sinks []NotificationSink
}

// NewDispatcher fans notifications out to every sink. Delivery failures are logged
// and never reach the caller; the stored notification stays the source of truth.
func NewDispatcher(log *zap.Logger, sinks ...NotificationSink) NotificationDispatcher {
	return &dispatcher{log: log, sinks: sinks}
}

func (d *dispatcher) Dispatch(ctx context.Context, notifications []model.Notification) {
	for _, n := range notifications {
		for _, sink := range d.sinks {
			if err := sink.Deliver(ctx, n); err != nil {
				d.log.Warn("notification delivery failed",
					zap.String("notification_id", n.ID.String()),
					zap.String("type", n.Type),
					zap.Error(err))
			}
		}
	}
}

// outbox records notifications inside a transaction so they can be dispatched after commit.
type outbox struct {
	repo    repository.NotificationRepository
	pending []model.Notification
}

func newOutbox(repo repository.NotificationRepository) *outbox {
	return &outbox{repo: repo}
}

func (o *outbox) toUser(ctx context.Context, typ string, requestID, userID uuid.UUID, msg string, meta map[string]interface{}) error {
	uid := userID
	return o.add(ctx, model.Notification{Type: typ, RecipientUserID: &uid, Message: msg}, requestID, meta)
}

func (o *outbox) toRole(ctx context.Context, typ string, requestID uuid.UUID, role auth.Role, msg string, meta map[string]interface{}) error {
	return o.add(ctx, model.Notification{Type: typ, RecipientRole: string(role), Message: msg}, requestID, meta)
}

func (o *outbox) add(ctx context.Context, n model.Notification, requestID uuid.UUID, meta map[string]interface{}) error {
	rid := requestID
	n.RequestID = &rid
	if meta != nil {
		payload, _ := json.Marshal(meta)
		n.Meta = string(payload)
	}
	if err := o.repo.Create(ctx, &n); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	o.pending = append(o.pending, n)
	return nil
}

func (o *outbox) flush(ctx context.Context, d NotificationDispatcher) {
	if d == nil || len(o.pending) == 0 {
		return
	}
	d.Dispatch(ctx, o.pending)
	o.pending = nil
}
