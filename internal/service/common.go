package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"stockdesk/internal/apperror"
	"stockdesk/internal/auth"
	"stockdesk/internal/model"
	"stockdesk/internal/repository"
	"stockdesk/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func normalizePage(page, limit int) (int, int) {
	pg := pagination.Normalize(page, limit)
	return pg.Page, pg.Limit
}

func parseID(raw, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperror.InvalidArgument(fmt.Sprintf("Invalid %s id", what))
	}
	return id, nil
}

// storeError classifies an error coming out of the repository layer. Errors that are
// already classified pass through unchanged.
func storeError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, repository.ErrTxTimeout) {
		return apperror.Unavailable("Store is busy, retry the operation", err)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.Conflict("Duplicate record")
	}
	return apperror.Internal(err)
}

// notFoundOr maps gorm.ErrRecordNotFound to a NotFound error with msg.
func notFoundOr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(msg)
	}
	return err
}

func writeAudit(ctx context.Context, repo repository.AuditRepository, p *auth.Principal, action, entityID, entityName string, details interface{}) error {
	payload, _ := json.Marshal(details)
	entry := &model.AuditLog{
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(payload),
	}
	if p != nil {
		id := p.ID
		entry.ActorID = &id
		entry.ActorName = p.Name
	} else {
		entry.ActorName = "System"
	}
	if err := repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}
