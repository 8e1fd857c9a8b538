package service

import (
	"context"

	"stockdesk/internal/auth"
	"stockdesk/internal/repository"
)

type AuditLogResponse struct {
	ID         string `json:"id"`
	ActorID    string `json:"actor_id"`
	ActorName  string `json:"actor_name"`
	Action     string `json:"action"`
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name"`
	Details    string `json:"details"`
	CreatedAt  string `json:"created_at"`
}

type AuditService interface {
	GetAuditLogs(ctx context.Context, p *auth.Principal, action string, page, limit int) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	repo repository.AuditRepository
}

// NewAuditService creates a new AuditService instance
func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

// GetAuditLogs returns the newest entries first, optionally filtered by action.
func (s *auditService) GetAuditLogs(ctx context.Context, p *auth.Principal, action string, page, limit int) ([]AuditLogResponse, int64, error) {
	if err := auth.Require(p, auth.RoleAdmin); err != nil {
		return nil, 0, err
	}
	page, limit = normalizePage(page, limit)

	logs, total, err := s.repo.List(ctx, action, page, limit)
	if err != nil {
		return nil, 0, storeError(err)
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		actorID := ""
		if l.ActorID != nil {
			actorID = l.ActorID.String()
		}
		res = append(res, AuditLogResponse{
			ID:         l.ID.String(),
			ActorID:    actorID,
			ActorName:  l.ActorName,
			Action:     l.Action,
			EntityID:   l.EntityID,
			EntityName: l.EntityName,
			Details:    l.Details,
			CreatedAt:  l.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return res, total, nil
}
