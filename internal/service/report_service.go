package service

import (
	"context"
	"time"

	"stockdesk/internal/apperror"
	"stockdesk/internal/auth"
	"stockdesk/internal/model"
	"stockdesk/internal/repository"
)

const (
	dateLayout      = "2006-01-02"
	defaultTopLimit = 10
	defaultTopDays  = 30
)

type ReportService interface {
	CategorySummary(ctx context.Context, p *auth.Principal) ([]model.CategorySummary, error)
	TopRequestedItems(ctx context.Context, p *auth.Principal, startDate, endDate string, limit int) ([]model.ItemRanking, error)
}

type reportService struct {
	repo repository.ReportRepository
}

func NewReportService(repo repository.ReportRepository) ReportService {
	return &reportService{repo: repo}
}

func (s *reportService) CategorySummary(ctx context.Context, p *auth.Principal) ([]model.CategorySummary, error) {
	if err := auth.Require(p, auth.RoleAdmin, auth.RoleWarehouse); err != nil {
		return nil, err
	}
	out, err := s.repo.CategorySummaries(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	return out, nil
}

// TopRequestedItems ranks items by quantity handed out through completed requests.
// Dates are inclusive; the window defaults to the last 30 days.
func (s *reportService) TopRequestedItems(ctx context.Context, p *auth.Principal, startDate, endDate string, limit int) ([]model.ItemRanking, error) {
	if err := auth.Require(p, auth.RoleAdmin, auth.RoleWarehouse); err != nil {
		return nil, err
	}

	now := time.Now()
	end := now
	start := now.AddDate(0, 0, -defaultTopDays)
	if startDate != "" {
		t, err := time.Parse(dateLayout, startDate)
		if err != nil {
			return nil, apperror.InvalidArgument("Invalid start_date, expected YYYY-MM-DD")
		}
		start = t
	}
	if endDate != "" {
		t, err := time.Parse(dateLayout, endDate)
		if err != nil {
			return nil, apperror.InvalidArgument("Invalid end_date, expected YYYY-MM-DD")
		}
		end = t.Add(24*time.Hour - time.Nanosecond)
	}
	if end.Before(start) {
		return nil, apperror.InvalidArgument("end_date is before start_date")
	}
	if limit <= 0 {
		limit = defaultTopLimit
	}

	out, err := s.repo.TopRequestedItems(ctx, start, end, limit)
	if err != nil {
		return nil, storeError(err)
	}
	return out, nil
}
