package repository

import (
	"context"
	"fmt"
	"time"

	"stockdesk/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReportRepository runs read-only aggregate queries over the ledger.
type ReportRepository interface {
	CategorySummaries(ctx context.Context) ([]model.CategorySummary, error)
	TopRequestedItems(ctx context.Context, start, end time.Time, limit int) ([]model.ItemRanking, error)
}

type reportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) CategorySummaries(ctx context.Context) ([]model.CategorySummary, error) {
	var rows []struct {
		Category string
		Items    int
		Quantity int
		Reserved int
	}
	if err := r.db.WithContext(ctx).Model(&model.Item{}).
		Select("category, COUNT(*) as items, COALESCE(SUM(quantity), 0) as quantity, COALESCE(SUM(reserved), 0) as reserved").
		Group("category").
		Order("category ASC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query category summaries: %w", err)
	}

	values, err := r.stockValues(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]model.CategorySummary, 0, len(rows))
	for _, row := range rows {
		value := values[row.Category]
		out = append(out, model.CategorySummary{
			Category:   row.Category,
			Items:      row.Items,
			Quantity:   row.Quantity,
			Reserved:   row.Reserved,
			Available:  row.Quantity - row.Reserved,
			StockValue: value,
		})
	}
	return out, nil
}

// stockValues prices each item's on-hand quantity at its most recent recorded unit price.
// Only the newest priced addition per item is read.
func (r *reportRepository) stockValues(ctx context.Context) (map[string]decimal.Decimal, error) {
	latest := r.db.Table("stock_additions AS latest").
		Select("latest.id").
		Where("latest.item_id = items.id AND latest.unit_price IS NOT NULL").
		Order("latest.added_at DESC, latest.id DESC").
		Limit(1)

	var rows []struct {
		Category  string
		Quantity  int
		UnitPrice decimal.NullDecimal
	}
	if err := r.db.WithContext(ctx).Table("items").
		Select("items.category AS category, items.quantity AS quantity, stock_additions.unit_price AS unit_price").
		Joins("JOIN stock_additions ON stock_additions.item_id = items.id").
		Where("stock_additions.id = (?)", latest).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load stock prices: %w", err)
	}

	values := make(map[string]decimal.Decimal)
	for _, row := range rows {
		if !row.UnitPrice.Valid {
			continue
		}
		values[row.Category] = values[row.Category].Add(row.UnitPrice.Decimal.Mul(decimal.NewFromInt(int64(row.Quantity))))
	}
	return values, nil
}

func (r *reportRepository) TopRequestedItems(ctx context.Context, start, end time.Time, limit int) ([]model.ItemRanking, error) {
	var rankings []model.ItemRanking
	if err := r.db.WithContext(ctx).Table("request_lines").
		Select("request_lines.item_id as item_id, MAX(request_lines.item_name) as item_name, MAX(request_lines.category) as category, SUM(request_lines.qty) as total_quantity, COUNT(DISTINCT requests.id) as requests").
		Joins("JOIN requests ON requests.id = request_lines.request_id").
		Where("requests.status = ? AND requests.fulfilled_at >= ? AND requests.fulfilled_at <= ?", model.RequestCompleted, start, end).
		Group("request_lines.item_id").
		Order("total_quantity DESC").
		Limit(limit).
		Scan(&rankings).Error; err != nil {
		return nil, fmt.Errorf("failed to query top items: %w", err)
	}
	return rankings, nil
}
