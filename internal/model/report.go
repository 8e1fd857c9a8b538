package model

import "github.com/shopspring/decimal"

// CategorySummary is a per-category stock roll-up.
type CategorySummary struct {
	Category   string          `json:"category"`
	Items      int             `json:"items"`
	Quantity   int             `json:"quantity"`
	Reserved   int             `json:"reserved"`
	Available  int             `json:"available"`
	StockValue decimal.Decimal `json:"stock_value"`
}

// ItemRanking ranks items by quantity handed out through completed requests.
type ItemRanking struct {
	ItemID        string `json:"item_id"`
	ItemName      string `json:"item_name"`
	Category      string `json:"category"`
	TotalQuantity int    `json:"total_quantity"`
	Requests      int    `json:"requests"`
}
