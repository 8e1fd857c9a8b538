package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Item is one stock-ledger unit. Quantity is on-hand stock; Reserved is the part of it
// held for pending or approved requests, so Quantity-Reserved is what new requests can take.
type Item struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Category      string     `gorm:"type:varchar(100);not null;uniqueIndex:idx_items_identity" json:"category"`
	Name          string     `gorm:"type:varchar(255);not null;uniqueIndex:idx_items_identity" json:"name"`
	IsScrap       bool       `gorm:"not null;default:false;uniqueIndex:idx_items_identity" json:"is_scrap"`
	Unit          string     `gorm:"type:varchar(30)" json:"unit"`
	Quantity      int        `gorm:"type:int;not null;default:0;check:chk_items_quantity,quantity >= 0" json:"quantity"`
	Reserved      int        `gorm:"type:int;not null;default:0;check:chk_items_reserved,reserved >= 0" json:"reserved"`
	TotalQuantity int        `gorm:"type:int;not null;default:0;check:chk_items_total,total_quantity >= 0" json:"total_quantity"`
	// AssignedToID is a best-effort pointer to the latest assignee, not a source of truth.
	AssignedToID   *uuid.UUID `gorm:"type:uuid;index" json:"assigned_to_id"`
	AssignedToName string     `gorm:"type:varchar(255)" json:"assigned_to_name,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	StockAdditions    []StockAddition   `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE" json:"stock_additions,omitempty"`
	AssignmentHistory []AssignmentEntry `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE" json:"assignment_history,omitempty"`
}

func (i *Item) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// Available is the stock eligible for new reservations.
func (i Item) Available() int {
	return i.Quantity - i.Reserved
}

// StockAddition is an append-only record of stock received into an item.
type StockAddition struct {
	ID          uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	ItemID      uuid.UUID           `gorm:"type:uuid;not null;index" json:"item_id"`
	Quantity    int                 `gorm:"type:int;not null" json:"quantity"`
	UnitPrice   decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"unit_price"`
	Note        string              `gorm:"type:text" json:"note,omitempty"`
	Vendor      string              `gorm:"type:varchar(255)" json:"vendor,omitempty"`
	AddedByID   uuid.UUID           `gorm:"type:uuid;not null" json:"added_by_id"`
	AddedByName string              `gorm:"type:varchar(255)" json:"added_by_name"`
	AddedAt     time.Time           `gorm:"not null;index" json:"added_at"`
}

func (s *StockAddition) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// AssignmentAction values
const (
	ActionAssigned = "assigned"
	ActionReturned = "returned"
)

// AssignmentEntry is one line of an item's assignment history. Entries are only ever
// appended, except by the maintenance correction that deletes a single entry.
type AssignmentEntry struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ItemID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"item_id"`
	UserID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	UserName        string     `gorm:"type:varchar(255)" json:"user_name"`
	PerformedByID   uuid.UUID  `gorm:"type:uuid;not null" json:"performed_by_id"`
	PerformedByName string     `gorm:"type:varchar(255)" json:"performed_by_name"`
	Action          string     `gorm:"type:varchar(20);not null" json:"action"` // assigned, returned
	Quantity        int        `gorm:"type:int;not null" json:"quantity"`
	RequestID       *uuid.UUID `gorm:"type:uuid;index" json:"request_id,omitempty"` // set for fulfillment entries
	AssignedAt      *time.Time `json:"assigned_at,omitempty"`
	ReturnedAt      *time.Time `json:"returned_at,omitempty"`
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`
}

func (e *AssignmentEntry) BeforeCreate(*gorm.DB) error {
	ensureID(&e.ID)
	return nil
}
