package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reconciliation is a physical count of one item compared with the ledger at count time.
type Reconciliation struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ItemID        uuid.UUID `gorm:"type:uuid;not null;index" json:"item_id"`
	ItemName      string    `gorm:"type:varchar(255)" json:"item_name"`
	CountedQty    int       `gorm:"type:int;not null" json:"counted_qty"`
	SystemQty     int       `gorm:"type:int;not null" json:"system_qty"`
	Delta         int       `gorm:"type:int;not null" json:"delta"`
	Department    string    `gorm:"type:varchar(100)" json:"department"`
	CountedAt     time.Time `gorm:"not null;index" json:"counted_at"`
	CountedByID   uuid.UUID `gorm:"type:uuid;not null" json:"counted_by_id"`
	CountedByName string    `gorm:"type:varchar(255)" json:"counted_by_name"`
	Notes         string    `gorm:"type:text" json:"notes,omitempty"`
}

func (r *Reconciliation) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
