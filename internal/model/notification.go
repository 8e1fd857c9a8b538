package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	NotificationRequestSubmitted = "request_submitted"
	NotificationRequestApproved  = "request_approved"
	NotificationRequestRejected  = "request_rejected"
	NotificationReadyToFulfill   = "request_ready_for_fulfillment"
	NotificationRequestFulfilled = "request_fulfilled"
)

// Notification is addressed either to one user or to every holder of a role.
type Notification struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Type            string     `gorm:"type:varchar(50);not null;index" json:"type"`
	RequestID       *uuid.UUID `gorm:"type:uuid;index" json:"request_id,omitempty"`
	RecipientUserID *uuid.UUID `gorm:"type:uuid;index" json:"recipient_user_id,omitempty"`
	RecipientRole   string     `gorm:"type:varchar(20);index" json:"recipient_role,omitempty"`
	Message         string     `gorm:"type:text;not null" json:"message"`
	Meta            string     `gorm:"type:text" json:"meta,omitempty"` // JSON
	Read            bool       `gorm:"not null;default:false" json:"read"`
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`
}

func (n *Notification) BeforeCreate(*gorm.DB) error {
	ensureID(&n.ID)
	return nil
}
