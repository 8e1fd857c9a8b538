package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionCreateItem    = "CREATE_ITEM"
	ActionDeleteItem    = "DELETE_ITEM"
	ActionAddStock      = "ADD_STOCK"
	ActionDirectAssign  = "DIRECT_ASSIGN"
	ActionReturnItem    = "RETURN_ITEM"
	ActionRecordCount   = "RECORD_COUNT"
	ActionSubmitRequest = "SUBMIT_REQUEST"

	ActionApproveRequest = "APPROVE_REQUEST"
	ActionRejectRequest  = "REJECT_REQUEST"
	ActionFulfillRequest = "FULFILL_REQUEST"

	// Maintenance corrections
	ActionDeleteAssignmentEntry = "DELETE_ASSIGNMENT_ENTRY"
	ActionReconcileTotal        = "RECONCILE_TOTAL"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ActorID    *uuid.UUID `gorm:"type:uuid;index" json:"actor_id"` // nil for automated runs
	ActorName  string     `gorm:"type:varchar(255)" json:"actor_name"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:text" json:"details"` // serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
