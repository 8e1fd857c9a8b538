package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestStatus constants
const (
	RequestPending   = "pending"
	RequestApproved  = "approved"
	RequestRejected  = "rejected"
	RequestCancelled = "cancelled" // declared for stored data; no transition produces it
	RequestCompleted = "completed"
)

// Request is a requester's cart moving through pending → approved/rejected → completed.
type Request struct {
	ID              uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	RequesterID     uuid.UUID     `gorm:"type:uuid;not null;index" json:"requester_id"`
	RequesterName   string        `gorm:"type:varchar(255)" json:"requester_name"`
	Status          string        `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Note            string        `gorm:"type:text" json:"note,omitempty"`
	Lines           []RequestLine `gorm:"foreignKey:RequestID" json:"items"`
	SubmittedAt     time.Time     `gorm:"not null;index" json:"submitted_at"`
	DecisionAt      *time.Time    `json:"decision_at,omitempty"`
	DecisionByID    *uuid.UUID    `gorm:"type:uuid" json:"decision_by_id,omitempty"`
	DecisionByName  string        `gorm:"type:varchar(255)" json:"decision_by_name,omitempty"`
	DecisionNote    string        `gorm:"type:text" json:"decision_note,omitempty"`
	FulfilledAt     *time.Time    `json:"fulfilled_at,omitempty"`
	FulfilledByID   *uuid.UUID    `gorm:"type:uuid" json:"fulfilled_by_id,omitempty"`
	FulfilledByName string        `gorm:"type:varchar(255)" json:"fulfilled_by_name,omitempty"`
	FulfillmentNote string        `gorm:"type:text" json:"fulfillment_note,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

func (r *Request) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

// RequestLine is the item snapshot taken at submission; it is never edited afterwards.
type RequestLine struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	RequestID uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	ItemID    uuid.UUID `gorm:"type:uuid;not null;index" json:"item_id"`
	ItemName  string    `gorm:"type:varchar(255);not null" json:"item_name"`
	Category  string    `gorm:"type:varchar(100)" json:"category"`
	Qty       int       `gorm:"type:int;not null" json:"qty"`
}

func (l *RequestLine) BeforeCreate(*gorm.DB) error {
	ensureID(&l.ID)
	return nil
}

// Assignment is the immutable audit record written once per request line at fulfillment.
type Assignment struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RequestID      uuid.UUID `gorm:"type:uuid;not null;index" json:"request_id"`
	ItemID         uuid.UUID `gorm:"type:uuid;not null;index" json:"item_id"`
	ItemName       string    `gorm:"type:varchar(255)" json:"item_name"`
	Qty            int       `gorm:"type:int;not null" json:"qty"`
	AssignedToID   uuid.UUID `gorm:"type:uuid;not null;index" json:"assigned_to_id"`
	AssignedToName string    `gorm:"type:varchar(255)" json:"assigned_to_name"`
	AssignedByID   uuid.UUID `gorm:"type:uuid;not null" json:"assigned_by_id"`
	AssignedByName string    `gorm:"type:varchar(255)" json:"assigned_by_name"`
	AssignedAt     time.Time `gorm:"not null" json:"assigned_at"`
}

func (a *Assignment) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
