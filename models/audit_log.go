package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of action being audited
type AuditAction string

const (
	AuditActionPurchaseRequested AuditAction = "purchase_requested"
	AuditActionPurchaseApproved  AuditAction = "purchase_approved"
	AuditActionPurchaseRejected  AuditAction = "purchase_rejected"
	AuditActionApprovalQueued    AuditAction = "approval_queued"
	AuditActionCardIssued        AuditAction = "card_issued"
	AuditActionCardFailed        AuditAction = "card_failed"
)

// AuditLog represents an audit trail entry for one purchase decision
type AuditLog struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	OrgID            uuid.UUID       `json:"org_id" db:"org_id"`
	AgentID          uuid.UUID       `json:"agent_id" db:"agent_id"`
	Action           AuditAction     `json:"action" db:"action"`
	PurchaseIntentID *uuid.UUID      `json:"purchase_intent_id,omitempty" db:"purchase_intent_id"`
	Details          json.RawMessage `json:"details,omitempty" db:"details"` // JSONB for flexible metadata
	RequestID        string          `json:"request_id" db:"request_id"`
	Timestamp        time.Time       `json:"timestamp" db:"timestamp"`
}

// TableName returns the table name for the AuditLog model
func (AuditLog) TableName() string {
	return "audit_logs"
}

// NewAuditLog creates a new AuditLog instance
func NewAuditLog(orgID, agentID uuid.UUID, action AuditAction) *AuditLog {
	return &AuditLog{
		ID:        uuid.New(),
		OrgID:     orgID,
		AgentID:   agentID,
		Action:    action,
		Timestamp: time.Now(),
	}
}

// WithIntent sets the purchase intent ID
func (a *AuditLog) WithIntent(intentID uuid.UUID) *AuditLog {
	a.PurchaseIntentID = &intentID
	return a
}

// WithDetails attaches structured metadata to the entry
func (a *AuditLog) WithDetails(details interface{}) *AuditLog {
	if raw, err := json.Marshal(details); err == nil {
		a.Details = raw
	}
	return a
}
