package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// IntentStatus represents the lifecycle state of a purchase intent
type IntentStatus string

const (
	IntentStatusPending         IntentStatus = "pending"
	IntentStatusPendingApproval IntentStatus = "pending_approval"
	IntentStatusApproved        IntentStatus = "approved"
	IntentStatusRejected        IntentStatus = "rejected"
	IntentStatusExpired         IntentStatus = "expired"
)

// RejectionCode identifies which policy rule rejected a purchase request.
// These values are part of the wire contract.
type RejectionCode string

const (
	RejectionAgentNotFound         RejectionCode = "AGENT_NOT_FOUND"
	RejectionOverTransactionLimit  RejectionCode = "OVER_TRANSACTION_LIMIT"
	RejectionOverOrgMaxTransaction RejectionCode = "OVER_ORG_MAX_TRANSACTION"
	RejectionDailyLimitExceeded    RejectionCode = "DAILY_LIMIT_EXCEEDED"
	RejectionMonthlyLimitExceeded  RejectionCode = "MONTHLY_LIMIT_EXCEEDED"
	RejectionOrgBudgetExceeded     RejectionCode = "ORG_BUDGET_EXCEEDED"
	RejectionMerchantBlocked       RejectionCode = "MERCHANT_BLOCKED"
	RejectionMerchantNotAllowed    RejectionCode = "MERCHANT_NOT_ALLOWED"
	RejectionCategoryBlocked       RejectionCode = "CATEGORY_BLOCKED"
	RejectionNoPaymentMethod       RejectionCode = "NO_PAYMENT_METHOD"
	RejectionPolicyRejected        RejectionCode = "POLICY_REJECTED"
)

// PurchaseIntent represents the persisted record of one purchase attempt and
// its outcome. Immutable once created except for status transitions.
type PurchaseIntent struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	AgentID         uuid.UUID       `json:"agent_id" db:"agent_id"`
	OrgID           uuid.UUID       `json:"org_id" db:"org_id"`
	Amount          float64         `json:"amount" db:"amount"`
	Currency        string          `json:"currency" db:"currency"`
	Description     string          `json:"description" db:"description"`
	MerchantName    string          `json:"merchant_name" db:"merchant_name"`
	MerchantURL     *string         `json:"merchant_url,omitempty" db:"merchant_url"`
	ProjectID       *string         `json:"project_id,omitempty" db:"project_id"`
	Status          IntentStatus    `json:"status" db:"status"`
	RejectionCode   *RejectionCode  `json:"rejection_code,omitempty" db:"rejection_code"`
	RejectionReason *string         `json:"rejection_reason,omitempty" db:"rejection_reason"`
	Metadata        json.RawMessage `json:"metadata,omitempty" db:"metadata"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the PurchaseIntent model
func (PurchaseIntent) TableName() string {
	return "purchase_intents"
}

// ApprovalReason categorizes why a purchase was routed to human review.
// The evaluator emits this tag directly; it is never inferred from prose.
type ApprovalReason string

const (
	ApprovalReasonOverThreshold ApprovalReason = "OVER_THRESHOLD"
	ApprovalReasonNewVendor     ApprovalReason = "NEW_VENDOR"
	ApprovalReasonOrgGuardrail  ApprovalReason = "ORG_GUARDRAIL"
	ApprovalReasonManualReview  ApprovalReason = "MANUAL_REVIEW"
)

// ApprovalStatus represents the review state of a pending approval
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

// PendingApproval links a purchase intent to a human-review queue entry
type PendingApproval struct {
	ID               uuid.UUID      `json:"id" db:"id"`
	PurchaseIntentID uuid.UUID      `json:"purchase_intent_id" db:"purchase_intent_id"`
	AgentID          uuid.UUID      `json:"agent_id" db:"agent_id"`
	OrgID            uuid.UUID      `json:"org_id" db:"org_id"`
	Reason           ApprovalReason `json:"reason" db:"reason"`
	ReasonDetail     string         `json:"reason_detail" db:"reason_detail"`
	Status           ApprovalStatus `json:"status" db:"status"`
	ReviewedBy       *string        `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ReviewedAt       *time.Time     `json:"reviewed_at,omitempty" db:"reviewed_at"`
	CreatedAt        time.Time      `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the PendingApproval model
func (PendingApproval) TableName() string {
	return "pending_approvals"
}

// VirtualCard represents a single-use card bounded to one approved purchase
type VirtualCard struct {
	ID               uuid.UUID `json:"id"`
	PurchaseIntentID uuid.UUID `json:"purchase_intent_id"`
	CardNumber       string    `json:"card_number"`
	Last4            string    `json:"last4"`
	ExpiresAt        time.Time `json:"expires_at"`
	Amount           float64   `json:"amount"`
	Currency         string    `json:"currency"`
}
