package models

import (
	"time"

	"github.com/google/uuid"
)

// AgentStatus represents the lifecycle status of a purchasing agent
type AgentStatus string

const (
	AgentStatusActive    AgentStatus = "active"
	AgentStatusPaused    AgentStatus = "paused"
	AgentStatusSuspended AgentStatus = "suspended"
)

// Agent represents an autonomous purchasing entity subject to spending limits.
// All limit fields are optional; a nil limit means the check is skipped.
type Agent struct {
	ID                  uuid.UUID   `json:"id" db:"id"`
	OrgID               uuid.UUID   `json:"org_id" db:"org_id"`
	Name                string      `json:"name" db:"name"`
	Status              AgentStatus `json:"status" db:"status"`
	MonthlyLimit        *float64    `json:"monthly_limit,omitempty" db:"monthly_limit"`
	DailyLimit          *float64    `json:"daily_limit,omitempty" db:"daily_limit"`
	PerTransactionLimit *float64    `json:"per_transaction_limit,omitempty" db:"per_transaction_limit"`
	ApprovalThreshold   *float64    `json:"approval_threshold,omitempty" db:"approval_threshold"`
	AllowedMerchants    []string    `json:"allowed_merchants,omitempty" db:"allowed_merchants"`
	BlockedMerchants    []string    `json:"blocked_merchants,omitempty" db:"blocked_merchants"`
	FlagNewVendors      bool        `json:"flag_new_vendors" db:"flag_new_vendors"`
	CreatedAt           time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Agent model
func (Agent) TableName() string {
	return "agents"
}

// NewAgent creates a new active Agent instance
func NewAgent(orgID uuid.UUID, name string) *Agent {
	now := time.Now()
	return &Agent{
		ID:        uuid.New(),
		OrgID:     orgID,
		Name:      name,
		Status:    AgentStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsActive returns true if the agent is allowed to transact
func (a *Agent) IsActive() bool {
	return a.Status == AgentStatusActive
}
