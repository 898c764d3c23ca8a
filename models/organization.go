package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultAlertThreshold is applied when an organization has no explicit
// alert threshold configured (fraction of the monthly budget).
const DefaultAlertThreshold = 0.8

// Guardrails represents organization-wide policy constraints that apply to
// every agent the organization owns, independent of per-agent limits
type Guardrails struct {
	MaxTransactionAmount *float64 `json:"max_transaction_amount,omitempty" db:"max_transaction_amount"`
	RequireApprovalAbove *float64 `json:"require_approval_above,omitempty" db:"require_approval_above"`
	FlagAllNewVendors    bool     `json:"flag_all_new_vendors" db:"flag_all_new_vendors"`
	BlockCategories      []string `json:"block_categories,omitempty" db:"block_categories"`
}

// Organization represents the owning tenant of one or more agents
type Organization struct {
	ID             uuid.UUID   `json:"id" db:"id"`
	Name           string      `json:"name" db:"name"`
	Slug           string      `json:"slug" db:"slug"` // URL-friendly identifier
	MonthlyBudget  *float64    `json:"monthly_budget,omitempty" db:"monthly_budget"`
	AlertThreshold *float64    `json:"alert_threshold,omitempty" db:"alert_threshold"`
	Guardrails     *Guardrails `json:"guardrails,omitempty" db:"guardrails"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Organization model
func (Organization) TableName() string {
	return "organizations"
}

// NewOrganization creates a new Organization instance
func NewOrganization(name, slug string) *Organization {
	now := time.Now()
	return &Organization{
		ID:        uuid.New(),
		Name:      name,
		Slug:      slug,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// EffectiveAlertThreshold returns the configured alert threshold or the default
func (o *Organization) EffectiveAlertThreshold() float64 {
	if o.AlertThreshold != nil && *o.AlertThreshold > 0 {
		return *o.AlertThreshold
	}
	return DefaultAlertThreshold
}
