package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Roony-Pay/roony-mcp/models"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("record not found")

// AgentRepository handles agent data operations
type AgentRepository interface {
	// Create creates a new agent
	Create(ctx context.Context, agent *models.Agent) error

	// GetByID retrieves an agent by ID. Returns ErrNotFound when missing.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Agent, error)

	// GetByOrgID retrieves all agents for an organization
	GetByOrgID(ctx context.Context, orgID uuid.UUID) ([]*models.Agent, error)

	// Update updates an agent
	Update(ctx context.Context, agent *models.Agent) error
}

// OrganizationRepository handles organization data operations
type OrganizationRepository interface {
	// Create creates a new organization
	Create(ctx context.Context, org *models.Organization) error

	// GetByID retrieves an organization by ID. Returns ErrNotFound when missing.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)

	// GetBySlug retrieves an organization by slug
	GetBySlug(ctx context.Context, slug string) (*models.Organization, error)

	// Update updates an organization
	Update(ctx context.Context, org *models.Organization) error
}

// SpendRepository exposes spend aggregates derived from approved purchases
type SpendRepository interface {
	// GetAgentSpend returns the agent's total approved spend for the period
	GetAgentSpend(ctx context.Context, agentID uuid.UUID, period models.SpendPeriod) (float64, error)

	// GetOrgSpend returns the organization's total approved spend for the period
	GetOrgSpend(ctx context.Context, orgID uuid.UUID, period models.SpendPeriod) (float64, error)
}

// VendorRepository tracks which merchants an organization has purchased from
type VendorRepository interface {
	// IsNewVendor returns true when the organization has no prior recorded
	// purchase from the merchant
	IsNewVendor(ctx context.Context, orgID uuid.UUID, merchantName string) (bool, error)

	// RecordMerchant marks the merchant as known to the organization
	RecordMerchant(ctx context.Context, orgID uuid.UUID, merchantName string) error
}

// IntentFilter narrows purchase intent listings
type IntentFilter struct {
	Status *models.IntentStatus
	Limit  int
}

// PurchaseIntentRepository handles purchase intent data operations
type PurchaseIntentRepository interface {
	// Create persists a new purchase intent
	Create(ctx context.Context, intent *models.PurchaseIntent) error

	// GetByID retrieves a purchase intent by ID. Returns ErrNotFound when missing.
	GetByID(ctx context.Context, id uuid.UUID) (*models.PurchaseIntent, error)

	// ListByAgent retrieves an agent's purchase intents, most recent first
	ListByAgent(ctx context.Context, agentID uuid.UUID, filter IntentFilter) ([]*models.PurchaseIntent, error)

	// UpdateStatus transitions an intent's status, optionally recording a
	// rejection code and reason
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.IntentStatus, code *models.RejectionCode, reason *string) error
}

// ApprovalRepository handles pending approval data operations
type ApprovalRepository interface {
	// Create persists a new pending approval
	Create(ctx context.Context, approval *models.PendingApproval) error

	// GetByIntentID retrieves the approval for a purchase intent
	GetByIntentID(ctx context.Context, intentID uuid.UUID) (*models.PendingApproval, error)

	// ListPending retrieves an organization's open approvals, oldest first
	ListPending(ctx context.Context, orgID uuid.UUID) ([]*models.PendingApproval, error)
}

// AuditRepository handles audit log data operations
type AuditRepository interface {
	// Insert inserts a new audit log entry
	Insert(ctx context.Context, log *models.AuditLog) error

	// ListByOrg retrieves audit logs for an organization with pagination
	ListByOrg(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*models.AuditLog, error)
}

// Store aggregates all repository interfaces consumed by the services
type Store struct {
	Agents        AgentRepository
	Organizations OrganizationRepository
	Spend         SpendRepository
	Vendors       VendorRepository
	Intents       PurchaseIntentRepository
	Approvals     ApprovalRepository
	AuditLogs     AuditRepository
}
