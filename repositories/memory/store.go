package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Roony-Pay/roony-mcp/models"
	"github.com/Roony-Pay/roony-mcp/repositories"
)

// Store is an in-process implementation of every repository interface.
// Used by development mode and tests; state is injected, never global.
type Store struct {
	mu        sync.RWMutex
	agents    map[uuid.UUID]*models.Agent
	orgs      map[uuid.UUID]*models.Organization
	intents   map[uuid.UUID]*models.PurchaseIntent
	approvals map[uuid.UUID]*models.PendingApproval
	vendors   map[uuid.UUID]map[string]bool // orgID -> lowercased merchant names
	auditLogs []*models.AuditLog
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		agents:    make(map[uuid.UUID]*models.Agent),
		orgs:      make(map[uuid.UUID]*models.Organization),
		intents:   make(map[uuid.UUID]*models.PurchaseIntent),
		approvals: make(map[uuid.UUID]*models.PendingApproval),
		vendors:   make(map[uuid.UUID]map[string]bool),
	}
}

// Repositories returns the store wired into the aggregate consumed by services
func (s *Store) Repositories() *repositories.Store {
	return &repositories.Store{
		Agents:        &agentRepo{s},
		Organizations: &orgRepo{s},
		Spend:         &spendRepo{s},
		Vendors:       &vendorRepo{s},
		Intents:       &intentRepo{s},
		Approvals:     &approvalRepo{s},
		AuditLogs:     &auditRepo{s},
	}
}

type agentRepo struct{ s *Store }

func (r *agentRepo) Create(_ context.Context, agent *models.Agent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *agent
	r.s.agents[agent.ID] = &cp
	return nil
}

func (r *agentRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Agent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	agent, ok := r.s.agents[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *agent
	return &cp, nil
}

func (r *agentRepo) GetByOrgID(_ context.Context, orgID uuid.UUID) ([]*models.Agent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*models.Agent
	for _, a := range r.s.agents {
		if a.OrgID == orgID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *agentRepo) Update(_ context.Context, agent *models.Agent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.agents[agent.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *agent
	r.s.agents[agent.ID] = &cp
	return nil
}

type orgRepo struct{ s *Store }

func (r *orgRepo) Create(_ context.Context, org *models.Organization) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *org
	r.s.orgs[org.ID] = &cp
	return nil
}

func (r *orgRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Organization, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	org, ok := r.s.orgs[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *org
	return &cp, nil
}

func (r *orgRepo) GetBySlug(_ context.Context, slug string) (*models.Organization, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, org := range r.s.orgs {
		if org.Slug == slug {
			cp := *org
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *orgRepo) Update(_ context.Context, org *models.Organization) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.orgs[org.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *org
	r.s.orgs[org.ID] = &cp
	return nil
}

type spendRepo struct{ s *Store }

// GetAgentSpend sums the agent's approved purchases for the period
func (r *spendRepo) GetAgentSpend(_ context.Context, agentID uuid.UUID, period models.SpendPeriod) (float64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var total float64
	for _, intent := range r.s.intents {
		if intent.AgentID == agentID && intent.Status == models.IntentStatusApproved && inPeriod(intent.CreatedAt, period) {
			total += intent.Amount
		}
	}
	return total, nil
}

// GetOrgSpend sums the organization's approved purchases for the period
func (r *spendRepo) GetOrgSpend(_ context.Context, orgID uuid.UUID, period models.SpendPeriod) (float64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var total float64
	for _, intent := range r.s.intents {
		if intent.OrgID == orgID && intent.Status == models.IntentStatusApproved && inPeriod(intent.CreatedAt, period) {
			total += intent.Amount
		}
	}
	return total, nil
}

func inPeriod(t time.Time, period models.SpendPeriod) bool {
	now := time.Now()
	switch period {
	case models.PeriodDaily:
		return t.Year() == now.Year() && t.YearDay() == now.YearDay()
	case models.PeriodMonthly:
		return t.Year() == now.Year() && t.Month() == now.Month()
	default:
		return false
	}
}

type vendorRepo struct{ s *Store }

func (r *vendorRepo) IsNewVendor(_ context.Context, orgID uuid.UUID, merchantName string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	known := r.s.vendors[orgID]
	return !known[strings.ToLower(merchantName)], nil
}

func (r *vendorRepo) RecordMerchant(_ context.Context, orgID uuid.UUID, merchantName string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.vendors[orgID] == nil {
		r.s.vendors[orgID] = make(map[string]bool)
	}
	r.s.vendors[orgID][strings.ToLower(merchantName)] = true
	return nil
}

type intentRepo struct{ s *Store }

func (r *intentRepo) Create(_ context.Context, intent *models.PurchaseIntent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *intent
	r.s.intents[intent.ID] = &cp
	return nil
}

func (r *intentRepo) GetByID(_ context.Context, id uuid.UUID) (*models.PurchaseIntent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	intent, ok := r.s.intents[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *intent
	return &cp, nil
}

func (r *intentRepo) ListByAgent(_ context.Context, agentID uuid.UUID, filter repositories.IntentFilter) ([]*models.PurchaseIntent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*models.PurchaseIntent
	for _, intent := range r.s.intents {
		if intent.AgentID != agentID {
			continue
		}
		if filter.Status != nil && intent.Status != *filter.Status {
			continue
		}
		cp := *intent
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *intentRepo) UpdateStatus(_ context.Context, id uuid.UUID, status models.IntentStatus, code *models.RejectionCode, reason *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	intent, ok := r.s.intents[id]
	if !ok {
		return repositories.ErrNotFound
	}
	intent.Status = status
	intent.RejectionCode = code
	intent.RejectionReason = reason
	return nil
}

type approvalRepo struct{ s *Store }

func (r *approvalRepo) Create(_ context.Context, approval *models.PendingApproval) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *approval
	r.s.approvals[approval.ID] = &cp
	return nil
}

func (r *approvalRepo) GetByIntentID(_ context.Context, intentID uuid.UUID) (*models.PendingApproval, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, a := range r.s.approvals {
		if a.PurchaseIntentID == intentID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *approvalRepo) ListPending(_ context.Context, orgID uuid.UUID) ([]*models.PendingApproval, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*models.PendingApproval
	for _, a := range r.s.approvals {
		if a.OrgID == orgID && a.Status == models.ApprovalStatusPending {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

type auditRepo struct{ s *Store }

func (r *auditRepo) Insert(_ context.Context, log *models.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *log
	r.s.auditLogs = append(r.s.auditLogs, &cp)
	return nil
}

func (r *auditRepo) ListByOrg(_ context.Context, orgID uuid.UUID, limit, offset int) ([]*models.AuditLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*models.AuditLog
	for _, l := range r.s.auditLogs {
		if l.OrgID == orgID {
			cp := *l
			out = append(out, &cp)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
