package budget

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Roony-Pay/roony-mcp/models"
	"github.com/Roony-Pay/roony-mcp/repositories"
)

// Service provides read-only budget projections over agent limits and spend
// aggregates. It contains no decision logic.
type Service struct {
	store  *repositories.Store
	logger *zap.Logger
}

// NewService creates a new budget projection service
func NewService(store *repositories.Store, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

// GetAgentBudget returns an agent's limits alongside its current spend
func (s *Service) GetAgentBudget(ctx context.Context, agentID uuid.UUID) (*models.AgentBudget, error) {
	agent, err := s.store.Agents.GetByID(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch agent: %w", err)
	}

	dailySpend, err := s.store.Spend.GetAgentSpend(ctx, agentID, models.PeriodDaily)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch daily spend: %w", err)
	}
	monthlySpend, err := s.store.Spend.GetAgentSpend(ctx, agentID, models.PeriodMonthly)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch monthly spend: %w", err)
	}

	b := &models.AgentBudget{
		AgentID:             agentID,
		DailyLimit:          agent.DailyLimit,
		MonthlyLimit:        agent.MonthlyLimit,
		PerTransactionLimit: agent.PerTransactionLimit,
		ApprovalThreshold:   agent.ApprovalThreshold,
		DailySpend:          dailySpend,
		MonthlySpend:        monthlySpend,
	}
	if agent.DailyLimit != nil {
		remaining := *agent.DailyLimit - dailySpend
		if remaining < 0 {
			remaining = 0
		}
		b.DailyRemaining = &remaining
	}
	if agent.MonthlyLimit != nil {
		remaining := *agent.MonthlyLimit - monthlySpend
		if remaining < 0 {
			remaining = 0
		}
		b.MonthlyRemaining = &remaining
	}

	return b, nil
}

// GetBudgetUtilization returns how much of the organization's monthly budget
// has been consumed, and whether the alert threshold has been crossed
func (s *Service) GetBudgetUtilization(ctx context.Context, orgID uuid.UUID) (*models.BudgetUtilization, error) {
	org, err := s.store.Organizations.GetByID(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch organization: %w", err)
	}

	monthlySpend, err := s.store.Spend.GetOrgSpend(ctx, orgID, models.PeriodMonthly)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch organization spend: %w", err)
	}

	u := &models.BudgetUtilization{
		OrgID:          orgID,
		MonthlyBudget:  org.MonthlyBudget,
		MonthlySpend:   monthlySpend,
		AlertThreshold: org.EffectiveAlertThreshold(),
	}
	if org.MonthlyBudget != nil && *org.MonthlyBudget > 0 {
		u.Utilization = monthlySpend / *org.MonthlyBudget
		u.Alert = u.Utilization >= u.AlertThreshold
	}

	return u, nil
}
