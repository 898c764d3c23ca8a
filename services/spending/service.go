package spending

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Roony-Pay/roony-mcp/models"
	"github.com/Roony-Pay/roony-mcp/repositories"
)

// CheckRequest represents one purchase request to validate against policy
type CheckRequest struct {
	AgentID      uuid.UUID
	Amount       float64
	Currency     string
	MerchantName string
	Description  string
}

// CheckResult represents the verdict of a spending check.
// Invariants: Allowed=false implies RequiresApproval=false, and
// RequiresApproval=true implies Allowed=true.
type CheckResult struct {
	Allowed          bool
	RequiresApproval bool
	ApprovalReason   models.ApprovalReason
	ApprovalDetail   string
	RejectionCode    models.RejectionCode
	RejectionMessage string
}

// Service validates purchase requests against per-agent limits and
// organization guardrails. It is read-only against storage; persisting the
// resulting purchase intent is the caller's responsibility.
type Service struct {
	store   *repositories.Store
	metrics *Metrics
	logger  *zap.Logger
}

// NewService creates a new spending checker instance
func NewService(store *repositories.Store, metrics *Metrics, logger *zap.Logger) *Service {
	return &Service{
		store:   store,
		metrics: metrics,
		logger:  logger,
	}
}

// CheckSpending runs the ordered rule waterfall for one purchase request.
// Rejection rules run first and short-circuit on the first failure; approval
// rules run only when no rejection fired and report the first matching
// reason. Limits are inclusive: a request exactly equal to a limit passes.
func (s *Service) CheckSpending(ctx context.Context, req CheckRequest) (*CheckResult, error) {
	start := time.Now()
	result, err := s.check(ctx, req)
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveCheckLatency(time.Since(start))
	switch {
	case !result.Allowed:
		s.metrics.IncrementOutcome("rejected", string(result.RejectionCode))
		s.logger.Info("purchase rejected",
			zap.String("agent_id", req.AgentID.String()),
			zap.Float64("amount", req.Amount),
			zap.String("merchant", req.MerchantName),
			zap.String("rejection_code", string(result.RejectionCode)))
	case result.RequiresApproval:
		s.metrics.IncrementOutcome("approval_required", string(result.ApprovalReason))
		s.logger.Info("purchase requires approval",
			zap.String("agent_id", req.AgentID.String()),
			zap.Float64("amount", req.Amount),
			zap.String("merchant", req.MerchantName),
			zap.String("approval_reason", string(result.ApprovalReason)))
	default:
		s.metrics.IncrementOutcome("allowed", "none")
	}

	return result, nil
}

func (s *Service) check(ctx context.Context, req CheckRequest) (*CheckResult, error) {
	// 1. Agent lookup
	agent, err := s.store.Agents.GetByID(ctx, req.AgentID)
	if errors.Is(err, repositories.ErrNotFound) {
		return reject(models.RejectionAgentNotFound, "agent not found"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch agent: %w", err)
	}

	// 2. Organization lookup. A missing organization reports AGENT_NOT_FOUND:
	// the wire enum has no separate code for it.
	org, err := s.store.Organizations.GetByID(ctx, agent.OrgID)
	if errors.Is(err, repositories.ErrNotFound) {
		return reject(models.RejectionAgentNotFound, "organization not found for agent"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch organization: %w", err)
	}

	// A paused or suspended agent cannot transact at all.
	if !agent.IsActive() {
		return reject(models.RejectionPolicyRejected,
			fmt.Sprintf("agent is %s", agent.Status)), nil
	}

	// 3. Per-transaction limit
	if agent.PerTransactionLimit != nil && req.Amount > *agent.PerTransactionLimit {
		return reject(models.RejectionOverTransactionLimit,
			fmt.Sprintf("amount %.2f exceeds per-transaction limit of %.2f",
				req.Amount, *agent.PerTransactionLimit)), nil
	}

	// 4. Organization max transaction guardrail
	if g := org.Guardrails; g != nil && g.MaxTransactionAmount != nil && req.Amount > *g.MaxTransactionAmount {
		return reject(models.RejectionOverOrgMaxTransaction,
			fmt.Sprintf("amount %.2f exceeds organization max transaction amount of %.2f",
				req.Amount, *g.MaxTransactionAmount)), nil
	}

	// 5. Daily limit
	if agent.DailyLimit != nil {
		dailySpend, err := s.store.Spend.GetAgentSpend(ctx, agent.ID, models.PeriodDaily)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch daily spend: %w", err)
		}
		if dailySpend+req.Amount > *agent.DailyLimit {
			return reject(models.RejectionDailyLimitExceeded,
				fmt.Sprintf("would exceed daily limit of %.2f (current: %.2f, request: %.2f)",
					*agent.DailyLimit, dailySpend, req.Amount)), nil
		}
	}

	// 6. Monthly limit
	if agent.MonthlyLimit != nil {
		monthlySpend, err := s.store.Spend.GetAgentSpend(ctx, agent.ID, models.PeriodMonthly)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch monthly spend: %w", err)
		}
		if monthlySpend+req.Amount > *agent.MonthlyLimit {
			return reject(models.RejectionMonthlyLimitExceeded,
				fmt.Sprintf("would exceed monthly limit of %.2f (current: %.2f, request: %.2f)",
					*agent.MonthlyLimit, monthlySpend, req.Amount)), nil
		}
	}

	// 7. Organization monthly budget
	if org.MonthlyBudget != nil {
		orgSpend, err := s.store.Spend.GetOrgSpend(ctx, org.ID, models.PeriodMonthly)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch organization spend: %w", err)
		}
		if orgSpend+req.Amount > *org.MonthlyBudget {
			return reject(models.RejectionOrgBudgetExceeded,
				fmt.Sprintf("would exceed organization monthly budget of %.2f (current: %.2f, request: %.2f)",
					*org.MonthlyBudget, orgSpend, req.Amount)), nil
		}
	}

	// 8. Merchant blocklist
	if merchantMatches(req.MerchantName, agent.BlockedMerchants) {
		return reject(models.RejectionMerchantBlocked,
			fmt.Sprintf("merchant %q is blocked for this agent", req.MerchantName)), nil
	}

	// 9. Merchant allowlist (when present, the merchant must match an entry)
	if len(agent.AllowedMerchants) > 0 && !merchantMatches(req.MerchantName, agent.AllowedMerchants) {
		return reject(models.RejectionMerchantNotAllowed,
			fmt.Sprintf("merchant %q is not on the agent's allowed list", req.MerchantName)), nil
	}

	// 10. Organization category blocklist
	if g := org.Guardrails; g != nil && merchantMatches(req.MerchantName, g.BlockCategories) {
		return reject(models.RejectionCategoryBlocked,
			fmt.Sprintf("merchant %q matches a blocked category", req.MerchantName)), nil
	}

	// 11. Agent approval threshold
	if agent.ApprovalThreshold != nil && req.Amount > *agent.ApprovalThreshold {
		return approve(models.ApprovalReasonOverThreshold,
			fmt.Sprintf("amount %.2f exceeds approval threshold of %.2f",
				req.Amount, *agent.ApprovalThreshold)), nil
	}

	// 12. Organization approval guardrail
	if g := org.Guardrails; g != nil && g.RequireApprovalAbove != nil && req.Amount > *g.RequireApprovalAbove {
		return approve(models.ApprovalReasonOrgGuardrail,
			fmt.Sprintf("amount %.2f exceeds organization approval threshold of %.2f",
				req.Amount, *g.RequireApprovalAbove)), nil
	}

	// 13, 14. New-vendor flagging, per-agent then org-wide
	flagOrgWide := org.Guardrails != nil && org.Guardrails.FlagAllNewVendors
	if agent.FlagNewVendors || flagOrgWide {
		isNew, err := s.store.Vendors.IsNewVendor(ctx, org.ID, req.MerchantName)
		if err != nil {
			return nil, fmt.Errorf("failed to check vendor history: %w", err)
		}
		if isNew {
			if agent.FlagNewVendors {
				return approve(models.ApprovalReasonNewVendor, "new vendor"), nil
			}
			return approve(models.ApprovalReasonNewVendor, "new vendor (org policy)"), nil
		}
	}

	return &CheckResult{Allowed: true}, nil
}

func reject(code models.RejectionCode, message string) *CheckResult {
	return &CheckResult{
		Allowed:          false,
		RejectionCode:    code,
		RejectionMessage: message,
	}
}

func approve(reason models.ApprovalReason, detail string) *CheckResult {
	return &CheckResult{
		Allowed:          true,
		RequiresApproval: true,
		ApprovalReason:   reason,
		ApprovalDetail:   detail,
	}
}

// merchantMatches reports whether the merchant name contains any list entry,
// case-insensitively. An entry "aws" matches "AWS Marketplace".
func merchantMatches(merchant string, entries []string) bool {
	name := strings.ToLower(merchant)
	for _, entry := range entries {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if entry != "" && strings.Contains(name, entry) {
			return true
		}
	}
	return false
}
