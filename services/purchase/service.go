package purchase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Roony-Pay/roony-mcp/models"
	"github.com/Roony-Pay/roony-mcp/repositories"
	"github.com/Roony-Pay/roony-mcp/services/payment"
	"github.com/Roony-Pay/roony-mcp/services/spending"
)

// Request represents one validated purchase request from an agent
type Request struct {
	AgentID      uuid.UUID
	Amount       float64
	Currency     string
	Description  string
	MerchantName string
	MerchantURL  *string
	ProjectID    *string
}

// Result represents the outcome of one purchase request. Exactly one of the
// three statuses is returned: approved, rejected, or pending_approval.
type Result struct {
	Status          models.IntentStatus
	IntentID        uuid.UUID
	RejectionCode   models.RejectionCode
	RejectionReason string
	Suggestion      string
	ApprovalReason  models.ApprovalReason
	ApprovalDetail  string
	Card            *models.VirtualCard
}

// Checker validates a purchase request against spending policy
type Checker interface {
	CheckSpending(ctx context.Context, req spending.CheckRequest) (*spending.CheckResult, error)
}

// Service orchestrates one purchase request: it obtains a verdict from the
// spending checker, persists exactly one purchase intent per evaluation, and
// requests a virtual card for approved purchases. All writes happen after the
// verdict is known.
type Service struct {
	store   *repositories.Store
	checker Checker
	issuer  payment.Issuer
	logger  *zap.Logger
}

// NewService creates a new purchase orchestration service
func NewService(store *repositories.Store, checker Checker, issuer payment.Issuer, logger *zap.Logger) *Service {
	return &Service{
		store:   store,
		checker: checker,
		issuer:  issuer,
		logger:  logger,
	}
}

// RequestPurchase processes one purchase request end to end
func (s *Service) RequestPurchase(ctx context.Context, req Request) (*Result, error) {
	agent, err := s.store.Agents.GetByID(ctx, req.AgentID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to fetch agent: %w", err)
	}

	verdict, err := s.checker.CheckSpending(ctx, spending.CheckRequest{
		AgentID:      req.AgentID,
		Amount:       req.Amount,
		Currency:     req.Currency,
		MerchantName: req.MerchantName,
		Description:  req.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("spending check failed: %w", err)
	}

	// Every evaluation persists exactly one intent, including rejections for
	// unknown agents; those carry a zero org ID since none can be resolved.
	if agent == nil {
		agent = &models.Agent{ID: req.AgentID}
	}

	switch {
	case !verdict.Allowed:
		return s.handleRejection(ctx, agent, req, verdict)
	case verdict.RequiresApproval:
		return s.handleApproval(ctx, agent, req, verdict)
	default:
		return s.handleApproved(ctx, agent, req)
	}
}

func (s *Service) newIntent(agent *models.Agent, req Request, status models.IntentStatus) *models.PurchaseIntent {
	return &models.PurchaseIntent{
		ID:           uuid.New(),
		AgentID:      agent.ID,
		OrgID:        agent.OrgID,
		Amount:       req.Amount,
		Currency:     req.Currency,
		Description:  req.Description,
		MerchantName: req.MerchantName,
		MerchantURL:  req.MerchantURL,
		ProjectID:    req.ProjectID,
		Status:       status,
		CreatedAt:    time.Now(),
	}
}

func (s *Service) handleRejection(ctx context.Context, agent *models.Agent, req Request, verdict *spending.CheckResult) (*Result, error) {
	intent := s.newIntent(agent, req, models.IntentStatusRejected)
	intent.RejectionCode = &verdict.RejectionCode
	intent.RejectionReason = &verdict.RejectionMessage

	if err := s.store.Intents.Create(ctx, intent); err != nil {
		return nil, fmt.Errorf("failed to persist rejected intent: %w", err)
	}

	s.audit(ctx, agent, models.AuditActionPurchaseRejected, intent.ID, map[string]interface{}{
		"rejection_code": verdict.RejectionCode,
		"merchant":       req.MerchantName,
		"amount":         req.Amount,
	})

	return &Result{
		Status:          models.IntentStatusRejected,
		IntentID:        intent.ID,
		RejectionCode:   verdict.RejectionCode,
		RejectionReason: verdict.RejectionMessage,
		Suggestion:      SuggestionFor(verdict.RejectionCode),
	}, nil
}

func (s *Service) handleApproval(ctx context.Context, agent *models.Agent, req Request, verdict *spending.CheckResult) (*Result, error) {
	intent := s.newIntent(agent, req, models.IntentStatusPendingApproval)
	if err := s.store.Intents.Create(ctx, intent); err != nil {
		return nil, fmt.Errorf("failed to persist pending intent: %w", err)
	}

	approval := &models.PendingApproval{
		ID:               uuid.New(),
		PurchaseIntentID: intent.ID,
		AgentID:          agent.ID,
		OrgID:            agent.OrgID,
		Reason:           verdict.ApprovalReason,
		ReasonDetail:     verdict.ApprovalDetail,
		Status:           models.ApprovalStatusPending,
		CreatedAt:        time.Now(),
	}
	if err := s.store.Approvals.Create(ctx, approval); err != nil {
		return nil, fmt.Errorf("failed to persist pending approval: %w", err)
	}

	s.audit(ctx, agent, models.AuditActionApprovalQueued, intent.ID, map[string]interface{}{
		"approval_reason": verdict.ApprovalReason,
		"merchant":        req.MerchantName,
		"amount":          req.Amount,
	})

	return &Result{
		Status:         models.IntentStatusPendingApproval,
		IntentID:       intent.ID,
		ApprovalReason: verdict.ApprovalReason,
		ApprovalDetail: verdict.ApprovalDetail,
	}, nil
}

func (s *Service) handleApproved(ctx context.Context, agent *models.Agent, req Request) (*Result, error) {
	intent := s.newIntent(agent, req, models.IntentStatusApproved)
	if err := s.store.Intents.Create(ctx, intent); err != nil {
		return nil, fmt.Errorf("failed to persist approved intent: %w", err)
	}

	card, err := s.issuer.CreateVirtualCard(ctx, payment.CardRequest{
		PurchaseIntentID: intent.ID,
		OrganizationID:   agent.OrgID,
		AgentID:          agent.ID,
		Amount:           req.Amount,
		Currency:         req.Currency,
	})
	if errors.Is(err, payment.ErrNoPaymentMethod) {
		code := models.RejectionNoPaymentMethod
		reason := err.Error()
		if updErr := s.store.Intents.UpdateStatus(ctx, intent.ID, models.IntentStatusRejected, &code, &reason); updErr != nil {
			return nil, fmt.Errorf("failed to reject intent after card failure: %w", updErr)
		}

		s.audit(ctx, agent, models.AuditActionCardFailed, intent.ID, map[string]interface{}{
			"rejection_code": code,
		})

		return &Result{
			Status:          models.IntentStatusRejected,
			IntentID:        intent.ID,
			RejectionCode:   code,
			RejectionReason: reason,
			Suggestion:      SuggestionFor(code),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to issue virtual card: %w", err)
	}

	if err := s.store.Vendors.RecordMerchant(ctx, agent.OrgID, req.MerchantName); err != nil {
		// The purchase already succeeded; a missed vendor record only means
		// the next purchase from this merchant may be flagged again.
		s.logger.Warn("failed to record merchant",
			zap.String("org_id", agent.OrgID.String()),
			zap.String("merchant", req.MerchantName),
			zap.Error(err))
	}

	s.audit(ctx, agent, models.AuditActionCardIssued, intent.ID, map[string]interface{}{
		"card_id":  card.ID,
		"merchant": req.MerchantName,
		"amount":   req.Amount,
	})

	return &Result{
		Status:   models.IntentStatusApproved,
		IntentID: intent.ID,
		Card:     card,
	}, nil
}

// audit records a best-effort audit entry; failures are logged, never fatal
func (s *Service) audit(ctx context.Context, agent *models.Agent, action models.AuditAction, intentID uuid.UUID, details map[string]interface{}) {
	entry := models.NewAuditLog(agent.OrgID, agent.ID, action).
		WithIntent(intentID).
		WithDetails(details)
	if err := s.store.AuditLogs.Insert(ctx, entry); err != nil {
		s.logger.Warn("failed to write audit log",
			zap.String("action", string(action)),
			zap.Error(err))
	}
}
