package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Roony-Pay/roony-mcp/models"
	"github.com/Roony-Pay/roony-mcp/repositories"
	"github.com/Roony-Pay/roony-mcp/services/budget"
	"github.com/Roony-Pay/roony-mcp/services/purchase"
	"github.com/Roony-Pay/roony-mcp/utils"
)

const (
	serverName    = "roony-mcp"
	serverVersion = "1.0.0"
)

type ctxKey int

const agentIDKey ctxKey = iota

// WithAgentID attaches the calling agent's identity to the context
func WithAgentID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, agentIDKey, id)
}

// AgentIDFromContext extracts the calling agent's identity, if present
func AgentIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(agentIDKey).(uuid.UUID)
	return id, ok
}

// Router dispatches JSON-RPC requests to the purchase and budget services.
// It owns no policy logic; it validates arguments, resolves the calling
// agent, and formats responses.
type Router struct {
	purchases *purchase.Service
	budgets   *budget.Service
	store     *repositories.Store
	logger    *zap.Logger
}

// NewRouter creates a new RPC router
func NewRouter(purchases *purchase.Service, budgets *budget.Service, store *repositories.Store, logger *zap.Logger) *Router {
	return &Router{
		purchases: purchases,
		budgets:   budgets,
		store:     store,
		logger:    logger,
	}
}

// ServeHTTP decodes one JSON-RPC request per HTTP POST and writes the
// response. Notifications get 202 with an empty body.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	var rpcReq Request
	if err := json.NewDecoder(req.Body).Decode(&rpcReq); err != nil {
		_ = utils.WriteJSON(w, http.StatusOK, NewErrorResponse(nil, CodeParseError, "parse error", err.Error()))
		return
	}

	resp := r.Handle(req.Context(), &rpcReq)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	if err := utils.WriteJSON(w, http.StatusOK, resp); err != nil {
		r.logger.Error("failed to write rpc response", zap.Error(err))
	}
}

// Handle processes one JSON-RPC request. Returns nil for notifications.
func (r *Router) Handle(ctx context.Context, req *Request) *Response {
	if req.JSONRPC != jsonrpcVersion {
		if req.IsNotification() {
			return nil
		}
		return NewErrorResponse(req.ID, CodeInvalidRequest, "invalid request: jsonrpc must be \"2.0\"", nil)
	}

	switch req.Method {
	case "initialize":
		return NewResponse(req.ID, InitializeResult{
			ProtocolVersion: ProtocolVersion,
			ServerInfo:      ServerInfo{Name: serverName, Version: serverVersion},
			Capabilities:    map[string]interface{}{"tools": map[string]interface{}{}},
		})
	case "notifications/initialized":
		return nil
	case "tools/list":
		return NewResponse(req.ID, ListToolsResult{Tools: toolDescriptors})
	case "tools/call":
		return r.handleToolCall(ctx, req)
	default:
		if req.IsNotification() {
			return nil
		}
		return NewErrorResponse(req.ID, CodeMethodNotFound, "method not found: "+req.Method, nil)
	}
}

func (r *Router) handleToolCall(ctx context.Context, req *Request) *Response {
	var params CallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return NewErrorResponse(req.ID, CodeInvalidParams, "invalid params", err.Error())
	}
	if params.Name == "" {
		return NewErrorResponse(req.ID, CodeInvalidParams, "invalid params: tool name is required", nil)
	}

	var (
		result *ToolResult
		err    error
	)
	switch params.Name {
	case toolRequestPurchase:
		result, err = r.callRequestPurchase(ctx, params.Arguments)
	case toolCheckBudget:
		result, err = r.callCheckBudget(ctx, params.Arguments)
	case toolListTransactions:
		result, err = r.callListTransactions(ctx, params.Arguments)
	case toolGetPolicyInfo:
		result, err = r.callGetPolicyInfo(ctx, params.Arguments)
	default:
		return NewErrorResponse(req.ID, CodeMethodNotFound, "unknown tool: "+params.Name, nil)
	}
	if err != nil {
		r.logger.Error("tool call failed",
			zap.String("tool", params.Name),
			zap.Error(err))
		return NewErrorResponse(req.ID, CodeInternalError, "internal error", nil)
	}

	return NewResponse(req.ID, result)
}

func (r *Router) callRequestPurchase(ctx context.Context, raw json.RawMessage) (*ToolResult, error) {
	agentID, ok := AgentIDFromContext(ctx)
	if !ok {
		return missingIdentity(), nil
	}

	var args PurchaseArgs
	if err := decodeArgs(raw, &args); err != nil {
		return validationError(err), nil
	}

	res, err := r.purchases.RequestPurchase(ctx, purchase.Request{
		AgentID:      agentID,
		Amount:       args.Amount,
		Currency:     args.Currency,
		Description:  args.Description,
		MerchantName: args.MerchantName,
		MerchantURL:  args.MerchantURL,
		ProjectID:    args.ProjectID,
	})
	if err != nil {
		return nil, err
	}

	return textResult(purchasePayload{
		Status:          res.Status,
		IntentID:        res.IntentID,
		RejectionCode:   res.RejectionCode,
		RejectionReason: res.RejectionReason,
		Suggestion:      res.Suggestion,
		ApprovalReason:  res.ApprovalReason,
		ApprovalDetail:  res.ApprovalDetail,
		Card:            res.Card,
	})
}

func (r *Router) callCheckBudget(ctx context.Context, raw json.RawMessage) (*ToolResult, error) {
	agentID, ok := AgentIDFromContext(ctx)
	if !ok {
		return missingIdentity(), nil
	}

	var args BudgetArgs
	if err := decodeArgs(raw, &args); err != nil {
		return validationError(err), nil
	}
	period := args.Period
	if period == "" {
		period = "all"
	}

	b, err := r.budgets.GetAgentBudget(ctx, agentID)
	if errors.Is(err, repositories.ErrNotFound) {
		return toolError("agent not found", nil), nil
	}
	if err != nil {
		return nil, err
	}

	payload := budgetPayload{AgentID: agentID, Period: period}
	if period == "daily" || period == "all" {
		payload.DailyLimit = b.DailyLimit
		payload.DailySpend = &b.DailySpend
		payload.DailyRemaining = b.DailyRemaining
	}
	if period == "monthly" || period == "all" {
		payload.MonthlyLimit = b.MonthlyLimit
		payload.MonthlySpend = &b.MonthlySpend
		payload.MonthlyRemaining = b.MonthlyRemaining
	}
	if period == "all" {
		payload.PerTransactionLimit = b.PerTransactionLimit
		payload.ApprovalThreshold = b.ApprovalThreshold
	}

	return textResult(payload)
}

func (r *Router) callListTransactions(ctx context.Context, raw json.RawMessage) (*ToolResult, error) {
	agentID, ok := AgentIDFromContext(ctx)
	if !ok {
		return missingIdentity(), nil
	}

	var args ListTransactionsArgs
	if err := decodeArgs(raw, &args); err != nil {
		return validationError(err), nil
	}

	filter := repositories.IntentFilter{Limit: args.Limit}
	if filter.Limit == 0 {
		filter.Limit = 20
	}
	if args.Status != "" {
		status := models.IntentStatus(args.Status)
		filter.Status = &status
	}

	intents, err := r.store.Intents.ListByAgent(ctx, agentID, filter)
	if err != nil {
		return nil, err
	}

	return textResult(transactionsPayload{
		Transactions: intents,
		Count:        len(intents),
	})
}

func (r *Router) callGetPolicyInfo(ctx context.Context, raw json.RawMessage) (*ToolResult, error) {
	agentID, ok := AgentIDFromContext(ctx)
	if !ok {
		return missingIdentity(), nil
	}

	var args struct{}
	if err := decodeArgs(raw, &args); err != nil {
		return validationError(err), nil
	}

	agent, err := r.store.Agents.GetByID(ctx, agentID)
	if errors.Is(err, repositories.ErrNotFound) {
		return toolError("agent not found", nil), nil
	}
	if err != nil {
		return nil, err
	}

	org, err := r.store.Organizations.GetByID(ctx, agent.OrgID)
	if errors.Is(err, repositories.ErrNotFound) {
		return toolError("organization not found for agent", nil), nil
	}
	if err != nil {
		return nil, err
	}

	return textResult(policyPayload{
		AgentID:             agent.ID,
		Status:              agent.Status,
		MonthlyLimit:        agent.MonthlyLimit,
		DailyLimit:          agent.DailyLimit,
		PerTransactionLimit: agent.PerTransactionLimit,
		ApprovalThreshold:   agent.ApprovalThreshold,
		AllowedMerchants:    agent.AllowedMerchants,
		BlockedMerchants:    agent.BlockedMerchants,
		FlagNewVendors:      agent.FlagNewVendors,
		Organization: orgPolicyPayload{
			MonthlyBudget:  org.MonthlyBudget,
			AlertThreshold: org.EffectiveAlertThreshold(),
			Guardrails:     org.Guardrails,
		},
	})
}

func missingIdentity() *ToolResult {
	return toolError("agent identity missing: set the X-Agent-ID header", nil)
}

func validationError(err error) *ToolResult {
	if utils.IsValidationError(err) {
		return toolError(err.Error(), utils.GetValidationFields(err))
	}
	return toolError(err.Error(), nil)
}
