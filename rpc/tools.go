package rpc

import (
	"github.com/google/uuid"

	"github.com/Roony-Pay/roony-mcp/models"
)

const (
	toolRequestPurchase  = "request_purchase"
	toolCheckBudget      = "check_budget"
	toolListTransactions = "list_transactions"
	toolGetPolicyInfo    = "get_policy_info"
)

// toolDescriptors lists every tool exposed via tools/list, in a stable order
var toolDescriptors = []ToolDescriptor{
	{
		Name:        toolRequestPurchase,
		Description: "Request a purchase on behalf of the calling agent. Returns approved, rejected, or pending_approval.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"amount":        map[string]interface{}{"type": "number", "exclusiveMinimum": 0},
				"currency":      map[string]interface{}{"type": "string", "minLength": 3, "maxLength": 3},
				"description":   map[string]interface{}{"type": "string", "maxLength": 500},
				"merchant_name": map[string]interface{}{"type": "string", "maxLength": 255},
				"merchant_url":  map[string]interface{}{"type": "string", "format": "uri"},
				"project_id":    map[string]interface{}{"type": "string", "maxLength": 128},
			},
			"required": []string{"amount", "currency", "description", "merchant_name"},
		},
	},
	{
		Name:        toolCheckBudget,
		Description: "Check the calling agent's remaining budget for a period.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"period": map[string]interface{}{"type": "string", "enum": []string{"daily", "monthly", "all"}},
			},
		},
	},
	{
		Name:        toolListTransactions,
		Description: "List the calling agent's recent purchase intents, most recent first.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"limit":  map[string]interface{}{"type": "integer", "minimum": 1, "maximum": 50},
				"status": map[string]interface{}{"type": "string", "enum": []string{"pending", "pending_approval", "approved", "rejected", "expired"}},
			},
		},
	},
	{
		Name:        toolGetPolicyInfo,
		Description: "Describe the spending policy currently applied to the calling agent.",
		InputSchema: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
		},
	},
}

// purchasePayload is the wire shape of a request_purchase result
type purchasePayload struct {
	Status          models.IntentStatus   `json:"status"`
	IntentID        uuid.UUID             `json:"intent_id"`
	RejectionCode   models.RejectionCode  `json:"rejection_code,omitempty"`
	RejectionReason string                `json:"rejection_reason,omitempty"`
	Suggestion      string                `json:"suggestion,omitempty"`
	ApprovalReason  models.ApprovalReason `json:"approval_reason,omitempty"`
	ApprovalDetail  string                `json:"approval_detail,omitempty"`
	Card            *models.VirtualCard   `json:"card,omitempty"`
}

// budgetPayload is the wire shape of a check_budget result. Fields outside
// the requested period are omitted.
type budgetPayload struct {
	AgentID             uuid.UUID `json:"agent_id"`
	Period              string    `json:"period"`
	DailyLimit          *float64  `json:"daily_limit,omitempty"`
	DailySpend          *float64  `json:"daily_spend,omitempty"`
	DailyRemaining      *float64  `json:"daily_remaining,omitempty"`
	MonthlyLimit        *float64  `json:"monthly_limit,omitempty"`
	MonthlySpend        *float64  `json:"monthly_spend,omitempty"`
	MonthlyRemaining    *float64  `json:"monthly_remaining,omitempty"`
	PerTransactionLimit *float64  `json:"per_transaction_limit,omitempty"`
	ApprovalThreshold   *float64  `json:"approval_threshold,omitempty"`
}

// transactionsPayload is the wire shape of a list_transactions result
type transactionsPayload struct {
	Transactions []*models.PurchaseIntent `json:"transactions"`
	Count        int                      `json:"count"`
}

// orgPolicyPayload describes the organization-level rules within policy info
type orgPolicyPayload struct {
	MonthlyBudget  *float64           `json:"monthly_budget,omitempty"`
	AlertThreshold float64            `json:"alert_threshold"`
	Guardrails     *models.Guardrails `json:"guardrails,omitempty"`
}

// policyPayload is the wire shape of a get_policy_info result
type policyPayload struct {
	AgentID             uuid.UUID          `json:"agent_id"`
	Status              models.AgentStatus `json:"status"`
	MonthlyLimit        *float64           `json:"monthly_limit,omitempty"`
	DailyLimit          *float64           `json:"daily_limit,omitempty"`
	PerTransactionLimit *float64           `json:"per_transaction_limit,omitempty"`
	ApprovalThreshold   *float64           `json:"approval_threshold,omitempty"`
	AllowedMerchants    []string           `json:"allowed_merchants,omitempty"`
	BlockedMerchants    []string           `json:"blocked_merchants,omitempty"`
	FlagNewVendors      bool               `json:"flag_new_vendors"`
	Organization        orgPolicyPayload   `json:"organization"`
}
