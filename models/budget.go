package models

import "github.com/google/uuid"

// SpendPeriod represents the aggregation window for spend totals
type SpendPeriod string

const (
	PeriodDaily   SpendPeriod = "daily"
	PeriodMonthly SpendPeriod = "monthly"
)

// AgentBudget represents an agent's limits alongside its current spend
type AgentBudget struct {
	AgentID             uuid.UUID `json:"agent_id"`
	DailyLimit          *float64  `json:"daily_limit,omitempty"`
	MonthlyLimit        *float64  `json:"monthly_limit,omitempty"`
	PerTransactionLimit *float64  `json:"per_transaction_limit,omitempty"`
	ApprovalThreshold   *float64  `json:"approval_threshold,omitempty"`
	DailySpend          float64   `json:"daily_spend"`
	MonthlySpend        float64   `json:"monthly_spend"`
	DailyRemaining      *float64  `json:"daily_remaining,omitempty"`
	MonthlyRemaining    *float64  `json:"monthly_remaining,omitempty"`
}

// BudgetUtilization represents how much of the organization's monthly budget
// has been consumed
type BudgetUtilization struct {
	OrgID          uuid.UUID `json:"org_id"`
	MonthlyBudget  *float64  `json:"monthly_budget,omitempty"`
	MonthlySpend   float64   `json:"monthly_spend"`
	Utilization    float64   `json:"utilization"` // spent/budget, 0 when no budget set
	AlertThreshold float64   `json:"alert_threshold"`
	Alert          bool      `json:"alert"` // utilization crossed the alert threshold
}
