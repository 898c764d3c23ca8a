package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Roony-Pay/roony-mcp/utils"
)

// PurchaseArgs are the validated arguments for the request_purchase tool
type PurchaseArgs struct {
	Amount       float64 `json:"amount" validate:"required,gt=0"`
	Currency     string  `json:"currency" validate:"required,len=3"`
	Description  string  `json:"description" validate:"required,max=500"`
	MerchantName string  `json:"merchant_name" validate:"required,max=255"`
	MerchantURL  *string `json:"merchant_url,omitempty" validate:"omitempty,url"`
	ProjectID    *string `json:"project_id,omitempty" validate:"omitempty,max=128"`
}

// BudgetArgs are the validated arguments for the check_budget tool
type BudgetArgs struct {
	Period string `json:"period,omitempty" validate:"omitempty,oneof=daily monthly all"`
}

// ListTransactionsArgs are the validated arguments for the list_transactions tool
type ListTransactionsArgs struct {
	Limit  int    `json:"limit,omitempty" validate:"omitempty,gte=1,lte=50"`
	Status string `json:"status,omitempty" validate:"omitempty,oneof=pending pending_approval approved rejected expired"`
}

// decodeArgs strictly decodes tool arguments into dst and validates it.
// Unknown fields are rejected so that a misspelled argument never silently
// falls back to a default.
func decodeArgs(raw json.RawMessage, dst interface{}) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return utils.ValidateStruct(dst)
}
