package purchase

import "github.com/Roony-Pay/roony-mcp/models"

// rejectionSuggestions maps each rejection code to a fixed human-readable
// suggestion returned alongside the rejection.
var rejectionSuggestions = map[models.RejectionCode]string{
	models.RejectionAgentNotFound:         "Verify the agent is registered with your organization.",
	models.RejectionOverTransactionLimit:  "Split the purchase or ask an administrator to raise the per-transaction limit.",
	models.RejectionOverOrgMaxTransaction: "This exceeds the organization-wide transaction cap. Contact an administrator.",
	models.RejectionDailyLimitExceeded:    "The agent's daily limit is exhausted. Retry tomorrow or request a limit increase.",
	models.RejectionMonthlyLimitExceeded:  "The agent's monthly limit is exhausted. Retry next month or request a limit increase.",
	models.RejectionOrgBudgetExceeded:     "The organization's monthly budget is exhausted. Contact an administrator.",
	models.RejectionMerchantBlocked:       "This merchant is blocked for the agent. Use an approved alternative.",
	models.RejectionMerchantNotAllowed:    "The agent may only purchase from its allowed merchant list.",
	models.RejectionCategoryBlocked:       "Purchases in this category are blocked by organization policy.",
	models.RejectionNoPaymentMethod:       "The organization has no payment method configured. Add one before purchasing.",
	models.RejectionPolicyRejected:        "The agent is not currently allowed to make purchases.",
}

// SuggestionFor returns the fixed suggestion string for a rejection code
func SuggestionFor(code models.RejectionCode) string {
	if s, ok := rejectionSuggestions[code]; ok {
		return s
	}
	return "Contact your organization administrator."
}
