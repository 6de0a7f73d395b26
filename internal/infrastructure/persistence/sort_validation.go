package persistence

import (
	"strings"
)

// ValidateSortOrder normalizes a sort direction to ASC or DESC,
// defaulting to DESC. Caller-supplied values are never interpolated
// into SQL without passing through here.
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "asc") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField checks a sort column against a whitelist, falling
// back to defaultField for anything unknown or empty.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" || !allowedFields[trimmed] {
		return defaultField
	}
	return trimmed
}

// PlanSortFields lists the columns plan listings may sort by.
var PlanSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"plan_number":  true,
	"status":       true,
	"total_amount": true,
	"paid_amount":  true,
}

// DraftSortFields lists the columns demand draft listings may sort by.
var DraftSortFields = map[string]bool{
	"id":                 true,
	"created_at":         true,
	"updated_at":         true,
	"draft_number":       true,
	"milestone_sequence": true,
	"amount":             true,
	"due_date":           true,
}
