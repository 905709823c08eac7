package persistence

import (
	"strings"

	"github.com/hostel/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" || !allowedFields[trimmed] {
		return defaultField
	}
	return trimmed
}

// InvoiceSortFields contains allowed sort fields for invoices
var InvoiceSortFields = map[string]bool{
	"created_at":     true,
	"updated_at":     true,
	"issue_date":     true,
	"due_date":       true,
	"invoice_number": true,
	"total_amount":   true,
	"due_amount":     true,
	"status":         true,
}

// RefundSortFields contains allowed sort fields for refund requests
var RefundSortFields = map[string]bool{
	"created_at":   true,
	"updated_at":   true,
	"requested_at": true,
	"amount":       true,
	"state":        true,
}

// paginate applies ordering, offset and limit from a normalized filter.
// id is appended as a tie-breaker so pages are stable.
func paginate(query *gorm.DB, filter shared.Filter, allowed map[string]bool, defaultField string) *gorm.DB {
	filter = filter.Normalize()
	field := ValidateSortField(filter.OrderBy, allowed, defaultField)
	dir := ValidateSortOrder(filter.OrderDir)
	return query.
		Order(field + " " + dir).
		Order("id " + dir).
		Offset(filter.Offset()).
		Limit(filter.PageSize)
}
