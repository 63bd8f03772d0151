package persistence

import (
	"strings"

	"github.com/marketplace/backend/internal/domain/shared"
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

// ValidateSortField validates the sort field against a whitelist of allowed
// fields. Returns defaultField when the input is empty or not whitelisted.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed != "" && allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

var (
	VendorSortFields = map[string]bool{
		"created_at":      true,
		"updated_at":      true,
		"name":            true,
		"slug":            true,
		"commission_rate": true,
	}

	ProductSortFields = map[string]bool{
		"created_at":   true,
		"updated_at":   true,
		"name":         true,
		"base_price":   true,
		"product_type": true,
	}

	OrderSortFields = map[string]bool{
		"created_at":   true,
		"updated_at":   true,
		"order_number": true,
		"status":       true,
		"total":        true,
	}

	ApplicationSortFields = map[string]bool{
		"created_at": true,
		"updated_at": true,
		"store_name": true,
		"status":     true,
	}

	NotificationSortFields = map[string]bool{
		"created_at": true,
	}
)

// paginate applies whitelisted ordering plus offset pagination. The id
// tie-breaker keeps page boundaries stable when sort values collide. table
// qualifies the columns when the query joins other tables.
func paginate(query *gorm.DB, filter shared.Filter, allowed map[string]bool, table string) *gorm.DB {
	prefix := ""
	if table != "" {
		prefix = table + "."
	}
	field := ValidateSortField(filter.OrderBy, allowed, "created_at")
	query = query.Order(prefix + field + " " + ValidateSortOrder(filter.OrderDir)).Order(prefix + "id")
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}

// likePattern builds a case-insensitive LIKE pattern that works on both
// postgres and sqlite.
func likePattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}
