package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "DESC"},
		{"asc", "ASC"},
		{"  ASC  ", "ASC"},
		{"desc", "DESC"},
		{"ASC; DROP TABLE orders;--", "DESC"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortOrder(tt.input))
		})
	}
}

func TestValidateSortField(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty falls back", "", "created_at"},
		{"whitelisted", "order_number", "order_number"},
		{"trimmed", "  total ", "total"},
		{"case sensitive", "TOTAL", "created_at"},
		{"unknown column", "customer_phone", "created_at"},
		{"injection", "total; DROP TABLE orders;--", "created_at"},
		{"subquery", "id, (SELECT 1)", "created_at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortField(tt.input, OrderSortFields, "created_at"))
		})
	}
}

func TestSortFieldWhitelists_IncludeCreatedAt(t *testing.T) {
	for name, fields := range map[string]map[string]bool{
		"vendors":       VendorSortFields,
		"products":      ProductSortFields,
		"orders":        OrderSortFields,
		"applications":  ApplicationSortFields,
		"notifications": NotificationSortFields,
	} {
		assert.True(t, fields["created_at"], name)
	}
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%red shirt%", likePattern("  Red Shirt "))
}
