package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter_WithPage(t *testing.T) {
	tests := []struct {
		name           string
		page, pageSize int
		wantPage       int
		wantSize       int
		wantOffset     int
	}{
		{"defaults kept", 0, 0, 1, DefaultPageSize, 0},
		{"third page", 3, 10, 3, 10, 20},
		{"oversized page clamped", 2, 5000, 2, MaxPageSize, MaxPageSize},
		{"negative ignored", -4, -1, 1, DefaultPageSize, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := DefaultFilter().WithPage(tt.page, tt.pageSize)
			assert.Equal(t, tt.wantPage, f.Page)
			assert.Equal(t, tt.wantSize, f.PageSize)
			assert.Equal(t, tt.wantOffset, f.Offset())
		})
	}
}

func TestNewPaginated_TotalPages(t *testing.T) {
	assert.Equal(t, 0, NewPaginated([]int{}, 0, 1, 20).TotalPages)
	assert.Equal(t, 1, NewPaginated([]int{1}, 1, 1, 20).TotalPages)
	assert.Equal(t, 1, NewPaginated(make([]int, 20), 20, 1, 20).TotalPages)
	assert.Equal(t, 2, NewPaginated(make([]int, 20), 21, 1, 20).TotalPages)
	assert.Equal(t, 0, NewPaginated([]int{}, 7, 1, 0).TotalPages)
}
