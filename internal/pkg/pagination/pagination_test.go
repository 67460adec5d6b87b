package pagination_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"libtrack/internal/pkg/pagination"
)

func TestNewParams_Clamps(t *testing.T) {
	p := pagination.NewParams(0, 1000)

	assert.Equal(t, 1, p.Page)
	assert.Equal(t, pagination.MaxLimit, p.Limit)
	assert.Equal(t, 0, p.Offset)

	assert.Equal(t, pagination.DefaultLimit, pagination.NewParams(3, -1).Limit)
}

func TestGetMeta(t *testing.T) {
	meta := pagination.GetMeta(pagination.NewParams(2, 3), 7)

	assert.Equal(t, 3, meta.TotalPages)
	assert.True(t, meta.HasNext)
	assert.True(t, meta.HasPrev)
}

func TestSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}

	assert.Equal(t, []int{4, 5, 6}, pagination.Slice(items, pagination.NewParams(2, 3)))
	assert.Equal(t, []int{7}, pagination.Slice(items, pagination.NewParams(3, 3)))
	assert.Empty(t, pagination.Slice(items, pagination.NewParams(4, 3)))
}
