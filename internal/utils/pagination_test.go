package utils

import (
	"math"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contextWithQuery(query string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/api/tasks?"+query, nil)
	return c
}

func TestGetPaginationParams(t *testing.T) {
	tests := []struct {
		query string
		page  int
		limit int
	}{
		{"", 1, 10},
		{"page=3", 3, 10},
		{"page=2&limit=5", 2, 5},
		{"limit=1000", 1, 100},
		{"page=&limit=", 1, 10},
		{"page=9223372036854775807&limit=1", math.MaxInt64, 1},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			params, err := GetPaginationParams(contextWithQuery(tt.query))
			require.NoError(t, err)
			assert.Equal(t, tt.page, params.Page)
			assert.Equal(t, tt.limit, params.Limit)
		})
	}
}

func TestGetPaginationParams_Rejects(t *testing.T) {
	for _, query := range []string{"page=0", "page=-1", "page=abc", "limit=0", "limit=-5", "limit=ten", "page=1.5",
		"page=9223372036854775807", "page=9223372036854775807&limit=10", "page=99999999999999999999"} {
		t.Run(query, func(t *testing.T) {
			_, err := GetPaginationParams(contextWithQuery(query))

			var paginationErr *PaginationError
			require.ErrorAs(t, err, &paginationErr)
		})
	}
}

func TestOffsetFits(t *testing.T) {
	assert.True(t, OffsetFits(1, 100))
	assert.True(t, OffsetFits(math.MaxInt, 1))
	assert.True(t, OffsetFits(math.MaxInt/10+1, 10))
	assert.False(t, OffsetFits(math.MaxInt/10+2, 10))
	assert.False(t, OffsetFits(math.MaxInt, 100))
}
