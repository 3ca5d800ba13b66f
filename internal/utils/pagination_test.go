package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestGetPaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		query               string
		page, limit, offset int
	}{
		{"", 1, 50, 0},
		{"?page=3&limit=20", 3, 20, 40},
		{"?page=0&limit=1000", 1, 50, 0},
		{"?page=abc", 1, 50, 0},
	}
	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/x"+tc.query, nil)
		p := GetPaginationParams(c)
		assert.Equal(t, tc.page, p.Page, tc.query)
		assert.Equal(t, tc.limit, p.Limit, tc.query)
		assert.Equal(t, tc.offset, p.Offset, tc.query)
	}
}

func TestPaginationParams_Response(t *testing.T) {
	first := PaginationParams{Page: 1, Limit: 2, Offset: 0}
	assert.Equal(t, PaginationResponse{Page: 1, Limit: 2, Total: 3, HasMore: true}, first.Response(3))

	last := PaginationParams{Page: 2, Limit: 2, Offset: 2}
	assert.False(t, last.Response(3).HasMore)
	assert.False(t, first.Response(0).HasMore)
}
