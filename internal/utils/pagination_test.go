package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func paramsFor(query string) PaginationParams {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request, _ = http.NewRequest(http.MethodGet, "/v1/applications?"+query, nil)
	return GetPaginationParams(c)
}

func TestGetPaginationParamsDefaults(t *testing.T) {
	params := paramsFor("")
	assert.Equal(t, PaginationParams{Page: 1, Limit: 20, Sort: "created_at", Order: "desc"}, params)
	assert.Equal(t, 0, params.Offset())
	assert.True(t, params.Descending())
}

func TestGetPaginationParamsClampsAndAllowsKnownSorts(t *testing.T) {
	params := paramsFor("page=3&limit=10&sort=modified_at&order=asc&search=oy")
	assert.Equal(t, PaginationParams{Page: 3, Limit: 10, Sort: "modified_at", Order: "asc", Search: "oy"}, params)
	assert.Equal(t, 20, params.Offset())
	assert.False(t, params.Descending())

	params = paramsFor("page=-1&limit=500&sort=social_security_number&order=sideways")
	assert.Equal(t, PaginationParams{Page: 1, Limit: 20, Sort: "created_at", Order: "desc"}, params)
}

func TestCreatePaginationResult(t *testing.T) {
	params := PaginationParams{Page: 2, Limit: 20}
	assert.Equal(t, 3, CreatePaginationResult(nil, 41, params).TotalPages)
	assert.Equal(t, 2, CreatePaginationResult(nil, 40, params).TotalPages)
	assert.Equal(t, 0, CreatePaginationResult(nil, 0, params).TotalPages)
}
