// internal/utils/pagination.go
package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// sortColumns maps the sort keys clients may send to columns. Anything else
// falls back to created_at.
var sortColumns = map[string]string{
	"created_at":   "created_at",
	"modified_at":  "updated_at",
	"status":       "status",
	"company_name": "company_name",
}

type PaginationParams struct {
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
	Sort   string `json:"sort"`
	Order  string `json:"order"`
	Search string `json:"search"`
}

// Offset is the number of rows before the requested page.
func (p PaginationParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Descending reports whether newer rows come first.
func (p PaginationParams) Descending() bool {
	return p.Order != "asc"
}

type PaginationResult struct {
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	Total      int64       `json:"total"`
	TotalPages int         `json:"total_pages"`
	Data       interface{} `json:"data"`
}

// GetPaginationParams reads page, limit, sort, order and search from the
// query string, clamping out-of-range values to the defaults.
func GetPaginationParams(c *gin.Context) PaginationParams {
	params := PaginationParams{
		Page:   1,
		Limit:  defaultPageSize,
		Sort:   "created_at",
		Order:  "desc",
		Search: c.Query("search"),
	}
	if page, err := strconv.Atoi(c.Query("page")); err == nil && page > 0 {
		params.Page = page
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 && limit <= maxPageSize {
		params.Limit = limit
	}
	if _, ok := sortColumns[c.Query("sort")]; ok {
		params.Sort = c.Query("sort")
	}
	if c.Query("order") == "asc" {
		params.Order = "asc"
	}
	return params
}

// Paginate applies ordering, offset and limit to a listing query. The id is
// the tie breaker so pages stay stable across requests.
func Paginate(db *gorm.DB, params PaginationParams) *gorm.DB {
	column, ok := sortColumns[params.Sort]
	if !ok {
		column = "created_at"
	}
	direction := " DESC"
	if !params.Descending() {
		direction = " ASC"
	}
	return db.Order(column + direction).Order("id" + direction).
		Offset(params.Offset()).
		Limit(params.Limit)
}

func CreatePaginationResult(data interface{}, total int64, params PaginationParams) PaginationResult {
	totalPages := 0
	if params.Limit > 0 {
		totalPages = int((total + int64(params.Limit) - 1) / int64(params.Limit))
	}
	return PaginationResult{
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: totalPages,
		Data:       data,
	}
}

func SetPaginationHeaders(c *gin.Context, result PaginationResult) {
	c.Header("X-Total-Count", strconv.FormatInt(result.Total, 10))
	c.Header("X-Page", strconv.Itoa(result.Page))
	c.Header("X-Per-Page", strconv.Itoa(result.Limit))
	c.Header("X-Total-Pages", strconv.Itoa(result.TotalPages))
}
