// internal/utils/pagination.go
package utils

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type PaginationParams struct {
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
	Sort   string `json:"sort"`
	Search string `json:"search"`
}

type PaginationResult struct {
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	Total      int64       `json:"total"`
	TotalPages int         `json:"total_pages"`
	Data       interface{} `json:"data"`
}

func GetPaginationParams(c *gin.Context) PaginationParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageLimit)))

	params := PaginationParams{
		Page:   page,
		Limit:  limit,
		Sort:   c.DefaultQuery("sort", "newest"),
		Search: c.Query("search"),
	}
	return params.Normalize()
}

// Normalize clamps page and limit into their valid ranges.
func (p PaginationParams) Normalize() PaginationParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 || p.Limit > maxPageLimit {
		p.Limit = defaultPageLimit
	}
	return p
}

// Paginate returns the page of items selected by params.
func Paginate[T any](items []T, params PaginationParams) []T {
	params = params.Normalize()
	// compare pages before multiplying so a huge page cannot overflow
	pages := (len(items) + params.Limit - 1) / params.Limit
	if params.Page > pages {
		return []T{}
	}
	offset := (params.Page - 1) * params.Limit
	end := offset + params.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func CreatePaginationResult(data interface{}, total int64, params PaginationParams) PaginationResult {
	params = params.Normalize()
	totalPages := int(math.Ceil(float64(total) / float64(params.Limit)))

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
