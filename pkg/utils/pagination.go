package utils

import (
	"math"
	"strconv"
)

// Transaction history pages
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// PaginationParams holds pagination request parameters. Limit 0 means all rows.
type PaginationParams struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

// PaginationMeta holds pagination response metadata
type PaginationMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalCount int64 `json:"totalCount"`
	TotalPages int   `json:"totalPages"`
}

// GetPaginationParams normalizes page and limit without applying a default size
func GetPaginationParams(page, limit int) PaginationParams {
	if page < 1 {
		page = 1
	}
	if limit < 0 {
		limit = 0
	}
	return PaginationParams{Page: page, Limit: limit}
}

// ParsePagination reads raw query values. Missing or malformed values fall
// back to page 1 and DefaultPageLimit; limit is capped at MaxPageLimit.
func ParsePagination(page, limit string) PaginationParams {
	p, err := strconv.Atoi(page)
	if err != nil {
		p = 1
	}
	l, err := strconv.Atoi(limit)
	if err != nil || l < 1 {
		l = DefaultPageLimit
	}
	if l > MaxPageLimit {
		l = MaxPageLimit
	}
	return GetPaginationParams(p, l)
}

// CalculateOffset returns the SQL offset
func (p PaginationParams) CalculateOffset() int {
	if p.Page < 1 || p.Limit <= 0 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// CalculateMeta generates pagination metadata
func CalculateMeta(totalCount int64, page, limit int) PaginationMeta {
	if limit <= 0 {
		return PaginationMeta{Page: 1, Limit: int(totalCount), TotalCount: totalCount, TotalPages: 1}
	}
	return PaginationMeta{
		Page:       page,
		Limit:      limit,
		TotalCount: totalCount,
		TotalPages: int(math.Ceil(float64(totalCount) / float64(limit))),
	}
}
