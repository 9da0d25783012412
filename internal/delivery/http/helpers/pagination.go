package helpers

import (
	"net/http"
	"strconv"

	"eventhub/internal/domain"
)

// Pagination query parameter defaults and limits.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ParsePagination reads ?page= and ?page_size=. Missing or malformed values fall back
// to defaults; page_size is capped at MaxPageSize.
func ParsePagination(r *http.Request) domain.PaginationParams {
	q := r.URL.Query()
	p := domain.PaginationParams{
		Page:     positiveInt(q.Get("page"), DefaultPage),
		PageSize: positiveInt(q.Get("page_size"), DefaultPageSize),
	}
	return p.Bounded(DefaultPageSize, MaxPageSize)
}

func positiveInt(raw string, def int) int {
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return def
	}
	return v
}

// PaginationMeta describes the page returned in a list response.
// swagger:model PaginationMeta
type PaginationMeta struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	// Count is the number of items on this page; no total is computed.
	Count int `json:"count"`
}

func NewPaginationMeta(page, pageSize, count int) PaginationMeta {
	return PaginationMeta{Page: page, PageSize: pageSize, Count: count}
}
