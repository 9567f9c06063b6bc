package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Page holds parsed pagination parameters.
type Page struct {
	Page  int
	Limit int
}

// Offset is the store-level offset for this page.
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// ParsePage reads `page` and `limit` query parameters, clamping both to
// sane bounds.
func ParsePage(c *gin.Context) Page {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return Page{Page: page, Limit: limit}
}

// Meta describes one page of a list response.
type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

// NewMeta computes pagination metadata: totalPages is ceil(total/limit),
// hasNext/hasPrev follow from the requested page.
func NewMeta(p Page, total int64) Meta {
	totalPages := int((total + int64(p.Limit) - 1) / int64(p.Limit))
	return Meta{
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    p.Page < totalPages,
		HasPrev:    p.Page > 1,
	}
}

// ListResponse is the envelope for paginated collections.
type ListResponse struct {
	Data interface{} `json:"data"`
	Meta Meta        `json:"meta"`
}

// List writes a paginated collection response.
func List(c *gin.Context, data interface{}, meta Meta) {
	OK(c, ListResponse{Data: data, Meta: meta})
}
