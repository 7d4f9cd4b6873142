package store

import (
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// Page selects a window of a sorted listing. Page numbers start at 1.
type Page struct {
	Page  int
	Limit int
}

// Normalize clamps page and limit to usable values.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}

// Skip is the number of documents before the page.
func (p Page) Skip() int64 { return int64((p.Page - 1) * p.Limit) }

// Pagination describes a page of results for API responses.
type Pagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
	HasNextPage  bool  `json:"hasNextPage"`
	HasPrevPage  bool  `json:"hasPrevPage"`
}

// NewPagination computes page metadata for total matching documents.
func NewPagination(p Page, total int64) Pagination {
	p = p.Normalize()
	pages := int((total + int64(p.Limit) - 1) / int64(p.Limit))
	return Pagination{
		CurrentPage:  p.Page,
		TotalPages:   pages,
		TotalItems:   total,
		ItemsPerPage: p.Limit,
		HasNextPage:  p.Page < pages,
		HasPrevPage:  p.Page > 1,
	}
}

// userSearchFilter matches name, email or phone case-insensitively. The search
// text is matched literally.
func userSearchFilter(search string) bson.M {
	search = strings.TrimSpace(search)
	if search == "" {
		return bson.M{}
	}
	rx := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
	return bson.M{"$or": bson.A{
		bson.M{"name": rx},
		bson.M{"email": rx},
		bson.M{"phone": rx},
	}}
}
