// Package store defines the generic record store used by every entity
// repository: keyed CRUD plus filtered, sorted and paginated listing.
//
// Each entity describes itself once with a Schema (table, columns, scan
// function, and the allow-lists of updatable, filterable and sortable
// fields). PostgresStore turns a Schema into a Repository.
package store

import "context"

// SortOrder is the direction applied to ListQuery.SortBy.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// ListQuery selects one page of records.
//
// Filters are matched only for names the schema allow-lists; unknown names
// and nil values are ignored. An unknown SortBy disables ordering rather than
// failing. Page is 1-based; Page and Size below 1 are treated as 1.
type ListQuery struct {
	Filters   map[string]any
	SortBy    string
	SortOrder SortOrder
	Page      int
	Size      int
}

// Offset returns the number of rows skipped before the page starts.
func (q ListQuery) Offset() int {
	return (q.page() - 1) * q.size()
}

func (q ListQuery) page() int {
	if q.Page < 1 {
		return 1
	}
	return q.Page
}

func (q ListQuery) size() int {
	if q.Size < 1 {
		return 1
	}
	return q.Size
}

// Assignments maps column names to new values for a partial update.
type Assignments map[string]any

// Repository is keyed CRUD over entity E with key type K.
//
// Lookups that find nothing return (nil, nil); Delete of a missing key is
// not an error. Create reports unique and foreign-key violations as
// common.ErrorConstraintViolation.
type Repository[E any, K comparable] interface {
	Create(ctx context.Context, entity *E) (*E, error)
	FindByKey(ctx context.Context, key K) (*E, error)
	Update(ctx context.Context, key K, set Assignments) (*E, error)
	Delete(ctx context.Context, key K) error
	// FindAll returns the requested page and the number of records matching
	// the filters before pagination.
	FindAll(ctx context.Context, q ListQuery) ([]*E, int, error)
}
