package store

import "fmt"

// Scanner is implemented by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// Predicate renders the WHERE fragment for one filter value. placeholder is
// the positional parameter bound to the returned argument. ok=false drops
// the filter, e.g. when the value has the wrong type.
type Predicate func(placeholder string, value any) (clause string, arg any, ok bool)

// Equals matches column = value.
func Equals(column string) Predicate {
	return func(ph string, value any) (string, any, bool) {
		return fmt.Sprintf("%s = %s", column, ph), value, true
	}
}

// Contains matches rows whose text column contains value as a substring.
// Matching is exact and case-sensitive; LIKE wildcards in value have no
// special meaning.
func Contains(column string) Predicate {
	return func(ph string, value any) (string, any, bool) {
		s, ok := value.(string)
		if !ok {
			return "", nil, false
		}
		return fmt.Sprintf("strpos(%s, %s) > 0", column, ph), s, true
	}
}

// Schema describes how an entity maps onto a table.
type Schema[E any] struct {
	Table string
	Key   string
	// Columns are selected and returned in this order; Scan must read them
	// in the same order.
	Columns []string
	Scan    func(Scanner) (*E, error)
	// Insert returns the columns and values written by Create. Columns the
	// store fills in itself (serial keys, defaults) are left out.
	Insert    func(*E) (columns []string, values []any)
	Updatable []string
	Filters   map[string]Predicate
	Sortable  []string
}

func (s *Schema[E]) updatable(column string) bool {
	return contains(s.Updatable, column)
}

func (s *Schema[E]) sortable(column string) bool {
	return contains(s.Sortable, column)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
