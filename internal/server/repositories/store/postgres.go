package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
)

// PostgresStore implements Repository for any Schema over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresStore[E any, K comparable] struct {
	db     dbx.DBTX
	schema *Schema[E]
}

// NewPostgresStore binds schema to db.
func NewPostgresStore[E any, K comparable](db dbx.DBTX, schema *Schema[E]) *PostgresStore[E, K] {
	return &PostgresStore[E, K]{db: db, schema: schema}
}

func (s *PostgresStore[E, K]) columns() string {
	return strings.Join(s.schema.Columns, ", ")
}

func (s *PostgresStore[E, K]) Create(ctx context.Context, entity *E) (*E, error) {
	cols, vals := s.schema.Insert(entity)

	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(
		`INSERT INTO %s (%s) VALUES (%s) RETURNING %s`,
		s.schema.Table, strings.Join(cols, ", "), strings.Join(placeholders, ", "), s.columns(),
	)

	created, err := s.schema.Scan(s.db.QueryRowContext(ctx, query, vals...))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", dbx.TranslateError(err))
	}
	return created, nil
}

func (s *PostgresStore[E, K]) FindByKey(ctx context.Context, key K) (*E, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, s.columns(), s.schema.Table, s.schema.Key)
	return s.FindOne(ctx, query, key)
}

// FindOne runs a single-row query built by the caller and scans it with the
// schema. A query returning no row yields (nil, nil).
func (s *PostgresStore[E, K]) FindOne(ctx context.Context, query string, args ...any) (*E, error) {
	e, err := s.schema.Scan(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

func (s *PostgresStore[E, K]) Update(ctx context.Context, key K, set Assignments) (*E, error) {
	names := make([]string, 0, len(set))
	for name := range set {
		if s.schema.updatable(name) {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return s.FindByKey(ctx, key)
	}
	sort.Strings(names)

	clauses := make([]string, len(names))
	args := make([]any, 0, len(names)+1)
	for i, name := range names {
		clauses[i] = fmt.Sprintf("%s = $%d", name, i+1)
		args = append(args, set[name])
	}
	args = append(args, key)

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE %s = $%d RETURNING %s`,
		s.schema.Table, strings.Join(clauses, ", "), s.schema.Key, len(args), s.columns())

	e, err := s.schema.Scan(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", dbx.TranslateError(err))
	}
	return e, nil
}

func (s *PostgresStore[E, K]) Delete(ctx context.Context, key K) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, s.schema.Table, s.schema.Key)
	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *PostgresStore[E, K]) FindAll(ctx context.Context, q ListQuery) ([]*E, int, error) {
	where, args := s.where(q.Filters)

	var total int
	countQuery := fmt.Sprintf(`SELECT count(*) FROM %s%s`, s.schema.Table, where)
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	args = append(args, q.size(), q.Offset())
	query := fmt.Sprintf(`SELECT %s FROM %s%s%s LIMIT $%d OFFSET $%d`,
		s.columns(), s.schema.Table, where, s.orderBy(q), len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	items := make([]*E, 0, q.size())
	for rows.Next() {
		e, err := s.schema.Scan(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("db error: %w", err)
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	return items, total, nil
}

// where renders the allow-listed filters in name order so the generated SQL
// is stable.
func (s *PostgresStore[E, K]) where(filters map[string]any) (string, []any) {
	names := make([]string, 0, len(filters))
	for name, value := range filters {
		if value == nil {
			continue
		}
		if _, ok := s.schema.Filters[name]; ok {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "", nil
	}
	sort.Strings(names)

	clauses := make([]string, 0, len(names))
	args := make([]any, 0, len(names))
	for _, name := range names {
		clause, arg, ok := s.schema.Filters[name](fmt.Sprintf("$%d", len(args)+1), filters[name])
		if !ok {
			continue
		}
		clauses = append(clauses, clause)
		args = append(args, arg)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (s *PostgresStore[E, K]) orderBy(q ListQuery) string {
	if !s.schema.sortable(q.SortBy) {
		return ""
	}
	dir := "ASC"
	if strings.EqualFold(string(q.SortOrder), string(Desc)) {
		dir = "DESC"
	}
	if q.SortBy == s.schema.Key {
		return fmt.Sprintf(" ORDER BY %s %s", q.SortBy, dir)
	}
	// ties are broken by key
	return fmt.Sprintf(" ORDER BY %s %s, %s %s", q.SortBy, dir, s.schema.Key, dir)
}
