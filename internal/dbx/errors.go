package dbx

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes we care about.
const (
	codeUniqueViolation = "23505"
	// class 23 covers all integrity constraint violations
	classIntegrityConstraint = "23"
)

// TranslateError maps integrity-constraint failures reported by PostgreSQL
// to common.ErrorConstraintViolation, keeping the constraint name in the
// message and the driver error in the chain. Any other error is returned
// unchanged.
func TranslateError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	if !strings.HasPrefix(pgErr.Code, classIntegrityConstraint) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", common.ErrorConstraintViolation, pgErr.ConstraintName, pgErr)
}

// IsUniqueViolation reports whether err is a PostgreSQL unique_violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}
