// Package users provides the PostgreSQL-backed user repository.
package users

import (
	"context"

	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/store"
)

// Schema maps models.User onto the users table.
var Schema = &store.Schema[models.User]{
	Table:   "users",
	Key:     "id",
	Columns: []string{"id", "email", "hashed_password"},
	Scan: func(sc store.Scanner) (*models.User, error) {
		u := &models.User{}
		if err := sc.Scan(&u.ID, &u.Email, &u.HashedPassword); err != nil {
			return nil, err
		}
		return u, nil
	},
	Insert: func(u *models.User) ([]string, []any) {
		return []string{"id", "email", "hashed_password"}, []any{u.ID, u.Email, u.HashedPassword}
	},
	Updatable: []string{"hashed_password"},
	Filters: map[string]store.Predicate{
		"email": store.Equals("email"),
	},
	Sortable: []string{"id", "email"},
}

type PostgresRepository struct {
	*store.PostgresStore[models.User, string]
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{PostgresStore: store.NewPostgresStore[models.User, string](db, Schema)}
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query :=
		`SELECT id, email, hashed_password FROM users
		 WHERE email = $1
		 `
	return r.FindOne(ctx, query, email)
}
