// Package tasks provides the PostgreSQL-backed task repository.
package tasks

import (
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/store"
)

// Schema maps models.Task onto the tasks table. Title and description filter
// by substring; is_done and user_id by equality.
var Schema = &store.Schema[models.Task]{
	Table:   "tasks",
	Key:     "id",
	Columns: []string{"id", "title", "description", "is_done", "created_at", "user_id"},
	Scan: func(sc store.Scanner) (*models.Task, error) {
		t := &models.Task{}
		if err := sc.Scan(&t.ID, &t.Title, &t.Description, &t.IsDone, &t.CreatedAt, &t.UserID); err != nil {
			return nil, err
		}
		return t, nil
	},
	Insert: func(t *models.Task) ([]string, []any) {
		return []string{"title", "description", "is_done", "user_id"},
			[]any{t.Title, t.Description, t.IsDone, t.UserID}
	},
	Updatable: []string{"title", "description", "is_done"},
	Filters: map[string]store.Predicate{
		"title":       store.Contains("title"),
		"description": store.Contains("description"),
		"is_done":     store.Equals("is_done"),
		"user_id":     store.Equals("user_id"),
	},
	Sortable: []string{"id", "title", "description", "is_done", "created_at", "user_id"},
}

type PostgresRepository struct {
	*store.PostgresStore[models.Task, int64]
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{PostgresStore: store.NewPostgresStore[models.Task, int64](db, Schema)}
}
