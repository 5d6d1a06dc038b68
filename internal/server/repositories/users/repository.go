package users

import (
	"context"

	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/store"
)

// Repository stores users keyed by their UUID string.
type Repository interface {
	store.Repository[models.User, string]
	// FindByEmail returns (nil, nil) when no user has that exact email.
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}
