package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/cryptox"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/store"
	"github.com/google/uuid"
)

// IdentityService registers users and checks their credentials.
type IdentityService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      *cryptox.PasswordHasher
}

func NewIdentityService(db *sql.DB, m repomanager.RepositoryManager, hasher *cryptox.PasswordHasher) *IdentityService {
	return &IdentityService{db: db, repomanager: m, hasher: hasher}
}

// Register creates a user. The lookup by email is only a fast path: two
// concurrent registrations can both pass it, and the unique constraint on
// users.email then rejects the second insert.
func (s *IdentityService) Register(ctx context.Context, email, password, confirm string) (*models.User, error) {
	if password != confirm {
		return nil, fmt.Errorf("%w: passwords do not match", common.ErrorValidation)
	}

	repo := s.repomanager.Users(dbx.Executor(ctx, s.db))

	existing, err := repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: user with this email already exists", common.ErrorAlreadyExists)
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user, err := repo.Create(ctx, &models.User{
		ID:             uuid.NewString(),
		Email:          email,
		HashedPassword: hashed,
	})
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: user with this email already exists", common.ErrorAlreadyExists)
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return user, nil
}

// Authenticate returns the user owning email when password matches, and
// (nil, nil) otherwise. Unknown emails still pay for one hash verification.
// A hash produced by an older algorithm or weaker parameters is replaced
// before the user is returned.
func (s *IdentityService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	repo := s.repomanager.Users(dbx.Executor(ctx, s.db))

	user, err := repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	if user == nil {
		s.hasher.DummyVerify(password)
		return nil, nil
	}

	matched, upgraded, err := s.hasher.VerifyAndUpgrade(password, user.HashedPassword)
	if err != nil {
		if errors.Is(err, cryptox.ErrInvalidHash) {
			return nil, nil
		}
		return nil, fmt.Errorf("error verifying password: %w", err)
	}
	if !matched {
		return nil, nil
	}

	if upgraded != "" {
		updated, err := repo.Update(ctx, user.ID, store.Assignments{"hashed_password": upgraded})
		if err != nil {
			return nil, fmt.Errorf("error upgrading password hash: %w", err)
		}
		if updated != nil {
			user = updated
		}
	}
	return user, nil
}

// GetByID returns (nil, nil) when no such user exists.
func (s *IdentityService) GetByID(ctx context.Context, id string) (*models.User, error) {
	repo := s.repomanager.Users(dbx.Executor(ctx, s.db))
	user, err := repo.FindByKey(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	return user, nil
}
