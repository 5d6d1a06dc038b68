package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/cryptox"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/store"
	tasksrepo "github.com/dmitrijs2005/taskkeeper/internal/server/repositories/tasks"
	usersrepo "github.com/dmitrijs2005/taskkeeper/internal/server/repositories/users"
	"github.com/jackc/pgx/v5/pgconn"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// fakeUsersRepo enforces email uniqueness under a mutex the way the users_email_key
// constraint does.
type fakeUsersRepo struct {
	mu        sync.Mutex
	byID      map[string]*models.User
	findErr   error
	createErr error
	updates   int
}

func newFakeUsersRepo(users ...*models.User) *fakeUsersRepo {
	r := &fakeUsersRepo{byID: map[string]*models.User{}}
	for _, u := range users {
		r.byID[u.ID] = u
	}
	return r
}

func (r *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	for _, existing := range r.byID {
		if existing.Email == u.Email {
			return nil, fmt.Errorf("db error: %w",
				dbx.TranslateError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}))
		}
	}
	cp := *u
	r.byID[u.ID] = &cp
	return &cp, nil
}

func (r *fakeUsersRepo) FindByKey(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUsersRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUsersRepo) Update(_ context.Context, id string, set store.Assignments) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	if h, ok := set["hashed_password"].(string); ok {
		u.HashedPassword = h
		r.updates++
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUsersRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
	return nil
}

func (r *fakeUsersRepo) FindAll(context.Context, store.ListQuery) ([]*models.User, int, error) {
	return nil, 0, errors.New("not used")
}

type fakeTasksRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*models.Task
	err    error

	lastQuery store.ListQuery
	deleted   []int64
}

func newFakeTasksRepo(tasks ...*models.Task) *fakeTasksRepo {
	r := &fakeTasksRepo{byID: map[int64]*models.Task{}}
	for _, t := range tasks {
		r.byID[t.ID] = t
		if t.ID > r.nextID {
			r.nextID = t.ID
		}
	}
	return r
}

func (r *fakeTasksRepo) Create(_ context.Context, t *models.Task) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	r.nextID++
	cp := *t
	cp.ID = r.nextID
	cp.CreatedAt = time.Date(2026, 1, 1, 0, 0, int(r.nextID), 0, time.UTC)
	r.byID[cp.ID] = &cp
	return &cp, nil
}

func (r *fakeTasksRepo) FindByKey(_ context.Context, id int64) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	t, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTasksRepo) Update(_ context.Context, id int64, set store.Assignments) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	if v, ok := set["title"].(string); ok {
		t.Title = v
	}
	if v, ok := set["description"].(string); ok {
		t.Description = v
	}
	if v, ok := set["is_done"].(bool); ok {
		t.IsDone = v
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTasksRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
	r.deleted = append(r.deleted, id)
	return nil
}

// FindAll applies user_id, title and is_done filters and orders by id.
func (r *fakeTasksRepo) FindAll(_ context.Context, q store.ListQuery) ([]*models.Task, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastQuery = q
	if r.err != nil {
		return nil, 0, r.err
	}

	var matched []*models.Task
	for _, t := range r.byID {
		if owner, ok := q.Filters["user_id"].(string); ok && t.UserID != owner {
			continue
		}
		if title, ok := q.Filters["title"].(string); ok && !strings.Contains(t.Title, title) {
			continue
		}
		if done, ok := q.Filters["is_done"].(bool); ok && t.IsDone != done {
			continue
		}
		cp := *t
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := len(matched)
	start := q.Offset()
	if start > total {
		start = total
	}
	end := start + q.Size
	if q.Size < 1 || end > total {
		end = total
	}
	return matched[start:end], total, nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	t *fakeTasksRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) usersrepo.Repository         { return m.u }
func (m *fakeRepoManager) Tasks(dbx.DBTX) tasksrepo.Repository         { return m.t }

func testHasher(t *testing.T) *cryptox.PasswordHasher {
	t.Helper()
	h, err := cryptox.NewPasswordHasher(cryptox.Argon2idParams{
		MemoryKiB:   1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("NewPasswordHasher: %v", err)
	}
	return h
}
