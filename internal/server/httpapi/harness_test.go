package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/auth"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/ratelimit"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
	"github.com/stretchr/testify/require"
)

type fakeIdentity struct {
	mu        sync.Mutex
	byEmail   map[string]*models.User
	passwords map[string]string
	err       error
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{byEmail: map[string]*models.User{}, passwords: map[string]string{}}
}

func (f *fakeIdentity) Register(_ context.Context, email, password, confirm string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if password != confirm {
		return nil, fmt.Errorf("%w: passwords do not match", common.ErrorValidation)
	}
	if _, ok := f.byEmail[email]; ok {
		return nil, fmt.Errorf("%w: user with this email already exists", common.ErrorAlreadyExists)
	}
	u := &models.User{ID: fmt.Sprintf("user-%d", len(f.byEmail)+1), Email: email}
	f.byEmail[email] = u
	f.passwords[email] = password
	return u, nil
}

func (f *fakeIdentity) Authenticate(_ context.Context, email, password string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byEmail[email]
	if !ok || f.passwords[email] != password {
		return nil, nil
	}
	return u, nil
}

func (f *fakeIdentity) GetByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

type fakeTasks struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*models.Task
	last   services.ListParams
}

func newFakeTasks() *fakeTasks {
	return &fakeTasks{byID: map[int64]*models.Task{}}
}

func (f *fakeTasks) List(_ context.Context, ownerID string, p services.ListParams) ([]*models.Task, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = p
	var out []*models.Task
	for _, t := range f.byID {
		if t.UserID == ownerID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (f *fakeTasks) Create(_ context.Context, ownerID, title, description string, isDone bool) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	t := &models.Task{
		ID:          f.nextID,
		Title:       title,
		Description: description,
		IsDone:      isDone,
		CreatedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		UserID:      ownerID,
	}
	f.byID[t.ID] = t
	return t, nil
}

func (f *fakeTasks) Get(_ context.Context, ownerID string, id int64) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byID[id]
	if !ok || t.UserID != ownerID {
		return nil, common.ErrorNotFound
	}
	return t, nil
}

func (f *fakeTasks) Update(ctx context.Context, ownerID string, id int64, p models.TaskPatch) (*models.Task, error) {
	t, err := f.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.IsDone != nil {
		t.IsDone = *p.IsDone
	}
	return t, nil
}

func (f *fakeTasks) Delete(_ context.Context, ownerID string, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.byID[id]; ok && t.UserID == ownerID {
		delete(f.byID, id)
	}
	return nil
}

type testEnv struct {
	identity *fakeIdentity
	tasks    *fakeTasks
	metrics  *Metrics
	handler  *Handler
	router   http.Handler
}

type envOption func(*Deps)

func passthroughTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	identity := newFakeIdentity()
	secret := []byte("test-secret")
	sessions := services.NewSessionManager(identity,
		auth.NewCodec(secret, 15*time.Minute, auth.TokenTypeAccess),
		auth.NewCodec(secret, 7*24*time.Hour, auth.TokenTypeRefresh),
		services.DefaultCookieConfig(),
	)

	d := Deps{
		Identity: identity,
		Sessions: sessions,
		Tasks:    newFakeTasks(),
		Tx:       passthroughTx,
		Limiter:  ratelimit.Noop{},
		Metrics:  NewMetrics(),
		Logger:   discardLogger(),
	}
	for _, o := range opts {
		o(&d)
	}

	h := NewHandler(d)
	env := &testEnv{identity: identity, metrics: d.Metrics, handler: h, router: h.NewRouter(d.APIPrefix)}
	if ft, ok := d.Tasks.(*fakeTasks); ok {
		env.tasks = ft
	}
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// signIn registers and logs in a user, returning its session cookies.
func (e *testEnv) signIn(t *testing.T, email string) []*http.Cookie {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/auth/register",
		fmt.Sprintf(`{"email":%q,"password":"pw","passwordConfirm":"pw"}`, email))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = e.do(t, http.MethodPost, "/auth/login", fmt.Sprintf(`{"email":%q,"password":"pw"}`, email))
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	return rec.Result().Cookies()
}

func cookieNamed(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorDetail {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Error
}
