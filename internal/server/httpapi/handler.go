// Package httpapi exposes the REST interface: authentication endpoints that
// manage session cookies, ownership-scoped task CRUD, and health, readiness
// and metrics probes.
package httpapi

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/ratelimit"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

type Identity interface {
	Register(ctx context.Context, email, password, confirm string) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
}

type Sessions interface {
	Login(user *models.User) ([]*http.Cookie, error)
	Refresh(ctx context.Context, refreshToken string) ([]*http.Cookie, error)
	Logout() []*http.Cookie
	ResolveCurrentUser(ctx context.Context, accessToken string, optional bool) (*models.User, error)
}

type Tasks interface {
	List(ctx context.Context, ownerID string, p services.ListParams) ([]*models.Task, int, error)
	Create(ctx context.Context, ownerID, title, description string, isDone bool) (*models.Task, error)
	Get(ctx context.Context, ownerID string, taskID int64) (*models.Task, error)
	Update(ctx context.Context, ownerID string, taskID int64, patch models.TaskPatch) (*models.Task, error)
	Delete(ctx context.Context, ownerID string, taskID int64) error
}

// TxRunner runs fn as one unit of work; fn's context carries the transaction.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// SQLTx runs units of work as database transactions on db.
func SQLTx(db *sql.DB) TxRunner {
	return func(ctx context.Context, fn func(ctx context.Context) error) error {
		return dbx.WithTx(ctx, db, nil, func(ctx context.Context, _ dbx.DBTX) error {
			return fn(ctx)
		})
	}
}

// Deps are the collaborators of the HTTP layer. Limiter, Metrics and Ready
// are optional.
type Deps struct {
	Identity  Identity
	Sessions  Sessions
	Tasks     Tasks
	Tx        TxRunner
	Ready     func(ctx context.Context) error
	Limiter   ratelimit.Limiter
	Metrics   *Metrics
	Logger    logging.Logger
	APIPrefix string

	// TrustProxyHeaders lets X-Forwarded-For / X-Real-IP replace the socket
	// address. Leave off unless a proxy in front overwrites them.
	TrustProxyHeaders bool
}

type Handler struct {
	identity Identity
	sessions Sessions
	tasks    Tasks
	tx       TxRunner
	ready    func(ctx context.Context) error
	limiter  ratelimit.Limiter
	metrics  *Metrics
	logger   logging.Logger
	validate *validator.Validate
	now      func() time.Time

	trustProxyHeaders bool
}

// handlerFunc is a handler whose error is rendered by the unit-of-work
// wrapper after rolling back.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

func NewHandler(d Deps) *Handler {
	h := &Handler{
		identity: d.Identity,
		sessions: d.Sessions,
		tasks:    d.Tasks,
		tx:       d.Tx,
		ready:    d.Ready,
		limiter:  d.Limiter,
		metrics:  d.Metrics,
		logger:   d.Logger.With("module", "httpapi"),
		validate: newValidator(),
		now:      time.Now,

		trustProxyHeaders: d.TrustProxyHeaders,
	}
	if h.limiter == nil {
		h.limiter = ratelimit.Noop{}
	}
	if h.metrics == nil {
		h.metrics = NewMetrics()
	}
	if h.ready == nil {
		h.ready = func(context.Context) error { return nil }
	}
	return h
}

// NewRouter builds the chi router. API routes are mounted under prefix when
// it is not empty; probes always live at the root.
func (h *Handler) NewRouter(prefix string) http.Handler {
	r := chi.NewRouter()
	if h.trustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(requestID, h.logRequests, h.metrics.Middleware, middleware.Recoverer)

	r.Get("/healthz", h.healthz)
	r.Get("/readyz", h.readyz)
	r.Method(http.MethodGet, "/metrics", h.metrics.Handler())

	if prefix == "" || prefix == "/" {
		r.Group(h.apiRoutes)
	} else {
		r.Route(prefix, h.apiRoutes)
	}
	return r
}

func (h *Handler) apiRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.With(h.rateLimit).Post("/register", h.unitOfWork(h.register))
		r.With(h.rateLimit).Post("/login", h.unitOfWork(h.login))
		r.Post("/refresh", h.unitOfWork(h.refresh))
		r.Get("/logout", h.logout)
		r.Get("/users/me", h.unitOfWork(h.authenticated(h.me)))
	})
	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", h.unitOfWork(h.authenticated(h.listTasks)))
		r.Post("/", h.unitOfWork(h.authenticated(h.createTask)))
		r.Get("/{id}", h.unitOfWork(h.authenticated(h.getTask)))
		r.Put("/{id}", h.unitOfWork(h.authenticated(h.updateTask)))
		r.Delete("/{id}", h.unitOfWork(h.authenticated(h.deleteTask)))
	})
}

// unitOfWork runs fn in one transaction. The response is buffered and only
// sent after commit; on any error the transaction rolls back and the error is
// rendered instead.
func (h *Handler) unitOfWork(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buf := newBufferedResponse()
		err := h.tx(r.Context(), func(ctx context.Context) error {
			return fn(buf, r.WithContext(ctx))
		})
		if err != nil {
			h.renderError(w, r, err)
			return
		}
		buf.flushTo(w)
	}
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := errorResponse(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(r.Context(), "request failed", "error", err, "request_id", RequestID(r.Context()))
	} else {
		h.logger.Debug(r.Context(), "request rejected", "error", err, "status", status)
	}
	writeError(w, status, detail)
}

type bufferedResponse struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newBufferedResponse() *bufferedResponse {
	return &bufferedResponse{header: http.Header{}}
}

func (b *bufferedResponse) Header() http.Header { return b.header }

func (b *bufferedResponse) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(p)
}

func (b *bufferedResponse) WriteHeader(status int) {
	if b.status == 0 {
		b.status = status
	}
}

func (b *bufferedResponse) flushTo(w http.ResponseWriter) {
	for k, v := range b.header {
		w.Header()[k] = v
	}
	status := b.status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write(b.body.Bytes())
}
