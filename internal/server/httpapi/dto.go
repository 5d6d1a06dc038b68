package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/store"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

type registerRequest struct {
	Email           string `json:"email" validate:"required,email,max=320"`
	Password        string `json:"password" validate:"required,max=1024"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,max=1024"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,max=320"`
	Password string `json:"password" validate:"required,max=1024"`
}

type userResponse struct {
	Email string `json:"email"`
}

type createTaskRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"required,max=2048"`
	IsDone      *bool  `json:"isDone" validate:"required"`
}

type updateTaskRequest struct {
	Title       *string `json:"title" validate:"omitnil,min=1,max=255"`
	Description *string `json:"description" validate:"omitnil,min=1,max=2048"`
	IsDone      *bool   `json:"isDone"`
}

func (r updateTaskRequest) patch() models.TaskPatch {
	return models.TaskPatch{Title: r.Title, Description: r.Description, IsDone: r.IsDone}
}

type taskResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IsDone      bool      `json:"isDone"`
	CreatedAt   time.Time `json:"createdAt"`
}

func newTaskResponse(t *models.Task) taskResponse {
	return taskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		IsDone:      t.IsDone,
		CreatedAt:   t.CreatedAt,
	}
}

type taskListResponse struct {
	Items []taskResponse `json:"items"`
	Total int            `json:"total"`
	Page  int            `json:"page"`
	Size  int            `json:"size"`
}

// listTasksQuery is GET /tasks after parsing; defaults are filled in before
// validation.
type listTasksQuery struct {
	Title     *string `json:"title" validate:"omitnil,max=255"`
	IsDone    *bool   `json:"isDone"`
	SortBy    string  `json:"sortBy" validate:"oneof=title description is_done created_at"`
	SortOrder string  `json:"sortOrder" validate:"oneof=asc desc"`
	Page      int     `json:"page" validate:"min=1"`
	Size      int     `json:"size" validate:"min=1,max=1000"`
}

func (q listTasksQuery) params() services.ListParams {
	return services.ListParams{
		Title:     q.Title,
		IsDone:    q.IsDone,
		SortBy:    q.SortBy,
		SortOrder: store.SortOrder(q.SortOrder),
		Page:      q.Page,
		Size:      q.Size,
	}
}

func parseListTasksQuery(values url.Values) (listTasksQuery, error) {
	q := listTasksQuery{SortBy: "created_at", SortOrder: "asc", Page: 1, Size: 50}

	if values.Has("title") {
		title := values.Get("title")
		q.Title = &title
	}
	if values.Has("isDone") {
		b, err := strconv.ParseBool(values.Get("isDone"))
		if err != nil {
			return q, badRequest("validation_error", "isDone: must be a boolean")
		}
		q.IsDone = &b
	}
	if v := values.Get("sortBy"); v != "" {
		q.SortBy = v
	}
	if v := values.Get("sortOrder"); v != "" {
		q.SortOrder = v
	}
	for name, dst := range map[string]*int{"page": &q.Page, "size": &q.Size} {
		if !values.Has(name) {
			continue
		}
		n, err := strconv.Atoi(values.Get(name))
		if err != nil {
			return q, badRequest("validation_error", name+": must be an integer")
		}
		*dst = n
	}
	return q, nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode reads a JSON body into dst and validates it.
func (h *Handler) decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("malformed_body", "request body is empty")
		}
		return badRequest("malformed_body", "request body is not valid JSON")
	}
	return h.validate.Struct(dst)
}
