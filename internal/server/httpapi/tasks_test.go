package httpapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func accessCookie(t *testing.T, env *testEnv, email string) *http.Cookie {
	t.Helper()
	return cookieNamed(env.signIn(t, email), common.AccessTokenCookieName)
}

func TestTasks_RequireAuthentication(t *testing.T) {
	env := newTestEnv(t)

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/tasks", ""},
		{http.MethodPost, "/tasks", `{"title":"t","description":"d","isDone":false}`},
		{http.MethodGet, "/tasks/1", ""},
		{http.MethodPut, "/tasks/1", `{"isDone":true}`},
		{http.MethodDelete, "/tasks/1", ""},
	} {
		rec := env.do(t, tc.method, tc.path, tc.body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestTasks_CreateGetUpdateDelete(t *testing.T) {
	env := newTestEnv(t)
	alice := accessCookie(t, env, "alice@example.com")

	rec := env.do(t, http.MethodPost, "/tasks", `{"title":"buy milk","description":"2 litres","isDone":false}`, alice)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t,
		`{"id":1,"title":"buy milk","description":"2 litres","isDone":false,"createdAt":"2026-01-01T00:00:00Z"}`,
		rec.Body.String())

	rec = env.do(t, http.MethodGet, "/tasks/1", "", alice)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPut, "/tasks/1", `{"isDone":true}`, alice)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated taskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.True(t, updated.IsDone)
	assert.Equal(t, "buy milk", updated.Title)

	rec = env.do(t, http.MethodDelete, "/tasks/1", "", alice)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/tasks/1", "", alice)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, "/tasks/1", "", alice)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestTasks_ForeignTaskIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	alice := accessCookie(t, env, "alice@example.com")
	bob := accessCookie(t, env, "bob@example.com")

	rec := env.do(t, http.MethodPost, "/tasks", `{"title":"secret","description":"d","isDone":false}`, alice)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/tasks/1", "", bob)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPut, "/tasks/1", `{"title":"mine"}`, bob)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, "/tasks/1", "", bob)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, env.tasks.byID, int64(1))

	rec = env.do(t, http.MethodGet, "/tasks/abc", "", bob)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTasks_CreateValidation(t *testing.T) {
	env := newTestEnv(t)
	alice := accessCookie(t, env, "alice@example.com")

	long := make([]byte, 256)
	for i := range long {
		long[i] = 'x'
	}

	for name, body := range map[string]string{
		"empty title":    `{"title":"","description":"d","isDone":false}`,
		"long title":     `{"title":"` + string(long) + `","description":"d","isDone":false}`,
		"no description": `{"title":"t","isDone":false}`,
		"no isDone":      `{"title":"t","description":"d"}`,
		"wrong type":     `{"title":1,"description":"d"}`,
	} {
		rec := env.do(t, http.MethodPost, "/tasks", body, alice)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
	}
	assert.Empty(t, env.tasks.byID)
}

func TestTasks_UpdateValidation(t *testing.T) {
	env := newTestEnv(t)
	alice := accessCookie(t, env, "alice@example.com")

	rec := env.do(t, http.MethodPost, "/tasks", `{"title":"t","description":"d","isDone":false}`, alice)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPut, "/tasks/1", `{"title":""}`, alice)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "t", env.tasks.byID[1].Title)
}

func TestTasks_ListDefaultsAndParams(t *testing.T) {
	env := newTestEnv(t)
	alice := accessCookie(t, env, "alice@example.com")
	bob := accessCookie(t, env, "bob@example.com")

	env.do(t, http.MethodPost, "/tasks", `{"title":"a","description":"d","isDone":false}`, alice)
	env.do(t, http.MethodPost, "/tasks", `{"title":"b","description":"d","isDone":true}`, alice)
	env.do(t, http.MethodPost, "/tasks", `{"title":"c","description":"d","isDone":false}`, bob)

	rec := env.do(t, http.MethodGet, "/tasks", "", alice)
	require.Equal(t, http.StatusOK, rec.Code)
	var list taskListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 2, list.Total)
	assert.Equal(t, 1, list.Page)
	assert.Equal(t, 50, list.Size)
	assert.Len(t, list.Items, 2)
	assert.Equal(t, "created_at", env.tasks.last.SortBy)
	assert.Equal(t, store.Asc, env.tasks.last.SortOrder)
	assert.Nil(t, env.tasks.last.Title)
	assert.Nil(t, env.tasks.last.IsDone)

	rec = env.do(t, http.MethodGet, "/tasks?title=a&isDone=false&sortBy=title&sortOrder=desc&page=2&size=10", "", alice)
	require.Equal(t, http.StatusOK, rec.Code)
	p := env.tasks.last
	require.NotNil(t, p.Title)
	assert.Equal(t, "a", *p.Title)
	require.NotNil(t, p.IsDone)
	assert.False(t, *p.IsDone)
	assert.Equal(t, "title", p.SortBy)
	assert.Equal(t, store.Desc, p.SortOrder)
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, 10, p.Size)
}

func TestTasks_ListEmptyIsArray(t *testing.T) {
	env := newTestEnv(t)
	alice := accessCookie(t, env, "alice@example.com")

	rec := env.do(t, http.MethodGet, "/tasks", "", alice)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[],"total":0,"page":1,"size":50}`, rec.Body.String())
}

func TestTasks_ListRejectsBadQuery(t *testing.T) {
	env := newTestEnv(t)
	alice := accessCookie(t, env, "alice@example.com")

	for _, q := range []string{
		"sortBy=user_id",
		"sortBy=password",
		"sortOrder=sideways",
		"page=0",
		"size=0",
		"page=one",
		"isDone=maybe",
	} {
		rec := env.do(t, http.MethodGet, "/tasks?"+q, "", alice)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
		assert.Equal(t, "validation_error", decodeError(t, rec).Code, q)
	}
}
