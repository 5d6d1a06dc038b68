package httpapi

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/go-chi/chi/v5"
)

// taskID parses the {id} path segment. Non-numeric ids cannot name a task.
func taskID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		return 0, common.ErrorNotFound
	}
	return id, nil
}

func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request) error {
	q, err := parseListTasksQuery(r.URL.Query())
	if err != nil {
		return err
	}
	if err := h.validate.Struct(q); err != nil {
		return err
	}

	items, total, err := h.tasks.List(r.Context(), CurrentUser(r.Context()).ID, q.params())
	if err != nil {
		return err
	}

	resp := taskListResponse{
		Items: make([]taskResponse, 0, len(items)),
		Total: total,
		Page:  q.Page,
		Size:  q.Size,
	}
	for _, t := range items {
		resp.Items = append(resp.Items, newTaskResponse(t))
	}
	writeJSON(w, http.StatusOK, resp)
	return nil
}

func (h *Handler) createTask(w http.ResponseWriter, r *http.Request) error {
	var req createTaskRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}

	task, err := h.tasks.Create(r.Context(), CurrentUser(r.Context()).ID, req.Title, req.Description, *req.IsDone)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, newTaskResponse(task))
	return nil
}

func (h *Handler) getTask(w http.ResponseWriter, r *http.Request) error {
	id, err := taskID(r)
	if err != nil {
		return err
	}

	task, err := h.tasks.Get(r.Context(), CurrentUser(r.Context()).ID, id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, newTaskResponse(task))
	return nil
}

func (h *Handler) updateTask(w http.ResponseWriter, r *http.Request) error {
	id, err := taskID(r)
	if err != nil {
		return err
	}
	var req updateTaskRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}

	task, err := h.tasks.Update(r.Context(), CurrentUser(r.Context()).ID, id, req.patch())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, newTaskResponse(task))
	return nil
}

// deleteTask answers 204 whether or not the task existed.
func (h *Handler) deleteTask(w http.ResponseWriter, r *http.Request) error {
	id, err := taskID(r)
	if err != nil {
		w.WriteHeader(http.StatusNoContent)
		return nil
	}

	if err := h.tasks.Delete(r.Context(), CurrentUser(r.Context()).ID, id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
