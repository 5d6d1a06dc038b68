package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/store"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/tasks"
)

// ListParams narrows and orders a task listing. Nil filters are not applied.
type ListParams struct {
	Title       *string
	Description *string
	IsDone      *bool
	SortBy      string
	SortOrder   store.SortOrder
	Page        int
	Size        int
}

// TaskService manages tasks on behalf of their owner. A task that exists but
// belongs to someone else is indistinguishable from a missing one.
type TaskService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewTaskService(db *sql.DB, m repomanager.RepositoryManager) *TaskService {
	return &TaskService{db: db, repomanager: m}
}

func (s *TaskService) repo(ctx context.Context) tasks.Repository {
	return s.repomanager.Tasks(dbx.Executor(ctx, s.db))
}

// List returns one page of the owner's tasks and the total number matching
// the filters.
func (s *TaskService) List(ctx context.Context, ownerID string, p ListParams) ([]*models.Task, int, error) {
	filters := map[string]any{"user_id": ownerID}
	if p.Title != nil {
		filters["title"] = *p.Title
	}
	if p.Description != nil {
		filters["description"] = *p.Description
	}
	if p.IsDone != nil {
		filters["is_done"] = *p.IsDone
	}

	items, total, err := s.repo(ctx).FindAll(ctx, store.ListQuery{
		Filters:   filters,
		SortBy:    p.SortBy,
		SortOrder: p.SortOrder,
		Page:      p.Page,
		Size:      p.Size,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("error listing tasks: %w", err)
	}
	return items, total, nil
}

func (s *TaskService) Create(ctx context.Context, ownerID, title, description string, isDone bool) (*models.Task, error) {
	task, err := s.repo(ctx).Create(ctx, &models.Task{
		Title:       title,
		Description: description,
		IsDone:      isDone,
		UserID:      ownerID,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating task: %w", err)
	}
	return task, nil
}

// Get returns common.ErrorNotFound for missing and foreign tasks alike.
func (s *TaskService) Get(ctx context.Context, ownerID string, taskID int64) (*models.Task, error) {
	return s.owned(ctx, s.repo(ctx), ownerID, taskID)
}

// Update applies the fields set in patch to an owned task.
func (s *TaskService) Update(ctx context.Context, ownerID string, taskID int64, patch models.TaskPatch) (*models.Task, error) {
	repo := s.repo(ctx)

	task, err := s.owned(ctx, repo, ownerID, taskID)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return task, nil
	}

	updated, err := repo.Update(ctx, taskID, tasks.PatchAssignments(patch))
	if err != nil {
		return nil, fmt.Errorf("error updating task: %w", err)
	}
	if updated == nil {
		return nil, common.ErrorNotFound
	}
	return updated, nil
}

// Delete removes an owned task. Missing and foreign tasks are left alone
// without error.
func (s *TaskService) Delete(ctx context.Context, ownerID string, taskID int64) error {
	repo := s.repo(ctx)

	task, err := repo.FindByKey(ctx, taskID)
	if err != nil {
		return fmt.Errorf("error loading task: %w", err)
	}
	if task == nil || task.UserID != ownerID {
		return nil
	}
	if err := repo.Delete(ctx, taskID); err != nil {
		return fmt.Errorf("error deleting task: %w", err)
	}
	return nil
}

func (s *TaskService) owned(ctx context.Context, repo tasks.Repository, ownerID string, taskID int64) (*models.Task, error) {
	task, err := repo.FindByKey(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("error loading task: %w", err)
	}
	if task == nil || task.UserID != ownerID {
		return nil, common.ErrorNotFound
	}
	return task, nil
}
