package tasks

import (
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/store"
)

// Repository stores tasks keyed by their serial id. Ownership is not checked
// here; callers filter on user_id.
type Repository interface {
	store.Repository[models.Task, int64]
}

// PatchAssignments converts the fields present in p into store assignments.
func PatchAssignments(p models.TaskPatch) store.Assignments {
	set := store.Assignments{}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.IsDone != nil {
		set["is_done"] = *p.IsDone
	}
	return set
}
