package models

import "time"

// Task is a to-do item owned by a single user.
type Task struct {
	ID          int64
	Title       string
	Description string
	IsDone      bool
	CreatedAt   time.Time
	UserID      string
}

// TaskPatch carries a partial update; nil fields stay unchanged.
type TaskPatch struct {
	Title       *string
	Description *string
	IsDone      *bool
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.IsDone == nil
}
