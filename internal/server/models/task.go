package models

import "time"

// Task is a to-do item owned by a single user.
type Task struct {
	ID          int64
	Title       string
	Description *string
	IsCompleted bool
	OwnerID     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskPatch carries a partial update; nil fields are left unchanged.
type TaskPatch struct {
	Title       *string
	Description *string
	IsCompleted *bool
}

// Apply copies the set fields of p onto t.
func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = p.Description
	}
	if p.IsCompleted != nil {
		t.IsCompleted = *p.IsCompleted
	}
}
