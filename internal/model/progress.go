package model

import (
	"fmt"
	"maps"
	"slices"
	"time"
)

// TaskStatus is the progress state of a task.
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
	TaskStatusSkipped    TaskStatus = "skipped"
)

// Validate checks the status is a known one.
func (s TaskStatus) Validate() error {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone, TaskStatusSkipped:
		return nil
	}
	return fmt.Errorf("unknown task status %q: %w", s, ErrNotValid)
}

// TaskProgress is the progress record of a single task.
type TaskProgress struct {
	Status         TaskStatus `json:"status"`
	UserConfidence *float64   `json:"userConfidence,omitempty"`
	Notes          string     `json:"notes,omitempty"`
}

// ProgressMap is the per task progress keyed by task ID. Entries may reference
// tasks that no longer exist in the curriculum.
type ProgressMap map[string]TaskProgress

// Clone returns a deep copy of the progress map.
func (p ProgressMap) Clone() ProgressMap {
	if p == nil {
		return ProgressMap{}
	}

	cp := make(ProgressMap, len(p))
	for id, tp := range p {
		if tp.UserConfidence != nil {
			v := *tp.UserConfidence
			tp.UserConfidence = &v
		}
		cp[id] = tp
	}
	return cp
}

// IDsWithStatus returns the sorted task IDs that have the given status.
func (p ProgressMap) IDsWithStatus(status TaskStatus) []string {
	ids := []string{}
	for _, id := range slices.Sorted(maps.Keys(p)) {
		if p[id].Status == status {
			ids = append(ids, id)
		}
	}
	return ids
}

// Completed returns the set of task IDs marked as done.
func (p ProgressMap) Completed() map[string]bool {
	done := map[string]bool{}
	for id, tp := range p {
		if tp.Status == TaskStatusDone {
			done[id] = true
		}
	}
	return done
}

// UserProgress is the user progress document.
type UserProgress struct {
	TaskProgress       ProgressMap `json:"taskProgress"`
	HoursPerWeekTarget *float64    `json:"hoursPerWeekTarget,omitempty"`
	FocusAreas         []string    `json:"focusAreas,omitempty"`
	UpdatedAt          time.Time   `json:"-"`
}

// Clone returns a deep copy of the user progress.
func (u UserProgress) Clone() UserProgress {
	cp := u
	cp.TaskProgress = u.TaskProgress.Clone()
	if u.HoursPerWeekTarget != nil {
		v := *u.HoursPerWeekTarget
		cp.HoursPerWeekTarget = &v
	}
	cp.FocusAreas = slices.Clone(u.FocusAreas)
	return cp
}
