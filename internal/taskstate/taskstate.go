// Package taskstate holds the task status lifecycle: TO_DO -> IN_PROGRESS ->
// DONE, where DONE is terminal and OVERDUE is only ever derived on read.
package taskstate

import (
	"fmt"
	"time"

	apierrors "github.com/yukikurage/collab-api/internal/errors"
	"github.com/yukikurage/collab-api/internal/models"
)

var transitions = map[models.TaskStatus][]models.TaskStatus{
	models.TaskStatusTodo:       {models.TaskStatusInProgress, models.TaskStatusDone},
	models.TaskStatusInProgress: {models.TaskStatusDone},
	models.TaskStatusDone:       {},
}

var ErrUnknownStatus = apierrors.Validation("status must be one of TO_DO, IN_PROGRESS, DONE")

// IsStored reports whether status is a value a task can hold.
func IsStored(status models.TaskStatus) bool {
	_, ok := transitions[status]
	return ok
}

// CanTransition reports whether a task in from may move to to.
func CanTransition(from, to models.TaskStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Validate returns nil when from -> to is legal. Requesting the current
// status is an error.
func Validate(from, to models.TaskStatus) error {
	if !IsStored(to) {
		return ErrUnknownStatus
	}
	if from == to {
		return apierrors.InvalidTaskState(fmt.Sprintf("task is already %s", to))
	}
	if !CanTransition(from, to) {
		return apierrors.InvalidTaskState(fmt.Sprintf("cannot change task status from %s to %s", from, to))
	}
	return nil
}

// Apply moves task to status to. Entering DONE stamps the completion time and
// stores comment; other transitions leave both untouched. task is not
// modified when the transition is rejected.
func Apply(task *models.Task, to models.TaskStatus, comment *string, now time.Time) error {
	if err := Validate(task.Status, to); err != nil {
		return err
	}

	task.Status = to
	if to == models.TaskStatusDone {
		completedAt := now
		task.CompletedAt = &completedAt
		task.CompletionComment = comment
	}
	return nil
}

// IsOverdue reports whether the task is past its due date and not done.
func IsOverdue(task *models.Task, now time.Time) bool {
	return task.DueDate != nil && now.After(*task.DueDate) && task.Status != models.TaskStatusDone
}

// DisplayStatus returns OVERDUE for overdue tasks and the stored status
// otherwise.
func DisplayStatus(task *models.Task, now time.Time) models.TaskStatus {
	if IsOverdue(task, now) {
		return models.TaskStatusOverdue
	}
	return task.Status
}
