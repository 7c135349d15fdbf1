package dto

import (
	"time"

	"github.com/yukikurage/collab-api/internal/models"
	"github.com/yukikurage/collab-api/internal/taskstate"
	"github.com/yukikurage/collab-api/internal/utils"
)

// TaskAssignmentDTO represents a task assignment in API responses
type TaskAssignmentDTO struct {
	UserID uint64          `json:"user_id"`
	User   *UserDTO        `json:"user,omitempty"`
	Role   models.TaskRole `json:"role"`
}

// TaskDTO represents a task in API responses. DisplayStatus is OVERDUE for a
// task past its due date that is not done.
type TaskDTO struct {
	ID                uint64              `json:"id"`
	Title             string              `json:"title"`
	Description       string              `json:"description"`
	Status            models.TaskStatus   `json:"status"`
	DisplayStatus     models.TaskStatus   `json:"display_status"`
	DueDate           *time.Time          `json:"due_date"`
	CompletedAt       *time.Time          `json:"completed_at,omitempty"`
	CompletionComment *string             `json:"completion_comment,omitempty"`
	OwnerID           uint64              `json:"owner_id"`
	ProjectID         uint64              `json:"project_id"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
	Owner             *UserDTO            `json:"owner,omitempty"`
	Assignments       []TaskAssignmentDTO `json:"assignments,omitempty"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskDTO                `json:"tasks"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// GeneratedTaskDTO is an AI drafted task that has not been saved
type GeneratedTaskDTO struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date"`
}

// ToTaskDTO converts a Task model to TaskDTO, deriving the display status
// at now.
func ToTaskDTO(task models.Task, now time.Time) TaskDTO {
	dto := TaskDTO{
		ID:                task.ID,
		Title:             task.Title,
		Description:       task.Description,
		Status:            task.Status,
		DisplayStatus:     taskstate.DisplayStatus(&task, now),
		DueDate:           task.DueDate,
		CompletedAt:       task.CompletedAt,
		CompletionComment: task.CompletionComment,
		OwnerID:           task.OwnerID,
		ProjectID:         task.ProjectID,
		CreatedAt:         task.CreatedAt,
		UpdatedAt:         task.UpdatedAt,
	}

	// Include owner if preloaded
	if task.Owner.ID != 0 {
		owner := ToUserDTO(task.Owner)
		dto.Owner = &owner
	}

	// Include assignments if preloaded
	if len(task.Assignments) > 0 {
		dto.Assignments = make([]TaskAssignmentDTO, len(task.Assignments))
		for i, assignment := range task.Assignments {
			dto.Assignments[i] = TaskAssignmentDTO{
				UserID: assignment.UserID,
				Role:   assignment.Role,
			}
			if assignment.User.ID != 0 {
				user := ToUserDTO(assignment.User)
				dto.Assignments[i].User = &user
			}
		}
	}

	return dto
}

// ToTaskListResponse converts a page of tasks to TaskListResponse
func ToTaskListResponse(tasks []models.Task, params utils.PaginationParams, total int64, now time.Time) TaskListResponse {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task, now)
	}

	return TaskListResponse{
		Tasks:      items,
		Pagination: params.Response(total),
	}
}
