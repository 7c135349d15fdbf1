package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/collab-api/internal/authz"
	"github.com/yukikurage/collab-api/internal/constants"
	"github.com/yukikurage/collab-api/internal/logging"
	"github.com/yukikurage/collab-api/internal/models"
	"github.com/yukikurage/collab-api/internal/repository"
	"github.com/yukikurage/collab-api/internal/taskstate"
	"github.com/yukikurage/collab-api/internal/utils"
)

// Relations loaded for a task before it is authorized or returned.
var taskPreloads = []string{"Owner", "Project", "Assignments", "Assignments.User"}

// TaskService handles task business logic
type TaskService struct {
	store repository.Transactor
	ai    TaskGenerator
	log   logrus.FieldLogger

	Now func() time.Time
}

// NewTaskService creates a new TaskService. ai may be nil when task
// generation is not configured.
func NewTaskService(store repository.Transactor, ai TaskGenerator, log logrus.FieldLogger) *TaskService {
	return &TaskService{
		store: store,
		ai:    ai,
		log:   logging.OrDiscard(log),
		Now:   time.Now,
	}
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	ProjectID    uint64
	UserID       uint64
	Status       *models.TaskStatus
	AssignedToMe bool
	Overdue      bool
	Page         int
	PageSize     int
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	ProjectID   uint64
	OwnerID     uint64
	Title       string
	Description string
	DueDate     *time.Time
}

// UpdateTaskInput represents input for updating a task
type UpdateTaskInput struct {
	Title        *string
	Description  *string
	DueDate      *time.Time
	ClearDueDate bool
}

// ChangeStatusInput represents a status transition request
type ChangeStatusInput struct {
	TaskID  uint64
	UserID  uint64
	Status  models.TaskStatus
	Comment *string
}

// AssignmentInput names a user to assign and the task role to grant
type AssignmentInput struct {
	UserID uint64
	Role   models.TaskRole
}

// AssignUsersInput represents input for assigning users to a task
type AssignUsersInput struct {
	TaskID      uint64
	ActorID     uint64
	Assignments []AssignmentInput
}

func (s *TaskService) loadTask(ctx context.Context, repos repository.Repositories, taskID uint64) (*models.Task, *authz.TaskAuthorizer, error) {
	task, err := repos.Tasks.FindByID(ctx, taskID, taskPreloads...)
	if err != nil {
		return nil, nil, lookupError(err, ErrTaskNotFound, "task")
	}
	auth := authz.NewTaskAuthorizer(authz.NewResourceAuthorizer(models.ResourceProject, repos.Members))
	return task, auth, nil
}

// CreateTask creates a TO_DO task and the creator's OWNER assignment
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	var task *models.Task
	err := s.store.Transaction(ctx, func(repos repository.Repositories) error {
		project, err := repos.Projects.FindByID(ctx, input.ProjectID)
		if err != nil {
			return lookupError(err, ErrProjectNotFound, "project")
		}

		auth := authz.NewResourceAuthorizer(models.ResourceProject, repos.Members)
		if _, err := auth.CheckMembership(ctx, input.OwnerID, project); err != nil {
			return err
		}

		created := &models.Task{
			Title:       title,
			Description: input.Description,
			Status:      models.TaskStatusTodo,
			DueDate:     input.DueDate,
			OwnerID:     input.OwnerID,
			ProjectID:   project.ID,
		}
		if err := repos.Tasks.Create(ctx, created); err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}

		owner := []models.TaskAssignment{{TaskID: created.ID, UserID: input.OwnerID, Role: models.TaskRoleOwner}}
		if err := repos.Tasks.AddAssignments(ctx, owner); err != nil {
			return fmt.Errorf("failed to assign owner to task: %w", err)
		}

		task, err = repos.Tasks.FindByID(ctx, created.ID, taskPreloads...)
		if err != nil {
			return fmt.Errorf("failed to reload task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"task_id":    task.ID,
		"project_id": task.ProjectID,
		"user_id":    input.OwnerID,
	}).Info("Task created")

	return task, nil
}

// GetTask returns a task with related data. The caller must be a member of
// the task's project.
func (s *TaskService) GetTask(ctx context.Context, taskID, userID uint64) (*models.Task, error) {
	var task *models.Task

	err := s.store.Transaction(ctx, func(repos repository.Repositories) error {
		var (
			auth *authz.TaskAuthorizer
			err  error
		)
		task, auth, err = s.loadTask(ctx, repos, taskID)
		if err != nil {
			return err
		}
		_, err = auth.CheckView(ctx, userID, task)
		return err
	})
	if err != nil {
		return nil, err
	}

	return task, nil
}

// ListTasks returns tasks of a project. A status of OVERDUE selects overdue
// tasks instead of a stored status.
func (s *TaskService) ListTasks(ctx context.Context, input ListTasksInput) ([]models.Task, int64, error) {
	filter := repository.TaskFilter{
		ProjectID:  input.ProjectID,
		Pagination: utils.NewPaginationParams(input.Page, input.PageSize),
	}

	now := s.Now()
	if input.Status != nil {
		switch {
		case *input.Status == models.TaskStatusOverdue:
			input.Overdue = true
		case taskstate.IsStored(*input.Status):
			filter.Status = input.Status
		default:
			return nil, 0, taskstate.ErrUnknownStatus
		}
	}
	if input.Overdue {
		filter.OverdueAt = &now
	}
	if input.AssignedToMe {
		filter.AssignedUserID = &input.UserID
	}

	var (
		tasks []models.Task
		total int64
	)
	err := s.store.Transaction(ctx, func(repos repository.Repositories) error {
		project, err := repos.Projects.FindByID(ctx, input.ProjectID)
		if err != nil {
			return lookupError(err, ErrProjectNotFound, "project")
		}

		auth := authz.NewResourceAuthorizer(models.ResourceProject, repos.Members)
		if _, err := auth.CheckMembership(ctx, input.UserID, project); err != nil {
			return err
		}

		tasks, total, err = repos.Tasks.List(ctx, filter)
		if err != nil {
			return fmt.Errorf("failed to list tasks: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// UpdateTask updates the descriptive fields of a task. Status changes go
// through ChangeStatus.
func (s *TaskService) UpdateTask(ctx context.Context, taskID, userID uint64, input UpdateTaskInput) (*models.Task, error) {
	var task *models.Task

	err := s.store.Transaction(ctx, func(repos repository.Repositories) error {
		var (
			auth *authz.TaskAuthorizer
			err  error
		)
		task, auth, err = s.loadTask(ctx, repos, taskID)
		if err != nil {
			return err
		}
		if err := auth.CheckEdit(ctx, userID, task); err != nil {
			return err
		}

		if input.Title != nil {
			title := strings.TrimSpace(*input.Title)
			if title == "" {
				return ErrTitleRequired
			}
			task.Title = title
		}
		if input.Description != nil {
			task.Description = *input.Description
		}
		if input.ClearDueDate {
			task.DueDate = nil
		} else if input.DueDate != nil {
			task.DueDate = input.DueDate
		}

		if err := repos.Tasks.Update(ctx, task); err != nil {
			return writeError(err, ErrTaskNotFound, "update task")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"task_id": taskID,
		"user_id": userID,
	}).Info("Task updated")

	return task, nil
}

// DeleteTask deletes a task and its assignments
func (s *TaskService) DeleteTask(ctx context.Context, taskID, userID uint64) error {
	err := s.store.Transaction(ctx, func(repos repository.Repositories) error {
		task, auth, err := s.loadTask(ctx, repos, taskID)
		if err != nil {
			return err
		}
		if err := auth.CheckEdit(ctx, userID, task); err != nil {
			return err
		}

		if err := repos.Tasks.Delete(ctx, task.ID); err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"task_id": taskID,
		"user_id": userID,
	}).Info("Task deleted")
	return nil
}

// ChangeStatus moves a task through its lifecycle. The current status is read
// inside the transaction and the write only applies if it is unchanged.
func (s *TaskService) ChangeStatus(ctx context.Context, input ChangeStatusInput) (*models.Task, error) {
	var task *models.Task

	err := s.store.Transaction(ctx, func(repos repository.Repositories) error {
		var (
			auth *authz.TaskAuthorizer
			err  error
		)
		task, auth, err = s.loadTask(ctx, repos, input.TaskID)
		if err != nil {
			return err
		}
		if err := auth.CheckChangeStatus(ctx, input.UserID, task); err != nil {
			return err
		}

		from := task.Status
		if err := taskstate.Apply(task, input.Status, input.Comment, s.Now()); err != nil {
			return err
		}

		written, err := repos.Tasks.UpdateStatus(ctx, task, from)
		if err != nil {
			return fmt.Errorf("failed to update task status: %w", err)
		}
		if !written {
			return ErrStatusChangedConcurrently
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"task_id": input.TaskID,
		"user_id": input.UserID,
		"status":  task.Status,
	}).Info("Task status changed")

	return task, nil
}

// AssignUsers adds ASSIGNEE assignments. Every user must be an accepted
// member of the task's project; existing assignments are left as they are.
func (s *TaskService) AssignUsers(ctx context.Context, input AssignUsersInput) (*models.Task, error) {
	if len(input.Assignments) == 0 {
		return nil, ErrNoUserIDsProvided
	}

	var task *models.Task
	err := s.store.Transaction(ctx, func(repos repository.Repositories) error {
		loaded, auth, err := s.loadTask(ctx, repos, input.TaskID)
		if err != nil {
			return err
		}
		if err := auth.CheckEdit(ctx, input.ActorID, loaded); err != nil {
			return err
		}

		seen := make(map[uint64]struct{}, len(input.Assignments))
		assignments := make([]models.TaskAssignment, 0, len(input.Assignments))
		for _, a := range input.Assignments {
			role := a.Role
			if role == "" {
				role = models.TaskRoleAssignee
			}
			switch role {
			case models.TaskRoleOwner:
				return ErrOwnerAssignmentNotGrantable
			case models.TaskRoleAssignee:
			default:
				return ErrUnknownTaskRole
			}

			if _, dup := seen[a.UserID]; dup {
				continue
			}
			seen[a.UserID] = struct{}{}
			assignments = append(assignments, models.TaskAssignment{TaskID: loaded.ID, UserID: a.UserID, Role: role})
		}

		projects := authz.NewResourceAuthorizer(models.ResourceProject, repos.Members)
		for _, a := range assignments {
			isMember, err := projects.IsMember(ctx, a.UserID, &loaded.Project)
			if err != nil {
				return err
			}
			if !isMember {
				return ErrInvalidTaskAssignee
			}
		}

		if err := repos.Tasks.AddAssignments(ctx, assignments); err != nil {
			return fmt.Errorf("failed to assign users: %w", err)
		}

		task, err = repos.Tasks.FindByID(ctx, loaded.ID, taskPreloads...)
		if err != nil {
			return fmt.Errorf("failed to reload task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"task_id":  input.TaskID,
		"actor_id": input.ActorID,
		"count":    len(input.Assignments),
	}).Info("Users assigned to task")

	return task, nil
}

// UnassignUsers removes assignments. The OWNER assignment cannot be removed.
func (s *TaskService) UnassignUsers(ctx context.Context, taskID, actorID uint64, userIDs []uint64) (*models.Task, error) {
	if len(userIDs) == 0 {
		return nil, ErrNoUserIDsProvided
	}

	var task *models.Task
	err := s.store.Transaction(ctx, func(repos repository.Repositories) error {
		loaded, auth, err := s.loadTask(ctx, repos, taskID)
		if err != nil {
			return err
		}
		if err := auth.CheckEdit(ctx, actorID, loaded); err != nil {
			return err
		}

		ids := uniqueUint64(userIDs)
		for _, id := range ids {
			if id == loaded.OwnerID || hasOwnerAssignment(loaded, id) {
				return ErrOwnerAssignmentRemoval
			}
		}

		if err := repos.Tasks.RemoveAssignments(ctx, loaded.ID, ids); err != nil {
			return fmt.Errorf("failed to unassign users: %w", err)
		}

		task, err = repos.Tasks.FindByID(ctx, loaded.ID, taskPreloads...)
		if err != nil {
			return fmt.Errorf("failed to reload task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"task_id":  taskID,
		"actor_id": actorID,
		"count":    len(userIDs),
	}).Info("Users unassigned from task")

	return task, nil
}

func hasOwnerAssignment(task *models.Task, userID uint64) bool {
	for _, a := range task.Assignments {
		if a.UserID == userID && a.Role == models.TaskRoleOwner {
			return true
		}
	}
	return false
}

// GenerateTasksInput represents input for AI task generation
type GenerateTasksInput struct {
	ProjectID uint64
	UserID    uint64
	Text      string
}

// GenerateTasks uses AI to draft tasks for a project. Nothing is persisted.
func (s *TaskService) GenerateTasks(ctx context.Context, input GenerateTasksInput) ([]GeneratedTask, error) {
	if s.ai == nil {
		return nil, ErrAIServiceNotConfigured
	}

	err := s.store.Transaction(ctx, func(repos repository.Repositories) error {
		project, err := repos.Projects.FindByID(ctx, input.ProjectID)
		if err != nil {
			return lookupError(err, ErrProjectNotFound, "project")
		}

		auth := authz.NewResourceAuthorizer(models.ResourceProject, repos.Members)
		_, err = auth.CheckMembership(ctx, input.UserID, project)
		return err
	})
	if err != nil {
		return nil, err
	}

	now := s.Now()
	aiTasks, err := s.ai.GenerateTasksFromText(ctx, input.Text, now)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}

	if len(aiTasks) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	if len(aiTasks) > constants.MaxAIGeneratedTasks {
		aiTasks = aiTasks[:constants.MaxAIGeneratedTasks]
	}

	validTasks := make([]GeneratedTask, 0, len(aiTasks))
	cutoff := now.Add(-24 * time.Hour)
	for _, aiTask := range aiTasks {
		if strings.TrimSpace(aiTask.Title) == "" {
			continue
		}

		if aiTask.DueDate != nil && aiTask.DueDate.Before(cutoff) {
			aiTask.DueDate = nil
		}

		validTasks = append(validTasks, aiTask)
	}

	if len(validTasks) == 0 {
		return nil, ErrAINoValidTasks
	}

	return validTasks, nil
}

// uniqueUint64 removes duplicate values from a slice of uint64
func uniqueUint64(values []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(values))
	result := make([]uint64, 0, len(values))

	for _, v := range values {
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}
