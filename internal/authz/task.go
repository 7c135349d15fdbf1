package authz

import (
	"context"

	apierrors "github.com/yukikurage/collab-api/internal/errors"
	"github.com/yukikurage/collab-api/internal/models"
)

var (
	ErrTaskEditDenied   = apierrors.AccessDenied("only the task owner or a project admin can modify this task")
	ErrTaskStatusDenied = apierrors.AccessDenied("only the task owner, an assignee or a project admin can change the status")
)

// TaskAuthorizer gates task operations on top of project membership. Tasks
// passed to it must have Project and Assignments loaded.
type TaskAuthorizer struct {
	projects *ResourceAuthorizer
}

func NewTaskAuthorizer(projects *ResourceAuthorizer) *TaskAuthorizer {
	return &TaskAuthorizer{projects: projects}
}

func IsTaskOwner(userID uint64, task *models.Task) bool {
	return task.OwnerID == userID
}

func IsAssignee(userID uint64, task *models.Task) bool {
	for _, a := range task.Assignments {
		if a.UserID == userID && a.Role == models.TaskRoleAssignee {
			return true
		}
	}
	return false
}

func (a *TaskAuthorizer) CheckView(ctx context.Context, userID uint64, task *models.Task) (*models.Membership, error) {
	return a.projects.CheckMembership(ctx, userID, &task.Project)
}

func (a *TaskAuthorizer) CheckEdit(ctx context.Context, userID uint64, task *models.Task) error {
	member, err := a.CheckView(ctx, userID, task)
	if err != nil {
		return err
	}
	if IsTaskOwner(userID, task) || IsPrivileged(member.Role) {
		return nil
	}
	return ErrTaskEditDenied
}

// CheckChangeStatus admits assignees as well as the task owner and project
// admins.
func (a *TaskAuthorizer) CheckChangeStatus(ctx context.Context, userID uint64, task *models.Task) error {
	member, err := a.CheckView(ctx, userID, task)
	if err != nil {
		return err
	}
	if IsTaskOwner(userID, task) || IsPrivileged(member.Role) || IsAssignee(userID, task) {
		return nil
	}
	return ErrTaskStatusDenied
}
