package repository

import (
	"context"
	"time"

	"github.com/yukikurage/collab-api/internal/models"
	"github.com/yukikurage/collab-api/internal/utils"
)

// Lookups return gorm.ErrRecordNotFound when nothing matches, and so does an
// Update whose row was deleted after it was read. Writes that hit a unique
// constraint return gorm.ErrDuplicatedKey.

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(ctx context.Context, username string) (*models.User, error)

	// FindByEmail finds a user by email address
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// FindByVerificationToken finds the user holding an email verification token
	FindByVerificationToken(ctx context.Context, token string) (*models.User, error)

	// FindByPasswordResetToken finds the user holding a password reset token
	FindByPasswordResetToken(ctx context.Context, token string) (*models.User, error)

	// Update saves a user
	Update(ctx context.Context, user *models.User) error

	// Delete permanently removes a user
	Delete(ctx context.Context, id uint64) error
}

// TeamRepository defines the interface for team data access
type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	FindByID(ctx context.Context, id uint64) (*models.Team, error)
	FindByInviteToken(ctx context.Context, token string) (*models.Team, error)
	ListByMember(ctx context.Context, userID uint64) ([]models.Team, error)

	// ExistsByNameIgnoreCaseAndOwner reports whether ownerID already owns a
	// team named name, ignoring case. excludeID skips one team.
	ExistsByNameIgnoreCaseAndOwner(ctx context.Context, name string, ownerID, excludeID uint64) (bool, error)

	Update(ctx context.Context, team *models.Team) error

	// Delete deletes a team and its memberships
	Delete(ctx context.Context, id uint64) error
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	FindByID(ctx context.Context, id uint64) (*models.Project, error)
	FindByInviteToken(ctx context.Context, token string) (*models.Project, error)
	ListByMember(ctx context.Context, userID uint64) ([]models.Project, error)

	// ExistsByTitleIgnoreCaseAndOwner reports whether ownerID already owns a
	// project titled title, ignoring case. excludeID skips one project.
	ExistsByTitleIgnoreCaseAndOwner(ctx context.Context, title string, ownerID, excludeID uint64) (bool, error)

	Update(ctx context.Context, project *models.Project) error

	// Delete deletes a project with its tasks, assignments and memberships
	Delete(ctx context.Context, id uint64) error
}

// MembershipRepository defines the interface for team and project membership rows
type MembershipRepository interface {
	Create(ctx context.Context, member *models.Membership) error
	FindMember(ctx context.Context, kind models.ResourceKind, resourceID, userID uint64) (*models.Membership, error)
	FindByInvitationToken(ctx context.Context, token string) (*models.Membership, error)
	ListByResource(ctx context.Context, kind models.ResourceKind, resourceID uint64) ([]models.Membership, error)
	ListByUser(ctx context.Context, userID uint64) ([]models.Membership, error)
	Update(ctx context.Context, member *models.Membership) error
	Delete(ctx context.Context, kind models.ResourceKind, resourceID, userID uint64) error
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(ctx context.Context, id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error)

	// Update updates a task
	Update(ctx context.Context, task *models.Task) error

	// UpdateStatus writes the status fields of task only if the stored
	// status still equals from. It reports whether the row was written.
	UpdateStatus(ctx context.Context, task *models.Task, from models.TaskStatus) (bool, error)

	// Delete deletes a task and its assignments
	Delete(ctx context.Context, id uint64) error

	// ListIDsByOwner lists the IDs of tasks owned by a user
	ListIDsByOwner(ctx context.Context, ownerID uint64) ([]uint64, error)

	// AddAssignments creates assignments, skipping ones that already exist
	AddAssignments(ctx context.Context, assignments []models.TaskAssignment) error

	// RemoveAssignments removes assignments of the given users from a task
	RemoveAssignments(ctx context.Context, taskID uint64, userIDs []uint64) error

	// RemoveAssignmentsByUser removes every assignment held by a user
	RemoveAssignmentsByUser(ctx context.Context, userID uint64) error

	// FindAssignment finds a specific task assignment
	FindAssignment(ctx context.Context, taskID, userID uint64) (*models.TaskAssignment, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	ProjectID      uint64
	Status         *models.TaskStatus
	AssignedUserID *uint64
	// OverdueAt selects tasks due before this instant that are not done.
	OverdueAt *time.Time
	// Pagination is skipped when Limit is zero.
	Pagination utils.PaginationParams
}
