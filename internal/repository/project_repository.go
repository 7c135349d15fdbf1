package repository

import (
	"context"
	"strings"

	"github.com/yukikurage/collab-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

// Create creates a new project
func (r *GormProjectRepository) Create(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(project).Error
}

// FindByID finds a project by ID
func (r *GormProjectRepository) FindByID(ctx context.Context, id uint64) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// FindByInviteToken finds a project by its shareable invite token
func (r *GormProjectRepository) FindByInviteToken(ctx context.Context, token string) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).Where("invite_token = ?", token).First(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// ListByMember lists projects where the user holds an accepted membership
func (r *GormProjectRepository) ListByMember(ctx context.Context, userID uint64) ([]models.Project, error) {
	var projects []models.Project
	err := r.db.WithContext(ctx).
		Joins("JOIN memberships ON memberships.resource_id = projects.id AND memberships.resource_type = ?", models.ResourceProject).
		Where("memberships.user_id = ? AND memberships.accepted_invite = ?", userID, true).
		Order("projects.id").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

// ExistsByTitleIgnoreCaseAndOwner checks the per-owner title uniqueness rule
func (r *GormProjectRepository) ExistsByTitleIgnoreCaseAndOwner(ctx context.Context, title string, ownerID, excludeID uint64) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Project{}).
		Where("LOWER(title) = ? AND owner_id = ?", strings.ToLower(strings.TrimSpace(title)), ownerID)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Update updates a project
func (r *GormProjectRepository) Update(ctx context.Context, project *models.Project) error {
	return updateRow(r.db.WithContext(ctx), project)
}

// Delete deletes a project and all related data in a transaction
func (r *GormProjectRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taskIDs := tx.Model(&models.Task{}).Select("id").Where("project_id = ?", id)

		// Delete all assignments of the project's tasks
		if err := tx.Where("task_id IN (?)", taskIDs).Delete(&models.TaskAssignment{}).Error; err != nil {
			return err
		}

		// Delete all tasks in the project
		if err := tx.Where("project_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return err
		}

		// Delete all members
		if err := tx.Where("resource_type = ? AND resource_id = ?", models.ResourceProject, id).
			Delete(&models.Membership{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Project{}, id).Error
	})
}
