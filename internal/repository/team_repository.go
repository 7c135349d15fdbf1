package repository

import (
	"context"
	"strings"

	"github.com/yukikurage/collab-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTeamRepository is a GORM implementation of TeamRepository
type GormTeamRepository struct {
	db *gorm.DB
}

// NewTeamRepository creates a new TeamRepository
func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &GormTeamRepository{db: db}
}

// Create creates a new team
func (r *GormTeamRepository) Create(ctx context.Context, team *models.Team) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(team).Error
}

// FindByID finds a team by ID
func (r *GormTeamRepository) FindByID(ctx context.Context, id uint64) (*models.Team, error) {
	var team models.Team
	if err := r.db.WithContext(ctx).First(&team, id).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

// FindByInviteToken finds a team by its shareable invite token
func (r *GormTeamRepository) FindByInviteToken(ctx context.Context, token string) (*models.Team, error) {
	var team models.Team
	if err := r.db.WithContext(ctx).Where("invite_token = ?", token).First(&team).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

// ListByMember lists teams where the user holds an accepted membership
func (r *GormTeamRepository) ListByMember(ctx context.Context, userID uint64) ([]models.Team, error) {
	var teams []models.Team
	err := r.db.WithContext(ctx).
		Joins("JOIN memberships ON memberships.resource_id = teams.id AND memberships.resource_type = ?", models.ResourceTeam).
		Where("memberships.user_id = ? AND memberships.accepted_invite = ?", userID, true).
		Order("teams.id").
		Find(&teams).Error
	if err != nil {
		return nil, err
	}
	return teams, nil
}

// ExistsByNameIgnoreCaseAndOwner checks the per-owner team name rule
func (r *GormTeamRepository) ExistsByNameIgnoreCaseAndOwner(ctx context.Context, name string, ownerID, excludeID uint64) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Team{}).
		Where("LOWER(name) = ? AND owner_id = ?", strings.ToLower(strings.TrimSpace(name)), ownerID)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Update updates a team
func (r *GormTeamRepository) Update(ctx context.Context, team *models.Team) error {
	return updateRow(r.db.WithContext(ctx), team)
}

// Delete deletes a team and its memberships in a transaction
func (r *GormTeamRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("resource_type = ? AND resource_id = ?", models.ResourceTeam, id).
			Delete(&models.Membership{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Team{}, id).Error
	})
}
