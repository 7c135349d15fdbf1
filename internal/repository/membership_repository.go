package repository

import (
	"context"

	"github.com/yukikurage/collab-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormMembershipRepository is a GORM implementation of MembershipRepository
type GormMembershipRepository struct {
	db *gorm.DB
}

// NewMembershipRepository creates a new MembershipRepository
func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &GormMembershipRepository{db: db}
}

// Create inserts a membership. The composite primary key rejects a second row
// for the same user and resource.
func (r *GormMembershipRepository) Create(ctx context.Context, member *models.Membership) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(member).Error
}

// FindMember finds the membership of a user on a resource
func (r *GormMembershipRepository) FindMember(ctx context.Context, kind models.ResourceKind, resourceID, userID uint64) (*models.Membership, error) {
	var member models.Membership
	err := r.db.WithContext(ctx).
		Where("resource_type = ? AND resource_id = ? AND user_id = ?", kind, resourceID, userID).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// FindByInvitationToken finds the pending membership holding token
func (r *GormMembershipRepository) FindByInvitationToken(ctx context.Context, token string) (*models.Membership, error) {
	var member models.Membership
	if err := r.db.WithContext(ctx).Where("invitation_token = ?", token).First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// ListByResource lists all members of a resource with their users
func (r *GormMembershipRepository) ListByResource(ctx context.Context, kind models.ResourceKind, resourceID uint64) ([]models.Membership, error) {
	var members []models.Membership
	err := r.db.WithContext(ctx).Preload("User").
		Where("resource_type = ? AND resource_id = ?", kind, resourceID).
		Order("joined_at, user_id").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

// ListByUser lists every membership row of a user, pending ones included
func (r *GormMembershipRepository) ListByUser(ctx context.Context, userID uint64) ([]models.Membership, error) {
	var members []models.Membership
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// Update saves a membership
func (r *GormMembershipRepository) Update(ctx context.Context, member *models.Membership) error {
	return updateRow(r.db.WithContext(ctx), member)
}

// Delete removes a membership
func (r *GormMembershipRepository) Delete(ctx context.Context, kind models.ResourceKind, resourceID, userID uint64) error {
	return r.db.WithContext(ctx).
		Where("resource_type = ? AND resource_id = ? AND user_id = ?", kind, resourceID, userID).
		Delete(&models.Membership{}).Error
}
