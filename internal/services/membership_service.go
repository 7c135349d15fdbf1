package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/collab-api/internal/authz"
	"github.com/yukikurage/collab-api/internal/constants"
	"github.com/yukikurage/collab-api/internal/logging"
	"github.com/yukikurage/collab-api/internal/mailer"
	"github.com/yukikurage/collab-api/internal/models"
	"github.com/yukikurage/collab-api/internal/repository"
	"github.com/yukikurage/collab-api/internal/utils"
	"gorm.io/gorm"
)

// MembershipService manages members and invitations of one resource kind.
type MembershipService struct {
	kind   models.ResourceKind
	store  repository.Transactor
	mailer mailer.Mailer
	log    logrus.FieldLogger

	Now func() time.Time
}

// NewMembershipService creates a MembershipService for teams or projects.
func NewMembershipService(kind models.ResourceKind, store repository.Transactor, mail mailer.Mailer, log logrus.FieldLogger) *MembershipService {
	return &MembershipService{
		kind:   kind,
		store:  store,
		mailer: mail,
		log:    logging.OrDiscard(log).WithField("resource", string(kind)),
		Now:    time.Now,
	}
}

// Kind returns the resource kind this service manages.
func (s *MembershipService) Kind() models.ResourceKind {
	return s.kind
}

// InviteInput represents an email invitation request.
type InviteInput struct {
	ResourceID uint64
	InviterID  uint64
	Email      string
	Role       models.MemberRole
}

// Invite creates a pending membership for the user registered under
// input.Email and emails them the acceptance token once committed.
func (s *MembershipService) Invite(ctx context.Context, input InviteInput) (*models.Membership, error) {
	var (
		member       *models.Membership
		resourceName string
		inviteeEmail string
	)

	err := s.store.Transaction(ctx, func(repos repository.Repositories) error {
		res, err := findResource(ctx, repos, s.kind, input.ResourceID)
		if err != nil {
			return err
		}

		auth := authz.NewResourceAuthorizer(s.kind, repos.Members)
		if _, err := auth.CheckAdmin(ctx, input.InviterID, res); err != nil {
			return err
		}

		if err := authz.ValidateGrant(input.Role); err != nil {
			return err
		}

		invitee, err := repos.Users.FindByEmail(ctx, normalizeEmail(input.Email))
		if err != nil {
			return lookupError(err, ErrUserNotFound, "user")
		}

		// Fast path; the primary key on memberships is the real guard.
		if _, err := repos.Members.FindMember(ctx, s.kind, res.GetID(), invitee.ID); err == nil {
			return ErrAlreadyMember
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check membership: %w", err)
		}

		token := utils.GenerateToken()
		expiry := s.Now().Add(constants.TokenTTL)
		member = &models.Membership{
			ResourceType:          s.kind,
			ResourceID:            res.GetID(),
			UserID:                invitee.ID,
			Role:                  input.Role,
			AcceptedInvite:        false,
			InvitationToken:       &token,
			InvitationTokenExpiry: &expiry,
			JoinedAt:              s.Now(),
		}
		if err := repos.Members.Create(ctx, member); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyMember
			}
			return fmt.Errorf("failed to create invitation: %w", err)
		}

		member.User = *invitee
		resourceName = res.DisplayName()
		inviteeEmail = invitee.Email
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.sendInvitation(inviteeEmail, resourceName, *member.InvitationToken)

	s.log.WithFields(logrus.Fields{
		"resource_id": member.ResourceID,
		"inviter_id":  input.InviterID,
		"invitee_id":  member.UserID,
		"role":        member.Role,
	}).Info("Invitation created")

	return member, nil
}

func (s *MembershipService) sendInvitation(to, resourceName, token string) {
	if s.mailer == nil {
		return
	}
	if s.kind == models.ResourceTeam {
		s.mailer.SendTeamInvitationEmail(to, resourceName, token)
		return
	}
	s.mailer.SendProjectInvitationEmail(to, resourceName, token)
}

// InviteLink is a shareable, resource level invitation.
type InviteLink struct {
	Token     string
	ExpiresAt time.Time
}

// GenerateInviteLink issues a new link token for the resource, replacing any
// previous one.
func (s *MembershipService) GenerateInviteLink(ctx context.Context, resourceID, actorID uint64) (*InviteLink, error) {
	var link *InviteLink

	err := s.store.Transaction(ctx, func(repos repository.Repositories) error {
		res, err := findResource(ctx, repos, s.kind, resourceID)
		if err != nil {
			return err
		}

		auth := authz.NewResourceAuthorizer(s.kind, repos.Members)
		if _, err := auth.CheckAdmin(ctx, actorID, res); err != nil {
			return err
		}

		token := utils.GenerateToken()
		expiry := s.Now().Add(constants.TokenTTL)
		res.SetInviteLink(&token, &expiry)
		if err := updateResource(ctx, repos, res); err != nil {
			return err
		}

		link = &InviteLink{Token: token, ExpiresAt: expiry}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"resource_id": resourceID,
		"user_id":     actorID,
	}).Info("Invite link generated")

	return link, nil
}

// RevokeInviteLink clears the resource's link token.
func (s *MembershipService) RevokeInviteLink(ctx context.Context, resourceID, actorID uint64) error {
	err := s.store.Transaction(ctx, func(repos repository.Repositories) error {
		res, err := findResource(ctx, repos, s.kind, resourceID)
		if err != nil {
			return err
		}

		auth := authz.NewResourceAuthorizer(s.kind, repos.Members)
		if _, err := auth.CheckAdmin(ctx, actorID, res); err != nil {
			return err
		}

		res.SetInviteLink(nil, nil)
		return updateResource(ctx, repos, res)
	})
	if err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"resource_id": resourceID,
		"user_id":     actorID,
	}).Info("Invite link revoked")
	return nil
}

// AcceptInviteLink joins userID to the resource holding token as an accepted
// MEMBER. The token stays valid for other users.
func (s *MembershipService) AcceptInviteLink(ctx context.Context, token string, userID uint64) (*models.Membership, error) {
	var member *models.Membership

	err := s.store.Transaction(ctx, func(repos repository.Repositories) error {
		if strings.TrimSpace(token) == "" {
			return ErrInviteLinkNotFound
		}

		res, err := findResourceByInviteToken(ctx, repos, s.kind, token)
		if err != nil {
			return err
		}
		if _, expiry := res.InviteLink(); utils.TokenExpired(expiry, s.Now()) {
			return ErrInviteLinkNotFound
		}

		if _, err := repos.Members.FindMember(ctx, s.kind, res.GetID(), userID); err == nil {
			return ErrAlreadyMember
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check membership: %w", err)
		}

		member = &models.Membership{
			ResourceType:   s.kind,
			ResourceID:     res.GetID(),
			UserID:         userID,
			Role:           models.RoleMember,
			AcceptedInvite: true,
			JoinedAt:       s.Now(),
		}
		if err := repos.Members.Create(ctx, member); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyMember
			}
			return fmt.Errorf("failed to join %s: %w", s.kind, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"resource_id": member.ResourceID,
		"user_id":     userID,
	}).Info("Joined through invite link")

	return member, nil
}

// UpdateRoleInput represents a role change of one member.
type UpdateRoleInput struct {
	ResourceID   uint64
	ActorID      uint64
	TargetUserID uint64
	Role         models.MemberRole
}

// UpdateRole changes the role of a member, pending invitees included.
func (s *MembershipService) UpdateRole(ctx context.Context, input UpdateRoleInput) (*models.Membership, error) {
	var target *models.Membership

	err := s.store.Transaction(ctx, func(repos repository.Repositories) error {
		res, err := findResource(ctx, repos, s.kind, input.ResourceID)
		if err != nil {
			return err
		}

		auth := authz.NewResourceAuthorizer(s.kind, repos.Members)
		acting, err := auth.CheckAdmin(ctx, input.ActorID, res)
		if err != nil {
			return err
		}

		target, err = repos.Members.FindMember(ctx, s.kind, res.GetID(), input.TargetUserID)
		if err != nil {
			return lookupError(err, ErrMemberNotFound, "member")
		}

		if err := authz.ValidateRoleUpdate(acting, target, input.Role); err != nil {
			return err
		}

		target.Role = input.Role
		if err := repos.Members.Update(ctx, target); err != nil {
			return writeError(err, ErrMemberNotFound, "update member role")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"resource_id": input.ResourceID,
		"actor_id":    input.ActorID,
		"target_id":   input.TargetUserID,
		"role":        input.Role,
	}).Info("Member role updated")

	return target, nil
}

// RemoveMember removes a member or revokes a pending invitation.
func (s *MembershipService) RemoveMember(ctx context.Context, resourceID, actorID, targetUserID uint64) error {
	err := s.store.Transaction(ctx, func(repos repository.Repositories) error {
		res, err := findResource(ctx, repos, s.kind, resourceID)
		if err != nil {
			return err
		}

		auth := authz.NewResourceAuthorizer(s.kind, repos.Members)
		acting, err := auth.CheckAdmin(ctx, actorID, res)
		if err != nil {
			return err
		}

		target, err := repos.Members.FindMember(ctx, s.kind, res.GetID(), targetUserID)
		if err != nil {
			return lookupError(err, ErrMemberNotFound, "member")
		}

		if err := authz.ValidateDeletion(acting, target); err != nil {
			return err
		}

		if err := repos.Members.Delete(ctx, s.kind, res.GetID(), targetUserID); err != nil {
			return fmt.Errorf("failed to remove member: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"resource_id": resourceID,
		"actor_id":    actorID,
		"target_id":   targetUserID,
	}).Info("Member removed")
	return nil
}

// Leave removes the caller's own membership. The owner cannot leave.
func (s *MembershipService) Leave(ctx context.Context, resourceID, userID uint64) error {
	err := s.store.Transaction(ctx, func(repos repository.Repositories) error {
		res, err := findResource(ctx, repos, s.kind, resourceID)
		if err != nil {
			return err
		}

		auth := authz.NewResourceAuthorizer(s.kind, repos.Members)
		member, err := auth.CheckMembership(ctx, userID, res)
		if err != nil {
			return err
		}
		if member.Role == models.RoleOwner || auth.IsOwner(userID, res) {
			return ErrOwnerCannotLeave
		}

		if err := repos.Members.Delete(ctx, s.kind, res.GetID(), userID); err != nil {
			return fmt.Errorf("failed to leave %s: %w", s.kind, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"resource_id": resourceID,
		"user_id":     userID,
	}).Info("Member left")
	return nil
}

// ListMembers returns every membership row of the resource, pending
// invitations included.
func (s *MembershipService) ListMembers(ctx context.Context, resourceID, userID uint64) ([]models.Membership, error) {
	var members []models.Membership

	err := s.store.Transaction(ctx, func(repos repository.Repositories) error {
		res, err := findResource(ctx, repos, s.kind, resourceID)
		if err != nil {
			return err
		}

		auth := authz.NewResourceAuthorizer(s.kind, repos.Members)
		if _, err := auth.CheckMembership(ctx, userID, res); err != nil {
			return err
		}

		members, err = repos.Members.ListByResource(ctx, s.kind, res.GetID())
		if err != nil {
			return fmt.Errorf("failed to list members: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return members, nil
}
