package authz

import (
	"context"
	"errors"
	"fmt"

	apierrors "github.com/yukikurage/collab-api/internal/errors"
	"github.com/yukikurage/collab-api/internal/models"
	"gorm.io/gorm"
)

// MemberFinder looks up the membership row of a user on a resource. It
// returns gorm.ErrRecordNotFound when no row exists.
type MemberFinder interface {
	FindMember(ctx context.Context, kind models.ResourceKind, resourceID, userID uint64) (*models.Membership, error)
}

// ResourceAuthorizer answers who may act on Teams or Projects. One instance
// serves one resource kind.
type ResourceAuthorizer struct {
	kind    models.ResourceKind
	members MemberFinder
}

// NewResourceAuthorizer creates a ResourceAuthorizer for kind.
func NewResourceAuthorizer(kind models.ResourceKind, members MemberFinder) *ResourceAuthorizer {
	return &ResourceAuthorizer{kind: kind, members: members}
}

// Kind returns the resource kind this authorizer serves.
func (a *ResourceAuthorizer) Kind() models.ResourceKind {
	return a.kind
}

// Standing returns the accepted membership of userID on res, or nil when the
// user is not a member. Pending invitees are not members.
func (a *ResourceAuthorizer) Standing(ctx context.Context, userID uint64, res models.Resource) (*models.Membership, error) {
	if res.Kind() != a.kind {
		return nil, fmt.Errorf("authorizer for %s cannot check a %s", a.kind, res.Kind())
	}

	member, err := a.members.FindMember(ctx, a.kind, res.GetID(), userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up %s membership: %w", a.kind, err)
	}
	if !member.AcceptedInvite {
		return nil, nil
	}
	return member, nil
}

func (a *ResourceAuthorizer) IsMember(ctx context.Context, userID uint64, res models.Resource) (bool, error) {
	member, err := a.Standing(ctx, userID, res)
	return member != nil, err
}

func (a *ResourceAuthorizer) IsAdmin(ctx context.Context, userID uint64, res models.Resource) (bool, error) {
	member, err := a.Standing(ctx, userID, res)
	if err != nil || member == nil {
		return false, err
	}
	return IsPrivileged(member.Role), nil
}

// IsOwner compares against the resource's owner field; no lookup is needed.
func (a *ResourceAuthorizer) IsOwner(userID uint64, res models.Resource) bool {
	return res.GetOwnerID() == userID
}

// CheckMembership fails with an access denied error unless userID is an
// accepted member of res. It returns the caller's membership.
func (a *ResourceAuthorizer) CheckMembership(ctx context.Context, userID uint64, res models.Resource) (*models.Membership, error) {
	member, err := a.Standing(ctx, userID, res)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, apierrors.AccessDenied(fmt.Sprintf("you are not a member of this %s", a.kind))
	}
	return member, nil
}

// CheckAdmin fails unless userID is an accepted OWNER or ADMIN of res.
func (a *ResourceAuthorizer) CheckAdmin(ctx context.Context, userID uint64, res models.Resource) (*models.Membership, error) {
	member, err := a.CheckMembership(ctx, userID, res)
	if err != nil {
		return nil, err
	}
	if !IsPrivileged(member.Role) {
		return nil, apierrors.AccessDenied(fmt.Sprintf("only %s owners and admins can perform this action", a.kind))
	}
	return member, nil
}

// CheckOwner fails unless userID is the owner of res.
func (a *ResourceAuthorizer) CheckOwner(userID uint64, res models.Resource) error {
	if !a.IsOwner(userID, res) {
		return apierrors.AccessDenied(fmt.Sprintf("only the %s owner can perform this action", a.kind))
	}
	return nil
}

// VerifyOwnerInvariant checks that the owner field of res and its membership
// rows agree: exactly one row has role OWNER and it belongs to the owner.
func VerifyOwnerInvariant(res models.Resource, members []models.Membership) error {
	owners := 0
	for _, m := range members {
		if m.Role != models.RoleOwner {
			continue
		}
		owners++
		if m.UserID != res.GetOwnerID() || !m.AcceptedInvite {
			return fmt.Errorf("%s %d: OWNER membership of user %d does not match owner %d",
				res.Kind(), res.GetID(), m.UserID, res.GetOwnerID())
		}
	}
	if owners != 1 {
		return fmt.Errorf("%s %d: expected exactly one OWNER membership, found %d", res.Kind(), res.GetID(), owners)
	}
	return nil
}
