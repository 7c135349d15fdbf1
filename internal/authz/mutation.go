package authz

import (
	apierrors "github.com/yukikurage/collab-api/internal/errors"
	"github.com/yukikurage/collab-api/internal/models"
)

var (
	ErrOwnerRoleImmutable     = apierrors.AccessDenied("the owner's role cannot be changed")
	ErrOnlyOwnerManagesAdmins = apierrors.AccessDenied("only the owner can modify an admin")
	ErrOwnerRoleNotGrantable  = apierrors.Validation("the OWNER role cannot be granted")
	ErrUnknownRole            = apierrors.Validation("unknown role")
	ErrOwnerCannotRemoveSelf  = apierrors.AccessDenied("the owner cannot be removed; delete the resource instead")
	ErrCannotRemovePrivileged = apierrors.AccessDenied("only the owner can remove owners or admins")
)

// ValidateRoleUpdate decides whether acting may set target's role to newRole.
// acting must already have passed CheckAdmin.
func ValidateRoleUpdate(acting, target *models.Membership, newRole models.MemberRole) error {
	if target.Role == models.RoleOwner {
		return ErrOwnerRoleImmutable
	}
	if target.Role == models.RoleAdmin && acting.Role != models.RoleOwner {
		return ErrOnlyOwnerManagesAdmins
	}
	if newRole == models.RoleOwner {
		return ErrOwnerRoleNotGrantable
	}
	if !IsKnownRole(newRole) {
		return ErrUnknownRole
	}
	return nil
}

// ValidateDeletion decides whether acting may remove target. acting must
// already have passed CheckAdmin.
func ValidateDeletion(acting, target *models.Membership) error {
	if acting.Role == models.RoleOwner && acting.Same(target) {
		return ErrOwnerCannotRemoveSelf
	}
	if acting.Role != models.RoleOwner && IsPrivileged(target.Role) {
		return ErrCannotRemovePrivileged
	}
	return nil
}

// ValidateGrant checks a role offered through an invitation.
func ValidateGrant(role models.MemberRole) error {
	if role == models.RoleOwner {
		return ErrOwnerRoleNotGrantable
	}
	if !IsKnownRole(role) {
		return ErrUnknownRole
	}
	return nil
}
