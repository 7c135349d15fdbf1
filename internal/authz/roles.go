package authz

import "github.com/yukikurage/collab-api/internal/models"

var privilegedRoles = map[models.MemberRole]bool{
	models.RoleOwner:  true,
	models.RoleAdmin:  true,
	models.RoleMember: false,
}

// IsPrivileged reports whether role is OWNER or ADMIN.
func IsPrivileged(role models.MemberRole) bool {
	return privilegedRoles[role]
}

// IsKnownRole reports whether role belongs to the closed Team/Project role set.
func IsKnownRole(role models.MemberRole) bool {
	_, ok := privilegedRoles[role]
	return ok
}

// IsKnownTaskRole reports whether role belongs to the Task role set.
func IsKnownTaskRole(role models.TaskRole) bool {
	return role == models.TaskRoleOwner || role == models.TaskRoleAssignee
}
