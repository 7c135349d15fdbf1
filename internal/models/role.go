package models

// MemberRole is the role a user holds in a Team or a Project.
type MemberRole string

const (
	RoleOwner  MemberRole = "OWNER"
	RoleAdmin  MemberRole = "ADMIN"
	RoleMember MemberRole = "MEMBER"
)

// TaskRole is the role a user holds on a Task.
type TaskRole string

const (
	TaskRoleOwner    TaskRole = "OWNER"
	TaskRoleAssignee TaskRole = "ASSIGNEE"
)
