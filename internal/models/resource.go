package models

import "time"

// ResourceKind names the kind of resource a Membership belongs to.
type ResourceKind string

const (
	ResourceTeam    ResourceKind = "team"
	ResourceProject ResourceKind = "project"
)

// Resource is the part of a Team or Project that membership and invitation
// rules depend on.
type Resource interface {
	Kind() ResourceKind
	GetID() uint64
	GetOwnerID() uint64
	DisplayName() string
	InviteLink() (token *string, expiry *time.Time)
	SetInviteLink(token *string, expiry *time.Time)
}
