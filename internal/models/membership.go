package models

import "time"

// Membership links a user to a Team or a Project. A row with AcceptedInvite
// false is a pending email invitation and does not grant membership.
type Membership struct {
	ResourceType ResourceKind `gorm:"type:varchar(20);primarykey" json:"resource_type"`
	ResourceID   uint64       `gorm:"primarykey" json:"resource_id"`
	UserID       uint64       `gorm:"primarykey;index" json:"user_id"`
	Role         MemberRole   `gorm:"type:varchar(20);not null" json:"role"`

	AcceptedInvite        bool       `gorm:"not null;default:false" json:"accepted_invite"`
	InvitationToken       *string    `gorm:"type:varchar(64);uniqueIndex" json:"-"`
	InvitationTokenExpiry *time.Time `json:"-"`
	JoinedAt              time.Time  `json:"joined_at"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// Pending reports whether the membership still waits for its invitation to
// be accepted.
func (m *Membership) Pending() bool {
	return !m.AcceptedInvite
}

// Same reports whether m and other identify the same row.
func (m *Membership) Same(other *Membership) bool {
	return m.ResourceType == other.ResourceType &&
		m.ResourceID == other.ResourceID &&
		m.UserID == other.UserID
}
