package models

import "time"

type Team struct {
	ID          uint64 `gorm:"primarykey" json:"id"`
	Name        string `gorm:"type:varchar(255);not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	OwnerID     uint64 `gorm:"not null;index" json:"owner_id"`

	InviteToken       *string    `gorm:"type:varchar(64);uniqueIndex" json:"-"`
	InviteTokenExpiry *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Owner   User         `gorm:"foreignKey:OwnerID" json:"-"`
	Members []Membership `gorm:"polymorphic:Resource;polymorphicValue:team" json:"members,omitempty"`
}

func (t *Team) Kind() ResourceKind  { return ResourceTeam }
func (t *Team) GetID() uint64       { return t.ID }
func (t *Team) GetOwnerID() uint64  { return t.OwnerID }
func (t *Team) DisplayName() string { return t.Name }

func (t *Team) InviteLink() (*string, *time.Time) {
	return t.InviteToken, t.InviteTokenExpiry
}

func (t *Team) SetInviteLink(token *string, expiry *time.Time) {
	t.InviteToken = token
	t.InviteTokenExpiry = expiry
}
