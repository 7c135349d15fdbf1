package models

import "time"

type Project struct {
	ID          uint64 `gorm:"primarykey" json:"id"`
	Title       string `gorm:"type:varchar(255);not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	OwnerID     uint64 `gorm:"not null;index" json:"owner_id"`

	InviteToken       *string    `gorm:"type:varchar(64);uniqueIndex" json:"-"`
	InviteTokenExpiry *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Owner   User         `gorm:"foreignKey:OwnerID" json:"-"`
	Members []Membership `gorm:"polymorphic:Resource;polymorphicValue:project" json:"members,omitempty"`
	Tasks   []Task       `gorm:"foreignKey:ProjectID" json:"tasks,omitempty"`
}

func (p *Project) Kind() ResourceKind  { return ResourceProject }
func (p *Project) GetID() uint64       { return p.ID }
func (p *Project) GetOwnerID() uint64  { return p.OwnerID }
func (p *Project) DisplayName() string { return p.Title }

func (p *Project) InviteLink() (*string, *time.Time) {
	return p.InviteToken, p.InviteTokenExpiry
}

func (p *Project) SetInviteLink(token *string, expiry *time.Time) {
	p.InviteToken = token
	p.InviteTokenExpiry = expiry
}
