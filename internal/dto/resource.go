package dto

import (
	"time"

	"github.com/yukikurage/collab-api/internal/models"
)

// MemberDTO represents a team or project member. Pending rows are
// invitations that have not been accepted yet.
type MemberDTO struct {
	User     UserDTO           `json:"user"`
	Role     models.MemberRole `json:"role"`
	Pending  bool              `json:"pending"`
	JoinedAt time.Time         `json:"joined_at"`
}

// TeamDTO represents a team in API responses
type TeamDTO struct {
	ID          uint64      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	OwnerID     uint64      `json:"owner_id"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	Members     []MemberDTO `json:"members,omitempty"`
}

// ProjectDTO represents a project in API responses
type ProjectDTO struct {
	ID          uint64      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	OwnerID     uint64      `json:"owner_id"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	Members     []MemberDTO `json:"members,omitempty"`
}

// InviteLinkDTO carries a shareable invite link token
type InviteLinkDTO struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MembershipDTO is returned when a user joins or changes role
type MembershipDTO struct {
	ResourceType models.ResourceKind `json:"resource_type"`
	ResourceID   uint64              `json:"resource_id"`
	UserID       uint64              `json:"user_id"`
	Role         models.MemberRole   `json:"role"`
	Pending      bool                `json:"pending"`
	JoinedAt     time.Time           `json:"joined_at"`
}

func ToMemberDTO(member models.Membership) MemberDTO {
	return MemberDTO{
		User:     ToUserDTO(member.User),
		Role:     member.Role,
		Pending:  member.Pending(),
		JoinedAt: member.JoinedAt,
	}
}

func ToMemberDTOs(members []models.Membership) []MemberDTO {
	result := make([]MemberDTO, len(members))
	for i, m := range members {
		result[i] = ToMemberDTO(m)
	}
	return result
}

func ToMembershipDTO(member models.Membership) MembershipDTO {
	return MembershipDTO{
		ResourceType: member.ResourceType,
		ResourceID:   member.ResourceID,
		UserID:       member.UserID,
		Role:         member.Role,
		Pending:      member.Pending(),
		JoinedAt:     member.JoinedAt,
	}
}

// ToTeamDTO converts a Team model. Members are included when loaded.
func ToTeamDTO(team models.Team) TeamDTO {
	dto := TeamDTO{
		ID:          team.ID,
		Name:        team.Name,
		Description: team.Description,
		OwnerID:     team.OwnerID,
		CreatedAt:   team.CreatedAt,
		UpdatedAt:   team.UpdatedAt,
	}
	if len(team.Members) > 0 {
		dto.Members = ToMemberDTOs(team.Members)
	}
	return dto
}

func ToTeamDTOs(teams []models.Team) []TeamDTO {
	result := make([]TeamDTO, len(teams))
	for i, t := range teams {
		result[i] = ToTeamDTO(t)
	}
	return result
}

// ToProjectDTO converts a Project model. Members are included when loaded.
func ToProjectDTO(project models.Project) ProjectDTO {
	dto := ProjectDTO{
		ID:          project.ID,
		Title:       project.Title,
		Description: project.Description,
		OwnerID:     project.OwnerID,
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
	}
	if len(project.Members) > 0 {
		dto.Members = ToMemberDTOs(project.Members)
	}
	return dto
}

func ToProjectDTOs(projects []models.Project) []ProjectDTO {
	result := make([]ProjectDTO, len(projects))
	for i, p := range projects {
		result[i] = ToProjectDTO(p)
	}
	return result
}
