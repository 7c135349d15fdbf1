package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/yukikurage/collab-api/internal/authz"
	"github.com/yukikurage/collab-api/internal/models"
	"github.com/yukikurage/collab-api/internal/repository"
)

// Teams and projects share the membership and invitation rules. These
// helpers let that code load and save either one through models.Resource.

func findResource(ctx context.Context, repos repository.Repositories, kind models.ResourceKind, id uint64) (models.Resource, error) {
	switch kind {
	case models.ResourceTeam:
		team, err := repos.Teams.FindByID(ctx, id)
		if err != nil {
			return nil, lookupError(err, ErrTeamNotFound, "team")
		}
		return team, nil
	case models.ResourceProject:
		project, err := repos.Projects.FindByID(ctx, id)
		if err != nil {
			return nil, lookupError(err, ErrProjectNotFound, "project")
		}
		return project, nil
	default:
		return nil, fmt.Errorf("unknown resource kind %q", kind)
	}
}

// cleanName trims a team name or project title. Control characters are
// rejected since names end up in email headers.
func cleanName(raw string, required, invalid error) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", required
	}
	if strings.IndexFunc(name, unicode.IsControl) >= 0 {
		return "", invalid
	}
	return name, nil
}

func resourceNotFound(kind models.ResourceKind) error {
	if kind == models.ResourceProject {
		return ErrProjectNotFound
	}
	return ErrTeamNotFound
}

func findResourceByInviteToken(ctx context.Context, repos repository.Repositories, kind models.ResourceKind, token string) (models.Resource, error) {
	switch kind {
	case models.ResourceTeam:
		team, err := repos.Teams.FindByInviteToken(ctx, token)
		if err != nil {
			return nil, lookupError(err, ErrInviteLinkNotFound, "team")
		}
		return team, nil
	case models.ResourceProject:
		project, err := repos.Projects.FindByInviteToken(ctx, token)
		if err != nil {
			return nil, lookupError(err, ErrInviteLinkNotFound, "project")
		}
		return project, nil
	default:
		return nil, fmt.Errorf("unknown resource kind %q", kind)
	}
}

func updateResource(ctx context.Context, repos repository.Repositories, res models.Resource) error {
	var err error
	switch r := res.(type) {
	case *models.Team:
		err = repos.Teams.Update(ctx, r)
	case *models.Project:
		err = repos.Projects.Update(ctx, r)
	default:
		return fmt.Errorf("unknown resource type %T", res)
	}
	if err != nil {
		return writeError(err, resourceNotFound(res.Kind()), "update "+string(res.Kind()))
	}
	return nil
}

func deleteResource(ctx context.Context, repos repository.Repositories, res models.Resource) error {
	var err error
	switch res.Kind() {
	case models.ResourceTeam:
		err = repos.Teams.Delete(ctx, res.GetID())
	case models.ResourceProject:
		err = repos.Projects.Delete(ctx, res.GetID())
	default:
		return fmt.Errorf("unknown resource kind %q", res.Kind())
	}
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", res.Kind(), err)
	}
	return nil
}

// createOwnerMembership adds the creator as the accepted OWNER of res and
// checks that the owner field and the membership rows agree.
func createOwnerMembership(ctx context.Context, repos repository.Repositories, res models.Resource, now time.Time) error {
	owner := &models.Membership{
		ResourceType:   res.Kind(),
		ResourceID:     res.GetID(),
		UserID:         res.GetOwnerID(),
		Role:           models.RoleOwner,
		AcceptedInvite: true,
		JoinedAt:       now,
	}
	if err := repos.Members.Create(ctx, owner); err != nil {
		return fmt.Errorf("failed to add owner to %s: %w", res.Kind(), err)
	}

	members, err := repos.Members.ListByResource(ctx, res.Kind(), res.GetID())
	if err != nil {
		return fmt.Errorf("failed to list %s members: %w", res.Kind(), err)
	}
	return authz.VerifyOwnerInvariant(res, members)
}
