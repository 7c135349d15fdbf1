package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/collab-api/internal/authz"
	"github.com/yukikurage/collab-api/internal/logging"
	"github.com/yukikurage/collab-api/internal/models"
	"github.com/yukikurage/collab-api/internal/repository"
)

// TeamService provides business logic for team operations.
type TeamService struct {
	store repository.Transactor
	log   logrus.FieldLogger

	Now func() time.Time
}

// NewTeamService creates a new TeamService.
func NewTeamService(store repository.Transactor, log logrus.FieldLogger) *TeamService {
	return &TeamService{
		store: store,
		log:   logging.OrDiscard(log),
		Now:   time.Now,
	}
}

// CreateTeamInput represents parameters to create a new team.
type CreateTeamInput struct {
	Name        string
	Description string
	OwnerID     uint64
}

// CreateTeam creates a team with its creator as the accepted OWNER member.
func (s *TeamService) CreateTeam(ctx context.Context, input CreateTeamInput) (*models.Team, error) {
	name, err := cleanName(input.Name, ErrNameRequired, ErrNameInvalid)
	if err != nil {
		return nil, err
	}

	team := &models.Team{
		Name:        name,
		Description: input.Description,
		OwnerID:     input.OwnerID,
	}

	err = s.store.Transaction(ctx, func(repos repository.Repositories) error {
		taken, err := repos.Teams.ExistsByNameIgnoreCaseAndOwner(ctx, name, input.OwnerID, 0)
		if err != nil {
			return fmt.Errorf("failed to check team name: %w", err)
		}
		if taken {
			return ErrTeamNameTaken
		}

		if err := repos.Teams.Create(ctx, team); err != nil {
			return fmt.Errorf("failed to create team: %w", err)
		}
		return createOwnerMembership(ctx, repos, team, s.Now())
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"team_id": team.ID,
		"user_id": input.OwnerID,
	}).Info("Team created")

	return team, nil
}

// GetTeam returns a team and its members. The caller must be a member.
func (s *TeamService) GetTeam(ctx context.Context, teamID, userID uint64) (*models.Team, error) {
	var team *models.Team

	err := s.store.Transaction(ctx, func(repos repository.Repositories) error {
		var err error
		team, err = repos.Teams.FindByID(ctx, teamID)
		if err != nil {
			return lookupError(err, ErrTeamNotFound, "team")
		}

		auth := authz.NewResourceAuthorizer(models.ResourceTeam, repos.Members)
		if _, err := auth.CheckMembership(ctx, userID, team); err != nil {
			return err
		}

		team.Members, err = repos.Members.ListByResource(ctx, models.ResourceTeam, team.ID)
		if err != nil {
			return fmt.Errorf("failed to list team members: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return team, nil
}

// ListTeamsForUser returns the teams the user has joined.
func (s *TeamService) ListTeamsForUser(ctx context.Context, userID uint64) ([]models.Team, error) {
	var teams []models.Team

	err := s.store.Transaction(ctx, func(repos repository.Repositories) error {
		var err error
		teams, err = repos.Teams.ListByMember(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to list teams: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return teams, nil
}

// UpdateTeamInput represents the fields of a team that can change.
type UpdateTeamInput struct {
	Name        *string
	Description *string
}

// UpdateTeam updates a team. The caller must be an owner or admin.
func (s *TeamService) UpdateTeam(ctx context.Context, teamID, userID uint64, input UpdateTeamInput) (*models.Team, error) {
	var team *models.Team

	err := s.store.Transaction(ctx, func(repos repository.Repositories) error {
		var err error
		team, err = repos.Teams.FindByID(ctx, teamID)
		if err != nil {
			return lookupError(err, ErrTeamNotFound, "team")
		}

		auth := authz.NewResourceAuthorizer(models.ResourceTeam, repos.Members)
		if _, err := auth.CheckAdmin(ctx, userID, team); err != nil {
			return err
		}

		if input.Name != nil {
			name, err := cleanName(*input.Name, ErrNameRequired, ErrNameInvalid)
			if err != nil {
				return err
			}

			taken, err := repos.Teams.ExistsByNameIgnoreCaseAndOwner(ctx, name, team.OwnerID, team.ID)
			if err != nil {
				return fmt.Errorf("failed to check team name: %w", err)
			}
			if taken {
				return ErrTeamNameTaken
			}
			team.Name = name
		}
		if input.Description != nil {
			team.Description = *input.Description
		}

		if err := repos.Teams.Update(ctx, team); err != nil {
			return writeError(err, ErrTeamNotFound, "update team")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"team_id": teamID,
		"user_id": userID,
	}).Info("Team updated")

	return team, nil
}

// DeleteTeam deletes a team and its memberships. Only the owner may do this.
func (s *TeamService) DeleteTeam(ctx context.Context, teamID, userID uint64) error {
	err := s.store.Transaction(ctx, func(repos repository.Repositories) error {
		team, err := repos.Teams.FindByID(ctx, teamID)
		if err != nil {
			return lookupError(err, ErrTeamNotFound, "team")
		}

		auth := authz.NewResourceAuthorizer(models.ResourceTeam, repos.Members)
		if _, err := auth.CheckMembership(ctx, userID, team); err != nil {
			return err
		}
		if err := auth.CheckOwner(userID, team); err != nil {
			return err
		}

		return deleteResource(ctx, repos, team)
	})
	if err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"team_id": teamID,
		"user_id": userID,
	}).Info("Team deleted")
	return nil
}
