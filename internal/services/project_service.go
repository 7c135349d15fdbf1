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

// ProjectService provides business logic for project operations.
type ProjectService struct {
	store repository.Transactor
	log   logrus.FieldLogger

	Now func() time.Time
}

// NewProjectService creates a new ProjectService.
func NewProjectService(store repository.Transactor, log logrus.FieldLogger) *ProjectService {
	return &ProjectService{
		store: store,
		log:   logging.OrDiscard(log),
		Now:   time.Now,
	}
}

// CreateProjectInput represents parameters to create a new project.
type CreateProjectInput struct {
	Title       string
	Description string
	OwnerID     uint64
}

// CreateProject creates a project with its creator as the accepted OWNER
// member. A user cannot own two projects whose titles differ only in case.
func (s *ProjectService) CreateProject(ctx context.Context, input CreateProjectInput) (*models.Project, error) {
	title, err := cleanName(input.Title, ErrTitleRequired, ErrTitleInvalid)
	if err != nil {
		return nil, err
	}

	project := &models.Project{
		Title:       title,
		Description: input.Description,
		OwnerID:     input.OwnerID,
	}

	err = s.store.Transaction(ctx, func(repos repository.Repositories) error {
		taken, err := repos.Projects.ExistsByTitleIgnoreCaseAndOwner(ctx, title, input.OwnerID, 0)
		if err != nil {
			return fmt.Errorf("failed to check project title: %w", err)
		}
		if taken {
			return ErrProjectTitleTaken
		}

		if err := repos.Projects.Create(ctx, project); err != nil {
			return fmt.Errorf("failed to create project: %w", err)
		}
		return createOwnerMembership(ctx, repos, project, s.Now())
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"project_id": project.ID,
		"user_id":    input.OwnerID,
	}).Info("Project created")

	return project, nil
}

// GetProject returns a project and its members. The caller must be a member.
func (s *ProjectService) GetProject(ctx context.Context, projectID, userID uint64) (*models.Project, error) {
	var project *models.Project

	err := s.store.Transaction(ctx, func(repos repository.Repositories) error {
		var err error
		project, err = repos.Projects.FindByID(ctx, projectID)
		if err != nil {
			return lookupError(err, ErrProjectNotFound, "project")
		}

		auth := authz.NewResourceAuthorizer(models.ResourceProject, repos.Members)
		if _, err := auth.CheckMembership(ctx, userID, project); err != nil {
			return err
		}

		project.Members, err = repos.Members.ListByResource(ctx, models.ResourceProject, project.ID)
		if err != nil {
			return fmt.Errorf("failed to list project members: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return project, nil
}

// ListProjectsForUser returns the projects the user has joined.
func (s *ProjectService) ListProjectsForUser(ctx context.Context, userID uint64) ([]models.Project, error) {
	var projects []models.Project

	err := s.store.Transaction(ctx, func(repos repository.Repositories) error {
		var err error
		projects, err = repos.Projects.ListByMember(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to list projects: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return projects, nil
}

// UpdateProjectInput represents the fields of a project that can change.
type UpdateProjectInput struct {
	Title       *string
	Description *string
}

// UpdateProject updates a project. The caller must be an owner or admin. A
// new title is checked against the titles of the project's owner.
func (s *ProjectService) UpdateProject(ctx context.Context, projectID, userID uint64, input UpdateProjectInput) (*models.Project, error) {
	var project *models.Project

	err := s.store.Transaction(ctx, func(repos repository.Repositories) error {
		var err error
		project, err = repos.Projects.FindByID(ctx, projectID)
		if err != nil {
			return lookupError(err, ErrProjectNotFound, "project")
		}

		auth := authz.NewResourceAuthorizer(models.ResourceProject, repos.Members)
		if _, err := auth.CheckAdmin(ctx, userID, project); err != nil {
			return err
		}

		if input.Title != nil {
			title, err := cleanName(*input.Title, ErrTitleRequired, ErrTitleInvalid)
			if err != nil {
				return err
			}

			taken, err := repos.Projects.ExistsByTitleIgnoreCaseAndOwner(ctx, title, project.OwnerID, project.ID)
			if err != nil {
				return fmt.Errorf("failed to check project title: %w", err)
			}
			if taken {
				return ErrProjectTitleTaken
			}
			project.Title = title
		}
		if input.Description != nil {
			project.Description = *input.Description
		}

		if err := repos.Projects.Update(ctx, project); err != nil {
			return writeError(err, ErrProjectNotFound, "update project")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"project_id": projectID,
		"user_id":    userID,
	}).Info("Project updated")

	return project, nil
}

// DeleteProject deletes a project with its tasks, assignments and
// memberships. Only the owner may do this.
func (s *ProjectService) DeleteProject(ctx context.Context, projectID, userID uint64) error {
	err := s.store.Transaction(ctx, func(repos repository.Repositories) error {
		project, err := repos.Projects.FindByID(ctx, projectID)
		if err != nil {
			return lookupError(err, ErrProjectNotFound, "project")
		}

		auth := authz.NewResourceAuthorizer(models.ResourceProject, repos.Members)
		if _, err := auth.CheckMembership(ctx, userID, project); err != nil {
			return err
		}
		if err := auth.CheckOwner(userID, project); err != nil {
			return err
		}

		return deleteResource(ctx, repos, project)
	})
	if err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"project_id": projectID,
		"user_id":    userID,
	}).Info("Project deleted")
	return nil
}
