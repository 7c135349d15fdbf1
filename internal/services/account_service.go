package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/collab-api/internal/logging"
	"github.com/yukikurage/collab-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// AccountService reconciles everything a user is attached to before the
// user row is removed.
type AccountService struct {
	store repository.Transactor
	log   logrus.FieldLogger
}

// NewAccountService creates a new AccountService
func NewAccountService(store repository.Transactor, log logrus.FieldLogger) *AccountService {
	return &AccountService{
		store: store,
		log:   logging.OrDiscard(log),
	}
}

// DeleteAccount permanently deletes a user after confirming the password.
// Teams and projects the user owns are deleted with everything in them. The
// user's other memberships, the tasks they own elsewhere and their remaining
// assignments are removed.
func (s *AccountService) DeleteAccount(ctx context.Context, userID uint64, password string) error {
	var ownedDeleted, membershipsRemoved, tasksDeleted int

	err := s.store.Transaction(ctx, func(repos repository.Repositories) error {
		user, err := repos.Users.FindByID(ctx, userID)
		if err != nil {
			return lookupError(err, ErrUserNotFound, "user")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
			return ErrWrongPassword
		}

		memberships, err := repos.Members.ListByUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to list memberships: %w", err)
		}

		for _, m := range memberships {
			res, err := findResource(ctx, repos, m.ResourceType, m.ResourceID)
			if err != nil {
				return err
			}

			if res.GetOwnerID() == userID {
				if err := deleteResource(ctx, repos, res); err != nil {
					return err
				}
				ownedDeleted++
				continue
			}

			if err := repos.Members.Delete(ctx, m.ResourceType, m.ResourceID, userID); err != nil {
				return fmt.Errorf("failed to remove membership: %w", err)
			}
			membershipsRemoved++
		}

		// Tasks left are in projects the user does not own
		taskIDs, err := repos.Tasks.ListIDsByOwner(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to list owned tasks: %w", err)
		}
		for _, id := range taskIDs {
			if err := repos.Tasks.Delete(ctx, id); err != nil {
				return fmt.Errorf("failed to delete task: %w", err)
			}
		}
		tasksDeleted = len(taskIDs)

		if err := repos.Tasks.RemoveAssignmentsByUser(ctx, userID); err != nil {
			return fmt.Errorf("failed to remove task assignments: %w", err)
		}

		if err := repos.Users.Delete(ctx, userID); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"user_id":             userID,
		"resources_deleted":   ownedDeleted,
		"memberships_removed": membershipsRemoved,
		"tasks_deleted":       tasksDeleted,
	}).Info("Account deleted")
	return nil
}
