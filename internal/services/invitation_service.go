package services

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/collab-api/internal/logging"
	"github.com/yukikurage/collab-api/internal/models"
	"github.com/yukikurage/collab-api/internal/repository"
	"github.com/yukikurage/collab-api/internal/utils"
)

// InvitationService accepts email invitations of either resource kind. The
// token alone identifies the pending membership.
type InvitationService struct {
	store repository.Transactor
	log   logrus.FieldLogger

	Now func() time.Time
}

// NewInvitationService creates a new InvitationService
func NewInvitationService(store repository.Transactor, log logrus.FieldLogger) *InvitationService {
	return &InvitationService{
		store: store,
		log:   logging.OrDiscard(log),
		Now:   time.Now,
	}
}

// AcceptInvitation turns the pending membership holding token into an
// accepted one and clears the token. Only the invited user may accept.
// Unknown, expired and already used tokens all yield ErrInvitationNotFound.
func (s *InvitationService) AcceptInvitation(ctx context.Context, token string, userID uint64) (*models.Membership, error) {
	var member *models.Membership

	err := s.store.Transaction(ctx, func(repos repository.Repositories) error {
		if strings.TrimSpace(token) == "" {
			return ErrInvitationNotFound
		}

		var err error
		member, err = repos.Members.FindByInvitationToken(ctx, token)
		if err != nil {
			return lookupError(err, ErrInvitationNotFound, "invitation")
		}

		if member.AcceptedInvite || member.UserID != userID {
			return ErrInvitationNotFound
		}
		if utils.TokenExpired(member.InvitationTokenExpiry, s.Now()) {
			return ErrInvitationNotFound
		}

		member.AcceptedInvite = true
		member.InvitationToken = nil
		member.InvitationTokenExpiry = nil
		if err := repos.Members.Update(ctx, member); err != nil {
			return writeError(err, ErrInvitationNotFound, "accept invitation")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"resource":    member.ResourceType,
		"resource_id": member.ResourceID,
		"user_id":     userID,
	}).Info("Invitation accepted")

	return member, nil
}
