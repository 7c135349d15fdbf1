package services

import (
	"errors"
	"fmt"

	apierrors "github.com/yukikurage/collab-api/internal/errors"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound    = apierrors.NotFound("user not found")
	ErrTeamNotFound    = apierrors.NotFound("team not found")
	ErrProjectNotFound = apierrors.NotFound("project not found")
	ErrTaskNotFound    = apierrors.NotFound("task not found")
	ErrMemberNotFound  = apierrors.NotFound("member not found")

	// Expired tokens are reported exactly like unknown ones.
	ErrInvitationNotFound       = apierrors.NotFound("invitation not found or expired")
	ErrInviteLinkNotFound       = apierrors.NotFound("invite link not found or expired")
	ErrVerificationTokenInvalid = apierrors.NotFound("verification token not found or expired")
	ErrResetTokenInvalid        = apierrors.NotFound("password reset token not found or expired")

	ErrAlreadyMember     = apierrors.AlreadyExists("user is already a member or has a pending invitation")
	ErrUsernameTaken     = apierrors.AlreadyExists("username already exists")
	ErrEmailTaken        = apierrors.AlreadyExists("email already exists")
	ErrAccountExists     = apierrors.AlreadyExists("username or email already exists")
	ErrTeamNameTaken     = apierrors.AlreadyExists("you already own a team with this name")
	ErrProjectTitleTaken = apierrors.AlreadyExists("you already own a project with this title")

	ErrInvalidCredentials = apierrors.Unauthenticated("invalid username or password")
	ErrEmailNotVerified   = apierrors.AccessDenied("email address has not been verified")
	ErrWrongPassword      = apierrors.AccessDenied("password is incorrect")
	ErrOwnerCannotLeave   = apierrors.AccessDenied("the owner cannot leave; delete it instead")

	ErrUsernameRequired            = apierrors.Validation("username is required")
	ErrEmailRequired               = apierrors.Validation("email is required")
	ErrPasswordTooShort            = apierrors.Validation("password too short")
	ErrAlreadyVerified             = apierrors.Validation("email address is already verified")
	ErrNameRequired                = apierrors.Validation("name is required")
	ErrTitleRequired               = apierrors.Validation("title is required")
	ErrNameInvalid                 = apierrors.Validation("name must not contain control characters")
	ErrTitleInvalid                = apierrors.Validation("title must not contain control characters")
	ErrNoUserIDsProvided           = apierrors.Validation("at least one user ID is required")
	ErrInvalidTaskAssignee         = apierrors.Validation("one or more users are not members of the project")
	ErrOwnerAssignmentNotGrantable = apierrors.Validation("the OWNER task role cannot be assigned")
	ErrOwnerAssignmentRemoval      = apierrors.Validation("the task owner's assignment cannot be removed")
	ErrUnknownTaskRole             = apierrors.Validation("task role must be ASSIGNEE")

	ErrStatusChangedConcurrently = apierrors.InvalidTaskState("task status was changed by another request")

	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoTasksGenerated     = apierrors.Validation("AI did not generate any tasks")
	ErrAINoValidTasks         = apierrors.Validation("no valid tasks could be created from AI output")
)

// lookupError maps a missing row to notFound and wraps anything else.
// writeError is lookupError for updates: a row deleted by a concurrent
// transaction surfaces as notFound.
func writeError(err error, notFound error, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

func lookupError(err error, notFound error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return fmt.Errorf("failed to find %s: %w", what, err)
}
