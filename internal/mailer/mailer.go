// Package mailer delivers account and invitation emails in the background.
// Callers enqueue and return; delivery failures are logged and dropped.
package mailer

import (
	"context"
	"fmt"
)

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers one message synchronously.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Mailer is the fire-and-forget email collaborator used by the services.
type Mailer interface {
	SendTeamInvitationEmail(to, teamName, token string)
	SendProjectInvitationEmail(to, projectName, token string)
	SendPasswordResetEmail(to, resetURL string)
	SendVerificationEmail(to, token string)
}

func teamInvitation(baseURL, to, teamName, token string) Message {
	return Message{
		To:      to,
		Subject: fmt.Sprintf("You have been invited to join %s", teamName),
		Body: fmt.Sprintf("You have been invited to join the team %q.\n\nAccept the invitation: %s/invitations/accept?token=%s\n\nThis link expires in 24 hours.",
			teamName, baseURL, token),
	}
}

func projectInvitation(baseURL, to, projectName, token string) Message {
	return Message{
		To:      to,
		Subject: fmt.Sprintf("You have been invited to collaborate on %s", projectName),
		Body: fmt.Sprintf("You have been invited to the project %q.\n\nAccept the invitation: %s/invitations/accept?token=%s\n\nThis link expires in 24 hours.",
			projectName, baseURL, token),
	}
}

func passwordReset(to, resetURL string) Message {
	return Message{
		To:      to,
		Subject: "Reset your password",
		Body:    fmt.Sprintf("Use the link below to choose a new password:\n\n%s\n\nThis link expires in 24 hours. If you did not ask for a reset, ignore this email.", resetURL),
	}
}

func verification(baseURL, to, token string) Message {
	return Message{
		To:      to,
		Subject: "Verify your email address",
		Body:    fmt.Sprintf("Welcome! Confirm your email address to activate your account:\n\n%s/verify-email?token=%s\n\nThis link expires in 24 hours.", baseURL, token),
	}
}
