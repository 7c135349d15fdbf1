package mailer

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *recordingSender) messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.sent...)
}

func TestDispatcher_DeliversQueuedMessages(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender, Options{QueueSize: 10, Workers: 3, BaseURL: "https://app.example.com"}, nil)
	d.Start(context.Background())

	d.SendTeamInvitationEmail("bob@example.com", "Core", "tok-1")
	d.SendProjectInvitationEmail("bob@example.com", "Launch", "tok-2")
	d.SendVerificationEmail("carol@example.com", "tok-3")
	d.SendPasswordResetEmail("dave@example.com", "https://app.example.com/reset-password?token=tok-4")
	require.NoError(t, d.Close())

	sent := sender.messages()
	require.Len(t, sent, 4)

	bodies := make(map[string]string)
	for _, msg := range sent {
		bodies[msg.To+"|"+msg.Subject] = msg.Body
	}
	assert.Contains(t, bodies["bob@example.com|You have been invited to join Core"], "https://app.example.com/invitations/accept?token=tok-1")
	assert.Contains(t, bodies["bob@example.com|You have been invited to collaborate on Launch"], "token=tok-2")
	assert.Contains(t, bodies["carol@example.com|Verify your email address"], "https://app.example.com/verify-email?token=tok-3")
	assert.Contains(t, bodies["dave@example.com|Reset your password"], "reset-password?token=tok-4")
}

func TestDispatcher_DropsWhenQueueFull(t *testing.T) {
	logger, hook := test.NewNullLogger()
	sender := &recordingSender{}
	d := NewDispatcher(sender, Options{QueueSize: 1, Workers: 1}, logger)

	// Workers are not running yet, so the second message has nowhere to go
	d.SendVerificationEmail("a@example.com", "t1")
	d.SendVerificationEmail("b@example.com", "t2")

	d.Start(context.Background())
	require.NoError(t, d.Close())

	sent := sender.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "a@example.com", sent[0].To)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "Mail queue full, dropping email", hook.LastEntry().Message)
}

func TestDispatcher_SwallowsSendFailures(t *testing.T) {
	logger, hook := test.NewNullLogger()
	sender := &recordingSender{err: errors.New("relay down")}
	d := NewDispatcher(sender, Options{Workers: 2}, logger)
	d.Start(context.Background())

	d.SendTeamInvitationEmail("bob@example.com", "Core", "tok")
	require.NoError(t, d.Close())

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Equal(t, "Failed to send email", hook.LastEntry().Message)
}

func TestDispatcher_EnqueueAfterCloseIsDropped(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender, Options{}, nil)
	d.Start(context.Background())
	require.NoError(t, d.Close())
	require.NoError(t, d.Close())

	assert.NotPanics(t, func() { d.SendVerificationEmail("late@example.com", "tok") })
	assert.Empty(t, sender.messages())
}

func TestSMTPSender_FormatsMessage(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	s := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", Port: "587", From: "noreply@example.com"}, nil)
	s.sendMail = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	err := s.Send(context.Background(), Message{To: "bob@example.com", Subject: "Hello", Body: "line one\nline two"})
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "noreply@example.com", gotFrom)
	assert.Equal(t, []string{"bob@example.com"}, gotTo)
	raw := string(gotMsg)
	assert.True(t, strings.HasPrefix(raw, "From: noreply@example.com\r\nTo: bob@example.com\r\nSubject: Hello\r\n"))
	assert.Contains(t, raw, "line one\r\nline two")
}

func TestSMTPSender_HeadersCannotBeInjected(t *testing.T) {
	var gotMsg []byte
	s := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", Port: "587", From: "noreply@example.com"}, nil)
	s.sendMail = func(_ string, _ smtp.Auth, _ string, _ []string, msg []byte) error {
		gotMsg = msg
		return nil
	}

	msg := teamInvitation("https://app.example.com", "bob@example.com\r\nCc: eve@example.com", "Core\r\nBcc: attacker@evil.example", "tok")
	require.NoError(t, s.Send(context.Background(), msg))

	head, _, found := strings.Cut(string(gotMsg), "\r\n\r\n")
	require.True(t, found)
	lines := strings.Split(head, "\r\n")
	require.Len(t, lines, 5)
	for _, line := range lines {
		assert.False(t, strings.HasPrefix(line, "Bcc:"), line)
		assert.False(t, strings.HasPrefix(line, "Cc:"), line)
	}
	assert.Equal(t, "To: bob@example.comCc: eve@example.com", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "Subject: =?utf-8?q?"), lines[2])
}

func TestSMTPSender_EncodesNonASCIISubject(t *testing.T) {
	var gotMsg []byte
	s := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", Port: "587", From: "noreply@example.com"}, nil)
	s.sendMail = func(_ string, _ smtp.Auth, _ string, _ []string, msg []byte) error {
		gotMsg = msg
		return nil
	}

	require.NoError(t, s.Send(context.Background(), Message{To: "bob@example.com", Subject: "Café", Body: "hi"}))
	assert.Contains(t, string(gotMsg), "Subject: =?utf-8?q?Caf=C3=A9?=\r\n")
}

func TestSMTPSender_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	calls := 0
	s := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", Port: "25"}, nil)
	s.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		calls++
		return errors.New("connection refused")
	}

	for i := 0; i < 4; i++ {
		require.Error(t, s.Send(context.Background(), Message{To: "x@example.com"}))
	}

	err := s.Send(context.Background(), Message{To: "x@example.com"})
	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 4, calls)
}

func TestSMTPSender_CanceledContext(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", Port: "25"}, nil)
	s.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("should not dial")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Send(ctx, Message{To: "x@example.com"}), context.Canceled)
}

func TestLogSender(t *testing.T) {
	logger, hook := test.NewNullLogger()
	require.NoError(t, NewLogSender(logger).Send(context.Background(), Message{To: "bob@example.com", Subject: "Hi", Body: "body"}))

	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, "body", hook.LastEntry().Message)
	assert.Equal(t, "bob@example.com", hook.LastEntry().Data["to"])
}
