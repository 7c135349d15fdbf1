package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/collab-api/internal/constants"
	"github.com/yukikurage/collab-api/internal/logging"
	"github.com/yukikurage/collab-api/internal/mailer"
	"github.com/yukikurage/collab-api/internal/models"
	"github.com/yukikurage/collab-api/internal/repository"
	"github.com/yukikurage/collab-api/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService handles authentication related business logic.
type AuthService struct {
	store   repository.Transactor
	mailer  mailer.Mailer
	baseURL string
	log     logrus.FieldLogger

	// compare checks a password against a stored hash
	compare func(hash, password []byte) error

	Now func() time.Time
}

// dummyHash is compared against when a login names an unknown user, so that
// the response takes as long as a wrong password would.
var dummyHash = sync.OnceValue(func() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("collab-api-unknown-user"), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Sprintf("failed to hash dummy password: %v", err))
	}
	return hash
})

// normalizeEmail trims and lower-cases an address. Emails are stored and
// matched in this form.
func normalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// NewAuthService creates a new AuthService. baseURL prefixes the links sent
// in password reset emails.
func NewAuthService(store repository.Transactor, mail mailer.Mailer, baseURL string, log logrus.FieldLogger) *AuthService {
	return &AuthService{
		store:   store,
		mailer:  mail,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		log:     logging.OrDiscard(log),
		compare: bcrypt.CompareHashAndPassword,
		Now:     time.Now,
	}
}

// SignupInput represents the required information to create a new user.
type SignupInput struct {
	Username string
	Email    string
	Password string
}

// Signup creates a disabled user and emails a verification token.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	email := normalizeEmail(input.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	token := utils.GenerateToken()
	expiry := s.Now().Add(constants.TokenTTL)
	user := &models.User{
		Username:                username,
		Email:                   email,
		PasswordHash:            string(hashedPassword),
		Enabled:                 false,
		VerificationToken:       &token,
		VerificationTokenExpiry: &expiry,
	}

	err = s.store.Transaction(ctx, func(repos repository.Repositories) error {
		if _, err := repos.Users.FindByUsername(ctx, username); err == nil {
			return ErrUsernameTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check username: %w", err)
		}

		if _, err := repos.Users.FindByEmail(ctx, email); err == nil {
			return ErrEmailTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check email: %w", err)
		}

		if err := repos.Users.Create(ctx, user); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAccountExists
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.mailer != nil {
		s.mailer.SendVerificationEmail(user.Email, token)
	}

	s.log.WithField("user_id", user.ID).Info("User signed up")
	return user, nil
}

// VerifyEmail enables the account holding token.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	var user *models.User

	err := s.store.Transaction(ctx, func(repos repository.Repositories) error {
		if strings.TrimSpace(token) == "" {
			return ErrVerificationTokenInvalid
		}

		var err error
		user, err = repos.Users.FindByVerificationToken(ctx, token)
		if err != nil {
			return lookupError(err, ErrVerificationTokenInvalid, "user")
		}
		if utils.TokenExpired(user.VerificationTokenExpiry, s.Now()) {
			return ErrVerificationTokenInvalid
		}

		user.Enabled = true
		user.VerificationToken = nil
		user.VerificationTokenExpiry = nil
		if err := repos.Users.Update(ctx, user); err != nil {
			return writeError(err, ErrVerificationTokenInvalid, "verify user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithField("user_id", user.ID).Info("Email verified")
	return user, nil
}

// ResendVerification issues a fresh verification token for a disabled user.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	var token, to string

	err := s.store.Transaction(ctx, func(repos repository.Repositories) error {
		user, err := repos.Users.FindByEmail(ctx, normalizeEmail(email))
		if err != nil {
			return lookupError(err, ErrUserNotFound, "user")
		}
		if user.Enabled {
			return ErrAlreadyVerified
		}

		token = utils.GenerateToken()
		expiry := s.Now().Add(constants.TokenTTL)
		user.VerificationToken = &token
		user.VerificationTokenExpiry = &expiry
		if err := repos.Users.Update(ctx, user); err != nil {
			return writeError(err, ErrUserNotFound, "store verification token")
		}

		to = user.Email
		return nil
	})
	if err != nil {
		return err
	}

	if s.mailer != nil {
		s.mailer.SendVerificationEmail(to, token)
	}
	return nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Username string
	Password string
}

// Login verifies credentials and returns the authenticated user. Accounts
// that have not verified their email cannot log in.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	var user *models.User

	err := s.store.Transaction(ctx, func(repos repository.Repositories) error {
		var err error
		user, err = repos.Users.FindByUsername(ctx, strings.TrimSpace(input.Username))
		if err != nil {
			return lookupError(err, ErrInvalidCredentials, "user")
		}
		return nil
	})
	if errors.Is(err, ErrInvalidCredentials) {
		_ = s.compare(dummyHash(), []byte(input.Password))
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	if err := s.compare([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.Enabled {
		return nil, ErrEmailNotVerified
	}

	return user, nil
}

// RequestPasswordReset stores a reset token for the account registered
// under email and sends it a reset link.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	var token, to string
	var userID uint64

	err := s.store.Transaction(ctx, func(repos repository.Repositories) error {
		user, err := repos.Users.FindByEmail(ctx, normalizeEmail(email))
		if err != nil {
			return lookupError(err, ErrUserNotFound, "user")
		}

		token = utils.GenerateToken()
		expiry := s.Now().Add(constants.TokenTTL)
		user.PasswordResetToken = &token
		user.PasswordResetTokenExpiry = &expiry
		if err := repos.Users.Update(ctx, user); err != nil {
			return writeError(err, ErrUserNotFound, "store reset token")
		}

		to = user.Email
		userID = user.ID
		return nil
	})
	if err != nil {
		return err
	}

	if s.mailer != nil {
		s.mailer.SendPasswordResetEmail(to, s.baseURL+"/reset-password?token="+url.QueryEscape(token))
	}

	s.log.WithField("user_id", userID).Info("Password reset requested")
	return nil
}

// ResetPasswordInput holds a reset token and the new password.
type ResetPasswordInput struct {
	Token       string
	NewPassword string
}

// ResetPassword sets a new password for the account holding the token.
func (s *AuthService) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	if len(input.NewPassword) < constants.MinPasswordLength {
		return ErrPasswordTooShort
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	var userID uint64
	err = s.store.Transaction(ctx, func(repos repository.Repositories) error {
		if strings.TrimSpace(input.Token) == "" {
			return ErrResetTokenInvalid
		}

		user, err := repos.Users.FindByPasswordResetToken(ctx, input.Token)
		if err != nil {
			return lookupError(err, ErrResetTokenInvalid, "user")
		}
		if utils.TokenExpired(user.PasswordResetTokenExpiry, s.Now()) {
			return ErrResetTokenInvalid
		}

		user.PasswordHash = string(hashedPassword)
		user.PasswordResetToken = nil
		user.PasswordResetTokenExpiry = nil
		if err := repos.Users.Update(ctx, user); err != nil {
			return writeError(err, ErrResetTokenInvalid, "reset password")
		}

		userID = user.ID
		return nil
	})
	if err != nil {
		return err
	}

	s.log.WithField("user_id", userID).Info("Password reset")
	return nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id uint64) (*models.User, error) {
	var user *models.User

	err := s.store.Transaction(ctx, func(repos repository.Repositories) error {
		var err error
		user, err = repos.Users.FindByID(ctx, id)
		if err != nil {
			return lookupError(err, ErrUserNotFound, "user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}
