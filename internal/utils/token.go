package utils

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateToken returns an opaque random token for invitation, invite link,
// email verification and password reset flows.
func GenerateToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// TokenExpired reports whether a token expiry is missing or not after now.
func TokenExpired(expiry *time.Time, now time.Time) bool {
	return expiry == nil || !now.Before(*expiry)
}
