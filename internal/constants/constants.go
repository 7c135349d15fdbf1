package constants

import "time"

// Session and context keys
const (
	SessionCookieName = "collab_session"
	ContextKeyUserID  = "user_id"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Accounts
const (
	MinPasswordLength = 8
)

// Token lifetimes. Every invitation, link, verification and reset token uses
// the same window.
const (
	TokenTTL = 24 * time.Hour
)

// AI
const (
	MaxAIGeneratedTasks = 20
)
