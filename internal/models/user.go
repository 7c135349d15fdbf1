package models

import "time"

type User struct {
	ID           uint64 `gorm:"primarykey" json:"id"`
	Username     string `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Email        string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null" json:"-"`
	// Enabled becomes true once the email address is verified.
	Enabled bool `gorm:"not null;default:false" json:"enabled"`

	VerificationToken        *string    `gorm:"type:varchar(64);uniqueIndex" json:"-"`
	VerificationTokenExpiry  *time.Time `json:"-"`
	PasswordResetToken       *string    `gorm:"type:varchar(64);uniqueIndex" json:"-"`
	PasswordResetTokenExpiry *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
