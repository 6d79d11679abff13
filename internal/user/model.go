package user

import (
	"time"

	"github.com/google/uuid"
)

// User is the domain model for a registered account.
type User struct {
	UserID            uuid.UUID  `json:"user_id"`
	FullName          string     `json:"full_name"`
	Email             string     `json:"email"`
	PasswordHash      string     `json:"-"` // Never expose password hash in JSON
	IsVerified        bool       `json:"is_verified"`
	OTP               *string    `json:"-"`
	OTPCreatedAt      *time.Time `json:"-"`
	ResetOTP          *string    `json:"-"`
	ResetOTPCreatedAt *time.Time `json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}
