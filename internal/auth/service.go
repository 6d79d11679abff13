package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/companion-labs/companion-api/internal/logging"
	"github.com/companion-labs/companion-api/internal/user"
)

var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrEmailNotVerified     = errors.New("email not verified")
	ErrFullNameRequired     = errors.New("full name is required")
	ErrEmailRequired        = errors.New("email is required")
	ErrInvalidEmailFormat   = errors.New("invalid email format")
	ErrPasswordRequired     = errors.New("password is required")
	ErrPasswordsDoNotMatch  = errors.New("passwords do not match")
	ErrPasswordTooShort     = errors.New("password must be at least 6 characters")
	ErrPasswordReused       = errors.New("new password cannot be the same as your current password")
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidOTP           = errors.New("invalid OTP")
	ErrOTPExpired           = errors.New("OTP has expired, please request a new one")
	ErrInvalidOrExpiredOTP  = errors.New("invalid or expired OTP")
)

// UserStore is the credential store consumed by the auth service.
type UserStore interface {
	Create(ctx context.Context, fullName, email, passwordHash, otp string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	SetSignupOTP(ctx context.Context, email, otp string) error
	MarkVerified(ctx context.Context, email string) error
	SetResetOTP(ctx context.Context, email, otp string) error
	UpdatePassword(ctx context.Context, email, passwordHash string) error
}

// EmailSender delivers outbound notification email.
type EmailSender interface {
	SendOTPEmail(ctx context.Context, to, otp string) error
	SendWelcomeEmail(ctx context.Context, to, name string) error
}

// Service handles signup, login and the OTP verification flows.
type Service struct {
	userStore   UserStore
	emailSender EmailSender
	logger      *logging.Logger
}

func NewService(userStore UserStore, emailSender EmailSender, logger *logging.Logger) *Service {
	return &Service{
		userStore:   userStore,
		emailSender: emailSender,
		logger:      logger,
	}
}

// Signup creates a new unverified account and emails a verification code.
// The returned bool reports whether the email went out; a send failure does
// not roll back account creation, the caller is told to request a new code.
func (s *Service) Signup(ctx context.Context, fullName, email, password, confirmPassword string) (*user.User, bool, error) {
	if fullName == "" {
		return nil, false, ErrFullNameRequired
	}
	if email == "" {
		return nil, false, ErrEmailRequired
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, false, ErrInvalidEmailFormat
	}
	if password == "" {
		return nil, false, ErrPasswordRequired
	}
	if len(password) < 6 {
		return nil, false, ErrPasswordTooShort
	}
	if password != confirmPassword {
		return nil, false, ErrPasswordsDoNotMatch
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		return nil, false, fmt.Errorf("failed to hash password: %w", err)
	}

	otp, err := generateOTP()
	if err != nil {
		return nil, false, err
	}

	newUser, err := s.userStore.Create(ctx, fullName, email, passwordHash, otp)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, false, user.ErrDuplicateEmail
		}
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}

	// Sent in the request path so email_sent in the response is truthful.
	if err := s.emailSender.SendWelcomeEmail(ctx, email, fullName); err != nil {
		s.logger.Warn("failed to send welcome email", "email", email, "error", err)
		return newUser, false, nil
	}
	if err := s.emailSender.SendOTPEmail(ctx, email, otp); err != nil {
		s.logger.Warn("failed to send verification OTP email", "email", email, "error", err)
		return newUser, false, nil
	}

	return newUser, true, nil
}

// Login authenticates a user by email and password.
func (s *Service) Login(ctx context.Context, email, password string) (*user.User, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	existingUser, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !VerifyPassword(existingUser.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	if !existingUser.IsVerified {
		return nil, ErrEmailNotVerified
	}

	return existingUser, nil
}

// VerifyEmail validates a signup OTP and marks the account verified.
// Unknown emails surface as not-found here: the endpoint is only reachable
// by a caller who just signed that email up, so nothing new is leaked.
func (s *Service) VerifyEmail(ctx context.Context, email, otp string) error {
	existingUser, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if existingUser.OTP == nil || otpExpired(existingUser.OTPCreatedAt, time.Now().UTC()) {
		return ErrOTPExpired
	}

	if *existingUser.OTP != otp {
		return ErrInvalidOTP
	}

	if err := s.userStore.MarkVerified(ctx, email); err != nil {
		return fmt.Errorf("failed to mark user verified: %w", err)
	}

	return nil
}

// ResendVerificationOTP issues a fresh signup code for an unverified account.
// Always returns nil for unknown or already verified emails.
func (s *Service) ResendVerificationOTP(ctx context.Context, email string) error {
	existingUser, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil
		}
		s.logger.Warn("failed to get user for OTP resend", "error", err)
		return nil
	}

	if existingUser.IsVerified {
		return nil
	}

	otp, err := generateOTP()
	if err != nil {
		s.logger.Warn("failed to generate OTP for resend", "error", err)
		return nil
	}

	if err := s.userStore.SetSignupOTP(ctx, email, otp); err != nil {
		s.logger.Warn("failed to store resent OTP", "error", err)
		return nil
	}

	if err := s.emailSender.SendOTPEmail(ctx, email, otp); err != nil {
		s.logger.Warn("failed to send resent OTP email", "email", email, "error", err)
	}

	return nil
}

// RequestPasswordReset issues a reset OTP for a known account. Unknown emails
// are swallowed so the endpoint cannot be used to enumerate registrations.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	existingUser, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil
		}
		s.logger.Warn("failed to get user for password reset", "error", err)
		return nil
	}

	otp, err := generateOTP()
	if err != nil {
		return err
	}

	if err := s.userStore.SetResetOTP(ctx, existingUser.Email, otp); err != nil {
		return fmt.Errorf("failed to store reset OTP: %w", err)
	}

	if err := s.emailSender.SendOTPEmail(ctx, email, otp); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}

	return nil
}

// VerifyPasswordReset validates a reset OTP. With a new password it also
// replaces the stored hash and consumes the code; without one it only
// confirms validity so the client can collect the new password in a second
// step. The returned bool reports whether the password changed.
func (s *Service) VerifyPasswordReset(ctx context.Context, email, otp, newPassword string) (bool, error) {
	existingUser, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// Don't reveal whether the email is registered.
			return false, ErrInvalidOrExpiredOTP
		}
		return false, fmt.Errorf("failed to get user: %w", err)
	}

	if existingUser.ResetOTP == nil || otpExpired(existingUser.ResetOTPCreatedAt, time.Now().UTC()) {
		return false, ErrOTPExpired
	}

	if *existingUser.ResetOTP != otp {
		return false, ErrInvalidOTP
	}

	if newPassword == "" {
		return false, nil
	}

	if len(newPassword) < 6 {
		return false, ErrPasswordTooShort
	}

	if VerifyPassword(existingUser.PasswordHash, newPassword) {
		return false, ErrPasswordReused
	}

	passwordHash, err := HashPassword(newPassword)
	if err != nil {
		return false, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userStore.UpdatePassword(ctx, email, passwordHash); err != nil {
		return false, fmt.Errorf("failed to update password: %w", err)
	}

	return true, nil
}
