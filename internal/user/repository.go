package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/companion-labs/companion-api/internal/database"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("user already exists")
)

// Repository handles user data persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new unverified user with a pending signup OTP.
func (r *Repository) Create(ctx context.Context, fullName, email, passwordHash, otp string) (*User, error) {
	now := time.Now().UTC()
	dbUser := &database.User{
		UserID:       uuid.New(),
		FullName:     fullName,
		Email:        email,
		PasswordHash: passwordHash,
		IsVerified:   false,
		OTP:          &otp,
		OTPCreatedAt: &now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := r.db.NewInsert().
		Model(dbUser).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByEmail retrieves a user by email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("email = ?", email).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByID retrieves a user by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("user_id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// SetSignupOTP stores a fresh signup verification code and its issue time.
func (r *Repository) SetSignupOTP(ctx context.Context, email, otp string) error {
	return r.updateByEmail(ctx, email, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.
			Set("otp = ?", otp).
			Set("otp_created_at = ?", time.Now().UTC())
	})
}

// MarkVerified flips the verification flag and clears the signup OTP fields.
func (r *Repository) MarkVerified(ctx context.Context, email string) error {
	return r.updateByEmail(ctx, email, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.
			Set("is_verified = ?", true).
			Set("otp = NULL").
			Set("otp_created_at = NULL")
	})
}

// SetResetOTP stores a fresh password reset code and its issue time.
func (r *Repository) SetResetOTP(ctx context.Context, email, otp string) error {
	return r.updateByEmail(ctx, email, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.
			Set("reset_otp = ?", otp).
			Set("reset_otp_created_at = ?", time.Now().UTC())
	})
}

// UpdatePassword replaces the password hash and clears any pending reset code.
func (r *Repository) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	return r.updateByEmail(ctx, email, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.
			Set("password_hash = ?", passwordHash).
			Set("reset_otp = NULL").
			Set("reset_otp_created_at = NULL")
	})
}

func (r *Repository) updateByEmail(ctx context.Context, email string, apply func(*bun.UpdateQuery) *bun.UpdateQuery) error {
	q := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Where("email = ?", email)

	result, err := apply(q).
		Set("updated_at = ?", time.Now().UTC()).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	return &User{
		UserID:            dbu.UserID,
		FullName:          dbu.FullName,
		Email:             dbu.Email,
		PasswordHash:      dbu.PasswordHash,
		IsVerified:        dbu.IsVerified,
		OTP:               dbu.OTP,
		OTPCreatedAt:      dbu.OTPCreatedAt,
		ResetOTP:          dbu.ResetOTP,
		ResetOTPCreatedAt: dbu.ResetOTPCreated,
		CreatedAt:         dbu.CreatedAt,
		UpdatedAt:         dbu.UpdatedAt,
	}
}
