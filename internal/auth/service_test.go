package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/companion-labs/companion-api/internal/logging"
	"github.com/companion-labs/companion-api/internal/user"
)

type fakeUserStore struct {
	users map[string]*user.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*user.User)}
}

func (f *fakeUserStore) Create(_ context.Context, fullName, email, passwordHash, otp string) (*user.User, error) {
	if _, ok := f.users[email]; ok {
		return nil, user.ErrDuplicateEmail
	}
	now := time.Now().UTC()
	u := &user.User{
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
	f.users[email] = u
	return u, nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*user.User, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, user.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserStore) SetSignupOTP(_ context.Context, email, otp string) error {
	u, ok := f.users[email]
	if !ok {
		return user.ErrNotFound
	}
	now := time.Now().UTC()
	u.OTP = &otp
	u.OTPCreatedAt = &now
	return nil
}

func (f *fakeUserStore) MarkVerified(_ context.Context, email string) error {
	u, ok := f.users[email]
	if !ok {
		return user.ErrNotFound
	}
	u.IsVerified = true
	u.OTP = nil
	u.OTPCreatedAt = nil
	return nil
}

func (f *fakeUserStore) SetResetOTP(_ context.Context, email, otp string) error {
	u, ok := f.users[email]
	if !ok {
		return user.ErrNotFound
	}
	now := time.Now().UTC()
	u.ResetOTP = &otp
	u.ResetOTPCreatedAt = &now
	return nil
}

func (f *fakeUserStore) UpdatePassword(_ context.Context, email, passwordHash string) error {
	u, ok := f.users[email]
	if !ok {
		return user.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.ResetOTP = nil
	u.ResetOTPCreatedAt = nil
	return nil
}

type fakeEmailSender struct {
	otpSent     []string
	welcomeSent []string
	failOTP     error
	failWelcome error
}

func (f *fakeEmailSender) SendOTPEmail(_ context.Context, to, otp string) error {
	if f.failOTP != nil {
		return f.failOTP
	}
	f.otpSent = append(f.otpSent, otp)
	return nil
}

func (f *fakeEmailSender) SendWelcomeEmail(_ context.Context, to, name string) error {
	if f.failWelcome != nil {
		return f.failWelcome
	}
	f.welcomeSent = append(f.welcomeSent, to)
	return nil
}

func newTestService(store *fakeUserStore, sender *fakeEmailSender) *Service {
	return NewService(store, sender, logging.NewLogger(true))
}

func TestSignup_CreatesUnverifiedUserAndEmailsOTP(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	sender := &fakeEmailSender{}
	svc := newTestService(store, sender)

	created, emailSent, err := svc.Signup(context.Background(), "Ann", "ann@x.com", "secret1", "secret1")
	require.NoError(t, err)
	require.True(t, emailSent)
	require.False(t, created.IsVerified)

	stored := store.users["ann@x.com"]
	require.NotNil(t, stored.OTP)
	require.Len(t, *stored.OTP, 6)
	require.Equal(t, []string{*stored.OTP}, sender.otpSent)
	require.Equal(t, []string{"ann@x.com"}, sender.welcomeSent)
}

func TestSignup_EmailFailureDoesNotRollBackUser(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	sender := &fakeEmailSender{failWelcome: errors.New("smtp down")}
	svc := newTestService(store, sender)

	created, emailSent, err := svc.Signup(context.Background(), "Ann", "ann@x.com", "secret1", "secret1")
	require.NoError(t, err)
	require.False(t, emailSent)
	require.NotNil(t, created)
	require.Contains(t, store.users, "ann@x.com")
}

func TestSignup_ValidationErrors(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeUserStore(), &fakeEmailSender{})
	ctx := context.Background()

	_, _, err := svc.Signup(ctx, "", "ann@x.com", "secret1", "secret1")
	require.ErrorIs(t, err, ErrFullNameRequired)

	_, _, err = svc.Signup(ctx, "Ann", "not-an-email", "secret1", "secret1")
	require.ErrorIs(t, err, ErrInvalidEmailFormat)

	_, _, err = svc.Signup(ctx, "Ann", "ann@x.com", "short", "short")
	require.ErrorIs(t, err, ErrPasswordTooShort)

	_, _, err = svc.Signup(ctx, "Ann", "ann@x.com", "secret1", "secret2")
	require.ErrorIs(t, err, ErrPasswordsDoNotMatch)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	svc := newTestService(store, &fakeEmailSender{})
	ctx := context.Background()

	_, _, err := svc.Signup(ctx, "Ann", "ann@x.com", "secret1", "secret1")
	require.NoError(t, err)

	_, _, err = svc.Signup(ctx, "Ann Again", "ann@x.com", "secret1", "secret1")
	require.ErrorIs(t, err, user.ErrDuplicateEmail)
}

func TestLogin_RequiresVerifiedEmail(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	svc := newTestService(store, &fakeEmailSender{})
	ctx := context.Background()

	_, _, err := svc.Signup(ctx, "Ann", "ann@x.com", "secret1", "secret1")
	require.NoError(t, err)

	// Before verification login is refused even with the right password.
	_, err = svc.Login(ctx, "ann@x.com", "secret1")
	require.ErrorIs(t, err, ErrEmailNotVerified)

	otp := *store.users["ann@x.com"].OTP
	require.NoError(t, svc.VerifyEmail(ctx, "ann@x.com", otp))

	loggedIn, err := svc.Login(ctx, "ann@x.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, "Ann", loggedIn.FullName)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	svc := newTestService(store, &fakeEmailSender{})
	ctx := context.Background()

	_, err := svc.Login(ctx, "ghost@x.com", "secret1")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Signup(ctx, "Ann", "ann@x.com", "secret1", "secret1")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "ann@x.com", "wrong-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyEmail_WrongThenRightOTP(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	svc := newTestService(store, &fakeEmailSender{})
	ctx := context.Background()

	_, _, err := svc.Signup(ctx, "Ann", "ann@x.com", "secret1", "secret1")
	require.NoError(t, err)

	otp := *store.users["ann@x.com"].OTP
	wrong := "000000"
	if wrong == otp {
		wrong = "000001"
	}

	require.ErrorIs(t, svc.VerifyEmail(ctx, "ann@x.com", wrong), ErrInvalidOTP)
	require.False(t, store.users["ann@x.com"].IsVerified)

	require.NoError(t, svc.VerifyEmail(ctx, "ann@x.com", otp))
	require.True(t, store.users["ann@x.com"].IsVerified)
	require.Nil(t, store.users["ann@x.com"].OTP)
}

func TestVerifyEmail_ExpiredOTP(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	svc := newTestService(store, &fakeEmailSender{})
	ctx := context.Background()

	_, _, err := svc.Signup(ctx, "Ann", "ann@x.com", "secret1", "secret1")
	require.NoError(t, err)

	// Age the code past the validity window.
	stale := time.Now().UTC().Add(-11 * time.Minute)
	store.users["ann@x.com"].OTPCreatedAt = &stale

	otp := *store.users["ann@x.com"].OTP
	require.ErrorIs(t, svc.VerifyEmail(ctx, "ann@x.com", otp), ErrOTPExpired)
}

func TestVerifyEmail_UnknownUser(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeUserStore(), &fakeEmailSender{})
	err := svc.VerifyEmail(context.Background(), "ghost@x.com", "123456")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestRequestPasswordReset_UnknownEmailIsSilent(t *testing.T) {
	t.Parallel()

	sender := &fakeEmailSender{}
	svc := newTestService(newFakeUserStore(), sender)

	require.NoError(t, svc.RequestPasswordReset(context.Background(), "ghost@x.com"))
	require.Empty(t, sender.otpSent)
}

func TestRequestPasswordReset_EmailFailureSurfaces(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	sender := &fakeEmailSender{}
	svc := newTestService(store, sender)
	ctx := context.Background()

	_, _, err := svc.Signup(ctx, "Ann", "ann@x.com", "secret1", "secret1")
	require.NoError(t, err)

	sender.failOTP = errors.New("gmail down")
	require.Error(t, svc.RequestPasswordReset(ctx, "ann@x.com"))
}

func TestVerifyPasswordReset_Flow(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	sender := &fakeEmailSender{}
	svc := newTestService(store, sender)
	ctx := context.Background()

	_, _, err := svc.Signup(ctx, "Ann", "ann@x.com", "secret1", "secret1")
	require.NoError(t, err)
	require.NoError(t, svc.RequestPasswordReset(ctx, "ann@x.com"))

	otp := *store.users["ann@x.com"].ResetOTP

	// Validation-only call leaves state untouched.
	changed, err := svc.VerifyPasswordReset(ctx, "ann@x.com", otp, "")
	require.NoError(t, err)
	require.False(t, changed)
	require.NotNil(t, store.users["ann@x.com"].ResetOTP)

	// Reusing the current password is rejected.
	_, err = svc.VerifyPasswordReset(ctx, "ann@x.com", otp, "secret1")
	require.ErrorIs(t, err, ErrPasswordReused)

	_, err = svc.VerifyPasswordReset(ctx, "ann@x.com", otp, "tiny")
	require.ErrorIs(t, err, ErrPasswordTooShort)

	changed, err = svc.VerifyPasswordReset(ctx, "ann@x.com", otp, "newsecret")
	require.NoError(t, err)
	require.True(t, changed)
	require.Nil(t, store.users["ann@x.com"].ResetOTP)
	require.True(t, VerifyPassword(store.users["ann@x.com"].PasswordHash, "newsecret"))
}

func TestVerifyPasswordReset_ExpiredAndUnknown(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	svc := newTestService(store, &fakeEmailSender{})
	ctx := context.Background()

	_, err := svc.VerifyPasswordReset(ctx, "ghost@x.com", "123456", "")
	require.ErrorIs(t, err, ErrInvalidOrExpiredOTP)

	_, _, err = svc.Signup(ctx, "Ann", "ann@x.com", "secret1", "secret1")
	require.NoError(t, err)
	require.NoError(t, svc.RequestPasswordReset(ctx, "ann@x.com"))

	stale := time.Now().UTC().Add(-11 * time.Minute)
	store.users["ann@x.com"].ResetOTPCreatedAt = &stale

	otp := *store.users["ann@x.com"].ResetOTP
	_, err = svc.VerifyPasswordReset(ctx, "ann@x.com", otp, "newsecret")
	require.ErrorIs(t, err, ErrOTPExpired)
}

func TestResendVerificationOTP(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	sender := &fakeEmailSender{}
	svc := newTestService(store, sender)
	ctx := context.Background()

	// Unknown email is swallowed.
	require.NoError(t, svc.ResendVerificationOTP(ctx, "ghost@x.com"))
	require.Empty(t, sender.otpSent)

	_, _, err := svc.Signup(ctx, "Ann", "ann@x.com", "secret1", "secret1")
	require.NoError(t, err)

	require.NoError(t, svc.ResendVerificationOTP(ctx, "ann@x.com"))
	require.Len(t, sender.otpSent, 2)
	require.NotNil(t, store.users["ann@x.com"].OTP)

	// Already verified accounts are left alone.
	require.NoError(t, svc.VerifyEmail(ctx, "ann@x.com", *store.users["ann@x.com"].OTP))
	sent := len(sender.otpSent)
	require.NoError(t, svc.ResendVerificationOTP(ctx, "ann@x.com"))
	require.Len(t, sender.otpSent, sent)
}
