package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/companion-labs/companion-api/internal/httputil"
	"github.com/companion-labs/companion-api/internal/logging"
	"github.com/companion-labs/companion-api/internal/user"
)

// IPRateLimiter limits request bursts per client IP and purpose.
type IPRateLimiter interface {
	CheckIPRateLimit(ctx context.Context, ip, purpose string) (bool, error)
	RecordIPRequest(ctx context.Context, ip, purpose string) error
}

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service     *Service
	rateLimiter IPRateLimiter
}

func NewHandler(service *Service, rateLimiter IPRateLimiter) *Handler {
	return &Handler{
		service:     service,
		rateLimiter: rateLimiter,
	}
}

// SignupRequest represents the signup request body
type SignupRequest struct {
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// SignupResponse represents the signup response
type SignupResponse struct {
	Message   string `json:"message"`
	EmailSent bool   `json:"email_sent"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Message  string `json:"message"`
	UserID   string `json:"user_id"`
	FullName string `json:"full_name"`
}

// EmailRequest carries a bare email address
type EmailRequest struct {
	Email string `json:"email"`
}

// VerifyEmailRequest represents the email verification request
type VerifyEmailRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// ResetVerifyRequest represents the password reset verification request.
// NewPassword is optional: absent, the call only confirms the OTP.
type ResetVerifyRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"new_password"`
}

// MessageResponse is a bare message payload
type MessageResponse struct {
	Message string `json:"message"`
}

const resetRequestedMessage = "If an account exists with this email, a password reset OTP has been sent"

// Signup handles account creation
// @Summary      Sign up
// @Description  Create a new account. A verification OTP is emailed; a send failure still creates the account.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body SignupRequest true "Signup fields"
// @Success      200 {object} SignupResponse
// @Failure      400 {object} httputil.ErrorResponse
// @Failure      500 {object} httputil.ErrorResponse
// @Router       /auth/signup [post]
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.limitExceeded(w, r, "signup") {
		return
	}

	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid signup request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	newUser, emailSent, err := h.service.Signup(r.Context(), req.FullName, req.Email, req.Password, req.ConfirmPassword)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			logger.Warn("signup failed: email already registered")
			httputil.RespondErrorWithCode(w, "User already exists", httputil.CodeUserAlreadyExists, http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrPasswordsDoNotMatch) {
			httputil.RespondErrorWithCode(w, "Passwords do not match", httputil.CodePasswordMismatch, http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrPasswordTooShort) {
			httputil.RespondErrorWithCode(w, "Password must be at least 6 characters", httputil.CodePasswordTooShort, http.StatusBadRequest)
			return
		}
		if isValidationError(err) {
			logger.Warn("signup failed: validation error", "error", err.Error())
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeValidationError, http.StatusBadRequest)
			return
		}
		logger.Error("signup failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to sign up", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user signed up", "user_id", newUser.UserID, "email_sent", emailSent)

	resp := SignupResponse{
		Message:   "Signup successful. Please check your email for the verification code.",
		EmailSent: true,
	}
	if !emailSent {
		resp.Message = "Account created but failed to send verification email. Please request a new code."
		resp.EmailSent = false
	}
	httputil.RespondJSON(w, resp, http.StatusOK)
}

// Login handles user login
// @Summary      Log in
// @Description  Authenticate with email and password. The account's email must be verified.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} LoginResponse
// @Failure      401 {object} httputil.ErrorResponse
// @Failure      403 {object} httputil.ErrorResponse
// @Router       /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.limitExceeded(w, r, "login") {
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	loggedIn, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			logger.Warn("login failed: invalid credentials")
			httputil.RespondErrorWithCode(w, "Invalid credentials", httputil.CodeInvalidCredentials, http.StatusUnauthorized)
			return
		}
		if errors.Is(err, ErrEmailNotVerified) {
			logger.Warn("login failed: email not verified")
			httputil.RespondErrorWithCode(w, "Email not verified", httputil.CodeEmailNotVerified, http.StatusForbidden)
			return
		}
		logger.Error("login failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to log in", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user logged in", "user_id", loggedIn.UserID)

	httputil.RespondJSON(w, LoginResponse{
		Message:  "Login successful",
		UserID:   loggedIn.UserID.String(),
		FullName: loggedIn.FullName,
	}, http.StatusOK)
}

// ForgotPasswordRequest issues a password reset OTP
// @Summary      Request password reset
// @Description  Email a reset OTP. The response is identical whether or not the email is registered.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body EmailRequest true "Account email"
// @Success      200 {object} MessageResponse
// @Failure      500 {object} httputil.ErrorResponse
// @Router       /auth/forgot-password/request [post]
func (h *Handler) ForgotPasswordRequest(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req EmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid forgot-password request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if err := h.service.RequestPasswordReset(r.Context(), req.Email); err != nil {
		logger.Error("password reset request failed", "error", err.Error())
		httputil.RespondErrorWithCode(w, "Failed to send password reset email", httputil.CodeUpstreamFailure, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, MessageResponse{Message: resetRequestedMessage}, http.StatusOK)
}

// ForgotPasswordVerify validates a reset OTP and optionally sets a new password
// @Summary      Verify password reset OTP
// @Description  Validate the reset OTP. When new_password is present the password is replaced and the OTP consumed.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ResetVerifyRequest true "Reset verification fields"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} httputil.ErrorResponse
// @Router       /auth/forgot-password/verify [post]
func (h *Handler) ForgotPasswordVerify(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ResetVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid reset verify request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	changed, err := h.service.VerifyPasswordReset(r.Context(), req.Email, req.OTP, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidOrExpiredOTP):
			httputil.RespondErrorWithCode(w, "Invalid or expired OTP", httputil.CodeInvalidOTP, http.StatusBadRequest)
		case errors.Is(err, ErrOTPExpired):
			httputil.RespondErrorWithCode(w, "OTP has expired. Please request a new one.", httputil.CodeOTPExpired, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidOTP):
			httputil.RespondErrorWithCode(w, "Invalid OTP", httputil.CodeInvalidOTP, http.StatusBadRequest)
		case errors.Is(err, ErrPasswordTooShort):
			httputil.RespondErrorWithCode(w, "Password must be at least 6 characters", httputil.CodePasswordTooShort, http.StatusBadRequest)
		case errors.Is(err, ErrPasswordReused):
			httputil.RespondErrorWithCode(w, "New password cannot be the same as your current password", httputil.CodePasswordReused, http.StatusBadRequest)
		default:
			logger.Error("password reset verify failed", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to verify reset OTP", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	if changed {
		logger.Info("password reset completed", "email", req.Email)
		httputil.RespondJSON(w, MessageResponse{Message: "Password reset successful. You can now login with your new password."}, http.StatusOK)
		return
	}
	httputil.RespondJSON(w, MessageResponse{Message: "OTP verified. You can now set a new password."}, http.StatusOK)
}

// EmailVerification validates the signup OTP
// @Summary      Verify email
// @Description  Validate the signup OTP and mark the account as verified.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body VerifyEmailRequest true "Verification fields"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} httputil.ErrorResponse
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /auth/email-verification [post]
func (h *Handler) EmailVerification(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req VerifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid email verification request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if err := h.service.VerifyEmail(r.Context(), req.Email, req.OTP); err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound):
			httputil.RespondErrorWithCode(w, "User not found", httputil.CodeUserNotFound, http.StatusNotFound)
		case errors.Is(err, ErrOTPExpired):
			httputil.RespondErrorWithCode(w, "OTP has expired. Please request a new one.", httputil.CodeOTPExpired, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidOTP):
			httputil.RespondErrorWithCode(w, "Invalid OTP", httputil.CodeInvalidOTP, http.StatusBadRequest)
		default:
			logger.Error("email verification failed", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to verify email", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("email verified", "email", req.Email)
	httputil.RespondJSON(w, MessageResponse{Message: "Email verified successfully"}, http.StatusOK)
}

// ResendVerification re-issues the signup OTP
// @Summary      Resend verification OTP
// @Description  Issue a fresh signup OTP for an unverified account. The response never reveals whether the email exists.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body EmailRequest true "Account email"
// @Success      200 {object} MessageResponse
// @Router       /auth/email-verification/resend [post]
func (h *Handler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req EmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid resend verification request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	_ = h.service.ResendVerificationOTP(r.Context(), req.Email)

	httputil.RespondJSON(w, MessageResponse{Message: "If an account exists with this email, a verification code has been sent"}, http.StatusOK)
}

// limitExceeded applies the per-IP limiter for the given purpose and writes
// the 429 response when the caller is over budget.
func (h *Handler) limitExceeded(w http.ResponseWriter, r *http.Request, purpose string) bool {
	logger := logging.GetLoggerFromContext(r.Context())

	ip := getClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimit(r.Context(), ip, purpose)
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
		return false
	}
	if exceeded {
		logger.Warn("IP rate limit exceeded", "ip", ip, "purpose", purpose)
		httputil.RespondErrorWithCode(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return true
	}

	if err := h.rateLimiter.RecordIPRequest(r.Context(), ip, purpose); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}
	return false
}

func isValidationError(err error) bool {
	return errors.Is(err, ErrFullNameRequired) ||
		errors.Is(err, ErrEmailRequired) ||
		errors.Is(err, ErrInvalidEmailFormat) ||
		errors.Is(err, ErrPasswordRequired)
}

// getClientIP returns the client address with the port stripped. The RealIP
// middleware has already resolved forwarded headers by the time this runs.
func getClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
