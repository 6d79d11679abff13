package httputil

// Machine-readable error codes returned alongside error messages.
const (
	CodeInvalidRequestBody = "INVALID_REQUEST_BODY"
	CodeValidationError    = "VALIDATION_ERROR"
	CodePasswordMismatch   = "PASSWORD_MISMATCH"
	CodePasswordTooShort   = "PASSWORD_TOO_SHORT"
	CodePasswordReused     = "PASSWORD_REUSED"
	CodeUserAlreadyExists  = "USER_ALREADY_EXISTS"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeEmailNotVerified   = "EMAIL_NOT_VERIFIED"
	CodeInvalidOTP         = "INVALID_OTP"
	CodeOTPExpired         = "OTP_EXPIRED"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeBotNotFound        = "BOT_NOT_FOUND"
	CodePermissionDenied   = "PERMISSION_DENIED"
	CodeUpstreamFailure    = "UPSTREAM_FAILURE"
	CodeTooManyRequests    = "TOO_MANY_REQUESTS"
	CodeInternalError      = "INTERNAL_ERROR"
)
