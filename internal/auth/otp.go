package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// otpTTL is how long an issued one-time code remains valid.
const otpTTL = 10 * time.Minute

// generateOTP returns a 6-digit decimal code in [100000, 999999].
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// otpExpired reports whether a code issued at the given time is past its
// validity window. A nil issue time means no code is outstanding.
func otpExpired(issuedAt *time.Time, now time.Time) bool {
	if issuedAt == nil {
		return true
	}
	return now.Sub(*issuedAt) > otpTTL
}
