package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateOTP_Range(t *testing.T) {
	t.Parallel()

	for i := 0; i < 100; i++ {
		otp, err := generateOTP()
		require.NoError(t, err)
		require.Len(t, otp, 6)
		require.GreaterOrEqual(t, otp, "100000")
		require.LessOrEqual(t, otp, "999999")
	}
}

func TestOTPExpired(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()

	fresh := now.Add(-5 * time.Minute)
	require.False(t, otpExpired(&fresh, now))

	boundary := now.Add(-otpTTL)
	require.False(t, otpExpired(&boundary, now))

	stale := now.Add(-otpTTL - time.Second)
	require.True(t, otpExpired(&stale, now))

	require.True(t, otpExpired(nil, now))
}
