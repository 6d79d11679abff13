package email

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/companion-labs/companion-api/internal/config"
)

type capturedSend struct {
	authorization string
	raw           string
}

func newTestService(t *testing.T, tokenStatus, sendStatus int) (*Service, *capturedSend) {
	t.Helper()
	captured := &capturedSend{}

	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "refresh_token", r.FormValue("grant_type"))
		require.Equal(t, "client-id", r.FormValue("client_id"))
		require.Equal(t, "refresh-tok", r.FormValue("refresh_token"))
		if tokenStatus != http.StatusOK {
			http.Error(w, "bad request", tokenStatus)
			return
		}
		require.NoError(t, json.NewEncoder(w).Encode(map[string]string{"access_token": "access-tok"}))
	}))
	t.Cleanup(tokenServer.Close)

	sendServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.authorization = r.Header.Get("Authorization")
		var body struct {
			Raw string `json:"raw"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		captured.raw = body.Raw
		if sendStatus != http.StatusOK {
			http.Error(w, "quota exceeded", sendStatus)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(sendServer.Close)

	cfg := config.EmailConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RefreshToken: "refresh-tok",
		FromAddress:  "noreply@example.com",
	}
	svc := NewService(cfg).WithEndpoints(tokenServer.URL, sendServer.URL)
	return svc, captured
}

func TestSendOTPEmail(t *testing.T) {
	svc, captured := newTestService(t, http.StatusOK, http.StatusOK)

	err := svc.SendOTPEmail(context.Background(), "ann@example.com", "123456")
	require.NoError(t, err)

	require.Equal(t, "Bearer access-tok", captured.authorization)

	decoded, err := base64.URLEncoding.DecodeString(captured.raw)
	require.NoError(t, err)
	msg := string(decoded)
	require.Contains(t, msg, "From: noreply@example.com")
	require.Contains(t, msg, "To: ann@example.com")
	require.Contains(t, msg, "Subject: AI Companion - OTP")
	require.Contains(t, msg, "Content-Type: text/html")
	require.Contains(t, msg, "123456")
	require.Contains(t, msg, "valid for 10 minutes")
}

func TestSendWelcomeEmail(t *testing.T) {
	svc, captured := newTestService(t, http.StatusOK, http.StatusOK)

	err := svc.SendWelcomeEmail(context.Background(), "ann@example.com", "Ann")
	require.NoError(t, err)

	decoded, err := base64.URLEncoding.DecodeString(captured.raw)
	require.NoError(t, err)
	msg := string(decoded)
	require.Contains(t, msg, "Subject: Welcome to AI Companion!")
	require.Contains(t, msg, "Hi Ann,")
}

func TestSendFailsWhenTokenExchangeFails(t *testing.T) {
	svc, captured := newTestService(t, http.StatusUnauthorized, http.StatusOK)

	err := svc.SendOTPEmail(context.Background(), "ann@example.com", "123456")
	require.Error(t, err)
	require.Contains(t, err.Error(), "access token")
	require.Empty(t, captured.raw)
}

func TestSendFailsOnGmailError(t *testing.T) {
	svc, _ := newTestService(t, http.StatusOK, http.StatusForbidden)

	err := svc.SendOTPEmail(context.Background(), "ann@example.com", "123456")
	require.Error(t, err)
	require.Contains(t, err.Error(), "403")
}

func TestRenderOTPEmailEscapesInput(t *testing.T) {
	body, err := renderOTPEmail(`<script>alert(1)</script>`)
	require.NoError(t, err)
	require.NotContains(t, body, "<script>")
}
