package email

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/companion-labs/companion-api/internal/config"
	"github.com/companion-labs/companion-api/internal/logging"
)

const (
	defaultTokenURL = "https://oauth2.googleapis.com/token"
	defaultSendURL  = "https://gmail.googleapis.com/gmail/v1/users/me/messages/send"
)

// Service sends transactional mail through the Gmail API. The refresh token
// comes from a one-time interactive consent flow; an access token is minted
// per send, the simplest thing that works at this volume.
type Service struct {
	clientID     string
	clientSecret string
	refreshToken string
	fromAddress  string
	tokenURL     string
	sendURL      string
	httpClient   *http.Client
}

func NewService(cfg config.EmailConfig) *Service {
	return &Service{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		refreshToken: cfg.RefreshToken,
		fromAddress:  cfg.FromAddress,
		tokenURL:     defaultTokenURL,
		sendURL:      defaultSendURL,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
	}
}

// WithEndpoints overrides the Google endpoints, used by tests.
func (s *Service) WithEndpoints(tokenURL, sendURL string) *Service {
	s.tokenURL = tokenURL
	s.sendURL = sendURL
	return s
}

// SendOTPEmail delivers a one-time verification code.
func (s *Service) SendOTPEmail(ctx context.Context, to, otp string) error {
	logger := logging.GetLoggerFromContext(ctx)

	body, err := renderOTPEmail(otp)
	if err != nil {
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.send(ctx, to, "AI Companion - OTP", body); err != nil {
		logger.Error("failed to send OTP email", "email", to, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("OTP email sent", "email", to)
	return nil
}

// SendWelcomeEmail greets a newly created account.
func (s *Service) SendWelcomeEmail(ctx context.Context, to, name string) error {
	logger := logging.GetLoggerFromContext(ctx)

	body, err := renderWelcomeEmail(name)
	if err != nil {
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.send(ctx, to, "Welcome to AI Companion!", body); err != nil {
		logger.Error("failed to send welcome email", "email", to, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("welcome email sent", "email", to)
	return nil
}

func (s *Service) send(ctx context.Context, to, subject, htmlBody string) error {
	accessToken, err := s.accessToken(ctx)
	if err != nil {
		return fmt.Errorf("obtain access token: %w", err)
	}

	msg := fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		s.fromAddress, to, subject, htmlBody,
	)

	payload, err := json.Marshal(map[string]string{
		"raw": base64.URLEncoding.EncodeToString([]byte(msg)),
	})
	if err != nil {
		return fmt.Errorf("marshal send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.sendURL, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("create send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("gmail API returned status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// accessToken exchanges the stored refresh token for a short-lived access
// token.
func (s *Service) accessToken(ctx context.Context) (string, error) {
	form := url.Values{
		"client_id":     {s.clientID},
		"client_secret": {s.clientSecret},
		"refresh_token": {s.refreshToken},
		"grant_type":    {"refresh_token"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned no access token")
	}

	return tokenResp.AccessToken, nil
}

var otpTemplate = template.Must(template.New("otp").Parse(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
    <h2>Your verification code</h2>
    <p style="font-size: 28px; letter-spacing: 4px; font-weight: bold;">{{.OTP}}</p>
    <p>This code is valid for 10 minutes.</p>
    <p>If you didn't request this code, you can safely ignore this email.</p>
</body>
</html>
`))

var welcomeTemplate = template.Must(template.New("welcome").Parse(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
    <h2>Hi {{.Name}},</h2>
    <p>Welcome to AI Companion! Your account has been created.</p>
    <p>Thanks!</p>
</body>
</html>
`))

func renderOTPEmail(otp string) (string, error) {
	var buf bytes.Buffer
	if err := otpTemplate.Execute(&buf, struct{ OTP string }{OTP: otp}); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return buf.String(), nil
}

func renderWelcomeEmail(name string) (string, error) {
	var buf bytes.Buffer
	if err := welcomeTemplate.Execute(&buf, struct{ Name string }{Name: name}); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return buf.String(), nil
}
