package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskdesk/internal/model"
	"github.com/BuzzLyutic/taskdesk/internal/session"
)

// AuthClient talks to the unauthenticated endpoints: token exchange,
// token refresh and registration. It never goes through the gateway.
type AuthClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewAuthClient(baseURL string, client *http.Client, logger *zap.Logger) *AuthClient {
	return &AuthClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  logger,
	}
}

func (c *AuthClient) Login(ctx context.Context, creds model.Credentials) (model.TokenPair, error) {
	var pair model.TokenPair
	code, body, err := c.post(ctx, "/token", creds)
	if err != nil {
		return pair, err
	}
	switch code {
	case http.StatusOK:
		if err := json.Unmarshal(body, &pair); err != nil {
			return pair, fmt.Errorf("decode token pair: %w", err)
		}
		if pair.Access == "" || pair.Refresh == "" {
			return pair, fmt.Errorf("token response is missing a token")
		}
		return pair, nil
	case http.StatusUnauthorized:
		return pair, ErrInvalidCredentials
	case http.StatusBadRequest:
		return pair, decodeFieldError(body)
	default:
		return pair, statusError(code, body)
	}
}

func (c *AuthClient) Register(ctx context.Context, reg model.Registration) error {
	code, body, err := c.post(ctx, "/user/register", reg)
	if err != nil {
		return err
	}
	switch code {
	case http.StatusOK, http.StatusCreated:
		return nil
	case http.StatusBadRequest:
		return decodeFieldError(body)
	default:
		return statusError(code, body)
	}
}

// Refresh implements session.Exchanger.
func (c *AuthClient) Refresh(ctx context.Context, refreshToken string) (string, error) {
	code, body, err := c.post(ctx, "/token/refresh", model.RefreshRequest{Refresh: refreshToken})
	if err != nil {
		return "", err
	}
	if code != http.StatusOK {
		c.logger.Debug("refresh rejected", zap.Int("status", code))
		return "", fmt.Errorf("%w: status %d", ErrRefreshRejected, code)
	}
	var tok model.AccessToken
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("decode access token: %w", err)
	}
	if tok.Access == "" {
		return "", fmt.Errorf("%w: empty access token", ErrRefreshRejected)
	}
	return tok.Access, nil
}

func (c *AuthClient) post(ctx context.Context, path string, payload any) (int, []byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: POST %s: %v", session.ErrUnavailable, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: read body: %v", session.ErrUnavailable, err)
	}
	return resp.StatusCode, body, nil
}

func decodeFieldError(body []byte) error {
	fields := model.FieldErrors{}
	if err := json.Unmarshal(body, &fields); err != nil {
		// Not a field map; keep the raw payload as a non-field error.
		fields = model.FieldErrors{"non_field_errors": {strings.TrimSpace(string(body))}}
	}
	return &FieldError{Fields: fields}
}
