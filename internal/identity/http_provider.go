package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"librarium/api/internal/config"
)

// HTTPProvider verifies opaque tokens against the external identity service.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     zerolog.Logger
}

func NewHTTPProvider(cfg config.IdentityConfig, log zerolog.Logger) *HTTPProvider {
	return &HTTPProvider{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.RequestTimeout},
		log:     log,
	}
}

type providerIdentity struct {
	SubjectID   string    `json:"subjectId"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type providerError struct {
	Code string `json:"code"`
}

func (p *HTTPProvider) SignUp(ctx context.Context, email, password, displayName string) (Identity, error) {
	body := map[string]string{"email": email, "password": password, "displayName": displayName}

	var result providerIdentity
	if err := p.post(ctx, "/v1/accounts:signUp", body, &result); err != nil {
		return Identity{}, err
	}
	return identityFrom(result), nil
}

func (p *HTTPProvider) SignIn(ctx context.Context, email, password string) (string, Identity, error) {
	body := map[string]string{"email": email, "password": password}

	var result struct {
		Token    string           `json:"token"`
		Identity providerIdentity `json:"identity"`
	}
	if err := p.post(ctx, "/v1/accounts:signIn", body, &result); err != nil {
		return "", Identity{}, err
	}
	return result.Token, identityFrom(result.Identity), nil
}

func (p *HTTPProvider) Verify(ctx context.Context, token string) (Identity, error) {
	body := map[string]string{"token": token}

	var result providerIdentity
	if err := p.post(ctx, "/v1/tokens:verify", body, &result); err != nil {
		return Identity{}, err
	}

	ident := identityFrom(result)
	if !ident.ExpiresAt.IsZero() && time.Now().After(ident.ExpiresAt) {
		return Identity{}, ErrTokenExpired
	}
	return ident, nil
}

func (p *HTTPProvider) Invalidate(ctx context.Context, subjectID string) error {
	body := map[string]string{"subjectId": subjectID}
	return p.post(ctx, "/v1/accounts:invalidate", body, nil)
}

func (p *HTTPProvider) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		p.log.Warn().Err(err).Str("path", path).Msg("identity provider unreachable")
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusBadRequest:
		var perr providerError
		_ = json.NewDecoder(resp.Body).Decode(&perr)
		return mapProviderCode(perr.Code)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", ErrProviderUnavailable, resp.StatusCode)
	default:
		return fmt.Errorf("%w: unexpected status %d", ErrTokenInvalid, resp.StatusCode)
	}
}

func mapProviderCode(code string) error {
	switch code {
	case "TOKEN_EXPIRED":
		return ErrTokenExpired
	case "BAD_CREDENTIALS", "EMAIL_NOT_FOUND", "INVALID_PASSWORD":
		return ErrBadCredentials
	default:
		return ErrTokenInvalid
	}
}

func identityFrom(pi providerIdentity) Identity {
	return Identity{
		SubjectID:   pi.SubjectID,
		Email:       pi.Email,
		DisplayName: pi.DisplayName,
		ExpiresAt:   pi.ExpiresAt,
	}
}
