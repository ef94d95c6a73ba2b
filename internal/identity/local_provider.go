package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"librarium/api/internal/config"
	"librarium/api/internal/ids"
	"librarium/api/internal/security"
)

// LocalProvider is the development-mode identity provider. It issues its own
// signed tokens and keeps accounts in memory, so the service runs without the
// external provider.
type LocalProvider struct {
	secret   []byte
	tokenTTL time.Duration

	mu       sync.RWMutex
	accounts map[string]localAccount
	revoked  map[string]time.Time
}

type localAccount struct {
	SubjectID    string
	Email        string
	DisplayName  string
	PasswordHash string
}

type tokenClaims struct {
	Email       string `json:"email"`
	DisplayName string `json:"name"`
	jwt.RegisteredClaims
}

func NewLocalProvider(cfg config.IdentityConfig) *LocalProvider {
	return &LocalProvider{
		secret:   []byte(cfg.LocalSecret),
		tokenTTL: cfg.TokenTTL,
		accounts: make(map[string]localAccount),
		revoked:  make(map[string]time.Time),
	}
}

func (p *LocalProvider) SignUp(ctx context.Context, email, password, displayName string) (Identity, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return Identity{}, fmt.Errorf("%w: email and password required", ErrBadCredentials)
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return Identity{}, fmt.Errorf("hash password: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.accounts[email]; exists {
		return Identity{}, fmt.Errorf("%w: account exists", ErrBadCredentials)
	}

	account := localAccount{
		SubjectID:    ids.New(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hash,
	}
	p.accounts[email] = account

	return Identity{SubjectID: account.SubjectID, Email: email, DisplayName: displayName}, nil
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (string, Identity, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	p.mu.RLock()
	account, exists := p.accounts[email]
	p.mu.RUnlock()

	if !exists {
		return "", Identity{}, ErrBadCredentials
	}

	ok, err := security.VerifyPassword(password, account.PasswordHash)
	if err != nil || !ok {
		return "", Identity{}, ErrBadCredentials
	}

	now := time.Now()
	expiresAt := now.Add(p.tokenTTL)
	claims := tokenClaims{
		Email:       account.Email,
		DisplayName: account.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.SubjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(p.secret)
	if err != nil {
		return "", Identity{}, fmt.Errorf("sign token: %w", err)
	}

	ident := Identity{
		SubjectID:   account.SubjectID,
		Email:       account.Email,
		DisplayName: account.DisplayName,
		ExpiresAt:   expiresAt,
	}
	return token, ident, nil
}

func (p *LocalProvider) Verify(ctx context.Context, tokenStr string) (Identity, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &tokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrTokenExpired
		}
		return Identity{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return Identity{}, ErrTokenInvalid
	}

	p.mu.RLock()
	revokedAt, revoked := p.revoked[claims.Subject]
	p.mu.RUnlock()
	if revoked && claims.IssuedAt != nil && !claims.IssuedAt.After(revokedAt) {
		return Identity{}, ErrTokenInvalid
	}

	return Identity{
		SubjectID:   claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.DisplayName,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

// Invalidate rejects all tokens issued to the subject before now. Used to
// force sign-out on suspension and wrong-portal logins.
func (p *LocalProvider) Invalidate(ctx context.Context, subjectID string) error {
	p.mu.Lock()
	p.revoked[subjectID] = time.Now()
	p.mu.Unlock()
	return nil
}
