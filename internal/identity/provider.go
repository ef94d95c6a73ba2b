package identity

import (
	"context"
	"errors"
	"time"
)

var (
	ErrTokenInvalid        = errors.New("token invalid")
	ErrTokenExpired        = errors.New("token expired")
	ErrBadCredentials      = errors.New("bad credentials")
	ErrProviderUnavailable = errors.New("identity provider unavailable")
)

// Identity is what the provider asserts about a token. It carries no role
// information; class resolution happens against the profile stores.
type Identity struct {
	SubjectID   string
	Email       string
	DisplayName string
	ExpiresAt   time.Time
}

// Provider is the boundary to the external identity system. Verify has no
// side effects and never falls back to an implicit allow; a timeout surfaces
// as ErrProviderUnavailable.
type Provider interface {
	SignUp(ctx context.Context, email, password, displayName string) (Identity, error)
	SignIn(ctx context.Context, email, password string) (string, Identity, error)
	Verify(ctx context.Context, token string) (Identity, error)
	Invalidate(ctx context.Context, subjectID string) error
}
