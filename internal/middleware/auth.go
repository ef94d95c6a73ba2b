package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"librarium/api/internal/identity"
	"librarium/api/internal/service"
)

const (
	ContextIdentity = "identity"
	ContextResolved = "resolved_identity"
)

// Auth verifies the bearer token against the identity provider and resolves
// the subject's class via role discovery. Resolution may create a member
// profile on first contact.
func Auth(verifier identity.Provider, resolver *service.ResolverService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		ident, err := verifier.Verify(c.Request.Context(), tokenStr)
		if err != nil {
			switch {
			case errors.Is(err, identity.ErrTokenExpired):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "TOKEN_EXPIRED"})
			case errors.Is(err, identity.ErrProviderUnavailable):
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "PROVIDER_UNAVAILABLE"})
			default:
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "TOKEN_INVALID"})
			}
			return
		}

		resolved, err := resolver.Resolve(c.Request.Context(), ident, "")
		if err != nil {
			switch {
			case errors.Is(err, service.ErrAccountSuspended):
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "ACCOUNT_SUSPENDED"})
			case errors.Is(err, service.ErrStoreUnavailable):
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "STORE_UNAVAILABLE"})
			default:
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "NOT_AUTHORIZED"})
			}
			return
		}

		c.Set(ContextIdentity, ident)
		c.Set(ContextResolved, resolved)

		c.Next()
	}
}

// VerifyToken checks the bearer token only, without class resolution. Used
// by registration paths that run before any profile exists.
func VerifyToken(verifier identity.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
			return
		}

		ident, err := verifier.Verify(c.Request.Context(), strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			switch {
			case errors.Is(err, identity.ErrTokenExpired):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "TOKEN_EXPIRED"})
			case errors.Is(err, identity.ErrProviderUnavailable):
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "PROVIDER_UNAVAILABLE"})
			default:
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "TOKEN_INVALID"})
			}
			return
		}

		c.Set(ContextIdentity, ident)
		c.Next()
	}
}

// ResolvedFrom pulls the resolved identity set by Auth.
func ResolvedFrom(c *gin.Context) (service.ResolvedIdentity, bool) {
	val, exists := c.Get(ContextResolved)
	if !exists {
		return service.ResolvedIdentity{}, false
	}
	resolved, ok := val.(service.ResolvedIdentity)
	return resolved, ok
}

// IdentityFrom pulls the verified token identity set by Auth.
func IdentityFrom(c *gin.Context) (identity.Identity, bool) {
	val, exists := c.Get(ContextIdentity)
	if !exists {
		return identity.Identity{}, false
	}
	ident, ok := val.(identity.Identity)
	return ident, ok
}
