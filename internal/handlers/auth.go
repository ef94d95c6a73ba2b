package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"librarium/api/internal/identity"
	"librarium/api/internal/middleware"
	"librarium/api/internal/models"
	"librarium/api/internal/service"
)

type signupRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"displayName" binding:"required"`
}

// Signup creates a provider account and signs it in. No profile row exists
// yet; that happens at registration or first member-portal login.
func (h HandlerSet) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.provider.SignUp(c.Request.Context(), req.Email, req.Password, req.DisplayName); err != nil {
		h.sendIdentityError(c, err)
		return
	}

	token, ident, err := h.provider.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.sendIdentityError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"identity": identityResponse(ident),
	})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Portal   string `json:"portal"`
}

// Login authenticates against the identity provider, then independently
// resolves the class against the profile stores. Failed resolution forces a
// provider sign-out so the token cannot be reused.
func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	requested := models.IdentityClass(req.Portal)
	if requested != "" && requested != models.ClassMember && requested != models.ClassOperator {
		c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION_ERROR", "message": "unknown portal"})
		return
	}

	token, ident, err := h.provider.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.sendIdentityError(c, err)
		return
	}

	resolved, err := h.resolver.Resolve(c.Request.Context(), ident, requested)
	if err != nil {
		if invalidateErr := h.provider.Invalidate(c.Request.Context(), ident.SubjectID); invalidateErr != nil {
			h.log.Error().Err(invalidateErr).Str("subject_id", ident.SubjectID).Msg("invalidate after failed resolve")
		}
		h.sendResolveError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"class":    resolved.Class,
		"identity": identityResponse(ident),
		"profile":  profileResponse(resolved),
	})
}

type logoutRequest struct {
	LoginTime time.Time `json:"loginTime" binding:"required"`
}

// Logout closes the session ledger entry. The login timestamp is the one the
// client captured when login succeeded; the server never recorded it.
func (h HandlerSet) Logout(c *gin.Context) {
	var req logoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resolved, ok := middleware.ResolvedFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	record, err := h.sessions.Close(c.Request.Context(), service.SnapshotOf(resolved), req.LoginTime)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION_ERROR", "message": err.Error()})
			return
		}
		// A lost session record is a data-integrity issue; report the write
		// failure instead of pretending the logout was recorded.
		c.JSON(http.StatusBadGateway, gin.H{"error": "STORE_UNAVAILABLE"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": sessionResponse(record)})
}

func (h HandlerSet) sendIdentityError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, identity.ErrTokenExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "TOKEN_EXPIRED"})
	case errors.Is(err, identity.ErrBadCredentials), errors.Is(err, identity.ErrTokenInvalid):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "TOKEN_INVALID"})
	case errors.Is(err, identity.ErrProviderUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "PROVIDER_UNAVAILABLE"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}

func (h HandlerSet) sendResolveError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAccountSuspended):
		c.JSON(http.StatusForbidden, gin.H{"error": "ACCOUNT_SUSPENDED"})
	case errors.Is(err, service.ErrWrongPortal):
		c.JSON(http.StatusForbidden, gin.H{"error": "WRONG_PORTAL", "message": service.ErrWrongPortal.Error()})
	case errors.Is(err, service.ErrNotAuthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "NOT_AUTHORIZED"})
	case errors.Is(err, service.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "STORE_UNAVAILABLE"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}

func identityResponse(ident identity.Identity) gin.H {
	return gin.H{
		"subjectId":   ident.SubjectID,
		"email":       ident.Email,
		"displayName": ident.DisplayName,
		"expiresAt":   ident.ExpiresAt,
	}
}
