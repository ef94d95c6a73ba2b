package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"librarium/api/internal/models"
)

// RequireOperator gates administrative routes. It runs after Auth and trusts
// the resolved class, not any caller-supplied field.
func RequireOperator() gin.HandlerFunc {
	return func(c *gin.Context) {
		resolved, ok := ResolvedFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if resolved.Class != models.ClassOperator || resolved.Operator == nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "NOT_AUTHORIZED"})
			return
		}

		c.Next()
	}
}

// RequireMember gates member-only routes such as document upload.
func RequireMember() gin.HandlerFunc {
	return func(c *gin.Context) {
		resolved, ok := ResolvedFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if resolved.Class != models.ClassMember || resolved.Member == nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "NOT_AUTHORIZED"})
			return
		}

		c.Next()
	}
}
