package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"librarium/api/internal/middleware"
	"librarium/api/internal/repository"
)

// BookAccess evaluates the gating policy for the authenticated member. A
// denial is a 200 with allow=false; the reason tells the client which
// remediation screen to show.
func (h HandlerSet) BookAccess(c *gin.Context) {
	resolved, _ := middleware.ResolvedFrom(c)
	if resolved.Member == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	book, err := h.books.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "NOT_FOUND"})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "STORE_UNAVAILABLE"})
		return
	}

	decision, err := h.access.Authorize(c.Request.Context(), *resolved.Member, book)
	if err != nil {
		h.sendServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"allow":  decision.Allow,
		"reason": decision.Reason,
		"book": gin.H{
			"id":    book.ID,
			"title": book.Title,
			"tier":  book.Tier,
			"price": book.Price,
		},
	})
}
