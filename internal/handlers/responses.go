package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"librarium/api/internal/models"
	"librarium/api/internal/repository"
	"librarium/api/internal/service"
)

func (h HandlerSet) sendServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION_ERROR", "message": err.Error()})
	case errors.Is(err, service.ErrNotAuthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "NOT_AUTHORIZED"})
	case errors.Is(err, repository.ErrMemberNotFound), errors.Is(err, repository.ErrOperatorNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "NOT_FOUND"})
	case errors.Is(err, repository.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "INVALID_TRANSITION"})
	case errors.Is(err, service.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "STORE_UNAVAILABLE"})
	default:
		h.log.Error().Err(err).Msg("unhandled service error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}

func profileResponse(resolved service.ResolvedIdentity) gin.H {
	switch resolved.Class {
	case models.ClassMember:
		if resolved.Member != nil {
			return memberResponse(*resolved.Member)
		}
	case models.ClassOperator:
		if resolved.Operator != nil {
			return operatorResponse(*resolved.Operator)
		}
	}
	return nil
}

func memberResponse(m models.MemberProfile) gin.H {
	return gin.H{
		"subjectId":        m.SubjectID,
		"displayId":        m.DisplayID,
		"name":             m.Name,
		"email":            m.Email,
		"mobile":           m.Mobile,
		"department":       m.Department,
		"semester":         m.Semester,
		"role":             m.Role,
		"suspended":        m.Suspended,
		"profileCompleted": m.ProfileCompleted,
		"idProofUrl":       m.IDProofURL,
		"idProofStatus":    m.IDProofStatus,
		"rejectionReason":  m.RejectionReason,
	}
}

func operatorResponse(o models.OperatorProfile) gin.H {
	return gin.H{
		"subjectId": o.SubjectID,
		"name":      o.Name,
		"email":     o.Email,
		"createdAt": o.CreatedAt,
	}
}

func sessionResponse(r models.SessionRecord) gin.H {
	return gin.H{
		"id":              r.ID,
		"subjectId":       r.SubjectID,
		"displayId":       r.DisplayID,
		"name":            r.Name,
		"department":      r.Department,
		"loginTime":       r.LoginTime,
		"logoutTime":      r.LogoutTime,
		"durationSeconds": r.DurationSeconds,
		"date":            r.Date,
	}
}
