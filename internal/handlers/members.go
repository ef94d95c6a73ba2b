package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"librarium/api/internal/media/sniffer"
	"librarium/api/internal/middleware"
	"librarium/api/internal/models"
	"librarium/api/internal/repository"
	"librarium/api/internal/service"
)

const maxIDProofBytes = 10 << 20

func (h HandlerSet) Me(c *gin.Context) {
	resolved, ok := middleware.ResolvedFrom(c)
	if !ok || resolved.Member == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	purchases, err := h.purchases.ListBySubject(c.Request.Context(), resolved.Member.SubjectID)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "STORE_UNAVAILABLE"})
		return
	}

	items := make([]gin.H, 0, len(purchases))
	for _, p := range purchases {
		items = append(items, gin.H{
			"bookId":        p.BookID,
			"amount":        p.Amount,
			"transactionId": p.TransactionID,
			"purchasedAt":   p.PurchasedAt,
		})
	}

	resp := memberResponse(*resolved.Member)
	resp["purchases"] = items
	c.JSON(http.StatusOK, gin.H{"member": resp})
}

// SyncMember ensures the member row exists. The resolving middleware has
// already synchronized on a miss, so this just reports the outcome.
func (h HandlerSet) SyncMember(c *gin.Context) {
	resolved, ok := middleware.ResolvedFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if resolved.Member == nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "WRONG_PORTAL"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"member": memberResponse(*resolved.Member)})
}

type registerMemberRequest struct {
	Name       string `json:"name" binding:"required"`
	Mobile     string `json:"mobile" binding:"required"`
	Department string `json:"department" binding:"required"`
	Semester   *int   `json:"semester"`
}

func (h HandlerSet) RegisterMember(c *gin.Context) {
	var req registerMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	member, err := h.registration.RegisterMember(c.Request.Context(), ident, service.MemberRegistration{
		Name:       req.Name,
		Mobile:     req.Mobile,
		Department: req.Department,
		Semester:   req.Semester,
	})
	if err != nil {
		h.sendServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"member": memberResponse(member)})
}

// CompleteProfile fills in contact details and, when a document is attached,
// records the ID-proof upload in the same request.
func (h HandlerSet) CompleteProfile(c *gin.Context) {
	resolved, _ := middleware.ResolvedFrom(c)
	if resolved.Member == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	subjectID := resolved.Member.SubjectID

	mobile := c.PostForm("mobile")
	department := c.PostForm("department")

	var semester *int
	if raw := c.PostForm("semester"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION_ERROR", "message": "semester must be a number"})
			return
		}
		semester = &v
	}

	member, err := h.registration.CompleteProfile(c.Request.Context(), subjectID, mobile, department, semester)
	if err != nil {
		h.sendServiceError(c, err)
		return
	}

	if file, header, err := c.Request.FormFile("idProof"); err == nil {
		defer file.Close()
		member, err = h.storeIDProof(c, subjectID, file, header)
		if err != nil {
			return // response already written
		}
	}

	c.JSON(http.StatusOK, gin.H{"member": memberResponse(member)})
}

func (h HandlerSet) UploadIDProof(c *gin.Context) {
	resolved, _ := middleware.ResolvedFrom(c)
	if resolved.Member == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	file, header, err := c.Request.FormFile("idProof")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION_ERROR", "message": "idProof file is required"})
		return
	}
	defer file.Close()

	member, err := h.storeIDProof(c, resolved.Member.SubjectID, file, header)
	if err != nil {
		return
	}

	c.JSON(http.StatusOK, gin.H{"member": memberResponse(member)})
}

// errHandled signals that the HTTP response has already been written.
var errHandled = errors.New("response already sent")

// storeIDProof sniffs, stores and records the document. On failure it writes
// the error response and returns errHandled so callers stop.
func (h HandlerSet) storeIDProof(c *gin.Context, subjectID string, file multipart.File, header *multipart.FileHeader) (models.MemberProfile, error) {
	var m models.MemberProfile

	if header.Size > maxIDProofBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION_ERROR", "message": "document too large"})
		return m, errHandled
	}

	data, err := io.ReadAll(io.LimitReader(file, maxIDProofBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION_ERROR", "message": "unreadable upload"})
		return m, errHandled
	}
	if len(data) > maxIDProofBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION_ERROR", "message": "document too large"})
		return m, errHandled
	}

	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	result, err := sniffer.DetectHead(head)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION_ERROR", "message": "unsupported document type"})
		return m, errHandled
	}

	if declared := sniffer.MimeTypeFromHTTP(http.Header(header.Header)); declared != "" && declared != result.MIME {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "VALIDATION_ERROR",
			"message": fmt.Sprintf("content type mismatch: declared %s, actual %s", declared, result.MIME),
		})
		return m, errHandled
	}

	proofURL, err := h.store.PutIDProof(c.Request.Context(), subjectID, data, result.MIME, string(result.Type))
	if err != nil {
		h.log.Error().Err(err).Str("subject_id", subjectID).Msg("store id proof failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "STORE_UNAVAILABLE"})
		return m, errHandled
	}

	member, err := h.verification.RecordUpload(c.Request.Context(), subjectID, proofURL)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			c.JSON(http.StatusConflict, gin.H{"error": "INVALID_TRANSITION", "message": "document already under review or verified"})
		} else {
			h.sendServiceError(c, err)
		}
		return m, errHandled
	}

	return member, nil
}
