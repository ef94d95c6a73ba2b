package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"librarium/api/internal/ids"
	"librarium/api/internal/middleware"
	"librarium/api/internal/models"
	"librarium/api/internal/repository"
)

func (h HandlerSet) ListMembers(c *gin.Context) {
	filter := repository.MemberFilter{
		Department:  c.Query("department"),
		ProofStatus: c.Query("idProofStatus"),
		Search:      c.Query("search"),
	}
	if raw := c.Query("semester"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			filter.Semester = &v
		}
	}
	filter.Limit, filter.Offset = pagination(c)

	members, err := h.members.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "STORE_UNAVAILABLE"})
		return
	}

	items := make([]gin.H, 0, len(members))
	for _, member := range members {
		items = append(items, memberResponse(member))
	}

	c.JSON(http.StatusOK, gin.H{"members": items})
}

func (h HandlerSet) GetMember(c *gin.Context) {
	subjectID := c.Param("subjectId")

	member, err := h.members.GetBySubjectID(c.Request.Context(), subjectID)
	if err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			// Fallback for screens that pass the display id instead.
			member, err = h.members.GetByDisplayID(c.Request.Context(), subjectID)
		}
		if err != nil {
			h.sendServiceError(c, err)
			return
		}
	}

	purchases, err := h.purchases.ListBySubject(c.Request.Context(), member.SubjectID)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "STORE_UNAVAILABLE"})
		return
	}

	history := make([]gin.H, 0, len(purchases))
	for _, p := range purchases {
		history = append(history, gin.H{
			"bookId":        p.BookID,
			"amount":        p.Amount,
			"transactionId": p.TransactionID,
			"purchasedAt":   p.PurchasedAt,
		})
	}

	resp := memberResponse(member)
	resp["purchaseHistory"] = history
	c.JSON(http.StatusOK, gin.H{"member": resp})
}

type reviewRequest struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason"`
}

func (h HandlerSet) ReviewIDProof(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	member, err := h.verification.Review(c.Request.Context(), c.Param("subjectId"), req.Approved, req.Reason)
	if err != nil {
		h.sendServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"member": memberResponse(member)})
}

type suspendRequest struct {
	Suspended *bool `json:"suspended" binding:"required"`
}

func (h HandlerSet) SuspendMember(c *gin.Context) {
	var req suspendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	member, err := h.verification.SetSuspended(c.Request.Context(), c.Param("subjectId"), *req.Suspended)
	if err != nil {
		h.sendServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"member": memberResponse(member)})
}

type recordPurchaseRequest struct {
	BookID        string   `json:"bookId" binding:"required"`
	Amount        *float64 `json:"amount"`
	TransactionID *string  `json:"transactionId"`
}

// RecordPurchase registers a purchase fact (e.g. a desk sale reconciled by
// an operator). Payment processing itself happens elsewhere.
func (h HandlerSet) RecordPurchase(c *gin.Context) {
	var req recordPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	subjectID := c.Param("subjectId")
	if _, err := h.members.GetBySubjectID(c.Request.Context(), subjectID); err != nil {
		h.sendServiceError(c, err)
		return
	}

	book, err := h.books.GetByID(c.Request.Context(), req.BookID)
	if err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "NOT_FOUND"})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "STORE_UNAVAILABLE"})
		return
	}

	amount := book.Price
	if req.Amount != nil {
		amount = *req.Amount
	}

	purchase := models.Purchase{
		ID:            ids.New(),
		SubjectID:     subjectID,
		BookID:        book.ID,
		Amount:        amount,
		TransactionID: req.TransactionID,
	}
	if err := h.purchases.Create(c.Request.Context(), purchase); err != nil {
		if errors.Is(err, repository.ErrPurchaseExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "ALREADY_PURCHASED"})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "STORE_UNAVAILABLE"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"purchase": gin.H{
			"id":            purchase.ID,
			"subjectId":     purchase.SubjectID,
			"bookId":        purchase.BookID,
			"amount":        purchase.Amount,
			"transactionId": purchase.TransactionID,
		},
	})
}

func (h HandlerSet) ListSessions(c *gin.Context) {
	limit, offset := pagination(c)

	records, err := h.sessions.ListByDate(c.Request.Context(), c.Query("date"), limit, offset)
	if err != nil {
		h.sendServiceError(c, err)
		return
	}

	items := make([]gin.H, 0, len(records))
	for _, record := range records {
		items = append(items, sessionResponse(record))
	}

	c.JSON(http.StatusOK, gin.H{"sessions": items})
}

type registerOperatorRequest struct {
	Name      string `json:"name" binding:"required"`
	SecretKey string `json:"secretKey" binding:"required"`
}

func (h HandlerSet) RegisterOperator(c *gin.Context) {
	var req registerOperatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	operator, err := h.registration.RegisterOperator(c.Request.Context(), ident, req.Name, req.SecretKey)
	if err != nil {
		h.sendServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"operator": operatorResponse(operator)})
}

func pagination(c *gin.Context) (int, int) {
	limit := 50
	offset := 0

	if perPage := c.Query("perPage"); perPage != "" {
		if v, err := strconv.Atoi(perPage); err == nil && v > 0 && v <= 200 {
			limit = v
		}
	}
	if page := c.Query("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 1 {
			offset = (v - 1) * limit
		}
	}
	return limit, offset
}
