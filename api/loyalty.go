package api

import (
	"net/http"

	"github.com/akarpov91/milesbook/internal/identity"
	"github.com/akarpov91/milesbook/internal/service/loyalty"
	"github.com/gin-gonic/gin"
)

type LoyaltyHandler struct {
	service loyalty.LoyaltyUseCase
}

type pointsRequest struct {
	UserID      string `json:"user_id"`
	Amount      int    `json:"amount"`
	Reason      string `json:"reason"`
	ReferenceID string `json:"reference_id"`
}

func NewLoyaltyHandler(service loyalty.LoyaltyUseCase) *LoyaltyHandler {
	return &LoyaltyHandler{service: service}
}

func (h *LoyaltyHandler) Register(router *gin.RouterGroup) {
	router.GET("/account", h.account)
	router.GET("/transactions", h.transactions)
	// Trusted partner surface: authentication happens upstream.
	router.POST("/earn", h.earn)
	router.POST("/burn", h.burn)
	router.POST("/bonus", h.bonus)
}

func (h *LoyaltyHandler) account(c *gin.Context) {
	user := identity.FromContext(c)
	account, err := h.service.GetOrCreateAccount(c.Request.Context(), user.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (h *LoyaltyHandler) transactions(c *gin.Context) {
	user := identity.FromContext(c)
	txns, err := h.service.ListTransactions(c.Request.Context(), user.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, txns)
}

func (h *LoyaltyHandler) earn(c *gin.Context) {
	var req pointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID := h.targetUser(c, req.UserID)

	account, err := h.service.Earn(c.Request.Context(), userID, req.Amount, req.Reason, req.ReferenceID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (h *LoyaltyHandler) burn(c *gin.Context) {
	var req pointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID := h.targetUser(c, req.UserID)

	account, err := h.service.Burn(c.Request.Context(), userID, req.Amount, req.Reason, req.ReferenceID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (h *LoyaltyHandler) bonus(c *gin.Context) {
	var req pointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID := h.targetUser(c, req.UserID)

	account, err := h.service.Bonus(c.Request.Context(), userID, req.Amount, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (h *LoyaltyHandler) targetUser(c *gin.Context, requested string) string {
	if requested != "" {
		return requested
	}
	return identity.FromContext(c).ID
}
