package handlers

import (
	"net/http"

	"restaurant_orders/internal/apperrors"
	"restaurant_orders/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type LoyaltyHandler struct {
	loyaltyService services.LoyaltyService
	logger         *zap.SugaredLogger
}

func NewLoyaltyHandler(loyaltyService services.LoyaltyService, logger *zap.SugaredLogger) *LoyaltyHandler {
	return &LoyaltyHandler{loyaltyService: loyaltyService, logger: logger}
}

func (h *LoyaltyHandler) Balance(c *gin.Context) {
	account, err := h.loyaltyService.Balance(c.Request.Context(), callerIdentity(c).UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (h *LoyaltyHandler) Redeem(c *gin.Context) {
	var req struct {
		Points int `json:"points"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, apperrors.Validation("invalid request body"))
		return
	}

	result, err := h.loyaltyService.Redeem(c.Request.Context(), callerIdentity(c).UserID, req.Points)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *LoyaltyHandler) AdminAdjust(c *gin.Context) {
	var req struct {
		UserID uint   `json:"user_id"`
		Points int    `json:"points"`
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, apperrors.Validation("invalid request body"))
		return
	}

	if err := h.loyaltyService.AdminAdjust(c.Request.Context(), callerIdentity(c), req.UserID, req.Points, req.Reason); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "points added"})
}

func (h *LoyaltyHandler) ListAccounts(c *gin.Context) {
	accounts, err := h.loyaltyService.ListAccounts(c.Request.Context(), callerIdentity(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, accounts)
}
