package handlers

import (
	"net/http"
	"time"

	"restaurant_orders/internal/apperrors"
	"restaurant_orders/internal/models"
	"restaurant_orders/internal/repository"
	"restaurant_orders/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	paymentService services.PaymentService
	logger         *zap.SugaredLogger
}

func NewPaymentHandler(paymentService services.PaymentService, logger *zap.SugaredLogger) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, logger: logger}
}

func (h *PaymentHandler) Confirm(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var req struct {
		Notes string `json:"notes"`
	}
	// Body is optional on confirmation.
	_ = c.ShouldBindJSON(&req)

	result, err := h.paymentService.Confirm(c.Request.Context(), callerIdentity(c), id, req.Notes)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      "payment confirmed",
		"order_number": result.OrderNumber,
	})
}

func (h *PaymentHandler) Reject(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, apperrors.Validation("invalid request body"))
		return
	}

	result, err := h.paymentService.Reject(c.Request.Context(), callerIdentity(c), id, req.Reason)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      "payment rejected, order cancelled",
		"order_number": result.OrderNumber,
	})
}

func (h *PaymentHandler) ListPending(c *gin.Context) {
	pending, err := h.paymentService.ListPending(c.Request.Context(), callerIdentity(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, pending)
}

func (h *PaymentHandler) History(c *gin.Context) {
	filter := repository.PaymentHistoryFilter{
		PaymentMethod: models.PaymentMethod(c.Query("payment_method")),
	}
	if start := c.Query("start_date"); start != "" {
		t, err := time.Parse(time.RFC3339, start)
		if err != nil {
			respondError(c, h.logger, apperrors.Validation("invalid start_date"))
			return
		}
		filter.StartDate = &t
	}
	if end := c.Query("end_date"); end != "" {
		t, err := time.Parse(time.RFC3339, end)
		if err != nil {
			respondError(c, h.logger, apperrors.Validation("invalid end_date"))
			return
		}
		filter.EndDate = &t
	}

	history, err := h.paymentService.History(c.Request.Context(), callerIdentity(c), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func (h *PaymentHandler) ListByStatus(c *gin.Context) {
	orders, err := h.paymentService.ListByStatus(c.Request.Context(), callerIdentity(c), c.Param("status"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}
