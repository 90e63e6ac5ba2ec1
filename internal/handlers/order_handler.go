package handlers

import (
	"net/http"

	"restaurant_orders/internal/apperrors"
	"restaurant_orders/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type OrderHandler struct {
	orderService services.OrderService
	logger       *zap.SugaredLogger
}

func NewOrderHandler(orderService services.OrderService, logger *zap.SugaredLogger) *OrderHandler {
	return &OrderHandler{orderService: orderService, logger: logger}
}

func (h *OrderHandler) Create(c *gin.Context) {
	var input services.CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, h.logger, apperrors.Validation("invalid request body"))
		return
	}

	result, err := h.orderService.CreateOrder(c.Request.Context(), callerIdentity(c), &input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *OrderHandler) List(c *gin.Context) {
	orders, err := h.orderService.ListOrders(c.Request.Context(), callerIdentity(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) Show(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), callerIdentity(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, apperrors.Validation("invalid request body"))
		return
	}

	if err := h.orderService.UpdateStatus(c.Request.Context(), callerIdentity(c), id, req.Status); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "order status updated"})
}

func (h *OrderHandler) Cancel(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if err := h.orderService.CancelOrder(c.Request.Context(), callerIdentity(c), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "order cancelled"})
}
