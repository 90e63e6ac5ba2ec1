package handlers

import (
	"net/http"

	"restaurant_orders/internal/apperrors"
	"restaurant_orders/internal/models"
	"restaurant_orders/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AddressHandler struct {
	addressService services.AddressService
	logger         *zap.SugaredLogger
}

func NewAddressHandler(addressService services.AddressService, logger *zap.SugaredLogger) *AddressHandler {
	return &AddressHandler{addressService: addressService, logger: logger}
}

func (h *AddressHandler) Create(c *gin.Context) {
	var address models.Address
	if err := c.ShouldBindJSON(&address); err != nil {
		respondError(c, h.logger, apperrors.Validation("invalid request body"))
		return
	}

	if err := h.addressService.Create(c.Request.Context(), callerIdentity(c), &address); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, address)
}

func (h *AddressHandler) List(c *gin.Context) {
	addresses, err := h.addressService.List(c.Request.Context(), callerIdentity(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, addresses)
}

func (h *AddressHandler) Delete(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if err := h.addressService.Delete(c.Request.Context(), callerIdentity(c), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "address deleted"})
}
