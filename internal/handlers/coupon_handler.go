package handlers

import (
	"net/http"

	"restaurant_orders/internal/apperrors"
	"restaurant_orders/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CouponHandler struct {
	couponService services.CouponService
	logger        *zap.SugaredLogger
}

func NewCouponHandler(couponService services.CouponService, logger *zap.SugaredLogger) *CouponHandler {
	return &CouponHandler{couponService: couponService, logger: logger}
}

func (h *CouponHandler) Create(c *gin.Context) {
	var input services.CouponInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, h.logger, apperrors.Validation("invalid request body"))
		return
	}

	coupon, err := h.couponService.Create(c.Request.Context(), callerIdentity(c), &input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": coupon.ID, "message": "coupon created"})
}

func (h *CouponHandler) List(c *gin.Context) {
	activeOnly := c.Query("active_only") == "true"
	coupons, err := h.couponService.List(c.Request.Context(), callerIdentity(c), activeOnly)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, coupons)
}

func (h *CouponHandler) Show(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	coupon, err := h.couponService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, coupon)
}

// Validate checks a coupon against an order value before the order is
// placed. Business-rule failures come back as a valid=false payload instead
// of an error, so storefronts can show the reason inline.
func (h *CouponHandler) Validate(c *gin.Context) {
	var req struct {
		Code       string  `json:"code"`
		OrderValue float64 `json:"order_value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, apperrors.Validation("invalid request body"))
		return
	}

	caller := callerIdentity(c)
	result, err := h.couponService.Validate(c.Request.Context(), req.Code, caller.UserID, req.OrderValue)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindBusinessRule) {
			c.JSON(http.StatusOK, gin.H{"valid": false, "message": err.Error()})
			return
		}
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":    true,
		"discount": result.Discount,
		"coupon": gin.H{
			"code":           result.Coupon.Code,
			"description":    result.Coupon.Description,
			"discount_type":  result.Coupon.DiscountType,
			"discount_value": result.Coupon.DiscountValue,
		},
	})
}

func (h *CouponHandler) Update(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var input services.CouponUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, h.logger, apperrors.Validation("invalid request body"))
		return
	}

	if _, err := h.couponService.Update(c.Request.Context(), callerIdentity(c), id, &input); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "coupon updated"})
}

func (h *CouponHandler) Deactivate(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if err := h.couponService.Deactivate(c.Request.Context(), callerIdentity(c), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "coupon deactivated"})
}

func (h *CouponHandler) Statistics(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	stats, err := h.couponService.Statistics(c.Request.Context(), callerIdentity(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
