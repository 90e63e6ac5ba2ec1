package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"restaurant_orders/internal/apperrors"
	"restaurant_orders/internal/models"
	"restaurant_orders/internal/repository"

	"go.uber.org/zap"
)

// CouponCache fronts coupon lookups during validation. Cached entries are
// advisory: the transactional redeem re-checks every limit against the
// database.
type CouponCache interface {
	GetCoupon(ctx context.Context, code string, dest interface{}) error
	SetCoupon(ctx context.Context, code string, coupon interface{}, ttl time.Duration) error
	InvalidateCoupon(ctx context.Context, code string) error
}

type CouponDiscount struct {
	Coupon   *models.Coupon
	Discount float64
}

type CouponInput struct {
	Code          string
	Description   string
	DiscountType  string
	DiscountValue float64
	MinOrderValue float64
	UsageLimit    *int
	UsagePerUser  int
	ValidFrom     *time.Time
	ValidUntil    *time.Time
}

type CouponUpdate struct {
	Description   *string
	DiscountValue *float64
	MinOrderValue *float64
	UsageLimit    *int
	UsagePerUser  *int
	ValidUntil    *time.Time
	IsActive      *bool
}

type CouponStatistics struct {
	Code        string                        `json:"code"`
	Description string                        `json:"description"`
	TotalUses   int                           `json:"total_uses"`
	UsageLimit  *int                          `json:"usage_limit"`
	Redemptions []models.UserCouponRedemption `json:"redemptions"`
}

type CouponService interface {
	Validate(ctx context.Context, code string, userID uint, orderValue float64) (*CouponDiscount, error)
	Create(ctx context.Context, caller Identity, input *CouponInput) (*models.Coupon, error)
	List(ctx context.Context, caller Identity, activeOnly bool) ([]models.Coupon, error)
	Get(ctx context.Context, id uint) (*models.Coupon, error)
	Update(ctx context.Context, caller Identity, id uint, input *CouponUpdate) (*models.Coupon, error)
	Deactivate(ctx context.Context, caller Identity, id uint) error
	Statistics(ctx context.Context, caller Identity, id uint) (*CouponStatistics, error)
}

type couponService struct {
	couponRepo repository.CouponRepository
	cache      CouponCache
	cacheTTL   time.Duration
	logger     *zap.SugaredLogger
}

func NewCouponService(couponRepo repository.CouponRepository, cache CouponCache, cacheTTL time.Duration, logger *zap.SugaredLogger) CouponService {
	return &couponService{
		couponRepo: couponRepo,
		cache:      cache,
		cacheTTL:   cacheTTL,
		logger:     logger,
	}
}

// Validate runs the read-only eligibility checks in order: existence and
// active flag, validity window, minimum order value, global usage limit,
// per-user limit. The returned discount is capped at the order value.
func (s *couponService) Validate(ctx context.Context, code string, userID uint, orderValue float64) (*CouponDiscount, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, apperrors.Validation("coupon code is required")
	}

	coupon, err := s.lookupCoupon(ctx, code)
	if err != nil {
		return nil, err
	}
	if coupon == nil || !coupon.IsActive {
		return nil, apperrors.BusinessRule("coupon is invalid or inactive")
	}

	now := time.Now()
	if coupon.ValidFrom.After(now) {
		return nil, apperrors.BusinessRule("coupon is not yet valid")
	}
	if coupon.ValidUntil != nil && coupon.ValidUntil.Before(now) {
		return nil, apperrors.BusinessRule("coupon has expired")
	}
	if orderValue < coupon.MinOrderValue {
		return nil, apperrors.BusinessRule(fmt.Sprintf("minimum order value for this coupon is R$ %.2f", coupon.MinOrderValue))
	}
	if coupon.UsageLimit != nil && coupon.UsageCount >= *coupon.UsageLimit {
		return nil, apperrors.BusinessRule("coupon has reached its usage limit")
	}

	used, err := s.couponRepo.CountUserRedemptions(ctx, coupon.ID, userID)
	if err != nil {
		return nil, err
	}
	if used >= int64(coupon.UsagePerUser) {
		return nil, apperrors.BusinessRule("coupon already used the maximum number of times by this user")
	}

	return &CouponDiscount{
		Coupon:   coupon,
		Discount: coupon.DiscountFor(orderValue),
	}, nil
}

func (s *couponService) lookupCoupon(ctx context.Context, code string) (*models.Coupon, error) {
	if s.cache != nil {
		var cached models.Coupon
		if err := s.cache.GetCoupon(ctx, code, &cached); err == nil {
			return &cached, nil
		}
	}

	coupon, err := s.couponRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if coupon != nil && s.cache != nil {
		if err := s.cache.SetCoupon(ctx, code, coupon, s.cacheTTL); err != nil {
			s.logger.Warnw("failed to cache coupon", "code", code, "error", err)
		}
	}
	return coupon, nil
}

func (s *couponService) Create(ctx context.Context, caller Identity, input *CouponInput) (*models.Coupon, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.Authorization("only administrators can create coupons")
	}
	if input.Code == "" || input.Description == "" || input.DiscountValue <= 0 {
		return nil, apperrors.Validation("code, description and discount value are required")
	}
	discountType := models.DiscountType(input.DiscountType)
	if !discountType.Valid() {
		return nil, apperrors.Validation("invalid discount type")
	}

	code := strings.ToUpper(strings.TrimSpace(input.Code))
	existing, err := s.couponRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.BusinessRule("a coupon with this code already exists")
	}

	usagePerUser := input.UsagePerUser
	if usagePerUser <= 0 {
		usagePerUser = 1
	}
	validFrom := time.Now()
	if input.ValidFrom != nil {
		validFrom = *input.ValidFrom
	}

	coupon := &models.Coupon{
		Code:          code,
		Description:   input.Description,
		DiscountType:  discountType,
		DiscountValue: input.DiscountValue,
		MinOrderValue: input.MinOrderValue,
		UsageLimit:    input.UsageLimit,
		UsagePerUser:  usagePerUser,
		ValidFrom:     validFrom,
		ValidUntil:    input.ValidUntil,
		IsActive:      true,
	}
	if err := s.couponRepo.Create(ctx, coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

func (s *couponService) List(ctx context.Context, caller Identity, activeOnly bool) ([]models.Coupon, error) {
	if caller.IsAdmin() {
		return s.couponRepo.GetAll(ctx, activeOnly)
	}
	return s.couponRepo.GetVisible(ctx)
}

func (s *couponService) Get(ctx context.Context, id uint) (*models.Coupon, error) {
	coupon, err := s.couponRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, apperrors.NotFound("coupon not found")
	}
	return coupon, nil
}

func (s *couponService) Update(ctx context.Context, caller Identity, id uint, input *CouponUpdate) (*models.Coupon, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.Authorization("only administrators can update coupons")
	}

	coupon, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Description != nil {
		coupon.Description = *input.Description
	}
	if input.DiscountValue != nil {
		coupon.DiscountValue = *input.DiscountValue
	}
	if input.MinOrderValue != nil {
		coupon.MinOrderValue = *input.MinOrderValue
	}
	if input.UsageLimit != nil {
		coupon.UsageLimit = input.UsageLimit
	}
	if input.UsagePerUser != nil {
		coupon.UsagePerUser = *input.UsagePerUser
	}
	if input.ValidUntil != nil {
		coupon.ValidUntil = input.ValidUntil
	}
	if input.IsActive != nil {
		coupon.IsActive = *input.IsActive
	}

	if err := s.couponRepo.Update(ctx, coupon); err != nil {
		return nil, err
	}
	s.invalidate(ctx, coupon.Code)
	return coupon, nil
}

// Deactivate is the only deletion path; the row stays for audit history.
func (s *couponService) Deactivate(ctx context.Context, caller Identity, id uint) error {
	if !caller.IsAdmin() {
		return apperrors.Authorization("only administrators can deactivate coupons")
	}

	coupon, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.couponRepo.Deactivate(ctx, coupon.ID); err != nil {
		return err
	}
	s.invalidate(ctx, coupon.Code)
	return nil
}

func (s *couponService) Statistics(ctx context.Context, caller Identity, id uint) (*CouponStatistics, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.Authorization("only administrators can view coupon statistics")
	}

	coupon, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	redemptions, err := s.couponRepo.GetRedemptions(ctx, coupon.ID)
	if err != nil {
		return nil, err
	}

	return &CouponStatistics{
		Code:        coupon.Code,
		Description: coupon.Description,
		TotalUses:   coupon.UsageCount,
		UsageLimit:  coupon.UsageLimit,
		Redemptions: redemptions,
	}, nil
}

func (s *couponService) invalidate(ctx context.Context, code string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateCoupon(ctx, code); err != nil {
		s.logger.Warnw("failed to invalidate coupon cache", "code", code, "error", err)
	}
}
