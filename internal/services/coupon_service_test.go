package services

import (
	"context"
	"testing"
	"time"

	"restaurant_orders/internal/apperrors"
	"restaurant_orders/internal/models"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCouponService(repo *fakeCouponRepo) CouponService {
	return NewCouponService(repo, nil, 0, zap.NewNop().Sugar())
}

func activeCoupon(mutate func(*models.Coupon)) *models.Coupon {
	coupon := &models.Coupon{
		ID:            1,
		Code:          "DESC10",
		Description:   "10% de desconto",
		DiscountType:  models.DiscountPercentage,
		DiscountValue: 10,
		UsagePerUser:  1,
		ValidFrom:     time.Now().Add(-time.Hour),
		IsActive:      true,
	}
	if mutate != nil {
		mutate(coupon)
	}
	return coupon
}

func TestValidateCoupon(t *testing.T) {
	t.Parallel()

	future := time.Now().Add(time.Hour)
	past := time.Now().Add(-time.Hour)
	limit := 5

	tests := []struct {
		name       string
		coupon     *models.Coupon
		code       string
		orderValue float64
		wantErr    apperrors.Kind
		wantDisc   float64
	}{
		{
			name:       "percentage discount",
			coupon:     activeCoupon(nil),
			code:       "DESC10",
			orderValue: 100,
			wantDisc:   10,
		},
		{
			name:       "lowercase code is normalized",
			coupon:     activeCoupon(nil),
			code:       "  desc10 ",
			orderValue: 100,
			wantDisc:   10,
		},
		{
			name: "fixed discount capped at order value",
			coupon: activeCoupon(func(c *models.Coupon) {
				c.DiscountType = models.DiscountFixed
				c.DiscountValue = 50
			}),
			code:       "DESC10",
			orderValue: 30,
			wantDisc:   30,
		},
		{
			name:       "unknown code",
			coupon:     activeCoupon(nil),
			code:       "NAOEXISTE",
			orderValue: 100,
			wantErr:    apperrors.KindBusinessRule,
		},
		{
			name:       "empty code",
			coupon:     activeCoupon(nil),
			code:       "   ",
			orderValue: 100,
			wantErr:    apperrors.KindValidation,
		},
		{
			name: "inactive coupon",
			coupon: activeCoupon(func(c *models.Coupon) {
				c.IsActive = false
			}),
			code:       "DESC10",
			orderValue: 100,
			wantErr:    apperrors.KindBusinessRule,
		},
		{
			name: "not yet valid",
			coupon: activeCoupon(func(c *models.Coupon) {
				c.ValidFrom = future
			}),
			code:       "DESC10",
			orderValue: 100,
			wantErr:    apperrors.KindBusinessRule,
		},
		{
			name: "expired",
			coupon: activeCoupon(func(c *models.Coupon) {
				c.ValidUntil = &past
			}),
			code:       "DESC10",
			orderValue: 100,
			wantErr:    apperrors.KindBusinessRule,
		},
		{
			name: "below minimum order value",
			coupon: activeCoupon(func(c *models.Coupon) {
				c.MinOrderValue = 50
			}),
			code:       "DESC10",
			orderValue: 49.99,
			wantErr:    apperrors.KindBusinessRule,
		},
		{
			name: "global usage limit reached",
			coupon: activeCoupon(func(c *models.Coupon) {
				c.UsageLimit = &limit
				c.UsageCount = 5
			}),
			code:       "DESC10",
			orderValue: 100,
			wantErr:    apperrors.KindBusinessRule,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			service := newCouponService(newFakeCouponRepo(tt.coupon))
			result, err := service.Validate(context.Background(), tt.code, 10, tt.orderValue)

			if tt.wantErr != "" {
				require.Error(t, err)
				require.True(t, apperrors.IsKind(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			require.InDelta(t, tt.wantDisc, result.Discount, 0.001)
			require.Equal(t, "DESC10", result.Coupon.Code)
		})
	}
}

func TestValidateCouponPerUserLimit(t *testing.T) {
	t.Parallel()

	repo := newFakeCouponRepo(activeCoupon(func(c *models.Coupon) {
		c.UsagePerUser = 1
	}))
	repo.redemptions = append(repo.redemptions, models.UserCouponRedemption{
		UserID: 10, CouponID: 1, OrderID: 3,
	})
	service := newCouponService(repo)

	_, err := service.Validate(context.Background(), "DESC10", 10, 100)
	require.Error(t, err)
	require.True(t, apperrors.IsKind(err, apperrors.KindBusinessRule), "got %v", err)

	// A different user is unaffected.
	result, err := service.Validate(context.Background(), "DESC10", 11, 100)
	require.NoError(t, err)
	require.InDelta(t, 10.0, result.Discount, 0.001)
}

func TestCreateCoupon(t *testing.T) {
	t.Parallel()

	repo := newFakeCouponRepo()
	service := newCouponService(repo)
	ctx := context.Background()

	_, err := service.Create(ctx, customer(), &CouponInput{
		Code: "NOVO", Description: "desc", DiscountType: "percentage", DiscountValue: 5,
	})
	require.Error(t, err)
	require.True(t, apperrors.IsKind(err, apperrors.KindAuthorization), "got %v", err)

	_, err = service.Create(ctx, admin(), &CouponInput{
		Code: "NOVO", Description: "desc", DiscountType: "bogus", DiscountValue: 5,
	})
	require.Error(t, err)
	require.True(t, apperrors.IsKind(err, apperrors.KindValidation), "got %v", err)

	coupon, err := service.Create(ctx, admin(), &CouponInput{
		Code: "novo10", Description: "10% off", DiscountType: "percentage", DiscountValue: 10,
	})
	require.NoError(t, err)
	require.Equal(t, "NOVO10", coupon.Code)
	require.True(t, coupon.IsActive)
	require.Equal(t, 1, coupon.UsagePerUser)
	require.False(t, coupon.ValidFrom.IsZero())

	_, err = service.Create(ctx, admin(), &CouponInput{
		Code: "NOVO10", Description: "dup", DiscountType: "percentage", DiscountValue: 10,
	})
	require.Error(t, err)
	require.True(t, apperrors.IsKind(err, apperrors.KindBusinessRule), "got %v", err)
}

func TestUpdateAndDeactivateCouponRequireAdmin(t *testing.T) {
	t.Parallel()

	service := newCouponService(newFakeCouponRepo(activeCoupon(nil)))
	ctx := context.Background()

	_, err := service.Update(ctx, customer(), 1, &CouponUpdate{})
	require.True(t, apperrors.IsKind(err, apperrors.KindAuthorization), "got %v", err)

	err = service.Deactivate(ctx, customer(), 1)
	require.True(t, apperrors.IsKind(err, apperrors.KindAuthorization), "got %v", err)
}

func TestDeactivateCouponStopsValidation(t *testing.T) {
	t.Parallel()

	repo := newFakeCouponRepo(activeCoupon(nil))
	service := newCouponService(repo)
	ctx := context.Background()

	require.NoError(t, service.Deactivate(ctx, admin(), 1))

	_, err := service.Validate(ctx, "DESC10", 10, 100)
	require.Error(t, err)
	require.True(t, apperrors.IsKind(err, apperrors.KindBusinessRule), "got %v", err)
}

func TestCouponStatistics(t *testing.T) {
	t.Parallel()

	repo := newFakeCouponRepo(activeCoupon(func(c *models.Coupon) {
		c.UsageCount = 2
	}))
	repo.redemptions = []models.UserCouponRedemption{
		{UserID: 10, CouponID: 1, OrderID: 1},
		{UserID: 11, CouponID: 1, OrderID: 2},
	}
	service := newCouponService(repo)
	ctx := context.Background()

	_, err := service.Statistics(ctx, customer(), 1)
	require.True(t, apperrors.IsKind(err, apperrors.KindAuthorization), "got %v", err)

	stats, err := service.Statistics(ctx, admin(), 1)
	require.NoError(t, err)
	require.Equal(t, "DESC10", stats.Code)
	require.Equal(t, 2, stats.TotalUses)
	require.Len(t, stats.Redemptions, 2)
}
