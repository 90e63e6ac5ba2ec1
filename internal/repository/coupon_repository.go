package repository

import (
	"context"
	"errors"
	"time"

	"restaurant_orders/internal/apperrors"
	"restaurant_orders/internal/models"

	"gorm.io/gorm"
)

type CouponRepository interface {
	Create(ctx context.Context, coupon *models.Coupon) error
	GetByID(ctx context.Context, id uint) (*models.Coupon, error)
	GetByCode(ctx context.Context, code string) (*models.Coupon, error)
	GetAll(ctx context.Context, activeOnly bool) ([]models.Coupon, error)
	GetVisible(ctx context.Context) ([]models.Coupon, error)
	Update(ctx context.Context, coupon *models.Coupon) error
	Deactivate(ctx context.Context, id uint) error
	CountUserRedemptions(ctx context.Context, couponID, userID uint) (int64, error)
	GetRedemptions(ctx context.Context, couponID uint) ([]models.UserCouponRedemption, error)

	// Redeem runs inside the order transaction. The guarded increment locks
	// the coupon row, which serializes the per-user count and insert behind
	// it for every concurrent redemption of the same coupon.
	Redeem(ctx context.Context, tx *gorm.DB, coupon *models.Coupon, userID, orderID uint) error
}

type couponRepository struct {
	db *gorm.DB
}

func NewCouponRepository(db *gorm.DB) CouponRepository {
	return &couponRepository{db: db}
}

func (r *couponRepository) Create(ctx context.Context, coupon *models.Coupon) error {
	return r.db.WithContext(ctx).Create(coupon).Error
}

func (r *couponRepository) GetByID(ctx context.Context, id uint) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).First(&coupon, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &coupon, nil
}

func (r *couponRepository) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&coupon).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &coupon, nil
}

func (r *couponRepository) GetAll(ctx context.Context, activeOnly bool) ([]models.Coupon, error) {
	var coupons []models.Coupon
	query := r.db.WithContext(ctx)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Order("created_at DESC").Find(&coupons).Error
	return coupons, err
}

// GetVisible returns the coupons non-admin callers may see: active and not
// past their validity window.
func (r *couponRepository) GetVisible(ctx context.Context) ([]models.Coupon, error) {
	var coupons []models.Coupon
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("valid_until IS NULL OR valid_until >= ?", time.Now()).
		Order("created_at DESC").
		Find(&coupons).Error
	return coupons, err
}

func (r *couponRepository) Update(ctx context.Context, coupon *models.Coupon) error {
	return r.db.WithContext(ctx).Save(coupon).Error
}

func (r *couponRepository) Deactivate(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.Coupon{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}

func (r *couponRepository) CountUserRedemptions(ctx context.Context, couponID, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserCouponRedemption{}).
		Where("coupon_id = ? AND user_id = ?", couponID, userID).
		Count(&count).Error
	return count, err
}

func (r *couponRepository) GetRedemptions(ctx context.Context, couponID uint) ([]models.UserCouponRedemption, error) {
	var redemptions []models.UserCouponRedemption
	err := r.db.WithContext(ctx).
		Where("coupon_id = ?", couponID).
		Order("used_at DESC").
		Find(&redemptions).Error
	return redemptions, err
}

func (r *couponRepository) Redeem(ctx context.Context, tx *gorm.DB, coupon *models.Coupon, userID, orderID uint) error {
	// Conditional increment: two redemptions racing past the limit check
	// cannot both succeed because the guard is evaluated under the row lock.
	res := tx.WithContext(ctx).Model(&models.Coupon{}).
		Where("id = ? AND is_active = ? AND (usage_limit IS NULL OR usage_count < usage_limit)", coupon.ID, true).
		Update("usage_count", gorm.Expr("usage_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.BusinessRule("coupon has reached its usage limit")
	}

	var used int64
	err := tx.WithContext(ctx).Model(&models.UserCouponRedemption{}).
		Where("coupon_id = ? AND user_id = ?", coupon.ID, userID).
		Count(&used).Error
	if err != nil {
		return err
	}
	if used >= int64(coupon.UsagePerUser) {
		return apperrors.BusinessRule("coupon already used the maximum number of times by this user")
	}

	redemption := models.UserCouponRedemption{
		UserID:   userID,
		CouponID: coupon.ID,
		OrderID:  orderID,
	}
	return tx.WithContext(ctx).Create(&redemption).Error
}
