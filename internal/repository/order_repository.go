package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"restaurant_orders/internal/apperrors"
	"restaurant_orders/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderUnit is the composite write behind order creation: the sequence
// increment, the order row, its items, the coupon redemption and the loyalty
// credit commit together or not at all. GeneratePayment runs after the order
// number is allocated and before anything is inserted; returning an error
// aborts the whole unit.
type OrderUnit struct {
	Order           *models.Order
	Items           []models.OrderItem
	Coupon          *models.Coupon
	LoyaltyPoints   int
	GeneratePayment func(ctx context.Context, orderNumber string) error
}

type PaymentHistoryFilter struct {
	StartDate     *time.Time
	EndDate       *time.Time
	PaymentMethod models.PaymentMethod
}

type OrderRepository interface {
	CreateOrderUnit(ctx context.Context, unit *OrderUnit) error
	GetByID(ctx context.Context, id uint) (*models.Order, error)
	GetByUserID(ctx context.Context, userID uint) ([]models.Order, error)
	GetAll(ctx context.Context) ([]models.Order, error)
	GetByPaymentStatus(ctx context.Context, statuses ...models.PaymentStatus) ([]models.Order, error)
	GetConfirmedPayments(ctx context.Context, filter PaymentHistoryFilter) ([]models.Order, error)

	// UpdateStatus only applies when the order is still in the expected
	// status; a zero-row update means a concurrent transition won.
	UpdateStatus(ctx context.Context, id uint, from, to models.OrderStatus) error
	ConfirmPayment(ctx context.Context, order *models.Order, adminID uint, notes string) error
	RejectPayment(ctx context.Context, order *models.Order, adminID uint, reason string) error
}

type orderRepository struct {
	db      *gorm.DB
	coupons CouponRepository
	loyalty LoyaltyRepository
}

func NewOrderRepository(db *gorm.DB, coupons CouponRepository, loyalty LoyaltyRepository) OrderRepository {
	return &orderRepository{db: db, coupons: coupons, loyalty: loyalty}
}

func (r *orderRepository) CreateOrderUnit(ctx context.Context, unit *OrderUnit) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		year := time.Now().Year()
		number, err := nextOrderNumber(ctx, tx, year)
		if err != nil {
			return err
		}
		unit.Order.OrderNumber = fmt.Sprintf("ORD-%d-%04d", year, number)

		if unit.GeneratePayment != nil {
			if err := unit.GeneratePayment(ctx, unit.Order.OrderNumber); err != nil {
				return err
			}
		}

		if err := tx.Create(unit.Order).Error; err != nil {
			return err
		}

		for i := range unit.Items {
			unit.Items[i].OrderID = unit.Order.ID
		}
		if err := tx.Create(&unit.Items).Error; err != nil {
			return err
		}

		if unit.Coupon != nil {
			if err := r.coupons.Redeem(ctx, tx, unit.Coupon, unit.Order.UserID, unit.Order.ID); err != nil {
				return err
			}
		}

		if unit.LoyaltyPoints > 0 {
			if err := r.loyalty.Credit(ctx, tx, unit.Order.UserID, unit.LoyaltyPoints); err != nil {
				return err
			}
		}

		return nil
	})
}

// nextOrderNumber locks the per-year counter row FOR UPDATE and increments
// it. The lock is held until the surrounding transaction ends, so concurrent
// creations within the same year serialize here and every number is unique.
func nextOrderNumber(ctx context.Context, tx *gorm.DB, year int) (int, error) {
	var seq models.OrderSequence
	err := tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("year = ?", year).First(&seq).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fresh := models.OrderSequence{Year: year}
		if err := tx.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "year"}},
			DoNothing: true,
		}).Create(&fresh).Error; err != nil {
			return 0, err
		}
		err = tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("year = ?", year).First(&seq).Error
	}
	if err != nil {
		return 0, err
	}

	seq.LastNumber++
	err = tx.WithContext(ctx).Model(&models.OrderSequence{}).
		Where("id = ?", seq.ID).
		Update("last_number", seq.LastNumber).Error
	if err != nil {
		return 0, err
	}
	return seq.LastNumber, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Items").Preload("User").First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetByUserID(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).Preload("Items").Preload("User").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (r *orderRepository) GetAll(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).Preload("Items").Preload("User").
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (r *orderRepository) GetByPaymentStatus(ctx context.Context, statuses ...models.PaymentStatus) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).Preload("Items").Preload("User").
		Where("payment_status IN ?", statuses).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (r *orderRepository) GetConfirmedPayments(ctx context.Context, filter PaymentHistoryFilter) ([]models.Order, error) {
	query := r.db.WithContext(ctx).Preload("User").
		Where("payment_status = ?", models.PaymentConfirmed)
	if filter.StartDate != nil {
		query = query.Where("confirmed_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("confirmed_at <= ?", *filter.EndDate)
	}
	if filter.PaymentMethod != "" {
		query = query.Where("payment_method = ?", filter.PaymentMethod)
	}

	var orders []models.Order
	err := query.Order("confirmed_at DESC").Find(&orders).Error
	return orders, err
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uint, from, to models.OrderStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.BusinessRule(fmt.Sprintf("order is no longer in status %q", from))
	}
	return nil
}

func (r *orderRepository) ConfirmPayment(ctx context.Context, order *models.Order, adminID uint, notes string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"payment_status":             models.PaymentConfirmed,
		"confirmed_by":               adminID,
		"confirmed_at":               now,
		"paid_at":                    now,
		"payment_notes":              notes,
		"payment_manually_confirmed": true,
		"updated_at":                 now,
	}
	// Payment confirmation pulls a still-pending order into the pipeline.
	if order.Status == models.OrderPending {
		updates["status"] = models.OrderConfirmed
	}

	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND payment_status <> ?", order.ID, models.PaymentConfirmed).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.BusinessRule("payment has already been confirmed")
	}
	return nil
}

func (r *orderRepository) RejectPayment(ctx context.Context, order *models.Order, adminID uint, reason string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", order.ID).
		Updates(map[string]interface{}{
			"status":         models.OrderCancelled,
			"payment_status": models.PaymentPending,
			"payment_notes":  "Pagamento rejeitado: " + reason,
			"confirmed_by":   adminID,
			"confirmed_at":   now,
			"updated_at":     now,
		}).Error
}
