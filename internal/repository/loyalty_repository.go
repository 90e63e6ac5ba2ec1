package repository

import (
	"context"
	"errors"
	"time"

	"restaurant_orders/internal/apperrors"
	"restaurant_orders/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LoyaltyRepository interface {
	GetByUserID(ctx context.Context, userID uint) (*models.LoyaltyAccount, error)
	GetOrCreate(ctx context.Context, userID uint) (*models.LoyaltyAccount, error)
	GetAll(ctx context.Context) ([]models.LoyaltyAccount, error)

	// Credit upserts the account and adds to balance and total_earned in a
	// single statement, so concurrent credits never lose an update. It takes
	// the tx handle because order creation credits inside the composite
	// transaction; callers outside a transaction pass the plain DB.
	Credit(ctx context.Context, tx *gorm.DB, userID uint, points int) error

	// Debit subtracts guarded by balance >= points; insufficient balance is
	// a business-rule failure, and the balance can never go negative.
	Debit(ctx context.Context, userID uint, points int) error
}

type loyaltyRepository struct {
	db *gorm.DB
}

func NewLoyaltyRepository(db *gorm.DB) LoyaltyRepository {
	return &loyaltyRepository{db: db}
}

func (r *loyaltyRepository) GetByUserID(ctx context.Context, userID uint) (*models.LoyaltyAccount, error) {
	var account models.LoyaltyAccount
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *loyaltyRepository) GetOrCreate(ctx context.Context, userID uint) (*models.LoyaltyAccount, error) {
	account, err := r.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}

	fresh := models.LoyaltyAccount{UserID: userID}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&fresh).Error
	if err != nil {
		return nil, err
	}
	return r.GetByUserID(ctx, userID)
}

func (r *loyaltyRepository) GetAll(ctx context.Context) ([]models.LoyaltyAccount, error) {
	var accounts []models.LoyaltyAccount
	err := r.db.WithContext(ctx).Order("balance DESC").Find(&accounts).Error
	return accounts, err
}

func (r *loyaltyRepository) Credit(ctx context.Context, tx *gorm.DB, userID uint, points int) error {
	if tx == nil {
		tx = r.db
	}
	account := models.LoyaltyAccount{
		UserID:      userID,
		Balance:     points,
		TotalEarned: points,
	}
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"balance":      gorm.Expr("loyalty_accounts.balance + ?", points),
			"total_earned": gorm.Expr("loyalty_accounts.total_earned + ?", points),
			"updated_at":   time.Now(),
		}),
	}).Create(&account).Error
}

func (r *loyaltyRepository) Debit(ctx context.Context, userID uint, points int) error {
	res := r.db.WithContext(ctx).Model(&models.LoyaltyAccount{}).
		Where("user_id = ? AND balance >= ?", userID, points).
		Updates(map[string]interface{}{
			"balance":    gorm.Expr("balance - ?", points),
			"total_used": gorm.Expr("total_used + ?", points),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.BusinessRule("insufficient loyalty points")
	}
	return nil
}
