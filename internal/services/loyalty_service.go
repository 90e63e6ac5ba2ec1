package services

import (
	"context"

	"restaurant_orders/internal/apperrors"
	"restaurant_orders/internal/models"
	"restaurant_orders/internal/repository"

	"go.uber.org/zap"
)

type RedeemResult struct {
	PointsUsed    int     `json:"points_used"`
	DiscountValue float64 `json:"discount_value"`
	NewBalance    int     `json:"new_balance"`
}

type LoyaltyService interface {
	Balance(ctx context.Context, userID uint) (*models.LoyaltyAccount, error)
	Redeem(ctx context.Context, userID uint, points int) (*RedeemResult, error)
	AdminAdjust(ctx context.Context, caller Identity, userID uint, points int, reason string) error
	ListAccounts(ctx context.Context, caller Identity) ([]models.LoyaltyAccount, error)
}

type loyaltyService struct {
	loyaltyRepo repository.LoyaltyRepository
	logger      *zap.SugaredLogger
}

func NewLoyaltyService(loyaltyRepo repository.LoyaltyRepository, logger *zap.SugaredLogger) LoyaltyService {
	return &loyaltyService{loyaltyRepo: loyaltyRepo, logger: logger}
}

// Balance lazily creates the account at zero on first access.
func (s *loyaltyService) Balance(ctx context.Context, userID uint) (*models.LoyaltyAccount, error) {
	return s.loyaltyRepo.GetOrCreate(ctx, userID)
}

// Redeem converts points into discount value at the fixed rate of
// models.PointValue per point. The debit is a guarded atomic update, so a
// concurrent redemption cannot drive the balance negative.
func (s *loyaltyService) Redeem(ctx context.Context, userID uint, points int) (*RedeemResult, error) {
	if points <= 0 {
		return nil, apperrors.Validation("points must be greater than zero")
	}

	if err := s.loyaltyRepo.Debit(ctx, userID, points); err != nil {
		return nil, err
	}

	account, err := s.loyaltyRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &RedeemResult{
		PointsUsed:    points,
		DiscountValue: float64(points) * models.PointValue,
		NewBalance:    account.Balance,
	}, nil
}

// AdminAdjust is a privileged credit with an audit reason. There is no debit
// counterpart by design; corrections that remove points go through support.
func (s *loyaltyService) AdminAdjust(ctx context.Context, caller Identity, userID uint, points int, reason string) error {
	if !caller.IsAdmin() {
		return apperrors.Authorization("only administrators can adjust loyalty points")
	}
	if userID == 0 || points <= 0 {
		return apperrors.Validation("user and a positive point amount are required")
	}

	if err := s.loyaltyRepo.Credit(ctx, nil, userID, points); err != nil {
		return err
	}

	if reason == "" {
		reason = "manual bonus"
	}
	s.logger.Infow("loyalty points adjusted by admin",
		"admin_id", caller.UserID, "user_id", userID, "points", points, "reason", reason)
	return nil
}

func (s *loyaltyService) ListAccounts(ctx context.Context, caller Identity) ([]models.LoyaltyAccount, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.Authorization("only administrators can list loyalty accounts")
	}
	return s.loyaltyRepo.GetAll(ctx)
}
