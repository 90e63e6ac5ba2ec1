package services

import (
	"context"

	"restaurant_orders/internal/apperrors"
	"restaurant_orders/internal/models"
	"restaurant_orders/internal/repository"

	"go.uber.org/zap"
)

type ConfirmPaymentResult struct {
	OrderNumber string `json:"order_number"`
}

type PendingPayment struct {
	models.Order
	PixExpired bool `json:"pix_expired"`
}

type PaymentService interface {
	Confirm(ctx context.Context, caller Identity, orderID uint, notes string) (*ConfirmPaymentResult, error)
	Reject(ctx context.Context, caller Identity, orderID uint, reason string) (*ConfirmPaymentResult, error)
	ListPending(ctx context.Context, caller Identity) ([]PendingPayment, error)
	History(ctx context.Context, caller Identity, filter repository.PaymentHistoryFilter) ([]models.Order, error)
	ListByStatus(ctx context.Context, caller Identity, status string) ([]models.Order, error)
}

type paymentService struct {
	orderRepo   repository.OrderRepository
	pixProvider PixProvider
	notifier    Notifier
	logger      *zap.SugaredLogger
}

func NewPaymentService(orderRepo repository.OrderRepository, pixProvider PixProvider, notifier Notifier, logger *zap.SugaredLogger) PaymentService {
	return &paymentService{
		orderRepo:   orderRepo,
		pixProvider: pixProvider,
		notifier:    notifier,
		logger:      logger,
	}
}

// Confirm marks the payment as confirmed, stamps the confirming admin and,
// if the order is still pending, advances it into the pipeline. Confirming
// twice fails and leaves the order untouched. An expired pix code is logged
// but never blocks manual confirmation.
func (s *paymentService) Confirm(ctx context.Context, caller Identity, orderID uint, notes string) (*ConfirmPaymentResult, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.Authorization("only administrators can confirm payments")
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperrors.NotFound("order not found")
	}
	if order.PaymentStatus == models.PaymentConfirmed {
		return nil, apperrors.BusinessRule("payment has already been confirmed")
	}

	if order.PaymentMethod == models.PaymentMethodPix && order.PixExpiresAt != nil &&
		s.pixProvider.IsExpired(*order.PixExpiresAt) {
		s.logger.Warnw("pix code expired, manual confirmation allowed anyway",
			"order_number", order.OrderNumber)
	}

	if err := s.orderRepo.ConfirmPayment(ctx, order, caller.UserID, notes); err != nil {
		return nil, err
	}

	s.logger.Infow("payment confirmed",
		"order_number", order.OrderNumber, "admin_id", caller.UserID)

	order.PaymentStatus = models.PaymentConfirmed
	if order.Status == models.OrderPending {
		order.Status = models.OrderConfirmed
	}
	go s.notifier.NotifyPaymentConfirmed(order)

	return &ConfirmPaymentResult{OrderNumber: order.OrderNumber}, nil
}

// Reject requires a reason, reverts the payment to pending and cancels the
// order, stamping the same audit fields as a confirmation.
func (s *paymentService) Reject(ctx context.Context, caller Identity, orderID uint, reason string) (*ConfirmPaymentResult, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.Authorization("only administrators can reject payments")
	}
	if reason == "" {
		return nil, apperrors.Validation("a rejection reason is required")
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperrors.NotFound("order not found")
	}

	if err := s.orderRepo.RejectPayment(ctx, order, caller.UserID, reason); err != nil {
		return nil, err
	}

	s.logger.Infow("payment rejected",
		"order_number", order.OrderNumber, "admin_id", caller.UserID, "reason", reason)

	order.Status = models.OrderCancelled
	order.PaymentStatus = models.PaymentPending
	go s.notifier.NotifyOrderStatus(order)

	return &ConfirmPaymentResult{OrderNumber: order.OrderNumber}, nil
}

func (s *paymentService) ListPending(ctx context.Context, caller Identity) ([]PendingPayment, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.Authorization("only administrators can list pending payments")
	}

	orders, err := s.orderRepo.GetByPaymentStatus(ctx, models.PaymentPending, models.PaymentPaid)
	if err != nil {
		return nil, err
	}

	pending := make([]PendingPayment, 0, len(orders))
	for _, order := range orders {
		entry := PendingPayment{Order: order}
		if order.PaymentMethod == models.PaymentMethodPix && order.PixExpiresAt != nil {
			entry.PixExpired = s.pixProvider.IsExpired(*order.PixExpiresAt)
		}
		pending = append(pending, entry)
	}
	return pending, nil
}

func (s *paymentService) History(ctx context.Context, caller Identity, filter repository.PaymentHistoryFilter) ([]models.Order, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.Authorization("only administrators can view payment history")
	}
	return s.orderRepo.GetConfirmedPayments(ctx, filter)
}

func (s *paymentService) ListByStatus(ctx context.Context, caller Identity, status string) ([]models.Order, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.Authorization("only administrators can list orders by payment status")
	}
	paymentStatus := models.PaymentStatus(status)
	if !paymentStatus.Valid() {
		return nil, apperrors.Validation("invalid payment status")
	}
	return s.orderRepo.GetByPaymentStatus(ctx, paymentStatus)
}
