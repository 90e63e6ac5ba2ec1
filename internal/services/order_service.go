package services

import (
	"context"
	"math"
	"math/rand"
	"time"

	"restaurant_orders/internal/apperrors"
	"restaurant_orders/internal/config"
	"restaurant_orders/internal/models"
	"restaurant_orders/internal/repository"
	"restaurant_orders/pkg/pix"

	"go.uber.org/zap"
)

// PixProvider generates scannable payment codes for pix orders. Generation
// failure aborts order creation; expiry is informational.
type PixProvider interface {
	GenerateCharge(ctx context.Context, amount float64, reference, description string) (*pix.Charge, error)
	IsExpired(expiresAt time.Time) bool
}

type CreateOrderItemInput struct {
	PlateID  uint   `json:"plate_id"`
	Quantity int    `json:"quantity"`
	Notes    string `json:"notes"`
}

type CreateOrderInput struct {
	Items           []CreateOrderItemInput `json:"items"`
	DeliveryType    string                 `json:"delivery_type"`
	AddressID       *uint                  `json:"address_id"`
	DeliveryAddress string                 `json:"delivery_address"`
	DeliveryPhone   string                 `json:"delivery_phone"`
	DeliveryNotes   string                 `json:"delivery_notes"`
	CouponCode      string                 `json:"coupon_code"`
	PaymentMethod   string                 `json:"payment_method"`
}

type PixInstructions struct {
	CopyPaste    string    `json:"copy_paste"`
	QRCode       string    `json:"qr_code"`
	ExpiresAt    time.Time `json:"expires_at"`
	Instructions string    `json:"instructions"`
}

type CreateOrderResult struct {
	OrderID             uint                 `json:"order_id"`
	OrderNumber         string               `json:"order_number"`
	Total               float64              `json:"total"`
	EstimatedTime       int                  `json:"estimated_time"`
	LoyaltyPointsEarned int                  `json:"loyalty_points_earned"`
	PaymentMethod       models.PaymentMethod `json:"payment_method"`
	PaymentStatus       models.PaymentStatus `json:"payment_status"`
	Instructions        string               `json:"instructions,omitempty"`
	Pix                 *PixInstructions     `json:"pix,omitempty"`
}

type OrderService interface {
	CreateOrder(ctx context.Context, caller Identity, input *CreateOrderInput) (*CreateOrderResult, error)
	GetOrder(ctx context.Context, caller Identity, id uint) (*models.Order, error)
	ListOrders(ctx context.Context, caller Identity) ([]models.Order, error)
	UpdateStatus(ctx context.Context, caller Identity, id uint, status string) error
	CancelOrder(ctx context.Context, caller Identity, id uint) error
}

type orderService struct {
	orderRepo   repository.OrderRepository
	plateRepo   repository.PlateRepository
	addressRepo repository.AddressRepository
	userRepo    repository.UserRepository
	coupons     CouponService
	pixProvider PixProvider
	notifier    Notifier
	cfg         *config.Config
	logger      *zap.SugaredLogger
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	plateRepo repository.PlateRepository,
	addressRepo repository.AddressRepository,
	userRepo repository.UserRepository,
	coupons CouponService,
	pixProvider PixProvider,
	notifier Notifier,
	cfg *config.Config,
	logger *zap.SugaredLogger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		plateRepo:   plateRepo,
		addressRepo: addressRepo,
		userRepo:    userRepo,
		coupons:     coupons,
		pixProvider: pixProvider,
		notifier:    notifier,
		cfg:         cfg,
		logger:      logger,
	}
}

// CreateOrder prices the cart, validates the coupon, allocates the order
// number and persists the order, its items, the coupon redemption and the
// loyalty credit as one atomic unit. For pix orders the payment code is
// generated inside that unit, so a generation failure leaves no trace.
func (s *orderService) CreateOrder(ctx context.Context, caller Identity, input *CreateOrderInput) (*CreateOrderResult, error) {
	if len(input.Items) == 0 {
		return nil, apperrors.Validation("order must contain at least one item")
	}

	deliveryType := models.DeliveryType(input.DeliveryType)
	if !deliveryType.Valid() {
		return nil, apperrors.Validation("invalid delivery type")
	}

	deliveryAddress, err := s.resolveDeliveryAddress(ctx, caller.UserID, deliveryType, input)
	if err != nil {
		return nil, err
	}

	paymentMethod := models.PaymentMethod(input.PaymentMethod)
	if input.PaymentMethod == "" {
		paymentMethod = models.PaymentMethodCash
	}
	if !paymentMethod.Valid() {
		return nil, apperrors.Validation("invalid payment method")
	}

	items, subtotal, err := s.resolveItems(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	var deliveryFee float64
	if deliveryType == models.DeliveryTypeDelivery {
		deliveryFee = s.cfg.DeliveryFee
	}

	var discount float64
	var coupon *models.Coupon
	if input.CouponCode != "" {
		applied, err := s.coupons.Validate(ctx, input.CouponCode, caller.UserID, subtotal)
		if err != nil {
			return nil, err
		}
		coupon = applied.Coupon
		discount = applied.Discount
	}

	total := subtotal + deliveryFee - discount
	pointsEarned := int(math.Floor((subtotal - discount) * float64(s.cfg.PointsPerReal)))
	estimatedTime := s.cfg.PrepTimeMin + rand.Intn(s.cfg.PrepTimeMax-s.cfg.PrepTimeMin+1)

	paymentStatus := models.PaymentPaid
	if paymentMethod == models.PaymentMethodPix {
		paymentStatus = models.PaymentPending
	}

	order := &models.Order{
		UserID:              caller.UserID,
		Subtotal:            subtotal,
		DeliveryFee:         deliveryFee,
		Discount:            discount,
		Total:               total,
		Status:              models.OrderPending,
		DeliveryType:        deliveryType,
		DeliveryAddress:     deliveryAddress,
		DeliveryPhone:       input.DeliveryPhone,
		DeliveryNotes:       input.DeliveryNotes,
		EstimatedTime:       estimatedTime,
		LoyaltyPointsEarned: pointsEarned,
		PaymentMethod:       paymentMethod,
		PaymentStatus:       paymentStatus,
	}
	if coupon != nil {
		order.CouponCode = &coupon.Code
	}

	unit := &repository.OrderUnit{
		Order:         order,
		Items:         items,
		Coupon:        coupon,
		LoyaltyPoints: pointsEarned,
	}
	if paymentMethod == models.PaymentMethodPix {
		unit.GeneratePayment = func(ctx context.Context, orderNumber string) error {
			return s.generatePixCharge(ctx, order, orderNumber, total)
		}
	}

	if err := s.orderRepo.CreateOrderUnit(ctx, unit); err != nil {
		return nil, err
	}

	s.logger.Infow("order created",
		"order_id", order.ID, "order_number", order.OrderNumber,
		"user_id", caller.UserID, "total", total, "payment_method", paymentMethod)

	order.Items = items
	go s.notifyNewOrder(order)

	return s.buildResult(order), nil
}

func (s *orderService) resolveDeliveryAddress(ctx context.Context, userID uint, deliveryType models.DeliveryType, input *CreateOrderInput) (string, error) {
	if deliveryType != models.DeliveryTypeDelivery {
		return "", nil
	}
	if input.AddressID != nil {
		address, err := s.addressRepo.GetByID(ctx, *input.AddressID)
		if err != nil {
			return "", err
		}
		if address == nil || address.UserID != userID {
			return "", apperrors.NotFound("delivery address not found")
		}
		return address.Format(), nil
	}
	if input.DeliveryAddress != "" {
		return input.DeliveryAddress, nil
	}

	// No address supplied: fall back to the customer's default address.
	address, err := s.addressRepo.GetDefault(ctx, userID)
	if err != nil {
		return "", err
	}
	if address == nil {
		return "", apperrors.Validation("delivery address is required for delivery orders")
	}
	return address.Format(), nil
}

func (s *orderService) resolveItems(ctx context.Context, inputs []CreateOrderItemInput) ([]models.OrderItem, float64, error) {
	ids := make([]uint, 0, len(inputs))
	for _, item := range inputs {
		if item.Quantity < 1 {
			return nil, 0, apperrors.Validation("item quantity must be at least 1")
		}
		ids = append(ids, item.PlateID)
	}

	plates, err := s.plateRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	byID := make(map[uint]*models.Plate, len(plates))
	for i := range plates {
		byID[plates[i].ID] = &plates[i]
	}

	var subtotal float64
	items := make([]models.OrderItem, 0, len(inputs))
	for _, input := range inputs {
		plate, ok := byID[input.PlateID]
		if !ok {
			return nil, 0, apperrors.NotFound("one or more plates were not found")
		}
		itemSubtotal := plate.Value * float64(input.Quantity)
		subtotal += itemSubtotal
		items = append(items, models.OrderItem{
			PlateID:   plate.ID,
			PlateName: plate.Name,
			UnitPrice: plate.Value,
			Quantity:  input.Quantity,
			Subtotal:  itemSubtotal,
			Notes:     input.Notes,
		})
	}
	return items, subtotal, nil
}

func (s *orderService) generatePixCharge(ctx context.Context, order *models.Order, orderNumber string, total float64) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.PixTimeoutSeconds)*time.Second)
	defer cancel()

	charge, err := s.pixProvider.GenerateCharge(ctx, total, orderNumber,
		"Pedido "+orderNumber+" - "+s.cfg.RestaurantName)
	if err != nil {
		return apperrors.Dependency("failed to generate pix payment code", err)
	}

	order.PixCopyPaste = charge.CopyPaste
	order.PixQRCode = charge.QRCode
	order.PixExpiresAt = &charge.ExpiresAt
	return nil
}

func (s *orderService) buildResult(order *models.Order) *CreateOrderResult {
	result := &CreateOrderResult{
		OrderID:             order.ID,
		OrderNumber:         order.OrderNumber,
		Total:               order.Total,
		EstimatedTime:       order.EstimatedTime,
		LoyaltyPointsEarned: order.LoyaltyPointsEarned,
		PaymentMethod:       order.PaymentMethod,
		PaymentStatus:       order.PaymentStatus,
	}

	switch order.PaymentMethod {
	case models.PaymentMethodCash:
		result.Instructions = "Pagamento em dinheiro no ato da entrega ou retirada."
	case models.PaymentMethodCard:
		result.Instructions = "Pagamento com cartão na máquina no ato da entrega ou retirada."
	case models.PaymentMethodPix:
		result.Pix = &PixInstructions{
			CopyPaste: order.PixCopyPaste,
			QRCode:    order.PixQRCode,
			ExpiresAt: *order.PixExpiresAt,
			Instructions: "Escaneie o QR Code ou copie o código PIX para realizar o pagamento. " +
				"O pedido será confirmado após o pagamento.",
		}
	}
	return result
}

func (s *orderService) notifyNewOrder(order *models.Order) {
	customerName := ""
	user, err := s.userRepo.GetByID(context.Background(), order.UserID)
	if err != nil {
		s.logger.Warnw("failed to load customer for notification",
			"order_number", order.OrderNumber, "error", err)
	} else if user != nil {
		customerName = user.Name
	}
	s.notifier.NotifyNewOrder(order, customerName)
}

func (s *orderService) GetOrder(ctx context.Context, caller Identity, id uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperrors.NotFound("order not found")
	}
	if !caller.IsAdmin() && order.UserID != caller.UserID {
		return nil, apperrors.Authorization("you do not have permission to view this order")
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, caller Identity) ([]models.Order, error) {
	if caller.IsAdmin() {
		return s.orderRepo.GetAll(ctx)
	}
	return s.orderRepo.GetByUserID(ctx, caller.UserID)
}

// UpdateStatus moves an order through the fulfillment pipeline. Only the
// transitions in the central table are allowed; anything else is rejected.
func (s *orderService) UpdateStatus(ctx context.Context, caller Identity, id uint, status string) error {
	if !caller.IsAdmin() {
		return apperrors.Authorization("only administrators can update order status")
	}

	next := models.OrderStatus(status)
	if !next.Valid() {
		return apperrors.Validation("invalid order status")
	}

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if order == nil {
		return apperrors.NotFound("order not found")
	}
	if !order.Status.CanTransitionTo(next) {
		return apperrors.BusinessRule("invalid status transition from " + string(order.Status) + " to " + string(next))
	}

	if err := s.orderRepo.UpdateStatus(ctx, id, order.Status, next); err != nil {
		return err
	}

	order.Status = next
	go s.notifier.NotifyOrderStatus(order)
	return nil
}

// CancelOrder lets the owning customer (or an admin) cancel while the order
// is still pending or confirmed. Cancellation is a status value, the row is
// never removed.
func (s *orderService) CancelOrder(ctx context.Context, caller Identity, id uint) error {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if order == nil {
		return apperrors.NotFound("order not found")
	}
	if !caller.IsAdmin() && order.UserID != caller.UserID {
		return apperrors.Authorization("you do not have permission to cancel this order")
	}
	if !order.Status.Cancellable() {
		return apperrors.BusinessRule("order can no longer be cancelled, contact the restaurant")
	}

	if err := s.orderRepo.UpdateStatus(ctx, id, order.Status, models.OrderCancelled); err != nil {
		return err
	}

	order.Status = models.OrderCancelled
	go s.notifier.NotifyOrderStatus(order)
	return nil
}
