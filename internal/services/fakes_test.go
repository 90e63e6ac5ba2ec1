package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"restaurant_orders/internal/apperrors"
	"restaurant_orders/internal/models"
	"restaurant_orders/internal/repository"
	"restaurant_orders/pkg/pix"

	"gorm.io/gorm"
)

var errInsufficientPoints = apperrors.BusinessRule("insufficient loyalty points")

// In-memory fakes for the repository and collaborator interfaces. They
// enforce the same guards as the real implementations so the service tests
// exercise the full business behavior.

type fakeOrderRepo struct {
	mu         sync.Mutex
	orders     map[uint]*models.Order
	nextID     uint
	lastNumber int
	redeemed   []redemption
	credited   map[uint]int
	coupons    *fakeCouponRepo
	loyalty    *fakeLoyaltyRepo
	users      *fakeUserRepo
}

type redemption struct {
	couponID uint
	userID   uint
	orderID  uint
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders:   make(map[uint]*models.Order),
		credited: make(map[uint]int),
	}
}

func (r *fakeOrderRepo) CreateOrderUnit(ctx context.Context, unit *repository.OrderUnit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	number := r.lastNumber + 1
	orderNumber := fmt.Sprintf("ORD-%d-%04d", time.Now().Year(), number)

	// Failure anywhere before the commit below leaves no trace, mirroring
	// the transactional rollback: the sequence number is not consumed.
	if unit.GeneratePayment != nil {
		if err := unit.GeneratePayment(ctx, orderNumber); err != nil {
			return err
		}
	}

	orderID := r.nextID + 1
	if unit.Coupon != nil {
		if r.coupons != nil {
			if err := r.coupons.Redeem(ctx, nil, unit.Coupon, unit.Order.UserID, orderID); err != nil {
				return err
			}
		}
		r.redeemed = append(r.redeemed, redemption{
			couponID: unit.Coupon.ID,
			userID:   unit.Order.UserID,
			orderID:  orderID,
		})
	}

	r.lastNumber = number
	r.nextID = orderID
	unit.Order.ID = orderID
	unit.Order.OrderNumber = orderNumber
	for i := range unit.Items {
		unit.Items[i].OrderID = orderID
	}
	stored := *unit.Order
	stored.Items = unit.Items
	r.orders[orderID] = &stored

	if unit.LoyaltyPoints > 0 {
		r.credited[unit.Order.UserID] += unit.LoyaltyPoints
		if r.loyalty != nil {
			r.loyalty.credit(unit.Order.UserID, unit.LoyaltyPoints)
		}
	}
	return nil
}

func (r *fakeOrderRepo) attachUser(order *models.Order) {
	if r.users == nil {
		return
	}
	order.User, _ = r.users.GetByID(context.Background(), order.UserID)
}

func (r *fakeOrderRepo) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	copied := *order
	r.attachUser(&copied)
	return &copied, nil
}

func (r *fakeOrderRepo) GetByUserID(ctx context.Context, userID uint) ([]models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var orders []models.Order
	for _, order := range r.orders {
		if order.UserID == userID {
			copied := *order
			r.attachUser(&copied)
			orders = append(orders, copied)
		}
	}
	return orders, nil
}

func (r *fakeOrderRepo) GetAll(ctx context.Context) ([]models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var orders []models.Order
	for _, order := range r.orders {
		copied := *order
		r.attachUser(&copied)
		orders = append(orders, copied)
	}
	return orders, nil
}

func (r *fakeOrderRepo) GetByPaymentStatus(ctx context.Context, statuses ...models.PaymentStatus) ([]models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var orders []models.Order
	for _, order := range r.orders {
		for _, status := range statuses {
			if order.PaymentStatus == status {
				copied := *order
				r.attachUser(&copied)
				orders = append(orders, copied)
				break
			}
		}
	}
	return orders, nil
}

func (r *fakeOrderRepo) GetConfirmedPayments(ctx context.Context, filter repository.PaymentHistoryFilter) ([]models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var orders []models.Order
	for _, order := range r.orders {
		if order.PaymentStatus != models.PaymentConfirmed {
			continue
		}
		if filter.PaymentMethod != "" && order.PaymentMethod != filter.PaymentMethod {
			continue
		}
		copied := *order
		r.attachUser(&copied)
		orders = append(orders, copied)
	}
	return orders, nil
}

func (r *fakeOrderRepo) UpdateStatus(ctx context.Context, id uint, from, to models.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok || order.Status != from {
		return errors.New("order is no longer in the expected status")
	}
	order.Status = to
	return nil
}

func (r *fakeOrderRepo) ConfirmPayment(ctx context.Context, order *models.Order, adminID uint, notes string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[order.ID]
	if !ok || stored.PaymentStatus == models.PaymentConfirmed {
		return errors.New("payment has already been confirmed")
	}
	now := time.Now()
	stored.PaymentStatus = models.PaymentConfirmed
	stored.ConfirmedBy = &adminID
	stored.ConfirmedAt = &now
	stored.PaidAt = &now
	stored.PaymentNotes = notes
	stored.PaymentManuallyConfirmed = true
	if stored.Status == models.OrderPending {
		stored.Status = models.OrderConfirmed
	}
	return nil
}

func (r *fakeOrderRepo) RejectPayment(ctx context.Context, order *models.Order, adminID uint, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[order.ID]
	if !ok {
		return errors.New("order not found")
	}
	now := time.Now()
	stored.Status = models.OrderCancelled
	stored.PaymentStatus = models.PaymentPending
	stored.PaymentNotes = "Pagamento rejeitado: " + reason
	stored.ConfirmedBy = &adminID
	stored.ConfirmedAt = &now
	return nil
}

type fakeCouponRepo struct {
	mu          sync.Mutex
	coupons     map[string]*models.Coupon
	redemptions []models.UserCouponRedemption
	usageCounts map[uint]int
}

func newFakeCouponRepo(coupons ...*models.Coupon) *fakeCouponRepo {
	repo := &fakeCouponRepo{
		coupons:     make(map[string]*models.Coupon),
		usageCounts: make(map[uint]int),
	}
	for _, coupon := range coupons {
		repo.coupons[coupon.Code] = coupon
	}
	return repo
}

func (r *fakeCouponRepo) Create(ctx context.Context, coupon *models.Coupon) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	coupon.ID = uint(len(r.coupons) + 1)
	r.coupons[coupon.Code] = coupon
	return nil
}

func (r *fakeCouponRepo) GetByID(ctx context.Context, id uint) (*models.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, coupon := range r.coupons {
		if coupon.ID == id {
			copied := *coupon
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeCouponRepo) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	coupon, ok := r.coupons[code]
	if !ok {
		return nil, nil
	}
	copied := *coupon
	return &copied, nil
}

func (r *fakeCouponRepo) GetAll(ctx context.Context, activeOnly bool) ([]models.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var coupons []models.Coupon
	for _, coupon := range r.coupons {
		if activeOnly && !coupon.IsActive {
			continue
		}
		coupons = append(coupons, *coupon)
	}
	return coupons, nil
}

func (r *fakeCouponRepo) GetVisible(ctx context.Context) ([]models.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var coupons []models.Coupon
	now := time.Now()
	for _, coupon := range r.coupons {
		if !coupon.IsActive {
			continue
		}
		if coupon.ValidUntil != nil && coupon.ValidUntil.Before(now) {
			continue
		}
		coupons = append(coupons, *coupon)
	}
	return coupons, nil
}

func (r *fakeCouponRepo) Update(ctx context.Context, coupon *models.Coupon) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.coupons[coupon.Code] = coupon
	return nil
}

func (r *fakeCouponRepo) Deactivate(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, coupon := range r.coupons {
		if coupon.ID == id {
			coupon.IsActive = false
			return nil
		}
	}
	return errors.New("coupon not found")
}

func (r *fakeCouponRepo) CountUserRedemptions(ctx context.Context, couponID, userID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, redemption := range r.redemptions {
		if redemption.CouponID == couponID && redemption.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (r *fakeCouponRepo) GetRedemptions(ctx context.Context, couponID uint) ([]models.UserCouponRedemption, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var redemptions []models.UserCouponRedemption
	for _, redemption := range r.redemptions {
		if redemption.CouponID == couponID {
			redemptions = append(redemptions, redemption)
		}
	}
	return redemptions, nil
}

// Redeem enforces the same guards as the conditional UPDATE: the usage limit
// and the per-user count are checked atomically under the lock, so racing
// redemptions cannot exceed either.
func (r *fakeCouponRepo) Redeem(ctx context.Context, tx *gorm.DB, coupon *models.Coupon, userID, orderID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var stored *models.Coupon
	for _, c := range r.coupons {
		if c.ID == coupon.ID {
			stored = c
			break
		}
	}
	if stored == nil || !stored.IsActive ||
		(stored.UsageLimit != nil && stored.UsageCount >= *stored.UsageLimit) {
		return apperrors.BusinessRule("coupon has reached its usage limit")
	}

	var used int64
	for _, redemption := range r.redemptions {
		if redemption.CouponID == coupon.ID && redemption.UserID == userID {
			used++
		}
	}
	if used >= int64(stored.UsagePerUser) {
		return apperrors.BusinessRule("coupon already used the maximum number of times by this user")
	}

	stored.UsageCount++
	r.usageCounts[coupon.ID]++
	r.redemptions = append(r.redemptions, models.UserCouponRedemption{
		UserID: userID, CouponID: coupon.ID, OrderID: orderID,
	})
	return nil
}

type fakeLoyaltyRepo struct {
	mu       sync.Mutex
	accounts map[uint]*models.LoyaltyAccount
}

func newFakeLoyaltyRepo() *fakeLoyaltyRepo {
	return &fakeLoyaltyRepo{accounts: make(map[uint]*models.LoyaltyAccount)}
}

func (r *fakeLoyaltyRepo) credit(userID uint, points int) {
	account, ok := r.accounts[userID]
	if !ok {
		account = &models.LoyaltyAccount{UserID: userID}
		r.accounts[userID] = account
	}
	account.Balance += points
	account.TotalEarned += points
}

func (r *fakeLoyaltyRepo) GetByUserID(ctx context.Context, userID uint) (*models.LoyaltyAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[userID]
	if !ok {
		return nil, nil
	}
	copied := *account
	return &copied, nil
}

func (r *fakeLoyaltyRepo) GetOrCreate(ctx context.Context, userID uint) (*models.LoyaltyAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[userID]
	if !ok {
		account = &models.LoyaltyAccount{UserID: userID}
		r.accounts[userID] = account
	}
	copied := *account
	return &copied, nil
}

func (r *fakeLoyaltyRepo) GetAll(ctx context.Context) ([]models.LoyaltyAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var accounts []models.LoyaltyAccount
	for _, account := range r.accounts {
		accounts = append(accounts, *account)
	}
	return accounts, nil
}

func (r *fakeLoyaltyRepo) Credit(ctx context.Context, tx *gorm.DB, userID uint, points int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.credit(userID, points)
	return nil
}

func (r *fakeLoyaltyRepo) Debit(ctx context.Context, userID uint, points int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[userID]
	if !ok || account.Balance < points {
		return errInsufficientPoints
	}
	account.Balance -= points
	account.TotalUsed += points
	return nil
}

type fakePlateRepo struct {
	plates map[uint]*models.Plate
}

func newFakePlateRepo(plates ...*models.Plate) *fakePlateRepo {
	repo := &fakePlateRepo{plates: make(map[uint]*models.Plate)}
	for _, plate := range plates {
		repo.plates[plate.ID] = plate
	}
	return repo
}

func (r *fakePlateRepo) Create(ctx context.Context, plate *models.Plate) error {
	r.plates[plate.ID] = plate
	return nil
}

func (r *fakePlateRepo) GetByID(ctx context.Context, id uint) (*models.Plate, error) {
	plate, ok := r.plates[id]
	if !ok {
		return nil, nil
	}
	return plate, nil
}

func (r *fakePlateRepo) GetByIDs(ctx context.Context, ids []uint) ([]models.Plate, error) {
	var plates []models.Plate
	for _, id := range ids {
		if plate, ok := r.plates[id]; ok {
			plates = append(plates, *plate)
		}
	}
	return plates, nil
}

func (r *fakePlateRepo) GetAll(ctx context.Context) ([]models.Plate, error) {
	var plates []models.Plate
	for _, plate := range r.plates {
		plates = append(plates, *plate)
	}
	return plates, nil
}

type fakeAddressRepo struct {
	addresses map[uint]*models.Address
}

func newFakeAddressRepo(addresses ...*models.Address) *fakeAddressRepo {
	repo := &fakeAddressRepo{addresses: make(map[uint]*models.Address)}
	for _, address := range addresses {
		repo.addresses[address.ID] = address
	}
	return repo
}

func (r *fakeAddressRepo) Create(ctx context.Context, address *models.Address) error {
	r.addresses[address.ID] = address
	return nil
}

func (r *fakeAddressRepo) GetByID(ctx context.Context, id uint) (*models.Address, error) {
	address, ok := r.addresses[id]
	if !ok {
		return nil, nil
	}
	return address, nil
}

func (r *fakeAddressRepo) GetByUserID(ctx context.Context, userID uint) ([]models.Address, error) {
	var addresses []models.Address
	for _, address := range r.addresses {
		if address.UserID == userID {
			addresses = append(addresses, *address)
		}
	}
	return addresses, nil
}

func (r *fakeAddressRepo) GetDefault(ctx context.Context, userID uint) (*models.Address, error) {
	for _, address := range r.addresses {
		if address.UserID == userID && address.IsDefault {
			return address, nil
		}
	}
	return nil, nil
}

func (r *fakeAddressRepo) Delete(ctx context.Context, id uint) error {
	delete(r.addresses, id)
	return nil
}

type fakeUserRepo struct {
	users map[uint]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[uint]*models.User)}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = uint(len(r.users) + 1)
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	r.users[user.ID] = user
	return nil
}

type fakePixProvider struct {
	err     error
	expired bool
	charge  pix.Charge
}

func (p *fakePixProvider) GenerateCharge(ctx context.Context, amount float64, reference, description string) (*pix.Charge, error) {
	if p.err != nil {
		return nil, p.err
	}
	charge := p.charge
	if charge.CopyPaste == "" {
		charge.CopyPaste = "00020126580014br.gov.bcb.pix" + reference
	}
	if charge.ExpiresAt.IsZero() {
		charge.ExpiresAt = time.Now().Add(30 * time.Minute)
	}
	return &charge, nil
}

func (p *fakePixProvider) IsExpired(expiresAt time.Time) bool {
	return p.expired
}

type recordingNotifier struct {
	mu                sync.Mutex
	newOrders         []string
	statusUpdates     []string
	paymentsConfirmed []string
}

func (n *recordingNotifier) NotifyNewOrder(order *models.Order, customerName string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.newOrders = append(n.newOrders, order.OrderNumber)
}

func (n *recordingNotifier) NotifyOrderStatus(order *models.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.statusUpdates = append(n.statusUpdates, string(order.Status))
}

func (n *recordingNotifier) NotifyPaymentConfirmed(order *models.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paymentsConfirmed = append(n.paymentsConfirmed, order.OrderNumber)
}

func (n *recordingNotifier) newOrderCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.newOrders)
}

func (n *recordingNotifier) statusUpdateCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.statusUpdates)
}

func (n *recordingNotifier) paymentConfirmedCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.paymentsConfirmed)
}
