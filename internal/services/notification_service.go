package services

import (
	"fmt"
	"strings"

	"restaurant_orders/internal/models"
	"restaurant_orders/pkg/whatsapp"

	"go.uber.org/zap"
)

// Notifier is the outbound message capability. It is best-effort by contract:
// implementations log failures and never return them, so a failed send can
// never make a committed order look failed.
type Notifier interface {
	NotifyNewOrder(order *models.Order, customerName string)
	NotifyOrderStatus(order *models.Order)
	NotifyPaymentConfirmed(order *models.Order)
}

// NoopNotifier is wired at startup when WhatsApp is disabled or
// unconfigured, instead of checking an enabled flag at every call site.
type NoopNotifier struct{}

func (NoopNotifier) NotifyNewOrder(*models.Order, string) {}
func (NoopNotifier) NotifyOrderStatus(*models.Order)      {}
func (NoopNotifier) NotifyPaymentConfirmed(*models.Order) {}

type whatsappNotifier struct {
	client             *whatsapp.Client
	restaurantWhatsApp string
	restaurantName     string
	logger             *zap.SugaredLogger
}

func NewWhatsAppNotifier(client *whatsapp.Client, restaurantWhatsApp, restaurantName string, logger *zap.SugaredLogger) Notifier {
	return &whatsappNotifier{
		client:             client,
		restaurantWhatsApp: restaurantWhatsApp,
		restaurantName:     restaurantName,
		logger:             logger,
	}
}

func (n *whatsappNotifier) NotifyNewOrder(order *models.Order, customerName string) {
	if n.restaurantWhatsApp == "" {
		n.logger.Warnw("restaurant whatsapp number not configured, skipping new order notification",
			"order_number", order.OrderNumber)
		return
	}
	if err := n.client.SendTextMessage(n.restaurantWhatsApp, n.formatNewOrder(order, customerName)); err != nil {
		n.logger.Warnw("failed to send new order notification",
			"order_number", order.OrderNumber, "error", err)
	}
}

func (n *whatsappNotifier) NotifyOrderStatus(order *models.Order) {
	if order.DeliveryPhone == "" {
		return
	}
	if err := n.client.SendTextMessage(order.DeliveryPhone, n.formatOrderStatus(order)); err != nil {
		n.logger.Warnw("failed to send order status notification",
			"order_number", order.OrderNumber, "status", order.Status, "error", err)
	}
}

func (n *whatsappNotifier) NotifyPaymentConfirmed(order *models.Order) {
	if order.DeliveryPhone == "" {
		return
	}
	message := fmt.Sprintf("✅ *%s*\n\nPagamento do pedido *%s* confirmado!\nValor: R$ %.2f\n\nSeu pedido já está sendo preparado.",
		n.restaurantName, order.OrderNumber, order.Total)
	if err := n.client.SendTextMessage(order.DeliveryPhone, message); err != nil {
		n.logger.Warnw("failed to send payment confirmation notification",
			"order_number", order.OrderNumber, "error", err)
	}
}

var paymentMethodText = map[models.PaymentMethod]string{
	models.PaymentMethodCash: "💵 Dinheiro",
	models.PaymentMethodPix:  "💳 PIX",
	models.PaymentMethodCard: "💳 Cartão",
}

var deliveryTypeText = map[models.DeliveryType]string{
	models.DeliveryTypeDelivery: "🛵 Delivery",
	models.DeliveryTypePickup:   "🏪 Retirada",
}

var statusText = map[models.OrderStatus]string{
	models.OrderConfirmed:      "Pedido confirmado! 👨‍🍳",
	models.OrderPreparing:      "Seu pedido está sendo preparado! 🍣",
	models.OrderReady:          "Pedido pronto! 🎉",
	models.OrderOutForDelivery: "Pedido saiu para entrega! 🛵",
	models.OrderDelivered:      "Pedido entregue! Bom apetite! 😋",
	models.OrderCancelled:      "Pedido cancelado. 😔",
}

func (n *whatsappNotifier) formatNewOrder(order *models.Order, customerName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔔 *NOVO PEDIDO - %s*\n\n", n.restaurantName)
	fmt.Fprintf(&b, "📋 *Pedido:* %s\n", order.OrderNumber)
	fmt.Fprintf(&b, "👤 *Cliente:* %s\n", customerName)
	fmt.Fprintf(&b, "%s\n%s\n\n", deliveryTypeText[order.DeliveryType], paymentMethodText[order.PaymentMethod])

	b.WriteString("*Itens do Pedido:*\n")
	for _, item := range order.Items {
		fmt.Fprintf(&b, "• %dx %s - R$ %.2f\n", item.Quantity, item.PlateName, item.Subtotal)
	}

	fmt.Fprintf(&b, "\n💰 *Total:* R$ %.2f\n", order.Total)

	if order.DeliveryType == models.DeliveryTypeDelivery && order.DeliveryAddress != "" {
		fmt.Fprintf(&b, "\n📍 *Endereço:*\n%s\n", order.DeliveryAddress)
		if order.DeliveryNotes != "" {
			fmt.Fprintf(&b, "📝 *Observações:* %s\n", order.DeliveryNotes)
		}
	}

	fmt.Fprintf(&b, "\n⏱ *Tempo estimado:* %d min", order.EstimatedTime)
	return b.String()
}

func (n *whatsappNotifier) formatOrderStatus(order *models.Order) string {
	text, ok := statusText[order.Status]
	if !ok {
		text = fmt.Sprintf("Status atualizado: %s", order.Status)
	}
	return fmt.Sprintf("*%s*\n\nPedido *%s*\n%s", n.restaurantName, order.OrderNumber, text)
}
