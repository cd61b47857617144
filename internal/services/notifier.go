package services

import (
	"fmt"
	"log"
	"strings"

	"github.com/example/kirana/internal/models"
)

// Notifier renders and dispatches order emails through the Mailer. Every send
// is best-effort: failures are logged and never reach the order path.
type Notifier struct {
	mailer     *Mailer
	adminEmail string
}

// NewNotifier creates a Notifier. An empty adminEmail disables admin alerts.
func NewNotifier(mailer *Mailer, adminEmail string) *Notifier {
	return &Notifier{mailer: mailer, adminEmail: adminEmail}
}

// DispatchOrderPlaced sends the customer confirmation and the admin alert for
// a freshly accepted order. Intended to run in its own goroutine.
func (n *Notifier) DispatchOrderPlaced(order models.Order, items []models.OrderItem) {
	if err := n.SendOrderConfirmation(order, items); err != nil {
		log.Printf("[Notifier] order confirmation for %s failed: %v", order.OrderID, err)
	}
	if err := n.SendAdminAlert(order, items); err != nil {
		log.Printf("[Notifier] admin alert for %s failed: %v", order.OrderID, err)
	}
}

// SendOrderConfirmation emails the shopper a summary of their order.
func (n *Notifier) SendOrderConfirmation(order models.Order, items []models.OrderItem) error {
	if order.CustomerEmail == "" {
		return nil
	}

	subject := fmt.Sprintf("Order %s confirmed", order.OrderID)
	html := n.renderOrderHTML("Thank you for your order!", order, items)
	text := n.renderOrderText(order, items)

	_, err := n.mailer.Send(Message{
		Recipients: []string{order.CustomerEmail},
		Subject:    subject,
		HTMLBody:   html,
		TextBody:   text,
	})
	return err
}

// SendAdminAlert emails the store admin about a new order.
func (n *Notifier) SendAdminAlert(order models.Order, items []models.OrderItem) error {
	if n.adminEmail == "" {
		return nil
	}

	subject := fmt.Sprintf("New order %s (%s)", order.OrderID, FormatPrice(order.TotalAmount))
	html := n.renderOrderHTML("New order received", order, items)
	text := n.renderOrderText(order, items)

	_, err := n.mailer.Send(Message{
		Recipients: []string{n.adminEmail},
		Subject:    subject,
		HTMLBody:   html,
		TextBody:   text,
	})
	return err
}

func (n *Notifier) renderOrderHTML(heading string, order models.Order, items []models.OrderItem) string {
	var itemsList strings.Builder
	for i, item := range items {
		itemsList.WriteString(fmt.Sprintf("%d. <b>%s</b><br>   %d x %s = %s<br>",
			i+1,
			item.ProductName,
			item.Quantity,
			FormatPrice(item.UnitPrice),
			FormatPrice(item.LineTotal),
		))
	}

	return fmt.Sprintf(`<h2>%s</h2>
<p><b>Order:</b> %s</p>
<p><b>Customer:</b> %s (%s)</p>
<p><b>Deliver to:</b> %s, %s, %s %s</p>
<p><b>Items:</b></p>
<p>%s</p>
<p><b>Subtotal:</b> %s<br>
<b>Shipping:</b> %s<br>
<b>Total:</b> %s</p>
<p><b>Payment:</b> %s</p>`,
		heading,
		order.OrderID,
		order.CustomerName,
		order.CustomerPhone,
		order.ShippingAddress,
		order.ShippingCity,
		order.ShippingState,
		order.ShippingPincode,
		itemsList.String(),
		FormatPrice(order.Subtotal),
		FormatPrice(order.ShippingFee),
		FormatPrice(order.TotalAmount),
		paymentMethodLabel(order.PaymentMethod),
	)
}

func (n *Notifier) renderOrderText(order models.Order, items []models.OrderItem) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Order %s\n", order.OrderID))
	for _, item := range items {
		b.WriteString(fmt.Sprintf("- %s x%d = %s\n", item.ProductName, item.Quantity, FormatPrice(item.LineTotal)))
	}
	b.WriteString(fmt.Sprintf("Total: %s (%s)\n", FormatPrice(order.TotalAmount), paymentMethodLabel(order.PaymentMethod)))
	return b.String()
}

func paymentMethodLabel(method string) string {
	if method == models.PaymentCOD {
		return "Cash on delivery"
	}
	return "Online payment"
}

// FormatPrice formats an amount in rupees with thousand separators.
func FormatPrice(amount float64) string {
	intAmount := int64(amount)
	str := fmt.Sprintf("%d", intAmount)

	var result strings.Builder
	length := len(str)
	for i, digit := range str {
		if i > 0 && (length-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(digit)
	}

	if frac := amount - float64(intAmount); frac > 0.004 {
		return fmt.Sprintf("₹%s.%02d", result.String(), int(frac*100+0.5))
	}
	return "₹" + result.String()
}
