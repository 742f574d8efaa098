package botpresentation

import (
	"fmt"
	"strings"

	"github.com/Zhima-Mochi/minishop-storebot/internal/application/notify"
	domcatalog "github.com/Zhima-Mochi/minishop-storebot/internal/domain/catalog"
	domorder "github.com/Zhima-Mochi/minishop-storebot/internal/domain/order"
)

// Composer renders lifecycle notifications with the bot's templates.
type Composer struct {
	m Messages
}

var _ notify.Composer = Composer{}

func NewComposer(m Messages) Composer {
	return Composer{m: m}
}

// ProofSubmitted asks an admin to review: a summary with decision buttons,
// then the proof photo itself.
func (c Composer) ProofSubmitted(o domorder.Order, adminID int64) []notify.Message {
	var b strings.Builder
	b.WriteString("🔔 NEW ORDER - PENDING APPROVAL\n\n")
	fmt.Fprintf(&b, "📋 Order ID: %s\n", o.ID)
	fmt.Fprintf(&b, "👤 Customer: %s (@%s)\n", o.Customer.DisplayName, o.Customer.Username)
	fmt.Fprintf(&b, "💰 Total: %d ETB\n", o.Total)
	fmt.Fprintf(&b, "💳 Payment: %s\n\n", strings.ToUpper(string(o.PaymentMethod)))
	b.WriteString("📦 Items:\n")
	for _, it := range o.Items {
		fmt.Fprintf(&b, "• %s - %d ETB\n", it.Name, it.Price)
	}
	fmt.Fprintf(&b, "\n📱 Customer ID: %d", o.Customer.UserID)

	msgs := []notify.Message{{
		ChatID: adminID,
		Text:   b.String(),
		Buttons: [][]notify.Button{{
			{Text: "✅ Approve", Data: cbApprove + o.ID},
			{Text: "❌ Decline", Data: cbDecline + o.ID},
		}},
	}}
	if o.ProofRef != "" {
		msgs = append(msgs, notify.Message{
			ChatID: adminID,
			Photo:  o.ProofRef,
			Text:   "Payment Proof for Order " + o.ID,
		})
	}
	return msgs
}

func (c Composer) OrderApproved(o domorder.Order) notify.Message {
	text := fmt.Sprintf("✅ ORDER APPROVED!\n\n📋 Order ID: %s\n💰 Total: %d ETB\n📦 Your order is now being prepared for shipment.\n🚚 You will receive shipping updates soon.\n\nThank you for shopping with %s!",
		o.ID, o.Total, c.m.Shop)
	return notify.Message{ChatID: o.Customer.UserID, Text: text}
}

func (c Composer) OrderDeclined(o domorder.Order) notify.Message {
	text := fmt.Sprintf("❌ ORDER DECLINED\n\n📋 Order ID: %s\n💰 Total: %d ETB\n🔄 Your payment was not verified.\n📞 Please contact us at %s for assistance.\n\nYou can try placing a new order with correct payment proof.",
		o.ID, o.Total, c.m.Contact)
	return notify.Message{ChatID: o.Customer.UserID, Text: text}
}

func (c Composer) StatusChanged(o domorder.Order, _ domorder.Status) notify.Message {
	var detail string
	switch o.Status {
	case domorder.StatusPreparing:
		detail = fmt.Sprintf("📦 Order %s is being prepared for shipment.", o.ID)
	case domorder.StatusShipped:
		detail = fmt.Sprintf("🚚 Order %s has been shipped! Your items are on the way.", o.ID)
	case domorder.StatusDelivered:
		detail = fmt.Sprintf("🏠 Order %s has been delivered! Thank you for shopping with %s!", o.ID, c.m.Shop)
	default:
		detail = "Your order status has been updated."
	}
	text := fmt.Sprintf("📊 ORDER STATUS UPDATE\n\n📋 Order ID: %s\n📊 Status: %s\n\n%s", o.ID, titleCase(string(o.Status)), detail)
	return notify.Message{ChatID: o.Customer.UserID, Text: text}
}

func (c Composer) StockDepleted(e domcatalog.StockDepletedEvent, adminID int64) notify.Message {
	text := fmt.Sprintf("⚠️ OUT OF STOCK\n\n🆔 Product %d: %s\n📋 Last unit went with order %s.\nUse /update_stock %d <stock> to restock.",
		e.ProductID, e.Name, e.OrderID, e.ProductID)
	return notify.Message{ChatID: adminID, Text: text}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
