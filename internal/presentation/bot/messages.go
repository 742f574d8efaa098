package botpresentation

import (
	"fmt"
	"strings"

	domcatalog "github.com/Zhima-Mochi/minishop-storebot/internal/domain/catalog"
	domorder "github.com/Zhima-Mochi/minishop-storebot/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-storebot/internal/domain/payment"
)

// Messages holds the fixed reply templates. Shop and Contact come from config.
type Messages struct {
	Shop    string
	Contact string
}

func DefaultMessages() Messages {
	return Messages{
		Shop:    "Yene Gebeya",
		Contact: "@Ztech7 or 0915794686",
	}
}

const (
	msgUnauthorized       = "⛔ Not authorized."
	msgGenericFailure     = "❌ Something went wrong. Please try again."
	msgCartEmpty          = "🧵 Your cart is empty."
	msgCartCleared        = "🗑️ Cart cleared!"
	msgAddedToCart        = "✅ Added to cart!"
	msgProductNotFound    = "❌ Product not found"
	msgProductOutOfStock  = "❌ Product out of stock"
	msgPaymentPrompt      = "💳 Choose your payment method:"
	msgCheckoutExpired    = "❌ Please start checkout again."
	msgUnknownMethod      = "❌ Unknown payment method"
	msgSendPhoto          = "📸 Please send a photo/screenshot of your payment confirmation."
	msgOrderLost          = "❌ Order not found. Please start checkout again."
	msgNoOrders           = "📦 You have no orders yet."
	msgCategoryExists     = "⚠️ Category already exists."
	msgProductFormat      = "❌ Format:\n/add_product Name | Price | Desc | Image | Category"
	msgFieldsRequired     = "❌ All fields are required and cannot be empty"
	msgPriceNotNumber     = "❌ Price must be a valid number"
	msgPriceNotPositive   = "❌ Price must be a positive number"
	msgNoCategories       = "📦 No categories found."
	msgNoProducts         = "📦 No products found."
	msgNoPendingOrders    = "📦 No pending orders."
	msgUsageAddCategory   = "❌ Usage: /add_category <category_name>"
	msgUsageRemove        = "❌ Usage: /remove_product <product_id>"
	msgUsageStock         = "❌ Usage: /update_stock <product_id> <new_stock>"
	msgUsagePrice         = "❌ Usage: /update_price <product_id> <price>"
	msgUsageOrderStatus   = "❌ Usage: /update_order_status <order_id> <status>\nStatuses: preparing, shipped, delivered"
	msgInvalidOrderStatus = "❌ Invalid status. Valid statuses: preparing, shipped, delivered"
	msgIDNotNumber        = "❌ Product ID must be a number"
	msgStockNotNumber     = "❌ Product ID and stock must be numbers"
	msgPriceArgsNotNumber = "❌ Product ID and price must be numbers"
)

func (m Messages) Welcome() string {
	return fmt.Sprintf("👋 Welcome to %s! Choose a category:", m.Shop)
}

func (m Messages) ContactInfo() string {
	return "☎️ Contact us at: " + m.Contact
}

func (m Messages) Help() string {
	return "ℹ️ How to shop:\n1. Choose a category\n2. View products\n3. Add to cart\n4. Buy now and pay\n5. Track with /myorder"
}

func (m Messages) AdminHelp() string {
	return `🔧 Admin Commands:

📦 Category Management:
• /add_category <name> - Add new category
• /list_categories - List all categories

🛍️ Product Management:
• /add_product Name | Price | Description | Image | Category
• /list_products - List all products
• /remove_product <id> - Remove product by ID
• /update_stock <id> <stock> - Set stock level
• /update_price <id> <price> - Change price

📋 Orders:
• /pending_orders - Orders awaiting approval
• /update_order_status <order_id> <preparing|shipped|delivered>

ℹ️ Other:
• /admin_help - Show this help`
}

func (m Messages) ProductCaption(p *domcatalog.Product) string {
	stock := "\n❌ Out of Stock"
	if p.InStock() {
		stock = fmt.Sprintf("\n📦 Stock: %d available", p.Stock)
	}
	return fmt.Sprintf("%s\n💵 %d ETB%s\n\n%s", p.Name, p.Price, stock, p.Description)
}

func (m Messages) NoProductsIn(category string) string {
	return fmt.Sprintf("📦 No products found in category '%s'", category)
}

func (m Messages) Cart(lines []string, total int64) string {
	var b strings.Builder
	b.WriteString("🛺 Your Cart:\n")
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "\n💵 Total: %d ETB", total)
	return b.String()
}

func (m Messages) OrderCreated(o *domorder.Order, instructions string) string {
	return fmt.Sprintf("✅ Order Created: %s\n💰 Total: %d ETB\n\n📱 Payment Method: %s\n%s\n\n📸 Please send a screenshot or photo of your payment confirmation to complete your order.",
		o.ID, o.Total, strings.ToUpper(string(o.PaymentMethod)), instructions)
}

func (m Messages) ProofReceived(orderID string) string {
	return fmt.Sprintf("✅ Payment proof received for order %s!\n📋 Your order is pending admin approval.\n🔔 You will be notified once approved.", orderID)
}

func (m Messages) MyOrders(orders []*domorder.Order) string {
	var b strings.Builder
	b.WriteString("📋 Your Orders:\n\n")
	for _, o := range orders {
		fmt.Fprintf(&b, "%s %s\n💰 %d ETB\n📊 Status: %s\n\n", statusEmoji(o.Status), o.ID, o.Total, statusText(o.Status))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Messages) PendingOrders(orders []*domorder.Order) string {
	var b strings.Builder
	b.WriteString("📋 Pending Orders:\n\n")
	for _, o := range orders {
		fmt.Fprintf(&b, "🆔 %s\n👤 %s (@%s)\n💰 %d ETB via %s\n📱 User ID: %d\n\n",
			o.ID, o.Customer.DisplayName, o.Customer.Username, o.Total,
			strings.ToUpper(string(o.PaymentMethod)), o.Customer.UserID)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Messages) Categories(names []string) string {
	lines := make([]string, 0, len(names))
	for _, n := range names {
		lines = append(lines, "• "+n)
	}
	return "📦 Categories:\n" + strings.Join(lines, "\n")
}

func (m Messages) Products(ps []*domcatalog.Product) string {
	lines := make([]string, 0, len(ps))
	for _, p := range ps {
		lines = append(lines, fmt.Sprintf("ID: %d | %s | %d ETB | %s | Stock: %d", p.ID, p.Name, p.Price, p.Category, p.Stock))
	}
	return "📦 Products:\n" + strings.Join(lines, "\n")
}

func (m Messages) Approved(orderID string) string {
	return fmt.Sprintf("✅ APPROVED\n\nOrder %s has been approved.\nStock has been reduced.\nCustomer has been notified.", orderID)
}

func (m Messages) Declined(orderID string) string {
	return fmt.Sprintf("❌ DECLINED\n\nOrder %s has been declined.\nCustomer has been notified.", orderID)
}

func paymentLabel(method payment.Method) string {
	switch method {
	case payment.MethodTelebirr:
		return "📱 Telebirr"
	case payment.MethodMPesa:
		return "💰 M-Pesa"
	case payment.MethodCBE:
		return "🏦 CBE"
	case payment.MethodDashen:
		return "🏛️ Dashen"
	case payment.MethodCoop:
		return "🤝 Coop Bank"
	default:
		return strings.ToUpper(string(method))
	}
}

func statusEmoji(s domorder.Status) string {
	switch s {
	case domorder.StatusPendingProof:
		return "💳"
	case domorder.StatusPendingApproval:
		return "⏳"
	case domorder.StatusApproved:
		return "✅"
	case domorder.StatusPreparing:
		return "📦"
	case domorder.StatusShipped:
		return "🚚"
	case domorder.StatusDelivered:
		return "🏠"
	case domorder.StatusDeclined:
		return "❌"
	default:
		return "❓"
	}
}

func statusText(s domorder.Status) string {
	switch s {
	case domorder.StatusPendingProof:
		return "Awaiting Payment Proof"
	case domorder.StatusPendingApproval:
		return "Pending Payment Approval"
	case domorder.StatusApproved:
		return "Payment Approved - Preparing Order"
	case domorder.StatusPreparing:
		return "Preparing for Shipment"
	case domorder.StatusShipped:
		return "Shipped - On the Way"
	case domorder.StatusDelivered:
		return "Delivered"
	case domorder.StatusDeclined:
		return "Payment Declined"
	default:
		return "Unknown Status"
	}
}
