package botpresentation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	appcatalog "github.com/Zhima-Mochi/minishop-storebot/internal/application/catalog"
	apporder "github.com/Zhima-Mochi/minishop-storebot/internal/application/order"
	domcatalog "github.com/Zhima-Mochi/minishop-storebot/internal/domain/catalog"
	domorder "github.com/Zhima-Mochi/minishop-storebot/internal/domain/order"
)

// fulfillment statuses an admin may set by command
var adminStatuses = map[domorder.Status]bool{
	domorder.StatusPreparing: true,
	domorder.StatusShipped:   true,
	domorder.StatusDelivered: true,
}

func (b *Bot) addCategory(ctx context.Context, u Update) error {
	name := strings.TrimSpace(u.Args)
	if name == "" {
		b.reply(ctx, u, msgUsageAddCategory)
		return nil
	}
	err := b.catalog.AddCategory(ctx, name)
	switch {
	case errors.Is(err, domcatalog.ErrDuplicateCategory):
		b.reply(ctx, u, msgCategoryExists)
	case err != nil:
		return err
	default:
		b.reply(ctx, u, fmt.Sprintf("✅ Category '%s' added.", name))
	}
	return nil
}

// addProduct parses "Name | Price | Desc | Image | Category".
func (b *Bot) addProduct(ctx context.Context, u Update) error {
	parts := strings.Split(u.Args, "|")
	if strings.TrimSpace(u.Args) == "" || len(parts) != 5 {
		b.reply(ctx, u, msgProductFormat)
		return nil
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
		if parts[i] == "" {
			b.reply(ctx, u, msgFieldsRequired)
			return nil
		}
	}
	price, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		b.reply(ctx, u, msgPriceNotNumber)
		return nil
	}
	if price <= 0 {
		b.reply(ctx, u, msgPriceNotPositive)
		return nil
	}

	p, err := b.catalog.AddProduct(ctx, appcatalog.AddProductInput{
		Name:        parts[0],
		Price:       price,
		Description: parts[2],
		Image:       parts[3],
		Category:    parts[4],
	})
	switch {
	case errors.Is(err, domcatalog.ErrUnknownCategory):
		b.reply(ctx, u, fmt.Sprintf("❌ Category '%s' does not exist. Please add it first using /add_category", parts[4]))
		return nil
	case err != nil:
		return err
	}
	b.reply(ctx, u, fmt.Sprintf("✅ Product '%s' added under '%s'.", p.Name, p.Category))
	return nil
}

func (b *Bot) listCategories(ctx context.Context, u Update) error {
	names, err := b.catalog.Categories(ctx)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		b.reply(ctx, u, msgNoCategories)
		return nil
	}
	b.reply(ctx, u, b.msg.Categories(names))
	return nil
}

func (b *Bot) listProducts(ctx context.Context, u Update) error {
	products, err := b.catalog.Products(ctx)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		b.reply(ctx, u, msgNoProducts)
		return nil
	}
	b.reply(ctx, u, b.msg.Products(products))
	return nil
}

func (b *Bot) removeProduct(ctx context.Context, u Update) error {
	args := strings.Fields(u.Args)
	if len(args) != 1 {
		b.reply(ctx, u, msgUsageRemove)
		return nil
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		b.reply(ctx, u, msgIDNotNumber)
		return nil
	}
	p, err := b.catalog.RemoveProduct(ctx, id)
	switch {
	case errors.Is(err, domcatalog.ErrNotFound):
		b.reply(ctx, u, fmt.Sprintf("❌ Product with ID %d not found", id))
	case err != nil:
		return err
	default:
		b.reply(ctx, u, fmt.Sprintf("✅ Product '%s' removed successfully", p.Name))
	}
	return nil
}

func (b *Bot) updateStock(ctx context.Context, u Update) error {
	args := strings.Fields(u.Args)
	if len(args) != 2 {
		b.reply(ctx, u, msgUsageStock)
		return nil
	}
	id, err1 := strconv.Atoi(args[0])
	stock, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil {
		b.reply(ctx, u, msgStockNotNumber)
		return nil
	}
	p, err := b.catalog.UpdateStock(ctx, id, stock)
	switch {
	case errors.Is(err, domcatalog.ErrNotFound):
		b.reply(ctx, u, fmt.Sprintf("❌ Product with ID %d not found", id))
	case err != nil:
		return err
	default:
		b.reply(ctx, u, fmt.Sprintf("✅ Stock updated for '%s': %d units", p.Name, p.Stock))
	}
	return nil
}

func (b *Bot) updatePrice(ctx context.Context, u Update) error {
	args := strings.Fields(u.Args)
	if len(args) != 2 {
		b.reply(ctx, u, msgUsagePrice)
		return nil
	}
	id, err1 := strconv.Atoi(args[0])
	price, err2 := strconv.ParseInt(args[1], 10, 64)
	if err1 != nil || err2 != nil {
		b.reply(ctx, u, msgPriceArgsNotNumber)
		return nil
	}
	if price <= 0 {
		b.reply(ctx, u, msgPriceNotPositive)
		return nil
	}
	p, err := b.catalog.UpdatePrice(ctx, id, price)
	switch {
	case errors.Is(err, domcatalog.ErrNotFound):
		b.reply(ctx, u, fmt.Sprintf("❌ Product with ID %d not found", id))
	case err != nil:
		return err
	default:
		b.reply(ctx, u, fmt.Sprintf("✅ Price updated for '%s': %d ETB", p.Name, p.Price))
	}
	return nil
}

func (b *Bot) pendingOrders(ctx context.Context, u Update) error {
	orders, err := b.orders.Pending(ctx)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		b.reply(ctx, u, msgNoPendingOrders)
		return nil
	}
	b.reply(ctx, u, b.msg.PendingOrders(orders))
	return nil
}

func (b *Bot) updateOrderStatus(ctx context.Context, u Update) error {
	args := strings.Fields(u.Args)
	if len(args) != 2 {
		b.reply(ctx, u, msgUsageOrderStatus)
		return nil
	}
	orderID := args[0]
	status, err := domorder.ParseStatus(strings.ToLower(args[1]))
	if err != nil || !adminStatuses[status] {
		b.reply(ctx, u, msgInvalidOrderStatus)
		return nil
	}

	before, err := b.orders.Get(ctx, orderID)
	if errors.Is(err, apporder.ErrNotFound) {
		b.reply(ctx, u, fmt.Sprintf("❌ Order %s not found", orderID))
		return nil
	}
	if err != nil {
		return err
	}

	o, err := b.orders.SetStatus(ctx, orderID, string(status), u.From.ID)
	switch {
	case errors.Is(err, apporder.ErrNotFound):
		b.reply(ctx, u, fmt.Sprintf("❌ Order %s not found", orderID))
	case errors.Is(err, apporder.ErrIllegalTransition):
		b.reply(ctx, u, fmt.Sprintf("❌ Order %s cannot move from '%s' to '%s'", orderID, before.Status, status))
	case err != nil:
		return err
	default:
		b.reply(ctx, u, fmt.Sprintf("✅ Order %s status updated from '%s' to '%s'\nCustomer has been notified.", o.ID, before.Status, o.Status))
	}
	return nil
}

func (b *Bot) adminHelp(ctx context.Context, u Update) error {
	b.reply(ctx, u, b.msg.AdminHelp())
	return nil
}

func (b *Bot) approve(ctx context.Context, u Update) error {
	orderID := strings.TrimPrefix(u.Data, cbApprove)
	o, err := b.orders.Approve(ctx, orderID, u.From.ID)
	if done := b.decisionFailed(ctx, u, orderID, err); done {
		return nil
	}
	if err != nil {
		return err
	}
	b.answer(ctx, u, fmt.Sprintf("✅ Order %s approved", o.ID))
	b.edit(ctx, u, b.msg.Approved(o.ID))
	return nil
}

func (b *Bot) decline(ctx context.Context, u Update) error {
	orderID := strings.TrimPrefix(u.Data, cbDecline)
	o, err := b.orders.Decline(ctx, orderID, u.From.ID)
	if done := b.decisionFailed(ctx, u, orderID, err); done {
		return nil
	}
	if err != nil {
		return err
	}
	b.answer(ctx, u, fmt.Sprintf("❌ Order %s declined", o.ID))
	b.edit(ctx, u, b.msg.Declined(o.ID))
	return nil
}

// decisionFailed answers the expected approve/decline failures and reports
// whether it did.
func (b *Bot) decisionFailed(ctx context.Context, u Update, orderID string, err error) bool {
	switch {
	case errors.Is(err, apporder.ErrNotFound):
		b.answer(ctx, u, "❌ Order not found")
		return true
	case errors.Is(err, apporder.ErrIllegalTransition):
		current := "processed"
		if o, gerr := b.orders.Get(ctx, orderID); gerr == nil {
			current = string(o.Status)
		}
		b.answer(ctx, u, fmt.Sprintf("⚠️ Order %s is already %s", orderID, current))
		return true
	}
	return false
}
