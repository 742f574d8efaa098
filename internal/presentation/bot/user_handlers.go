package botpresentation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Zhima-Mochi/minishop-storebot/internal/application/notify"
	apporder "github.com/Zhima-Mochi/minishop-storebot/internal/application/order"
	domcatalog "github.com/Zhima-Mochi/minishop-storebot/internal/domain/catalog"
	domorder "github.com/Zhima-Mochi/minishop-storebot/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-storebot/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-storebot/internal/domain/session"
	"github.com/Zhima-Mochi/minishop-storebot/internal/observability"
	"github.com/Zhima-Mochi/minishop-storebot/internal/observability/logctx"
)

const unknownName = "Unknown"

func (b *Bot) start(ctx context.Context, u Update) error {
	categories, err := b.catalog.Categories(ctx)
	if err != nil {
		return err
	}
	rows := make([][]notify.Button, 0, len(categories)+2)
	for _, c := range categories {
		rows = append(rows, []notify.Button{{Text: "📦 " + c, Data: cbCategory + c}})
	}
	rows = append(rows,
		[]notify.Button{{Text: "🛺 My Cart", Data: cbCart}, {Text: "📦 My Order", Data: cbOrder}},
		[]notify.Button{{Text: "☎️ Contact", Data: cbContact}, {Text: "📘 Help", Data: cbHelp}},
	)
	b.reply(ctx, u, b.msg.Welcome(), rows...)
	return nil
}

func (b *Bot) myID(ctx context.Context, u Update) error {
	b.reply(ctx, u, fmt.Sprintf("🆔 Your Telegram ID is: %d", u.From.ID))
	return nil
}

func (b *Bot) myOrders(ctx context.Context, u Update) error {
	b.answer(ctx, u, "")
	orders, err := b.orders.ForUser(ctx, u.From.ID)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		b.reply(ctx, u, msgNoOrders)
		return nil
	}
	b.reply(ctx, u, b.msg.MyOrders(orders))
	return nil
}

func (b *Bot) contact(ctx context.Context, u Update) error {
	b.answer(ctx, u, "")
	b.reply(ctx, u, b.msg.ContactInfo())
	return nil
}

func (b *Bot) help(ctx context.Context, u Update) error {
	b.answer(ctx, u, "")
	b.reply(ctx, u, b.msg.Help())
	return nil
}

// browseCategory sends one photo card per product. Photos that fail to
// send fall back to text inside the deliver use case.
func (b *Bot) browseCategory(ctx context.Context, u Update) error {
	b.answer(ctx, u, "")
	category := strings.TrimPrefix(u.Data, cbCategory)
	products, err := b.catalog.ProductsByCategory(ctx, category)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		b.reply(ctx, u, b.msg.NoProductsIn(category))
		return nil
	}
	for _, p := range products {
		b.send(ctx, notify.Message{
			ChatID:  u.ChatID,
			Text:    b.msg.ProductCaption(p),
			Photo:   p.Image,
			Buttons: [][]notify.Button{{{Text: "💼 Add to Cart", Data: cbAdd + strconv.Itoa(p.ID)}}},
		})
	}
	return nil
}

func (b *Bot) addToCart(ctx context.Context, u Update) error {
	id, err := strconv.Atoi(strings.TrimPrefix(u.Data, cbAdd))
	if err != nil {
		b.answer(ctx, u, msgProductNotFound)
		return nil
	}
	_, err = b.carts.Add(ctx, u.From.ID, id)
	switch {
	case errors.Is(err, domcatalog.ErrNotFound):
		b.answer(ctx, u, msgProductNotFound)
	case errors.Is(err, domcatalog.ErrOutOfStock):
		b.answer(ctx, u, msgProductOutOfStock)
	case err != nil:
		return err
	default:
		b.answer(ctx, u, msgAddedToCart)
	}
	return nil
}

func (b *Bot) showCart(ctx context.Context, u Update) error {
	b.answer(ctx, u, "")
	view, err := b.carts.View(ctx, u.From.ID)
	if err != nil {
		return err
	}
	if view.Empty() {
		b.reply(ctx, u, msgCartEmpty)
		return nil
	}
	lines := make([]string, 0, len(view.Lines))
	for _, l := range view.Lines {
		lines = append(lines, fmt.Sprintf("- %s (%d ETB)", l.Name, l.Price))
	}
	b.reply(ctx, u, b.msg.Cart(lines, view.Total),
		[]notify.Button{{Text: "🛒 Buy Now", Data: cbCheckout}},
		[]notify.Button{{Text: "🗑️ Clear Cart", Data: cbClearCart}},
	)
	return nil
}

func (b *Bot) clearCart(ctx context.Context, u Update) error {
	b.answer(ctx, u, "")
	if err := b.carts.Clear(ctx, u.From.ID); err != nil {
		return err
	}
	b.reply(ctx, u, msgCartCleared)
	return nil
}

func (b *Bot) checkout(ctx context.Context, u Update) error {
	b.answer(ctx, u, "")
	view, err := b.carts.View(ctx, u.From.ID)
	if err != nil {
		return err
	}
	if view.Empty() {
		b.reply(ctx, u, msgCartEmpty)
		return nil
	}
	if err := b.sessions.Save(ctx, session.AwaitingPaymentMethod(u.From.ID)); err != nil {
		return err
	}
	rows := make([][]notify.Button, 0, len(payment.Methods()))
	for _, m := range payment.Methods() {
		rows = append(rows, []notify.Button{{Text: paymentLabel(m), Data: cbPay + string(m)}})
	}
	b.reply(ctx, u, msgPaymentPrompt, rows...)
	return nil
}

func (b *Bot) choosePayment(ctx context.Context, u Update) error {
	method, err := payment.ParseMethod(strings.TrimPrefix(u.Data, cbPay))
	if err != nil {
		b.answer(ctx, u, msgUnknownMethod)
		return nil
	}
	// Claim the payment step so a repeated press cannot check out twice.
	claimed, err := b.sessions.Swap(ctx, session.StageAwaitingPaymentMethod, session.Idle(u.From.ID))
	if err != nil {
		return err
	}
	if !claimed {
		b.answer(ctx, u, msgCheckoutExpired)
		return nil
	}
	b.answer(ctx, u, "")

	o, err := b.orders.Checkout(ctx, customerOf(u), method)
	if errors.Is(err, apporder.ErrEmptyCart) {
		b.reply(ctx, u, msgCartEmpty)
		return nil
	}
	if err != nil {
		if restoreErr := b.sessions.Save(ctx, session.AwaitingPaymentMethod(u.From.ID)); restoreErr != nil {
			return errors.Join(err, restoreErr)
		}
		return err
	}
	if err := b.sessions.Save(ctx, session.AwaitingProof(u.From.ID, o.ID)); err != nil {
		return err
	}
	b.reply(ctx, u, b.msg.OrderCreated(o, b.payments.Instructions(method)))
	return nil
}

// onMessage handles non-command text and photos. Only the proof step of
// checkout consumes them.
func (b *Bot) onMessage(ctx context.Context, u Update) error {
	s, err := b.sessions.Get(ctx, u.From.ID)
	if err != nil {
		return err
	}
	if s.Stage != session.StageAwaitingProof {
		return nil
	}
	if u.Kind != KindPhoto || u.Photo == "" {
		b.reply(ctx, u, msgSendPhoto)
		return nil
	}

	o, err := b.orders.AttachProof(ctx, s.OrderID, u.Photo)
	if errors.Is(err, apporder.ErrNotFound) || errors.Is(err, apporder.ErrIllegalTransition) {
		logctx.FromOr(ctx, b.log).Warn("proof_for_stale_order",
			observability.F("order_id", s.OrderID),
			observability.Err(err),
		)
		b.reply(ctx, u, msgOrderLost)
		return b.sessions.Reset(ctx, u.From.ID)
	}
	if err != nil {
		return err
	}
	if err := b.sessions.Reset(ctx, u.From.ID); err != nil {
		return err
	}
	b.reply(ctx, u, b.msg.ProofReceived(o.ID))
	return nil
}

func customerOf(u Update) domorder.Customer {
	c := domorder.Customer{
		UserID:      u.From.ID,
		Username:    u.From.Username,
		DisplayName: u.From.FirstName,
	}
	if c.Username == "" {
		c.Username = unknownName
	}
	if c.DisplayName == "" {
		c.DisplayName = unknownName
	}
	return c
}
