package botpresentation

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/Zhima-Mochi/minishop-storebot/internal/application"
	appcart "github.com/Zhima-Mochi/minishop-storebot/internal/application/cart"
	appcatalog "github.com/Zhima-Mochi/minishop-storebot/internal/application/catalog"
	"github.com/Zhima-Mochi/minishop-storebot/internal/application/notify"
	apporder "github.com/Zhima-Mochi/minishop-storebot/internal/application/order"
	"github.com/Zhima-Mochi/minishop-storebot/internal/domain/access"
	"github.com/Zhima-Mochi/minishop-storebot/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-storebot/internal/domain/session"
	"github.com/Zhima-Mochi/minishop-storebot/internal/observability"
	"github.com/Zhima-Mochi/minishop-storebot/internal/observability/logctx"
	workerpresentation "github.com/Zhima-Mochi/minishop-storebot/internal/presentation/worker"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Callback data prefixes and fixed values.
const (
	cbCategory  = "cat_"
	cbAdd       = "add_"
	cbPay       = "pay_"
	cbApprove   = "approve_"
	cbDecline   = "decline_"
	cbCart      = "cart"
	cbClearCart = "clear_cart"
	cbCheckout  = "checkout"
	cbContact   = "contact"
	cbHelp      = "help"
	cbOrder     = "order"
)

type Deps struct {
	Catalog  *appcatalog.Service
	Carts    *appcart.Service
	Orders   *apporder.Ledger
	Sessions session.Repository
	Policy   *access.Policy
	Payments payment.Directory
	Replier  Replier
	// Deliver sends replies with retry and photo fallback.
	Deliver  application.UseCase[notify.Message, *notify.DeliveryResult]
	Messages Messages
}

// Bot turns inbound chat updates into catalog, cart and order operations.
type Bot struct {
	catalog  *appcatalog.Service
	carts    *appcart.Service
	orders   *apporder.Ledger
	sessions session.Repository
	policy   *access.Policy
	payments payment.Directory
	replier  Replier
	deliver  application.UseCase[notify.Message, *notify.DeliveryResult]
	msg      Messages

	router  *Router
	tel     observability.Observability
	log     observability.Logger
	updates observability.Counter

	wg sync.WaitGroup
}

func New(d Deps, tel observability.Observability) *Bot {
	if tel == nil {
		tel = observability.Nop()
	}
	if d.Messages == (Messages{}) {
		d.Messages = DefaultMessages()
	}
	b := &Bot{
		catalog:  d.Catalog,
		carts:    d.Carts,
		orders:   d.Orders,
		sessions: d.Sessions,
		policy:   d.Policy,
		payments: d.Payments,
		replier:  d.Replier,
		deliver:  d.Deliver,
		msg:      d.Messages,
		tel:      tel,
		log:      tel.Logger().With(observability.F("component", "bot")),
		updates:  tel.Metrics().Counter(observability.MBotUpdates),
	}
	if b.policy == nil {
		b.policy = access.NewPolicy()
	}
	if b.deliver == nil {
		b.deliver = notify.NewDeliverUseCase(d.Replier, 1, 0, tel)
	}
	b.router = b.routes()
	return b
}

func (b *Bot) routes() *Router {
	r := NewRouter()

	r.Command("start", b.start)
	r.Command("myorder", b.myOrders)
	r.Command("myid", b.myID)

	r.Command("add_category", b.addCategory, b.AdminOnly)
	r.Command("add_product", b.addProduct, b.AdminOnly)
	r.Command("list_categories", b.listCategories, b.AdminOnly)
	r.Command("list_products", b.listProducts, b.AdminOnly)
	r.Command("remove_product", b.removeProduct, b.AdminOnly)
	r.Command("update_stock", b.updateStock, b.AdminOnly)
	r.Command("update_price", b.updatePrice, b.AdminOnly)
	r.Command("pending_orders", b.pendingOrders, b.AdminOnly)
	r.Command("update_order_status", b.updateOrderStatus, b.AdminOnly)
	r.Command("admin_help", b.adminHelp, b.AdminOnly)

	r.Callback(cbCart, b.showCart)
	r.Callback(cbClearCart, b.clearCart)
	r.Callback(cbCheckout, b.checkout)
	r.Callback(cbContact, b.contact)
	r.Callback(cbHelp, b.help)
	r.Callback(cbOrder, b.myOrders)
	r.CallbackPrefix(cbCategory, b.browseCategory)
	r.CallbackPrefix(cbAdd, b.addToCart)
	r.CallbackPrefix(cbPay, b.choosePayment)
	r.CallbackPrefix(cbApprove, b.approve, b.AdminOnly)
	r.CallbackPrefix(cbDecline, b.decline, b.AdminOnly)

	r.Messages(b.onMessage)
	return r
}

// Serve handles every update from in on its own goroutine until ctx is
// done or in is closed, then waits for in-flight handlers.
func (b *Bot) Serve(ctx context.Context, in <-chan Update) {
	defer b.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-in:
			if !ok {
				return
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.Handle(ctx, u)
			}()
		}
	}
}

// Handle processes one update. Failures are logged and answered with a
// generic reply; they never escape.
func (b *Bot) Handle(ctx context.Context, u Update) {
	start := time.Now()
	route, h := b.router.Resolve(u)

	ctx, span := b.tel.Tracer().Start(ctx, "Bot."+route,
		attribute.String("bot.update.kind", string(u.Kind)),
		attribute.Int64("user.id", u.From.ID),
	)
	defer span.End()

	ctx = workerpresentation.WithEventContext(ctx, b.log, span.SpanContext(), workerpresentation.Unit{
		ID:    updateID(u),
		Name:  "bot_update",
		Attrs: map[string]string{"kind": string(u.Kind), "route": route},
	}, observability.F("user_id", u.From.ID))
	logger := logctx.FromOr(ctx, b.log)

	outcome := "success"
	if h == nil {
		outcome = "ignored"
	} else if err := recovered(ctx, b.log, h, u); err != nil {
		var p panicError
		switch {
		case errors.Is(err, access.ErrUnauthorized):
			outcome = "unauthorized"
		case errors.As(err, &p):
			outcome = "panic"
		default:
			outcome = "error"
		}
		if outcome != "unauthorized" {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
			logger.Error("bot_update_failed", observability.Err(err))
			b.notice(ctx, u, msgGenericFailure)
		}
	}

	b.updates.Add(1,
		observability.L("kind", string(u.Kind)),
		observability.L("outcome", outcome),
	)
	logger.Info("bot_update_done",
		observability.F("outcome", outcome),
		observability.F("latency_seconds", time.Since(start).Seconds()),
	)
}

func updateID(u Update) string {
	if u.ID == 0 {
		return ""
	}
	return "upd-" + strconv.Itoa(u.ID)
}

// send delivers a message to the update's chat. Delivery failures are
// logged by the deliver use case and not surfaced to the handler.
func (b *Bot) send(ctx context.Context, msg notify.Message) {
	if _, err := b.deliver.Execute(ctx, msg); err != nil {
		logctx.FromOr(ctx, b.log).Warn("reply_failed",
			observability.F("chat_id", msg.ChatID),
			observability.Err(err),
		)
	}
}

func (b *Bot) reply(ctx context.Context, u Update, text string, buttons ...[]notify.Button) {
	b.send(ctx, notify.Message{ChatID: u.ChatID, Text: text, Buttons: buttons})
}

// answer acknowledges a callback query; text is shown as a toast.
func (b *Bot) answer(ctx context.Context, u Update, text string) {
	if u.CallbackID == "" {
		return
	}
	if err := b.replier.AnswerCallback(ctx, u.CallbackID, text); err != nil {
		logctx.FromOr(ctx, b.log).Warn("callback_answer_failed", observability.Err(err))
	}
}

// notice answers a callback as a toast and everything else as a message.
func (b *Bot) notice(ctx context.Context, u Update, text string) {
	if u.Kind == KindCallback {
		b.answer(ctx, u, text)
		return
	}
	b.reply(ctx, u, text)
}

func (b *Bot) edit(ctx context.Context, u Update, text string) {
	if u.MessageID == 0 {
		b.reply(ctx, u, text)
		return
	}
	if err := b.replier.Edit(ctx, u.ChatID, u.MessageID, text); err != nil {
		logctx.FromOr(ctx, b.log).Warn("message_edit_failed", observability.Err(err))
		b.reply(ctx, u, text)
	}
}
