package botpresentation

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/Zhima-Mochi/minishop-storebot/internal/observability"
	"github.com/Zhima-Mochi/minishop-storebot/internal/observability/logctx"
)

// AdminOnly rejects non-admin senders with a fixed reply and returns
// access.ErrUnauthorized so the update is counted as unauthorized.
func (b *Bot) AdminOnly(route string, next HandlerFunc) HandlerFunc {
	return func(ctx context.Context, u Update) error {
		if err := b.policy.Authorize(u.From.ID); err != nil {
			logctx.FromOr(ctx, b.log).Warn("unauthorized_admin_access",
				observability.F("user_id", u.From.ID),
				observability.F("username", u.From.Username),
				observability.F("route", route),
			)
			b.notice(ctx, u, msgUnauthorized)
			return err
		}
		return next(ctx, u)
	}
}

type panicError struct {
	value any
}

func (p panicError) Error() string { return fmt.Sprintf("panic: %v", p.value) }

// recovered runs h and converts a panic into an error.
func recovered(ctx context.Context, log observability.Logger, h HandlerFunc, u Update) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logctx.FromOr(ctx, log).Error("bot_handler_panic",
				observability.F("panic", fmt.Sprint(r)),
				observability.F("stack", string(debug.Stack())),
			)
			err = panicError{value: r}
		}
	}()
	return h(ctx, u)
}
