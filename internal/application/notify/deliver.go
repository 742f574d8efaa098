package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-storebot/internal/application"
	"github.com/Zhima-Mochi/minishop-storebot/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	notifyService      = "notify-service"
	useCaseDeliver     = "notify.deliver"
	deliveryPeer       = "chat"
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 500 * time.Millisecond
)

// ErrDelivery is returned once every attempt to reach the chat transport failed.
var ErrDelivery = errors.New("notify: external delivery failed")

type DeliveryResult struct {
	Attempts int
	// Fallback is set when a photo could not be sent and its caption went out as text.
	Fallback bool
}

// DeliverUseCase sends one message with bounded retry.
type DeliverUseCase struct {
	sender      Sender
	maxAttempts int
	retryDelay  time.Duration
	inst        application.Instruments
}

var _ application.UseCase[Message, *DeliveryResult] = (*DeliverUseCase)(nil)

func NewDeliverUseCase(sender Sender, maxAttempts int, retryDelay time.Duration, tel observability.Observability) *DeliverUseCase {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if retryDelay < 0 {
		retryDelay = 0
	}
	return &DeliverUseCase{
		sender:      sender,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
		inst:        application.NewInstruments(tel, notifyService),
	}
}

func (uc *DeliverUseCase) Execute(ctx context.Context, msg Message) (_ *DeliveryResult, err error) {
	ctx, run := uc.inst.Start(ctx, useCaseDeliver, "Deliver",
		attribute.Int64("chat.id", msg.ChatID),
		attribute.Bool("message.photo", msg.Photo != ""),
	)
	defer func() { run.End(err) }()

	res := &DeliveryResult{}
	lastErr := uc.attempt(ctx, msg, res)
	if lastErr != nil && msg.Photo != "" && msg.Text != "" {
		text := msg
		text.Photo = ""
		if fbErr := uc.attempt(ctx, text, res); fbErr == nil {
			res.Fallback = true
			run.Status("PHOTO_FALLBACK")
			run.Logger().Warn("photo_send_failed_fallback_to_text",
				observability.F("chat_id", msg.ChatID),
				observability.Err(lastErr),
			)
			lastErr = nil
		}
	}
	run.With(observability.F("attempts", res.Attempts))

	if lastErr != nil {
		run.Fail("DELIVERY_FAILED")
		run.Logger().Error("external_delivery_failed",
			observability.F("chat_id", msg.ChatID),
			observability.F("attempts", res.Attempts),
			observability.Err(lastErr),
		)
		return res, fmt.Errorf("%w: %w", ErrDelivery, lastErr)
	}
	return res, nil
}

func (uc *DeliverUseCase) attempt(ctx context.Context, msg Message, res *DeliveryResult) error {
	endpoint := "send_message"
	if msg.Photo != "" {
		endpoint = "send_photo"
	}

	var lastErr error
	for i := 0; i < uc.maxAttempts; i++ {
		if i > 0 && uc.retryDelay > 0 {
			t := time.NewTimer(uc.retryDelay)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}

		res.Attempts++
		start := time.Now()
		lastErr = uc.sender.Send(ctx, msg)
		outcome := "success"
		if lastErr != nil {
			outcome = "error"
		}
		uc.inst.External(deliveryPeer, endpoint, outcome, time.Since(start))
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return lastErr
}
