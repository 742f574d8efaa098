package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Zhima-Mochi/minishop-storebot/internal/observability"
	botpresentation "github.com/Zhima-Mochi/minishop-storebot/internal/presentation/bot"
)

const DefaultPollTimeout = 60

// Poller long-polls getUpdates and forwards converted updates.
type Poller struct {
	api     *tgbotapi.BotAPI
	timeout int
	log     observability.Logger
}

func NewPoller(api *tgbotapi.BotAPI, timeoutSeconds int, log observability.Logger) *Poller {
	if timeoutSeconds <= 0 {
		timeoutSeconds = DefaultPollTimeout
	}
	if log == nil {
		log = observability.NopLogger()
	}
	return &Poller{api: api, timeout: timeoutSeconds, log: log}
}

// Run pushes updates to out until ctx is done. out is closed on return.
func (p *Poller) Run(ctx context.Context, out chan<- botpresentation.Update) {
	defer close(out)

	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = p.timeout
	updates := p.api.GetUpdatesChan(cfg)
	defer p.api.StopReceivingUpdates()

	p.log.Info("telegram_polling_start",
		observability.F("bot", p.api.Self.UserName),
		observability.F("timeout_seconds", p.timeout),
	)
	for {
		select {
		case <-ctx.Done():
			p.log.Info("telegram_polling_stopped")
			return
		case raw, ok := <-updates:
			if !ok {
				return
			}
			u, ok := Convert(raw)
			if !ok {
				p.log.Debug("telegram_update_skipped", observability.F("update_id", raw.UpdateID))
				continue
			}
			select {
			case out <- u:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Convert maps a Bot API update to the bot's update model. Updates that are
// neither messages nor callback queries are skipped.
func Convert(raw tgbotapi.Update) (botpresentation.Update, bool) {
	switch {
	case raw.CallbackQuery != nil:
		cq := raw.CallbackQuery
		u := botpresentation.Update{
			ID:         raw.UpdateID,
			Kind:       botpresentation.KindCallback,
			From:       user(cq.From),
			CallbackID: cq.ID,
			Data:       cq.Data,
		}
		u.ChatID = u.From.ID
		if cq.Message != nil {
			u.MessageID = cq.Message.MessageID
			if cq.Message.Chat != nil {
				u.ChatID = cq.Message.Chat.ID
			}
		}
		return u, true

	case raw.Message != nil:
		m := raw.Message
		u := botpresentation.Update{
			ID:        raw.UpdateID,
			From:      user(m.From),
			MessageID: m.MessageID,
			Text:      m.Text,
		}
		if m.Chat != nil {
			u.ChatID = m.Chat.ID
		} else {
			u.ChatID = u.From.ID
		}
		switch {
		case m.IsCommand():
			u.Kind = botpresentation.KindCommand
			u.Command = m.Command()
			u.Args = m.CommandArguments()
		case len(m.Photo) > 0:
			u.Kind = botpresentation.KindPhoto
			// sizes are ordered smallest first
			u.Photo = m.Photo[len(m.Photo)-1].FileID
			u.Text = m.Caption
		default:
			u.Kind = botpresentation.KindText
		}
		return u, true
	}
	return botpresentation.Update{}, false
}

func user(u *tgbotapi.User) botpresentation.User {
	if u == nil {
		return botpresentation.User{}
	}
	return botpresentation.User{ID: u.ID, Username: u.UserName, FirstName: u.FirstName}
}
