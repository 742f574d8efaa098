package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Zhima-Mochi/minishop-storebot/internal/application/notify"
	botpresentation "github.com/Zhima-Mochi/minishop-storebot/internal/presentation/bot"
)

// API is the subset of *tgbotapi.BotAPI the client calls.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Client sends bot replies and notifications through the Bot API.
type Client struct {
	api API
}

var (
	_ notify.Sender           = (*Client)(nil)
	_ botpresentation.Replier = (*Client)(nil)
)

func NewClient(api API) *Client {
	return &Client{api: api}
}

// Dial authenticates token against the Bot API.
func Dial(token string, debug bool) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: connect: %w", err)
	}
	api.Debug = debug
	return api, nil
}

func (c *Client) Send(ctx context.Context, msg notify.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var chattable tgbotapi.Chattable
	if msg.Photo != "" {
		photo := tgbotapi.NewPhoto(msg.ChatID, photoFile(msg.Photo))
		photo.Caption = msg.Text
		if kb := keyboard(msg.Buttons); kb != nil {
			photo.ReplyMarkup = *kb
		}
		chattable = photo
	} else {
		text := tgbotapi.NewMessage(msg.ChatID, msg.Text)
		if kb := keyboard(msg.Buttons); kb != nil {
			text.ReplyMarkup = *kb
		}
		chattable = text
	}
	if _, err := c.api.Send(chattable); err != nil {
		return fmt.Errorf("telegram: send to %d: %w", msg.ChatID, err)
	}
	return nil
}

func (c *Client) Edit(ctx context.Context, chatID int64, messageID int, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.api.Send(tgbotapi.NewEditMessageText(chatID, messageID, text)); err != nil {
		return fmt.Errorf("telegram: edit %d/%d: %w", chatID, messageID, err)
	}
	return nil
}

func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("telegram: answer callback: %w", err)
	}
	return nil
}

// photoFile treats http(s) references as URLs and anything else as a file id
// previously returned by Telegram.
func photoFile(ref string) tgbotapi.RequestFileData {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return tgbotapi.FileURL(ref)
	}
	return tgbotapi.FileID(ref)
}

func keyboard(rows [][]notify.Button) *tgbotapi.InlineKeyboardMarkup {
	if len(rows) == 0 {
		return nil
	}
	out := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		out = append(out, buttons)
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(out...)
	return &kb
}
