package botpresentation

import (
	"context"

	"github.com/Zhima-Mochi/minishop-storebot/internal/application/notify"
)

type Kind string

const (
	KindCommand  Kind = "command"
	KindCallback Kind = "callback"
	KindPhoto    Kind = "photo"
	KindText     Kind = "text"
)

type User struct {
	ID        int64
	Username  string
	FirstName string
}

// Update is a transport-neutral inbound chat event.
type Update struct {
	ID     int
	Kind   Kind
	ChatID int64
	From   User

	// Command is set for KindCommand, without the leading slash or bot suffix.
	Command string
	Args    string

	Text string
	// Photo is a transport reference to the largest photo size.
	Photo string

	// Callback fields.
	CallbackID string
	Data       string
	MessageID  int
}

// Replier is the transport surface the handlers reply through.
type Replier interface {
	notify.Sender
	Edit(ctx context.Context, chatID int64, messageID int, text string) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}
