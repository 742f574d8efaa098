package notify

import (
	"context"

	domcatalog "github.com/Zhima-Mochi/minishop-storebot/internal/domain/catalog"
	domorder "github.com/Zhima-Mochi/minishop-storebot/internal/domain/order"
)

type Button struct {
	Text string
	Data string
}

// Message is a transport-neutral outbound chat message. When Photo is set
// the Text is sent as its caption.
type Message struct {
	ChatID  int64
	Text    string
	Photo   string
	Buttons [][]Button
}

// Sender is the outbound port to the chat transport.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Composer renders notifications. It lives with the chat presentation so
// that every user-visible string sits in one place.
type Composer interface {
	ProofSubmitted(o domorder.Order, adminID int64) []Message
	OrderApproved(o domorder.Order) Message
	OrderDeclined(o domorder.Order) Message
	StatusChanged(o domorder.Order, from domorder.Status) Message
	StockDepleted(e domcatalog.StockDepletedEvent, adminID int64) Message
}

// AdminDirectory lists who receives admin notifications.
type AdminDirectory interface {
	Admins() []int64
}
