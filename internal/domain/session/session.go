package session

import (
	"context"
	"time"
)

// Stage is where a user currently is in the checkout conversation.
type Stage int

const (
	StageIdle Stage = iota
	StageAwaitingPaymentMethod
	StageAwaitingProof
)

func (s Stage) String() string {
	switch s {
	case StageAwaitingPaymentMethod:
		return "awaiting_payment_method"
	case StageAwaitingProof:
		return "awaiting_proof"
	default:
		return "idle"
	}
}

// Session is the explicit checkout state for one user.
// OrderID is only set while awaiting proof.
type Session struct {
	UserID    int64
	Stage     Stage
	OrderID   string
	UpdatedAt time.Time
}

func Idle(userID int64) Session {
	return Session{UserID: userID, Stage: StageIdle}
}

func AwaitingPaymentMethod(userID int64) Session {
	return Session{UserID: userID, Stage: StageAwaitingPaymentMethod, UpdatedAt: time.Now().UTC()}
}

func AwaitingProof(userID int64, orderID string) Session {
	return Session{UserID: userID, Stage: StageAwaitingProof, OrderID: orderID, UpdatedAt: time.Now().UTC()}
}

type Repository interface {
	// Get returns an idle session for users with no stored state.
	Get(ctx context.Context, userID int64) (Session, error)
	Save(ctx context.Context, s Session) error
	// Swap stores next only if the user's current stage is from, and reports
	// whether it did.
	Swap(ctx context.Context, from Stage, next Session) (bool, error)
	Reset(ctx context.Context, userID int64) error
}
