package memory

import (
	"context"
	"sync"
	"time"

	domain "github.com/Zhima-Mochi/minishop-storebot/internal/domain/session"
)

type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[int64]domain.Session
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		sessions: make(map[int64]domain.Session),
	}
}

func (r *SessionRepository) Get(ctx context.Context, userID int64) (domain.Session, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[userID]
	if !ok {
		return domain.Idle(userID), nil
	}
	return s, nil
}

func (r *SessionRepository) Save(ctx context.Context, s domain.Session) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	if s.Stage == domain.StageIdle {
		delete(r.sessions, s.UserID)
		return nil
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = time.Now().UTC()
	}
	r.sessions[s.UserID] = s
	return nil
}

func (r *SessionRepository) Swap(ctx context.Context, from domain.Stage, next domain.Session) (bool, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.sessions[next.UserID]
	if !ok {
		current = domain.Idle(next.UserID)
	}
	if current.Stage != from {
		return false, nil
	}
	if next.Stage == domain.StageIdle {
		delete(r.sessions, next.UserID)
		return true, nil
	}
	if next.UpdatedAt.IsZero() {
		next.UpdatedAt = time.Now().UTC()
	}
	r.sessions[next.UserID] = next
	return true, nil
}

func (r *SessionRepository) Reset(ctx context.Context, userID int64) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, userID)
	return nil
}
