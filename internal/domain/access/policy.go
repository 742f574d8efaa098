package access

import (
	"errors"
	"slices"
)

var ErrUnauthorized = errors.New("access: not authorized")

// Policy is the admin allowlist.
type Policy struct {
	admins map[int64]struct{}
}

func NewPolicy(adminIDs ...int64) *Policy {
	p := &Policy{admins: make(map[int64]struct{}, len(adminIDs))}
	for _, id := range adminIDs {
		p.admins[id] = struct{}{}
	}
	return p
}

func (p *Policy) IsAdmin(userID int64) bool {
	if p == nil {
		return false
	}
	_, ok := p.admins[userID]
	return ok
}

// Authorize returns ErrUnauthorized for anyone outside the allowlist.
func (p *Policy) Authorize(userID int64) error {
	if !p.IsAdmin(userID) {
		return ErrUnauthorized
	}
	return nil
}

// Admins returns the allowlist in ascending order.
func (p *Policy) Admins() []int64 {
	if p == nil {
		return nil
	}
	out := make([]int64, 0, len(p.admins))
	for id := range p.admins {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
