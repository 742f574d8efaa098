package id

import (
	"strconv"
	"sync/atomic"
)

const (
	DefaultPrefix = "ORD"
	DefaultStart  = 1000
)

// SequenceGenerator hands out prefix+counter ids. The counter lives for the
// process lifetime only.
type SequenceGenerator struct {
	prefix string
	next   atomic.Int64
}

func NewSequenceGenerator(prefix string, start int64) *SequenceGenerator {
	g := &SequenceGenerator{prefix: prefix}
	g.next.Store(start)
	return g
}

// NewOrderIDGenerator returns the ORD1000, ORD1001, ... sequence.
func NewOrderIDGenerator() *SequenceGenerator {
	return NewSequenceGenerator(DefaultPrefix, DefaultStart)
}

func (g *SequenceGenerator) NewID() string {
	n := g.next.Add(1) - 1
	return g.prefix + strconv.FormatInt(n, 10)
}
