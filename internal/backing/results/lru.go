package results

import (
	"context"
	"errors"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mohammed-shakir/seaenv/internal/core/observability"
)

const (
	LRUBackend     = "lru"
	DefaultLRUSize = 4096
)

var errLRUClosed = errors.New("lru store closed")

// LRU is an in-process Store bounded to a fixed number of records.
type LRU struct {
	c *lru.Cache[string, []byte]
}

func NewLRU(size int) *LRU {
	if size <= 0 {
		size = DefaultLRUSize
	}
	c, _ := lru.New[string, []byte](size)
	return &LRU{c: c}
}

func (l *LRU) Name() string { return LRUBackend }

func (l *LRU) Get(_ context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	if l.c == nil {
		observability.ObserveResultOp(LRUBackend, "get", errLRUClosed, time.Since(start).Seconds())
		return nil, false, errLRUClosed
	}
	v, ok := l.c.Get(key)
	observability.ObserveResultOp(LRUBackend, "get", nil, time.Since(start).Seconds())
	if !ok {
		observability.IncResultMiss(LRUBackend)
		return nil, false, nil
	}
	observability.IncResultHit(LRUBackend)
	return append([]byte(nil), v...), true, nil
}

func (l *LRU) Set(_ context.Context, key string, val []byte) error {
	start := time.Now()
	if l.c == nil {
		observability.ObserveResultOp(LRUBackend, "set", errLRUClosed, time.Since(start).Seconds())
		return errLRUClosed
	}
	l.c.Add(key, append([]byte(nil), val...))
	observability.ObserveResultOp(LRUBackend, "set", nil, time.Since(start).Seconds())
	return nil
}

func (l *LRU) Len() int {
	if l.c == nil {
		return 0
	}
	return l.c.Len()
}

func (l *LRU) Close() error {
	if l.c != nil {
		l.c.Purge()
		l.c = nil
	}
	return nil
}
