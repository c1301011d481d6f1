// Package results caches computed acoustic results, channel impulse
// responses and complex pressures, keyed by the transmitter and receiver
// positions, frequency and time.
package results

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mohammed-shakir/seaenv/internal/cache/keys"
	"github.com/mohammed-shakir/seaenv/internal/core/geo"
	"github.com/mohammed-shakir/seaenv/internal/core/model"
)

// Store is a byte-level record store. *redisstore.Client and *LRU satisfy it.
type Store interface {
	Name() string
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte) error
	Close() error
}

// record is the persisted layout. Key holds the canonical record so a hash
// collision reads as a miss.
type record[V any] struct {
	Key   string `json:"key"`
	Value V      `json:"value"`
}

type Option func(*options)

type options struct {
	logger  *slog.Logger
	timeout time.Duration
}

// WithTimeout bounds every store operation. Zero leaves ctx untouched.
func WithTimeout(d time.Duration) Option { return func(o *options) { o.timeout = d } }

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Cache stores values of one result kind in a Store.
type Cache[V any] struct {
	kind    model.Kind
	store   Store
	logger  *slog.Logger
	timeout time.Duration
}

func New[V any](kind model.Kind, s Store, opts ...Option) *Cache[V] {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, f := range opts {
		f(&o)
	}
	return &Cache[V]{kind: kind, store: s, logger: o.logger, timeout: o.timeout}
}

func (c *Cache[V]) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *Cache[V]) Get(ctx context.Context, tx, rx geo.Point, freq float64, t time.Time) (V, bool, error) {
	var zero V
	rec := keys.Record{Tx: tx, Rx: rx, Freq: freq, Time: t}
	key := keys.Key(string(c.kind), rec)

	opCtx, cancel := c.bound(ctx)
	defer cancel()
	b, ok, err := c.store.Get(opCtx, key)
	if err != nil {
		return zero, false, fmt.Errorf("%s cache get: %w", c.kind, err)
	}
	if !ok {
		return zero, false, nil
	}
	var r record[V]
	if err := json.Unmarshal(b, &r); err != nil {
		return zero, false, fmt.Errorf("%s cache decode %s: %w", c.kind, key, err)
	}
	if r.Key != rec.Canonical() {
		c.logger.WarnContext(ctx, "result key collision", "kind", c.kind.String(), "key", key)
		return zero, false, nil
	}
	return r.Value, true, nil
}

func (c *Cache[V]) Put(ctx context.Context, tx, rx geo.Point, freq float64, t time.Time, v V) error {
	rec := keys.Record{Tx: tx, Rx: rx, Freq: freq, Time: t}
	key := keys.Key(string(c.kind), rec)
	b, err := json.Marshal(record[V]{Key: rec.Canonical(), Value: v})
	if err != nil {
		return fmt.Errorf("%s cache encode: %w", c.kind, err)
	}
	opCtx, cancel := c.bound(ctx)
	defer cancel()
	if err := c.store.Set(opCtx, key, b); err != nil {
		return fmt.Errorf("%s cache put: %w", c.kind, err)
	}
	return nil
}

func (c *Cache[V]) Backend() string { return c.store.Name() }

func (c *Cache[V]) Close() error { return c.store.Close() }

// Arrivals caches channel impulse responses.
type Arrivals struct{ c *Cache[*model.TimeArr] }

func NewArrivals(s Store, opts ...Option) *Arrivals {
	return &Arrivals{c: New[*model.TimeArr](model.KindArrival, s, opts...)}
}

func (a *Arrivals) Arrival(ctx context.Context, tx, rx geo.Point, freq float64, t time.Time) (*model.TimeArr, bool, error) {
	v, ok, err := a.c.Get(ctx, tx, rx, freq, t)
	if err != nil || !ok || !v.Valid() {
		return nil, false, err
	}
	return v, true, nil
}

func (a *Arrivals) InsertArrival(ctx context.Context, tx, rx geo.Point, freq float64, t time.Time, v *model.TimeArr) error {
	if !v.Valid() {
		return fmt.Errorf("arrival at %s -> %s: empty impulse response", tx, rx)
	}
	return a.c.Put(ctx, tx, rx, freq, t, v)
}

func (a *Arrivals) Close() error { return a.c.Close() }

// Pressures caches complex pressures.
type Pressures struct{ c *Cache[model.Pressure] }

func NewPressures(s Store, opts ...Option) *Pressures {
	return &Pressures{c: New[model.Pressure](model.KindPressure, s, opts...)}
}

func (p *Pressures) Pressure(ctx context.Context, tx, rx geo.Point, freq float64, t time.Time) (model.Pressure, bool, error) {
	v, ok, err := p.c.Get(ctx, tx, rx, freq, t)
	if err != nil || !ok || !v.Valid() {
		return model.Pressure{}, false, err
	}
	return v, true, nil
}

func (p *Pressures) InsertPressure(ctx context.Context, tx, rx geo.Point, freq float64, t time.Time, v model.Pressure) error {
	if !v.Valid() {
		return fmt.Errorf("pressure at %s -> %s: value %v is not finite", tx, rx, v.Value)
	}
	return p.c.Put(ctx, tx, rx, freq, t, v)
}

func (p *Pressures) Close() error { return p.c.Close() }
