package results

import (
	"context"
	"errors"
	"math"
	"math/cmplx"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/mohammed-shakir/seaenv/internal/cache/keys"
	"github.com/mohammed-shakir/seaenv/internal/cache/redisstore"
	"github.com/mohammed-shakir/seaenv/internal/core/geo"
	"github.com/mohammed-shakir/seaenv/internal/core/model"
)

var (
	tx = geo.New(43.1, 9.4, 20)
	rx = geo.New(43.2, 9.6, 80)
	at = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
)

func redisStore(t *testing.T) Store {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	c, err := redisstore.New(context.Background(), mr.Addr())
	if err != nil {
		t.Fatalf("redisstore.New: %v", err)
	}
	return c
}

func stores(t *testing.T) map[string]func() Store {
	return map[string]func() Store{
		"lru":   func() Store { return NewLRU(16) },
		"redis": func() Store { return redisStore(t) },
	}
}

func TestArrivals_RoundTripPerBackend(t *testing.T) {
	for name, mk := range stores(t) {
		t.Run(name, func(t *testing.T) {
			a := NewArrivals(mk())
			t.Cleanup(func() { _ = a.Close() })
			ctx := context.Background()

			if _, ok, err := a.Arrival(ctx, tx, rx, 3500, at); err != nil || ok {
				t.Fatalf("empty cache ok=%v err=%v", ok, err)
			}
			in := model.NewTimeArr(model.Tap{Delay: 0.1, Gain: 0.5}, model.Tap{Delay: 0.25, Gain: complex(0, -0.2)})
			if err := a.InsertArrival(ctx, tx, rx, 3500, at, in); err != nil {
				t.Fatalf("InsertArrival: %v", err)
			}
			got, ok, err := a.Arrival(ctx, tx, rx, 3500, at)
			if err != nil || !ok {
				t.Fatalf("Arrival ok=%v err=%v", ok, err)
			}
			if got.Len() != 2 || got.Taps()[1].Gain != complex(0, -0.2) {
				t.Fatalf("taps=%v", got.Taps())
			}
			if _, ok, _ := a.Arrival(ctx, tx, rx, 3600, at); ok {
				t.Fatalf("other frequency must miss")
			}
			if err := a.InsertArrival(ctx, tx, rx, 1, at, model.NewTimeArr()); err == nil {
				t.Fatalf("empty impulse response must be rejected")
			}
		})
	}
}

func TestPressures_RoundTripPerBackend(t *testing.T) {
	for name, mk := range stores(t) {
		t.Run(name, func(t *testing.T) {
			p := NewPressures(mk())
			t.Cleanup(func() { _ = p.Close() })
			ctx := context.Background()

			v := model.NewPressure(complex(0.003, -0.004))
			if err := p.InsertPressure(ctx, tx, rx, 1200, time.Time{}, v); err != nil {
				t.Fatalf("InsertPressure: %v", err)
			}
			got, ok, err := p.Pressure(ctx, tx, rx, 1200, time.Time{})
			if err != nil || !ok || cmplx.Abs(got.Value-v.Value) > 1e-15 {
				t.Fatalf("Pressure=%v,%v,%v", got, ok, err)
			}
			if err := p.InsertPressure(ctx, tx, rx, 1200, at, model.NewPressure(complex(math.NaN(), 0))); err == nil {
				t.Fatalf("NaN pressure must be rejected")
			}
		})
	}
}

// collidingStore returns the same bytes for every key.
type collidingStore struct{ b []byte }

func (c *collidingStore) Name() string { return "colliding" }
func (c *collidingStore) Get(context.Context, string) ([]byte, bool, error) {
	return c.b, c.b != nil, nil
}
func (c *collidingStore) Set(_ context.Context, _ string, v []byte) error { c.b = v; return nil }
func (c *collidingStore) Close() error                                  { return nil }

func TestCache_CollisionReadsAsMiss(t *testing.T) {
	s := &collidingStore{}
	p := NewPressures(s)
	ctx := context.Background()
	if err := p.InsertPressure(ctx, tx, rx, 100, at, model.NewPressure(1)); err != nil {
		t.Fatalf("InsertPressure: %v", err)
	}
	if _, ok, err := p.Pressure(ctx, tx, rx, 200, at); err != nil || ok {
		t.Fatalf("mismatched record must miss: ok=%v err=%v", ok, err)
	}
	s.b = []byte("{not json")
	if _, _, err := p.Pressure(ctx, tx, rx, 100, at); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestLRU_EvictsAndCopies(t *testing.T) {
	l := NewLRU(2)
	ctx := context.Background()
	_ = l.Set(ctx, "a", []byte("1"))
	_ = l.Set(ctx, "b", []byte("2"))
	_ = l.Set(ctx, "c", []byte("3"))
	if _, ok, _ := l.Get(ctx, "a"); ok {
		t.Fatalf("oldest entry must be evicted")
	}
	v, _, _ := l.Get(ctx, "c")
	v[0] = 'x'
	again, _, _ := l.Get(ctx, "c")
	if string(again) != "3" {
		t.Fatalf("Get must return a copy, got %q", again)
	}
	_ = l.Close()
	if _, _, err := l.Get(ctx, "c"); !errors.Is(err, errLRUClosed) {
		t.Fatalf("closed Get err=%v", err)
	}
}

func TestCache_KeyMatchesKeysPackage(t *testing.T) {
	s := NewLRU(4)
	c := New[model.Pressure](model.KindPressure, s)
	ctx := context.Background()
	if err := c.Put(ctx, tx, rx, 50, at, model.NewPressure(2)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	key := keys.Key("pressure", keys.Record{Tx: tx, Rx: rx, Freq: 50, Time: at})
	if _, ok, _ := s.Get(ctx, key); !ok {
		t.Fatalf("record not stored under %s", key)
	}
}

// slowStore blocks until ctx is done.
type slowStore struct{ collidingStore }

func (s *slowStore) Get(ctx context.Context, _ string) ([]byte, bool, error) {
	<-ctx.Done()
	return nil, false, ctx.Err()
}

func TestCache_TimeoutBoundsStoreCalls(t *testing.T) {
	p := NewPressures(&slowStore{}, WithTimeout(10*time.Millisecond))
	_, _, err := p.Pressure(context.Background(), tx, rx, 1, at)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err=%v want deadline exceeded", err)
	}
}
