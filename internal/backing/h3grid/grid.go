// Package h3grid indexes gridded dataset values by H3 cell.
package h3grid

import (
	"errors"
	"fmt"

	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/seaenv/internal/core/geo"
)

const DefaultMaxRing = 2

var ErrEmpty = errors.New("grid has no cells")

type Option func(*config)

type config struct {
	maxRing int
}

// WithMaxRing bounds how many neighbor rings a lookup searches when the
// query cell itself is empty.
func WithMaxRing(k int) Option {
	return func(c *config) {
		if k >= 0 {
			c.maxRing = k
		}
	}
}

// Grid maps H3 cells of one resolution to values.
type Grid[V any] struct {
	res     int
	maxRing int
	cells   map[h3.Cell]V
}

func New[V any](res int, opts ...Option) (*Grid[V], error) {
	if err := validateRes(res); err != nil {
		return nil, err
	}
	c := config{maxRing: DefaultMaxRing}
	for _, o := range opts {
		o(&c)
	}
	return &Grid[V]{res: res, maxRing: c.maxRing, cells: make(map[h3.Cell]V)}, nil
}

func validateRes(res int) error {
	if res < 0 || res > 15 {
		return fmt.Errorf("invalid H3 resolution %d (must be 0..15)", res)
	}
	return nil
}

func (g *Grid[V]) Resolution() int { return g.res }

func (g *Grid[V]) Len() int { return len(g.cells) }

// Cell returns the cell containing p.
func (g *Grid[V]) Cell(p geo.Point) (h3.Cell, error) {
	if !p.Valid() {
		return 0, fmt.Errorf("invalid coordinate %s", p)
	}
	c, err := h3.LatLngToCell(h3.NewLatLng(p.Lat, p.Lon), g.res)
	if err != nil {
		return 0, fmt.Errorf("h3 cell for %s: %w", p, err)
	}
	return c, nil
}

// Update replaces the value of the cell containing p with fn(old, found).
func (g *Grid[V]) Update(p geo.Point, fn func(old V, found bool) V) error {
	c, err := g.Cell(p)
	if err != nil {
		return err
	}
	old, ok := g.cells[c]
	g.cells[c] = fn(old, ok)
	return nil
}

func (g *Grid[V]) Set(p geo.Point, v V) error {
	return g.Update(p, func(V, bool) V { return v })
}

// Lookup returns the value of the cell containing p. An empty cell falls
// back to the nearest populated cell within the ring limit, judged by the
// distance between p and the cell centers.
func (g *Grid[V]) Lookup(p geo.Point) (V, bool, error) {
	var zero V
	origin, err := g.Cell(p)
	if err != nil {
		return zero, false, err
	}
	if v, ok := g.cells[origin]; ok {
		return v, true, nil
	}

	seen := map[h3.Cell]struct{}{origin: {}}
	for k := 1; k <= g.maxRing; k++ {
		disk, err := origin.GridDisk(k)
		if err != nil {
			return zero, false, fmt.Errorf("h3 disk %d around %s: %w", k, origin, err)
		}
		var (
			best  h3.Cell
			bestD = -1.0
		)
		for _, c := range disk {
			if _, done := seen[c]; done {
				continue
			}
			seen[c] = struct{}{}
			if _, ok := g.cells[c]; !ok {
				continue
			}
			d, err := centerDistance(c, p)
			if err != nil {
				return zero, false, err
			}
			if bestD < 0 || d < bestD {
				best, bestD = c, d
			}
		}
		if bestD >= 0 {
			return g.cells[best], true, nil
		}
	}
	return zero, false, nil
}

func centerDistance(c h3.Cell, p geo.Point) (float64, error) {
	ll, err := c.LatLng()
	if err != nil {
		return 0, fmt.Errorf("h3 center of %s: %w", c, err)
	}
	return geo.Distance(geo.New(ll.Lat, ll.Lng, 0), p.Surface()), nil
}

// Each calls fn for every populated cell until fn returns false.
func (g *Grid[V]) Each(fn func(c h3.Cell, v V) bool) {
	for c, v := range g.cells {
		if !fn(c, v) {
			return
		}
	}
}
