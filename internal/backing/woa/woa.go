// Package woa serves monthly sound-speed profiles from a World Ocean Atlas
// climatology export (CSV columns lat, lon, month, depth, speed|ssp).
package woa

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"time"

	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/seaenv/internal/backing"
	"github.com/mohammed-shakir/seaenv/internal/backing/h3grid"
	"github.com/mohammed-shakir/seaenv/internal/core/geo"
	"github.com/mohammed-shakir/seaenv/internal/core/model"
)

const (
	Name       = "woa"
	DefaultRes = 4
)

var errClosed = errors.New("database closed")

type Option func(*options)

type options struct {
	res     int
	maxRing int
	logger  *slog.Logger
}

func WithResolution(res int) Option { return func(o *options) { o.res = res } }

func WithMaxRing(k int) Option { return func(o *options) { o.maxRing = k } }

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// monthly holds one profile per calendar month; index 0 is January.
type monthly [12]*model.SSP

func (m *monthly) annual() *model.SSP {
	var (
		sum *model.SSP
		n   int
	)
	for _, p := range m {
		if !p.Valid() {
			continue
		}
		if sum == nil {
			sum = p.Clone()
		} else {
			sum = sum.Add(p)
		}
		n++
	}
	if n == 0 {
		return nil
	}
	return sum.Scale(1 / float64(n))
}

type DB struct {
	path   string
	grid   *h3grid.Grid[*monthly]
	logger *slog.Logger
}

// maxDepth is the deepest sample of any monthly profile.
func (d *DB) maxDepth() float64 {
	deepest := math.NaN()
	d.grid.Each(func(_ h3.Cell, m *monthly) bool {
		for _, p := range m {
			if z := p.MaxDepth(); math.IsNaN(deepest) || z > deepest {
				deepest = z
			}
		}
		return true
	})
	return deepest
}

func Open(path string, opts ...Option) (*DB, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, backing.OpenError(Name, path, err)
	}
	defer f.Close()
	return load(f, path, opts)
}

func Load(r io.Reader, opts ...Option) (*DB, error) { return load(r, "", opts) }

func load(r io.Reader, path string, opts []Option) (*DB, error) {
	o := options{res: DefaultRes, maxRing: h3grid.DefaultMaxRing, logger: slog.New(slog.DiscardHandler)}
	for _, f := range opts {
		f(&o)
	}
	grid, err := h3grid.New[*monthly](o.res, h3grid.WithMaxRing(o.maxRing))
	if err != nil {
		return nil, backing.OpenError(Name, path, err)
	}

	cols := []backing.Column{
		backing.Col("lat", "latitude"),
		backing.Col("lon", "longitude"),
		backing.Col("month"),
		backing.Col("depth", "z"),
		backing.Col("speed", "ssp"),
	}
	rows := 0
	err = backing.ScanCSV(r, cols, func(rec backing.Record) error {
		var v [5]float64
		for i, c := range cols {
			f, err := rec.Float(c.Name)
			if err != nil {
				return err
			}
			v[i] = f
		}
		month := int(v[2])
		if float64(month) != v[2] || month < 1 || month > 12 {
			return fmt.Errorf("line %d: month %g not in 1..12", rec.Line, v[2])
		}
		if v[3] < 0 || v[4] <= 0 {
			return fmt.Errorf("line %d: depth %g speed %g out of range", rec.Line, v[3], v[4])
		}
		rows++
		return grid.Update(geo.New(v[0], v[1], 0), func(m *monthly, ok bool) *monthly {
			if !ok {
				m = &monthly{}
			}
			if m[month-1] == nil {
				m[month-1] = model.NewSSP()
			}
			m[month-1].Set(v[3], v[4])
			return m
		})
	})
	if err != nil {
		return nil, backing.OpenError(Name, path, err)
	}
	if grid.Len() == 0 {
		return nil, backing.OpenError(Name, path, h3grid.ErrEmpty)
	}
	db := &DB{path: path, grid: grid, logger: o.logger}
	o.logger.Info("ssp climatology loaded", "db", Name, "path", path, "rows", rows,
		"cells", grid.Len(), "res", grid.Resolution(), "max_depth", db.maxDepth())
	return db, nil
}

// SSP returns the profile for the month of t near p. The zero time, or a
// month without data, yields the mean over the available months. A positive
// precision rounds sample depths to that step. The caller owns the result;
// nil means no data.
func (d *DB) SSP(_ context.Context, p geo.Point, t time.Time, precision float64) (*model.SSP, error) {
	if d.grid == nil {
		return nil, &backing.DBError{DB: Name, Op: "query", Path: d.path, Err: errClosed}
	}
	m, ok, err := d.grid.Lookup(p)
	if err != nil {
		return nil, &backing.DBError{DB: Name, Op: "query", Path: d.path, Err: err}
	}
	if !ok {
		return nil, nil
	}

	var out *model.SSP
	if !t.IsZero() {
		if s := m[t.Month()-1]; s.Valid() {
			out = s.Clone()
		}
	}
	if out == nil {
		out = m.annual()
	}
	if out == nil {
		return nil, nil
	}
	if precision > 0 {
		out = out.Truncate(precision)
	}
	return out, nil
}

func (d *DB) Close() error {
	d.grid = nil
	return nil
}
