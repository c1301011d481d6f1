// Package gebco serves seafloor depth from a gridded GEBCO export.
//
// The input is CSV with lat, lon and an elevation column named z or
// elevation. Elevations are negative below sea level; Depth reports them as
// positive depths. Samples falling in the same H3 cell are averaged.
package gebco

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/mohammed-shakir/seaenv/internal/backing"
	"github.com/mohammed-shakir/seaenv/internal/backing/h3grid"
	"github.com/mohammed-shakir/seaenv/internal/core/geo"
)

const (
	Name       = "gebco"
	DefaultRes = 7
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

type mean struct {
	sum float64
	n   int
}

type DB struct {
	path   string
	grid   *h3grid.Grid[mean]
	logger *slog.Logger
}

// Open loads the CSV at path.
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
	grid, err := h3grid.New[mean](o.res, h3grid.WithMaxRing(o.maxRing))
	if err != nil {
		return nil, backing.OpenError(Name, path, err)
	}

	cols := []backing.Column{
		backing.Col("lat", "latitude"),
		backing.Col("lon", "longitude"),
		backing.Col("elevation", "z"),
	}
	rows := 0
	err = backing.ScanCSV(r, cols, func(rec backing.Record) error {
		lat, err := rec.Float("lat")
		if err != nil {
			return err
		}
		lon, err := rec.Float("lon")
		if err != nil {
			return err
		}
		z, err := rec.Float("elevation")
		if err != nil {
			return err
		}
		rows++
		return grid.Update(geo.New(lat, lon, 0), func(m mean, _ bool) mean {
			return mean{sum: m.sum - z, n: m.n + 1}
		})
	})
	if err != nil {
		return nil, backing.OpenError(Name, path, err)
	}
	if grid.Len() == 0 {
		return nil, backing.OpenError(Name, path, h3grid.ErrEmpty)
	}
	o.logger.Info("bathymetry loaded", "db", Name, "path", path, "rows", rows, "cells", grid.Len(), "res", grid.Resolution())
	return &DB{path: path, grid: grid, logger: o.logger}, nil
}

// Depth returns the seafloor depth under p, or +Inf when no cell within the
// ring limit has data.
func (d *DB) Depth(_ context.Context, p geo.Point) (float64, error) {
	if d.grid == nil {
		return math.Inf(1), &backing.DBError{DB: Name, Op: "query", Path: d.path, Err: errClosed}
	}
	m, ok, err := d.grid.Lookup(p)
	if err != nil {
		return math.Inf(1), &backing.DBError{DB: Name, Op: "query", Path: d.path, Err: err}
	}
	if !ok || m.n == 0 {
		return math.Inf(1), nil
	}
	return m.sum / float64(m.n), nil
}

func (d *DB) Close() error {
	d.grid = nil
	return nil
}

func (d *DB) String() string { return fmt.Sprintf("%s(%s)", Name, d.path) }
