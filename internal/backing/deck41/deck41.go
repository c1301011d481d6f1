// Package deck41 serves seafloor sediment from the NOAA DECK41 surficial
// sediment records at three resolutions: individual samples, one-degree
// Marsden sub-squares and ten-degree Marsden squares. A sediment.Resolver
// cascades across them.
//
// Each tier is a CSV with lat, lon, seafloor_main_type and
// seafloor_secondary_type columns. Types are names or numeric codes.
package deck41

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mohammed-shakir/seaenv/internal/backing"
	"github.com/mohammed-shakir/seaenv/internal/core/geo"
	"github.com/mohammed-shakir/seaenv/internal/core/model"
	"github.com/mohammed-shakir/seaenv/internal/sediment"
)

const (
	Name = "deck41"
	// DefaultRadius is the point tier search radius in meters.
	DefaultRadius = 25_000.0
)

var errClosed = errors.New("database closed")

type Option func(*options)

type options struct {
	radius  float64
	catalog sediment.Catalog
	logger  *slog.Logger
}

func WithRadius(m float64) Option {
	return func(o *options) {
		if m > 0 {
			o.radius = m
		}
	}
}

func WithCatalog(c sediment.Catalog) Option { return func(o *options) { o.catalog = c } }

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Paths locates the three tier files.
type Paths struct {
	Points        string
	MarsdenOne    string
	MarsdenSquare string
}

type DB struct {
	point    *PointTier
	one      *MarsdenTier
	square   *MarsdenTier
	resolver *sediment.Resolver
}

func Open(p Paths, opts ...Option) (*DB, error) {
	files := make([]*os.File, 0, 3)
	defer func() {
		for _, f := range files {
			_ = f.Close()
		}
	}()
	for _, path := range []string{p.Points, p.MarsdenOne, p.MarsdenSquare} {
		f, err := os.Open(path)
		if err != nil {
			return nil, backing.OpenError(Name, path, err)
		}
		files = append(files, f)
	}
	return build([3]io.Reader{files[0], files[1], files[2]}, [3]string{p.Points, p.MarsdenOne, p.MarsdenSquare}, opts)
}

// Load builds the database from the three tier readers, finest first.
func Load(points, one, square io.Reader, opts ...Option) (*DB, error) {
	return build([3]io.Reader{points, one, square}, [3]string{}, opts)
}

func build(in [3]io.Reader, paths [3]string, opts []Option) (*DB, error) {
	o := options{radius: DefaultRadius, logger: slog.New(slog.DiscardHandler)}
	for _, f := range opts {
		f(&o)
	}

	db := &DB{
		point:  newPointTier(o.radius),
		one:    newMarsdenTier(geo.MarsdenOne),
		square: newMarsdenTier(geo.MarsdenSquare),
	}
	adders := [3]func(*sample){db.point.add, db.one.add, db.square.add}
	for i := range in {
		n, err := readTier(in[i], adders[i])
		if err != nil {
			return nil, backing.OpenError(Name, paths[i], fmt.Errorf("tier %s: %w", sediment.Tier(i), err))
		}
		o.logger.Info("sediment tier loaded", "db", Name, "tier", sediment.Tier(i).String(), "path", paths[i], "rows", n)
	}

	ropts := []sediment.Option{sediment.WithLogger(o.logger)}
	if o.catalog != nil {
		ropts = append(ropts, sediment.WithCatalog(o.catalog))
	}
	r, err := sediment.NewResolver([]sediment.TierSource{db.point, db.one, db.square}, ropts...)
	if err != nil {
		return nil, backing.OpenError(Name, "", err)
	}
	db.resolver = r
	return db, nil
}

func readTier(r io.Reader, add func(*sample)) (int, error) {
	cols := []backing.Column{
		backing.Col("lat", "latitude"),
		backing.Col("lon", "longitude"),
		backing.Col("main", "seafloor_main_type", "main_type"),
		backing.Col("secondary", "seafloor_secondary_type", "secondary_type"),
	}
	n := 0
	err := backing.ScanCSV(r, cols, func(rec backing.Record) error {
		lat, err := rec.Float("lat")
		if err != nil {
			return err
		}
		lon, err := rec.Float("lon")
		if err != nil {
			return err
		}
		at := geo.New(lat, lon, 0)
		if !at.Valid() {
			return fmt.Errorf("line %d: coordinate %s out of range", rec.Line, at)
		}
		primary, err := parseType(rec.Text("main"))
		if err != nil {
			return fmt.Errorf("line %d: %w", rec.Line, err)
		}
		sec, err := parseType(rec.Text("secondary"))
		if err != nil {
			return fmt.Errorf("line %d: %w", rec.Line, err)
		}
		add(&sample{at: at, types: model.SedimentTypes{Main: primary, Secondary: sec}})
		n++
		return nil
	})
	return n, err
}

func (d *DB) Sediment(ctx context.Context, p geo.Point) (model.Sediment, error) {
	if d.resolver == nil {
		return model.Sediment{}, &backing.DBError{DB: Name, Op: "query", Err: errClosed}
	}
	return d.resolver.Resolve(ctx, p)
}

// SedimentAlong resolves every point and returns the majority type at the
// mean depth of pts.
func (d *DB) SedimentAlong(ctx context.Context, pts []geo.Point) (model.Sediment, error) {
	if d.resolver == nil {
		return model.Sediment{}, &backing.DBError{DB: Name, Op: "query", Err: errClosed}
	}
	return d.resolver.ResolveMany(ctx, pts)
}

func (d *DB) Close() error {
	d.resolver = nil
	d.point, d.one, d.square = nil, nil, nil
	return nil
}
