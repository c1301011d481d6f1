// Package manager is the query façade of the environment layer. Each data
// kind has an override store filled by the import functions and an
// optional backing database; queries try the override store first.
package manager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/mohammed-shakir/seaenv/internal/core/geo"
	"github.com/mohammed-shakir/seaenv/internal/core/model"
	"github.com/mohammed-shakir/seaenv/internal/core/observability"
	"github.com/mohammed-shakir/seaenv/internal/store"
)

// ErrNoBackend is returned by writes that need a backing database that was
// never configured.
var ErrNoBackend = errors.New("no backing database")

// BathymetryDB returns the depth under p, +Inf when unknown.
type BathymetryDB interface {
	io.Closer
	Depth(ctx context.Context, p geo.Point) (float64, error)
}

type SedimentDB interface {
	io.Closer
	Sediment(ctx context.Context, p geo.Point) (model.Sediment, error)
	SedimentAlong(ctx context.Context, pts []geo.Point) (model.Sediment, error)
}

// SSPDB returns an owned profile, nil when unknown.
type SSPDB interface {
	io.Closer
	SSP(ctx context.Context, p geo.Point, t time.Time, precision float64) (*model.SSP, error)
}

type ArrivalDB interface {
	io.Closer
	Arrival(ctx context.Context, tx, rx geo.Point, freq float64, t time.Time) (*model.TimeArr, bool, error)
	InsertArrival(ctx context.Context, tx, rx geo.Point, freq float64, t time.Time, v *model.TimeArr) error
}

type PressureDB interface {
	io.Closer
	Pressure(ctx context.Context, tx, rx geo.Point, freq float64, t time.Time) (model.Pressure, bool, error)
	InsertPressure(ctx context.Context, tx, rx geo.Point, freq float64, t time.Time, v model.Pressure) error
}

// noCopy lets go vet's copylocks check flag copies of a Manager.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

type overrides struct {
	bathymetry *store.Store[float64]
	sediment   *store.Store[model.Sediment]
	ssp        *store.Store[*model.SSP]
	altimetry  *store.Store[*model.Altimetry]
}

func newOverrides() overrides {
	return overrides{
		bathymetry: store.New[float64](),
		sediment:   store.New[model.Sediment](),
		ssp:        store.NewOwned[*model.SSP](store.WithBlender[*model.SSP](model.BlendSSP)),
		altimetry:  store.NewOwned[*model.Altimetry](store.WithBlender[*model.Altimetry](model.BlendAltimetry)),
	}
}

func (o overrides) clear() {
	o.bathymetry.Clear()
	o.sediment.Clear()
	o.ssp.Clear()
	o.altimetry.Clear()
}

type backends struct {
	bathymetry BathymetryDB
	sediment   SedimentDB
	ssp        SSPDB
	arrival    ArrivalDB
	pressure   PressureDB
}

// Manager is not safe for concurrent use. It owns its backing databases:
// Close releases them and Move hands them to a new Manager.
type Manager struct {
	noCopy noCopy

	ov     overrides
	db     backends
	logger *slog.Logger
}

type Option func(*Manager)

func WithBathymetryDB(db BathymetryDB) Option { return func(m *Manager) { m.db.bathymetry = db } }
func WithSedimentDB(db SedimentDB) Option     { return func(m *Manager) { m.db.sediment = db } }
func WithSSPDB(db SSPDB) Option               { return func(m *Manager) { m.db.ssp = db } }
func WithArrivalDB(db ArrivalDB) Option       { return func(m *Manager) { m.db.arrival = db } }
func WithPressureDB(db PressureDB) Option     { return func(m *Manager) { m.db.pressure = db } }

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

func New(opts ...Option) *Manager {
	m := &Manager{ov: newOverrides(), logger: slog.New(slog.DiscardHandler)}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Close closes every backing database and clears the override stores. The
// manager stays usable with no data.
func (m *Manager) Close() error {
	var errs []error
	for _, db := range []struct {
		kind model.Kind
		c    io.Closer
	}{
		{model.KindBathymetry, m.db.bathymetry},
		{model.KindSediment, m.db.sediment},
		{model.KindSSP, m.db.ssp},
		{model.KindArrival, m.db.arrival},
		{model.KindPressure, m.db.pressure},
	} {
		if db.c == nil {
			continue
		}
		if err := db.c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s database: %w", db.kind, err))
		}
	}
	m.db = backends{}
	m.ov.clear()
	m.publishSizes()
	return errors.Join(errs...)
}

// Move transfers the override stores and backing databases to a new
// Manager. m is left empty.
func (m *Manager) Move() *Manager {
	out := &Manager{ov: m.ov, db: m.db, logger: m.logger}
	m.ov = newOverrides()
	m.db = backends{}
	return out
}

// Overrides reports the number of override entries per kind.
func (m *Manager) Overrides() map[model.Kind]int {
	return map[model.Kind]int{
		model.KindBathymetry: m.ov.bathymetry.Len(),
		model.KindSediment:   m.ov.sediment.Len(),
		model.KindSSP:        m.ov.ssp.Len(),
		model.KindAltimetry:  m.ov.altimetry.Len(),
	}
}

func (m *Manager) publishSizes() {
	for k, n := range m.Overrides() {
		observability.SetOverrideEntries(k.String(), n)
	}
}
