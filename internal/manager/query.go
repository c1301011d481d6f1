package manager

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/mohammed-shakir/seaenv/internal/core/geo"
	"github.com/mohammed-shakir/seaenv/internal/core/model"
	"github.com/mohammed-shakir/seaenv/internal/core/observability"
	"github.com/mohammed-shakir/seaenv/internal/logger"
	"github.com/mohammed-shakir/seaenv/internal/sediment"
	"github.com/mohammed-shakir/seaenv/internal/store"
)

func scoped(ctx context.Context, kind model.Kind) context.Context {
	return logger.WithDataKind(ctx, kind.String())
}

// unconfigured records a query that found no override and has no database
// to fall back on.
func (m *Manager) unconfigured(ctx context.Context, kind model.Kind) {
	m.logger.WarnContext(ctx, "no override and no backing database", "kind", kind.String())
	observability.ObserveQuery(kind.String(), observability.SourceMiss)
}

func (m *Manager) failed(ctx context.Context, kind model.Kind, err error) {
	m.logger.WarnContext(ctx, "backing database query failed", "kind", kind.String(), "err", err)
	observability.ObserveQuery(kind.String(), observability.SourceError)
}

// Bathymetry returns the water depth at rx on the tx/rx path. Unknown
// depths are +Inf.
func (m *Manager) Bathymetry(ctx context.Context, tx, rx geo.Point) (float64, bool) {
	ctx = scoped(ctx, model.KindBathymetry)
	kind := model.KindBathymetry.String()

	if !m.ov.bathymetry.Empty() {
		if d, ok := m.ov.bathymetry.Nearest(tx, rx, store.AnyTime); ok {
			observability.ObserveQuery(kind, observability.SourceOverride)
			return d, true
		}
	}
	if m.db.bathymetry == nil {
		m.unconfigured(ctx, model.KindBathymetry)
		return math.Inf(1), false
	}
	d, err := m.db.bathymetry.Depth(ctx, rx)
	if err != nil {
		m.failed(ctx, model.KindBathymetry, err)
		return math.Inf(1), false
	}
	if math.IsInf(d, 0) || math.IsNaN(d) {
		observability.ObserveQuery(kind, observability.SourceMiss)
		return math.Inf(1), false
	}
	observability.ObserveQuery(kind, observability.SourceBacking)
	return d, true
}

// BathymetryAlong returns one depth per receiver. ok is false when any of
// them is unknown.
func (m *Manager) BathymetryAlong(ctx context.Context, tx geo.Point, rxs []geo.Point) ([]float64, bool) {
	out := make([]float64, len(rxs))
	all := len(rxs) > 0
	for i, rx := range rxs {
		d, ok := m.Bathymetry(ctx, tx, rx)
		out[i] = d
		all = all && ok
	}
	return out, all
}

// Sediment returns the seafloor at rx with Depth set to rx's depth. The
// error reports cascade failures of the backing database.
func (m *Manager) Sediment(ctx context.Context, tx, rx geo.Point) (model.Sediment, bool, error) {
	ctx = scoped(ctx, model.KindSediment)
	kind := model.KindSediment.String()

	if !m.ov.sediment.Empty() {
		if s, ok := m.ov.sediment.Nearest(tx, rx, store.AnyTime); ok {
			observability.ObserveQuery(kind, observability.SourceOverride)
			return s.WithDepth(rx.Depth), true, nil
		}
	}
	if m.db.sediment == nil {
		m.unconfigured(ctx, model.KindSediment)
		return model.Sediment{}, false, nil
	}
	s, err := m.db.sediment.Sediment(ctx, rx)
	if err != nil {
		m.failed(ctx, model.KindSediment, err)
		return model.Sediment{}, false, err
	}
	observability.ObserveQuery(kind, observability.SourceBacking)
	return s, true, nil
}

// SedimentAlong resolves the sediment of a set of sample points. With
// overrides present each point is resolved on its own and the type label
// seen most often wins; otherwise the backing database answers for the
// whole set. Depth is the mean depth of rxs.
func (m *Manager) SedimentAlong(ctx context.Context, tx geo.Point, rxs []geo.Point) (model.Sediment, bool, error) {
	if len(rxs) == 0 {
		return model.Sediment{}, false, errors.New("sediment along: no sample points")
	}
	ctx = scoped(ctx, model.KindSediment)
	kind := model.KindSediment.String()

	if !m.ov.sediment.Empty() {
		hits := make([]model.Sediment, 0, len(rxs))
		for _, rx := range rxs {
			if s, ok := m.ov.sediment.Nearest(tx, rx, store.AnyTime); ok {
				hits = append(hits, s)
			}
		}
		if best, ok := sediment.Majority(hits); ok {
			observability.ObserveQuery(kind, observability.SourceOverride)
			return best.WithDepth(geo.MeanDepth(rxs)), true, nil
		}
	}
	if m.db.sediment == nil {
		m.unconfigured(ctx, model.KindSediment)
		return model.Sediment{}, false, nil
	}
	s, err := m.db.sediment.SedimentAlong(ctx, rxs)
	if err != nil {
		m.failed(ctx, model.KindSediment, err)
		return model.Sediment{}, false, err
	}
	observability.ObserveQuery(kind, observability.SourceBacking)
	return s, true, nil
}

// SSP returns an owned sound speed profile. A positive precision keeps one
// sample per precision meters of depth.
func (m *Manager) SSP(ctx context.Context, tx, rx geo.Point, t time.Time, precision float64) (*model.SSP, bool) {
	ctx = scoped(ctx, model.KindSSP)
	kind := model.KindSSP.String()

	if !m.ov.ssp.Empty() {
		if p, ok := m.ov.ssp.Nearest(tx, rx, t); ok && p.Valid() {
			observability.ObserveQuery(kind, observability.SourceOverride)
			out := p.Clone()
			if precision > 0 {
				tr := out.Truncate(precision)
				out.Release()
				out = tr
			}
			return out, true
		}
	}
	if m.db.ssp == nil {
		m.unconfigured(ctx, model.KindSSP)
		return nil, false
	}
	p, err := m.db.ssp.SSP(ctx, rx, t, precision)
	if err != nil {
		m.failed(ctx, model.KindSSP, err)
		return nil, false
	}
	if !p.Valid() {
		observability.ObserveQuery(kind, observability.SourceMiss)
		return nil, false
	}
	observability.ObserveQuery(kind, observability.SourceBacking)
	return p, true
}

// AverageSSP averages n profiles sampled at start + i*(end-start)/n. The
// average is not found when any sample is missing.
func (m *Manager) AverageSSP(ctx context.Context, tx, rx geo.Point, start, end time.Time, n int, precision float64) (*model.SSP, bool, error) {
	if !end.After(start) {
		return nil, false, fmt.Errorf("average ssp: end %s is not after start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	if n <= 0 {
		return nil, false, fmt.Errorf("average ssp: sample count %d must be positive", n)
	}

	step := end.Sub(start) / time.Duration(n)
	var sum *model.SSP
	for i := range n {
		p, ok := m.SSP(ctx, tx, rx, start.Add(time.Duration(i)*step), precision)
		if !ok {
			sum.Release()
			return nil, false, nil
		}
		if sum == nil {
			sum = p
			continue
		}
		next := sum.Add(p)
		sum.Release()
		p.Release()
		sum = next
	}
	avg := sum.Scale(1 / float64(n))
	sum.Release()
	return avg, true, nil
}

// Altimetry returns an owned surface profile. There is no backing database
// for altimetry.
func (m *Manager) Altimetry(ctx context.Context, tx, rx geo.Point, t time.Time) (*model.Altimetry, bool) {
	ctx = scoped(ctx, model.KindAltimetry)
	if !m.ov.altimetry.Empty() {
		if a, ok := m.ov.altimetry.Nearest(tx, rx, t); ok && a.Valid() {
			observability.ObserveQuery(model.KindAltimetry.String(), observability.SourceOverride)
			return a.Clone(), true
		}
	}
	m.logger.DebugContext(ctx, "no altimetry override", "rx", rx.String())
	observability.ObserveQuery(model.KindAltimetry.String(), observability.SourceMiss)
	return nil, false
}

func (m *Manager) Arrival(ctx context.Context, tx, rx geo.Point, freq float64, t time.Time) (*model.TimeArr, bool, error) {
	ctx = scoped(ctx, model.KindArrival)
	if m.db.arrival == nil {
		m.unconfigured(ctx, model.KindArrival)
		return nil, false, nil
	}
	v, ok, err := m.db.arrival.Arrival(ctx, tx, rx, freq, t)
	if err != nil {
		m.failed(ctx, model.KindArrival, err)
		return nil, false, err
	}
	observability.ObserveQuery(model.KindArrival.String(), sourceOf(ok))
	return v, ok, nil
}

func (m *Manager) Pressure(ctx context.Context, tx, rx geo.Point, freq float64, t time.Time) (model.Pressure, bool, error) {
	ctx = scoped(ctx, model.KindPressure)
	if m.db.pressure == nil {
		m.unconfigured(ctx, model.KindPressure)
		return model.Pressure{}, false, nil
	}
	v, ok, err := m.db.pressure.Pressure(ctx, tx, rx, freq, t)
	if err != nil {
		m.failed(ctx, model.KindPressure, err)
		return model.Pressure{}, false, err
	}
	observability.ObserveQuery(model.KindPressure.String(), sourceOf(ok))
	return v, ok, nil
}

func (m *Manager) InsertArrival(ctx context.Context, tx, rx geo.Point, freq float64, t time.Time, v *model.TimeArr) error {
	if m.db.arrival == nil {
		return fmt.Errorf("insert arrival: %w", ErrNoBackend)
	}
	return m.db.arrival.InsertArrival(scoped(ctx, model.KindArrival), tx, rx, freq, t, v)
}

func (m *Manager) InsertPressure(ctx context.Context, tx, rx geo.Point, freq float64, t time.Time, v model.Pressure) error {
	if m.db.pressure == nil {
		return fmt.Errorf("insert pressure: %w", ErrNoBackend)
	}
	return m.db.pressure.InsertPressure(scoped(ctx, model.KindPressure), tx, rx, freq, t, v)
}

func sourceOf(found bool) string {
	if found {
		return observability.SourceBacking
	}
	return observability.SourceMiss
}
