package manager

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mohammed-shakir/seaenv/internal/backing/results"
	"github.com/mohammed-shakir/seaenv/internal/core/geo"
	"github.com/mohammed-shakir/seaenv/internal/core/model"
	"github.com/mohammed-shakir/seaenv/internal/core/observability"
	"github.com/mohammed-shakir/seaenv/internal/override"
	"github.com/mohammed-shakir/seaenv/internal/store"
)

var (
	tx      = geo.New(42.0, 10.0, 15)
	bearing = math.Pi / 2
	t0      = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
)

func rxAt(rng, depth float64) geo.Point {
	p := geo.Destination(tx, bearing, rng)
	p.Depth = depth
	return p
}

type closer struct {
	closed int
	err    error
}

func (c *closer) Close() error {
	c.closed++
	return c.err
}

type fakeBathymetry struct {
	closer
	depth float64
	calls int
}

func (f *fakeBathymetry) Depth(context.Context, geo.Point) (float64, error) {
	f.calls++
	return f.depth, nil
}

type fakeSediment struct {
	closer
	s   model.Sediment
	err error
}

func (f *fakeSediment) Sediment(_ context.Context, p geo.Point) (model.Sediment, error) {
	return f.s.WithDepth(p.Depth), f.err
}

func (f *fakeSediment) SedimentAlong(_ context.Context, pts []geo.Point) (model.Sediment, error) {
	return f.s.WithDepth(geo.MeanDepth(pts)), f.err
}

type fakeSSP struct {
	closer
	p *model.SSP
}

func (f *fakeSSP) SSP(context.Context, geo.Point, time.Time, float64) (*model.SSP, error) {
	return f.p.Clone(), nil
}

const sand = "sand|1650|110|1.9|0.8|2.5"

func TestBathymetry_OverrideBeforeBacking(t *testing.T) {
	db := &fakeBathymetry{depth: 321}
	m := New(WithBathymetryDB(db))
	ctx := context.Background()

	if d, ok := m.Bathymetry(ctx, tx, rxAt(4000, 0)); !ok || d != 321 {
		t.Fatalf("backing depth=%v ok=%v", d, ok)
	}
	if err := m.ImportBathymetry(tx, bearing, "2|0|100|5000|200"); err != nil {
		t.Fatalf("ImportBathymetry: %v", err)
	}
	before := testutil.ToFloat64(observability.Queries("bathymetry", observability.SourceOverride))
	d, ok := m.Bathymetry(ctx, tx, rxAt(4900, 0))
	if !ok || d != 200 {
		t.Fatalf("override depth=%v ok=%v want 200", d, ok)
	}
	if db.calls != 1 {
		t.Fatalf("backing must not be consulted on an override hit, calls=%d", db.calls)
	}
	if got := testutil.ToFloat64(observability.Queries("bathymetry", observability.SourceOverride)); got != before+1 {
		t.Fatalf("override counter=%v want %v", got, before+1)
	}

	ds, all := m.BathymetryAlong(ctx, tx, []geo.Point{rxAt(100, 0), rxAt(5100, 0)})
	if !all || ds[0] != 100 || ds[1] != 200 {
		t.Fatalf("along=%v all=%v", ds, all)
	}
}

func TestQueries_MissingBackendIsNotFound(t *testing.T) {
	m := New()
	ctx := context.Background()
	rx := rxAt(1000, 50)

	if d, ok := m.Bathymetry(ctx, tx, rx); ok || !math.IsInf(d, 1) {
		t.Fatalf("bathymetry=%v ok=%v", d, ok)
	}
	if _, ok, err := m.Sediment(ctx, tx, rx); ok || err != nil {
		t.Fatalf("sediment ok=%v err=%v", ok, err)
	}
	if p, ok := m.SSP(ctx, tx, rx, t0, 0); ok || p != nil {
		t.Fatalf("ssp=%v ok=%v", p, ok)
	}
	if _, ok := m.Altimetry(ctx, tx, rx, t0); ok {
		t.Fatalf("altimetry must miss")
	}
	if _, ok, err := m.Arrival(ctx, tx, rx, 1000, t0); ok || err != nil {
		t.Fatalf("arrival ok=%v err=%v", ok, err)
	}
	if _, ok, err := m.Pressure(ctx, tx, rx, 1000, t0); ok || err != nil {
		t.Fatalf("pressure ok=%v err=%v", ok, err)
	}
	if err := m.InsertArrival(ctx, tx, rx, 1000, t0, model.NewTimeArr(model.Tap{Delay: 1, Gain: 1})); !errors.Is(err, ErrNoBackend) {
		t.Fatalf("InsertArrival err=%v", err)
	}
	if err := m.InsertPressure(ctx, tx, rx, 1000, t0, model.NewPressure(1)); !errors.Is(err, ErrNoBackend) {
		t.Fatalf("InsertPressure err=%v", err)
	}
}

func TestSediment_OverrideCarriesReceiverDepth(t *testing.T) {
	m := New(WithSedimentDB(&fakeSediment{s: model.Sediment{Type: "clay", VelC: 1500, Density: 1.5}}))
	ctx := context.Background()

	if err := m.ImportSediment(geo.AnyPoint, store.AnyBearing, store.AnyRange, sand); err != nil {
		t.Fatalf("ImportSediment: %v", err)
	}
	s, ok, err := m.Sediment(ctx, tx, rxAt(2000, 730))
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if s.Type != "sand" || s.Depth != 730 || s.VelC != 1650 {
		t.Fatalf("sediment=%v", s)
	}
}

func TestSediment_BackingErrorPropagates(t *testing.T) {
	boom := errors.New("cascade exhausted")
	m := New(WithSedimentDB(&fakeSediment{err: boom}))
	if _, ok, err := m.Sediment(context.Background(), tx, rxAt(10, 10)); ok || !errors.Is(err, boom) {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
}

func TestSedimentAlong_MajorityOfOverrides(t *testing.T) {
	m := New()
	ctx := context.Background()
	for rng, s := range map[float64]string{
		1000: sand,
		5000: sand,
		9000: "clay|1500|0|1.5|0.2|1",
	} {
		if err := m.ImportSediment(tx, bearing, rng, s); err != nil {
			t.Fatalf("ImportSediment(%g): %v", rng, err)
		}
	}
	rxs := []geo.Point{rxAt(9000, 30), rxAt(1000, 10), rxAt(5000, 20)}
	s, ok, err := m.SedimentAlong(ctx, tx, rxs)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if s.Type != "sand" || s.Depth != 20 {
		t.Fatalf("majority=%v", s)
	}

	if _, _, err := m.SedimentAlong(ctx, tx, nil); err == nil {
		t.Fatalf("empty point set must fail")
	}
}

func TestSedimentAlong_FallsBackToBacking(t *testing.T) {
	m := New(WithSedimentDB(&fakeSediment{s: model.Sediment{Type: "gravel", VelC: 1800, Density: 2}}))
	s, ok, err := m.SedimentAlong(context.Background(), tx, []geo.Point{rxAt(1, 10), rxAt(2, 30)})
	if err != nil || !ok || s.Type != "gravel" || s.Depth != 20 {
		t.Fatalf("sediment=%v ok=%v err=%v", s, ok, err)
	}
}

func TestSSP_OverrideIsOwnedAndTruncated(t *testing.T) {
	m := New(WithSSPDB(&fakeSSP{p: model.NewSSP(model.SSPSample{Depth: 0, Speed: 1400})}))
	ctx := context.Background()

	if err := m.ImportSSP(geo.AnyPoint, store.AnyBearing, store.AnyRange, store.AnyTime, "3|0|1500|1.2|1499|10|1490"); err != nil {
		t.Fatalf("ImportSSP: %v", err)
	}
	p, ok := m.SSP(ctx, tx, rxAt(10, 0), t0, 0)
	if !ok || p.Len() != 3 || p.SpeedAt(0) != 1500 {
		t.Fatalf("ssp=%v ok=%v", p, ok)
	}
	p.Release()
	again, ok := m.SSP(ctx, tx, rxAt(10, 0), t0, 5)
	if !ok || again.Len() != 2 {
		t.Fatalf("released copy must not affect the store; truncated=%v", again)
	}
	if again.SpeedAt(0) != 1500 || again.SpeedAt(10) != 1490 {
		t.Fatalf("truncated=%v", again)
	}
}

func TestImportSSP_MalformedLeavesStoreUnchanged(t *testing.T) {
	m := New()
	if err := m.ImportSSP(geo.AnyPoint, store.AnyBearing, store.AnyRange, store.AnyTime, "2|0|1500|100|1480"); err != nil {
		t.Fatalf("ImportSSP: %v", err)
	}
	for _, bad := range []string{"2|0|1500|100", "2|0|1500|-5|1480", "x|0|1500", ""} {
		if err := m.ImportSSP(geo.AnyPoint, store.AnyBearing, store.AnyRange, store.AnyTime, bad); !errors.Is(err, override.ErrMalformed) {
			t.Fatalf("ImportSSP(%q) err=%v", bad, err)
		}
	}
	p, ok := m.SSP(context.Background(), tx, rxAt(1, 0), store.AnyTime, 0)
	if !ok || p.SpeedAt(100) != 1480 {
		t.Fatalf("store changed by a rejected import: %v", p)
	}
	if n := m.Overrides()[model.KindSSP]; n != 1 {
		t.Fatalf("ssp entries=%d want 1", n)
	}
}

func TestImportBathymetry_NegativeDepthAbortsWholeImport(t *testing.T) {
	m := New()
	if err := m.ImportBathymetry(tx, bearing, "2|0|100|5000|-1"); !errors.Is(err, override.ErrMalformed) {
		t.Fatalf("err=%v", err)
	}
	if n := m.Overrides()[model.KindBathymetry]; n != 0 {
		t.Fatalf("partial import left %d entries", n)
	}
	if err := m.ImportBathymetry(tx, math.NaN(), "1|0|100"); !errors.Is(err, override.ErrMalformed) {
		t.Fatalf("NaN bearing err=%v", err)
	}
}

func TestImportBathymetryFile(t *testing.T) {
	m := New()
	in := strings.NewReader("# range depth\n0 50\n2000 75\n")
	if err := m.ImportBathymetryFile(tx, bearing, in); err != nil {
		t.Fatalf("ImportBathymetryFile: %v", err)
	}
	if d, ok := m.Bathymetry(context.Background(), tx, rxAt(1900, 0)); !ok || d != 75 {
		t.Fatalf("depth=%v ok=%v", d, ok)
	}
}

func TestImportSSPFile_KeysOnFileAnchor(t *testing.T) {
	m := New()
	in := strings.NewReader("SSP\n42.0 10.0\n0 0 1500\n0 100 1480\n8000 0 1510\n8000 100 1490\n")
	if err := m.ImportSSPFile(in, bearing, store.AnyTime); err != nil {
		t.Fatalf("ImportSSPFile: %v", err)
	}
	if n := m.Overrides()[model.KindSSP]; n != 2 {
		t.Fatalf("profiles=%d want 2", n)
	}
	p, ok := m.SSP(context.Background(), tx, rxAt(7000, 0), store.AnyTime, 0)
	if !ok || p.SpeedAt(0) != 1510 {
		t.Fatalf("ssp=%v ok=%v", p, ok)
	}
}

func TestAverageSSP_SamplesMidpoint(t *testing.T) {
	m := New()
	t1 := t0.Add(2 * time.Hour)
	if err := m.ImportSSP(geo.AnyPoint, store.AnyBearing, store.AnyRange, t0, "2|0|1500|100|1480"); err != nil {
		t.Fatalf("ImportSSP t0: %v", err)
	}
	if err := m.ImportSSP(geo.AnyPoint, store.AnyBearing, store.AnyRange, t1, "2|0|1520|100|1500"); err != nil {
		t.Fatalf("ImportSSP t1: %v", err)
	}
	ctx := context.Background()
	rx := rxAt(500, 0)

	avg, ok, err := m.AverageSSP(ctx, tx, rx, t0, t1, 2, 0)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	// samples at t0 and t0+1h: (1500 + 1510) / 2
	if math.Abs(avg.SpeedAt(0)-1505) > 1e-9 || math.Abs(avg.SpeedAt(100)-1485) > 1e-9 {
		t.Fatalf("avg=%v", avg)
	}

	if _, _, err := m.AverageSSP(ctx, tx, rx, t1, t0, 2, 0); err == nil {
		t.Fatalf("end before start must fail")
	}
	if _, _, err := m.AverageSSP(ctx, tx, rx, t0, t0, 2, 0); err == nil {
		t.Fatalf("empty interval must fail")
	}
	if _, _, err := m.AverageSSP(ctx, tx, rx, t0, t1, 0, 0); err == nil {
		t.Fatalf("zero samples must fail")
	}
	if _, ok, err := New().AverageSSP(ctx, tx, rx, t0, t1, 3, 0); ok || err != nil {
		t.Fatalf("missing samples ok=%v err=%v", ok, err)
	}
}

func TestAltimetry_ReturnsCopy(t *testing.T) {
	m := New()
	if err := m.ImportAltimetry(geo.AnyPoint, store.AnyBearing, store.AnyRange, store.AnyTime, "2|0|0|1000|1.5"); err != nil {
		t.Fatalf("ImportAltimetry: %v", err)
	}
	a, ok := m.Altimetry(context.Background(), tx, rxAt(10, 0), t0)
	if !ok || a.HeightAt(1000) != 1.5 {
		t.Fatalf("altimetry=%v ok=%v", a, ok)
	}
	a.Set(0, 9)
	b, _ := m.Altimetry(context.Background(), tx, rxAt(10, 0), t0)
	if b.HeightAt(0) != 0 {
		t.Fatalf("store mutated through a returned copy")
	}
}

func TestArrivalAndPressure_DelegateToResultCaches(t *testing.T) {
	m := New(
		WithArrivalDB(results.NewArrivals(results.NewLRU(8))),
		WithPressureDB(results.NewPressures(results.NewLRU(8))),
	)
	ctx := context.Background()
	rx := rxAt(3000, 40)

	ta := model.NewTimeArr(model.Tap{Delay: 2, Gain: 0.5})
	if err := m.InsertArrival(ctx, tx, rx, 900, t0, ta); err != nil {
		t.Fatalf("InsertArrival: %v", err)
	}
	got, ok, err := m.Arrival(ctx, tx, rx, 900, t0)
	if err != nil || !ok || got.Len() != 1 {
		t.Fatalf("arrival=%v ok=%v err=%v", got, ok, err)
	}
	if err := m.InsertPressure(ctx, tx, rx, 900, t0, model.NewPressure(complex(0, 1))); err != nil {
		t.Fatalf("InsertPressure: %v", err)
	}
	if p, ok, err := m.Pressure(ctx, tx, rx, 900, t0); err != nil || !ok || p.Value != complex(0, 1) {
		t.Fatalf("pressure=%v ok=%v err=%v", p, ok, err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestClose_ClosesDatabasesAndClearsStores(t *testing.T) {
	bathy := &fakeBathymetry{depth: 10}
	sed := &fakeSediment{closer: closer{err: errors.New("busy")}}
	ssp := &fakeSSP{}
	m := New(WithBathymetryDB(bathy), WithSedimentDB(sed), WithSSPDB(ssp))
	if err := m.ImportSediment(geo.AnyPoint, store.AnyBearing, store.AnyRange, sand); err != nil {
		t.Fatalf("ImportSediment: %v", err)
	}

	err := m.Close()
	if err == nil || !strings.Contains(err.Error(), "busy") {
		t.Fatalf("Close err=%v", err)
	}
	if bathy.closed != 1 || sed.closed != 1 || ssp.closed != 1 {
		t.Fatalf("closed=%d,%d,%d", bathy.closed, sed.closed, ssp.closed)
	}
	for k, n := range m.Overrides() {
		if n != 0 {
			t.Fatalf("%s entries=%d after Close", k, n)
		}
	}
	if _, ok := m.Bathymetry(context.Background(), tx, rxAt(1, 0)); ok {
		t.Fatalf("closed manager must not reach its old database")
	}
	if err := m.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestMove_EmptiesSource(t *testing.T) {
	db := &fakeBathymetry{depth: 42}
	src := New(WithBathymetryDB(db))
	if err := src.ImportSediment(geo.AnyPoint, store.AnyBearing, store.AnyRange, sand); err != nil {
		t.Fatalf("ImportSediment: %v", err)
	}

	dst := src.Move()
	ctx := context.Background()
	if _, ok := src.Bathymetry(ctx, tx, rxAt(1, 0)); ok {
		t.Fatalf("source still reaches the moved database")
	}
	if n := src.Overrides()[model.KindSediment]; n != 0 {
		t.Fatalf("source kept %d sediment overrides", n)
	}
	if d, ok := dst.Bathymetry(ctx, tx, rxAt(1, 0)); !ok || d != 42 {
		t.Fatalf("moved bathymetry=%v ok=%v", d, ok)
	}
	if s, ok, _ := dst.Sediment(ctx, tx, rxAt(1, 5)); !ok || s.Type != "sand" {
		t.Fatalf("moved sediment=%v ok=%v", s, ok)
	}
	_ = dst.Close()
	if db.closed != 1 {
		t.Fatalf("database closed %d times", db.closed)
	}
}
