package gebco

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mohammed-shakir/seaenv/internal/backing"
	"github.com/mohammed-shakir/seaenv/internal/core/geo"
)

const sample = `lat,lon,elevation
43.000,9.500,-1200
43.000,9.500,-1300
10.000,-30.000,-4500
`

func TestDepth_AveragesCellAndMissesInfinite(t *testing.T) {
	db, err := Load(strings.NewReader(sample), WithMaxRing(0))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	ctx := context.Background()

	d, err := db.Depth(ctx, geo.New(43.0, 9.5, 0))
	if err != nil {
		t.Fatalf("Depth: %v", err)
	}
	if math.Abs(d-1250) > 1e-9 {
		t.Fatalf("depth=%g want 1250", d)
	}

	d, err = db.Depth(ctx, geo.New(-60, 120, 0))
	if err != nil || !math.IsInf(d, 1) {
		t.Fatalf("miss depth=%g err=%v want +Inf", d, err)
	}
}

func TestOpen_FileAndFailures(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gebco.csv")
	if err := os.WriteFile(path, []byte("latitude,longitude,z\n1,2,-10\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if d, _ := db.Depth(context.Background(), geo.New(1, 2, 0)); d != 10 {
		t.Fatalf("depth=%g want 10", d)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := db.Depth(context.Background(), geo.New(1, 2, 0)); err == nil {
		t.Fatalf("expected error after Close")
	}

	_, err = Open(filepath.Join(dir, "missing.csv"))
	var de *backing.DBError
	if !errors.As(err, &de) || !errors.Is(err, backing.ErrOpen) || de.DB != Name {
		t.Fatalf("missing file err=%v", err)
	}
	if _, err := Load(strings.NewReader("lat,lon,elevation\n")); !errors.Is(err, backing.ErrOpen) {
		t.Fatalf("empty grid err=%v", err)
	}
	if _, err := Load(strings.NewReader("lat,lon\n1,2\n")); !errors.Is(err, backing.ErrOpen) {
		t.Fatalf("missing column err=%v", err)
	}
}

func TestLoad_RejectsDepthHeader(t *testing.T) {
	// positive depths would be negated into negative ones
	_, err := Load(strings.NewReader("lat,lon,depth\n1,2,10\n"))
	if !errors.Is(err, backing.ErrOpen) {
		t.Fatalf("depth column err=%v want ErrOpen", err)
	}
}
