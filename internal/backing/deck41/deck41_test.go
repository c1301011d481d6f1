package deck41

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mohammed-shakir/seaenv/internal/backing"
	"github.com/mohammed-shakir/seaenv/internal/core/geo"
	"github.com/mohammed-shakir/seaenv/internal/core/model"
	"github.com/mohammed-shakir/seaenv/internal/sediment"
)

const (
	pointsCSV = `lat,lon,seafloor_main_type,seafloor_secondary_type
43.10,9.40,sand,sand
43.50,9.90,no-data,sand
`
	oneCSV = `lat,lon,main_type,secondary_type
43.5,9.5,rock,no-data
`
	squareCSV = `lat,lon,main,secondary
45,5,10,10
-15,-25,clay,silt
`
)

func load(t *testing.T, opts ...Option) *DB {
	t.Helper()
	db, err := Load(strings.NewReader(pointsCSV), strings.NewReader(oneCSV), strings.NewReader(squareCSV), opts...)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return db
}

func TestPointTier_NearestWithinRadius(t *testing.T) {
	db := load(t, WithRadius(5_000))
	ctx := context.Background()

	got, err := db.point.Types(ctx, geo.New(43.11, 9.41, 80))
	if err != nil {
		t.Fatalf("Types: %v", err)
	}
	if got != (model.SedimentTypes{Main: model.SedimentSand, Secondary: model.SedimentSand}) {
		t.Fatalf("types=%s", got)
	}
	if got, _ := db.point.Types(ctx, geo.New(0, 0, 0)); got != noData {
		t.Fatalf("outside radius must be no-data, got %s", got)
	}
}

func TestMarsdenTiers_KeyedBySquare(t *testing.T) {
	db := load(t)
	ctx := context.Background()

	if got, _ := db.one.Types(ctx, geo.New(43.9, 9.1, 0)); got.Main != model.SedimentRock {
		t.Fatalf("one-degree tier=%s", got)
	}
	if got, _ := db.one.Types(ctx, geo.New(42.5, 9.5, 0)); got != noData {
		t.Fatalf("neighboring sub-square must miss, got %s", got)
	}
	if got, _ := db.square.Types(ctx, geo.New(41, 1, 0)); got.Main != model.SedimentNoData {
		t.Fatalf("numeric code 10 must be no-data, got %s", got)
	}
	if got, _ := db.square.Types(ctx, geo.New(-12, -21, 0)); got.Main != model.SedimentClay {
		t.Fatalf("square tier=%s", got)
	}
}

func TestSediment_CascadeAcrossFiles(t *testing.T) {
	db := load(t, WithRadius(2_000))
	ctx := context.Background()

	s, err := db.Sediment(ctx, geo.New(43.10, 9.40, 60))
	if err != nil || s.Type != "sand" || s.Depth != 60 {
		t.Fatalf("point accept=%v err=%v", s, err)
	}

	// (no-data, sand) escalates, the sub-square holds (rock, no-data) and the
	// square has nothing: the cascade reverts to rock.
	s, err = db.Sediment(ctx, geo.New(43.50, 9.90, 30))
	if err != nil || s.Type != "rock" {
		t.Fatalf("reverted=%v err=%v", s, err)
	}

	_, err = db.Sediment(ctx, geo.New(-60, 150, 10))
	var ue *sediment.UnresolvedError
	if !errors.As(err, &ue) {
		t.Fatalf("err=%v want UnresolvedError", err)
	}

	along, err := db.SedimentAlong(ctx, []geo.Point{geo.New(43.10, 9.40, 10), geo.New(43.10, 9.40, 30)})
	if err != nil || along.Type != "sand" || along.Depth != 20 {
		t.Fatalf("along=%v err=%v", along, err)
	}
}

func TestLoad_Failures(t *testing.T) {
	bad := []struct{ points, one, square string }{
		{"lat,lon\n1,2\n", oneCSV, squareCSV},
		{pointsCSV, "lat,lon,main,secondary\n1,2,lava,sand\n", squareCSV},
		{pointsCSV, oneCSV, "lat,lon,main,secondary\n95,2,sand,sand\n"},
		{pointsCSV, oneCSV, "lat,lon,main,secondary\n5,2,42,sand\n"},
	}
	for i, tc := range bad {
		_, err := Load(strings.NewReader(tc.points), strings.NewReader(tc.one), strings.NewReader(tc.square))
		if !errors.Is(err, backing.ErrOpen) {
			t.Fatalf("case %d: err=%v want ErrOpen", i, err)
		}
	}
	if _, err := Open(Paths{Points: "/nonexistent/points.csv"}); !errors.Is(err, backing.ErrOpen) {
		t.Fatalf("open err=%v", err)
	}
}

func TestClose_DisablesQueries(t *testing.T) {
	db := load(t)
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := db.Sediment(context.Background(), geo.New(43.1, 9.4, 0)); err == nil {
		t.Fatalf("expected error after Close")
	}
}
