package geo

import (
	"math"
	"testing"
)

func almostEq(t *testing.T, got, want, eps float64) {
	t.Helper()
	if math.Abs(got-want) > eps {
		t.Fatalf("got=%g want=%g (eps=%g)", got, want, eps)
	}
}

func TestDistance_OneDegreeOfLatitude(t *testing.T) {
	a := New(42, 10, 0)
	b := New(43, 10, 0)
	almostEq(t, Distance(a, b), EarthRadius*math.Pi/180, 1e-6)
	almostEq(t, Distance(a, a), 0, 1e-9)
}

func TestBearing_CardinalDirections(t *testing.T) {
	o := New(0, 0, 0)
	cases := []struct {
		name string
		to   Point
		want float64
	}{
		{"north", New(1, 0, 0), 0},
		{"east", New(0, 1, 0), math.Pi / 2},
		{"south", New(-1, 0, 0), math.Pi},
		{"west", New(0, -1, 0), 3 * math.Pi / 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			almostEq(t, Bearing(o, tc.to), tc.want, 1e-9)
		})
	}
}

func TestDestination_InvertsBearingAndDistance(t *testing.T) {
	a := New(42.5, 10.1, 30)
	b := Destination(a, 1.1, 25000)
	almostEq(t, Distance(a, b), 25000, 1e-3)
	almostEq(t, Bearing(a, b), 1.1, 1e-6)
	if b.Depth != 30 {
		t.Fatalf("depth=%g want 30", b.Depth)
	}
}

func TestAngleDiff_WrapsAround(t *testing.T) {
	almostEq(t, AngleDiff(0.1, 2*math.Pi-0.1), 0.2, 1e-12)
	almostEq(t, AngleDiff(0, math.Pi), math.Pi, 1e-12)
	almostEq(t, AngleDiff(-math.Pi/2, math.Pi/2), math.Pi, 1e-12)
}

func TestLess_Lexicographic(t *testing.T) {
	if !New(1, 5, 0).Less(New(2, 0, 0)) {
		t.Fatalf("lat must dominate")
	}
	if !New(1, 1, 5).Less(New(1, 2, 0)) {
		t.Fatalf("lon must dominate depth")
	}
	if New(1, 1, 1).Compare(New(1, 1, 1)) != 0 {
		t.Fatalf("equal points must compare 0")
	}
	if !New(89, 179, 1e6).Less(AnyPoint) {
		t.Fatalf("wildcard must sort last")
	}
}

func TestMarsden_Squares(t *testing.T) {
	cases := []struct {
		p      Point
		square int
	}{
		{New(5, -5, 0), 1},
		{New(5, 5, 0), 36},
		{New(15, -5, 0), 37},
		{New(-5, -5, 0), 300},
		{New(85, -5, 0), 901},
	}
	for _, tc := range cases {
		if got := MarsdenSquare(tc.p); got != tc.square {
			t.Fatalf("MarsdenSquare(%v)=%d want %d", tc.p, got, tc.square)
		}
	}
	if got := MarsdenOne(New(43.5, 10.2, 0)); got != MarsdenSquare(New(43.5, 10.2, 0))*100+30 {
		t.Fatalf("MarsdenOne=%d", got)
	}
}

func TestMeanDepth(t *testing.T) {
	almostEq(t, MeanDepth(nil), 0, 0)
	almostEq(t, MeanDepth([]Point{New(0, 0, 10), New(0, 0, 30)}), 20, 1e-12)
}
