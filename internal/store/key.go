package store

import (
	"fmt"
	"math"
	"time"

	"github.com/mohammed-shakir/seaenv/internal/core/geo"
)

var (
	// AnyBearing and AnyRange match every query on their level. Both sort
	// after every concrete value.
	AnyBearing = math.Inf(1)
	AnyRange   = math.Inf(1)
)

// AnyTime is the wildcard time. It sorts before every concrete time.
var AnyTime = time.Time{}

// Key addresses one entry: anchor, bearing (radians), range (m) and time.
type Key struct {
	Anchor  geo.Point
	Bearing float64
	Range   float64
	Time    time.Time
}

// Everywhere is the global default key.
var Everywhere = Key{Anchor: geo.AnyPoint, Bearing: AnyBearing, Range: AnyRange, Time: AnyTime}

func KeyOf(anchor geo.Point, bearing, rng float64) Key {
	return Key{Anchor: anchor, Bearing: bearing, Range: rng, Time: AnyTime}
}

func (k Key) At(t time.Time) Key {
	k.Time = t
	return k
}

func (k Key) valid() bool {
	return !math.IsNaN(k.Bearing) && !math.IsNaN(k.Range) && !math.IsNaN(k.Anchor.Lat) &&
		!math.IsNaN(k.Anchor.Lon) && !math.IsNaN(k.Anchor.Depth)
}

// normalized folds concrete bearings into [0, 2π).
func (k Key) normalized() Key {
	if !isAny(k.Bearing) {
		k.Bearing = geo.NormalizeAngle(k.Bearing)
	}
	return k
}

func (k Key) String() string {
	b, r, t := "*", "*", "*"
	if !isAny(k.Bearing) {
		b = fmt.Sprintf("%.4f", k.Bearing)
	}
	if !isAny(k.Range) {
		r = fmt.Sprintf("%.2f", k.Range)
	}
	if !k.Time.IsZero() {
		t = k.Time.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("%s/%s/%s/%s", k.Anchor, b, r, t)
}

func isAny(f float64) bool { return math.IsInf(f, 1) }
