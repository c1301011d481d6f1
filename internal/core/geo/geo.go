// Package geo provides geographic points and great-circle helpers.
package geo

import (
	"fmt"
	"math"

	"github.com/golang/geo/s2"
)

// EarthRadius is the mean earth radius in meters.
const EarthRadius = 6371000.0

// Point is a geographic position. Depth is in meters, positive down.
type Point struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Depth float64 `json:"depth"`
}

// AnyPoint is the wildcard anchor. It sorts after every concrete point.
var AnyPoint = Point{Lat: math.Inf(1), Lon: math.Inf(1), Depth: math.Inf(1)}

func New(lat, lon, depth float64) Point {
	return Point{Lat: lat, Lon: lon, Depth: depth}
}

func (p Point) IsAny() bool {
	return math.IsInf(p.Lat, 1) && math.IsInf(p.Lon, 1)
}

// Valid reports whether the coordinates are finite and in range.
func (p Point) Valid() bool {
	if p.IsAny() {
		return true
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180 &&
		!math.IsNaN(p.Depth) && !math.IsInf(p.Depth, 0)
}

// Less orders points lexicographically by lat, lon, depth.
func (p Point) Less(o Point) bool {
	if p.Lat != o.Lat {
		return p.Lat < o.Lat
	}
	if p.Lon != o.Lon {
		return p.Lon < o.Lon
	}
	return p.Depth < o.Depth
}

func (p Point) Compare(o Point) int {
	switch {
	case p.Less(o):
		return -1
	case o.Less(p):
		return 1
	default:
		return 0
	}
}

// Surface returns p with zero depth.
func (p Point) Surface() Point {
	return Point{Lat: p.Lat, Lon: p.Lon}
}

func (p Point) String() string {
	if p.IsAny() {
		return "(*)"
	}
	return fmt.Sprintf("(%.6f,%.6f,%.2f)", p.Lat, p.Lon, p.Depth)
}

func (p Point) latLng() s2.LatLng {
	return s2.LatLngFromDegrees(p.Lat, p.Lon)
}

// Distance returns the great-circle distance in meters, ignoring depth.
func Distance(a, b Point) float64 {
	return a.latLng().Distance(b.latLng()).Radians() * EarthRadius
}

// Bearing returns the initial great-circle bearing from a to b in radians,
// normalized into [0, 2π).
func Bearing(a, b Point) float64 {
	phi1 := a.Lat * math.Pi / 180
	phi2 := b.Lat * math.Pi / 180
	dl := (b.Lon - a.Lon) * math.Pi / 180

	y := math.Sin(dl) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dl)
	return NormalizeAngle(math.Atan2(y, x))
}

// Destination returns the point reached from a by travelling rng meters along
// the given initial bearing. Depth is carried over from a.
func Destination(a Point, bearing, rng float64) Point {
	phi1 := a.Lat * math.Pi / 180
	l1 := a.Lon * math.Pi / 180
	d := rng / EarthRadius

	phi2 := math.Asin(math.Sin(phi1)*math.Cos(d) + math.Cos(phi1)*math.Sin(d)*math.Cos(bearing))
	l2 := l1 + math.Atan2(math.Sin(bearing)*math.Sin(d)*math.Cos(phi1), math.Cos(d)-math.Sin(phi1)*math.Sin(phi2))

	lon := math.Mod(l2*180/math.Pi+540, 360) - 180
	return Point{Lat: phi2 * 180 / math.Pi, Lon: lon, Depth: a.Depth}
}

// NormalizeAngle wraps an angle in radians into [0, 2π).
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

// AngleDiff returns the absolute difference of two bearings folded into [0, π].
func AngleDiff(a, b float64) float64 {
	d := math.Abs(NormalizeAngle(a) - NormalizeAngle(b))
	if d > math.Pi {
		d = 2*math.Pi - d
	}
	return d
}

// MeanDepth returns the arithmetic mean depth of pts, or 0 when empty.
func MeanDepth(pts []Point) float64 {
	if len(pts) == 0 {
		return 0
	}
	var sum float64
	for _, p := range pts {
		sum += p.Depth
	}
	return sum / float64(len(pts))
}
