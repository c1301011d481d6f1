// Package store implements the spatial/temporal override container.
//
// Entries are organized on four sorted levels: anchor point, bearing from the
// anchor, range from the anchor and time. Wildcard keys on any level make an
// entry valid for every query on that level, so a single entry under
// Everywhere acts as a global default. Values are resolved either by exact
// key (Get) or by nearest neighbor from a transmitter/receiver pair
// (Nearest); the time level interpolates between bracketing entries when the
// store has a Blender.
package store

import (
	"math"
	"slices"
	"time"

	"github.com/mohammed-shakir/seaenv/internal/core/geo"
)

type timeEntry[V any] struct {
	at time.Time
	v  V
}

type rangeNode[V any] struct {
	rng   float64
	times []timeEntry[V]
}

type bearingNode[V any] struct {
	bearing float64
	ranges  []rangeNode[V]
}

type anchorNode[V any] struct {
	point    geo.Point
	bearings []bearingNode[V]
}

// Store is not safe for concurrent use.
type Store[V any] struct {
	policy  Policy[V]
	blend   Blender[V]
	anchors []anchorNode[V]
}

// New returns a store holding values by value.
func New[V any](opts ...Option[V]) *Store[V] {
	s := &Store[V]{policy: ValuePolicy[V]{}}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NewOwned returns a store that releases every value it discards.
func NewOwned[V Releaser](opts ...Option[V]) *Store[V] {
	s := &Store[V]{policy: OwnedPolicy[V]{}}
	for _, o := range opts {
		o(s)
	}
	return s
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func findAnchor[V any](ns []anchorNode[V], p geo.Point) (int, bool) {
	return slices.BinarySearchFunc(ns, p, func(n anchorNode[V], p geo.Point) int { return n.point.Compare(p) })
}

func findBearing[V any](ns []bearingNode[V], b float64) (int, bool) {
	return slices.BinarySearchFunc(ns, b, func(n bearingNode[V], b float64) int { return cmpFloat(n.bearing, b) })
}

func findRange[V any](ns []rangeNode[V], r float64) (int, bool) {
	return slices.BinarySearchFunc(ns, r, func(n rangeNode[V], r float64) int { return cmpFloat(n.rng, r) })
}

func findTime[V any](es []timeEntry[V], t time.Time) (int, bool) {
	return slices.BinarySearchFunc(es, t, func(e timeEntry[V], t time.Time) int { return e.at.Compare(t) })
}

// leaf returns the time slice for the exact spatial key, creating the path
// when create is set.
func (s *Store[V]) leaf(k Key, create bool) *rangeNode[V] {
	ai, ok := findAnchor(s.anchors, k.Anchor)
	if !ok {
		if !create {
			return nil
		}
		s.anchors = slices.Insert(s.anchors, ai, anchorNode[V]{point: k.Anchor})
	}
	a := &s.anchors[ai]

	bi, ok := findBearing(a.bearings, k.Bearing)
	if !ok {
		if !create {
			return nil
		}
		a.bearings = slices.Insert(a.bearings, bi, bearingNode[V]{bearing: k.Bearing})
	}
	b := &a.bearings[bi]

	ri, ok := findRange(b.ranges, k.Range)
	if !ok {
		if !create {
			return nil
		}
		b.ranges = slices.Insert(b.ranges, ri, rangeNode[V]{rng: k.Range})
	}
	return &b.ranges[ri]
}

// Insert adds v at k. It returns false, releasing v, when an entry already
// exists at k or the key is malformed.
func (s *Store[V]) Insert(v V, k Key) bool {
	if !k.valid() {
		s.policy.Release(v)
		return false
	}
	k = k.normalized()
	r := s.leaf(k, true)
	ti, ok := findTime(r.times, k.Time)
	if ok {
		s.policy.Release(v)
		return false
	}
	r.times = slices.Insert(r.times, ti, timeEntry[V]{at: k.Time, v: v})
	return true
}

// Replace stores v at k, releasing any value previously there.
func (s *Store[V]) Replace(v V, k Key) bool {
	if !k.valid() {
		s.policy.Release(v)
		return false
	}
	k = k.normalized()
	r := s.leaf(k, true)
	ti, ok := findTime(r.times, k.Time)
	if ok {
		s.policy.Release(r.times[ti].v)
		r.times[ti].v = v
		return true
	}
	r.times = slices.Insert(r.times, ti, timeEntry[V]{at: k.Time, v: v})
	return true
}

// Erase removes the entry at k and prunes the levels it leaves empty.
func (s *Store[V]) Erase(k Key) bool {
	if !k.valid() {
		return false
	}
	k = k.normalized()
	ai, ok := findAnchor(s.anchors, k.Anchor)
	if !ok {
		return false
	}
	a := &s.anchors[ai]
	bi, ok := findBearing(a.bearings, k.Bearing)
	if !ok {
		return false
	}
	b := &a.bearings[bi]
	ri, ok := findRange(b.ranges, k.Range)
	if !ok {
		return false
	}
	r := &b.ranges[ri]
	ti, ok := findTime(r.times, k.Time)
	if !ok {
		return false
	}

	s.policy.Release(r.times[ti].v)
	r.times = slices.Delete(r.times, ti, ti+1)
	if len(r.times) == 0 {
		b.ranges = slices.Delete(b.ranges, ri, ri+1)
	}
	if len(b.ranges) == 0 {
		a.bearings = slices.Delete(a.bearings, bi, bi+1)
	}
	if len(a.bearings) == 0 {
		s.anchors = slices.Delete(s.anchors, ai, ai+1)
	}
	return true
}

// Clear releases every value and empties the store.
func (s *Store[V]) Clear() {
	s.Walk(func(_ Key, v V) bool {
		s.policy.Release(v)
		return true
	})
	s.anchors = nil
}

func (s *Store[V]) Empty() bool { return len(s.anchors) == 0 }

func (s *Store[V]) Len() int {
	n := 0
	for _, a := range s.anchors {
		for _, b := range a.bearings {
			for _, r := range b.ranges {
				n += len(r.times)
			}
		}
	}
	return n
}

// Walk visits entries in key order until fn returns false.
func (s *Store[V]) Walk(fn func(k Key, v V) bool) {
	for _, a := range s.anchors {
		for _, b := range a.bearings {
			for _, r := range b.ranges {
				for _, e := range r.times {
					k := Key{Anchor: a.point, Bearing: b.bearing, Range: r.rng, Time: e.at}
					if !fn(k, e.v) {
						return
					}
				}
			}
		}
	}
}

// Get resolves k with graceful degradation: the global default wins when
// present; otherwise the anchor must match exactly and bearing and range are
// resolved by lower bound, falling back to the last element.
func (s *Store[V]) Get(k Key) (V, bool) {
	var zero V
	if !k.valid() {
		return zero, false
	}
	k = k.normalized()
	if r := s.leaf(Everywhere, false); r != nil {
		return s.resolveTime(r.times, k.Time)
	}

	ai, ok := findAnchor(s.anchors, k.Anchor)
	if !ok {
		return zero, false
	}
	bs := s.anchors[ai].bearings
	bi, _ := findBearing(bs, k.Bearing)
	if bi == len(bs) {
		bi--
	}
	rs := bs[bi].ranges
	ri, _ := findRange(rs, k.Range)
	if ri == len(rs) {
		ri--
	}
	return s.resolveTime(rs[ri].times, k.Time)
}

// Nearest resolves the entry geometrically closest to rx. Each anchor (tx for
// the wildcard anchor) is the origin of a plane-wave sector: the receiver's
// range is projected onto the nearest stored bearing and matched against the
// stored ranges by euclidean distance.
func (s *Store[V]) Nearest(tx, rx geo.Point, t time.Time) (V, bool) {
	var zero V
	if len(s.anchors) == 0 {
		return zero, false
	}

	best := math.Inf(1)
	var leaf *rangeNode[V]
	for i := range s.anchors {
		a := &s.anchors[i]
		origin := a.point
		if origin.IsAny() {
			origin = tx
		}
		bearing := geo.Bearing(origin, rx)
		rng := geo.Distance(origin, rx)

		bi, _ := findBearing(a.bearings, bearing)
		if bi == len(a.bearings) {
			bi--
		}
		b := &a.bearings[bi]

		var dTheta float64
		if !isAny(b.bearing) {
			dTheta = geo.AngleDiff(b.bearing, bearing)
		}
		ort := rng * math.Sin(dTheta)
		proj := math.Sqrt(math.Max(rng*rng-ort*ort, 0))

		ri, dist := nearestRange(b.ranges, ort, proj)

		if dist < best {
			best = dist
			leaf = &b.ranges[ri]
			if dist == 0 {
				break
			}
		}
	}
	if leaf == nil {
		return zero, false
	}
	return s.resolveTime(leaf.times, t)
}

// nearestRange picks the stored range closest to proj. Candidates at either
// end or matching exactly are taken as-is; otherwise the lower-bound
// candidate is compared with its predecessor and equal distances keep the
// upper one.
func nearestRange[V any](rs []rangeNode[V], ort, proj float64) (int, float64) {
	ri, exact := findRange(rs, proj)
	switch {
	case ri == len(rs):
		ri--
		return ri, rangeDistance(ort, proj, rs[ri].rng)
	case ri == 0 || exact:
		return ri, rangeDistance(ort, proj, rs[ri].rng)
	}
	dc := rangeDistance(ort, proj, rs[ri].rng)
	dp := rangeDistance(ort, proj, rs[ri-1].rng)
	if dp < dc {
		return ri - 1, dp
	}
	return ri, dc
}

// rangeDistance scores a wildcard range by the full offset from the anchor,
// so anchors holding only wildcard leaves still rank by distance.
func rangeDistance(ort, proj, stored float64) float64 {
	if isAny(stored) {
		return math.Hypot(ort, proj)
	}
	d := proj - stored
	return math.Sqrt(ort*ort + d*d)
}

// resolveTime picks the value for t. The wildcard entry answers AnyTime
// queries and concrete queries on a level without concrete times.
func (s *Store[V]) resolveTime(es []timeEntry[V], t time.Time) (V, bool) {
	var zero V
	if len(es) == 0 {
		return zero, false
	}
	if t.IsZero() {
		return es[0].v, true
	}
	if es[0].at.IsZero() {
		if len(es) == 1 {
			return es[0].v, true
		}
		es = es[1:]
	}
	return s.interpolate(es, t)
}

// interpolate treats the concrete time keys as one cycle: queries before the
// first key clamp to it, queries past the last key wrap around.
func (s *Store[V]) interpolate(es []timeEntry[V], t time.Time) (V, bool) {
	var zero V
	switch len(es) {
	case 0:
		return zero, false
	case 1:
		return es[0].v, true
	}
	if i, ok := findTime(es, t); ok {
		return es[i].v, true
	}

	first, last := es[0].at, es[len(es)-1].at
	if t.Before(first) {
		return es[0].v, true
	}
	if t.After(last) {
		span := last.Sub(first)
		t = first.Add(t.Sub(first) % span)
	}

	u := slices.IndexFunc(es, func(e timeEntry[V]) bool { return e.at.After(t) })
	switch {
	case u == 0:
		return es[0].v, true
	case u < 0:
		return es[len(es)-1].v, true
	}
	lower, upper := es[u-1], es[u]
	if lower.at.Equal(t) || s.blend == nil {
		return lower.v, true
	}

	width := upper.at.Sub(lower.at).Seconds()
	alpha := math.Abs(upper.at.Sub(t).Seconds()) / width
	beta := math.Abs(t.Sub(lower.at).Seconds()) / width
	return s.blend(lower.v, alpha, upper.v, beta), true
}
