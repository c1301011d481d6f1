package deck41

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dhconnelly/rtreego"

	"github.com/mohammed-shakir/seaenv/internal/core/geo"
	"github.com/mohammed-shakir/seaenv/internal/core/model"
)

var noData = model.SedimentTypes{Main: model.SedimentNoData, Secondary: model.SedimentNoData}

// sample is one DECK41 core or grab classification.
type sample struct {
	at    geo.Point
	types model.SedimentTypes
}

// Bounds implements rtreego.Spatial. Points are indexed as degenerate
// rectangles in (lon, lat).
func (s *sample) Bounds() rtreego.Rect {
	return rtreego.Point{s.at.Lon, s.at.Lat}.ToRect(1e-9)
}

// PointTier answers with the nearest sample inside a search radius.
type PointTier struct {
	tree   *rtreego.Rtree
	n      int
	radius float64
}

func newPointTier(radius float64) *PointTier {
	// 2D, min=25 children, max=50 children
	return &PointTier{tree: rtreego.NewTree(2, 25, 50), radius: radius}
}

func (t *PointTier) add(s *sample) {
	t.tree.Insert(s)
	t.n++
}

func (t *PointTier) Len() int { return t.n }

// Types returns the classification of the sample nearest to p. The tree
// ranks candidates in degrees, so the winner is re-checked against the
// radius in meters on the sphere.
func (t *PointTier) Types(_ context.Context, p geo.Point) (model.SedimentTypes, error) {
	if t.n == 0 {
		return noData, nil
	}
	nn := t.tree.NearestNeighbor(rtreego.Point{p.Lon, p.Lat})
	s, ok := nn.(*sample)
	if !ok || s == nil {
		return noData, nil
	}
	if geo.Distance(s.at, p.Surface()) > t.radius {
		return noData, nil
	}
	return s.types, nil
}

// MarsdenTier holds one classification per Marsden square or one-degree
// sub-square.
type MarsdenTier struct {
	key   func(geo.Point) int
	types map[int]model.SedimentTypes
}

func newMarsdenTier(key func(geo.Point) int) *MarsdenTier {
	return &MarsdenTier{key: key, types: make(map[int]model.SedimentTypes)}
}

func (t *MarsdenTier) add(s *sample) { t.types[t.key(s.at)] = s.types }

func (t *MarsdenTier) Len() int { return len(t.types) }

func (t *MarsdenTier) Types(_ context.Context, p geo.Point) (model.SedimentTypes, error) {
	if v, ok := t.types[t.key(p)]; ok {
		return v, nil
	}
	return noData, nil
}

// parseType accepts a type name or its numeric DECK41 code. An empty field
// is no-data.
func parseType(s string) (model.SedimentType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.SedimentNoData, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		t := model.SedimentType(n)
		if !t.Known() {
			return model.SedimentNoData, fmt.Errorf("unknown sediment code %d", n)
		}
		return t, nil
	}
	return model.ParseSedimentType(s)
}
