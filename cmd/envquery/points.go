package main

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mohammed-shakir/seaenv/internal/core/geo"
	"github.com/mohammed-shakir/seaenv/internal/store"
)

const deg = math.Pi / 180

var (
	anyBearing = store.AnyBearing
	anyRange   = store.AnyRange
)

// parsePoint reads "lat,lon" or "lat,lon,depth".
func parsePoint(s string) (geo.Point, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) < 2 || len(parts) > 3 {
		return geo.Point{}, fmt.Errorf("point %q: want lat,lon[,depth]", s)
	}
	var v [3]float64
	for i, f := range parts {
		x, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return geo.Point{}, fmt.Errorf("point %q: %w", s, err)
		}
		v[i] = x
	}
	p := geo.New(v[0], v[1], v[2])
	if !p.Valid() {
		return geo.Point{}, fmt.Errorf("point %q: out of range", s)
	}
	return p, nil
}

func parsePoints(s string) ([]geo.Point, error) {
	var out []geo.Point
	for _, f := range strings.Split(s, ";") {
		if strings.TrimSpace(f) == "" {
			continue
		}
		p, err := parsePoint(f)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, errors.New("no points")
	}
	return out, nil
}
