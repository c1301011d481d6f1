// Package override parses the user supplied environment override formats.
// Parsers have no side effects: they return fully validated values or an
// error wrapping ErrMalformed.
package override

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mohammed-shakir/seaenv/internal/core/model"
)

var ErrMalformed = errors.New("malformed override")

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}

// RangeDepth is one bathymetry sample at a range from the anchor.
type RangeDepth struct {
	Range float64
	Depth float64
}

func parseFloat(field, what string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
	if err != nil {
		return 0, malformed("%s %q: %v", what, field, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, malformed("%s %q is not finite", what, field)
	}
	return v, nil
}

// pairs splits "<N>|<x1>|<y1>|...|<xN>|<yN>" into N (x, y) pairs.
func pairs(s, xName, yName string) ([][2]float64, error) {
	fields := strings.Split(strings.TrimSpace(s), "|")
	n, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return nil, malformed("count %q: %v", fields[0], err)
	}
	if n <= 0 {
		return nil, malformed("count %d must be positive", n)
	}
	if len(fields) != 1+2*n {
		return nil, malformed("expected %d fields for %d samples, got %d", 1+2*n, n, len(fields))
	}
	out := make([][2]float64, n)
	for i := 0; i < n; i++ {
		x, err := parseFloat(fields[1+2*i], xName)
		if err != nil {
			return nil, err
		}
		y, err := parseFloat(fields[2+2*i], yName)
		if err != nil {
			return nil, err
		}
		out[i] = [2]float64{x, y}
	}
	return out, nil
}

// ParseSSP parses "<N>|<depth_1>|<ssp_1>|...|<depth_N>|<ssp_N>".
func ParseSSP(s string) (*model.SSP, error) {
	ps, err := pairs(s, "depth", "sound speed")
	if err != nil {
		return nil, fmt.Errorf("ssp: %w", err)
	}
	out := model.NewSSP()
	for _, p := range ps {
		if p[0] < 0 {
			return nil, fmt.Errorf("ssp: %w", malformed("negative depth %g", p[0]))
		}
		if p[1] <= 0 {
			return nil, fmt.Errorf("ssp: %w", malformed("non-positive sound speed %g", p[1]))
		}
		out.Set(p[0], p[1])
	}
	return out, nil
}

// ParseBathymetry parses "<N>|<range_1>|<depth_1>|...". A single negative
// depth rejects the whole string.
func ParseBathymetry(s string) ([]RangeDepth, error) {
	ps, err := pairs(s, "range", "depth")
	if err != nil {
		return nil, fmt.Errorf("bathymetry: %w", err)
	}
	out := make([]RangeDepth, len(ps))
	for i, p := range ps {
		if p[0] < 0 {
			return nil, fmt.Errorf("bathymetry: %w", malformed("negative range %g", p[0]))
		}
		if p[1] < 0 {
			return nil, fmt.Errorf("bathymetry: %w", malformed("negative depth %g at range %g", p[1], p[0]))
		}
		out[i] = RangeDepth{Range: p[0], Depth: p[1]}
	}
	return out, nil
}

// ParseAltimetry parses "<N>|<range_1>|<height_1>|...".
func ParseAltimetry(s string) (*model.Altimetry, error) {
	ps, err := pairs(s, "range", "height")
	if err != nil {
		return nil, fmt.Errorf("altimetry: %w", err)
	}
	out := model.NewAltimetry()
	for _, p := range ps {
		if p[0] < 0 {
			return nil, fmt.Errorf("altimetry: %w", malformed("negative range %g", p[0]))
		}
		out.Set(p[0], p[1])
	}
	return out, nil
}

// ParseSediment parses "<type_name>|<vel_c>|<vel_s>|<density>|<att_c>|<att_s>".
func ParseSediment(s string) (model.Sediment, error) {
	fields := strings.Split(strings.TrimSpace(s), "|")
	if len(fields) != 6 {
		return model.Sediment{}, fmt.Errorf("sediment: %w", malformed("expected 6 fields, got %d", len(fields)))
	}
	name := strings.TrimSpace(fields[0])
	if name == "" {
		return model.Sediment{}, fmt.Errorf("sediment: %w", malformed("empty type name"))
	}
	var v [5]float64
	names := [5]string{"vel_c", "vel_s", "density", "att_c", "att_s"}
	for i := range v {
		f, err := parseFloat(fields[i+1], names[i])
		if err != nil {
			return model.Sediment{}, fmt.Errorf("sediment: %w", err)
		}
		if f < 0 {
			return model.Sediment{}, fmt.Errorf("sediment: %w", malformed("negative %s %g", names[i], f))
		}
		v[i] = f
	}
	out := model.Sediment{Type: name, VelC: v[0], VelS: v[1], Density: v[2], AttC: v[3], AttS: v[4]}
	if !out.Valid() {
		return model.Sediment{}, fmt.Errorf("sediment: %w", malformed("vel_c and density must be positive"))
	}
	return out, nil
}
