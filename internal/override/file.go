package override

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mohammed-shakir/seaenv/internal/core/geo"
	"github.com/mohammed-shakir/seaenv/internal/core/model"
	"github.com/mohammed-shakir/seaenv/internal/ocean"
)

// SSPFormat is the column layout tag on the first line of an SSP file.
type SSPFormat string

const (
	// range depth speed
	FormatSSP SSPFormat = "SSP"
	// range depth temperature salinity pressure speed
	FormatFull SSPFormat = "FULL"
	// range temperature salinity pressure
	FormatTSP SSPFormat = "TEMPERATURE_SALINITY_PRESSURE"
	// range depth temperature salinity
	FormatDTS SSPFormat = "DEPTH_TEMPERATURE_SALINITY"
)

func (f SSPFormat) columns() int {
	switch f {
	case FormatSSP:
		return 3
	case FormatFull:
		return 6
	case FormatTSP, FormatDTS:
		return 4
	}
	return 0
}

// RangeSSP is the profile valid at a range from the file anchor.
type RangeSSP struct {
	Range float64
	SSP   *model.SSP
}

type SSPFile struct {
	Format   SSPFormat
	Anchor   geo.Point
	Profiles []RangeSSP
}

type lineReader struct {
	sc   *bufio.Scanner
	line int
}

// next returns the fields of the next non-empty, non-comment line.
func (r *lineReader) next() ([]string, bool) {
	for r.sc.Scan() {
		r.line++
		text := strings.TrimSpace(r.sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		return strings.Fields(text), true
	}
	return nil, false
}

// ReadSSPFile reads the tag line, the "lat lon" anchor line and the sample
// rows. Rows sharing a range form one profile.
func ReadSSPFile(in io.Reader) (SSPFile, error) {
	r := &lineReader{sc: bufio.NewScanner(in)}

	tag, ok := r.next()
	if !ok {
		return SSPFile{}, scanErr(r, malformed("ssp file: missing format tag"))
	}
	format := SSPFormat(strings.ToUpper(tag[0]))
	cols := format.columns()
	if len(tag) != 1 || cols == 0 {
		return SSPFile{}, malformed("ssp file: unknown format tag %q", strings.Join(tag, " "))
	}

	head, ok := r.next()
	if !ok || len(head) != 2 {
		return SSPFile{}, scanErr(r, malformed("ssp file: line %d: expected anchor \"lat lon\"", r.line))
	}
	lat, err := parseFloat(head[0], "anchor latitude")
	if err != nil {
		return SSPFile{}, fmt.Errorf("ssp file: line %d: %w", r.line, err)
	}
	lon, err := parseFloat(head[1], "anchor longitude")
	if err != nil {
		return SSPFile{}, fmt.Errorf("ssp file: line %d: %w", r.line, err)
	}
	anchor := geo.New(lat, lon, 0)
	if !anchor.Valid() {
		return SSPFile{}, malformed("ssp file: anchor %s out of range", anchor)
	}

	byRange := map[float64]*model.SSP{}
	for {
		row, ok := r.next()
		if !ok {
			break
		}
		if len(row) != cols {
			return SSPFile{}, malformed("ssp file: line %d: expected %d columns for %s, got %d", r.line, cols, format, len(row))
		}
		v := make([]float64, cols)
		for i, f := range row {
			if v[i], err = parseFloat(f, "column"); err != nil {
				return SSPFile{}, fmt.Errorf("ssp file: line %d: %w", r.line, err)
			}
		}
		rng, depth, speed := rowSample(format, v, lat)
		if rng < 0 || depth < 0 || speed <= 0 {
			return SSPFile{}, malformed("ssp file: line %d: range %g depth %g speed %g out of range", r.line, rng, depth, speed)
		}
		p, ok := byRange[rng]
		if !ok {
			p = model.NewSSP()
			byRange[rng] = p
		}
		p.Set(depth, speed)
	}
	if err := r.sc.Err(); err != nil {
		return SSPFile{}, fmt.Errorf("ssp file: read: %w", err)
	}
	if len(byRange) == 0 {
		return SSPFile{}, malformed("ssp file: no samples")
	}

	out := SSPFile{Format: format, Anchor: anchor, Profiles: make([]RangeSSP, 0, len(byRange))}
	for rng, p := range byRange {
		out.Profiles = append(out.Profiles, RangeSSP{Range: rng, SSP: p})
	}
	sort.Slice(out.Profiles, func(i, j int) bool { return out.Profiles[i].Range < out.Profiles[j].Range })
	return out, nil
}

func rowSample(f SSPFormat, v []float64, lat float64) (rng, depth, speed float64) {
	switch f {
	case FormatSSP:
		return v[0], v[1], v[2]
	case FormatFull:
		return v[0], v[1], v[5]
	case FormatTSP:
		depth = ocean.DepthFromPressure(v[3], lat)
		return v[0], depth, ocean.SoundSpeed(v[1], v[2], depth)
	default:
		return v[0], v[1], ocean.SoundSpeed(v[2], v[3], v[1])
	}
}

// ReadBathymetryFile reads "range depth" rows until EOF.
func ReadBathymetryFile(in io.Reader) ([]RangeDepth, error) {
	r := &lineReader{sc: bufio.NewScanner(in)}
	var out []RangeDepth
	for {
		row, ok := r.next()
		if !ok {
			break
		}
		if len(row) != 2 {
			return nil, malformed("bathymetry file: line %d: expected 2 columns, got %d", r.line, len(row))
		}
		rng, err := parseFloat(row[0], "range")
		if err != nil {
			return nil, fmt.Errorf("bathymetry file: line %d: %w", r.line, err)
		}
		depth, err := parseFloat(row[1], "depth")
		if err != nil {
			return nil, fmt.Errorf("bathymetry file: line %d: %w", r.line, err)
		}
		if rng < 0 || depth < 0 {
			return nil, malformed("bathymetry file: line %d: negative range or depth", r.line)
		}
		out = append(out, RangeDepth{Range: rng, Depth: depth})
	}
	if err := r.sc.Err(); err != nil {
		return nil, fmt.Errorf("bathymetry file: read: %w", err)
	}
	if len(out) == 0 {
		return nil, malformed("bathymetry file: no samples")
	}
	return out, nil
}

func scanErr(r *lineReader, fallback error) error {
	if err := r.sc.Err(); err != nil {
		return fmt.Errorf("read: %w", err)
	}
	return fallback
}
