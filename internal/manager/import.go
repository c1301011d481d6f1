package manager

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/mohammed-shakir/seaenv/internal/core/geo"
	"github.com/mohammed-shakir/seaenv/internal/override"
	"github.com/mohammed-shakir/seaenv/internal/store"
)

// Import functions parse their whole input before touching a store, so a
// malformed input leaves the overrides as they were. Committed entries
// replace whatever was stored under the same key. Wildcards (geo.AnyPoint,
// store.AnyBearing, store.AnyRange, store.AnyTime) are accepted on every
// level.

func checkKey(what string, anchor geo.Point, bearing, rng float64) error {
	if math.IsNaN(bearing) || math.IsNaN(rng) || !anchor.Valid() {
		return fmt.Errorf("import %s: %w: invalid key %s bearing=%g range=%g", what, override.ErrMalformed, anchor, bearing, rng)
	}
	return nil
}

func (m *Manager) rejected(what string, err error) error {
	m.logger.Warn("override import rejected", "kind", what, "err", err)
	return fmt.Errorf("import %s: %w", what, err)
}

// ImportSSP stores the profile "<N>|<depth>|<speed>..." for one key.
func (m *Manager) ImportSSP(tx geo.Point, bearing, rng float64, t time.Time, s string) error {
	if err := checkKey("ssp", tx, bearing, rng); err != nil {
		return err
	}
	p, err := override.ParseSSP(s)
	if err != nil {
		return m.rejected("ssp", err)
	}
	m.ov.ssp.Replace(p, store.KeyOf(tx, bearing, rng).At(t))
	m.publishSizes()
	return nil
}

// ImportSSPFile stores every profile of an SSP file under the file's
// anchor, one key per range.
func (m *Manager) ImportSSPFile(r io.Reader, bearing float64, t time.Time) error {
	f, err := override.ReadSSPFile(r)
	if err != nil {
		return m.rejected("ssp file", err)
	}
	if err := checkKey("ssp file", f.Anchor, bearing, 0); err != nil {
		for _, p := range f.Profiles {
			p.SSP.Release()
		}
		return err
	}
	for _, p := range f.Profiles {
		m.ov.ssp.Replace(p.SSP, store.KeyOf(f.Anchor, bearing, p.Range).At(t))
	}
	m.logger.Info("ssp file imported", "format", string(f.Format), "anchor", f.Anchor.String(), "profiles", len(f.Profiles))
	m.publishSizes()
	return nil
}

// ImportBathymetry stores "<N>|<range>|<depth>..." as one entry per range
// along the given bearing from tx.
func (m *Manager) ImportBathymetry(tx geo.Point, bearing float64, s string) error {
	if err := checkKey("bathymetry", tx, bearing, 0); err != nil {
		return err
	}
	rows, err := override.ParseBathymetry(s)
	if err != nil {
		return m.rejected("bathymetry", err)
	}
	m.commitBathymetry(tx, bearing, rows)
	return nil
}

// ImportBathymetryFile is ImportBathymetry for a file of "range depth" rows.
func (m *Manager) ImportBathymetryFile(tx geo.Point, bearing float64, r io.Reader) error {
	if err := checkKey("bathymetry file", tx, bearing, 0); err != nil {
		return err
	}
	rows, err := override.ReadBathymetryFile(r)
	if err != nil {
		return m.rejected("bathymetry file", err)
	}
	m.commitBathymetry(tx, bearing, rows)
	return nil
}

func (m *Manager) commitBathymetry(tx geo.Point, bearing float64, rows []override.RangeDepth) {
	for _, rd := range rows {
		m.ov.bathymetry.Replace(rd.Depth, store.KeyOf(tx, bearing, rd.Range))
	}
	m.publishSizes()
}

// ImportSediment stores "<type>|<vel_c>|<vel_s>|<density>|<att_c>|<att_s>".
func (m *Manager) ImportSediment(tx geo.Point, bearing, rng float64, s string) error {
	if err := checkKey("sediment", tx, bearing, rng); err != nil {
		return err
	}
	sed, err := override.ParseSediment(s)
	if err != nil {
		return m.rejected("sediment", err)
	}
	m.ov.sediment.Replace(sed, store.KeyOf(tx, bearing, rng))
	m.publishSizes()
	return nil
}

// ImportAltimetry stores the surface profile "<N>|<range>|<height>...".
func (m *Manager) ImportAltimetry(tx geo.Point, bearing, rng float64, t time.Time, s string) error {
	if err := checkKey("altimetry", tx, bearing, rng); err != nil {
		return err
	}
	a, err := override.ParseAltimetry(s)
	if err != nil {
		return m.rejected("altimetry", err)
	}
	m.ov.altimetry.Replace(a, store.KeyOf(tx, bearing, rng).At(t))
	m.publishSizes()
	return nil
}
