package sediment

import "github.com/mohammed-shakir/seaenv/internal/core/model"

// Catalog maps a classification to its canonical geoacoustic parameters.
type Catalog map[model.SedimentType]model.Sediment

// DefaultCatalog follows the usual compilations of sediment geoacoustic
// properties (compressional/shear speed in m/s, density in g/cm^3,
// attenuation in dB/wavelength).
func DefaultCatalog() Catalog {
	return Catalog{
		model.SedimentGravel:     {Type: "gravel", VelC: 1800, VelS: 180, Density: 2.0, AttC: 0.6, AttS: 1.5},
		model.SedimentSand:       {Type: "sand", VelC: 1650, VelS: 110, Density: 1.9, AttC: 0.8, AttS: 2.5},
		model.SedimentSilt:       {Type: "silt", VelC: 1575, VelS: 80, Density: 1.7, AttC: 1.0, AttS: 1.5},
		model.SedimentClay:       {Type: "clay", VelC: 1500, VelS: 50, Density: 1.5, AttC: 0.2, AttS: 1.0},
		model.SedimentOoze:       {Type: "ooze", VelC: 1520, VelS: 60, Density: 1.45, AttC: 0.3, AttS: 1.0},
		model.SedimentMud:        {Type: "mud", VelC: 1550, VelS: 70, Density: 1.6, AttC: 0.5, AttS: 1.2},
		model.SedimentRock:       {Type: "rock", VelC: 3000, VelS: 1500, Density: 2.4, AttC: 0.1, AttS: 0.2},
		model.SedimentOrganic:    {Type: "organic", VelC: 1490, VelS: 40, Density: 1.3, AttC: 0.3, AttS: 1.0},
		model.SedimentNodules:    {Type: "nodules", VelC: 2000, VelS: 600, Density: 2.1, AttC: 0.4, AttS: 1.0},
		model.SedimentHardBottom: {Type: "hard-bottom", VelC: 2400, VelS: 1000, Density: 2.2, AttC: 0.2, AttS: 0.5},
	}
}

// Lookup returns the parameters of t at the given depth.
func (c Catalog) Lookup(t model.SedimentType, depth float64) (model.Sediment, bool) {
	s, ok := c[t]
	if !ok {
		return model.Sediment{}, false
	}
	return s.WithDepth(depth), true
}
