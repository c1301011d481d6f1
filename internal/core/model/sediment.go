// Package model defines the environmental payloads returned to the simulator.
package model

import (
	"fmt"
	"strings"
)

// SedimentType is the DECK41 seafloor classification code.
type SedimentType int

const (
	SedimentGravel SedimentType = iota
	SedimentSand
	SedimentSilt
	SedimentClay
	SedimentOoze
	SedimentMud
	SedimentRock
	SedimentOrganic
	SedimentNodules
	SedimentHardBottom
	SedimentNoData
)

var sedimentNames = [...]string{
	SedimentGravel:     "gravel",
	SedimentSand:       "sand",
	SedimentSilt:       "silt",
	SedimentClay:       "clay",
	SedimentOoze:       "ooze",
	SedimentMud:        "mud",
	SedimentRock:       "rock",
	SedimentOrganic:    "organic",
	SedimentNodules:    "nodules",
	SedimentHardBottom: "hard-bottom",
	SedimentNoData:     "no-data",
}

func (t SedimentType) String() string {
	if t < 0 || int(t) >= len(sedimentNames) {
		return fmt.Sprintf("sediment(%d)", int(t))
	}
	return sedimentNames[t]
}

func (t SedimentType) Known() bool {
	return t >= SedimentGravel && t <= SedimentNoData
}

// ParseSedimentType accepts the lower-case names, with or without the dash.
func ParseSedimentType(s string) (SedimentType, error) {
	n := strings.ToLower(strings.TrimSpace(s))
	n = strings.ReplaceAll(n, "_", "-")
	for i, name := range sedimentNames {
		if n == name || n == strings.ReplaceAll(name, "-", "") {
			return SedimentType(i), nil
		}
	}
	return SedimentNoData, fmt.Errorf("unknown sediment type %q", s)
}

// SedimentTypes is the (main, secondary) classification of one location.
type SedimentTypes struct {
	Main      SedimentType
	Secondary SedimentType
}

func (t SedimentTypes) String() string {
	return t.Main.String() + "/" + t.Secondary.String()
}

// Sediment carries the geoacoustic parameters of the seafloor.
// Speeds are m/s, density g/cm^3, attenuations dB/wavelength.
type Sediment struct {
	Type    string  `json:"type"`
	VelC    float64 `json:"vel_c"`
	VelS    float64 `json:"vel_s"`
	Density float64 `json:"density"`
	AttC    float64 `json:"att_c"`
	AttS    float64 `json:"att_s"`
	Depth   float64 `json:"depth"`
}

func (s Sediment) Valid() bool {
	return s.Type != "" && s.VelC > 0 && s.Density > 0
}

func (s Sediment) WithDepth(d float64) Sediment {
	s.Depth = d
	return s
}

// Scale multiplies every numeric parameter by f.
func (s Sediment) Scale(f float64) Sediment {
	return Sediment{
		Type:    s.Type,
		VelC:    s.VelC * f,
		VelS:    s.VelS * f,
		Density: s.Density * f,
		AttC:    s.AttC * f,
		AttS:    s.AttS * f,
		Depth:   s.Depth * f,
	}
}

// Add sums the parameters of two sediments. An invalid operand is ignored.
func (s Sediment) Add(o Sediment) Sediment {
	if s.Type == "" {
		return o
	}
	if o.Type == "" {
		return s
	}
	name := s.Type
	if o.Type != s.Type {
		name = s.Type + "+" + o.Type
	}
	return Sediment{
		Type:    name,
		VelC:    s.VelC + o.VelC,
		VelS:    s.VelS + o.VelS,
		Density: s.Density + o.Density,
		AttC:    s.AttC + o.AttC,
		AttS:    s.AttS + o.AttS,
		Depth:   s.Depth + o.Depth,
	}
}

func BlendSediment(a Sediment, alpha float64, b Sediment, beta float64) Sediment {
	return a.Scale(alpha).Add(b.Scale(beta))
}

func (s Sediment) String() string {
	return fmt.Sprintf("%s{velc=%.2f vels=%.2f dens=%.3f attc=%.3f atts=%.3f depth=%.2f}",
		s.Type, s.VelC, s.VelS, s.Density, s.AttC, s.AttS, s.Depth)
}
