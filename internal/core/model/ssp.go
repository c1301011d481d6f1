package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// SSP is a sound speed profile: depth (m) to speed of sound (m/s).
type SSP struct {
	p profile
}

type SSPSample struct {
	Depth float64 `json:"depth"`
	Speed float64 `json:"speed"`
}

func NewSSP(samples ...SSPSample) *SSP {
	s := &SSP{}
	for _, v := range samples {
		s.Set(v.Depth, v.Speed)
	}
	return s
}

func (s *SSP) Set(depth, speed float64) { s.p.set(depth, speed) }

func (s *SSP) Len() int {
	if s == nil {
		return 0
	}
	return len(s.p.xs)
}

func (s *SSP) Valid() bool { return s.Len() > 0 }

// SpeedAt interpolates linearly between samples and clamps outside them.
func (s *SSP) SpeedAt(depth float64) float64 { return s.p.at(depth) }

// MaxDepth is the deepest sample, or NaN for an empty profile.
func (s *SSP) MaxDepth() float64 {
	if s.Len() == 0 {
		return math.NaN()
	}
	return s.p.xs[len(s.p.xs)-1]
}

func (s *SSP) Samples() []SSPSample {
	out := make([]SSPSample, s.Len())
	for i := range out {
		out[i] = SSPSample{Depth: s.p.xs[i], Speed: s.p.ys[i]}
	}
	return out
}

func (s *SSP) Clone() *SSP {
	if s == nil {
		return nil
	}
	return &SSP{p: s.p.clone()}
}

func (s *SSP) Scale(f float64) *SSP { return &SSP{p: s.p.scale(f)} }

func (s *SSP) Add(o *SSP) *SSP { return &SSP{p: s.p.add(&o.p)} }

// Truncate returns a copy whose depths are rounded to the given precision.
func (s *SSP) Truncate(precision float64) *SSP { return &SSP{p: s.p.truncate(precision)} }

// Release drops the samples; the profile is invalid afterwards.
func (s *SSP) Release() {
	if s != nil {
		s.p.release()
	}
}

func BlendSSP(a *SSP, alpha float64, b *SSP, beta float64) *SSP {
	return a.Scale(alpha).Add(b.Scale(beta))
}

func (s *SSP) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Samples())
}

func (s *SSP) UnmarshalJSON(b []byte) error {
	var in []SSPSample
	if err := json.Unmarshal(b, &in); err != nil {
		return fmt.Errorf("decode ssp: %w", err)
	}
	s.p = profile{}
	for _, v := range in {
		s.Set(v.Depth, v.Speed)
	}
	return nil
}

func (s *SSP) String() string {
	var b strings.Builder
	b.WriteString("ssp{")
	for i, v := range s.Samples() {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%.2f:%.2f", v.Depth, v.Speed)
	}
	b.WriteByte('}')
	return b.String()
}
