package model

import "encoding/json"

// Altimetry is the sea surface height profile along range (m -> m).
type Altimetry struct {
	p profile
}

type AltimetrySample struct {
	Range  float64 `json:"range"`
	Height float64 `json:"height"`
}

func NewAltimetry(samples ...AltimetrySample) *Altimetry {
	a := &Altimetry{}
	for _, v := range samples {
		a.Set(v.Range, v.Height)
	}
	return a
}

// FlatAltimetry is a zero height surface.
func FlatAltimetry() *Altimetry {
	return NewAltimetry(AltimetrySample{Range: 0, Height: 0})
}

func (a *Altimetry) Set(rng, height float64) { a.p.set(rng, height) }

func (a *Altimetry) Len() int {
	if a == nil {
		return 0
	}
	return len(a.p.xs)
}

func (a *Altimetry) Valid() bool { return a.Len() > 0 }

func (a *Altimetry) HeightAt(rng float64) float64 { return a.p.at(rng) }

func (a *Altimetry) Samples() []AltimetrySample {
	out := make([]AltimetrySample, a.Len())
	for i := range out {
		out[i] = AltimetrySample{Range: a.p.xs[i], Height: a.p.ys[i]}
	}
	return out
}

func (a *Altimetry) Clone() *Altimetry {
	if a == nil {
		return nil
	}
	return &Altimetry{p: a.p.clone()}
}

func (a *Altimetry) Release() {
	if a != nil {
		a.p.release()
	}
}

func BlendAltimetry(a *Altimetry, alpha float64, b *Altimetry, beta float64) *Altimetry {
	sa, sb := a.p.scale(alpha), b.p.scale(beta)
	return &Altimetry{p: sa.add(&sb)}
}

func (a *Altimetry) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Samples())
}
