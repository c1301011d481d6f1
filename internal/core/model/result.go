package model

import (
	"encoding/json"
	"fmt"
	"math"
	"math/cmplx"
	"sort"
)

// Pressure is a complex acoustic pressure computed for a channel.
type Pressure struct {
	Value complex128
}

func NewPressure(v complex128) Pressure { return Pressure{Value: v} }

func (p Pressure) Valid() bool {
	return !cmplx.IsNaN(p.Value) && !cmplx.IsInf(p.Value)
}

// TransmissionLoss returns -20 log10 |p| in dB.
func (p Pressure) TransmissionLoss() float64 {
	a := cmplx.Abs(p.Value)
	if a == 0 {
		return math.Inf(1)
	}
	return -20 * math.Log10(a)
}

func BlendPressure(a Pressure, alpha float64, b Pressure, beta float64) Pressure {
	return Pressure{Value: a.Value*complex(alpha, 0) + b.Value*complex(beta, 0)}
}

type complexJSON [2]float64

func (p Pressure) MarshalJSON() ([]byte, error) {
	return json.Marshal(complexJSON{real(p.Value), imag(p.Value)})
}

func (p *Pressure) UnmarshalJSON(b []byte) error {
	var c complexJSON
	if err := json.Unmarshal(b, &c); err != nil {
		return fmt.Errorf("decode pressure: %w", err)
	}
	p.Value = complex(c[0], c[1])
	return nil
}

// Tap is one arrival of a channel impulse response.
type Tap struct {
	Delay float64    `json:"delay"`
	Gain  complex128 `json:"-"`
}

type tapJSON struct {
	Delay float64     `json:"delay"`
	Gain  complexJSON `json:"gain"`
}

// TimeArr is a sparse channel impulse response: delay (s) to complex gain.
// Taps are kept sorted by delay; taps with equal delay are summed.
type TimeArr struct {
	taps []Tap
}

func NewTimeArr(taps ...Tap) *TimeArr {
	ta := &TimeArr{}
	for _, t := range taps {
		ta.Add(t.Delay, t.Gain)
	}
	return ta
}

// Add sums gain into the tap at delay, creating it if needed.
func (ta *TimeArr) Add(delay float64, gain complex128) {
	i := sort.Search(len(ta.taps), func(i int) bool { return ta.taps[i].Delay >= delay })
	if i < len(ta.taps) && ta.taps[i].Delay == delay {
		ta.taps[i].Gain += gain
		return
	}
	ta.taps = append(ta.taps, Tap{})
	copy(ta.taps[i+1:], ta.taps[i:])
	ta.taps[i] = Tap{Delay: delay, Gain: gain}
}

func (ta *TimeArr) Len() int {
	if ta == nil {
		return 0
	}
	return len(ta.taps)
}

func (ta *TimeArr) Valid() bool { return ta.Len() > 0 }

func (ta *TimeArr) Taps() []Tap { return append([]Tap(nil), ta.taps...) }

// Pressure is the coherent sum of all taps.
func (ta *TimeArr) Pressure() Pressure {
	var sum complex128
	for _, t := range ta.taps {
		sum += t.Gain
	}
	return Pressure{Value: sum}
}

func (ta *TimeArr) Clone() *TimeArr {
	if ta == nil {
		return nil
	}
	return &TimeArr{taps: ta.Taps()}
}

func (ta *TimeArr) Release() {
	if ta != nil {
		ta.taps = nil
	}
}

func BlendTimeArr(a *TimeArr, alpha float64, b *TimeArr, beta float64) *TimeArr {
	out := &TimeArr{}
	for _, t := range a.taps {
		out.Add(t.Delay, t.Gain*complex(alpha, 0))
	}
	for _, t := range b.taps {
		out.Add(t.Delay, t.Gain*complex(beta, 0))
	}
	return out
}

func (ta *TimeArr) MarshalJSON() ([]byte, error) {
	out := make([]tapJSON, len(ta.taps))
	for i, t := range ta.taps {
		out[i] = tapJSON{Delay: t.Delay, Gain: complexJSON{real(t.Gain), imag(t.Gain)}}
	}
	return json.Marshal(out)
}

func (ta *TimeArr) UnmarshalJSON(b []byte) error {
	var in []tapJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return fmt.Errorf("decode time arrivals: %w", err)
	}
	ta.taps = nil
	for _, t := range in {
		ta.Add(t.Delay, complex(t.Gain[0], t.Gain[1]))
	}
	return nil
}
