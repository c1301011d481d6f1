package model

import (
	"math"
	"sort"
)

// profile is a sorted x->y sample set with linear interpolation between
// samples and clamping at both ends.
type profile struct {
	xs []float64
	ys []float64
}

func (p *profile) set(x, y float64) {
	i := sort.SearchFloat64s(p.xs, x)
	if i < len(p.xs) && p.xs[i] == x {
		p.ys[i] = y
		return
	}
	p.xs = append(p.xs, 0)
	p.ys = append(p.ys, 0)
	copy(p.xs[i+1:], p.xs[i:])
	copy(p.ys[i+1:], p.ys[i:])
	p.xs[i] = x
	p.ys[i] = y
}

func (p *profile) at(x float64) float64 {
	n := len(p.xs)
	if n == 0 {
		return math.NaN()
	}
	if x <= p.xs[0] {
		return p.ys[0]
	}
	if x >= p.xs[n-1] {
		return p.ys[n-1]
	}
	i := sort.SearchFloat64s(p.xs, x)
	if p.xs[i] == x {
		return p.ys[i]
	}
	x0, x1 := p.xs[i-1], p.xs[i]
	w := (x - x0) / (x1 - x0)
	return p.ys[i-1]*(1-w) + p.ys[i]*w
}

func (p *profile) clone() profile {
	return profile{
		xs: append([]float64(nil), p.xs...),
		ys: append([]float64(nil), p.ys...),
	}
}

func (p *profile) scale(f float64) profile {
	out := p.clone()
	for i := range out.ys {
		out.ys[i] *= f
	}
	return out
}

// add sums two profiles over the union of their abscissae.
func (p *profile) add(o *profile) profile {
	if len(p.xs) == 0 {
		return o.clone()
	}
	if len(o.xs) == 0 {
		return p.clone()
	}
	var out profile
	for _, x := range p.xs {
		out.set(x, p.at(x)+o.at(x))
	}
	for _, x := range o.xs {
		out.set(x, p.at(x)+o.at(x))
	}
	return out
}

// truncate rounds every abscissa to a multiple of precision, keeping the
// first sample that lands on each rounded value.
func (p *profile) truncate(precision float64) profile {
	if precision <= 0 {
		return p.clone()
	}
	var out profile
	for i, x := range p.xs {
		r := math.Round(x/precision) * precision
		j := sort.SearchFloat64s(out.xs, r)
		if j < len(out.xs) && out.xs[j] == r {
			continue
		}
		out.set(r, p.ys[i])
	}
	return out
}

func (p *profile) release() {
	p.xs = nil
	p.ys = nil
}
