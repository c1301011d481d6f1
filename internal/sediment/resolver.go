package sediment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mohammed-shakir/seaenv/internal/core/geo"
	"github.com/mohammed-shakir/seaenv/internal/core/model"
	"github.com/mohammed-shakir/seaenv/internal/core/observability"
)

// Tier identifies one resolution level of the cascade.
type Tier int

const (
	TierPoint Tier = iota
	TierMarsdenOne
	TierMarsdenSquare
)

func (t Tier) String() string {
	switch t {
	case TierPoint:
		return "point"
	case TierMarsdenOne:
		return "marsden_one"
	case TierMarsdenSquare:
		return "marsden_square"
	}
	return fmt.Sprintf("tier_%d", int(t))
}

// TierSource returns the DECK41 classification of a location. Locations
// without data report (no-data, no-data).
type TierSource interface {
	Types(ctx context.Context, p geo.Point) (model.SedimentTypes, error)
}

// ErrNoParameters reports a classification missing from the catalog.
var ErrNoParameters = errors.New("no geoacoustic parameters")

// UnresolvedError is returned when every tier lacks usable data, or when
// the accepted outcome cannot be built. Err holds the build failure.
type UnresolvedError struct {
	Point geo.Point
	Tiers []model.SedimentTypes
	Err   error
}

func (e *UnresolvedError) Error() string {
	msg := fmt.Sprintf("sediment unresolved at %s after %d tiers %v", e.Point, len(e.Tiers), e.Tiers)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UnresolvedError) Unwrap() error { return e.Err }

// ClassificationError reports a type pair no rule covers.
type ClassificationError struct {
	Point geo.Point
	Tier  Tier
	Types model.SedimentTypes
	State State
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("sediment %s at %s tier %s matches no rule (state %s)", e.Types, e.Point, e.Tier, e.State)
}

// Outcome is the accepted result of one cascade.
type Outcome struct {
	Types model.SedimentTypes
	State State
	Tier  Tier
	Rule  Rule
}

type step struct {
	types model.SedimentTypes
	state State
	tier  Tier
}

type Resolver struct {
	tiers   []TierSource
	catalog Catalog
	logger  *slog.Logger
}

type Option func(*Resolver)

func WithCatalog(c Catalog) Option {
	return func(r *Resolver) {
		if c != nil {
			r.catalog = c
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver builds a cascade over tiers, finest first.
func NewResolver(tiers []TierSource, opts ...Option) (*Resolver, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("sediment resolver needs at least one tier")
	}
	for i, t := range tiers {
		if t == nil {
			return nil, fmt.Errorf("sediment tier %s is nil", Tier(i))
		}
	}
	r := &Resolver{
		tiers:   tiers,
		catalog: DefaultCatalog(),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// Cascade walks the tiers for p. Escalation is tested before acceptance, so a
// pair that needs a coarser tier is never accepted on a weaker rule.
func (r *Resolver) Cascade(ctx context.Context, p geo.Point) (Outcome, error) {
	var prev *step
	seen := make([]model.SedimentTypes, 0, len(r.tiers))
	last := Tier(len(r.tiers) - 1)

	for tier := TierPoint; tier <= last; tier++ {
		types, err := r.tiers[tier].Types(ctx, p)
		if err != nil {
			return Outcome{}, fmt.Errorf("sediment tier %s at %s: %w", tier, p, err)
		}
		seen = append(seen, types)
		cur := step{types: types, state: Classify(types), tier: tier}

		switch {
		case cur.state.Escalate() && tier < last:
			r.logger.DebugContext(ctx, "sediment escalates",
				"tier", tier.String(), "types", types.String(), "state", cur.state.String())
			prev = &cur
			continue
		case cur.state.Escalate():
			return r.exhausted(ctx, p, prev, cur, seen)
		case cur.state.Accept():
			return Outcome{Types: types, State: cur.state, Tier: tier, Rule: acceptRule(cur.state)}, nil
		}
		return Outcome{}, &ClassificationError{Point: p, Tier: tier, Types: types, State: cur.state}
	}
	return Outcome{}, &UnresolvedError{Point: p, Tiers: seen}
}

// exhausted settles an escalation at the last tier. A previous tier that
// escalated on C or D wins over the current one; two tiers without data are
// fatal.
func (r *Resolver) exhausted(ctx context.Context, p geo.Point, prev *step, cur step, seen []model.SedimentTypes) (Outcome, error) {
	if prev != nil {
		if rule := fallbackRule(prev.state); rule != RuleNone {
			return Outcome{Types: prev.types, State: prev.state, Tier: prev.tier, Rule: rule}, nil
		}
	}
	if rule := fallbackRule(cur.state); rule != RuleNone {
		return Outcome{Types: cur.types, State: cur.state, Tier: cur.tier, Rule: rule}, nil
	}
	err := &UnresolvedError{Point: p, Tiers: seen}
	r.logger.WarnContext(ctx, "sediment unresolved",
		"lat", p.Lat, "lon", p.Lon, "depth", p.Depth, "tiers", len(seen))
	return Outcome{}, err
}

// Build instantiates the sediment selected by o at the given depth.
func (r *Resolver) Build(o Outcome, depth float64) (model.Sediment, error) {
	lookup := func(t model.SedimentType) (model.Sediment, error) {
		s, ok := r.catalog.Lookup(t, depth)
		if !ok {
			return model.Sediment{}, fmt.Errorf("%w for %s", ErrNoParameters, t)
		}
		return s, nil
	}

	switch o.Rule {
	case RuleMain:
		return lookup(o.Types.Main)
	case RuleSecondary:
		return lookup(o.Types.Secondary)
	case RuleBlendMain, RuleBlendSecondary:
		m, err := lookup(o.Types.Main)
		if err != nil {
			return model.Sediment{}, err
		}
		s, err := lookup(o.Types.Secondary)
		if err != nil {
			return model.Sediment{}, err
		}
		wm, ws := 0.65, 0.35
		if o.Rule == RuleBlendSecondary {
			wm, ws = 0.40, 0.60
		}
		return model.BlendSediment(m, wm, s, ws).WithDepth(depth), nil
	}
	return model.Sediment{}, fmt.Errorf("outcome %s has no construction rule", o.Types)
}

// Resolve returns the sediment at p.
func (r *Resolver) Resolve(ctx context.Context, p geo.Point) (model.Sediment, error) {
	o, err := r.Cascade(ctx, p)
	if err != nil {
		observability.ObserveSedimentResolution("none", "unresolved")
		return model.Sediment{}, err
	}
	observability.ObserveSedimentResolution(o.Tier.String(), o.Rule.String())
	s, err := r.Build(o, p.Depth)
	if err != nil {
		return model.Sediment{}, &UnresolvedError{Point: p, Tiers: []model.SedimentTypes{o.Types}, Err: err}
	}
	return s, nil
}

// ResolveMany resolves every point and returns the most frequent sediment
// type, ties going to the first seen, at the mean depth of all points.
// Points that fail are skipped; if all fail the first error is returned.
func (r *Resolver) ResolveMany(ctx context.Context, pts []geo.Point) (model.Sediment, error) {
	if len(pts) == 0 {
		return model.Sediment{}, fmt.Errorf("sediment query needs at least one point")
	}
	resolved := make([]model.Sediment, 0, len(pts))
	var firstErr error
	for _, p := range pts {
		s, err := r.Resolve(ctx, p)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		resolved = append(resolved, s)
	}
	best, ok := Majority(resolved)
	if !ok {
		return model.Sediment{}, firstErr
	}
	return best.WithDepth(geo.MeanDepth(pts)), nil
}

// Majority returns the sediment whose type label occurs most often. Ties go
// to the label seen first.
func Majority(ss []model.Sediment) (model.Sediment, bool) {
	if len(ss) == 0 {
		return model.Sediment{}, false
	}
	counts := make(map[string]int, len(ss))
	first := make(map[string]int, len(ss))
	for i, s := range ss {
		if _, ok := first[s.Type]; !ok {
			first[s.Type] = i
		}
		counts[s.Type]++
	}
	best := ss[0].Type
	for label, n := range counts {
		bn := counts[best]
		if n > bn || (n == bn && first[label] < first[best]) {
			best = label
		}
	}
	return ss[first[best]], true
}
