// Package sediment resolves DECK41 seafloor classifications into geoacoustic
// sediment parameters.
//
// A query cascades through tiers of decreasing geographic resolution (point
// samples, Marsden one-degree squares, Marsden ten-degree squares). At every
// tier the (main, secondary) type pair is classified by seven predicates:
// some accept the pair as-is or blend both types, others require a coarser
// tier.
package sediment

import (
	"strings"

	"github.com/mohammed-shakir/seaenv/internal/core/model"
)

// State holds the seven predicates derived from one type pair.
//
//	A  accept main
//	B  accept secondary
//	C  escalate; main when no tier resolves
//	D  escalate; secondary when no tier resolves
//	E  blend 65% main, 35% secondary
//	F  blend 40% main, 60% secondary
//	G  escalate; nothing usable
type State struct {
	A, B, C, D, E, F, G bool
}

func isHard(t model.SedimentType) bool {
	switch t {
	case model.SedimentGravel, model.SedimentSand, model.SedimentSilt, model.SedimentMud, model.SedimentHardBottom:
		return true
	}
	return false
}

func isSoft(t model.SedimentType) bool {
	switch t {
	case model.SedimentGravel, model.SedimentSand, model.SedimentSilt, model.SedimentMud:
		return true
	}
	return false
}

func isOverride(t model.SedimentType) bool {
	switch t {
	case model.SedimentRock, model.SedimentOrganic, model.SedimentNodules, model.SedimentNoData, model.SedimentHardBottom:
		return true
	}
	return false
}

func isAmbiguous(t model.SedimentType) bool {
	switch t {
	case model.SedimentClay, model.SedimentOoze, model.SedimentOrganic, model.SedimentRock, model.SedimentNodules:
		return true
	}
	return false
}

func isClayOrOoze(t model.SedimentType) bool {
	return t == model.SedimentClay || t == model.SedimentOoze
}

// Classify derives the predicate state of a type pair.
func Classify(t model.SedimentTypes) State {
	m, s := t.Main, t.Secondary
	return State{
		A: isHard(m) && (m == s || isOverride(s)),
		B: m == model.SedimentNoData && isSoft(s),
		C: isAmbiguous(m) && isOverride(s),
		D: m == model.SedimentOrganic ||
			((m == model.SedimentRock || m == model.SedimentNodules || m == model.SedimentNoData) && isSoft(s)),
		E: (m != s && isSoft(m) && (isSoft(s) || isClayOrOoze(s))) ||
			(m == model.SedimentOoze && s == model.SedimentClay),
		F: m != s && isClayOrOoze(m) && (isSoft(s) || s == model.SedimentOoze),
		G: m == model.SedimentNoData && s == model.SedimentNoData,
	}
}

// Accept reports whether the pair can be used at the current tier.
func (s State) Accept() bool { return s.A || s.B || s.E || s.F }

// Escalate reports whether a coarser tier must be consulted.
func (s State) Escalate() bool { return s.C || s.D || s.G }

func (s State) String() string {
	var b strings.Builder
	for i, v := range []bool{s.A, s.B, s.C, s.D, s.E, s.F, s.G} {
		if v {
			b.WriteByte(byte('A' + i))
		}
	}
	if b.Len() == 0 {
		return "-"
	}
	return b.String()
}

// Rule is the construction applied to a resolved pair.
type Rule int

const (
	RuleNone Rule = iota
	RuleMain
	RuleSecondary
	RuleBlendMain
	RuleBlendSecondary
)

var ruleNames = [...]string{"none", "main", "secondary", "blend_65_35", "blend_40_60"}

func (r Rule) String() string {
	if r < 0 || int(r) >= len(ruleNames) {
		return "unknown"
	}
	return ruleNames[r]
}

// acceptRule maps an accepting state to its construction.
func acceptRule(s State) Rule {
	switch {
	case s.A:
		return RuleMain
	case s.E:
		return RuleBlendMain
	case s.F:
		return RuleBlendSecondary
	case s.B:
		return RuleSecondary
	}
	return RuleNone
}

// fallbackRule maps an escalating state to the construction used when no
// coarser tier is left.
func fallbackRule(s State) Rule {
	switch {
	case s.C:
		return RuleMain
	case s.D:
		return RuleSecondary
	}
	return RuleNone
}
