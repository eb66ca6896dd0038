package chem

import (
	"strconv"
	"time"
)

// Component is one row of a calculation: how much of an element to weigh out.
type Component struct {
	Element    string  `json:"element"`
	Count      float64 `json:"stoichiometry"`
	AtomicMass float64 `json:"atomic_mass"`
	Mass       float64 `json:"required_mass_g"`
}

// Result is the outcome of scaling a composition to a target element mass.
// Components follow the composition's first-occurrence order.
type Result struct {
	Formula      string      `json:"formula"`
	Target       string      `json:"target_element"`
	TargetMass   float64     `json:"target_mass_g"`
	Components   []Component `json:"components"`
	Total        float64     `json:"total_mass_g"`
	CalculatedAt time.Time   `json:"calculated_at"`
}

// Component returns the row for symbol.
func (r Result) Component(symbol string) (Component, bool) {
	for _, c := range r.Components {
		if c.Element == symbol {
			return c, true
		}
	}
	return Component{}, false
}

// WeightPercent returns the share of the total mass contributed by c.
func (r Result) WeightPercent(c Component) float64 {
	if r.Total == 0 {
		return 0
	}
	return c.Mass / r.Total * 100
}

// Scale computes the mass of every constituent needed so that the target
// element contributes exactly massGrams. target must already be a canonical
// symbol; see Normalize for free-text input.
//
// The returned Result has no Formula or CalculatedAt; Calculator fills those.
func Scale(c Composition, target string, massGrams float64) (Result, error) {
	if !positiveFinite(massGrams) {
		return Result{}, &Error{Err: ErrInvalidTargetMass, Input: strconv.FormatFloat(massGrams, 'g', -1, 64)}
	}
	targetAtomic, ok := AtomicMass(target)
	if !ok {
		return Result{}, &Error{Err: ErrUnknownTargetElement, Input: target}
	}
	targetCount, ok := c.Count(target)
	if !ok {
		return Result{}, &Error{Err: ErrTargetNotInFormula, Symbol: target, Input: c.String()}
	}

	scale := massGrams / (targetAtomic * targetCount)

	res := Result{
		Target:     target,
		TargetMass: massGrams,
		Components: make([]Component, 0, c.Len()),
	}
	for _, e := range c.entries {
		atomic, ok := AtomicMass(e.Symbol)
		if !ok {
			return Result{}, &Error{Err: ErrUnknownElement, Symbol: e.Symbol}
		}
		required := scale * e.Count * atomic
		res.Components = append(res.Components, Component{
			Element:    e.Symbol,
			Count:      e.Count,
			AtomicMass: atomic,
			Mass:       required,
		})
		res.Total += required
	}
	return res, nil
}
