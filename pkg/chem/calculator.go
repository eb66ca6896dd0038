package chem

import (
	"strconv"
	"strings"
	"time"
)

// Calculator runs the full pipeline from user input to a timestamped Result.
// It holds no mutable state and is safe for concurrent use.
type Calculator struct {
	now func() time.Time
}

// CalculatorOption configures a Calculator.
type CalculatorOption func(*Calculator)

// WithClock overrides the time source used to stamp results.
func WithClock(now func() time.Time) CalculatorOption {
	return func(c *Calculator) {
		c.now = now
	}
}

// NewCalculator creates a Calculator.
func NewCalculator(opts ...CalculatorOption) *Calculator {
	c := &Calculator{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Calculate parses formula, normalizes the free-text target and scales the
// composition so the target contributes massGrams grams.
//
// Checks run in a fixed order: target mass, formula, target element, target
// membership. Only the first failure is reported.
func (c *Calculator) Calculate(formula, target string, massGrams float64) (Result, error) {
	if !positiveFinite(massGrams) {
		return Result{}, &Error{Err: ErrInvalidTargetMass, Input: strconv.FormatFloat(massGrams, 'g', -1, 64)}
	}

	formula = strings.TrimSpace(formula)
	comp, err := Parse(formula)
	if err != nil {
		return Result{}, err
	}

	symbol := Normalize(target)
	if _, ok := Lookup(symbol); !ok {
		return Result{}, &Error{Err: ErrUnknownTargetElement, Input: target}
	}
	if _, ok := comp.Count(symbol); !ok {
		return Result{}, &Error{Err: ErrTargetNotInFormula, Symbol: symbol, Input: formula}
	}

	res, err := Scale(comp, symbol, massGrams)
	if err != nil {
		return Result{}, err
	}
	res.Formula = formula
	res.CalculatedAt = c.now().UTC()
	return res, nil
}

// ParseMass converts a free-text mass in grams, e.g. "1" or " 0.25 ".
func ParseMass(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, &Error{Err: ErrInvalidTargetMass, Input: raw}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !positiveFinite(v) {
		return 0, &Error{Err: ErrInvalidTargetMass, Input: raw}
	}
	return v, nil
}
