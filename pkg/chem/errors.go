package chem

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyFormula is returned when the formula is blank after trimming.
	ErrEmptyFormula = errors.New("formula cannot be empty")

	// ErrNoRecognizedElements is returned when scanning produced no element tokens.
	ErrNoRecognizedElements = errors.New("invalid formula structure or no recognized elements")

	// ErrUnknownElement is returned when a formula token names a symbol missing from the table.
	ErrUnknownElement = errors.New("unknown element")

	// ErrInvalidStoichiometry is returned when a numeric suffix is not a finite positive number.
	ErrInvalidStoichiometry = errors.New("invalid stoichiometry")

	// ErrInvalidTargetMass is returned when the target mass is missing, non-numeric, zero or negative.
	ErrInvalidTargetMass = errors.New("target mass must be a positive number")

	// ErrUnknownTargetElement is returned when the normalized target is not in the table.
	ErrUnknownTargetElement = errors.New("target element is not recognized")

	// ErrTargetNotInFormula is returned when the target is a valid element absent from the composition.
	ErrTargetNotInFormula = errors.New("target element not found in formula")
)

// Error attaches the offending input to one of the sentinel errors above.
// Use errors.Is against the sentinel and errors.As to reach the details.
type Error struct {
	Err    error
	Symbol string
	Token  string
	Input  string
}

func (e *Error) Error() string {
	switch e.Err {
	case ErrUnknownElement:
		return fmt.Sprintf("unknown element: %s", e.Symbol)
	case ErrInvalidStoichiometry:
		return fmt.Sprintf("invalid stoichiometry for %s: %q", e.Symbol, e.Token)
	case ErrUnknownTargetElement:
		return fmt.Sprintf("target element %q is not recognized", e.Input)
	case ErrTargetNotInFormula:
		return fmt.Sprintf("target element %s not found in formula %s", e.Symbol, e.Input)
	case ErrInvalidTargetMass:
		if e.Input != "" {
			return fmt.Sprintf("%v: %q", e.Err, e.Input)
		}
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}
