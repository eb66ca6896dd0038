package chem

import (
	"regexp"
	"strconv"
	"strings"
)

// tokenPattern matches one element token: a symbol followed by an optional
// integer or decimal count ("Fe", "O2", "Mn1.5", "In.5").
var tokenPattern = regexp.MustCompile(`([A-Z][a-z]?)(\d+(?:\.\d+)?|\.\d+)?`)

// Parse turns a formula such as "Fe2MoGe" or "Mn1.5In0.5Sb" into a
// composition. Characters that cannot start a token are skipped, so "2H"
// parses as "H". Tokens are validated in scan order and the first failure
// is returned. Every error is a *Error.
func Parse(formula string) (Composition, error) {
	if strings.TrimSpace(formula) == "" {
		return Composition{}, &Error{Err: ErrEmptyFormula, Input: formula}
	}

	var c Composition
	for _, m := range tokenPattern.FindAllStringSubmatch(formula, -1) {
		symbol, raw := m[1], m[2]
		if _, ok := Lookup(symbol); !ok {
			return Composition{}, &Error{Err: ErrUnknownElement, Symbol: symbol}
		}

		count := 1.0
		if raw != "" {
			n, err := strconv.ParseFloat(raw, 64)
			if err != nil || !positiveFinite(n) {
				return Composition{}, &Error{Err: ErrInvalidStoichiometry, Symbol: symbol, Token: raw}
			}
			count = n
		}
		c.add(symbol, count)
	}

	if c.Len() == 0 {
		return Composition{}, &Error{Err: ErrNoRecognizedElements, Input: formula}
	}
	return c, nil
}
