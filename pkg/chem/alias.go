package chem

import (
	"strings"
	"unicode/utf8"
)

// misspellings maps spellings seen in lab notebooks that differ from the
// table's names to their symbol.
var misspellings = map[string]string{
	"indeium":  "In",
	"aluminum": "Al",
	"sulphur":  "S",
	"cesium":   "Cs",
	"wolfram":  "W",
	"flourine": "F",
}

var aliases = func() map[string]string {
	m := make(map[string]string, len(elements)+len(misspellings))
	for _, e := range elements {
		m[strings.ToLower(e.Name)] = e.Symbol
	}
	for name, symbol := range misspellings {
		m[name] = symbol
	}
	return m
}()

// Normalize maps free-text element input (a name, or a symbol typed with the
// wrong case) to a candidate symbol. It does not check the result against the
// table: unknown input comes back in a shape that simply fails Lookup.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	if symbol, ok := aliases[strings.ToLower(s)]; ok {
		return symbol
	}

	switch utf8.RuneCountInString(s) {
	case 1:
		return strings.ToUpper(s)
	case 2:
		first, size := utf8.DecodeRuneInString(s)
		return strings.ToUpper(string(first)) + strings.ToLower(s[size:])
	}
	return s
}
