package chem

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Entry is one element of a composition and its stoichiometric count.
type Entry struct {
	Symbol string  `json:"element"`
	Count  float64 `json:"count"`
}

// Composition maps element symbols to stoichiometric counts, remembering the
// order in which each symbol first appeared. The zero value is empty and ready
// to use.
type Composition struct {
	entries []Entry
	index   map[string]int
}

// NewComposition builds a composition from explicit entries. Repeated symbols
// accumulate. Every symbol must be in the table and every count must be a
// finite positive number.
func NewComposition(entries ...Entry) (Composition, error) {
	var c Composition
	for _, e := range entries {
		if _, ok := Lookup(e.Symbol); !ok {
			return Composition{}, &Error{Err: ErrUnknownElement, Symbol: e.Symbol}
		}
		if !positiveFinite(e.Count) {
			return Composition{}, &Error{
				Err:    ErrInvalidStoichiometry,
				Symbol: e.Symbol,
				Token:  strconv.FormatFloat(e.Count, 'g', -1, 64),
			}
		}
		c.add(e.Symbol, e.Count)
	}
	return c, nil
}

func (c *Composition) add(symbol string, count float64) {
	if c.index == nil {
		c.index = make(map[string]int)
	}
	if i, ok := c.index[symbol]; ok {
		c.entries[i].Count += count
		return
	}
	c.index[symbol] = len(c.entries)
	c.entries = append(c.entries, Entry{Symbol: symbol, Count: count})
}

// Count returns the accumulated count for symbol.
func (c Composition) Count(symbol string) (float64, bool) {
	i, ok := c.index[symbol]
	if !ok {
		return 0, false
	}
	return c.entries[i].Count, true
}

// Len returns the number of distinct elements.
func (c Composition) Len() int {
	return len(c.entries)
}

// Entries returns a copy of the entries in first-occurrence order.
func (c Composition) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Symbols returns the element symbols in first-occurrence order.
func (c Composition) Symbols() []string {
	out := make([]string, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Symbol
	}
	return out
}

// String renders the composition back into formula notation, e.g. "Fe2MoGe".
// Repeated symbols in the source formula are rendered once with their sum.
func (c Composition) String() string {
	var b strings.Builder
	for _, e := range c.entries {
		b.WriteString(e.Symbol)
		if e.Count != 1 {
			b.WriteString(strconv.FormatFloat(e.Count, 'f', -1, 64))
		}
	}
	return b.String()
}

// MarshalJSON encodes the composition as a JSON object whose keys keep
// first-occurrence order.
func (c Composition) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range c.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Symbol)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.FormatFloat(e.Count, 'g', -1, 64))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes the object written by MarshalJSON, keeping key
// order. Symbols and counts are checked as in NewComposition.
func (c *Composition) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("composition: want a JSON object, got %v", tok)
	}

	var entries []Entry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		symbol, _ := tok.(string)
		var count float64
		if err := dec.Decode(&count); err != nil {
			return fmt.Errorf("composition: count for %s: %w", symbol, err)
		}
		entries = append(entries, Entry{Symbol: symbol, Count: count})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	comp, err := NewComposition(entries...)
	if err != nil {
		return err
	}
	*c = comp
	return nil
}

func positiveFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
