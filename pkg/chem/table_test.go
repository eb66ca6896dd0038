package chem_test

import (
	"regexp"
	"testing"

	"github.com/aretw0/elementx/pkg/chem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var symbolShape = regexp.MustCompile(`^[A-Z][a-z]?$`)

func TestElements_Table(t *testing.T) {
	table := chem.Elements()
	require.Len(t, table, 86)

	seen := map[string]bool{}
	for i, e := range table {
		assert.Equal(t, i+1, e.Number, "table must be ordered by atomic number")
		assert.Regexp(t, symbolShape, e.Symbol)
		assert.Greater(t, e.Mass, 0.0, "mass of %s", e.Symbol)
		assert.NotEmpty(t, e.Name)
		assert.False(t, seen[e.Symbol], "duplicate symbol %s", e.Symbol)
		seen[e.Symbol] = true
	}

	assert.Equal(t, "Rn", table[85].Symbol)
}

func TestAtomicMass(t *testing.T) {
	m, ok := chem.AtomicMass("Ge")
	require.True(t, ok)
	assert.Equal(t, 72.630, m)

	m, ok = chem.AtomicMass("Fe")
	require.True(t, ok)
	assert.Equal(t, 55.845, m)

	_, ok = chem.AtomicMass("fe")
	assert.False(t, ok, "lookup is case-sensitive")

	_, ok = chem.AtomicMass("Xx")
	assert.False(t, ok)
}

func TestElements_ReturnsCopy(t *testing.T) {
	table := chem.Elements()
	table[0].Mass = 999

	m, _ := chem.AtomicMass("H")
	assert.Equal(t, 1.008, m)
}
