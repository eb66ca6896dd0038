package chem_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/aretw0/elementx/pkg/chem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewComposition(t *testing.T) {
	c, err := chem.NewComposition(chem.Entry{"H", 2}, chem.Entry{"O", 1}, chem.Entry{"H", 0.5})
	require.NoError(t, err)

	assert.Equal(t, 2, c.Len())
	h, ok := c.Count("H")
	require.True(t, ok)
	assert.Equal(t, 2.5, h)

	_, err = chem.NewComposition(chem.Entry{"Qq", 1})
	assert.ErrorIs(t, err, chem.ErrUnknownElement)

	_, err = chem.NewComposition(chem.Entry{"Fe", -1})
	assert.ErrorIs(t, err, chem.ErrInvalidStoichiometry)

	_, err = chem.NewComposition(chem.Entry{"Fe", math.NaN()})
	assert.ErrorIs(t, err, chem.ErrInvalidStoichiometry)
}

func TestComposition_ZeroValue(t *testing.T) {
	var c chem.Composition
	assert.Equal(t, 0, c.Len())
	_, ok := c.Count("H")
	assert.False(t, ok)
	assert.Empty(t, c.Entries())
	assert.Equal(t, "", c.String())
}

func TestComposition_String(t *testing.T) {
	c, err := chem.Parse("H2O2H")
	require.NoError(t, err)
	assert.Equal(t, "H3O2", c.String())

	c, err = chem.Parse("Mn1.5In0.5Sb")
	require.NoError(t, err)
	assert.Equal(t, "Mn1.5In0.5Sb", c.String())
}

func TestComposition_MarshalJSONKeepsOrder(t *testing.T) {
	c, err := chem.Parse("Fe2MoGe")
	require.NoError(t, err)

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Equal(t, `{"Fe":2,"Mo":1,"Ge":1}`, string(data))
}

func TestComposition_UnmarshalJSON(t *testing.T) {
	var c chem.Composition
	require.NoError(t, json.Unmarshal([]byte(`{"Mn":1.5,"In":0.5,"Sb":1}`), &c))
	assert.Equal(t, []chem.Entry{{"Mn", 1.5}, {"In", 0.5}, {"Sb", 1}}, c.Entries())
	assert.Equal(t, "Mn1.5In0.5Sb", c.String())

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Equal(t, `{"Mn":1.5,"In":0.5,"Sb":1}`, string(data))

	var wrapped struct {
		Composition chem.Composition `json:"composition"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"composition":null}`), &wrapped))
	assert.Equal(t, 0, wrapped.Composition.Len())
}

func TestComposition_UnmarshalJSONRejects(t *testing.T) {
	var c chem.Composition
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"Xx":1}`), &c), chem.ErrUnknownElement)
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"Fe":0}`), &c), chem.ErrInvalidStoichiometry)
	assert.Error(t, json.Unmarshal([]byte(`{"Fe":"two"}`), &c))
	assert.Error(t, json.Unmarshal([]byte(`["Fe"]`), &c))
	assert.Equal(t, 0, c.Len())
}

func TestComposition_EntriesIsCopy(t *testing.T) {
	c, err := chem.Parse("H2O")
	require.NoError(t, err)

	entries := c.Entries()
	entries[0].Count = 100

	h, _ := c.Count("H")
	assert.Equal(t, 2.0, h)
}
