package chem_test

import (
	"errors"
	"testing"
	"time"

	"github.com/aretw0/elementx/pkg/chem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculator_Calculate(t *testing.T) {
	at := time.Date(2025, 11, 2, 10, 0, 0, 0, time.FixedZone("BRT", -3*60*60))
	calc := chem.NewCalculator(chem.WithClock(func() time.Time { return at }))

	res, err := calc.Calculate("  Fe2MoGe ", "germanium", 1.0)
	require.NoError(t, err)

	assert.Equal(t, "Fe2MoGe", res.Formula)
	assert.Equal(t, "Ge", res.Target)
	assert.Equal(t, at.UTC(), res.CalculatedAt)
	require.Len(t, res.Components, 3)

	direct, err := chem.Scale(mustComposition(t, chem.Entry{"Fe", 2}, chem.Entry{"Mo", 1}, chem.Entry{"Ge", 1}), "Ge", 1.0)
	require.NoError(t, err)
	assert.Equal(t, direct.Components, res.Components)
	assert.Equal(t, direct.Total, res.Total)
}

func TestCalculator_ErrorOrder(t *testing.T) {
	calc := chem.NewCalculator()

	tests := []struct {
		name    string
		formula string
		target  string
		mass    float64
		wantErr error
	}{
		{"mass first", "", "Xx", -1, chem.ErrInvalidTargetMass},
		{"formula before target", "", "Xx", 1, chem.ErrEmptyFormula},
		{"unknown formula element before target", "Xx2", "Zz", 1, chem.ErrUnknownElement},
		{"unknown target", "H2O", "Zz", 1, chem.ErrUnknownTargetElement},
		{"empty target", "H2O", "  ", 1, chem.ErrUnknownTargetElement},
		{"target not in formula", "Fe2MoGe", "oxygen", 1, chem.ErrTargetNotInFormula},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := calc.Calculate(tt.formula, tt.target, tt.mass)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCalculator_ErrorDetails(t *testing.T) {
	calc := chem.NewCalculator()

	_, err := calc.Calculate("H2O", "Zz", 1)
	var detail *chem.Error
	require.True(t, errors.As(err, &detail))
	assert.Equal(t, "Zz", detail.Input)
	assert.Equal(t, `target element "Zz" is not recognized`, err.Error())

	_, err = calc.Calculate("Fe2MoGe", "o", 1)
	require.True(t, errors.As(err, &detail))
	assert.Equal(t, "O", detail.Symbol)
	assert.Equal(t, "target element O not found in formula Fe2MoGe", err.Error())
}

func TestParseMass(t *testing.T) {
	for _, in := range []string{"1", " 0.25 ", "1e-3", "72.63"} {
		_, err := chem.ParseMass(in)
		assert.NoError(t, err, "ParseMass(%q)", in)
	}

	m, err := chem.ParseMass("2.5")
	require.NoError(t, err)
	assert.Equal(t, 2.5, m)

	for _, in := range []string{"", "  ", "abc", "0", "-1", "NaN", "Inf", "1g"} {
		_, err := chem.ParseMass(in)
		assert.ErrorIs(t, err, chem.ErrInvalidTargetMass, "ParseMass(%q)", in)
	}
}
