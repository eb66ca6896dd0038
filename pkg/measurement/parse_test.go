package measurement_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/elementx/pkg/domain"
	"github.com/aretw0/elementx/pkg/measurement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRaw(t *testing.T) {
	input := strings.Join([]string{
		"# Bruker D8 export",
		"; operator: mc",
		"* comment",
		"! comment",
		"% comment",
		"2Theta  Intensity",
		"Scan 1 of 1",
		"",
		"   ",
		"20.0 105",
		"20.02,110",
		"20.04;120",
		"20.06 , 118 ; extra columns ignored",
		"20.08\t1.5e+02",
		"oops 12",
		"21.00",
		"NaN 3",
		"-1.5E-3 -7",
	}, "\n")

	points, err := measurement.ParseRaw(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []domain.Point{
		{X: 20.0, Y: 105},
		{X: 20.02, Y: 110},
		{X: 20.04, Y: 120},
		{X: 20.06, Y: 118},
		{X: 20.08, Y: 150},
		{X: -0.0015, Y: -7},
	}, points)
}

func TestParseRaw_HeaderWordsAnywhere(t *testing.T) {
	input := "1 2 magnetic moment\n3 4\nfield(Oe) 5\n6 7 TEMP\n"
	points, err := measurement.ParseRaw(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []domain.Point{{X: 3, Y: 4}}, points)
}

func TestParseRaw_InvalidUTF8Dropped(t *testing.T) {
	points, err := measurement.ParseRaw(strings.NewReader("1\xff.5 2\n"))
	require.NoError(t, err)
	assert.Equal(t, []domain.Point{{X: 1.5, Y: 2}}, points)
}

func TestParseRaw_Empty(t *testing.T) {
	points, err := measurement.ParseRaw(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, points)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestParseRaw_ReadError(t *testing.T) {
	_, err := measurement.ParseRaw(failingReader{})
	assert.ErrorContains(t, err, "disk on fire")
}
