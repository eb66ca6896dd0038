package measurement_test

import (
	"testing"

	"github.com/aretw0/elementx/pkg/measurement"
	"github.com/stretchr/testify/assert"
)

func TestLocalMaxima(t *testing.T) {
	tests := []struct {
		name string
		y    []float64
		want []int
	}{
		{"single", []float64{0, 1, 0}, []int{1}},
		{"edges are never peaks", []float64{5, 1, 5}, nil},
		{"odd plateau", []float64{0, 1, 3, 3, 3, 1, 0}, []int{3}},
		{"even plateau rounds down", []float64{0, 2, 2, 0}, []int{1}},
		{"shoulder is not a peak", []float64{0, 2, 2, 3, 0}, []int{3}},
		{"plateau running to the end", []float64{0, 2, 2, 2}, nil},
		{"monotonic", []float64{1, 2, 3, 4}, nil},
		{"several", []float64{0, 1, 0, 2, 0, 3, 0}, []int{1, 3, 5}},
		{"too short", []float64{1, 2}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, measurement.LocalMaxima(tt.y))
		})
	}
}

func TestSelectByDistance_HigherWins(t *testing.T) {
	y := make([]float64, 30)
	y[5], y[10], y[25] = 10, 20, 5

	peaks := measurement.LocalMaxima(y)
	assert.Equal(t, []int{5, 10, 25}, peaks)
	assert.Equal(t, []int{10, 25}, measurement.SelectByDistance(y, peaks, 10))
	assert.Equal(t, []int{5, 10, 25}, measurement.SelectByDistance(y, peaks, 5), "exactly distance apart is allowed")
	assert.Equal(t, []int{5, 10, 25}, measurement.SelectByDistance(y, peaks, 1))
}

func TestProminences(t *testing.T) {
	y := []float64{0, 5, 1, 3, 0}
	assert.Equal(t, []float64{5, 2}, measurement.Prominences(y, []int{1, 3}))
}

func TestFindPeaks_ProminenceFilter(t *testing.T) {
	y := []float64{0, 5, 1, 3, 0}
	peaks, prom := measurement.FindPeaks(y, 1, 2.5)
	assert.Equal(t, []int{1}, peaks)
	assert.Equal(t, []float64{5}, prom)

	peaks, _ = measurement.FindPeaks(y, 1, 2)
	assert.Equal(t, []int{1, 3}, peaks, "minimum prominence is inclusive")
}
