package measurement

import (
	"cmp"
	"slices"
)

// LocalMaxima returns the indices of samples strictly higher than their
// neighbours. A flat top counts once, at its middle (rounded down).
// The first and last samples are never maxima.
func LocalMaxima(y []float64) []int {
	var peaks []int
	n := len(y)
	for i := 1; i < n-1; {
		if y[i-1] >= y[i] {
			i++
			continue
		}
		ahead := i + 1
		for ahead < n-1 && y[ahead] == y[i] {
			ahead++
		}
		if y[ahead] < y[i] {
			peaks = append(peaks, (i+ahead-1)/2)
			i = ahead
			continue
		}
		i++
	}
	return peaks
}

// SelectByDistance drops peaks closer than distance samples to a higher
// peak. Peaks are visited from highest to lowest.
func SelectByDistance(y []float64, peaks []int, distance int) []int {
	if distance <= 1 || len(peaks) < 2 {
		return slices.Clone(peaks)
	}

	order := make([]int, len(peaks))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(y[peaks[a]], y[peaks[b]])
	})

	keep := make([]bool, len(peaks))
	for i := range keep {
		keep[i] = true
	}
	for o := len(order) - 1; o >= 0; o-- {
		j := order[o]
		if !keep[j] {
			continue
		}
		for k := j - 1; k >= 0 && peaks[j]-peaks[k] < distance; k-- {
			keep[k] = false
		}
		for k := j + 1; k < len(peaks) && peaks[k]-peaks[j] < distance; k++ {
			keep[k] = false
		}
	}

	var out []int
	for i, p := range peaks {
		if keep[i] {
			out = append(out, p)
		}
	}
	return out
}

// Prominences returns, for each peak, its height above the higher of the
// two lowest points reached before climbing to a higher sample on either side.
func Prominences(y []float64, peaks []int) []float64 {
	out := make([]float64, len(peaks))
	for n, p := range peaks {
		leftMin := y[p]
		for i := p; i >= 0 && y[i] <= y[p]; i-- {
			leftMin = min(leftMin, y[i])
		}
		rightMin := y[p]
		for i := p; i < len(y) && y[i] <= y[p]; i++ {
			rightMin = min(rightMin, y[i])
		}
		out[n] = y[p] - max(leftMin, rightMin)
	}
	return out
}

// FindPeaks locates local maxima, thins them to at least distance samples
// apart and keeps those with prominence of at least minProminence.
func FindPeaks(y []float64, distance int, minProminence float64) (peaks []int, prominences []float64) {
	candidates := SelectByDistance(y, LocalMaxima(y), distance)
	for i, prom := range Prominences(y, candidates) {
		if prom >= minProminence {
			peaks = append(peaks, candidates[i])
			prominences = append(prominences, prom)
		}
	}
	return peaks, prominences
}
