package measurement

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/aretw0/elementx/pkg/domain"
)

// MinPoints is the fewest rows a file must yield to be analysed.
const MinPoints = 5

// XRD peak picking parameters.
const (
	PeakDistance           = 10   // samples
	PeakProminenceFraction = 0.02 // of the highest intensity
)

var (
	ErrInsufficientData       = errors.New("file contains no valid numeric data")
	ErrUnknownMeasurementType = errors.New("unknown measurement type")
)

func needPoints(points []domain.Point, columns string) error {
	if len(points) < MinPoints {
		return fmt.Errorf("%w: make sure it has at least two columns of numbers (%s); found %d rows, need %d",
			ErrInsufficientData, columns, len(points), MinPoints)
	}
	return nil
}

// AnalyzeXRD finds the diffraction peaks of a 2θ/intensity scan.
func AnalyzeXRD(points []domain.Point) ([]domain.Peak, error) {
	if err := needPoints(points, "angle vs intensity"); err != nil {
		return nil, err
	}

	y := make([]float64, len(points))
	for i, p := range points {
		y[i] = p.Y
	}
	threshold := PeakProminenceFraction * slices.Max(y)

	idx, prominences := FindPeaks(y, PeakDistance, threshold)
	peaks := make([]domain.Peak, len(idx))
	for n, i := range idx {
		peaks[n] = domain.Peak{
			Index:      i,
			Angle:      points[i].X,
			Intensity:  points[i].Y,
			Prominence: prominences[n],
		}
	}
	return peaks, nil
}

// NormalizeType maps a user-supplied sweep type to domain.SweepFieldM or
// domain.SweepTempM. Empty means M-H.
func NormalizeType(measurementType string) (string, error) {
	switch strings.ToUpper(strings.TrimSpace(measurementType)) {
	case "", "M-H", "MH":
		return domain.SweepFieldM, nil
	case "M-T", "MT":
		return domain.SweepTempM, nil
	}
	return "", fmt.Errorf("%w: %q (want M-H or M-T)", ErrUnknownMeasurementType, measurementType)
}

// AnalyzeMagnetic derives Ms, Mr and Hc from a moment curve.
//
// Ms is the largest |moment|. Mr is |moment| where the sweep first crosses
// zero field, and Hc is |field| where the moment first crosses zero; both are
// linearly interpolated between the bracketing rows and are 0 if the curve
// never crosses.
func AnalyzeMagnetic(points []domain.Point) (domain.MagneticProperties, error) {
	if err := needPoints(points, "field/temp vs moment"); err != nil {
		return domain.MagneticProperties{}, err
	}

	var props domain.MagneticProperties
	for _, p := range points {
		props.Ms = max(props.Ms, math.Abs(p.Y))
	}

	x := func(p domain.Point) float64 { return p.X }
	y := func(p domain.Point) float64 { return p.Y }
	if v, ok := zeroCrossing(points, x, y); ok {
		props.Mr = math.Abs(v)
	}
	if v, ok := zeroCrossing(points, y, x); ok {
		props.Hc = math.Abs(v)
	}
	return props, nil
}

// zeroCrossing finds the first pair of rows where key changes sign and
// returns val interpolated at key = 0.
func zeroCrossing(points []domain.Point, key, val func(domain.Point) float64) (float64, bool) {
	for i := 0; i+1 < len(points); i++ {
		k0, k1 := key(points[i]), key(points[i+1])
		if sign(k0) == sign(k1) {
			continue
		}
		v0, v1 := val(points[i]), val(points[i+1])
		switch {
		case k0 == 0:
			return v0, true
		case k1 == 0:
			return v1, true
		}
		return v0 + (0-k0)*(v1-v0)/(k1-k0), true
	}
	return 0, false
}

func sign(f float64) int {
	switch {
	case f > 0:
		return 1
	case f < 0:
		return -1
	}
	return 0
}
