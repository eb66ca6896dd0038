package domain

import "time"

// MeasurementKind identifies the instrument a file came from.
type MeasurementKind string

const (
	KindXRD      MeasurementKind = "xrd"
	KindMagnetic MeasurementKind = "magnetic"
)

// Magnetometry sweep types.
const (
	SweepFieldM = "M-H" // moment vs applied field
	SweepTempM  = "M-T" // moment vs temperature
)

// Point is one row of a two-column instrument export.
// For XRD, X is 2θ and Y is intensity; for magnetometry, X is field (or
// temperature) and Y is moment.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Peak is a diffraction peak located in an XRD scan.
type Peak struct {
	Index      int     `json:"index"`
	Angle      float64 `json:"angle"`
	Intensity  float64 `json:"intensity"`
	Prominence float64 `json:"prominence"`
}

// MagneticProperties are the figures of merit of a hysteresis loop.
type MagneticProperties struct {
	Ms float64 `json:"ms"` // saturation magnetization, max |moment|
	Mr float64 `json:"mr"` // remanence, |moment| at zero field
	Hc float64 `json:"hc"` // coercivity, |field| at zero moment
}

// Measurement is an imported instrument file with its derived data.
type Measurement struct {
	ID              string              `json:"id"`
	UserID          string              `json:"user_id"`
	SampleID        string              `json:"sample_id,omitempty"`
	Kind            MeasurementKind     `json:"kind"`
	Filename        string              `json:"filename"`
	MeasurementType string              `json:"measurement_type,omitempty"`
	Notes           string              `json:"notes,omitempty"`
	Points          []Point             `json:"points"`
	Peaks           []Peak              `json:"peaks,omitempty"`
	Properties      *MagneticProperties `json:"properties,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}
