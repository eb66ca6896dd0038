package elementx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/elementx/internal/logging"
	"github.com/aretw0/elementx/pkg/adapters/memory"
	"github.com/aretw0/elementx/pkg/chem"
	"github.com/aretw0/elementx/pkg/domain"
	"github.com/aretw0/elementx/pkg/measurement"
	"github.com/aretw0/elementx/pkg/observability"
	"github.com/aretw0/elementx/pkg/ports"
	"github.com/google/uuid"
)

// Lab is the high-level entry point: calculations, the per-user sample
// history and instrument file imports.
type Lab struct {
	calc         *chem.Calculator
	samples      ports.SampleStore
	measurements ports.MeasurementStore
	metrics      *observability.Metrics
	logger       *slog.Logger
	now          func() time.Time
	newID        func() string
}

// Option defines a functional option for configuring the Lab.
type Option func(*Lab)

// WithSampleStore sets where saved calculations are kept (default: in memory).
func WithSampleStore(s ports.SampleStore) Option {
	return func(l *Lab) {
		l.samples = s
	}
}

// WithMeasurementStore sets where imported files are kept (default: in memory).
func WithMeasurementStore(s ports.MeasurementStore) Option {
	return func(l *Lab) {
		l.measurements = s
	}
}

// WithMetrics records calculations and imports.
func WithMetrics(m *observability.Metrics) Option {
	return func(l *Lab) {
		l.metrics = m
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Lab) {
		l.logger = logger
	}
}

// WithClock overrides the time source for results and records.
func WithClock(now func() time.Time) Option {
	return func(l *Lab) {
		l.now = now
	}
}

// WithIDGenerator overrides the record ID generator (UUIDv4 by default).
func WithIDGenerator(fn func() string) Option {
	return func(l *Lab) {
		l.newID = fn
	}
}

// New creates a Lab.
func New(opts ...Option) *Lab {
	l := &Lab{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.samples == nil {
		l.samples = memory.NewSampleStore()
	}
	if l.measurements == nil {
		l.measurements = memory.NewMeasurementStore()
	}
	if l.logger == nil {
		l.logger = logging.NewNop()
	}
	l.calc = chem.NewCalculator(chem.WithClock(l.now))
	return l
}

// Calculate parses formula and returns the mass of each element needed for
// target to weigh massGrams. See chem.Calculator.Calculate.
func (l *Lab) Calculate(formula, target string, massGrams float64) (chem.Result, error) {
	res, err := l.calc.Calculate(formula, target, massGrams)
	l.metrics.Calculation(err)
	if err != nil {
		l.logger.Debug("calculation rejected", "formula", formula, "target", target, "error", err)
		return chem.Result{}, err
	}
	return res, nil
}

// SaveSample stores a result in the user's history. An empty name is kept
// empty; Sample.DisplayName falls back to the formula.
func (l *Lab) SaveSample(ctx context.Context, userID, name string, res chem.Result) (*domain.Sample, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if len(res.Components) == 0 {
		return nil, fmt.Errorf("cannot save an empty result")
	}
	sample := &domain.Sample{
		ID:        l.newID(),
		UserID:    userID,
		Name:      strings.TrimSpace(name),
		Result:    res,
		CreatedAt: l.now().UTC(),
	}
	if err := l.samples.Save(ctx, sample); err != nil {
		return nil, fmt.Errorf("save sample: %w", err)
	}
	l.metrics.SampleOp("save")
	l.logger.Info("sample saved", "sample_id", sample.ID, "user_id", userID, "formula", res.Formula)
	return sample, nil
}

// ListSamples returns the user's samples, newest first.
func (l *Lab) ListSamples(ctx context.Context, userID string) ([]domain.Sample, error) {
	return l.samples.List(ctx, userID)
}

// GetSample returns one of the user's samples. Samples owned by someone
// else are reported as domain.ErrSampleNotFound.
func (l *Lab) GetSample(ctx context.Context, userID, id string) (*domain.Sample, error) {
	sample, err := l.samples.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if sample.UserID != userID {
		return nil, domain.ErrSampleNotFound
	}
	return sample, nil
}

// DeleteSample removes one of the user's samples.
func (l *Lab) DeleteSample(ctx context.Context, userID, id string) error {
	if _, err := l.GetSample(ctx, userID, id); err != nil {
		return err
	}
	if err := l.samples.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete sample: %w", err)
	}
	l.metrics.SampleOp("delete")
	l.logger.Info("sample deleted", "sample_id", id, "user_id", userID)
	return nil
}

// Upload is an instrument file handed to ImportXRD or ImportMagnetic.
type Upload struct {
	UserID   string
	SampleID string // optional; must be one of the user's samples
	Filename string
	Notes    string
	// MeasurementType is "M-H" (default) or "M-T"; ignored for XRD.
	MeasurementType string
	Data            io.Reader
}

func (l *Lab) newMeasurement(ctx context.Context, kind domain.MeasurementKind, up Upload) (*domain.Measurement, error) {
	if up.UserID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if up.Data == nil {
		return nil, fmt.Errorf("%w: no file", measurement.ErrInsufficientData)
	}
	if up.SampleID != "" {
		if _, err := l.GetSample(ctx, up.UserID, up.SampleID); err != nil {
			return nil, err
		}
	}
	points, err := measurement.ParseRaw(up.Data)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("instrument file parsed", "kind", kind, "filename", up.Filename, "points", len(points))
	return &domain.Measurement{
		ID:        l.newID(),
		UserID:    up.UserID,
		SampleID:  up.SampleID,
		Kind:      kind,
		Filename:  up.Filename,
		Notes:     strings.TrimSpace(up.Notes),
		Points:    points,
		CreatedAt: l.now().UTC(),
	}, nil
}

func (l *Lab) store(ctx context.Context, m *domain.Measurement, peaks int) (*domain.Measurement, error) {
	if err := l.measurements.Save(ctx, m); err != nil {
		l.metrics.Import(string(m.Kind), peaks, err)
		return nil, fmt.Errorf("save measurement: %w", err)
	}
	l.metrics.Import(string(m.Kind), peaks, nil)
	l.logger.Info("measurement imported", "measurement_id", m.ID, "kind", m.Kind, "points", len(m.Points))
	return m, nil
}

// ImportXRD parses a 2θ/intensity scan, finds its peaks and stores it.
func (l *Lab) ImportXRD(ctx context.Context, up Upload) (*domain.Measurement, error) {
	m, err := l.newMeasurement(ctx, domain.KindXRD, up)
	if err != nil {
		l.metrics.Import(string(domain.KindXRD), -1, err)
		return nil, err
	}
	m.Peaks, err = measurement.AnalyzeXRD(m.Points)
	if err != nil {
		l.metrics.Import(string(domain.KindXRD), -1, err)
		return nil, err
	}
	return l.store(ctx, m, len(m.Peaks))
}

// ImportMagnetic parses a moment curve, derives Ms, Mr and Hc and stores it.
func (l *Lab) ImportMagnetic(ctx context.Context, up Upload) (*domain.Measurement, error) {
	sweep, err := measurement.NormalizeType(up.MeasurementType)
	if err != nil {
		l.metrics.Import(string(domain.KindMagnetic), -1, err)
		return nil, err
	}
	m, err := l.newMeasurement(ctx, domain.KindMagnetic, up)
	if err != nil {
		l.metrics.Import(string(domain.KindMagnetic), -1, err)
		return nil, err
	}
	m.MeasurementType = sweep
	props, err := measurement.AnalyzeMagnetic(m.Points)
	if err != nil {
		l.metrics.Import(string(domain.KindMagnetic), -1, err)
		return nil, err
	}
	m.Properties = &props
	return l.store(ctx, m, -1)
}

// ListMeasurements returns the user's imports, newest first.
func (l *Lab) ListMeasurements(ctx context.Context, userID string) ([]domain.Measurement, error) {
	return l.measurements.List(ctx, userID)
}

// GetMeasurement returns one of the user's imports.
func (l *Lab) GetMeasurement(ctx context.Context, userID, id string) (*domain.Measurement, error) {
	m, err := l.measurements.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.UserID != userID {
		return nil, domain.ErrMeasurementNotFound
	}
	return m, nil
}

// inputErrors are the sentinels that describe bad caller input.
var inputErrors = []error{
	chem.ErrEmptyFormula,
	chem.ErrNoRecognizedElements,
	chem.ErrUnknownElement,
	chem.ErrInvalidStoichiometry,
	chem.ErrInvalidTargetMass,
	chem.ErrUnknownTargetElement,
	chem.ErrTargetNotInFormula,
	measurement.ErrInsufficientData,
	measurement.ErrUnknownMeasurementType,
}

// IsInputError reports whether err was caused by the caller's input rather
// than by storage or infrastructure.
func IsInputError(err error) bool {
	var chemErr *chem.Error
	if errors.As(err, &chemErr) {
		return true
	}
	for _, target := range inputErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
