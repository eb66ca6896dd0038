package elementx_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/elementx"
	"github.com/aretw0/elementx/pkg/chem"
	"github.com/aretw0/elementx/pkg/domain"
	"github.com/aretw0/elementx/pkg/measurement"
	"github.com/aretw0/elementx/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ticker struct {
	t time.Time
	n int
}

func (c *ticker) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func (c *ticker) ID() string {
	c.n++
	return fmt.Sprintf("id-%d", c.n)
}

func newLab(opts ...elementx.Option) (*elementx.Lab, *ticker) {
	c := &ticker{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	opts = append([]elementx.Option{elementx.WithClock(c.Now), elementx.WithIDGenerator(c.ID)}, opts...)
	return elementx.New(opts...), c
}

func TestLab_Calculate(t *testing.T) {
	lab, _ := newLab()

	res, err := lab.Calculate(" Fe2MoGe ", "ge", 1)
	require.NoError(t, err)
	assert.Equal(t, "Fe2MoGe", res.Formula)
	assert.Equal(t, "Ge", res.Target)
	assert.False(t, res.CalculatedAt.IsZero())

	_, err = lab.Calculate("Fe2MoGe", "Cu", 1)
	assert.ErrorIs(t, err, chem.ErrTargetNotInFormula)
	assert.True(t, elementx.IsInputError(err))
}

func TestLab_Calculate_InputErrors(t *testing.T) {
	lab, _ := newLab()

	tests := []struct {
		name    string
		formula string
		target  string
		mass    float64
		wantErr error
	}{
		{"empty formula", "", "H", 1, chem.ErrEmptyFormula},
		{"blank formula", "   ", "H", 1, chem.ErrEmptyFormula},
		{"digits only", "123", "H", 1, chem.ErrNoRecognizedElements},
		{"lowercase only", "h2o", "H", 1, chem.ErrNoRecognizedElements},
		{"unknown element", "Xx2O", "O", 1, chem.ErrUnknownElement},
		{"zero count", "Fe0Ge", "Ge", 1, chem.ErrInvalidStoichiometry},
		{"zero mass", "Fe2O3", "Fe", 0, chem.ErrInvalidTargetMass},
		{"unknown target", "Fe2O3", "Unobtainium", 1, chem.ErrUnknownTargetElement},
		{"target not in formula", "Fe2O3", "Ge", 1, chem.ErrTargetNotInFormula},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := lab.Calculate(tt.formula, tt.target, tt.mass)
			require.ErrorIs(t, err, tt.wantErr)
			assert.True(t, elementx.IsInputError(err), "%v", err)
		})
	}
}

func TestIsInputError(t *testing.T) {
	for _, err := range []error{
		chem.ErrEmptyFormula,
		chem.ErrNoRecognizedElements,
		fmt.Errorf("calculate: %w", chem.ErrTargetNotInFormula),
		measurement.ErrInsufficientData,
		measurement.ErrUnknownMeasurementType,
	} {
		assert.True(t, elementx.IsInputError(err), "%v", err)
	}

	for _, err := range []error{
		nil,
		domain.ErrSampleNotFound,
		fmt.Errorf("save sample: %w", context.DeadlineExceeded),
	} {
		assert.False(t, elementx.IsInputError(err), "%v", err)
	}
}

func TestLab_SampleHistory(t *testing.T) {
	ctx := context.Background()
	lab, _ := newLab()

	res, err := lab.Calculate("Fe2MoGe", "Ge", 1)
	require.NoError(t, err)

	first, err := lab.SaveSample(ctx, "alice", "  batch 1 ", res)
	require.NoError(t, err)
	assert.Equal(t, "batch 1", first.Name)

	second, err := lab.SaveSample(ctx, "alice", "", res)
	require.NoError(t, err)
	assert.Equal(t, "Fe2MoGe", second.DisplayName())

	_, err = lab.SaveSample(ctx, "bob", "bob's", res)
	require.NoError(t, err)

	list, err := lab.ListSamples(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")
	assert.Equal(t, first.ID, list[1].ID)

	got, err := lab.GetSample(ctx, "alice", first.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Components, got.Result.Components)

	_, err = lab.GetSample(ctx, "bob", first.ID)
	assert.ErrorIs(t, err, domain.ErrSampleNotFound, "other users' samples are invisible")

	assert.ErrorIs(t, lab.DeleteSample(ctx, "bob", first.ID), domain.ErrSampleNotFound)
	require.NoError(t, lab.DeleteSample(ctx, "alice", first.ID))
	assert.ErrorIs(t, lab.DeleteSample(ctx, "alice", first.ID), domain.ErrSampleNotFound)

	list, err = lab.ListSamples(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestLab_SaveSample_Rejects(t *testing.T) {
	lab, _ := newLab()
	res, err := lab.Calculate("H2O", "O", 1)
	require.NoError(t, err)

	_, err = lab.SaveSample(context.Background(), "", "x", res)
	assert.Error(t, err)

	_, err = lab.SaveSample(context.Background(), "u", "x", chem.Result{})
	assert.Error(t, err)
}

func xrdFile() string {
	var b strings.Builder
	b.WriteString("# 2theta intensity\n")
	for i := 0; i < 60; i++ {
		y := 10.0
		switch d := i - 30; {
		case d == 0:
			y = 500
		case d == 1 || d == -1:
			y = 200
		}
		fmt.Fprintf(&b, "%.2f, %.1f\n", 20+0.5*float64(i), y)
	}
	return b.String()
}

func TestLab_ImportXRD(t *testing.T) {
	ctx := context.Background()
	metrics := observability.NewMetrics()
	lab, _ := newLab(elementx.WithMetrics(metrics))

	m, err := lab.ImportXRD(ctx, elementx.Upload{
		UserID:   "alice",
		Filename: "scan.xy",
		Notes:    " Cu Kα ",
		Data:     strings.NewReader(xrdFile()),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.KindXRD, m.Kind)
	assert.Len(t, m.Points, 60)
	assert.Equal(t, "Cu Kα", m.Notes)
	require.Len(t, m.Peaks, 1)
	assert.Equal(t, 35.0, m.Peaks[0].Angle)
	assert.Equal(t, 500.0, m.Peaks[0].Intensity)

	list, err := lab.ListMeasurements(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = lab.GetMeasurement(ctx, "bob", m.ID)
	assert.ErrorIs(t, err, domain.ErrMeasurementNotFound)

	got, err := lab.GetMeasurement(ctx, "alice", m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.Peaks, got.Peaks)
}

func TestLab_ImportXRD_TooShort(t *testing.T) {
	lab, _ := newLab()
	_, err := lab.ImportXRD(context.Background(), elementx.Upload{
		UserID: "alice",
		Data:   strings.NewReader("angle intensity\n1 2\n3 4\n"),
	})
	assert.ErrorIs(t, err, measurement.ErrInsufficientData)
	assert.True(t, elementx.IsInputError(err))

	_, err = lab.ImportXRD(context.Background(), elementx.Upload{UserID: "alice"})
	assert.ErrorIs(t, err, measurement.ErrInsufficientData)
}

func TestLab_ImportMagnetic(t *testing.T) {
	ctx := context.Background()
	lab, _ := newLab()

	loop := "field moment\n-2 -3\n-1 -2.5\n0 -1\n1 2\n2 3\n1 2.5\n0 1\n-1 -2\n-2 -3\n"
	m, err := lab.ImportMagnetic(ctx, elementx.Upload{
		UserID:   "alice",
		Filename: "loop.dat",
		Data:     strings.NewReader(loop),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.SweepFieldM, m.MeasurementType, "defaults to M-H")
	require.NotNil(t, m.Properties)
	assert.Equal(t, 3.0, m.Properties.Ms)
	assert.Equal(t, 1.0, m.Properties.Mr)

	_, err = lab.ImportMagnetic(ctx, elementx.Upload{
		UserID:          "alice",
		MeasurementType: "FC",
		Data:            strings.NewReader(loop),
	})
	assert.ErrorIs(t, err, measurement.ErrUnknownMeasurementType)
}

func TestLab_ImportLinkedToSample(t *testing.T) {
	ctx := context.Background()
	lab, _ := newLab()
	res, err := lab.Calculate("Fe2MoGe", "Ge", 1)
	require.NoError(t, err)
	sample, err := lab.SaveSample(ctx, "alice", "", res)
	require.NoError(t, err)

	m, err := lab.ImportXRD(ctx, elementx.Upload{UserID: "alice", SampleID: sample.ID, Data: strings.NewReader(xrdFile())})
	require.NoError(t, err)
	assert.Equal(t, sample.ID, m.SampleID)

	_, err = lab.ImportXRD(ctx, elementx.Upload{UserID: "bob", SampleID: sample.ID, Data: strings.NewReader(xrdFile())})
	assert.ErrorIs(t, err, domain.ErrSampleNotFound)
}

func TestVersion(t *testing.T) {
	assert.Regexp(t, `^\d+\.\d+\.\d+`, elementx.Version)
}
