package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/elementx/pkg/chem"
	"github.com/aretw0/elementx/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractResult(t *testing.T) chem.Result {
	t.Helper()
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	res, err := chem.NewCalculator(chem.WithClock(func() time.Time { return at })).Calculate("Fe2MoGe", "Ge", 1)
	require.NoError(t, err)
	return res
}

// RunSampleStoreContract runs a suite of tests to verify that a SampleStore implementation
// adheres to the defined interface contract.
func RunSampleStoreContract(t *testing.T, store SampleStore) {
	ctx := context.Background()
	prefix := "contract-" + time.Now().Format("20060102150405")
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Save and Load", func(t *testing.T) {
		sample := &domain.Sample{
			ID:        prefix + "-a",
			UserID:    prefix + "-user",
			Name:      "heusler batch 1",
			Result:    contractResult(t),
			CreatedAt: base,
		}
		require.NoError(t, store.Save(ctx, sample), "Save should not return error")

		loaded, err := store.Load(ctx, sample.ID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, sample.Name, loaded.Name)
		assert.Equal(t, sample.UserID, loaded.UserID)
		assert.True(t, sample.CreatedAt.Equal(loaded.CreatedAt))
		assert.Equal(t, sample.Result.Formula, loaded.Result.Formula)
		assert.Equal(t, sample.Result.Target, loaded.Result.Target)
		assert.Equal(t, sample.Result.Components, loaded.Result.Components)
		assert.Equal(t, sample.Result.Total, loaded.Result.Total)
		assert.True(t, sample.Result.CalculatedAt.Equal(loaded.Result.CalculatedAt))

		require.NoError(t, store.Delete(ctx, sample.ID))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+prefix)
		assert.ErrorIs(t, err, domain.ErrSampleNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		id := prefix + "-del"
		require.NoError(t, store.Save(ctx, &domain.Sample{ID: id, UserID: prefix + "-user", Result: contractResult(t), CreatedAt: base}))

		require.NoError(t, store.Delete(ctx, id), "Delete should not return error")

		_, err := store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrSampleNotFound, "Load after Delete should return ErrSampleNotFound")

		assert.NoError(t, store.Delete(ctx, id), "Deleting twice is not an error")
	})

	t.Run("List newest first per user", func(t *testing.T) {
		user := prefix + "-lister"
		other := prefix + "-other"
		ids := []string{prefix + "-l1", prefix + "-l2", prefix + "-l3"}
		for i, id := range ids {
			require.NoError(t, store.Save(ctx, &domain.Sample{
				ID:        id,
				UserID:    user,
				Result:    contractResult(t),
				CreatedAt: base.Add(time.Duration(i) * time.Minute),
			}))
		}
		require.NoError(t, store.Save(ctx, &domain.Sample{ID: prefix + "-x", UserID: other, Result: contractResult(t), CreatedAt: base}))

		defer func() {
			for _, id := range append(ids, prefix+"-x") {
				_ = store.Delete(ctx, id)
			}
		}()

		samples, err := store.List(ctx, user)
		require.NoError(t, err)
		require.Len(t, samples, 3)
		assert.Equal(t, ids[2], samples[0].ID)
		assert.Equal(t, ids[1], samples[1].ID)
		assert.Equal(t, ids[0], samples[2].ID)

		empty, err := store.List(ctx, prefix+"-nobody")
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("Save replaces", func(t *testing.T) {
		id := prefix + "-replace"
		user := prefix + "-replacer"
		require.NoError(t, store.Save(ctx, &domain.Sample{ID: id, UserID: user, Name: "first", Result: contractResult(t), CreatedAt: base}))
		require.NoError(t, store.Save(ctx, &domain.Sample{ID: id, UserID: user, Name: "second", Result: contractResult(t), CreatedAt: base}))
		defer func() { _ = store.Delete(ctx, id) }()

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "second", loaded.Name)

		samples, err := store.List(ctx, user)
		require.NoError(t, err)
		assert.Len(t, samples, 1)
	})
}

// RunUserStoreContract verifies a UserStore implementation.
func RunUserStoreContract(t *testing.T, store UserStore) {
	ctx := context.Background()
	prefix := "contract-" + time.Now().Format("20060102150405")

	user := &domain.User{
		ID:           prefix + "-u1",
		Name:         "Marie Curie",
		Institution:  "Sorbonne",
		Email:        prefix + "@example.org",
		PasswordHash: []byte("$2a$10$notarealhashbutbytesareopaque"),
		CreatedAt:    time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	t.Run("Create and Find", func(t *testing.T) {
		require.NoError(t, store.Create(ctx, user))

		byEmail, err := store.FindByEmail(ctx, user.Email)
		require.NoError(t, err)
		assert.Equal(t, user.ID, byEmail.ID)
		assert.Equal(t, user.Name, byEmail.Name)
		assert.Equal(t, user.Institution, byEmail.Institution)
		assert.Equal(t, user.PasswordHash, byEmail.PasswordHash)
		assert.True(t, user.CreatedAt.Equal(byEmail.CreatedAt))

		byID, err := store.FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.Email, byID.Email)
	})

	t.Run("Email is case-insensitive", func(t *testing.T) {
		found, err := store.FindByEmail(ctx, "CONTRACT-"+user.Email[len("contract-"):])
		require.NoError(t, err)
		assert.Equal(t, user.ID, found.ID)
	})

	t.Run("Duplicate email", func(t *testing.T) {
		dup := *user
		dup.ID = prefix + "-u2"
		err := store.Create(ctx, &dup)
		assert.ErrorIs(t, err, domain.ErrEmailTaken)
	})

	t.Run("Not found", func(t *testing.T) {
		_, err := store.FindByEmail(ctx, "nobody-"+prefix+"@example.org")
		assert.ErrorIs(t, err, domain.ErrUserNotFound)

		_, err = store.FindByID(ctx, "nobody-"+prefix)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}

// RunMeasurementStoreContract verifies a MeasurementStore implementation.
func RunMeasurementStoreContract(t *testing.T, store MeasurementStore) {
	ctx := context.Background()
	prefix := "contract-" + time.Now().Format("20060102150405")
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	xrd := &domain.Measurement{
		ID:        prefix + "-xrd",
		UserID:    prefix + "-user",
		SampleID:  prefix + "-sample",
		Kind:      domain.KindXRD,
		Filename:  "scan.xy",
		Notes:     "Cu Kα",
		Points:    []domain.Point{{X: 20, Y: 1}, {X: 20.5, Y: 30}, {X: 21, Y: 2}},
		Peaks:     []domain.Peak{{Index: 1, Angle: 20.5, Intensity: 30, Prominence: 29}},
		CreatedAt: base,
	}
	mag := &domain.Measurement{
		ID:              prefix + "-mag",
		UserID:          prefix + "-user",
		Kind:            domain.KindMagnetic,
		Filename:        "loop.dat",
		MeasurementType: domain.SweepFieldM,
		Points:          []domain.Point{{X: -1, Y: -2}, {X: 1, Y: 2}},
		Properties:      &domain.MagneticProperties{Ms: 2, Mr: 0.5, Hc: 0.1},
		CreatedAt:       base.Add(time.Minute),
	}

	t.Run("Save and Load", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, xrd))
		require.NoError(t, store.Save(ctx, mag))

		loaded, err := store.Load(ctx, xrd.ID)
		require.NoError(t, err)
		assert.Equal(t, xrd.Kind, loaded.Kind)
		assert.Equal(t, xrd.SampleID, loaded.SampleID)
		assert.Equal(t, xrd.Notes, loaded.Notes)
		assert.Equal(t, xrd.Points, loaded.Points)
		assert.Equal(t, xrd.Peaks, loaded.Peaks)
		assert.Nil(t, loaded.Properties)

		loaded, err = store.Load(ctx, mag.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.SweepFieldM, loaded.MeasurementType)
		require.NotNil(t, loaded.Properties)
		assert.Equal(t, *mag.Properties, *loaded.Properties)
	})

	t.Run("List newest first", func(t *testing.T) {
		list, err := store.List(ctx, prefix+"-user")
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, mag.ID, list[0].ID)
		assert.Equal(t, xrd.ID, list[1].ID)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "missing-"+prefix)
		assert.ErrorIs(t, err, domain.ErrMeasurementNotFound)
	})
}
