package ports

import (
	"context"

	"github.com/aretw0/elementx/pkg/domain"
)

// SampleStore persists saved calculations.
// IDs are assigned by the caller before Save; the store treats them as opaque.
type SampleStore interface {
	// Save inserts or replaces the sample under sample.ID.
	Save(ctx context.Context, sample *domain.Sample) error

	// Load retrieves a sample by ID.
	// Returns domain.ErrSampleNotFound if the sample does not exist.
	Load(ctx context.Context, id string) (*domain.Sample, error)

	// List returns the user's samples, newest first.
	List(ctx context.Context, userID string) ([]domain.Sample, error)

	// Delete removes a sample. Deleting a missing sample is not an error.
	Delete(ctx context.Context, id string) error
}

// UserStore persists accounts.
type UserStore interface {
	// Create inserts a new user.
	// Returns domain.ErrEmailTaken if the email is already registered.
	Create(ctx context.Context, user *domain.User) error

	// FindByEmail looks a user up by email (exact match after lower-casing).
	// Returns domain.ErrUserNotFound if there is no such user.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)

	// FindByID looks a user up by ID.
	// Returns domain.ErrUserNotFound if there is no such user.
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// MeasurementStore persists imported instrument files.
type MeasurementStore interface {
	// Save inserts or replaces the measurement under m.ID.
	Save(ctx context.Context, m *domain.Measurement) error

	// Load retrieves a measurement by ID.
	// Returns domain.ErrMeasurementNotFound if it does not exist.
	Load(ctx context.Context, id string) (*domain.Measurement, error)

	// List returns the user's measurements, newest first.
	List(ctx context.Context, userID string) ([]domain.Measurement, error)
}
