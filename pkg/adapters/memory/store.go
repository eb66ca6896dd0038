package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/elementx/pkg/domain"
)

// SampleStore implements ports.SampleStore in memory.
// Safe for concurrent use.
type SampleStore struct {
	data map[string]*domain.Sample
	mu   sync.RWMutex
}

// NewSampleStore creates a new in-memory sample store.
func NewSampleStore() *SampleStore {
	return &SampleStore{
		data: make(map[string]*domain.Sample),
	}
}

// Save stores a copy of the sample.
func (s *SampleStore) Save(ctx context.Context, sample *domain.Sample) error {
	copied := copySample(sample)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sample.ID] = copied
	return nil
}

// Load retrieves a copy of the sample so callers can't mutate store state by pointer.
func (s *SampleStore) Load(ctx context.Context, id string) (*domain.Sample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sample, ok := s.data[id]
	if !ok {
		return nil, domain.ErrSampleNotFound
	}
	return copySample(sample), nil
}

// List returns the user's samples, newest first.
func (s *SampleStore) List(ctx context.Context, userID string) ([]domain.Sample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	samples := make([]domain.Sample, 0)
	for _, sample := range s.data {
		if sample.UserID == userID {
			samples = append(samples, *copySample(sample))
		}
	}
	slices.SortFunc(samples, func(a, b domain.Sample) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return samples, nil
}

// Delete removes the sample.
func (s *SampleStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

func copySample(sample *domain.Sample) *domain.Sample {
	c := *sample
	c.Result.Components = slices.Clone(sample.Result.Components)
	return &c
}

// UserStore implements ports.UserStore in memory.
type UserStore struct {
	byID    map[string]*domain.User
	byEmail map[string]string
	mu      sync.RWMutex
}

// NewUserStore creates a new in-memory user store.
func NewUserStore() *UserStore {
	return &UserStore{
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]string),
	}
}

// Create stores a new user, rejecting duplicate emails.
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	email := strings.ToLower(user.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[email]; taken {
		return domain.ErrEmailTaken
	}
	copied := copyUser(user)
	copied.Email = email
	s.byID[user.ID] = copied
	s.byEmail[email] = user.ID
	return nil
}

// FindByEmail looks a user up by email.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return copyUser(s.byID[id]), nil
}

// FindByID looks a user up by ID.
func (s *UserStore) FindByID(ctx context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return copyUser(user), nil
}

func copyUser(user *domain.User) *domain.User {
	c := *user
	c.PasswordHash = slices.Clone(user.PasswordHash)
	return &c
}

// MeasurementStore implements ports.MeasurementStore in memory.
type MeasurementStore struct {
	data map[string]*domain.Measurement
	mu   sync.RWMutex
}

// NewMeasurementStore creates a new in-memory measurement store.
func NewMeasurementStore() *MeasurementStore {
	return &MeasurementStore{
		data: make(map[string]*domain.Measurement),
	}
}

// Save stores a copy of the measurement.
func (s *MeasurementStore) Save(ctx context.Context, m *domain.Measurement) error {
	copied := copyMeasurement(m)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[m.ID] = copied
	return nil
}

// Load retrieves a copy of the measurement.
func (s *MeasurementStore) Load(ctx context.Context, id string) (*domain.Measurement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.data[id]
	if !ok {
		return nil, domain.ErrMeasurementNotFound
	}
	return copyMeasurement(m), nil
}

// List returns the user's measurements, newest first.
func (s *MeasurementStore) List(ctx context.Context, userID string) ([]domain.Measurement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Measurement, 0)
	for _, m := range s.data {
		if m.UserID == userID {
			out = append(out, *copyMeasurement(m))
		}
	}
	slices.SortFunc(out, func(a, b domain.Measurement) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func copyMeasurement(m *domain.Measurement) *domain.Measurement {
	c := *m
	c.Points = slices.Clone(m.Points)
	c.Peaks = slices.Clone(m.Peaks)
	if m.Properties != nil {
		props := *m.Properties
		c.Properties = &props
	}
	return &c
}
