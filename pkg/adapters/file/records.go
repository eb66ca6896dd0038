package file

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/elementx/pkg/domain"
)

// MeasurementStore implements ports.MeasurementStore with one JSON file per
// imported instrument file.
type MeasurementStore struct {
	BasePath string
}

// NewMeasurementStore defaults basePath to ".elementx/measurements".
func NewMeasurementStore(basePath string) *MeasurementStore {
	if basePath == "" {
		basePath = filepath.Join(".elementx", "measurements")
	}
	return &MeasurementStore{BasePath: basePath}
}

// Save persists the measurement.
func (f *MeasurementStore) Save(ctx context.Context, m *domain.Measurement) error {
	path, err := recordPath(f.BasePath, "measurement", m.ID)
	if err != nil {
		return err
	}
	return writeJSON(path, m)
}

// Load retrieves a measurement by ID.
func (f *MeasurementStore) Load(ctx context.Context, id string) (*domain.Measurement, error) {
	path, err := recordPath(f.BasePath, "measurement", id)
	if err != nil {
		return nil, err
	}
	var m domain.Measurement
	if err := readJSON(path, &m); err != nil {
		if errors.Is(err, errNotExist) {
			return nil, domain.ErrMeasurementNotFound
		}
		return nil, err
	}
	return &m, nil
}

// List returns the user's measurements, newest first.
func (f *MeasurementStore) List(ctx context.Context, userID string) ([]domain.Measurement, error) {
	all, err := readDir[domain.Measurement](ctx, f.BasePath)
	if err != nil {
		return nil, err
	}
	out := []domain.Measurement{}
	for _, m := range all {
		if m.UserID == userID {
			out = append(out, m)
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

// userRecord keeps the password hash, which domain.User hides from JSON.
type userRecord struct {
	domain.User
	PasswordHash []byte `json:"password_hash"`
}

// UserStore implements ports.UserStore. Email lookups scan the directory,
// which is fine for the handful of accounts a local install holds.
type UserStore struct {
	BasePath string
	mu       sync.Mutex
}

// NewUserStore defaults basePath to ".elementx/users".
func NewUserStore(basePath string) *UserStore {
	if basePath == "" {
		basePath = filepath.Join(".elementx", "users")
	}
	return &UserStore{BasePath: basePath}
}

// Create inserts a new user, rejecting an email that is already registered.
func (f *UserStore) Create(ctx context.Context, user *domain.User) error {
	path, err := recordPath(f.BasePath, "user", user.ID)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := f.findByEmail(ctx, user.Email); err == nil {
		return domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}
	return writeJSON(path, userRecord{User: *user, PasswordHash: user.PasswordHash})
}

// FindByEmail looks a user up by case-insensitive email.
func (f *UserStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.findByEmail(ctx, email)
}

func (f *UserStore) findByEmail(ctx context.Context, email string) (*domain.User, error) {
	all, err := readDir[userRecord](ctx, f.BasePath)
	if err != nil {
		return nil, err
	}
	for _, rec := range all {
		if strings.EqualFold(rec.Email, email) {
			return rec.user(), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// FindByID looks a user up by ID.
func (f *UserStore) FindByID(ctx context.Context, id string) (*domain.User, error) {
	path, err := recordPath(f.BasePath, "user", id)
	if err != nil {
		return nil, err
	}
	var rec userRecord
	if err := readJSON(path, &rec); err != nil {
		if errors.Is(err, errNotExist) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return rec.user(), nil
}

func (r userRecord) user() *domain.User {
	u := r.User
	u.PasswordHash = r.PasswordHash
	return &u
}
