package domain

import "errors"

// ErrSampleNotFound is returned when a sample ID cannot be found in the store,
// or belongs to another user.
var ErrSampleNotFound = errors.New("sample not found")

// ErrMeasurementNotFound is returned when a measurement ID cannot be found in the store.
var ErrMeasurementNotFound = errors.New("measurement not found")

// ErrUserNotFound is returned when no user matches the lookup key.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailTaken is returned when registering an email that already has an account.
var ErrEmailTaken = errors.New("email already registered")
