// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// inspecting SQL driver errors. For example, ErrTripNotFound maps to an
// HTTP 404 while ErrEmailTaken maps to a user-facing signup rejection.
package repository

import "errors"

// ErrUserNotFound is returned when a user lookup yields no rows.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailTaken is returned when signup attempts to reuse an email
// address that already has an account.
var ErrEmailTaken = errors.New("email already exists")

// ErrBusNotFound is returned when a bus lookup yields no rows.
var ErrBusNotFound = errors.New("bus not found")

// ErrTripNotFound is returned when a trip lookup yields no rows.
var ErrTripNotFound = errors.New("trip not found")

// ErrBookingNotFound is returned when a booking lookup yields no rows or
// the booking belongs to a different user.
var ErrBookingNotFound = errors.New("booking not found")
