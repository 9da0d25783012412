package domain

import "errors"

// Sentinel errors shared by repositories, services and delivery.
var (
	// ErrNotFound is returned when an event, blob or user is absent where presence was expected.
	ErrNotFound = errors.New("not found")
	// ErrStorage wraps every failure reported by the relational store (connectivity, constraints).
	ErrStorage = errors.New("storage failure")
	// ErrConflict marks a unique-constraint violation; it is always wrapped together with ErrStorage.
	ErrConflict = errors.New("already exists")
	// ErrConsistency is returned when a join row references a blob or user that cannot be resolved.
	ErrConsistency = errors.New("consistency fault")
	// ErrInvalidInput is returned when the request is invalid (bad enum value, empty image, unknown participant).
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("invalid credentials")
)
