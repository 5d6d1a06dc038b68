// Package common defines shared constants and sentinel errors used across
// taskkeeper layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound            = errors.New("not found")
	ErrorConstraintViolation = errors.New("constraint violation")

	// Service-level errors.
	ErrorUnauthorized  = errors.New("unauthorized")
	ErrorAlreadyExists = errors.New("already exists")
	ErrorValidation    = errors.New("validation error")
	ErrorRateLimited   = errors.New("rate limited")

	// Auth errors (invalid, malformed or wrong-typed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
)
