package domain

import "errors"

var (
	// ErrLocationNotFound is returned when geocoding yields no result
	ErrLocationNotFound = errors.New("location not found")

	// ErrRoutingProviderUnavailable is returned on network, provider or timeout failures
	ErrRoutingProviderUnavailable = errors.New("routing provider unavailable")

	// ErrNoRoute is returned when the provider answered but cannot route between the points
	ErrNoRoute = errors.New("no route found")

	// ErrInvalidInput is returned for requests rejected before any I/O
	ErrInvalidInput = errors.New("invalid input")
)
