package domain

import "errors"

var (
	// ErrInvalidSection means required RawSection fields are missing. Fatal to the caller.
	ErrInvalidSection = errors.New("invalid section descriptor")
	// ErrMalformedInput means section bounds do not fit the text. Fatal for that section only.
	ErrMalformedInput = errors.New("malformed input")
	// ErrExternalService wraps failures of AI, embedding and similar remote calls.
	ErrExternalService = errors.New("external service error")
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
)
