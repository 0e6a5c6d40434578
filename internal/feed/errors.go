package feed

import "errors"

// Failure taxonomy surfaced by the service. Handlers map these to HTTP
// statuses; everything else is an internal error.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("post not found")
	ErrBlobStore    = errors.New("blob store failure")
	ErrPersistence  = errors.New("persistence failure")
)
