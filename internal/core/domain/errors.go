package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrArchiveUnavailable indicates the message archive is missing or
	// cannot be opened. Read-path services translate this into an empty
	// result so callers can render an empty state; only write paths
	// surface it.
	ErrArchiveUnavailable = errors.New("archive unavailable")

	// ErrSuperseded indicates an in-flight computation was replaced by a
	// newer request for the same archive. Its partial results are
	// discarded, never merged.
	ErrSuperseded = errors.New("superseded by newer request")

	// ErrExportAborted indicates a streaming export failed mid-write.
	// No partial output file is left behind.
	ErrExportAborted = errors.New("export aborted")
)
