// Package common defines shared constants and sentinel errors used across
// the PageKeeper server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal         = errors.New("internal error")
	ErrorUnauthorized     = errors.New("unauthorized")
	ErrStorageUnavailable = errors.New("storage unavailable")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrRateLimited  = errors.New("too many requests")

	// Request validation errors.
	ErrArgumentInvalid     = errors.New("invalid argument")
	ErrMalformedPath       = errors.New("malformed path")
	ErrInvalidSectionsJSON = errors.New("invalid sections json")
	ErrIncompatibleNode    = errors.New("incompatible node on path")

	// Upload errors, raised before anything is written.
	ErrFileTooLarge        = errors.New("file too large")
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// Static site browsing.
	ErrAccessDenied = errors.New("access denied")
)
