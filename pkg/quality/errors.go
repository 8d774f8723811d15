package quality

import "errors"

// Sentinel errors for common error conditions.
var (
	// ErrInvalidPreset is returned for preset names outside the enumeration.
	ErrInvalidPreset = errors.New("quality: invalid preset")

	// ErrInvalidRate is returned for unknown shading rate names.
	ErrInvalidRate = errors.New("quality: invalid shading rate")

	// ErrSessionOpen is returned when the backend refuses to open a session.
	ErrSessionOpen = errors.New("quality: backend session could not be opened")

	// ErrNoBackend is returned when a session has no backend to open.
	ErrNoBackend = errors.New("quality: no backend")
)
