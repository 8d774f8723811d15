package gaze

import "context"

// Source provides a normalized 2D gaze direction.
//
// Exactly one Source is active per controller; see Switcher for the
// transition that guarantees cleanup-before-initialize ordering.
type Source interface {
	// Initialize opens the underlying input channel.
	// Returns an *InitError if the channel cannot be opened.
	Initialize(ctx context.Context) error

	// Cleanup releases the input channel.
	// It is idempotent and safe to call without a prior Initialize.
	Cleanup()

	// Direction returns the latest gaze sample without blocking
	// (except for the plugin variant, which queries synchronously).
	// It never fails: with no fresh data it returns the last good
	// sample, or the zero Sample before any data arrived.
	Direction() Sample

	// Name returns the provider method (e.g., "pointer", "network").
	Name() string
}

// SourceStats contains statistics about a gaze source.
type SourceStats struct {
	// Received is the number of samples accepted.
	Received int64 `json:"received"`

	// Rejected is the number of inputs dropped as malformed or invalid.
	Rejected int64 `json:"rejected"`

	// Running indicates if the source is currently initialized.
	Running bool `json:"running"`

	// Method is the name of the provider.
	Method string `json:"method"`
}

// SourceWithStats extends Source with statistics.
type SourceWithStats interface {
	Source
	Stats() SourceStats
}
