package gaze

import (
	"context"
	"sync/atomic"
)

// RemoteSource reads samples that another component publishes into a
// Mailbox, such as the websocket tracker ingest.
type RemoteSource struct {
	mailbox *Mailbox
	axes    AxisConvention
	running atomic.Bool
}

// NewRemoteSource creates a source over an existing mailbox.
func NewRemoteSource(mb *Mailbox, axes AxisConvention) *RemoteSource {
	return &RemoteSource{mailbox: mb, axes: axes}
}

// Initialize requires a mailbox.
func (r *RemoteSource) Initialize(ctx context.Context) error {
	if r.mailbox == nil {
		return &InitError{Method: MethodRemote, Err: ErrMissingDependency}
	}
	r.running.Store(true)
	return nil
}

// Cleanup marks the source stopped. The mailbox is owned by the publisher.
func (r *RemoteSource) Cleanup() {
	r.running.Store(false)
}

// Direction returns the latest published sample.
func (r *RemoteSource) Direction() Sample {
	if r.mailbox == nil || !r.running.Load() {
		return Sample{}
	}
	s, _ := r.mailbox.Load()
	return r.axes.Apply(s)
}

// Name returns "remote".
func (r *RemoteSource) Name() string {
	return string(MethodRemote)
}
