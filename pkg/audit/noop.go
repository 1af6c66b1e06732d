package audit

import "context"

// NoOpRecorder is a recorder that does nothing. Used in tests and in local
// runs without an outbox queue.
type NoOpRecorder struct{}

// Record does nothing.
func (r *NoOpRecorder) Record(ctx context.Context, event Event) error {
	return nil
}
