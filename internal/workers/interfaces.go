package workers

import "context"

// Worker is a background component of the sync daemon. Run starts it and
// returns promptly; the worker stops when ctx is cancelled.
type Worker interface {
	Run(ctx context.Context)
}
