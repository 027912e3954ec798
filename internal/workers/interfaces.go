// Package workers provides abstractions for managing and running
// background workers of the sync engine.
// It defines the Worker interface and a Workers aggregate that starts and
// stops multiple workers in a unified way.
package workers

import "context"

// Worker is the interface that must be implemented by any background worker.
//
// Run starts the worker's execution and must not block: implementations
// spawn goroutines internally and tie their lifetime to ctx. Stop blocks
// until the worker has fully shut down.
type Worker interface {
	Run(ctx context.Context)
	Stop()
}
