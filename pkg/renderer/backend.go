package renderer

import (
	"context"
	"fmt"
)

// Backend selects how a Pool executes tasks
type Backend string

const (
	// BackendNative runs tasks on goroutines in this process
	BackendNative Backend = "native"

	// BackendProcess runs tasks in child worker processes
	BackendProcess Backend = "process"
)

// ParseBackend maps a backend name to a Backend. An empty name selects DefaultBackend.
func ParseBackend(name string) (Backend, error) {
	switch Backend(name) {
	case "":
		return DefaultBackend, nil
	case BackendNative, BackendProcess:
		return Backend(name), nil
	}
	return "", fmt.Errorf("unknown backend %q (want %q or %q)", name, BackendNative, BackendProcess)
}

// NewPool creates a pool for job on the given backend. Callers see the same
// behaviour from both: every submitted task produces one update on out, and
// Close closes out after the last one.
func NewPool(ctx context.Context, backend Backend, job RenderJob, numWorkers int, out chan<- PixelUpdate) (Pool, error) {
	switch backend {
	case BackendNative:
		renderer, err := NewPixelRenderer(job)
		if err != nil {
			return nil, err
		}
		return NewWorkerPool(ctx, renderer, numWorkers, out), nil
	case BackendProcess:
		return NewProcessPool(ctx, job, numWorkers, out, DefaultCommand)
	}
	return nil, fmt.Errorf("unknown backend %q", backend)
}
