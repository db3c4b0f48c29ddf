//go:build workerbridge

package renderer

// DefaultBackend is the backend used when none is requested. Builds for hosts
// that cannot run goroutines in parallel hand the work to worker processes.
const DefaultBackend = BackendProcess
