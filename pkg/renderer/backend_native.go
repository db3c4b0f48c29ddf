//go:build !workerbridge

package renderer

// DefaultBackend is the backend used when none is requested
const DefaultBackend = BackendNative
