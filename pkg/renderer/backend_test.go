package renderer

import (
	"context"
	"testing"
)

func TestParseBackend(t *testing.T) {
	tests := []struct {
		input    string
		expected Backend
		wantErr  bool
	}{
		{"", DefaultBackend, false},
		{"native", BackendNative, false},
		{"process", BackendProcess, false},
		{"wasm", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			backend, err := ParseBackend(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBackend(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if backend != tt.expected {
				t.Errorf("ParseBackend(%q) = %q, want %q", tt.input, backend, tt.expected)
			}
		})
	}
}

func TestNewPool_Native(t *testing.T) {
	job := RenderJob{Scene: "ground", Width: 3, Height: 2, SamplesPerPixel: 1, MaxDepth: 50}
	out := make(chan PixelUpdate, job.PixelCount())

	pool, err := NewPool(context.Background(), BackendNative, job, 2, out)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	if _, ok := pool.(*WorkerPool); !ok {
		t.Errorf("Expected *WorkerPool, got %T", pool)
	}

	for _, task := range Coordinates(job.Width, job.Height) {
		if err := pool.Submit(context.Background(), task); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	if err := pool.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r := mustRenderer(t, job)
	n := 0
	for u := range out {
		if u.Pixel != r.RenderPixel(u.X, u.Y) {
			t.Errorf("Pixel (%d,%d) differs from a direct render", u.X, u.Y)
		}
		n++
	}
	if n != job.PixelCount() {
		t.Errorf("Expected %d updates, got %d", job.PixelCount(), n)
	}
}

func TestNewPool_Errors(t *testing.T) {
	good := RenderJob{Scene: "ground", Width: 2, Height: 2, SamplesPerPixel: 1, MaxDepth: 50}
	bad := good
	bad.Scene = "missing"

	if _, err := NewPool(context.Background(), BackendNative, bad, 1, make(chan PixelUpdate)); err == nil {
		t.Error("Expected an error for an unknown scene")
	}
	if _, err := NewPool(context.Background(), Backend("gpu"), good, 1, make(chan PixelUpdate)); err == nil {
		t.Error("Expected an error for an unknown backend")
	}
}
