package renderer

import (
	"bytes"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/df07/go-sphere-tracer/pkg/scene"
)

var update = flag.Bool("update", false, "rewrite golden files in testdata")

func mustRenderer(t *testing.T, job RenderJob) *PixelRenderer {
	t.Helper()
	r, err := NewPixelRenderer(job)
	if err != nil {
		t.Fatalf("NewPixelRenderer: %v", err)
	}
	return r
}

// renderAll renders every pixel serially into a row-major RGB buffer
func renderAll(r *PixelRenderer) []byte {
	job := r.Job()
	buf := make([]byte, job.Width*job.Height*3)
	for y := 0; y < job.Height; y++ {
		for x := 0; x < job.Width; x++ {
			px := r.RenderPixel(x, y)
			i := (y*job.Width + x) * 3
			buf[i], buf[i+1], buf[i+2] = px.R, px.G, px.B
		}
	}
	return buf
}

func TestRenderJob_Validate(t *testing.T) {
	valid := RenderJob{Scene: "ground", Width: 4, Height: 4, SamplesPerPixel: 1, MaxDepth: 50}

	tests := []struct {
		name    string
		modify  func(*RenderJob)
		wantErr bool
	}{
		{"valid", func(*RenderJob) {}, false},
		{"zero width", func(j *RenderJob) { j.Width = 0 }, true},
		{"negative height", func(j *RenderJob) { j.Height = -1 }, true},
		{"zero samples", func(j *RenderJob) { j.SamplesPerPixel = 0 }, true},
		{"zero depth", func(j *RenderJob) { j.MaxDepth = 0 }, true},
		{"no scene", func(j *RenderJob) { j.Scene = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := valid
			tt.modify(&job)
			err := job.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidJob) {
				t.Errorf("Expected ErrInvalidJob, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestDefaultRenderJob(t *testing.T) {
	job := DefaultRenderJob()
	if err := job.Validate(); err != nil {
		t.Errorf("Default job should be valid: %v", err)
	}
	if job.MaxDepth != 50 {
		t.Errorf("Expected default depth 50, got %d", job.MaxDepth)
	}
}

func TestNewPixelRenderer_UnknownScene(t *testing.T) {
	job := RenderJob{Scene: "nope", Width: 4, Height: 4, SamplesPerPixel: 1, MaxDepth: 50}
	if _, err := NewPixelRenderer(job); !errors.Is(err, scene.ErrUnknownScene) {
		t.Errorf("Expected ErrUnknownScene, got %v", err)
	}
}

func TestPixelSeed(t *testing.T) {
	if PixelSeed(7, 3, 5) != PixelSeed(7, 3, 5) {
		t.Error("PixelSeed should be a pure function")
	}

	seen := map[int64]bool{}
	for _, seed := range []int64{0, 1} {
		for y := 0; y < 16; y++ {
			for x := 0; x < 16; x++ {
				s := PixelSeed(seed, x, y)
				if seen[s] {
					t.Fatalf("PixelSeed(%d, %d, %d) collides with an earlier pixel", seed, x, y)
				}
				seen[s] = true
			}
		}
	}

	// Swapping coordinates must not reuse a seed
	if PixelSeed(0, 1, 2) == PixelSeed(0, 2, 1) {
		t.Error("PixelSeed should distinguish (x, y) from (y, x)")
	}
}

func TestRenderPixel_Deterministic(t *testing.T) {
	job := RenderJob{Scene: "random", Width: 16, Height: 9, SamplesPerPixel: 4, MaxDepth: 50, Seed: 11}
	a := mustRenderer(t, job)
	b := mustRenderer(t, job)

	// Render in opposite orders with separate renderers
	first := map[[2]int][3]uint8{}
	for y := 0; y < job.Height; y++ {
		for x := 0; x < job.Width; x++ {
			px := a.RenderPixel(x, y)
			first[[2]int{x, y}] = [3]uint8{px.R, px.G, px.B}
		}
	}
	for y := job.Height - 1; y >= 0; y-- {
		for x := job.Width - 1; x >= 0; x-- {
			px := b.RenderPixel(x, y)
			if got := [3]uint8{px.R, px.G, px.B}; got != first[[2]int{x, y}] {
				t.Fatalf("Pixel (%d,%d) differs between renders: %v vs %v", x, y, first[[2]int{x, y}], got)
			}
		}
	}
}

func TestRenderPixel_SeedChangesNoise(t *testing.T) {
	job := RenderJob{Scene: "random", Width: 16, Height: 9, SamplesPerPixel: 1, MaxDepth: 50, Seed: 1}
	a := renderAll(mustRenderer(t, job))
	job.Seed = 2
	b := renderAll(mustRenderer(t, job))

	if bytes.Equal(a, b) {
		t.Error("Different seeds should produce different noise")
	}
}

func TestRenderPixel_SkyAndGround(t *testing.T) {
	job := RenderJob{Scene: "ground", Width: 20, Height: 20, SamplesPerPixel: 4, MaxDepth: 50, Seed: 3}
	r := mustRenderer(t, job)

	// The top row looks above the horizon; unoccluded sky is fully blue
	for x := 0; x < job.Width; x++ {
		if px := r.RenderPixel(x, 0); px.B != 255 {
			t.Errorf("Top row pixel %d: expected sky blue 255, got %v", x, px)
		}
	}

	// The bottom row looks at grey ground; every path loses at least half its energy
	for x := 0; x < job.Width; x++ {
		if px := r.RenderPixel(x, job.Height-1); px.B > 181 {
			t.Errorf("Bottom row pixel %d: expected attenuated ground, got %v", x, px)
		}
	}
}

func TestRenderPixel_GroundGolden(t *testing.T) {
	job := RenderJob{Scene: "ground", Width: 4, Height: 4, SamplesPerPixel: 1, MaxDepth: 50, Seed: 42}
	got := renderAll(mustRenderer(t, job))

	if len(got) != 4*4*3 {
		t.Fatalf("Expected %d bytes, got %d", 4*4*3, len(got))
	}

	golden := filepath.Join("testdata", "ground_4x4.golden")
	if *update {
		if err := os.WriteFile(golden, got, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	want, err := os.ReadFile(golden)
	if err != nil {
		t.Fatalf("read golden file (regenerate with -update): %v", err)
	}
	if len(want) != len(got) {
		t.Fatalf("Golden file has %d bytes, want %d", len(want), len(got))
	}

	// Top row sees only sky, the rest sees the grey ground
	for x := 0; x < 4; x++ {
		if want[x*3+2] != 255 {
			t.Errorf("Golden top row pixel %d is not sky: %v", x, want[x*3:x*3+3])
		}
	}

	if !bytes.Equal(got, want) {
		t.Errorf("4x4 ground render differs from %s\n got: %v\nwant: %v", golden, got, want)
	}
}
