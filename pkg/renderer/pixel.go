package renderer

import (
	"errors"
	"fmt"

	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/geometry"
	"github.com/df07/go-sphere-tracer/pkg/integrator"
	"github.com/df07/go-sphere-tracer/pkg/material"
	"github.com/df07/go-sphere-tracer/pkg/scene"
)

// ErrInvalidJob is returned when a RenderJob cannot be rendered
var ErrInvalidJob = errors.New("invalid render job")

// RenderJob describes a render completely. It is the only thing a worker
// process receives, so every field must survive a JSON round trip.
type RenderJob struct {
	Scene           string `json:"scene"`
	SceneSeed       int64  `json:"sceneSeed"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	SamplesPerPixel int    `json:"samplesPerPixel"`
	MaxDepth        int    `json:"maxDepth"`
	Seed            int64  `json:"seed"` // Mixed into every per-pixel seed
}

// DefaultRenderJob returns sensible default values
func DefaultRenderJob() RenderJob {
	return RenderJob{
		Scene:           "random",
		SceneSeed:       scene.DefaultSceneSeed,
		Width:           400,
		Height:          225,
		SamplesPerPixel: 50,
		MaxDepth:        integrator.DefaultMaxDepth,
		Seed:            0,
	}
}

// Validate reports whether the job has positive sizes and counts
func (j RenderJob) Validate() error {
	switch {
	case j.Width <= 0 || j.Height <= 0:
		return fmt.Errorf("%w: image size %dx%d", ErrInvalidJob, j.Width, j.Height)
	case j.SamplesPerPixel <= 0:
		return fmt.Errorf("%w: samples per pixel %d", ErrInvalidJob, j.SamplesPerPixel)
	case j.MaxDepth <= 0:
		return fmt.Errorf("%w: max depth %d", ErrInvalidJob, j.MaxDepth)
	case j.Scene == "":
		return fmt.Errorf("%w: no scene", ErrInvalidJob)
	}
	return nil
}

// AspectRatio returns width / height
func (j RenderJob) AspectRatio() float64 {
	return float64(j.Width) / float64(j.Height)
}

// PixelCount returns the number of pixels in the image
func (j RenderJob) PixelCount() int {
	return j.Width * j.Height
}

// splitmix64 is the finalizer of the SplitMix64 generator
func splitmix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// PixelSeed derives the random seed for pixel (x, y). It depends only on its
// arguments, so a pixel renders identically on any worker in any order.
func PixelSeed(seed int64, x, y int) int64 {
	h := splitmix64(uint64(seed))
	h = splitmix64(h ^ (uint64(uint32(x))<<32 | uint64(uint32(y))))
	return int64(h)
}

// PixelRenderer turns pixel coordinates into quantized colors.
// It holds no per-pixel state and is safe for concurrent use.
type PixelRenderer struct {
	job        RenderJob
	camera     *geometry.Camera
	world      geometry.Hittable
	materials  *material.Table
	integrator integrator.Integrator
}

// NewPixelRenderer builds the job's scene and prepares a renderer for it
func NewPixelRenderer(job RenderJob) (*PixelRenderer, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}
	s, err := scene.Lookup(job.Scene, job.SceneSeed, job.AspectRatio())
	if err != nil {
		return nil, fmt.Errorf("build scene: %w", err)
	}
	return NewPixelRendererForScene(job, s), nil
}

// NewPixelRendererForScene prepares a renderer for an already built scene.
// The job's Scene and SceneSeed fields are ignored.
func NewPixelRendererForScene(job RenderJob, s *scene.Scene) *PixelRenderer {
	return &PixelRenderer{
		job:        job,
		camera:     s.GetCamera(),
		world:      s.GetWorld(),
		materials:  s.GetMaterials(),
		integrator: integrator.NewPathTracingIntegrator(job.MaxDepth),
	}
}

// Job returns the job the renderer was built from
func (r *PixelRenderer) Job() RenderJob {
	return r.job
}

// RenderPixel averages SamplesPerPixel jittered camera samples for (x, y),
// applies gamma 2 and quantizes to bytes. y = 0 is the top row of the image.
func (r *PixelRenderer) RenderPixel(x, y int) core.Pixel {
	sampler := core.NewSeededSampler(PixelSeed(r.job.Seed, x, y))
	width := float64(r.job.Width)
	height := float64(r.job.Height)
	row := float64(r.job.Height - 1 - y) // camera t grows upwards

	var sum core.Vec3
	for i := 0; i < r.job.SamplesPerPixel; i++ {
		s := (float64(x) + sampler.Get1D()) / width
		t := (row + sampler.Get1D()) / height
		ray := r.camera.GetRay(sampler, s, t)
		sum = sum.Add(r.integrator.RayColor(ray, r.world, r.materials, sampler))
	}

	color := sum.Multiply(1.0/float64(r.job.SamplesPerPixel)).Sqrt().Clamp(0, 1)
	return core.Pixel{
		R: uint8(255.99 * color.X),
		G: uint8(255.99 * color.Y),
		B: uint8(255.99 * color.Z),
	}
}
