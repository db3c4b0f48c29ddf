package integrator

import (
	"math"

	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/geometry"
	"github.com/df07/go-sphere-tracer/pkg/material"
)

const (
	// DefaultMaxDepth is the bounce limit used when none is configured
	DefaultMaxDepth = 50

	// shadowEpsilon keeps scattered rays from re-hitting the surface they left
	shadowEpsilon = 0.001
)

var (
	skyWhite = core.NewVec3(1.0, 1.0, 1.0)
	skyBlue  = core.NewVec3(0.5, 0.7, 1.0)
)

// PathTracingIntegrator implements unidirectional path tracing
type PathTracingIntegrator struct {
	MaxDepth int
}

// NewPathTracingIntegrator creates a new path tracing integrator.
// A non-positive maxDepth selects DefaultMaxDepth.
func NewPathTracingIntegrator(maxDepth int) *PathTracingIntegrator {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &PathTracingIntegrator{MaxDepth: maxDepth}
}

// RayColor computes the color for a single ray.
//
// Bounces are followed iteratively: each scatter multiplies the running
// throughput by the material's attenuation, so the result equals
// attenuation₀ ⊙ attenuation₁ ⊙ … ⊙ background.
func (pt *PathTracingIntegrator) RayColor(ray core.Ray, world geometry.Hittable, materials *material.Table, sampler core.Sampler) core.Vec3 {
	throughput := core.NewVec3(1, 1, 1)
	rayT := core.NewInterval(shadowEpsilon, math.Inf(1))

	for depth := 0; depth < pt.MaxDepth; depth++ {
		hit, isHit := world.Hit(ray, rayT)
		if !isHit {
			return throughput.MultiplyVec(Background(ray))
		}

		scatter, didScatter := materials.Get(hit.Material).Scatter(sampler, ray, hit)
		if !didScatter {
			// Absorbed
			return core.Vec3{}
		}

		throughput = throughput.MultiplyVec(scatter.Attenuation)
		ray = scatter.Scattered
	}

	// Exceeded the bounce limit: no more light is gathered
	return core.Vec3{}
}

// Background returns the sky gradient for a ray that escaped the scene
func Background(ray core.Ray) core.Vec3 {
	unitDirection := ray.Direction.Normalize()

	// Map y from [-1,1] to [0,1]
	t := 0.5 * (unitDirection.Y + 1.0)
	return core.Lerp(skyWhite, skyBlue, t)
}
