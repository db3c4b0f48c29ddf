package integrator

import (
	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/geometry"
	"github.com/df07/go-sphere-tracer/pkg/material"
)

// Integrator defines the interface for light transport algorithms
type Integrator interface {
	// RayColor returns a single-sample radiance estimate for ray
	RayColor(ray core.Ray, world geometry.Hittable, materials *material.Table, sampler core.Sampler) core.Vec3
}
