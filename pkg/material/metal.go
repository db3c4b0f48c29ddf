package material

import (
	"github.com/df07/go-sphere-tracer/pkg/core"
)

// NewMetal creates a new metal material
func NewMetal(albedo core.Vec3, fuzz float64) Material {
	// Clamp fuzz to valid range
	if fuzz > 1.0 {
		fuzz = 1.0
	}
	if fuzz < 0.0 {
		fuzz = 0.0
	}
	return Material{Kind: KindMetal, Albedo: albedo, Fuzz: fuzz}
}

// scatterMetal mirrors the incoming direction about the normal and perturbs it
// by Fuzz. Rays that end up below the surface are absorbed.
func (m Material) scatterMetal(sampler core.Sampler, rayIn core.Ray, hit HitRecord) (ScatterResult, bool) {
	reflected := reflect(rayIn.Direction.Normalize(), hit.Normal)
	direction := reflected.Add(core.RandomInUnitSphere(sampler).Multiply(m.Fuzz))
	scattered := core.NewRay(hit.Point, direction)

	if scattered.Direction.Dot(hit.Normal) <= 0 {
		return ScatterResult{}, false
	}
	return ScatterResult{Scattered: scattered, Attenuation: m.Albedo}, true
}
