package material

import (
	"fmt"

	"github.com/df07/go-sphere-tracer/pkg/core"
)

// Kind identifies which scattering behavior a Material uses
type Kind uint8

const (
	KindLambertian Kind = iota
	KindMetal
	KindDielectric
)

func (k Kind) String() string {
	switch k {
	case KindLambertian:
		return "lambertian"
	case KindMetal:
		return "metal"
	case KindDielectric:
		return "dielectric"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Material is a closed union over the supported scattering behaviors.
// Only the fields relevant to Kind are meaningful. Values are never mutated
// after construction, so one Material may back any number of surfaces.
type Material struct {
	Kind   Kind
	Albedo core.Vec3 // Lambertian and Metal color
	Fuzz   float64   // Metal: 0 = perfect mirror, 1 = very fuzzy
	RefIdx float64   // Dielectric index of refraction (e.g. 1.5 for glass)
}

// ScatterResult contains the result of material scattering
type ScatterResult struct {
	Scattered   core.Ray  // The scattered ray
	Attenuation core.Vec3 // Color attenuation
}

// HitRecord contains information about a ray-object intersection
type HitRecord struct {
	T        float64   // Parameter t along the ray
	Point    core.Vec3 // Point of intersection
	Normal   core.Vec3 // Outward unit normal (not flipped toward the ray)
	Material Handle    // Material of the hit object
}

// Scatter decides how an incoming ray leaves the surface.
// It returns false when the ray is absorbed.
func (m Material) Scatter(sampler core.Sampler, rayIn core.Ray, hit HitRecord) (ScatterResult, bool) {
	switch m.Kind {
	case KindLambertian:
		return m.scatterLambertian(sampler, hit)
	case KindMetal:
		return m.scatterMetal(sampler, rayIn, hit)
	case KindDielectric:
		return m.scatterDielectric(sampler, rayIn, hit)
	default:
		return ScatterResult{}, false
	}
}

// reflect calculates the reflection of a vector v off a surface with normal n
func reflect(v, n core.Vec3) core.Vec3 {
	// r = v - 2*dot(v,n)*n
	return v.Subtract(n.Multiply(2 * v.Dot(n)))
}
