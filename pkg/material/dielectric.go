package material

import (
	"math"

	"github.com/df07/go-sphere-tracer/pkg/core"
)

// NewDielectric creates a transparent material like glass that can both reflect and refract
func NewDielectric(refractiveIndex float64) Material {
	return Material{Kind: KindDielectric, RefIdx: refractiveIndex}
}

// scatterDielectric picks reflection or refraction. With total internal
// reflection it always reflects; otherwise it reflects with the Schlick
// probability and refracts the rest of the time.
func (m Material) scatterDielectric(sampler core.Sampler, rayIn core.Ray, hit HitRecord) (ScatterResult, bool) {
	// Clear glass does not tint
	attenuation := core.NewVec3(1.0, 1.0, 1.0)

	d := rayIn.Direction
	reflectProb, refracted := m.reflectProbability(d, hit.Normal)

	var direction core.Vec3
	if sampler.Get1D() < reflectProb {
		direction = reflect(d, hit.Normal)
	} else {
		direction = refracted
	}

	return ScatterResult{
		Scattered:   core.NewRay(hit.Point, direction),
		Attenuation: attenuation,
	}, true
}

// reflectProbability returns the chance that a ray travelling along d reflects
// off a surface with outward normal n, together with the refracted direction
// (meaningless when the probability is 1 because refraction is impossible).
func (m Material) reflectProbability(d, n core.Vec3) (float64, core.Vec3) {
	dn := d.Dot(n)

	var outwardNormal core.Vec3
	var niOverNt, cosine float64
	if dn > 0 {
		// Exiting: from inside the material back to air
		outwardNormal = n.Negate()
		niOverNt = m.RefIdx
		cosine = m.RefIdx * dn / d.Length()
	} else {
		outwardNormal = n
		niOverNt = 1.0 / m.RefIdx
		cosine = -dn / d.Length()
	}

	refracted, canRefract := refract(d, outwardNormal, niOverNt)
	if !canRefract {
		return 1.0, core.Vec3{}
	}
	return Schlick(cosine, m.RefIdx), refracted
}

// refract bends v through a surface with normal n using Snell's law.
// It returns false when the ray is totally internally reflected.
func refract(v, n core.Vec3, niOverNt float64) (core.Vec3, bool) {
	uv := v.Normalize()
	dt := uv.Dot(n)
	discriminant := 1.0 - niOverNt*niOverNt*(1.0-dt*dt)
	if discriminant <= 0 {
		return core.Vec3{}, false
	}
	return uv.Subtract(n.Multiply(dt)).Multiply(niOverNt).Subtract(n.Multiply(math.Sqrt(discriminant))), true
}

// Schlick approximates Fresnel reflectance for a given cosine and index of refraction
func Schlick(cosine, refIdx float64) float64 {
	r0 := (1 - refIdx) / (1 + refIdx)
	r0 = r0 * r0
	return r0 + (1-r0)*math.Pow(1-cosine, 5)
}

// BaseReflectance returns Schlick's r0, the reflectance at normal incidence
func BaseReflectance(refIdx float64) float64 {
	r0 := (1 - refIdx) / (1 + refIdx)
	return r0 * r0
}
