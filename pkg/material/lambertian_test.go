package material

import (
	"testing"

	"github.com/df07/go-sphere-tracer/pkg/core"
)

func TestLambertian_NeverAbsorbs(t *testing.T) {
	albedo := core.NewVec3(0.8, 0.3, 0.3)
	lambertian := NewLambertian(albedo)
	sampler := core.NewSeededSampler(42)

	hit := HitRecord{
		T:      1.0,
		Point:  core.NewVec3(0, 0, 0),
		Normal: core.NewVec3(0, 1, 0),
	}

	rays := []core.Ray{
		core.NewRay(core.NewVec3(0, 1, 0), core.NewVec3(0, -1, 0)),
		core.NewRay(core.NewVec3(1, 1, 0), core.NewVec3(-1, -1, 0)),
		core.NewRay(core.NewVec3(0, -1, 0), core.NewVec3(0, 1, 0)), // from below
	}

	for _, ray := range rays {
		for i := 0; i < 200; i++ {
			scatter, didScatter := lambertian.Scatter(sampler, ray, hit)
			if !didScatter {
				t.Fatalf("Lambertian absorbed ray %v", ray)
			}
			if !scatter.Attenuation.Equals(albedo) {
				t.Fatalf("Attenuation should equal albedo: expected %v, got %v", albedo, scatter.Attenuation)
			}
			if !scatter.Scattered.Origin.Equals(hit.Point) {
				t.Errorf("Scattered ray should start at hit point, got %v", scatter.Scattered.Origin)
			}
		}
	}
}

func TestLambertian_ScatterStaysInNormalSphere(t *testing.T) {
	lambertian := NewLambertian(core.NewVec3(0.5, 0.5, 0.5))
	sampler := core.NewSeededSampler(7)
	hit := HitRecord{Point: core.NewVec3(1, 2, 3), Normal: core.NewVec3(0, 0, 1)}
	ray := core.NewRay(core.NewVec3(1, 2, 5), core.NewVec3(0, 0, -1))

	for i := 0; i < 500; i++ {
		scatter, _ := lambertian.Scatter(sampler, ray, hit)
		// direction = normal + p with |p| < 1, so it lies inside the unit sphere around the normal
		offset := scatter.Scattered.Direction.Subtract(hit.Normal)
		if offset.Length() >= 1.0 {
			t.Fatalf("Scatter direction %v outside unit sphere around normal", scatter.Scattered.Direction)
		}
	}
}
