package scene

import (
	"math/rand"

	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/geometry"
	"github.com/df07/go-sphere-tracer/pkg/material"
)

// DefaultSceneSeed is the seed used by the CLI and web server unless overridden
const DefaultSceneSeed = 0

// defaultCameraConfig frames the grid of small spheres and the three feature spheres
func defaultCameraConfig(aspectRatio float64) geometry.CameraConfig {
	return geometry.CameraConfig{
		Center:        core.NewVec3(13, 2, 3),
		LookAt:        core.NewVec3(0, 0, 0),
		Up:            core.NewVec3(0, 1, 0),
		VFov:          20.0,
		AspectRatio:   aspectRatio,
		Aperture:      0.1,
		FocusDistance: 10.0,
	}
}

// addGround adds the huge grey sphere every scene stands on
func addGround(s *Scene) {
	s.AddSphereWithMaterial(core.NewVec3(0, -1000, 0), 1000, material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5)))
}

// NewGroundScene creates a scene containing only the ground sphere
func NewGroundScene(aspectRatio float64) *Scene {
	s := New("ground", defaultCameraConfig(aspectRatio))
	addGround(s)
	return s
}

// NewRandomScene creates the field of small random spheres around three large
// feature spheres. The same seed always yields the same scene.
func NewRandomScene(seed int64, aspectRatio float64) *Scene {
	random := rand.New(rand.NewSource(seed))
	s := New("random", defaultCameraConfig(aspectRatio))

	addGround(s)

	// All glass spheres share one material entry
	glass := s.AddMaterial(material.NewDielectric(1.5))

	for a := -11; a < 11; a++ {
		for b := -11; b < 11; b++ {
			chooseMat := random.Float64()
			x := float64(a) + 0.9*random.Float64()
			z := float64(b) + 0.9*random.Float64()
			center := core.NewVec3(x, 0.2, z)

			switch {
			case chooseMat < 0.8:
				// Diffuse
				r := random.Float64() * random.Float64()
				g := random.Float64() * random.Float64()
				bl := random.Float64() * random.Float64()
				s.AddSphereWithMaterial(center, 0.2, material.NewLambertian(core.NewVec3(r, g, bl)))
			case chooseMat < 0.95:
				// Metal
				r := 0.5 * (1 + random.Float64())
				g := 0.5 * (1 + random.Float64())
				bl := 0.5 * (1 + random.Float64())
				fuzz := 0.5 * random.Float64()
				s.AddSphereWithMaterial(center, 0.2, material.NewMetal(core.NewVec3(r, g, bl), fuzz))
			default:
				s.AddSphere(center, 0.2, glass)
			}
		}
	}

	s.AddSphere(core.NewVec3(0, 1, 0), 1.0, glass)
	s.AddSphereWithMaterial(core.NewVec3(-4, 1, 0), 1.0, material.NewLambertian(core.NewVec3(0.4, 0.2, 0.1)))
	s.AddSphereWithMaterial(core.NewVec3(4, 1, 0), 1.0, material.NewMetal(core.NewVec3(0.7, 0.6, 0.5), 0.0))

	return s
}
