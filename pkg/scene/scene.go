package scene

import (
	"errors"
	"fmt"
	"sort"

	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/geometry"
	"github.com/df07/go-sphere-tracer/pkg/material"
)

// ErrUnknownScene is returned by Lookup for names it does not know
var ErrUnknownScene = errors.New("unknown scene")

// Scene contains all the elements needed for rendering.
// It is built once and never mutated while rendering.
type Scene struct {
	Name         string
	World        *geometry.HittableList
	Materials    *material.Table
	CameraConfig geometry.CameraConfig
}

// New creates an empty scene
func New(name string, cameraConfig geometry.CameraConfig) *Scene {
	return &Scene{
		Name:         name,
		World:        geometry.NewHittableList(),
		Materials:    material.NewTable(),
		CameraConfig: cameraConfig,
	}
}

// AddMaterial stores a material so several spheres can share it
func (s *Scene) AddMaterial(m material.Material) material.Handle {
	return s.Materials.Add(m)
}

// AddSphere adds a sphere using a previously stored material
func (s *Scene) AddSphere(center core.Vec3, radius float64, mat material.Handle) {
	s.World.Add(geometry.NewSphere(center, radius, mat))
}

// AddSphereWithMaterial stores m and adds a sphere using it
func (s *Scene) AddSphereWithMaterial(center core.Vec3, radius float64, m material.Material) {
	s.AddSphere(center, radius, s.AddMaterial(m))
}

// GetCamera builds the camera described by the scene's camera config
func (s *Scene) GetCamera() *geometry.Camera {
	return geometry.NewCamera(s.CameraConfig)
}

// GetWorld returns the scene's objects
func (s *Scene) GetWorld() geometry.Hittable {
	return s.World
}

// GetMaterials returns the scene's material table
func (s *Scene) GetMaterials() *material.Table {
	return s.Materials
}

// GetPrimitiveCount returns the number of objects in the scene
func (s *Scene) GetPrimitiveCount() int {
	return s.World.Len()
}

// builder constructs a named scene for the given seed and aspect ratio
type builder func(seed int64, aspectRatio float64) *Scene

var registry = map[string]struct {
	build       builder
	description string
	seeded      bool
}{
	"random": {NewRandomScene, "Ground sphere, a seeded 22x22 grid of small spheres and three large feature spheres", true},
	"ground": {func(_ int64, aspectRatio float64) *Scene { return NewGroundScene(aspectRatio) }, "Only the ground sphere under the sky gradient", false},
}

// Lookup builds the scene registered under name
func Lookup(name string, seed int64, aspectRatio float64) (*Scene, error) {
	entry, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownScene, name, Names())
	}
	return entry.build(seed, aspectRatio), nil
}

// Names lists the registered scene names in sorted order
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
