package core

import (
	"math/rand"

	"seehuhn.de/go/geom/vec"
)

// Sampler provides random sampling for rendering algorithms
// Can be swapped out for deterministic testing or different sampling patterns
type Sampler interface {
	Get1D() float64
	Get2D() vec.Vec2
	Get3D() Vec3
}

// RandomSampler wraps a standard Go random generator
type RandomSampler struct {
	random *rand.Rand
}

// NewRandomSampler creates a sampler from a Go random generator
func NewRandomSampler(random *rand.Rand) *RandomSampler {
	return &RandomSampler{random: random}
}

// NewSeededSampler creates a sampler backed by a fresh generator for seed
func NewSeededSampler(seed int64) *RandomSampler {
	return NewRandomSampler(rand.New(rand.NewSource(seed)))
}

// Get1D returns a random float64 in [0, 1)
func (r *RandomSampler) Get1D() float64 {
	return r.random.Float64()
}

// Get2D returns two random float64 values in [0, 1)
func (r *RandomSampler) Get2D() vec.Vec2 {
	x := r.random.Float64()
	y := r.random.Float64()
	return vec.Vec2{X: x, Y: y}
}

// Get3D returns three random float64 values in [0, 1)
func (r *RandomSampler) Get3D() Vec3 {
	x := r.random.Float64()
	y := r.random.Float64()
	z := r.random.Float64()
	return NewVec3(x, y, z)
}

// RandomInUnitSphere rejection-samples a point strictly inside the unit sphere
func RandomInUnitSphere(sampler Sampler) Vec3 {
	for {
		// Map [0,1)³ onto the [-1,1)³ cube
		p := sampler.Get3D().Multiply(2).Subtract(NewVec3(1, 1, 1))
		if p.LengthSquared() < 1.0 {
			return p
		}
	}
}

// RandomInUnitDisk rejection-samples a point strictly inside the unit disk (for depth of field)
func RandomInUnitDisk(sampler Sampler) vec.Vec2 {
	for {
		s := sampler.Get2D()
		p := vec.Vec2{X: 2*s.X - 1, Y: 2*s.Y - 1}
		if p.Dot(p) < 1.0 {
			return p
		}
	}
}
