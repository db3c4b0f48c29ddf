package geometry

import (
	"math"
	"testing"

	"github.com/df07/go-sphere-tracer/pkg/core"
)

var unbounded = core.NewInterval(0.001, math.Inf(1))

func TestSphere_Hit_Miss(t *testing.T) {
	sphere := NewSphere(core.NewVec3(0, 0, 0), 1.0, 0)

	tests := []struct {
		name string
		ray  core.Ray
	}{
		{"parallel offset beyond radius", core.NewRay(core.NewVec3(2, 0, -5), core.NewVec3(0, 0, 1))},
		{"pointing away", core.NewRay(core.NewVec3(0, 0, -5), core.NewVec3(0, 0, -1))},
		{"tangent", core.NewRay(core.NewVec3(1, 0, -5), core.NewVec3(0, 0, 1))},
		{"zero direction", core.NewRay(core.NewVec3(0, 0, -5), core.NewVec3(0, 0, 0))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, isHit := sphere.Hit(tt.ray, unbounded)
			if isHit {
				t.Errorf("Expected miss, but got hit at t=%f", hit.T)
			}
		})
	}
}

func TestSphere_Hit_Front(t *testing.T) {
	sphere := NewSphere(core.NewVec3(0, 0, 0), 1.0, 3)
	ray := core.NewRay(core.NewVec3(0, 0, -5), core.NewVec3(0, 0, 1))

	hit, isHit := sphere.Hit(ray, unbounded)
	if !isHit {
		t.Fatal("Expected hit, but got miss")
	}

	if math.Abs(hit.T-4.0) > 1e-9 {
		t.Errorf("Expected t=4, got t=%f", hit.T)
	}

	expectedNormal := core.NewVec3(0, 0, -1)
	if hit.Normal.Subtract(expectedNormal).Length() > 1e-9 {
		t.Errorf("Expected normal %v, got %v", expectedNormal, hit.Normal)
	}

	expectedPoint := core.NewVec3(0, 0, -1)
	if hit.Point.Subtract(expectedPoint).Length() > 1e-9 {
		t.Errorf("Expected point %v, got %v", expectedPoint, hit.Point)
	}

	if hit.Material != 3 {
		t.Errorf("Expected material handle 3, got %d", hit.Material)
	}
}

func TestSphere_Hit_RootSelection(t *testing.T) {
	sphere := NewSphere(core.NewVec3(0, 0, 0), 1.0, 0)

	tests := []struct {
		name           string
		ray            core.Ray
		rayT           core.Interval
		expectedT      float64
		expectedNormal core.Vec3
	}{
		{
			// Origin inside: the near root is negative, so the far root wins
			name:           "from inside",
			ray:            core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, 1)),
			rayT:           unbounded,
			expectedT:      1.0,
			expectedNormal: core.NewVec3(0, 0, 1), // outward, not flipped
		},
		{
			// Upper bound excludes the far root but not the near one
			name:           "near root only",
			ray:            core.NewRay(core.NewVec3(0, 0, -5), core.NewVec3(0, 0, 1)),
			rayT:           core.NewInterval(0.001, 5),
			expectedT:      4.0,
			expectedNormal: core.NewVec3(0, 0, -1),
		},
		{
			// Lower bound excludes the near root
			name:           "far root only",
			ray:            core.NewRay(core.NewVec3(0, 0, -5), core.NewVec3(0, 0, 1)),
			rayT:           core.NewInterval(4.5, 100),
			expectedT:      6.0,
			expectedNormal: core.NewVec3(0, 0, 1),
		},
		{
			// Unnormalized direction halves t
			name:           "scaled direction",
			ray:            core.NewRay(core.NewVec3(0, 0, -5), core.NewVec3(0, 0, 2)),
			rayT:           unbounded,
			expectedT:      2.0,
			expectedNormal: core.NewVec3(0, 0, -1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, isHit := sphere.Hit(tt.ray, tt.rayT)
			if !isHit {
				t.Fatal("Expected hit, but got miss")
			}
			if math.Abs(hit.T-tt.expectedT) > 1e-9 {
				t.Errorf("Expected t=%f, got t=%f", tt.expectedT, hit.T)
			}
			if hit.Normal.Subtract(tt.expectedNormal).Length() > 1e-9 {
				t.Errorf("Expected normal %v, got %v", tt.expectedNormal, hit.Normal)
			}
		})
	}
}

func TestSphere_Hit_StrictBounds(t *testing.T) {
	sphere := NewSphere(core.NewVec3(0, 0, 0), 1.0, 0)
	ray := core.NewRay(core.NewVec3(0, 0, -5), core.NewVec3(0, 0, 1))

	// Both roots (4 and 6) sit exactly on the interval ends
	if _, isHit := sphere.Hit(ray, core.NewInterval(4, 6)); isHit {
		t.Error("Roots on the interval boundary should not count as hits")
	}
}
