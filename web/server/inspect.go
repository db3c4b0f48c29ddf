package server

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"seehuhn.de/go/geom/vec"

	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/geometry"
	"github.com/df07/go-sphere-tracer/pkg/material"
	"github.com/df07/go-sphere-tracer/pkg/scene"
)

// InspectResponse represents the JSON response for object inspection
type InspectResponse struct {
	Hit          bool           `json:"hit"`
	MaterialType string         `json:"materialType,omitempty"`
	GeometryType string         `json:"geometryType,omitempty"`
	Point        [3]float64     `json:"point"`
	Normal       [3]float64     `json:"normal"`
	Distance     float64        `json:"distance"`
	Properties   map[string]any `json:"properties,omitempty"`
}

// centerSampler always returns the middle of the sample domain. A camera ray
// built with it leaves from the lens center through the pixel center.
type centerSampler struct{}

func (centerSampler) Get1D() float64  { return 0.5 }
func (centerSampler) Get2D() vec.Vec2 { return vec.Vec2{X: 0.5, Y: 0.5} }
func (centerSampler) Get3D() core.Vec3 {
	return core.NewVec3(0.5, 0.5, 0.5)
}

// InspectResult contains information about the object hit by an inspection ray
type InspectResult struct {
	Hit    bool
	Record material.HitRecord
	Object geometry.Hittable // nil when the hit cannot be attributed to one object
}

// inspectPixel casts the ray through the center of pixel (x, y) and reports
// the first object it hits. y = 0 is the top row.
func inspectPixel(s *scene.Scene, width, height, x, y int) InspectResult {
	camera := s.GetCamera()
	u := (float64(x) + 0.5) / float64(width)
	v := (float64(height-1-y) + 0.5) / float64(height)
	ray := camera.GetRay(centerSampler{}, u, v)

	hit, isHit := s.World.Hit(ray, core.NewInterval(0.001, math.Inf(1)))
	if !isHit {
		return InspectResult{}
	}

	// The list returns only the record, so find which object produced it
	for _, obj := range s.World.Objects() {
		if objHit, ok := obj.Hit(ray, core.NewInterval(0.001, hit.T+0.001)); ok && objHit.T == hit.T {
			return InspectResult{Hit: true, Record: hit, Object: obj}
		}
	}
	return InspectResult{Hit: true, Record: hit}
}

// extractMaterialInfo describes a material for the client
func extractMaterialInfo(m material.Material) (string, map[string]any) {
	properties := make(map[string]any)
	albedoHex := fmt.Sprintf("#%02x%02x%02x",
		int(m.Albedo.X*255), int(m.Albedo.Y*255), int(m.Albedo.Z*255))

	switch m.Kind {
	case material.KindLambertian:
		properties["albedo"] = [3]float64{m.Albedo.X, m.Albedo.Y, m.Albedo.Z}
		properties["color"] = albedoHex
	case material.KindMetal:
		properties["albedo"] = [3]float64{m.Albedo.X, m.Albedo.Y, m.Albedo.Z}
		properties["color"] = albedoHex
		properties["fuzz"] = m.Fuzz
	case material.KindDielectric:
		properties["refractiveIndex"] = m.RefIdx
		properties["reflectanceAtNormal"] = material.BaseReflectance(m.RefIdx)
		properties["color"] = "#ffffff" // Clear glass
	}
	return m.Kind.String(), properties
}

// extractGeometryInfo describes a hittable for the client
func extractGeometryInfo(obj geometry.Hittable) (string, map[string]any) {
	properties := make(map[string]any)

	switch g := obj.(type) {
	case *geometry.Sphere:
		properties["center"] = [3]float64{g.Center.X, g.Center.Y, g.Center.Z}
		properties["radius"] = g.Radius
		return "sphere", properties
	default:
		return "unknown", properties
	}
}

// handleInspect handles ray casting inspection requests
func (s *Server) handleInspect(c echo.Context) error {
	req, err := parseRenderRequest(c.QueryParams())
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid scene parameters: " + err.Error()})
	}

	pixelX, err := strconv.Atoi(c.QueryParam("x"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid x coordinate"})
	}
	pixelY, err := strconv.Atoi(c.QueryParam("y"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid y coordinate"})
	}
	if pixelX < 0 || pixelX >= req.Width || pixelY < 0 || pixelY >= req.Height {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Pixel coordinates out of bounds"})
	}

	job := req.Job()
	sceneObj, err := scene.Lookup(job.Scene, job.SceneSeed, job.AspectRatio())
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	result := inspectPixel(sceneObj, req.Width, req.Height, pixelX, pixelY)
	if !result.Hit {
		return c.JSON(http.StatusOK, InspectResponse{Hit: false})
	}

	materialType, materialProps := extractMaterialInfo(sceneObj.Materials.Get(result.Record.Material))
	geometryType, geometryProps := extractGeometryInfo(result.Object)

	rec := result.Record
	return c.JSON(http.StatusOK, InspectResponse{
		Hit:          true,
		MaterialType: materialType,
		GeometryType: geometryType,
		Point:        [3]float64{rec.Point.X, rec.Point.Y, rec.Point.Z},
		Normal:       [3]float64{rec.Normal.X, rec.Normal.Y, rec.Normal.Z},
		Distance:     rec.T,
		Properties: map[string]any{
			"material": materialProps,
			"geometry": geometryProps,
		},
	})
}
