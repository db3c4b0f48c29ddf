package geometry

import (
	"slices"

	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/material"
)

// HittableList is an ordered collection of objects answering nearest-hit queries.
// Every query is a linear scan; a BVH would slot in behind the same interface.
type HittableList struct {
	objects []Hittable
}

// NewHittableList creates a list holding objects
func NewHittableList(objects ...Hittable) *HittableList {
	return &HittableList{objects: objects}
}

// Add appends an object
func (l *HittableList) Add(object Hittable) {
	l.objects = append(l.objects, object)
}

// Len returns the number of objects
func (l *HittableList) Len() int {
	return len(l.objects)
}

// Objects returns a copy of the objects in insertion order
func (l *HittableList) Objects() []Hittable {
	return slices.Clone(l.objects)
}

// Hit returns the closest intersection in rayT across all objects
func (l *HittableList) Hit(ray core.Ray, rayT core.Interval) (material.HitRecord, bool) {
	var closest material.HitRecord
	hitAnything := false
	closestSoFar := rayT.Max

	for _, object := range l.objects {
		if hit, isHit := object.Hit(ray, core.NewInterval(rayT.Min, closestSoFar)); isHit {
			hitAnything = true
			closestSoFar = hit.T
			closest = hit
		}
	}

	return closest, hitAnything
}
