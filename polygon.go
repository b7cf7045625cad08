package main

import (
	"fmt"

	geo "github.com/paulmach/go.geo"
)

// LinearRing is an ordered sequence of points where the first and last
// point coincide. A closed ring has at least 4 points (triangle minimum).
type LinearRing []Point

// Polygon is one outer ring plus zero or more inner rings (holes).
type Polygon []LinearRing

// Multipolygon is an ordered list of polygons.
type Multipolygon []Polygon

// Closed - whether the ring wraps back to its first point.
func (r LinearRing) Closed() bool {
	return len(r) >= 4 && r[0] == r[len(r)-1]
}

// Validate - a degenerate or unclosed ring is a fatal input error for
// ring-consuming operations.
func (r LinearRing) Validate() error {
	if len(r) < 4 {
		return fmt.Errorf("ring too short: %d nodes", len(r))
	}
	if r[0] != r[len(r)-1] {
		return fmt.Errorf("linear ring not closed")
	}
	return nil
}

// Bound - axis-aligned bounding box of the ring.
func (r LinearRing) Bound() *geo.Bound {
	bound := geo.NewBoundFromPoints(
		geo.NewPoint(r[0].Lon, r[0].Lat),
		geo.NewPoint(r[0].Lon, r[0].Lat),
	)
	for _, node := range r[1:] {
		bound.Extend(geo.NewPoint(node.Lon, node.Lat))
	}
	return bound
}

// PointInRing - ray casting test against a single closed ring.
// Returns false for unclosed rings.
func PointInRing(p Point, ring LinearRing) bool {
	if !ring.Closed() {
		return false
	}

	inside := false
	for i := 0; i < len(ring)-1; i++ {
		xi, yi := ring[i].Lon, ring[i].Lat
		xj, yj := ring[i+1].Lon, ring[i+1].Lat

		if (yi > p.Lat) != (yj > p.Lat) &&
			p.Lon < (xj-xi)*(p.Lat-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

// PointInPolygon - inside the outer ring and outside every hole.
// A bounding box pre-filter keeps large candidate scans cheap.
func PointInPolygon(p Point, polygon Polygon) bool {
	if len(polygon) == 0 {
		return false
	}
	if !polygon[0].Bound().Contains(geo.NewPoint(p.Lon, p.Lat)) {
		return false
	}
	if !PointInRing(p, polygon[0]) {
		return false
	}
	for _, hole := range polygon[1:] {
		if PointInRing(p, hole) {
			return false
		}
	}
	return true
}

// PointInMultipolygon - inside any member polygon.
func PointInMultipolygon(p Point, multipolygon Multipolygon) bool {
	for _, polygon := range multipolygon {
		if PointInPolygon(p, polygon) {
			return true
		}
	}
	return false
}
