package main

import (
	"fmt"
	"math"
)

const earthRadius = 6371000.0 // meters

// Point is a (longitude, latitude) pair in decimal degrees.
// Points are compared with == when detecting shared vertices, so two
// points are only identical at full floating precision.
type Point struct {
	Lon float64
	Lat float64
}

// Distance - approximate distance between two points in meters.
// Equirectangular approximation, good enough for distances within
// a single municipality.
func Distance(p1, p2 Point) float64 {
	lon1, lat1 := rad(p1.Lon), rad(p1.Lat)
	lon2, lat2 := rad(p2.Lon), rad(p2.Lat)
	x := (lon2 - lon1) * math.Cos(0.5*(lat2+lat1))
	y := lat2 - lat1
	return earthRadius * math.Sqrt(x*x+y*y)
}

// Bearing - forward azimuth from p1 to p2 in degrees [0,360).
func Bearing(p1, p2 Point) float64 {
	lon1, lat1 := rad(p1.Lon), rad(p1.Lat)
	lon2, lat2 := rad(p2.Lon), rad(p2.Lat)
	dLon := lon2 - lon1
	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	return math.Mod(deg(math.Atan2(y, x))+360, 360)
}

// BearingDelta - the difference between two bearings in degrees (-180,180].
// Negative to the left, positive to the right.
func BearingDelta(b1, b2 float64) float64 {
	delta := math.Mod(b2-b1+360, 360)
	if delta > 180 {
		delta -= 360
	}
	return delta
}

// BearingTurn - the shift in bearing at p2 when travelling p1 -> p2 -> p3.
// Negative to the left, positive to the right.
func BearingTurn(p1, p2, p3 Point) float64 {
	return BearingDelta(Bearing(p1, p2), Bearing(p2, p3))
}

// PolygonArea - signed coordinate area of a closed ring in square meters.
// Simple conversion to planar projection, works for small areas.
//   < 0: clockwise
//   > 0: counter-clockwise
//   = 0: ring not closed
func PolygonArea(ring []Point) float64 {
	if len(ring) < 2 || ring[0] != ring[len(ring)-1] {
		return 0
	}

	latDist := math.Pi * earthRadius / 180.0

	coords := make([][2]float64, len(ring))
	for i, node := range ring {
		coords[i][0] = node.Lon * latDist * math.Cos(rad(node.Lat))
		coords[i][1] = node.Lat * latDist
	}

	area := 0.0
	for i := 0; i < len(coords)-1; i++ {
		area += (coords[i+1][0] - coords[i][0]) * (coords[i+1][1] + coords[i][1]) // (x2-x1)(y2+y1)
	}

	// Shoelace in (x2-x1)(y2+y1) form yields clockwise-positive; flip so
	// counter-clockwise is positive as documented.
	return -area / 2.0
}

// PolygonCenter - simple average of ring nodes, skipping the closing node.
// If nodes are skewed to one side, the center is skewed the same way.
func PolygonCenter(ring []Point) (Point, error) {
	if len(ring) == 0 {
		return Point{}, fmt.Errorf("empty ring")
	}
	if len(ring) == 1 {
		return ring[0], nil
	}

	length := len(ring)
	if ring[0] == ring[length-1] {
		length--
	}

	var x, y float64
	for _, node := range ring[:length] {
		x += node.Lon
		y += node.Lat
	}
	return Point{x / float64(length), y / float64(length)}, nil
}

// PolygonCentroid - area-weighted centroid of a closed ring.
// Coordinates are shifted to the first node before summing to keep the
// determinants from cancelling catastrophically at high longitudes.
func PolygonCentroid(ring []Point) (Point, error) {
	if len(ring) < 4 || ring[0] != ring[len(ring)-1] {
		return Point{}, fmt.Errorf("linear ring not closed")
	}

	ox, oy := ring[0].Lon, ring[0].Lat

	var cx, cy, det float64
	for i := 0; i < len(ring)-1; i++ {
		xi, yi := ring[i].Lon-ox, ring[i].Lat-oy
		xj, yj := ring[i+1].Lon-ox, ring[i+1].Lat-oy
		d := xi*yj - xj*yi
		det += d
		cx += (xi + xj) * d
		cy += (yi + yj) * d
	}

	if det == 0 {
		return Point{}, fmt.Errorf("degenerate ring with zero area")
	}

	f := 3.0 * det
	return Point{cx/f + ox, cy/f + oy}, nil
}

// RotatePoint - rotate point by angle degrees around an axis point.
// Longitude is scaled by cos(axis latitude) to get a locally flat plane.
// Rotating by angle and then by -angle returns the original point up to
// floating error.
func RotatePoint(axis Point, angle float64, point Point) Point {
	r := rad(angle)

	trY := point.Lat - axis.Lat
	trX := (point.Lon - axis.Lon) * math.Cos(rad(axis.Lat))

	xRot := trX*math.Cos(r) - trY*math.Sin(r)
	yRot := trX*math.Sin(r) + trY*math.Cos(r)

	return Point{
		Lon: xRot/math.Cos(rad(axis.Lat)) + axis.Lon,
		Lat: yRot + axis.Lat,
	}
}

// SegmentDistance - closest distance in meters from point p to the line
// segment [s1, s2], clamped to the segment ends. Works for short distances.
func SegmentDistance(s1, s2, p Point) float64 {
	x1, y1 := rad(s1.Lon), rad(s1.Lat)
	x2, y2 := rad(s2.Lon), rad(s2.Lat)
	x3, y3 := rad(p.Lon), rad(p.Lat)

	// Simplified reprojection of latitude
	x1 *= math.Cos(y1)
	x2 *= math.Cos(y2)
	x3 *= math.Cos(y3)

	dx := x2 - x1
	dy := y2 - y1

	dot := (x3-x1)*dx + (y3-y1)*dy
	lenSq := dx*dx + dy*dy

	param := -1.0
	if lenSq != 0 { // zero length segment
		param = dot / lenSq
	}

	var x4, y4 float64
	switch {
	case param < 0:
		x4, y4 = x1, y1
	case param > 1:
		x4, y4 = x2, y2
	default:
		x4, y4 = x1+param*dx, y1+param*dy
	}

	x := x4 - x3
	y := y4 - y3
	return earthRadius * math.Sqrt(x*x+y*y)
}

// CoordinateOffset - new point offset by the given distance in meters
// along both axes. Used to build search boxes around a center point.
func CoordinateOffset(node Point, distance float64) Point {
	m := 1 / ((math.Pi / 180.0) * 6378137.0) // degrees per meter
	return Point{
		Lon: node.Lon + (distance*m)/math.Cos(rad(node.Lat)),
		Lat: node.Lat + distance*m,
	}
}

func rad(d float64) float64 { return d * math.Pi / 180.0 }
func deg(r float64) float64 { return r * 180.0 / math.Pi }
