package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRectifySquare(t *testing.T) {

	// a roughly 55 x 55 meter square with one corner pushed 0.11 meters
	// north, well within the relocation margin
	var building = &Building{Polygon: Polygon{LinearRing{
		{Lon: 10.0, Lat: 60.0},
		{Lon: 10.001, Lat: 60.000001},
		{Lon: 10.001, Lat: 60.0005},
		{Lon: 10.0, Lat: 60.0005},
		{Lon: 10.0, Lat: 60.0},
	}}}
	var removed = make(map[Point]bool)

	RectifyBuildings([]*Building{building}, DefaultConfig(), removed)

	assert.Equal(t, StatusRectified, building.Status)
	_, found := building.Diagnostics["DEBUG_RECTIFY"]
	assert.True(t, found)

	// the southern wall is aligned midway between the two corners
	var ring = building.Polygon[0]
	assert.True(t, ring.Closed())
	assert.InDelta(t, 60.0000005, ring[0].Lat, 1e-9)
	assert.InDelta(t, ring[0].Lat, ring[1].Lat, 1e-9)
	assert.InDelta(t, ring[2].Lat, ring[3].Lat, 1e-9)
	assert.InDelta(t, ring[0].Lon, ring[3].Lon, 1e-9)
	assert.InDelta(t, ring[1].Lon, ring[2].Lon, 1e-9)
}

func TestRectifyRejectsSkewedCorner(t *testing.T) {

	// a 45 degree corner cannot be rectified; geometry must stay untouched
	var ring = LinearRing{
		{Lon: 10.0, Lat: 60.0},
		{Lon: 10.001, Lat: 60.0},
		{Lon: 10.001, Lat: 60.0004},
		{Lon: 10.0008, Lat: 60.0005},
		{Lon: 10.0, Lat: 60.0005},
		{Lon: 10.0, Lat: 60.0},
	}
	var original = append(LinearRing{}, ring...)
	var building = &Building{Polygon: Polygon{ring}}
	var removed = make(map[Point]bool)

	RectifyBuildings([]*Building{building}, DefaultConfig(), removed)

	assert.Equal(t, StatusIrreconcilable, building.Status)
	assert.Equal(t, original, building.Polygon[0])
	_, found := building.Diagnostics["DEBUG_NORECTIFY"]
	assert.True(t, found)
}

func TestRectifyRejectsLargeRelocation(t *testing.T) {

	// corner pushed 0.5 meters: squaring would move two nodes 0.25 meters,
	// beyond the relocation margin, so the whole building is left alone
	var ring = LinearRing{
		{Lon: 10.0, Lat: 60.0},
		{Lon: 10.001, Lat: 60.0000045},
		{Lon: 10.001, Lat: 60.0005},
		{Lon: 10.0, Lat: 60.0005},
		{Lon: 10.0, Lat: 60.0},
	}
	var original = append(LinearRing{}, ring...)
	var building = &Building{Polygon: Polygon{ring}}
	var removed = make(map[Point]bool)

	RectifyBuildings([]*Building{building}, DefaultConfig(), removed)

	assert.Equal(t, StatusIrreconcilable, building.Status)
	assert.Equal(t, original, building.Polygon[0])
	assert.Contains(t, building.Diagnostics["DEBUG_NORECTIFY"], "Node relocated")
}

func TestRectifyGroup(t *testing.T) {

	// two squares sharing a wall are rectified as one group; the shared
	// corners must come out identical in both polygons
	var b = Point{Lon: 10.001, Lat: 60.0}
	var c = Point{Lon: 10.001, Lat: 60.0005}

	var west = &Building{Polygon: Polygon{LinearRing{
		{Lon: 10.0, Lat: 60.0},
		b,
		c,
		{Lon: 10.000001, Lat: 60.0005},
		{Lon: 10.0, Lat: 60.0},
	}}}
	var east = &Building{Polygon: Polygon{LinearRing{
		b,
		{Lon: 10.002, Lat: 60.0},
		{Lon: 10.002, Lat: 60.0005},
		c,
		b,
	}}}
	var removed = make(map[Point]bool)

	RectifyBuildings([]*Building{west, east}, DefaultConfig(), removed)

	assert.Equal(t, StatusRectified, west.Status)
	assert.Equal(t, StatusRectified, east.Status)
	assert.Equal(t, "2", west.Diagnostics["VERIFY_GROUP"])

	// western wall of the west square is aligned
	var ring = west.Polygon[0]
	assert.InDelta(t, 10.0000005, ring[3].Lon, 1e-9)
	assert.InDelta(t, ring[0].Lon, ring[3].Lon, 1e-9)

	// shared corners are unchanged and still shared
	assert.Equal(t, b, east.Polygon[0][0])
	assert.Equal(t, c, east.Polygon[0][3])
	assert.Equal(t, west.Polygon[0][1], east.Polygon[0][0])
	assert.Equal(t, west.Polygon[0][2], east.Polygon[0][3])
}
