package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingClosed(t *testing.T) {

	var ring = testSquare()
	assert.True(t, ring.Closed())
	assert.NoError(t, ring.Validate())

	var open = ring[:len(ring)-1]
	assert.False(t, open.Closed())
	assert.Error(t, open.Validate())

	var short = LinearRing{{Lon: 10, Lat: 60}, {Lon: 10, Lat: 60}}
	assert.False(t, short.Closed())
	assert.Error(t, short.Validate())
}

func TestPointInRing(t *testing.T) {

	var ring = testSquare()

	assert.True(t, PointInRing(Point{Lon: 10.001, Lat: 60.0005}, ring))
	assert.False(t, PointInRing(Point{Lon: 10.005, Lat: 60.0005}, ring))
	assert.False(t, PointInRing(Point{Lon: 10.001, Lat: 60.002}, ring))

	// unclosed rings never contain anything
	assert.False(t, PointInRing(Point{Lon: 10.001, Lat: 60.0005}, ring[:len(ring)-1]))
}

func TestPointInPolygonWithHole(t *testing.T) {

	var outer = testSquare()
	var hole = LinearRing{
		{Lon: 10.0008, Lat: 60.0004},
		{Lon: 10.0012, Lat: 60.0004},
		{Lon: 10.0012, Lat: 60.0006},
		{Lon: 10.0008, Lat: 60.0006},
		{Lon: 10.0008, Lat: 60.0004},
	}
	var polygon = Polygon{outer, hole}

	// inside the hole is outside the polygon
	assert.False(t, PointInPolygon(Point{Lon: 10.001, Lat: 60.0005}, polygon))

	// between the outer ring and the hole
	assert.True(t, PointInPolygon(Point{Lon: 10.0002, Lat: 60.0005}, polygon))

	// outside the outer ring
	assert.False(t, PointInPolygon(Point{Lon: 10.005, Lat: 60.0005}, polygon))
}

func TestPointInMultipolygon(t *testing.T) {

	var west = testSquare()
	var east = LinearRing{
		{Lon: 10.01, Lat: 60.0},
		{Lon: 10.012, Lat: 60.0},
		{Lon: 10.012, Lat: 60.001},
		{Lon: 10.01, Lat: 60.001},
		{Lon: 10.01, Lat: 60.0},
	}
	var multipolygon = Multipolygon{{west}, {east}}

	assert.True(t, PointInMultipolygon(Point{Lon: 10.001, Lat: 60.0005}, multipolygon))
	assert.True(t, PointInMultipolygon(Point{Lon: 10.011, Lat: 60.0005}, multipolygon))
	assert.False(t, PointInMultipolygon(Point{Lon: 10.005, Lat: 60.0005}, multipolygon))
}
