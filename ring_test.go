package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssembleRingsSingle(t *testing.T) {

	// four fragments of one ring, two of them recorded backwards
	var ways = []*Way{
		{ID: 10, Nodes: []int64{1, 2, 3}},
		{ID: 11, Nodes: []int64{5, 6, 7}},
		{ID: 12, Nodes: []int64{5, 4, 3}},
		{ID: 13, Nodes: []int64{1, 9, 7}},
	}

	rings, err := AssembleRings(ways)
	assert.NoError(t, err)
	assert.Len(t, rings, 1)
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7, 9, 1}, rings[0])

	// every edge used exactly once: ring length is the node count of all
	// ways minus the shared terminals plus the closing node
	assert.Len(t, rings[0], 9)
}

func TestAssembleRingsMultiple(t *testing.T) {

	// two disjoint triangles
	var ways = []*Way{
		{ID: 1, Nodes: []int64{1, 2}},
		{ID: 2, Nodes: []int64{2, 3}},
		{ID: 3, Nodes: []int64{3, 1}},
		{ID: 4, Nodes: []int64{10, 11}},
		{ID: 5, Nodes: []int64{11, 12}},
		{ID: 6, Nodes: []int64{12, 10}},
	}

	rings, err := AssembleRings(ways)
	assert.NoError(t, err)
	assert.Len(t, rings, 2)
	assert.Equal(t, []int64{1, 2, 3, 1}, rings[0])
	assert.Equal(t, []int64{10, 11, 12, 10}, rings[1])
}

func TestAssembleRingsUnclosed(t *testing.T) {

	// a gap between node 3 and node 1
	var ways = []*Way{
		{ID: 1, Nodes: []int64{1, 2}},
		{ID: 2, Nodes: []int64{2, 3}},
	}

	_, err := AssembleRings(ways)
	assert.Error(t, err)

	_, err = AssembleRings(nil)
	assert.Error(t, err)
}

func boundaryNodes() map[int64]Point {
	return map[int64]Point{
		1: {Lon: 10.0, Lat: 60.0},
		2: {Lon: 10.004, Lat: 60.0},
		3: {Lon: 10.004, Lat: 60.002},
		4: {Lon: 10.0, Lat: 60.002},
		5: {Lon: 10.001, Lat: 60.0005},
		6: {Lon: 10.003, Lat: 60.0005},
		7: {Lon: 10.003, Lat: 60.0015},
		8: {Lon: 10.001, Lat: 60.0015},

		10: {Lon: 10.01, Lat: 60.0},
		11: {Lon: 10.012, Lat: 60.0},
		12: {Lon: 10.012, Lat: 60.001},
	}
}

func TestAssemblePolygonWithHole(t *testing.T) {

	var nodes = boundaryNodes()
	var outer = []*Way{
		{ID: 1, Nodes: []int64{1, 2, 3}},
		{ID: 2, Nodes: []int64{3, 4, 1}},
	}
	var inner = []*Way{
		{ID: 3, Nodes: []int64{5, 6, 7, 8, 5}},
	}

	polygon, multipolygon, err := AssemblePolygon(outer, inner, nodes)
	assert.NoError(t, err)
	assert.Nil(t, multipolygon)
	assert.Len(t, polygon, 2)
	assert.True(t, polygon[0].Closed())
	assert.True(t, polygon[1].Closed())

	// a point inside the hole is outside the polygon
	assert.False(t, PointInPolygon(Point{Lon: 10.002, Lat: 60.001}, polygon))
	assert.True(t, PointInPolygon(Point{Lon: 10.0005, Lat: 60.001}, polygon))
}

func TestAssemblePolygonMultiple(t *testing.T) {

	var nodes = boundaryNodes()
	var outer = []*Way{
		{ID: 1, Nodes: []int64{1, 2, 3}},
		{ID: 2, Nodes: []int64{3, 4, 1}},
		{ID: 3, Nodes: []int64{10, 11, 12, 10}},
	}

	polygon, multipolygon, err := AssemblePolygon(outer, nil, nodes)
	assert.NoError(t, err)
	assert.Nil(t, polygon)
	assert.Len(t, multipolygon, 2)

	// inner ways combined with several outer rings are rejected
	var inner = []*Way{{ID: 4, Nodes: []int64{5, 6, 7, 8, 5}}}
	_, _, err = AssemblePolygon(outer, inner, nodes)
	assert.Error(t, err)
}

func TestAssemblePolygonMissingNode(t *testing.T) {

	var outer = []*Way{{ID: 1, Nodes: []int64{1, 2, 3, 1}}}

	_, _, err := AssemblePolygon(outer, nil, map[int64]Point{})
	assert.Error(t, err)
}
