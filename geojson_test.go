package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoordsToPolygon(t *testing.T) {

	// consecutive duplicates and immediate backtracks are dropped
	var coords = [][][]float64{{
		{10.0, 60.0},
		{10.001, 60.0},
		{10.001, 60.0}, // duplicate
		{10.001, 60.001},
		{10.001, 60.0}, // backtrack to the previous node
		{10.0, 60.001},
		{10.0, 60.0},
	}}

	polygon := coordsToPolygon(coords)
	assert.Len(t, polygon, 1)
	assert.Equal(t, LinearRing{
		{Lon: 10.0, Lat: 60.0},
		{Lon: 10.001, Lat: 60.0},
		{Lon: 10.0, Lat: 60.001},
		{Lon: 10.0, Lat: 60.0},
	}, polygon[0])
}

func TestGeoJSONRoundTrip(t *testing.T) {

	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.geojson")

	var building = &Building{
		Polygon: Polygon{testSquare()},
		Tags:    map[string]string{"building": "house", "ref:bygningsnr": "42"},
	}
	building.UpdateCenter()
	building.Diag("VERIFY_SIMPLIFY_LINE", "3.5")
	building.Diag("DEBUG_RECTIFY", "0.05")

	assert.NoError(t, SaveGeoJSON(outPath, []*Building{building}, nil, true, false))

	loaded, err := LoadGeoJSON(outPath)
	assert.NoError(t, err)
	assert.Len(t, loaded, 1)
	assert.Equal(t, "42", loaded[0].Ref)
	assert.Equal(t, "house", loaded[0].Tags["building"])
	assert.Equal(t, building.Polygon, loaded[0].Polygon)

	// verify mode includes VERIFY_ annotations but not DEBUG_ ones
	assert.Equal(t, "3.5", loaded[0].Tags["VERIFY_SIMPLIFY_LINE"])
	assert.NotContains(t, loaded[0].Tags, "DEBUG_RECTIFY")
}

func TestSaveGeoJSONRemovedNodes(t *testing.T) {

	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.geojson")

	var building = &Building{Polygon: Polygon{testSquare()}}
	var removed = map[Point]bool{{Lon: 10.5, Lat: 60.5}: true}

	assert.NoError(t, SaveGeoJSON(outPath, []*Building{building}, removed, false, true))

	data, err := os.ReadFile(outPath)
	assert.NoError(t, err)

	var collection map[string]interface{}
	assert.NoError(t, json.Unmarshal(data, &collection))
	features := collection["features"].([]interface{})
	assert.Len(t, features, 2)
}

func TestLoadGeoJSONPoint(t *testing.T) {

	dir := t.TempDir()
	path := filepath.Join(dir, "points.geojson")

	var doc = `{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{"building":"cabin","ref:bygningsnr":7},
		 "geometry":{"type":"Point","coordinates":[10.5,60.5]}}]}`
	assert.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	loaded, err := LoadGeoJSON(path)
	assert.NoError(t, err)
	assert.Len(t, loaded, 1)
	assert.NotNil(t, loaded[0].Point)
	assert.Equal(t, Point{Lon: 10.5, Lat: 60.5}, *loaded[0].Point)

	// numeric properties become string tags
	assert.Equal(t, "7", loaded[0].Tags["ref:bygningsnr"])
	assert.Equal(t, "7", loaded[0].Ref)
}
