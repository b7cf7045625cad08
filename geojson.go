package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	geojson "github.com/paulmach/go.geojson"
)

// LoadGeoJSON - read a building import file (FeatureCollection) into
// Building records. Non-string properties are formatted into tags.
func LoadGeoJSON(path string) ([]*Building, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	collection, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, err
	}

	buildings := make([]*Building, 0, len(collection.Features))
	for _, feature := range collection.Features {
		building := &Building{Tags: make(map[string]string)}

		for key, value := range feature.Properties {
			switch v := value.(type) {
			case string:
				building.Tags[key] = v
			default:
				building.Tags[key] = fmt.Sprintf("%v", v)
			}
		}
		building.Ref = building.Tags["ref:bygningsnr"]

		geometry := feature.Geometry
		if geometry == nil {
			continue
		}
		switch {
		case geometry.IsPoint():
			point := Point{geometry.Point[0], geometry.Point[1]}
			building.Point = &point
			building.Center = point

		case geometry.IsPolygon():
			building.Polygon = coordsToPolygon(geometry.Polygon)
			building.UpdateCenter()

		case geometry.IsMultiPolygon():
			for _, coords := range geometry.MultiPolygon {
				building.Multipolygon = append(building.Multipolygon, coordsToPolygon(coords))
			}

		default:
			log.Println("[warn] skipping feature with geometry type:", geometry.Type)
			continue
		}

		buildings = append(buildings, building)
	}

	log.Printf("loaded %d buildings from %s", len(buildings), path)
	return buildings, nil
}

// SaveGeoJSON - write buildings as a FeatureCollection. Diagnostics are
// included as properties in debug mode, VERIFY_* diagnostics in verify
// mode; removed nodes become point features when debugging.
func SaveGeoJSON(path string, buildings []*Building, removed map[Point]bool, verify, debug bool) error {
	collection := geojson.NewFeatureCollection()

	count := 0
	for _, building := range buildings {
		feature := buildingFeature(building)
		if feature == nil {
			continue
		}

		for key, value := range building.Tags {
			feature.SetProperty(key, value)
		}
		for key, value := range building.Diagnostics {
			if debug || verify && strings.HasPrefix(key, "VERIFY_") {
				feature.SetProperty(key, value)
			}
		}

		collection.AddFeature(feature)
		count++
	}

	if debug || verify {
		for node := range removed {
			feature := geojson.NewPointFeature([]float64{node.Lon, node.Lat})
			feature.SetProperty("REMOVE", "yes")
			collection.AddFeature(feature)
		}
	}

	data, err := json.MarshalIndent(collection, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}

	log.Printf("saved %d buildings to %s", count, path)
	return nil
}

func buildingFeature(building *Building) *geojson.Feature {
	switch {
	case len(building.Multipolygon) > 0:
		coords := make([][][][]float64, 0, len(building.Multipolygon))
		for _, polygon := range building.Multipolygon {
			coords = append(coords, polygonToCoords(polygon))
		}
		return geojson.NewMultiPolygonFeature(coords...)

	case len(building.Polygon) > 0:
		return geojson.NewPolygonFeature(polygonToCoords(building.Polygon))

	case building.Point != nil:
		return geojson.NewPointFeature([]float64{building.Point.Lon, building.Point.Lat})
	}
	return nil
}

func polygonToCoords(polygon Polygon) [][][]float64 {
	coords := make([][][]float64, 0, len(polygon))
	for _, ring := range polygon {
		ringCoords := make([][]float64, 0, len(ring))
		for _, node := range ring {
			ringCoords = append(ringCoords, []float64{node.Lon, node.Lat})
		}
		coords = append(coords, ringCoords)
	}
	return coords
}

func coordsToPolygon(coords [][][]float64) Polygon {
	polygon := make(Polygon, 0, len(coords))
	for _, ringCoords := range coords {
		ring := make(LinearRing, 0, len(ringCoords))
		var last1, last2 *Point
		for _, coord := range ringCoords {
			node := Point{coord[0], coord[1]}
			// drop consecutive duplicate coordinates
			if last1 != nil && node == *last1 {
				continue
			}
			if last2 != nil && node == *last2 {
				ring = ring[:len(ring)-1]
				last1 = last2
				last2 = nil
				continue
			}
			ring = append(ring, node)
			last2 = last1
			p := node
			last1 = &p
		}
		polygon = append(polygon, ring)
	}
	return polygon
}
