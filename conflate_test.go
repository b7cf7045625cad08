package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// ring from offsets in meters relative to an origin, at latitude 60
func metersRing(origin Point, coords [][2]float64) LinearRing {
	const latDist = 111194.9266
	ring := make(LinearRing, 0, len(coords))
	for _, c := range coords {
		ring = append(ring, Point{
			Lon: origin.Lon + c[0]/(latDist*0.5),
			Lat: origin.Lat + c[1]/latDist,
		})
	}
	return ring
}

var conflateOrigin = Point{Lon: 10.0, Lat: 60.0}

func squareBuilding(shiftX float64, tags map[string]string) *Building {
	building := &Building{
		Polygon: Polygon{metersRing(conflateOrigin, [][2]float64{
			{shiftX, 0}, {shiftX + 100, 0}, {shiftX + 100, 100}, {shiftX, 100}, {shiftX, 0},
		})},
		Tags: tags,
	}
	building.UpdateCenter()
	return building
}

func TestHausdorffDistance(t *testing.T) {

	var square = squareBuilding(0, nil).Polygon[0]
	var shifted = squareBuilding(7, nil).Polygon[0]

	assert.InDelta(t, 0.0, HausdorffDistance(square, square), 0.01)
	assert.InDelta(t, 7.0, HausdorffDistance(square, shifted), 0.1)
	assert.InDelta(t, HausdorffDistance(square, shifted), HausdorffDistance(shifted, square), 0.01)
}

func TestConflateMatch(t *testing.T) {

	var existing = squareBuilding(0, map[string]string{
		"building":    "house",
		"source":      "survey",
		"addr:street": "Main Street",
	})
	existing.WayID = 42
	var imported = squareBuilding(1, map[string]string{
		"building":       "detached",
		"ref:bygningsnr": "123",
	})

	result := ConflateBuildings([]*Building{existing}, []*Building{imported}, DefaultConfig())

	assert.Len(t, result.Merged, 1)
	assert.Empty(t, result.Added)
	assert.Empty(t, result.Unmatched)

	// geometry replaced, tags combined with the import winning
	assert.Equal(t, imported.Polygon, existing.Polygon)
	assert.Equal(t, "detached", existing.Tags["building"])
	assert.Equal(t, "123", existing.Tags["ref:bygningsnr"])
	assert.NotContains(t, existing.Tags, "source")
	assert.NotContains(t, existing.Tags, "addr:street")

	// house and detached are the same building class, no review marker
	assert.NotContains(t, existing.Tags, "OSM_BUILDING")
	assert.Contains(t, existing.Diagnostics, "HAUSDORFF")
}

func TestConflateTaggedMargin(t *testing.T) {

	// 7 meters off is good enough for an untagged building but not for a
	// deliberately tagged one
	var tagged = squareBuilding(0, map[string]string{"building": "house", "name": "Gamlehuset"})
	var imported = squareBuilding(7, map[string]string{"building": "house"})

	result := ConflateBuildings([]*Building{tagged}, []*Building{imported}, DefaultConfig())

	assert.Empty(t, result.Merged)
	assert.Len(t, result.Unmatched, 1)
	assert.Len(t, result.Added, 1)

	var untagged = squareBuilding(0, map[string]string{"building": "house"})
	imported = squareBuilding(7, map[string]string{"building": "house"})

	result = ConflateBuildings([]*Building{untagged}, []*Building{imported}, DefaultConfig())
	assert.Len(t, result.Merged, 1)
}

func TestConflateAreaMismatch(t *testing.T) {

	// a U-shaped import hugging the square's walls: Hausdorff distance is
	// only 5 meters but the footprint area differs fourfold
	var existing = squareBuilding(0, map[string]string{"building": "house"})
	var imported = &Building{
		Polygon: Polygon{metersRing(conflateOrigin, [][2]float64{
			{0, 0}, {100, 0}, {100, 100}, {90, 100}, {90, 5}, {10, 5}, {10, 100}, {0, 100}, {0, 0},
		})},
		Tags: map[string]string{"building": "house"},
	}
	imported.UpdateCenter()

	result := ConflateBuildings([]*Building{existing}, []*Building{imported}, DefaultConfig())

	assert.Empty(t, result.Merged)
	assert.Len(t, result.Unmatched, 1)
	assert.Len(t, result.Added, 1)
}

func TestHasNontrivialTags(t *testing.T) {

	assert.False(t, hasNontrivialTags(map[string]string{
		"building": "yes", "source": "import", "addr:street": "Main Street",
	}))
	assert.True(t, hasNontrivialTags(map[string]string{
		"building": "yes", "name": "Gamlehuset",
	}))
}

func TestMergeTags(t *testing.T) {

	// a church downgraded to house by the import is kept for review
	var osmBuilding = &Building{Tags: map[string]string{
		"building":    "church",
		"source:date": "2008",
	}}
	var importBuilding = &Building{Tags: map[string]string{"building": "house"}}

	mergeTags(osmBuilding, importBuilding)

	assert.Equal(t, "house", osmBuilding.Tags["building"])
	assert.Equal(t, "church", osmBuilding.Tags["OSM_BUILDING"])
	assert.NotContains(t, osmBuilding.Tags, "source:date")
}

func TestSameBuildingClass(t *testing.T) {

	assert.True(t, sameBuildingClass("house", "detached"))
	assert.True(t, sameBuildingClass("retail", "warehouse"))
	assert.False(t, sameBuildingClass("church", "house"))
	assert.False(t, sameBuildingClass("house", "retail"))
}

func TestAdjustBuildingTags(t *testing.T) {

	// roughly 10000 m² footprint
	var large = squareBuilding(0, map[string]string{"building": "garage"})
	adjustBuildingTags(large)
	assert.Equal(t, "garages", large.Tags["building"])

	// roughly 9 m² footprint
	var small = &Building{
		Polygon: Polygon{metersRing(conflateOrigin, [][2]float64{
			{0, 0}, {3, 0}, {3, 3}, {0, 3}, {0, 0},
		})},
		Tags: map[string]string{"building": "barn"},
	}
	adjustBuildingTags(small)
	assert.Equal(t, "shed", small.Tags["building"])
}
