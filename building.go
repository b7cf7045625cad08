package main

import "math"

// RectifyStatus tracks whether a building has been through rectification.
// Both terminal states are sticky; a building is processed at most once.
type RectifyStatus int

const (
	StatusUntested RectifyStatus = iota
	StatusRectified
	StatusIrreconcilable
)

// Building - one cadastral building feature. Geometry is either a bare
// point, a polygon (outer ring plus holes) or a multipolygon. The polygon
// rings are mutated in place by the simplifier and the rectifier; geometry
// is final once written to output.
type Building struct {
	Ref          string // cadastral reference
	Point        *Point
	Polygon      Polygon
	Multipolygon Multipolygon
	Tags         map[string]string

	// OSM identity when the building was loaded from an existing OSM
	// extract; zero for imported buildings.
	WayID    int64
	Version  int32
	NodeRefs []int64

	// Diagnostics holds VERIFY_*/DEBUG_* annotations, emitted as
	// properties only in verify/debug mode.
	Diagnostics map[string]string

	Status RectifyStatus
	Center Point
	Area   float64 // m², absolute

	// neighbours - other buildings sharing at least one vertex, including
	// self. Valid only during rectification.
	neighbours []*Building
}

// Diag - attach a diagnostics annotation.
func (b *Building) Diag(key, value string) {
	if b.Diagnostics == nil {
		b.Diagnostics = make(map[string]string)
	}
	b.Diagnostics[key] = value
}

// UpdateCenter - recompute simple center and area from the outer ring.
func (b *Building) UpdateCenter() {
	if len(b.Polygon) == 0 {
		return
	}
	if center, err := PolygonCenter(b.Polygon[0]); err == nil {
		b.Center = center
	}
	b.Area = math.Abs(PolygonArea(b.Polygon[0]))
}

// Building tags adjusted according to computed footprint area.
// Cadastral type codes map coarsely; the size tells the rest.
func adjustBuildingTags(building *Building) {
	tag := building.Tags["building"]
	if tag == "" || len(building.Polygon) == 0 {
		return
	}

	area := math.Abs(PolygonArea(building.Polygon[0]))

	switch {
	case tag == "garage" && area > 100:
		building.Tags["building"] = "garages"
	case (tag == "garage" || tag == "barn") && area < 15:
		building.Tags["building"] = "shed"
	case tag == "barn" && area < 100:
		building.Tags["building"] = "farm_auxiliary"
	case tag == "hotel" && area < 100:
		building.Tags["building"] = "cabin"
	}
}

// No mismatch warning when replacing these building tags with each other.
var similarBuildings = map[string][]string{
	"residential": {
		"house", "detached", "semidetached_house", "terrace", "farm",
		"apartments", "residential", "cabin", "hut", "bungalow",
	},
	"commercial": {"retail", "commercial", "warehouse", "industrial", "office"},
}

func sameBuildingClass(tag1, tag2 string) bool {
	for _, class := range similarBuildings {
		found1, found2 := false, false
		for _, tag := range class {
			if tag == tag1 {
				found1 = true
			}
			if tag == tag2 {
				found2 = true
			}
		}
		if found1 && found2 {
			return true
		}
	}
	return false
}
