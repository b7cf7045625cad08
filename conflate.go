package main

import (
	"fmt"
	"log"
	"strings"

	geo "github.com/paulmach/go.geo"
)

// HausdorffDistance - symmetric discrete Hausdorff distance between two
// closed rings in meters: the larger of the two directed maxima of
// per-vertex minimum segment distances. The inner loop exits early as
// soon as a candidate beats the running maximum, since only the maximum
// of the per-vertex minima matters.
//
// Abdel Aziz Taha and Allan Hanbury: "An Efficient Algorithm for
// Calculating the Exact Hausdorff Distance".
func HausdorffDistance(ring1, ring2 LinearRing) float64 {
	cMax := directedHausdorff(ring1, ring2, 0)
	return directedHausdorff(ring2, ring1, cMax)
}

func directedHausdorff(from, to LinearRing, cMax float64) float64 {
	for i := 0; i < len(from)-1; i++ {
		noBreak := true
		cMin := 999999.9 // dummy

		for j := 0; j < len(to)-1; j++ {
			d := SegmentDistance(to[j], to[j+1], from[i])

			if d < cMax {
				noBreak = false
				break
			}
			if d < cMin {
				cMin = d
			}
		}

		if cMin < 999999.9 && cMin > cMax && noBreak {
			cMax = cMin
		}
	}
	return cMax
}

// MatchPair - an existing building and the import building decided to be
// the same real-world building.
type MatchPair struct {
	Existing *Building
	Import   *Building
	Distance float64
}

// MatchResult - partition of the conflation run, for the caller to
// serialize into an OSM change file.
type MatchResult struct {
	Merged    []MatchPair
	Added     []*Building // import buildings without a match
	Unmatched []*Building // existing buildings left as-is
}

// hasNontrivialTags - tags beyond building=*/source=* and addresses mean
// someone tagged the building deliberately; matching then uses the
// tighter margin.
func hasNontrivialTags(tags map[string]string) bool {
	for key := range tags {
		if key != "building" && key != "source" && !strings.HasPrefix(key, "addr:") {
			return true
		}
	}
	return false
}

// searchBound - bounding box around a center point for candidate pruning.
func searchBound(center Point, margin float64) *geo.Bound {
	min := CoordinateOffset(center, -2*margin)
	max := CoordinateOffset(center, +2*margin)
	return geo.NewBoundFromPoints(geo.NewPoint(min.Lon, min.Lat), geo.NewPoint(max.Lon, max.Lat))
}

// nearestCandidate - candidate with the smallest Hausdorff distance to the
// query ring among those whose center falls inside the search box.
func nearestCandidate(query *Building, candidates []*Building, margin float64) (*Building, float64) {
	var found *Building
	bestDiff := 9999.0 // dummy

	bound := searchBound(query.Center, margin)

	for _, candidate := range candidates {
		if candidate.Area == 0 || len(candidate.Polygon) == 0 {
			continue
		}
		if !bound.Contains(geo.NewPoint(candidate.Center.Lon, candidate.Center.Lat)) {
			continue
		}

		diff := HausdorffDistance(query.Polygon[0], candidate.Polygon[0])
		if diff < bestDiff {
			found = candidate
			bestDiff = diff
		}
	}

	return found, bestDiff
}

// ConflateBuildings - decide, for each existing building, whether one
// import building represents the same real building. A match must be
// mutual (each is the other's nearest candidate), within the Hausdorff
// margin (the tighter margin when the existing building carries
// deliberate tags), and of comparable footprint area.
//
// Matched pairs get tags combined and geometry replaced by the import
// geometry; unmatched import buildings are added as new; unmatched
// existing buildings are reported as-is.
func ConflateBuildings(osmBuildings, importBuildings []*Building, config Config) *MatchResult {
	log.Printf("merge buildings: maximum Hausdorff difference %.0f m (%.0f m for tagged buildings)",
		config.MarginHausdorff, config.MarginTagged)
	log.Printf("merge buildings: maximum area difference %.0f %%", config.MarginArea*100)

	result := &MatchResult{}
	consumed := make(map[*Building]bool)

	for _, osmBuilding := range osmBuildings {
		if osmBuilding.Area == 0 || len(osmBuilding.Polygon) == 0 {
			result.Unmatched = append(result.Unmatched, osmBuilding)
			continue
		}

		found, bestDiff := nearestCandidate(osmBuilding, available(importBuildings, consumed), config.MarginHausdorff)

		if found != nil && acceptMatch(osmBuilding, found, bestDiff, osmBuildings, config) {
			osmBuilding.Diag("HAUSDORFF", fmt.Sprintf("%.2f", bestDiff))
			mergeTags(osmBuilding, found)
			osmBuilding.Polygon = found.Polygon
			osmBuilding.Multipolygon = found.Multipolygon
			osmBuilding.UpdateCenter()

			consumed[found] = true
			result.Merged = append(result.Merged, MatchPair{osmBuilding, found, bestDiff})
		} else {
			result.Unmatched = append(result.Unmatched, osmBuilding)
		}
	}

	for _, importBuilding := range importBuildings {
		if !consumed[importBuilding] && len(importBuilding.Polygon) > 0 {
			result.Added = append(result.Added, importBuilding)
		}
	}

	countOSM := len(osmBuildings)
	if countOSM > 0 {
		log.Printf("merge buildings: merged %d buildings (%d%%)", len(result.Merged), 100*len(result.Merged)/countOSM)
	}
	log.Printf("merge buildings: %d existing buildings not merged", len(result.Unmatched))
	log.Printf("merge buildings: added %d new buildings from import", len(result.Added))

	return result
}

func available(importBuildings []*Building, consumed map[*Building]bool) []*Building {
	remaining := make([]*Building, 0, len(importBuildings))
	for _, building := range importBuildings {
		if !consumed[building] {
			remaining = append(remaining, building)
		}
	}
	return remaining
}

func acceptMatch(osmBuilding, found *Building, bestDiff float64, osmBuildings []*Building, config Config) bool {
	// Tighter margin when the existing building is deliberately tagged.
	if !(bestDiff < config.MarginHausdorff && !hasNontrivialTags(osmBuilding.Tags) ||
		bestDiff < config.MarginTagged) {
		return false
	}

	// Both buildings must be each other's best match, otherwise two
	// existing buildings could claim the same import polygon.
	foundReverse, reverseDiff := nearestCandidate(found, osmBuildings, config.MarginHausdorff)
	if foundReverse != osmBuilding || reverseDiff >= config.MarginHausdorff {
		return false
	}

	// Same location but clearly different footprint is an adjoining,
	// distinct building.
	ratio := osmBuilding.Area / found.Area
	return config.MarginArea < ratio && ratio < 1.0/config.MarginArea
}

// mergeTags - combine tags on merge: the import wins, but a conflicting
// established building=* value outside the same similarity class is
// preserved in OSM_BUILDING for manual review.
func mergeTags(osmBuilding, importBuilding *Building) {
	oldTag := osmBuilding.Tags["building"]
	newTag := importBuilding.Tags["building"]

	if oldTag != "" && oldTag != "yes" && oldTag != newTag && !sameBuildingClass(oldTag, newTag) {
		osmBuilding.Tags["OSM_BUILDING"] = oldTag
	}

	for _, key := range []string{"building:type", "source", "source:date",
		"addr:street", "addr:housenumber", "addr:city", "addr:country", "addr:place"} {
		delete(osmBuilding.Tags, key)
	}

	for key, value := range importBuilding.Tags {
		osmBuilding.Tags[key] = value
	}
}
