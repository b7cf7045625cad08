package main

import (
	"fmt"
	"log"
	"math"
	"strconv"
)

// detectCurves - indexes of ring nodes that belong to a genuine curve:
// a run of consecutive same-signed turns, each within the configured
// angle band, spanning more than CurveMarginNodes nodes. Curve nodes are
// protected from the blunt angle-based pass.
func detectCurves(ring LinearRing, config Config) map[int]bool {
	curves := make(map[int]bool)
	curve := make(map[int]bool)
	lastBearing := 0.0

	for i := 1; i < len(ring)-1; i++ {
		newBearing := BearingTurn(ring[i-1], ring[i], ring[i+1])

		if math.Copysign(1, lastBearing) == math.Copysign(1, newBearing) &&
			config.CurveMarginMin < math.Abs(newBearing) &&
			math.Abs(newBearing) < config.CurveMarginMax {
			curve[i-1] = true
			curve[i] = true
			curve[i+1] = true
		} else {
			if len(curve) > config.CurveMarginNodes+1 {
				for node := range curve {
					curves[node] = true
				}
			}
			curve = make(map[int]bool)
		}
		lastBearing = newBearing
	}

	if len(curve) > config.CurveMarginNodes+1 {
		for node := range curve {
			curves[node] = true
		}
	}

	return curves
}

// simplifyCurve - Ramer-Douglas-Peucker reduction of a polyline within
// epsilon meters. Always keeps the two endpoints and recurses on the point
// of maximum perpendicular deviation.
func simplifyCurve(line LinearRing, epsilon float64) LinearRing {
	dmax := 0.0
	index := 0
	for i := 1; i < len(line)-1; i++ {
		d := SegmentDistance(line[0], line[len(line)-1], line[i])
		if d > dmax {
			index = i
			dmax = d
		}
	}

	if dmax >= epsilon {
		left := simplifyCurve(line[:index+1], epsilon)
		right := simplifyCurve(line[index:], epsilon)
		simplified := make(LinearRing, 0, len(left)+len(right)-1)
		simplified = append(simplified, left[:len(left)-1]...)
		return append(simplified, right...)
	}

	return LinearRing{line[0], line[len(line)-1]}
}

// SimplifyBuildings - remove redundant nodes, i.e. nodes on (almost)
// straight lines, from all building polygons. Buildings with curved walls
// get a distance-based reduction instead, which keeps more detail.
//
// Removal is two-phase: nodes are first marked by decrementing a global
// usage count, then swept from every polygon once no ring needs them
// anymore. A vertex shared with another building survives until all of
// its users have marked it. Dropped coordinates are recorded in removed.
func SimplifyBuildings(buildings []*Building, config Config, removed map[Point]bool) {
	log.Printf("simplify polygons: factor %.2f m (curve), %.0f degrees (line)",
		config.SimplifyMargin, config.AngleMargin)

	// Usage count per vertex; the closing node counts as a second use so
	// a ring's start node is not dropped by the angle pass alone.
	nodes := make(map[Point]int)
	for _, building := range buildings {
		for _, ring := range building.Polygon {
			for _, node := range ring {
				nodes[node]++
			}
		}
	}

	countCurved := 0
	for _, building := range buildings {
		if len(building.Polygon) == 0 || building.Status == StatusRectified {
			continue
		}

		for _, ring := range building.Polygon {
			curves := detectCurves(ring, config)

			if len(curves) > 0 {
				building.Diag("VERIFY_CURVE", strconv.Itoa(len(curves)))
				countCurved++
				markCurvedRing(building, ring, config, nodes)
			} else {
				markStraightRing(building, ring, config, nodes)
			}
		}
	}

	for node, count := range nodes {
		if count == 0 {
			removed[node] = true
		}
	}

	countRemove, countBuilding := sweepNodes(buildings, removed)

	log.Printf("simplify polygons: %d buildings with curved walls", countCurved)
	log.Printf("simplify polygons: removed %d redundant nodes in %d buildings", countRemove, countBuilding)
}

// markCurvedRing - light simplification for curved buildings: mark every
// node the distance-based pass would not keep.
func markCurvedRing(building *Building, ring LinearRing, config Config, nodes map[Point]int) {
	newRing := simplifyCurve(ring, config.SimplifyMargin)

	// The ring start is never interior to a recursion, so test it
	// against its neighbours separately.
	if len(newRing) > 3 &&
		SegmentDistance(newRing[len(newRing)-2], newRing[1], newRing[0]) < config.SimplifyMargin {
		shifted := make(LinearRing, 0, len(newRing)-1)
		shifted = append(shifted, newRing[1:len(newRing)-1]...)
		newRing = append(shifted, newRing[1])
	}

	if len(newRing) >= len(ring) {
		return
	}

	building.Diag("VERIFY_SIMPLIFY_CURVE", strconv.Itoa(len(ring)-len(newRing)))

	kept := make(map[Point]bool, len(newRing))
	for _, node := range newRing {
		kept[node] = true
	}
	for _, node := range ring {
		if !kept[node] {
			nodes[node]--
		}
	}
}

// markStraightRing - angle/length based removal for buildings without
// curves. A node goes when its turn angle is below the margin, or its
// segment is short and the combined turn with the successor stays within
// the margin, or the segment is short and the turn within twice the margin.
func markStraightRing(building *Building, ring LinearRing, config Config, nodes map[Point]int) {
	lastNode := ring[len(ring)-2] // wrap for first test

	for i := 0; i < len(ring)-1; i++ {
		angle := BearingTurn(lastNode, ring[i], ring[i+1])
		length := Distance(ring[i], ring[i+1])

		combined := angle + BearingTurn(ring[i], ring[i+1], ring[(i+2)%(len(ring)-1)])

		if math.Abs(angle) < config.AngleMargin ||
			length < config.ShortMargin &&
				(math.Abs(angle) < 40 || math.Abs(combined) < config.AngleMargin) ||
			length < config.CornerMargin && math.Abs(angle) < 2*config.AngleMargin {

			nodes[ring[i]]--
			if angle > config.AngleMargin-2 {
				building.Diag("VERIFY_SIMPLIFY_LINE", fmt.Sprintf("%.1f", math.Abs(angle)))
			}
		} else {
			lastNode = ring[i]
		}
	}
}

// sweepNodes - remove marked nodes from every polygon, keeping rings
// closed when the start node goes.
func sweepNodes(buildings []*Building, removed map[Point]bool) (countRemove, countBuilding int) {
	for _, building := range buildings {
		touched := false

		for p, ring := range building.Polygon {
			newRing := ring[:0:0]
			for _, node := range ring[:len(ring)-1] {
				if removed[node] {
					countRemove++
					touched = true
					continue
				}
				newRing = append(newRing, node)
			}
			if len(newRing) == 0 {
				continue
			}
			newRing = append(newRing, newRing[0])
			building.Polygon[p] = newRing
		}

		if touched {
			countBuilding++
		}
	}
	return countRemove, countBuilding
}
