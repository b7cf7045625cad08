package main

import (
	"fmt"
	"log"
	"math"
	"sort"
	"strconv"
)

const coordinateDecimals = 7 // decimals in output coordinates

// wall - one (almost) straight segment of a polygon under rectification.
// Axis 0 is "horizontal" and axis 1 "vertical" relative to the group's
// dominant bearing.
type wall struct {
	nodes   []Point
	axis    int
	bearing float64
}

// corner - a vertex where one or more walls terminate. used counts how
// many walls require the vertex to remain; walls holds wall indexes, not
// pointers, so the graph has no ownership cycles.
type corner struct {
	used    int
	walls   []int
	newNode Point
}

// nodeInfo - global usage of one vertex across buildings.
type nodeInfo struct {
	use     int
	parents []*Building
}

// rectifier - working state for one RectifyBuildings invocation. The
// wall/corner graph is rebuilt per connected group and discarded.
type rectifier struct {
	config  Config
	nodes   map[Point]*nodeInfo
	removed map[Point]bool

	// per group
	walls   []*wall
	corners map[Point]*corner

	countRectify    int
	countNotRectify int
	countRemove     int
}

// RectifyBuildings - make square corners where possible. Buildings
// sharing vertices are rectified as one atomic group: either every member
// gets the new coordinates or none does. Based on the orthogonalization
// method used by JOSM.
func RectifyBuildings(buildings []*Building, config Config, removed map[Point]bool) {
	log.Printf("rectify polygons: threshold for square corners 90 +/- %.0f degrees", config.AngleMargin)
	log.Printf("rectify polygons: minimum length of wall %.2f meters", config.ShortMargin)

	r := &rectifier{
		config:  config,
		nodes:   make(map[Point]*nodeInfo),
		removed: removed,
	}

	// Identify nodes used by more than one building and derive each
	// building's neighbour list (including self).
	countShared := 0
	for _, building := range buildings {
		if len(building.Polygon) == 0 {
			continue
		}
		for _, ring := range building.Polygon {
			for _, node := range ring[:len(ring)-1] {
				info := r.nodes[node]
				if info == nil {
					r.nodes[node] = &nodeInfo{use: 1, parents: []*Building{building}}
					continue
				}
				info.use++
				countShared++
				if !containsBuilding(info.parents, building) {
					info.parents = append(info.parents, building)
				}
			}
		}
		building.neighbours = []*Building{building}
	}

	for _, info := range r.nodes {
		if info.use > 1 {
			for _, parent := range info.parents {
				for _, neighbour := range info.parents {
					if !containsBuilding(parent.neighbours, neighbour) {
						parent.neighbours = append(parent.neighbours, neighbour)
					}
				}
			}
		}
	}

	log.Printf("rectify polygons: %d nodes used by more than one building", countShared)

	for _, building := range buildings {
		if len(building.Polygon) == 0 || building.Status != StatusUntested {
			continue
		}
		r.rectifyGroup(building, collectGroup(building))
	}

	log.Printf("rectify polygons: removed %d redundant nodes", r.countRemove)
	log.Printf("rectify polygons: %d buildings rectified", r.countRectify)
	log.Printf("rectify polygons: %d buildings could not be rectified", r.countNotRectify)
}

// collectGroup - transitive closure of buildings connected through shared
// vertices, starting from one untested building.
func collectGroup(start *Building) []*Building {
	var group []*Building
	seen := map[*Building]bool{}

	queue := make([]*Building, 0, len(start.neighbours))
	for _, neighbour := range start.neighbours {
		queue = append(queue, neighbour)
		seen[neighbour] = true
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, neighbour := range current.neighbours {
			if !seen[neighbour] {
				seen[neighbour] = true
				queue = append(queue, neighbour)
			}
		}
		group = append(group, current)
	}
	return group
}

func (r *rectifier) rectifyGroup(test *Building, group []*Building) {
	if len(group) > 1 {
		test.Diag("VERIFY_GROUP", strconv.Itoa(len(group)))
	}

	r.walls = nil
	r.corners = make(map[Point]*corner)

	// patchWalls holds one wall-index sequence per polygon patch across
	// the whole group.
	var patchWalls [][]int

	conform := true
	for _, building := range group {
		for _, ring := range building.Polygon {
			patch, ok := r.decomposeRing(building, ring)
			if !ok {
				conform = false
				break
			}
			patchWalls = append(patchWalls, patch)
		}
		if !conform {
			if _, found := building.Diagnostics["DEBUG_NORECTIFY"]; !found {
				building.Diag("DEBUG_NORECTIFY", "No")
			}
			break
		}
	}

	if !conform {
		for _, building := range group {
			building.Status = StatusIrreconcilable
			r.countNotRectify++
		}
		return
	}

	// Drop corner nodes no wall requires.
	for node, c := range r.corners {
		if c.used == 0 {
			for _, w := range r.walls {
				w.nodes = removePoint(w.nodes, node)
			}
			r.removed[node] = true
			delete(r.corners, node)
			r.countRemove++
		}
	}

	bearings := r.assignAxes(patchWalls)

	// Rotation pivot: simple average of all retained corner coordinates.
	cornerNodes := make(LinearRing, 0, len(r.corners))
	for node := range r.corners {
		cornerNodes = append(cornerNodes, node)
	}
	pivot, err := PolygonCenter(cornerNodes)
	if err != nil {
		for _, building := range group {
			building.Status = StatusIrreconcilable
			r.countNotRectify++
		}
		return
	}

	// Median bearing resists outlier walls. Unwrap first so bearings
	// straddling the 0/180 boundary do not pull the median to 90.
	if maxFloat(bearings)-minFloat(bearings) > 90 {
		for i, b := range bearings {
			if b >= 0 && b < 90 {
				bearings[i] = b + 180
			}
		}
	}
	avgBearing := medianLow(bearings)

	r.combineWalls()

	// Rotate into the axis-aligned frame, align wall coordinates, rotate back.
	for node, c := range r.corners {
		c.newNode = RotatePoint(pivot, avgBearing, node)
	}

	for _, w := range r.walls {
		if len(w.nodes) == 0 {
			continue
		}
		var sumX, sumY float64
		for _, node := range w.nodes {
			sumX += r.corners[node].newNode.Lon
			sumY += r.corners[node].newNode.Lat
		}
		meanX := sumX / float64(len(w.nodes))
		meanY := sumY / float64(len(w.nodes))

		for _, node := range w.nodes {
			c := r.corners[node]
			if w.axis == 1 {
				c.newNode = Point{c.newNode.Lon, meanY}
			} else {
				c.newNode = Point{meanX, c.newNode.Lat}
			}
		}
	}

	for _, c := range r.corners {
		back := RotatePoint(pivot, -avgBearing, c.newNode)
		c.newNode = Point{roundCoord(back.Lon), roundCoord(back.Lat)}
	}

	// All-or-nothing acceptance: reject the whole group if any vertex
	// moved too far.
	relocated := 0.0
	for _, building := range group {
		for _, ring := range building.Polygon {
			for _, node := range ring {
				if c, found := r.corners[node]; found {
					relocated = math.Max(relocated, Distance(node, c.newNode))
				}
			}
		}
	}

	if relocated >= r.config.RectifyMargin {
		test.Diag("DEBUG_NORECTIFY", fmt.Sprintf("Node relocated %.1f m", relocated))
		for _, building := range group {
			building.Status = StatusIrreconcilable
			r.countNotRectify++
		}
		return
	}

	for _, building := range group {
		relocated = 0.0
		for p, ring := range building.Polygon {
			newRing := make(LinearRing, 0, len(ring))
			for _, node := range ring {
				if c, found := r.corners[node]; found {
					newRing = append(newRing, c.newNode)
					relocated = math.Max(relocated, Distance(node, c.newNode))
				}
			}
			if len(newRing) > 0 && newRing[0] != newRing[len(newRing)-1] {
				newRing = append(newRing, newRing[0]) // first or last node was removed
			}
			building.Polygon[p] = newRing
		}

		building.Status = StatusRectified
		building.Diag("DEBUG_RECTIFY", fmt.Sprintf("%.2f", relocated))
		r.countRectify++

		if relocated > 0.5*r.config.RectifyMargin {
			building.Diag("VERIFY_RECTIFY", fmt.Sprintf("%.1f", relocated))
		}
	}
}

// decomposeRing - walk one polygon ring and cut it into walls separated by
// (almost) 90 degree corners. Returns the wall indexes of the patch, or
// ok=false when the ring is too irregular to rectify.
func (r *rectifier) decomposeRing(building *Building, ring LinearRing) ([]int, bool) {
	if len(ring) < 5 || ring[0] != ring[len(ring)-1] {
		building.Diag("DEBUG_NORECTIFY", fmt.Sprintf("No, only %d walls", len(ring)))
		return nil, false
	}

	var patch []int
	current := r.newWall()
	countCorners := 0
	conform := true
	lastCorner := ring[len(ring)-2] // wrap polygon for first test

	for i := 0; i < len(ring)-1; i++ {
		turn := BearingTurn(lastCorner, ring[i], ring[i+1])
		wallLength := Distance(ring[i], ring[i+1])
		shortLength := math.Min(Distance(lastCorner, ring[i]), wallLength)

		followTurn := BearingTurn(ring[i], ring[i+1], ring[(i+2)%(len(ring)-1)])

		switch {
		// Remove short wall on an (almost) straight line.
		case wallLength < r.config.ShortMargin &&
			math.Abs(turn+followTurn) < r.config.AngleMargin &&
			r.nodes[ring[i]].use == 1:

			r.updateCorner(-1, ring[i], 0)
			building.Diag("VERIFY_SHORT_REMOVE", fmt.Sprintf("%.2f", wallLength))

		// (Almost) 90 degree corner: close the current wall, start a new one.
		case 90-r.config.AngleMargin < math.Abs(turn) && math.Abs(turn) < 90+r.config.AngleMargin ||
			shortLength < r.config.CornerMargin && 60 < math.Abs(turn) && math.Abs(turn) < 120 &&
				r.nodes[ring[i]].use == 1:

			r.updateCorner(current, ring[i], 1)
			patch = append(patch, current)

			if shortLength < 1 && !(90-r.config.AngleMargin < math.Abs(turn) && math.Abs(turn) < 90+r.config.AngleMargin) {
				building.Diag("VERIFY_SHORT_CORNER", fmt.Sprintf("%.1f", math.Abs(turn)))
			}

			current = r.newWall()
			r.updateCorner(current, ring[i], 1)
			lastCorner = ring[i]
			countCorners++

		// Anything else than an (almost) straight wall cannot be rectified.
		case math.Abs(turn) > r.config.AngleMargin:
			building.Diag("DEBUG_NORECTIFY", fmt.Sprintf("No, %.0f degree angle", turn))
			conform = false
			lastCorner = ring[i]

		// Keep node when used by another building or patch.
		case r.nodes[ring[i]].use > 1:
			r.updateCorner(current, ring[i], 0)
			lastCorner = ring[i]

		// Redundant node on an (almost) straight line.
		default:
			r.updateCorner(-1, ring[i], 0)
		}
	}

	if !conform {
		return nil, false
	}

	if countCorners%2 == 1 || len(patch) == 0 { // walls must close into an even-sided loop
		building.Diag("DEBUG_NORECTIFY", fmt.Sprintf("No, odd number %d", countCorners))
		return nil, false
	}

	// Wrap the trailing wall fragment onto the first wall of the patch.
	// The fragment itself is retired; only patch members take part in
	// axis assignment and alignment.
	trailing := r.walls[current]
	first := r.walls[patch[0]]
	first.nodes = append(append([]Point{}, trailing.nodes...), first.nodes...)
	for _, node := range trailing.nodes {
		c := r.corners[node]
		c.walls = removeLastIndex(c.walls, current)
		if !containsIndex(c.walls, patch[0]) {
			c.walls = append(c.walls, patch[0])
		}
	}
	trailing.nodes = nil

	return patch, true
}

func (r *rectifier) newWall() int {
	r.walls = append(r.walls, &wall{})
	return len(r.walls) - 1
}

// updateCorner - register a vertex, and when wallIndex >= 0 append it to
// that wall and record the wall at the corner.
func (r *rectifier) updateCorner(wallIndex int, node Point, used int) {
	c := r.corners[node]
	if c == nil {
		c = &corner{}
		r.corners[node] = c
	}
	if wallIndex >= 0 {
		w := r.walls[wallIndex]
		w.nodes = append(w.nodes, node)
		c.used += used
		c.walls = append(c.walls, wallIndex)
	}
}

// assignAxes - give every wall an alternating axis anchored to a group
// wide reference bearing, and fold wall bearings into one 0-180 space.
// The reference starts at 90 degrees and follows the running median as
// patches confirm it, which keeps axes consistent across the group.
func (r *rectifier) assignAxes(patchWalls [][]int) []float64 {
	var bearings []float64
	groupBearing := 90.0
	groupAxis := 1

	for _, patch := range patchWalls {
		startAxis := -1

		for i, wallIndex := range patch {
			w := r.walls[wallIndex]
			wallBearing := Bearing(w.nodes[0], w.nodes[len(w.nodes)-1])

			if startAxis < 0 {
				diff := math.Mod(wallBearing-groupBearing+180, 180)
				if diff > 90 {
					diff -= 180
				}

				if math.Abs(diff) < 45 && groupAxis == 0 {
					startAxis = groupAxis
				} else {
					startAxis = 1 - groupAxis
				}

				if len(bearings) == 0 {
					groupAxis = startAxis
				}
			}

			w.axis = (i + startAxis) % 2

			if w.axis == 0 {
				wallBearing = math.Mod(wallBearing, 180)
			} else {
				wallBearing = math.Mod(wallBearing+90, 180) // turn y axis 90 degrees
			}

			w.bearing = wallBearing
			bearings = append(bearings, wallBearing)
		}

		groupBearing = medianLow(bearings)
	}

	return bearings
}

// combineWalls - walls on the same axis that are transitively connected
// through shared corners are aligned together: the first wall of each
// component absorbs the member vertices of the rest.
func (r *rectifier) combineWalls() {
	combined := make([]bool, len(r.walls))

	for wallIndex := range r.walls {
		if combined[wallIndex] || len(r.walls[wallIndex].nodes) == 0 {
			continue
		}
		axis := r.walls[wallIndex].axis

		var component []int
		queue := []int{wallIndex}
		visited := map[int]bool{wallIndex: true}

		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]
			if r.walls[current].axis != axis {
				continue
			}
			for _, node := range r.walls[current].nodes {
				for _, next := range r.corners[node].walls {
					if r.walls[next].axis == axis && !visited[next] {
						visited[next] = true
						queue = append(queue, next)
					}
				}
			}
			component = append(component, current)
		}

		if len(component) < 2 {
			continue
		}

		main := r.walls[component[0]]
		for _, other := range component {
			combined[other] = true
			if other == component[0] {
				continue
			}
			for _, node := range r.walls[other].nodes {
				if !containsPoint(main.nodes, node) {
					main.nodes = append(main.nodes, node)
				}
			}
		}
	}
}

// medianLow - lower median, resistant to bearing outliers.
func medianLow(values []float64) float64 {
	sorted := append([]float64{}, values...)
	sort.Float64s(sorted)
	return sorted[(len(sorted)-1)/2]
}

func roundCoord(v float64) float64 {
	factor := math.Pow(10, coordinateDecimals)
	return math.Round(v*factor) / factor
}

func minFloat(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxFloat(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func containsBuilding(list []*Building, b *Building) bool {
	for _, member := range list {
		if member == b {
			return true
		}
	}
	return false
}

func containsPoint(list []Point, p Point) bool {
	for _, member := range list {
		if member == p {
			return true
		}
	}
	return false
}

func containsIndex(list []int, index int) bool {
	for _, member := range list {
		if member == index {
			return true
		}
	}
	return false
}

func removePoint(list []Point, p Point) []Point {
	for i, member := range list {
		if member == p {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

func removeLastIndex(list []int, index int) []int {
	for i := len(list) - 1; i >= 0; i-- {
		if list[i] == index {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
