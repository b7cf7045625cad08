package main

import (
	"fmt"
	"sort"
)

// Way is a directed line fragment: an ordered list of node references.
// The recorded direction may need reversing during ring assembly.
type Way struct {
	ID    int64
	Nodes []int64
	Tags  map[string]string
}

// connections - map from terminal node id to the set of ways incident there.
// Only the first and last node of each way count as terminals.
func connections(ways []*Way) map[int64]map[int64]bool {
	endNodes := make(map[int64]map[int64]bool)
	for _, way := range ways {
		for _, i := range []int{0, len(way.Nodes) - 1} {
			endNode := way.Nodes[i]
			if endNodes[endNode] == nil {
				endNodes[endNode] = make(map[int64]bool)
			}
			endNodes[endNode][way.ID] = true
		}
	}
	return endNodes
}

// AssembleRings - reconstruct closed rings from an unordered set of ways
// so that every way is used exactly once. Ways are reversed in place when
// their recorded direction does not continue the ring.
//
// When more than one unused way is incident to a node the lowest way id
// wins. For self-touching polygons this can produce a different, still
// closed partition of ways into rings.
//
// Returns an error if the ways cannot close into rings (a gap or
// non-planar fragment graph); no repair is attempted.
func AssembleRings(ways []*Way) ([][]int64, error) {
	if len(ways) == 0 {
		return nil, fmt.Errorf("no ways to assemble")
	}

	endNodes := connections(ways)

	unused := make(map[int64]*Way, len(ways))
	for _, way := range ways {
		unused[way.ID] = way
	}

	currentWay := ways[0]
	currentRing := []int64{currentWay.Nodes[0]}
	rings := [][]int64{}

	for range ways {
		currentRing = append(currentRing, currentWay.Nodes[1:]...)
		lastNode := currentRing[len(currentRing)-1]

		delete(unused, currentWay.ID)

		if currentRing[0] != lastNode {
			connectedWay, err := nextConnected(endNodes[lastNode], unused, currentWay.ID)
			if err != nil {
				return nil, err
			}
			if connectedWay.Nodes[len(connectedWay.Nodes)-1] == lastNode {
				reverseNodes(connectedWay.Nodes)
			}
			currentWay = connectedWay

		} else {
			rings = append(rings, currentRing)
			if len(unused) > 0 {
				currentWay = lowestIDWay(unused)
				currentRing = []int64{currentWay.Nodes[0]}
			}
		}
	}

	if currentRing[0] != currentRing[len(currentRing)-1] {
		return nil, fmt.Errorf("invalid polygon - ring not closed")
	}

	return rings, nil
}

// nextConnected - pick the unused way continuing from the given node.
// Deterministic: lowest way id when the topology branches.
func nextConnected(incident map[int64]bool, unused map[int64]*Way, currentID int64) (*Way, error) {
	var candidates []int64
	for wayID := range incident {
		if wayID != currentID && unused[wayID] != nil {
			candidates = append(candidates, wayID)
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("invalid polygon - ring not closed")
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i] < candidates[j] })
	return unused[candidates[0]], nil
}

func lowestIDWay(unused map[int64]*Way) *Way {
	var found *Way
	for _, way := range unused {
		if found == nil || way.ID < found.ID {
			found = way
		}
	}
	return found
}

func reverseNodes(nodes []int64) {
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
}

// AssemblePolygon - assemble outer and inner ways of one boundary relation
// into a Polygon, or a Multipolygon when the outer ways close into more
// than one ring. Node references are resolved through the nodes map.
func AssemblePolygon(outer, inner []*Way, nodes map[int64]Point) (Polygon, Multipolygon, error) {
	outerRings, err := AssembleRings(outer)
	if err != nil {
		return nil, nil, err
	}

	if len(outerRings) > 1 {
		if len(inner) > 0 {
			return nil, nil, fmt.Errorf("multipolygon with inner ways not supported")
		}
		multipolygon := make(Multipolygon, 0, len(outerRings))
		for _, ring := range outerRings {
			coords, err := resolveRing(ring, nodes)
			if err != nil {
				return nil, nil, err
			}
			multipolygon = append(multipolygon, Polygon{coords})
		}
		return nil, multipolygon, nil
	}

	coords, err := resolveRing(outerRings[0], nodes)
	if err != nil {
		return nil, nil, err
	}
	polygon := Polygon{coords}

	if len(inner) > 0 {
		innerRings, err := AssembleRings(inner)
		if err != nil {
			return nil, nil, err
		}
		for _, ring := range innerRings {
			coords, err := resolveRing(ring, nodes)
			if err != nil {
				return nil, nil, err
			}
			polygon = append(polygon, coords)
		}
	}

	return polygon, nil, nil
}

func resolveRing(ring []int64, nodes map[int64]Point) (LinearRing, error) {
	coords := make(LinearRing, 0, len(ring))
	for _, nodeID := range ring {
		node, found := nodes[nodeID]
		if !found {
			return nil, fmt.Errorf("node %d not found", nodeID)
		}
		coords = append(coords, node)
	}
	return coords, nil
}
