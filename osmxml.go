package main

import (
	"encoding/xml"
	"log"
	"os"
	"sort"
)

type xmlTag struct {
	K string `xml:"k,attr"`
	V string `xml:"v,attr"`
}

type xmlNd struct {
	Ref int64 `xml:"ref,attr"`
}

type xmlMember struct {
	Type string `xml:"type,attr"`
	Ref  int64  `xml:"ref,attr"`
	Role string `xml:"role,attr"`
}

type xmlNode struct {
	ID      int64    `xml:"id,attr"`
	Version int32    `xml:"version,attr,omitempty"`
	Lat     float64  `xml:"lat,attr"`
	Lon     float64  `xml:"lon,attr"`
	Action  string   `xml:"action,attr,omitempty"`
	Visible string   `xml:"visible,attr,omitempty"`
	Tags    []xmlTag `xml:"tag"`
}

type xmlWay struct {
	ID      int64    `xml:"id,attr"`
	Version int32    `xml:"version,attr,omitempty"`
	Action  string   `xml:"action,attr,omitempty"`
	Visible string   `xml:"visible,attr,omitempty"`
	Nds     []xmlNd  `xml:"nd"`
	Tags    []xmlTag `xml:"tag"`
}

type xmlRelation struct {
	ID      int64       `xml:"id,attr"`
	Action  string      `xml:"action,attr,omitempty"`
	Visible string      `xml:"visible,attr,omitempty"`
	Members []xmlMember `xml:"member"`
	Tags    []xmlTag    `xml:"tag"`
}

type xmlRoot struct {
	XMLName   xml.Name      `xml:"osm"`
	Version   string        `xml:"version,attr"`
	Generator string        `xml:"generator,attr"`
	Upload    string        `xml:"upload,attr"`
	Nodes     []xmlNode     `xml:"node"`
	Ways      []xmlWay      `xml:"way"`
	Relations []xmlRelation `xml:"relation"`
}

// osmWriter - accumulates change-file elements. New nodes get negative
// ids, starting at -1000; a coordinate already emitted is reused so
// adjoining buildings share their common nodes in the output too.
type osmWriter struct {
	nextID      int64
	importNodes map[Point]int64
	usage       map[int64]int // remaining references per existing node
	source      *PBFSource
	debug       bool

	root xmlRoot
}

// WriteOSMChange - serialize a conflation result as an OSM XML change
// file: merged buildings modify their existing way in place, import
// buildings without a match become new ways or multipolygon relations,
// and existing nodes nothing references anymore are deleted.
func WriteOSMChange(path string, result *MatchResult, source *PBFSource, debug bool) error {
	w := &osmWriter{
		nextID:      -1000,
		importNodes: make(map[Point]int64),
		usage:       make(map[int64]int),
		source:      source,
		debug:       debug,
		root: xmlRoot{
			Version:   "0.6",
			Generator: "building2osm",
			Upload:    "false",
		},
	}

	// Reference counts over every existing building way, merged or not,
	// so shared nodes survive as long as any way still needs them.
	for _, pair := range result.Merged {
		w.countRefs(pair.Existing.NodeRefs)
	}
	for _, building := range result.Unmatched {
		w.countRefs(building.NodeRefs)
	}

	for _, pair := range result.Merged {
		w.modifyWay(pair.Existing)
	}
	for _, building := range result.Added {
		w.addBuilding(building)
	}

	data, err := xml.MarshalIndent(&w.root, "", "  ")
	if err != nil {
		return err
	}
	data = append([]byte(xml.Header), data...)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}

	count := len(w.root.Nodes) + len(w.root.Ways) + len(w.root.Relations)
	log.Printf("saved %d elements to %s", count, path)
	return nil
}

func (w *osmWriter) countRefs(refs []int64) {
	for _, ref := range refs {
		w.usage[ref]++
	}
}

// newNodeID - id for an output coordinate, creating the node element on
// first use.
func (w *osmWriter) newNodeID(node Point) int64 {
	if id, found := w.importNodes[node]; found {
		return id
	}
	w.nextID--
	w.importNodes[node] = w.nextID
	w.root.Nodes = append(w.root.Nodes, xmlNode{
		ID:      w.nextID,
		Lat:     node.Lat,
		Lon:     node.Lon,
		Action:  "modify",
		Visible: "true",
	})
	return w.nextID
}

func (w *osmWriter) ringRefs(ring LinearRing) []xmlNd {
	refs := make([]xmlNd, 0, len(ring))
	for _, node := range ring[:len(ring)-1] {
		refs = append(refs, xmlNd{Ref: w.newNodeID(node)})
	}
	refs = append(refs, refs[0]) // close the way
	return refs
}

// modifyWay - replace an existing way's geometry with the merged
// building's, releasing the old nodes.
func (w *osmWriter) modifyWay(building *Building) {
	way := xmlWay{
		ID:      building.WayID,
		Version: building.Version,
		Action:  "modify",
		Visible: "true",
		Nds:     w.ringRefs(building.Polygon[0]),
		Tags:    w.tags(building),
	}
	w.root.Ways = append(w.root.Ways, way)

	for _, ref := range building.NodeRefs {
		w.usage[ref]--
		if w.usage[ref] == 0 && !w.source.Masks.KeepNodes.Has(ref) {
			w.deleteNode(ref)
		}
	}
}

func (w *osmWriter) deleteNode(ref int64) {
	node, version, err := w.source.Node(ref)
	if err != nil {
		log.Println("[warn] cannot delete node, not cached:", ref)
		return
	}
	w.root.Nodes = append(w.root.Nodes, xmlNode{
		ID:      ref,
		Version: version,
		Lat:     node.Lat,
		Lon:     node.Lon,
		Action:  "delete",
		Visible: "true",
	})
}

// addBuilding - a new way, or a multipolygon relation when the polygon
// carries holes or the geometry has several outer rings.
func (w *osmWriter) addBuilding(building *Building) {
	polygons := building.Multipolygon
	if len(polygons) == 0 && len(building.Polygon) > 0 {
		polygons = Multipolygon{building.Polygon}
	}
	if len(polygons) == 0 {
		return
	}

	if len(polygons) == 1 && len(polygons[0]) == 1 {
		w.nextID--
		w.root.Ways = append(w.root.Ways, xmlWay{
			ID:      w.nextID,
			Action:  "modify",
			Visible: "true",
			Nds:     w.ringRefs(polygons[0][0]),
			Tags:    w.tags(building),
		})
		return
	}

	relation := xmlRelation{
		Action:  "modify",
		Visible: "true",
		Tags:    append(w.tags(building), xmlTag{K: "type", V: "multipolygon"}),
	}

	for _, polygon := range polygons {
		for i, ring := range polygon {
			role := "outer"
			if i > 0 {
				role = "inner"
			}
			w.nextID--
			wayID := w.nextID
			w.root.Ways = append(w.root.Ways, xmlWay{
				ID:      wayID,
				Action:  "modify",
				Visible: "true",
				Nds:     w.ringRefs(ring),
			})
			relation.Members = append(relation.Members, xmlMember{Type: "way", Ref: wayID, Role: role})
		}
	}

	w.nextID--
	relation.ID = w.nextID
	w.root.Relations = append(w.root.Relations, relation)
}

func (w *osmWriter) tags(building *Building) []xmlTag {
	keys := make([]string, 0, len(building.Tags))
	for key := range building.Tags {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	tags := make([]xmlTag, 0, len(keys))
	for _, key := range keys {
		if building.Tags[key] != "" {
			tags = append(tags, xmlTag{K: key, V: building.Tags[key]})
		}
	}

	if w.debug {
		diagKeys := make([]string, 0, len(building.Diagnostics))
		for key := range building.Diagnostics {
			diagKeys = append(diagKeys, key)
		}
		sort.Strings(diagKeys)
		for _, key := range diagKeys {
			tags = append(tags, xmlTag{K: key, V: building.Diagnostics[key]})
		}
	}

	return tags
}
