package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"strconv"

	"github.com/qedus/osmpbf"
	"github.com/syndtr/goleveldb/leveldb"
)

const cacheBatchSize = 50000

// PBFSource - decoded contents of one OSM PBF extract: closed building
// ways as Building records, boundary relations assembled into polygons,
// and the masks plus node cache needed for change-file output.
type PBFSource struct {
	Buildings  []*Building
	Boundaries []*Building
	Masks      *BitmaskMap

	db *leveldb.DB
}

// Close - release the node cache
func (s *PBFSource) Close() error {
	return s.db.Close()
}

// Node - coordinate and version of a cached node id
func (s *PBFSource) Node(id int64) (Point, int32, error) {
	return CacheLookupNode(s.db, id)
}

// LoadPBF - decode an OSM PBF extract. Node coordinates and way node
// references are spooled to a leveldb cache so ways and relations can be
// denormalized without holding the node table in memory; building ways
// and boundary relations are materialized once decoding finishes.
func LoadPBF(pbfPath, cachePath string) (*PBFSource, error) {
	file, err := os.Open(pbfPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	db, err := leveldb.OpenFile(cachePath, nil)
	if err != nil {
		return nil, err
	}

	decoder := osmpbf.NewDecoder(file)
	if err := decoder.Start(runtime.GOMAXPROCS(-1)); err != nil {
		db.Close()
		return nil, err
	}

	source := &PBFSource{Masks: NewBitmaskMap(), db: db}
	batch := new(leveldb.Batch)

	var buildingWays []*osmpbf.Way
	var boundaryRelations []*osmpbf.Relation
	var nc, wc, rc uint64

	for {
		v, err := decoder.Decode()
		if err == io.EOF {
			break
		} else if err != nil {
			db.Close()
			return nil, err
		}

		switch v := v.(type) {
		case *osmpbf.Node:
			nc++
			source.scanNode(batch, v)
			if batch.Len() > cacheBatchSize {
				if err := CacheFlush(db, batch, false); err != nil {
					db.Close()
					return nil, err
				}
			}

		case *osmpbf.Way:
			wc++
			CacheQueueWay(batch, v.ID, v.NodeIDs)
			if batch.Len() > cacheBatchSize {
				if err := CacheFlush(db, batch, false); err != nil {
					db.Close()
					return nil, err
				}
			}

			if isBuildingWay(v) {
				source.Masks.BuildingWays.Insert(v.ID)
				buildingWays = append(buildingWays, v)
			} else {
				for _, nodeID := range v.NodeIDs {
					source.Masks.KeepNodes.Insert(nodeID)
				}
			}

		case *osmpbf.Relation:
			rc++
			for _, member := range v.Members {
				if member.Type == osmpbf.WayType {
					source.Masks.MemberWays.Insert(member.ID)
				}
			}
			if isBoundaryRelation(v) {
				boundaryRelations = append(boundaryRelations, v)
			}

		default:
			db.Close()
			return nil, fmt.Errorf("unknown type %T", v)
		}
	}

	if err := CacheFlush(db, batch, true); err != nil {
		db.Close()
		return nil, err
	}

	log.Printf("decoded %d nodes, %d ways, %d relations", nc, wc, rc)
	log.Printf("masks: %d building ways, %d relation member ways, %d protected nodes",
		source.Masks.BuildingWays.Len(), source.Masks.MemberWays.Len(), source.Masks.KeepNodes.Len())

	source.materializeBuildings(buildingWays)
	source.materializeBoundaries(boundaryRelations)

	log.Printf("loaded %d existing buildings, %d boundaries", len(source.Buildings), len(source.Boundaries))
	return source, nil
}

// scanNode - spool a node to the cache. A tagged node, e.g. entrance=yes
// on a building corner, carries data of its own and is protected from
// deletion when a merged way releases it.
func (s *PBFSource) scanNode(batch *leveldb.Batch, node *osmpbf.Node) {
	CacheQueueNode(batch, node.ID, Point{node.Lon, node.Lat}, node.Info.Version)
	if len(node.Tags) > 0 {
		s.Masks.KeepNodes.Insert(node.ID)
	}
}

// building=* ways that are closed rings; relation members are filtered
// out later once the member mask is complete
func isBuildingWay(way *osmpbf.Way) bool {
	if _, found := way.Tags["building"]; !found {
		return false
	}
	if _, found := way.Tags["building:part"]; found {
		return false
	}
	return len(way.NodeIDs) > 2 && way.NodeIDs[0] == way.NodeIDs[len(way.NodeIDs)-1]
}

func isBoundaryRelation(relation *osmpbf.Relation) bool {
	boundary := relation.Tags["boundary"]
	return boundary == "administrative" || boundary == "postal_code" ||
		relation.Tags["type"] == "boundary"
}

func (s *PBFSource) materializeBuildings(ways []*osmpbf.Way) {
	for _, way := range ways {
		if s.Masks.MemberWays.Has(way.ID) {
			// part of a multipolygon or boundary, not a standalone building
			for _, nodeID := range way.NodeIDs {
				s.Masks.KeepNodes.Insert(nodeID)
			}
			continue
		}

		ring, err := CacheLookupWayNodes(s.db, way.ID, way.NodeIDs)
		if err != nil {
			log.Println("[warn]", err)
			continue
		}

		ref := way.Tags["ref:bygningsnr"]
		if ref == "" {
			ref = strconv.FormatInt(way.ID, 10)
		}

		building := &Building{
			Ref:      ref,
			Polygon:  Polygon{ring},
			Tags:     copyTags(way.Tags),
			WayID:    way.ID,
			Version:  way.Info.Version,
			NodeRefs: append([]int64{}, way.NodeIDs...),
		}
		building.UpdateCenter()
		s.Buildings = append(s.Buildings, building)
	}
}

func (s *PBFSource) materializeBoundaries(relations []*osmpbf.Relation) {
	for _, relation := range relations {
		polygon, multipolygon, err := s.assembleRelation(relation)
		if err != nil {
			log.Printf("[warn] skipping relation %d: %v", relation.ID, err)
			continue
		}

		building := &Building{
			Ref:          strconv.FormatInt(relation.ID, 10),
			Polygon:      polygon,
			Multipolygon: multipolygon,
			Tags:         copyTags(relation.Tags),
		}
		if len(polygon) > 0 {
			building.UpdateCenter()
			// area weighted centroid, boundary rings are too irregular
			// for the simple node average
			if centroid, err := PolygonCentroid(polygon[0]); err == nil {
				building.Center = centroid
			}
		}
		s.Boundaries = append(s.Boundaries, building)
	}
}

func (s *PBFSource) assembleRelation(relation *osmpbf.Relation) (Polygon, Multipolygon, error) {
	var outer, inner []*Way

	for _, member := range relation.Members {
		if member.Type != osmpbf.WayType {
			continue
		}
		way, err := CacheLookupWay(s.db, member.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("member way %d not cached", member.ID)
		}
		if member.Role == "inner" {
			inner = append(inner, way)
		} else {
			outer = append(outer, way)
		}
	}

	if len(outer) == 0 {
		return nil, nil, fmt.Errorf("no outer ways")
	}

	// Resolve only the node ids the member ways reference.
	nodes := make(map[int64]Point)
	for _, way := range append(outer[:len(outer):len(outer)], inner...) {
		for _, nodeID := range way.Nodes {
			if _, found := nodes[nodeID]; found {
				continue
			}
			point, _, err := CacheLookupNode(s.db, nodeID)
			if err != nil {
				return nil, nil, fmt.Errorf("node %d not cached", nodeID)
			}
			nodes[nodeID] = point
		}
	}

	return AssemblePolygon(outer, inner, nodes)
}

func copyTags(tags map[string]string) map[string]string {
	copied := make(map[string]string, len(tags))
	for key, value := range tags {
		copied[key] = value
	}
	return copied
}
