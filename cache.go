package main

import (
	"fmt"
	"log"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// The node cache holds every node coordinate of the extract in leveldb so
// ways and relations can be denormalized without keeping the whole node
// table in memory.

// CacheQueueNode - queue a node coordinate and version write in a batch
func CacheQueueNode(batch *leveldb.Batch, id int64, p Point, version int32) {
	key, val := nodeToBytes(id, p, version)
	batch.Put([]byte(key), val)
}

// CacheQueueWay - queue a way's node references in a batch
func CacheQueueWay(batch *leveldb.Batch, id int64, nodeIDs []int64) {
	key, val := wayToBytes(id, nodeIDs)
	batch.Put([]byte(key), val)
}

// CacheFlush - flush a leveldb batch to database and reset it
func CacheFlush(db *leveldb.DB, batch *leveldb.Batch, sync bool) error {
	writeOpts := &opt.WriteOptions{
		NoWriteMerge: true,
		Sync:         sync,
	}
	if err := db.Write(batch, writeOpts); err != nil {
		return err
	}
	batch.Reset()
	return nil
}

// CacheLookupNode - coordinate and version of one node id
func CacheLookupNode(db *leveldb.DB, id int64) (Point, int32, error) {
	data, err := db.Get([]byte(nodeKey(id)), nil)
	if err != nil {
		log.Println("[warn] fetch failed for node:", id)
		return Point{}, 0, err
	}
	return bytesToPoint(data), bytesToVersion(data), nil
}

// CacheLookupWayNodes - denormalize a way into its coordinates
func CacheLookupWayNodes(db *leveldb.DB, wayID int64, nodeIDs []int64) (LinearRing, error) {
	line := make(LinearRing, 0, len(nodeIDs))
	for _, nodeID := range nodeIDs {
		point, _, err := CacheLookupNode(db, nodeID)
		if err != nil {
			return nil, fmt.Errorf("denormalize failed for way %d: node %d not found", wayID, nodeID)
		}
		line = append(line, point)
	}
	return line, nil
}

// CacheLookupWay - fetch a cached way and resolve it to a Way record
func CacheLookupWay(db *leveldb.DB, wayID int64) (*Way, error) {
	data, err := db.Get([]byte(wayKey(wayID)), nil)
	if err != nil {
		log.Println("[warn] lookup failed for way:", wayID)
		return nil, err
	}
	return &Way{ID: wayID, Nodes: bytesToIDSlice(data)}, nil
}
