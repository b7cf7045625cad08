package main

import (
	"encoding/binary"
	"math"
	"strconv"
)

// nodeToBytes - encode a node id, coordinate and version for the cache.
// Lat/lon are 64 bit floats packed into 8 bytes each, overlapped so the
// coordinates fit in 12 bytes; the version overwrites the lon mantissa
// bits below 8 decimal places of precision, more than the 7 decimals
// kept in output.
func nodeToBytes(id int64, p Point, version int32) (string, []byte) {
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[0:8], math.Float64bits(p.Lat))
	binary.BigEndian.PutUint64(buf[6:14], math.Float64bits(p.Lon))
	binary.BigEndian.PutUint32(buf[12:16], uint32(version))
	return nodeKey(id), buf
}

func nodeKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

// way keys carry a 'W' prefix so they don't collide with node ids
func wayKey(id int64) string {
	return "W" + strconv.FormatInt(id, 10)
}

// bytesToPoint - decode a cached coordinate
func bytesToPoint(data []byte) Point {
	buffer := make([]byte, 8)

	copy(buffer, data[:6])
	lat := math.Float64frombits(binary.BigEndian.Uint64(buffer))

	copy(buffer, data[6:12])
	lon := math.Float64frombits(binary.BigEndian.Uint64(buffer))

	return Point{Lon: lon, Lat: lat}
}

// bytesToVersion - decode a cached node version
func bytesToVersion(data []byte) int32 {
	return int32(binary.BigEndian.Uint32(data[12:16]))
}

// wayToBytes - encode a way's node references, 8 bytes each, under a
// 'W' prefixed key so way ids don't collide with node ids.
func wayToBytes(id int64, nodeIDs []int64) (string, []byte) {
	buf := make([]byte, 8*len(nodeIDs))
	for i, nodeID := range nodeIDs {
		binary.BigEndian.PutUint64(buf[i*8:(i+1)*8], uint64(nodeID))
	}
	return wayKey(id), buf
}

// bytesToIDSlice - decode cached node references
func bytesToIDSlice(data []byte) []int64 {
	ids := make([]int64, len(data)/8)
	for i := range ids {
		ids[i] = int64(binary.BigEndian.Uint64(data[i*8 : (i+1)*8]))
	}
	return ids
}
