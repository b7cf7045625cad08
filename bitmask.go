package main

import "github.com/tmthrgd/go-popcount"

// Bitmask - compact membership set for OSM element ids, backed by a map
// of 64 bit blocks. The loader uses masks to remember which ways carry
// buildings, which ways belong to boundary relations, and which nodes
// must survive because a non-building way still references them.
type Bitmask struct {
	I map[uint64]uint64
}

// NewBitmask - constructor
func NewBitmask() *Bitmask {
	return &Bitmask{I: make(map[uint64]uint64)}
}

// Has - membership test
func (b *Bitmask) Has(val int64) bool {
	v := uint64(val)
	return (b.I[v/64] & (1 << (v % 64))) != 0
}

// Insert - add an id to the mask
func (b *Bitmask) Insert(val int64) {
	v := uint64(val)
	b.I[v/64] |= 1 << (v % 64)
}

// Len - total ids in the mask (not performant, debug stats only)
func (b *Bitmask) Len() uint64 {
	var l uint64
	for _, v := range b.I {
		l += popcount.CountSlice64([]uint64{v})
	}
	return l
}
