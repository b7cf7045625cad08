package main

// BitmaskMap - the masks one PBF load pass accumulates.
type BitmaskMap struct {
	BuildingWays *Bitmask // ways tagged building=*
	MemberWays   *Bitmask // ways that are members of any relation
	KeepNodes    *Bitmask // nodes referenced outside building ways or carrying tags, never deleted
}

// NewBitmaskMap - constructor
func NewBitmaskMap() *BitmaskMap {
	return &BitmaskMap{
		BuildingWays: NewBitmask(),
		MemberWays:   NewBitmask(),
		KeepNodes:    NewBitmask(),
	}
}
