package model

import "time"

// RegionEventKind distinguishes boundary-crossing directions.
type RegionEventKind int

const (
	RegionEntered RegionEventKind = iota
	RegionExited
)

func (k RegionEventKind) String() string {
	if k == RegionExited {
		return "exited"
	}
	return "entered"
}

// RegionEvent is a boundary-crossing notification dispatched to the
// request that monitors RegionID.
type RegionEvent struct {
	RegionID string
	Kind     RegionEventKind
	At       time.Time
}
