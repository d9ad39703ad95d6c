package model

// Proximity is the coarse distance band reported for a ranged beacon.
type Proximity int

const (
	ProximityUnknown Proximity = iota
	ProximityImmediate
	ProximityNear
	ProximityFar
)

func (p Proximity) String() string {
	switch p {
	case ProximityImmediate:
		return "immediate"
	case ProximityNear:
		return "near"
	case ProximityFar:
		return "far"
	default:
		return "unknown"
	}
}

// BeaconRegion identifies a family of beacons to range. Major and Minor
// narrow the family when non-nil; nil matches any value.
type BeaconRegion struct {
	// ID correlates platform ranging events back to the request that
	// registered the region, like Region.ID.
	ID            string
	ProximityUUID string
	Major         *uint16
	Minor         *uint16
}

// BeaconReading is a single ranged-beacon observation.
type BeaconReading struct {
	ProximityUUID string
	Major         uint16
	Minor         uint16
	Proximity     Proximity
	// AccuracyM is the one-sigma horizontal accuracy in metres; negative
	// when the platform could not estimate it.
	AccuracyM float64
	RSSI      int
}
