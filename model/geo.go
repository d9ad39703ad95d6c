package model

import (
	"fmt"
	"math"
)

// EarthRadiusM is the mean Earth radius in metres used for great-circle
// distance calculations.
const EarthRadiusM = 6371000.0

// Coordinate is a geographic position in degrees.
type Coordinate struct {
	Lat float64
	Lon float64
}

// DistanceM returns the great-circle distance to other in metres
// (haversine formula over the mean Earth radius).
func (c Coordinate) DistanceM(other Coordinate) float64 {
	lat1 := c.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dLat := (other.Lat - c.Lat) * math.Pi / 180
	dLon := (other.Lon - c.Lon) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusM * math.Asin(math.Min(1, math.Sqrt(a)))
}

// Valid reports whether the coordinate lies within the usual
// latitude/longitude bounds.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lon)
}

// Region is a circular geofence on the Earth's surface.
type Region struct {
	// ID correlates platform boundary events back to the request that
	// registered the region. The manager fills it with the request ID
	// when the caller leaves it empty.
	ID      string
	Center  Coordinate
	RadiusM float64
}

// Contains reports whether pos lies inside the region (boundary inclusive).
func (r Region) Contains(pos Coordinate) bool {
	return r.Center.DistanceM(pos) <= r.RadiusM
}
