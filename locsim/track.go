package locsim

import (
	"context"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/locationkit/model"
)

// TrackSource produces positions along a simulated track.
type TrackSource interface {
	// Position returns the position at the given simulation time, or
	// false when the track has no fix for it.
	Position(at time.Time) (model.Coordinate, bool)
}

// Waypoint is a time-stamped fix on a scripted track.
type Waypoint struct {
	At  time.Time
	Pos model.Coordinate
}

// Waypoints is a scripted track: the position holds at the most recent
// waypoint. Waypoints must be ordered by time.
type Waypoints []Waypoint

// Position returns the last waypoint at or before the given time, or
// false before the first waypoint.
func (w Waypoints) Position(at time.Time) (model.Coordinate, bool) {
	var pos model.Coordinate
	found := false
	for _, wp := range w {
		if wp.At.After(at) {
			break
		}
		pos = wp.Pos
		found = true
	}
	return pos, found
}

// GroundTrack propagates a satellite from TLE lines with SGP4 and
// projects its subsatellite point, yielding a fast-moving track that
// sweeps across geofences. Useful for demos.
type GroundTrack struct {
	sat satellite.Satellite
}

// NewGroundTrack constructs a ground track from two TLE lines.
func NewGroundTrack(tle1, tle2 string) *GroundTrack {
	return &GroundTrack{sat: satellite.TLEToSat(tle1, tle2, satellite.GravityWGS72)}
}

// Position returns the subsatellite latitude/longitude at the given time.
func (g *GroundTrack) Position(at time.Time) (model.Coordinate, bool) {
	at = at.UTC()
	year, month, day := at.Date()
	hour, min, sec := at.Clock()

	posECI, _ := satellite.Propagate(g.sat, year, int(month), day, hour, min, sec)
	jd := satellite.JDay(year, int(month), day, hour, min, sec)
	gmst := satellite.ThetaG_JD(jd)
	_, _, ll := satellite.ECIToLLA(posECI, gmst)
	deg := satellite.LatLongDeg(ll)

	c := model.Coordinate{Lat: deg.Latitude, Lon: normalizeLon(deg.Longitude)}
	if !c.Valid() {
		return model.Coordinate{}, false
	}
	return c, true
}

func normalizeLon(lon float64) float64 {
	for lon > 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return lon
}

// Drive steps simulated time from start in fixed increments, feeding each
// track fix into the simulator. It stops after ticks steps or when ctx is
// done. Events are emitted synchronously on the calling goroutine, which
// preserves the serialized delegate contract.
func Drive(ctx context.Context, sim *Simulator, src TrackSource, start time.Time, step time.Duration, ticks int) {
	at := start
	for i := 0; i < ticks; i++ {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if pos, ok := src.Position(at); ok {
			sim.SetPosition(pos)
		}
		at = at.Add(step)
	}
}
