// geofence-sim drives the locationkit manager against the simulated
// platform service: it registers circular geofences, replays a position
// track (an SGP4 satellite ground track by default, or a scripted walk),
// and logs every boundary crossing.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/signalsfoundry/locationkit/internal/logging"
	"github.com/signalsfoundry/locationkit/internal/observability"
	"github.com/signalsfoundry/locationkit/locsim"
	"github.com/signalsfoundry/locationkit/model"
	"github.com/signalsfoundry/locationkit/monitor"
)

// ISS TLE used when no -tle1/-tle2 is given.
const (
	defaultTLE1 = "1 25544U 98067A   21275.59097222  .00000204  00000-0  10270-4 0  9990"
	defaultTLE2 = "2 25544  51.6459 115.9059 0001817  61.3028  35.9198 15.49370953257760"
)

// regionList collects repeatable -region flags of the form
// "lat,lon,radiusM".
type regionList []model.Region

func (r *regionList) String() string {
	parts := make([]string, 0, len(*r))
	for _, reg := range *r {
		parts = append(parts, fmt.Sprintf("%s,%g", reg.Center, reg.RadiusM))
	}
	return strings.Join(parts, ";")
}

func (r *regionList) Set(value string) error {
	region, err := parseRegion(value)
	if err != nil {
		return err
	}
	*r = append(*r, region)
	return nil
}

func parseRegion(value string) (model.Region, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 3 {
		return model.Region{}, fmt.Errorf("region %q: want lat,lon,radiusM", value)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return model.Region{}, fmt.Errorf("region latitude %q: %w", parts[0], err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return model.Region{}, fmt.Errorf("region longitude %q: %w", parts[1], err)
	}
	radius, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		return model.Region{}, fmt.Errorf("region radius %q: %w", parts[2], err)
	}
	region := model.Region{Center: model.Coordinate{Lat: lat, Lon: lon}, RadiusM: radius}
	if !region.Center.Valid() || region.RadiusM <= 0 {
		return model.Region{}, fmt.Errorf("region %q out of bounds", value)
	}
	return region, nil
}

func main() {
	var regions regionList
	flag.Var(&regions, "region", "geofence as lat,lon,radiusM (repeatable)")
	tick := flag.Duration("tick", 10*time.Second, "simulated time per step")
	ticks := flag.Int("ticks", 540, "number of steps to simulate")
	tle1 := flag.String("tle1", defaultTLE1, "TLE line 1 for the satellite ground track")
	tle2 := flag.String("tle2", defaultTLE2, "TLE line 2 for the satellite ground track")
	walk := flag.Bool("walk", false, "use a short scripted walk instead of the satellite track")
	metricsAddr := flag.String("metrics-addr", "", "serve Prometheus metrics on this address (empty = disabled)")
	flag.Parse()

	ctx := context.Background()
	log := logging.NewFromEnv()

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "init tracing", logging.Err(err))
		return
	}
	defer observability.ShutdownWithTimeout(ctx, shutdown, log)

	collector, err := observability.NewMonitorCollector(nil)
	if err != nil {
		log.Error(ctx, "init metrics", logging.Err(err))
		return
	}
	if *metricsAddr != "" {
		go func() {
			if err := http.ListenAndServe(*metricsAddr, collector.Handler()); err != nil {
				log.Error(ctx, "metrics server stopped", logging.Err(err))
			}
		}()
	}

	sim := locsim.New(locsim.Config{Log: log, Policy: locsim.AuthAutoGrant})
	mgr, err := monitor.New(sim,
		monitor.WithLogger(log),
		monitor.WithUsageLevel(model.UsageAlways),
		monitor.WithMetrics(collector),
	)
	if err != nil {
		log.Error(ctx, "construct manager", logging.Err(err))
		return
	}
	mgr.CleanAllMonitoredRegions()

	if len(regions) == 0 {
		// A wide geofence on the equator that the default ISS track crosses.
		regions = regionList{{Center: model.Coordinate{Lat: 0, Lon: 0}, RadiusM: 500_000}}
	}

	entered, exited := 0, 0
	for _, region := range regions {
		region := region
		_, err := mgr.MonitorRegion(region.Center, region.RadiusM,
			func(ev model.RegionEvent) {
				if ev.Kind == model.RegionEntered {
					entered++
				} else {
					exited++
				}
				log.Info(ctx, "region event",
					logging.String("region_id", ev.RegionID),
					logging.String("kind", ev.Kind.String()),
					logging.String("center", region.Center.String()),
				)
			},
			func(err error) {
				log.Error(ctx, "monitoring failed", logging.Err(err))
			},
		)
		if err != nil {
			log.Error(ctx, "monitor region", logging.Err(err))
			return
		}
	}

	var src locsim.TrackSource
	start := time.Now().UTC()
	if *walk {
		src = walkThrough(regions[0], start, *tick)
	} else {
		src = locsim.NewGroundTrack(*tle1, *tle2)
	}

	locsim.Drive(ctx, sim, src, start, *tick, *ticks)

	log.Info(ctx, "simulation finished",
		logging.Int("regions", len(regions)),
		logging.Int("entered", entered),
		logging.Int("exited", exited),
		logging.Duration("simulated", time.Duration(*ticks)*(*tick)),
	)
}

// walkThrough scripts a three-point walk: outside the region, at its
// center, and outside again.
func walkThrough(region model.Region, start time.Time, tick time.Duration) locsim.Waypoints {
	// Offset well past the radius; 1 degree of latitude is ~111 km.
	offset := region.RadiusM/111_000 + 1
	return locsim.Waypoints{
		{At: start, Pos: model.Coordinate{Lat: region.Center.Lat + offset, Lon: region.Center.Lon}},
		{At: start.Add(tick), Pos: region.Center},
		{At: start.Add(2 * tick), Pos: model.Coordinate{Lat: region.Center.Lat - offset, Lon: region.Center.Lon}},
	}
}
