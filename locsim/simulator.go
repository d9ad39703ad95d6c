// Package locsim is a simulated platform location service. It implements
// platform.Service for tests and demos: callers script a position track,
// authorization outcomes, and failures, and the simulator emits the same
// delegate events a real platform would.
package locsim

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/signalsfoundry/locationkit/internal/logging"
	"github.com/signalsfoundry/locationkit/model"
	"github.com/signalsfoundry/locationkit/platform"
)

// AuthPolicy controls how the simulator answers authorization prompts.
type AuthPolicy int

const (
	// AuthManual holds the prompt until ResolveAuthorization is called.
	AuthManual AuthPolicy = iota
	// AuthAutoGrant grants the requested level immediately.
	AuthAutoGrant
	// AuthAutoDeny denies immediately.
	AuthAutoDeny
)

// Config controls the simulator's initial capabilities and behaviour.
// The zero value yields a fully capable, enabled service with manual
// authorization resolution.
type Config struct {
	Log    logging.Logger
	Policy AuthPolicy

	DisableMonitoring bool
	DisableRanging    bool
	ServicesDisabled  bool

	InitialStatus model.AuthorizationStatus
}

// Simulator is an in-memory platform.Service. All delegate callbacks are
// emitted outside the internal lock and from the caller's goroutine, so
// event delivery is serialized exactly like a platform delegate queue.
type Simulator struct {
	log logging.Logger

	mu       sync.Mutex
	delegate platform.Delegate

	monitoringOK bool
	rangingOK    bool
	enabled      bool
	auth         model.AuthorizationStatus
	policy       AuthPolicy
	prompted     bool

	regions map[string]model.Region
	inside  map[string]bool
	ranged  map[string]model.BeaconRegion

	pos    model.Coordinate
	hasFix bool
}

var _ platform.Service = (*Simulator)(nil)

// New constructs a simulator from cfg.
func New(cfg Config) *Simulator {
	log := cfg.Log
	if log == nil {
		log = logging.Noop()
	}
	return &Simulator{
		log:          log,
		monitoringOK: !cfg.DisableMonitoring,
		rangingOK:    !cfg.DisableRanging,
		enabled:      !cfg.ServicesDisabled,
		auth:         cfg.InitialStatus,
		policy:       cfg.Policy,
		regions:      make(map[string]model.Region),
		inside:       make(map[string]bool),
		ranged:       make(map[string]model.BeaconRegion),
	}
}

//
// ---------- platform.Service ----------
//

func (s *Simulator) MonitoringAvailable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.monitoringOK
}

func (s *Simulator) RangingAvailable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rangingOK
}

func (s *Simulator) ServicesEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

func (s *Simulator) AuthorizationStatus() model.AuthorizationStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.auth
}

func (s *Simulator) SetDelegate(d platform.Delegate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delegate = d
}

// StartMonitoring registers a region. When a position fix already exists
// and lies inside the region, an enter event is emitted immediately, like
// platform geofencing does for regions the device is already in.
func (s *Simulator) StartMonitoring(region model.Region) error {
	s.mu.Lock()
	if !s.monitoringOK {
		s.mu.Unlock()
		return fmt.Errorf("region monitoring unavailable")
	}
	if region.ID == "" {
		s.mu.Unlock()
		return fmt.Errorf("region has no identifier")
	}
	if _, dup := s.regions[region.ID]; dup {
		s.mu.Unlock()
		return fmt.Errorf("region %q already monitored", region.ID)
	}
	s.regions[region.ID] = region

	emitEnter := false
	if s.hasFix && region.Contains(s.pos) {
		s.inside[region.ID] = true
		emitEnter = true
	}
	d := s.delegate
	s.mu.Unlock()

	if emitEnter && d != nil {
		d.DidEnterRegion(region.ID)
	}
	return nil
}

func (s *Simulator) StopMonitoring(regionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.regions, regionID)
	delete(s.inside, regionID)
	return nil
}

func (s *Simulator) MonitoredRegionIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.regions))
	for id := range s.regions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *Simulator) StartRanging(region model.BeaconRegion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.rangingOK {
		return fmt.Errorf("beacon ranging unavailable")
	}
	if region.ID == "" {
		return fmt.Errorf("beacon region has no identifier")
	}
	if _, dup := s.ranged[region.ID]; dup {
		return fmt.Errorf("beacon region %q already ranged", region.ID)
	}
	s.ranged[region.ID] = region
	return nil
}

func (s *Simulator) StopRanging(regionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ranged, regionID)
	return nil
}

// RequestAuthorization resolves the prompt according to the configured
// policy. With AuthManual the prompt stays open until
// ResolveAuthorization.
func (s *Simulator) RequestAuthorization(level model.UsageLevel) {
	s.mu.Lock()
	switch s.policy {
	case AuthAutoGrant:
		if level == model.UsageAlways {
			s.auth = model.AuthorizationAlways
		} else {
			s.auth = model.AuthorizationWhenInUse
		}
	case AuthAutoDeny:
		s.auth = model.AuthorizationDenied
	default:
		s.prompted = true
		s.mu.Unlock()
		s.log.Debug(context.Background(), "authorization prompt held open",
			logging.String("usage", level.String()))
		return
	}
	status := s.auth
	d := s.delegate
	s.mu.Unlock()

	if d != nil {
		d.AuthorizationDidChange(status)
	}
}

//
// ---------- simulation controls ----------
//

// PromptOpen reports whether a manual authorization prompt is pending.
func (s *Simulator) PromptOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompted
}

// ResolveAuthorization settles the authorization state (typically after a
// manual prompt) and notifies the delegate.
func (s *Simulator) ResolveAuthorization(status model.AuthorizationStatus) {
	s.mu.Lock()
	s.auth = status
	s.prompted = false
	d := s.delegate
	s.mu.Unlock()

	if d != nil {
		d.AuthorizationDidChange(status)
	}
}

// SetServicesEnabled flips the system-wide location switch.
func (s *Simulator) SetServicesEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
}

// SetMonitoringAvailable toggles the monitoring capability.
func (s *Simulator) SetMonitoringAvailable(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.monitoringOK = ok
}

// SetRangingAvailable toggles the ranging capability.
func (s *Simulator) SetRangingAvailable(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rangingOK = ok
}

// SetPosition feeds a new position fix and emits enter/exit events for
// every monitored region whose containment changed. The first fix
// establishes the baseline.
func (s *Simulator) SetPosition(pos model.Coordinate) {
	s.mu.Lock()
	s.pos = pos
	s.hasFix = true

	var enters, exits []string
	for id, region := range s.regions {
		inside := region.Contains(pos)
		if inside == s.inside[id] {
			continue
		}
		s.inside[id] = inside
		if inside {
			enters = append(enters, id)
		} else {
			exits = append(exits, id)
		}
	}
	d := s.delegate
	s.mu.Unlock()

	if d == nil {
		return
	}
	sort.Strings(enters)
	sort.Strings(exits)
	for _, id := range enters {
		d.DidEnterRegion(id)
	}
	for _, id := range exits {
		d.DidExitRegion(id)
	}
}

// EmitBeacons forwards ranging readings for a ranged beacon region.
// Readings for unranged regions are dropped.
func (s *Simulator) EmitBeacons(regionID string, readings []model.BeaconReading) {
	s.mu.Lock()
	_, ok := s.ranged[regionID]
	d := s.delegate
	s.mu.Unlock()

	if ok && d != nil {
		d.DidRangeBeacons(regionID, readings)
	}
}

// FailMonitoring injects a monitoring failure for a region and drops it
// from the simulator, mirroring how platforms stop monitoring failed
// regions.
func (s *Simulator) FailMonitoring(regionID string, err error) {
	s.mu.Lock()
	delete(s.regions, regionID)
	delete(s.inside, regionID)
	d := s.delegate
	s.mu.Unlock()

	if d != nil {
		d.MonitoringDidFail(regionID, err)
	}
}

// FailRanging injects a ranging failure for a beacon region.
func (s *Simulator) FailRanging(regionID string, err error) {
	s.mu.Lock()
	delete(s.ranged, regionID)
	d := s.delegate
	s.mu.Unlock()

	if d != nil {
		d.RangingDidFail(regionID, err)
	}
}
