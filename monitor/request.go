package monitor

import (
	"sync"

	"github.com/google/uuid"

	"github.com/signalsfoundry/locationkit/model"
)

// Kind tags the variant of a Request. Dispatch switches on the tag rather
// than narrowing through interface type assertions.
type Kind int

const (
	KindRegionMonitoring Kind = iota
	KindBeaconRanging
)

func (k Kind) String() string {
	if k == KindBeaconRanging {
		return "beacon_ranging"
	}
	return "region_monitoring"
}

// Request is a single monitoring or ranging subscription tracked by a
// Manager. Requests are created through Manager.MonitorRegion and
// Manager.RangeBeacons; the zero value is not usable.
type Request struct {
	id     uuid.UUID
	kind   Kind
	region model.Region
	beacon model.BeaconRegion

	mgr *Manager

	onRegionEvent func(model.RegionEvent)
	onBeacons     func([]model.BeaconReading)
	onError       func(error)

	mu         sync.Mutex
	state      State
	err        error
	onAuthMove func(model.ServiceState)
}

func newRegionRequest(m *Manager, region model.Region, onEvent func(model.RegionEvent), onError func(error)) *Request {
	r := &Request{
		id:            uuid.New(),
		kind:          KindRegionMonitoring,
		region:        region,
		mgr:           m,
		onRegionEvent: onEvent,
		onError:       onError,
		state:         StatePending,
	}
	if r.region.ID == "" {
		r.region.ID = r.id.String()
	}
	return r
}

func newBeaconRequest(m *Manager, region model.BeaconRegion, onBeacons func([]model.BeaconReading), onError func(error)) *Request {
	r := &Request{
		id:        uuid.New(),
		kind:      KindBeaconRanging,
		beacon:    region,
		mgr:       m,
		onBeacons: onBeacons,
		onError:   onError,
		state:     StatePending,
	}
	if r.beacon.ID == "" {
		r.beacon.ID = r.id.String()
	}
	return r
}

// ID returns the request's unique identifier.
func (r *Request) ID() string { return r.id.String() }

// Kind returns the request variant.
func (r *Request) Kind() Kind { return r.kind }

// Region returns the monitored region. Meaningful for
// KindRegionMonitoring requests.
func (r *Request) Region() model.Region { return r.region }

// BeaconRegion returns the ranged beacon region. Meaningful for
// KindBeaconRanging requests.
func (r *Request) BeaconRegion() model.BeaconRegion { return r.beacon }

// State returns the current lifecycle state.
func (r *Request) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Err returns the error the request was cancelled with, if any.
func (r *Request) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// OnAuthorizationChange registers an informational callback invoked when
// the platform authorization state changes. Set it before the request is
// added to a manager.
func (r *Request) OnAuthorizationChange(fn func(model.ServiceState)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onAuthMove = fn
}

// Pause stops platform monitoring but keeps the request tracked so it can
// be resumed. Reports whether the request was running.
func (r *Request) Pause() bool { return r.mgr.pause(r) }

// Resume restarts a paused request, possibly waiting on authorization
// again. Reports whether a restart was initiated.
func (r *Request) Resume() bool { return r.mgr.resume(r) }

// Cancel removes the request from its manager. Equivalent to
// Manager.Remove with no error.
func (r *Request) Cancel() bool { return r.mgr.Remove(r, nil) }

// regionID is the identifier used to correlate platform events.
func (r *Request) regionID() string {
	if r.kind == KindBeaconRanging {
		return r.beacon.ID
	}
	return r.region.ID
}

// setState moves the request to s unless it is already cancelled.
// Reports whether the transition happened.
func (r *Request) setState(s State) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateCancelled {
		return false
	}
	r.state = s
	return true
}

// cancel moves the request to its terminal state, recording cause.
// The first cancellation wins.
func (r *Request) cancel(cause error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateCancelled {
		return
	}
	r.state = StateCancelled
	r.err = cause
}

func (r *Request) notifyError(err error) {
	if r.onError != nil {
		r.onError(err)
	}
}

func (r *Request) notifyAuthChange(s model.ServiceState) {
	r.mu.Lock()
	fn := r.onAuthMove
	r.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}
