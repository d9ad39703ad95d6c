// Package monitor implements the request lifecycle layered on top of a
// platform location service: region-monitoring and beacon-ranging requests,
// their state machine, and authorization mediation.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/locationkit/internal/logging"
	"github.com/signalsfoundry/locationkit/internal/observability"
	"github.com/signalsfoundry/locationkit/model"
	"github.com/signalsfoundry/locationkit/platform"
)

// Manager is the single point of contact with the platform location
// service. It owns the active-request collection, mediates authorization
// prompts, and dispatches platform events to the matching request.
//
// A Manager registers itself as the platform delegate during construction.
// It is safe for concurrent use: delegate callbacks interleave with
// ordinary caller invocations. Construct one explicitly and inject it;
// there is no package-level instance.
type Manager struct {
	svc     platform.Service
	log     logging.Logger
	usage   model.UsageLevel
	metrics *observability.MonitorCollector
	tracer  trace.Tracer

	mu       sync.Mutex
	requests map[uuid.UUID]*Request
	byRegion map[string]uuid.UUID
	// authPrompted remembers that a prompt was issued so repeated Add
	// calls while waiting do not re-prompt.
	authPrompted bool
}

var _ platform.Delegate = (*Manager)(nil)

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the structured logger. Defaults to a noop logger.
func WithLogger(log logging.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// WithUsageLevel declares the authorization level the host application
// intends to request. Leaving it at UsageNone makes every authorization
// path fail with ErrMissingUsageDeclaration.
func WithUsageLevel(level model.UsageLevel) Option {
	return func(m *Manager) { m.usage = level }
}

// WithMetrics attaches a Prometheus collector for request and dispatch
// accounting.
func WithMetrics(c *observability.MonitorCollector) Option {
	return func(m *Manager) { m.metrics = c }
}

// WithTracerProvider overrides the tracer provider used for operation
// spans. Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(m *Manager) { m.tracer = tp.Tracer("locationkit/monitor") }
}

// New constructs a Manager bound to the given platform service and
// installs itself as the service delegate.
func New(svc platform.Service, opts ...Option) (*Manager, error) {
	if svc == nil {
		return nil, fmt.Errorf("platform service is required")
	}
	m := &Manager{
		svc:      svc,
		log:      logging.Noop(),
		requests: make(map[uuid.UUID]*Request),
		byRegion: make(map[string]uuid.UUID),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.tracer == nil {
		m.tracer = otel.Tracer("locationkit/monitor")
	}
	svc.SetDelegate(m)
	return m, nil
}

// ServiceState normalizes the platform's current enabled flag and
// authorization status.
func (m *Manager) ServiceState() model.ServiceState {
	return model.DeriveServiceState(m.svc.ServicesEnabled(), m.svc.AuthorizationStatus())
}

// Requests returns a snapshot of the tracked requests.
func (m *Manager) Requests() []*Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Request, 0, len(m.requests))
	for _, r := range m.requests {
		out = append(out, r)
	}
	return out
}

// MonitorRegion registers a circular geofence around center and returns
// the tracking request. It fails synchronously with ErrUnsupported when
// the platform cannot monitor regions; registration may still resolve
// asynchronously through an authorization prompt.
func (m *Manager) MonitorRegion(center model.Coordinate, radiusM float64, onEvent func(model.RegionEvent), onError func(error)) (*Request, error) {
	ctx, span := m.tracer.Start(context.Background(), "Manager.MonitorRegion",
		trace.WithAttributes(
			attribute.Float64("region.lat", center.Lat),
			attribute.Float64("region.lon", center.Lon),
			attribute.Float64("region.radius_m", radiusM),
		))
	defer span.End()

	if !m.svc.MonitoringAvailable() {
		m.recordRequest(KindRegionMonitoring, "unsupported")
		return nil, fmt.Errorf("%w: region monitoring", ErrUnsupported)
	}
	if !center.Valid() || radiusM <= 0 {
		m.recordRequest(KindRegionMonitoring, "invalid")
		return nil, fmt.Errorf("%w: bad region center or radius", ErrNoData)
	}

	req := newRegionRequest(m, model.Region{Center: center, RadiusM: radiusM}, onEvent, onError)
	if !m.Add(req) {
		if err := req.Err(); err != nil {
			m.recordRequest(KindRegionMonitoring, "failed")
			return nil, err
		}
		m.recordRequest(KindRegionMonitoring, "rejected")
		return nil, fmt.Errorf("%w: %s", ErrDuplicateRequest, req.ID())
	}

	m.recordRequest(KindRegionMonitoring, "accepted")
	m.log.Info(ctx, "region monitoring request added",
		logging.String("request_id", req.ID()),
		logging.String("state", req.State().String()),
	)
	return req, nil
}

// RangeBeacons registers a beacon-ranging request for the given beacon
// region. Readings arrive through onBeacons; ranging failures cancel the
// request and surface through onError.
func (m *Manager) RangeBeacons(region model.BeaconRegion, onBeacons func([]model.BeaconReading), onError func(error)) (*Request, error) {
	ctx, span := m.tracer.Start(context.Background(), "Manager.RangeBeacons",
		trace.WithAttributes(attribute.String("beacon.uuid", region.ProximityUUID)))
	defer span.End()

	if !m.svc.RangingAvailable() {
		m.recordRequest(KindBeaconRanging, "unsupported")
		return nil, fmt.Errorf("%w: beacon ranging", ErrUnsupported)
	}
	if _, err := uuid.Parse(region.ProximityUUID); err != nil {
		m.recordRequest(KindBeaconRanging, "invalid")
		return nil, fmt.Errorf("%w: proximity UUID %q", ErrInvalidBeaconData, region.ProximityUUID)
	}

	req := newBeaconRequest(m, region, onBeacons, onError)
	if !m.Add(req) {
		if err := req.Err(); err != nil {
			m.recordRequest(KindBeaconRanging, "failed")
			return nil, err
		}
		m.recordRequest(KindBeaconRanging, "rejected")
		return nil, fmt.Errorf("%w: %s", ErrDuplicateRequest, req.ID())
	}

	m.recordRequest(KindBeaconRanging, "accepted")
	m.log.Info(ctx, "beacon ranging request added",
		logging.String("request_id", req.ID()),
		logging.String("state", req.State().String()),
	)
	return req, nil
}

// Add registers a request. It reports false, leaving the collection
// untouched, when the request's state disallows starting or a request
// with the same identifier (or region identifier) is already tracked.
//
// When authorization has not been granted yet the request moves to
// StateWaitingUserAuth, a prompt is issued if needed, and the platform
// start is deferred until the authorization delegate event resolves it.
func (m *Manager) Add(req *Request) bool {
	if req == nil || req.mgr != m || !req.State().CanStart() {
		return false
	}

	m.mu.Lock()
	if _, dup := m.requests[req.id]; dup {
		m.mu.Unlock()
		return false
	}
	if _, dup := m.byRegion[req.regionID()]; dup {
		m.mu.Unlock()
		return false
	}
	m.requests[req.id] = req
	m.byRegion[req.regionID()] = req.id
	m.mu.Unlock()

	if m.svc.AuthorizationStatus().Granted() {
		if err := m.start(req); err != nil {
			return false
		}
		m.updateGauges()
		return true
	}

	req.setState(StateWaitingUserAuth)
	m.updateGauges()
	if _, err := m.RequestAuthorizationIfNeeded(); err != nil {
		m.Remove(req, err)
		req.notifyError(err)
		return false
	}
	return true
}

// Remove cancels a tracked request, carrying the optional cause, stops
// platform monitoring for it, and evicts it. It reports false when the
// request is not tracked, so removing twice yields false the second time.
func (m *Manager) Remove(req *Request, cause error) bool {
	if req == nil {
		return false
	}

	m.mu.Lock()
	if _, ok := m.requests[req.id]; !ok {
		m.mu.Unlock()
		return false
	}
	delete(m.requests, req.id)
	delete(m.byRegion, req.regionID())
	m.mu.Unlock()

	wasRunning := req.State().IsRunning()
	req.cancel(cause)
	if wasRunning {
		m.stopPlatform(req)
	}
	m.updateGauges()

	m.log.Info(context.Background(), "request removed",
		logging.String("request_id", req.ID()),
		logging.Err(cause),
	)
	return true
}

// RequestAuthorizationIfNeeded issues an authorization prompt when none
// was granted yet. It reports true when a new prompt was just issued (the
// caller must wait for the delegate event) and false when authorization is
// already in place. It fails with ErrMissingUsageDeclaration when the host
// application declared no usage level.
func (m *Manager) RequestAuthorizationIfNeeded() (bool, error) {
	if m.usage == model.UsageNone {
		return false, ErrMissingUsageDeclaration
	}
	if m.svc.AuthorizationStatus().Granted() {
		return false, nil
	}

	m.mu.Lock()
	alreadyPrompted := m.authPrompted
	m.authPrompted = true
	m.mu.Unlock()
	if alreadyPrompted {
		return true, nil
	}

	m.log.Info(context.Background(), "requesting authorization",
		logging.String("usage", m.usage.String()))
	m.svc.RequestAuthorization(m.usage)
	return true, nil
}

// CleanAllMonitoredRegions stops every region the platform reports as
// monitored, including regions this manager never tracked. Defensive
// cleanup for startup.
func (m *Manager) CleanAllMonitoredRegions() {
	for _, id := range m.svc.MonitoredRegionIDs() {
		if err := m.svc.StopMonitoring(id); err != nil {
			m.log.Warn(context.Background(), "stop monitoring failed",
				logging.String("region_id", id), logging.Err(err))
		}
	}
}

//
// ---------- Delegate dispatch ----------
//

// DidEnterRegion implements platform.Delegate.
func (m *Manager) DidEnterRegion(regionID string) {
	m.dispatchRegionEvent(regionID, model.RegionEntered)
}

// DidExitRegion implements platform.Delegate.
func (m *Manager) DidExitRegion(regionID string) {
	m.dispatchRegionEvent(regionID, model.RegionExited)
}

// MonitoringDidFail implements platform.Delegate. The failure cancels and
// evicts the matching request and surfaces through its error callback,
// wrapped in ErrLocationManager.
func (m *Manager) MonitoringDidFail(regionID string, err error) {
	m.dispatchFailure("monitoring_failure", regionID, err)
}

// RangingDidFail implements platform.Delegate.
func (m *Manager) RangingDidFail(regionID string, err error) {
	m.dispatchFailure("ranging_failure", regionID, err)
}

// DidRangeBeacons implements platform.Delegate.
func (m *Manager) DidRangeBeacons(regionID string, readings []model.BeaconReading) {
	start := time.Now()
	_, span := m.tracer.Start(context.Background(), "Manager.DidRangeBeacons",
		trace.WithAttributes(
			attribute.String("region.id", regionID),
			attribute.Int("readings", len(readings)),
		))
	defer span.End()

	req := m.lookupByRegion(regionID)
	if req == nil || req.kind != KindBeaconRanging {
		return
	}
	if req.onBeacons != nil {
		req.onBeacons(readings)
	}
	m.recordEvent("beacons", time.Since(start))
}

// AuthorizationDidChange implements platform.Delegate. Interested requests
// receive the normalized state as an informational callback; requests
// blocked in StateWaitingUserAuth are started on grant or cancelled with
// ErrAuthorizationChanged on denial.
func (m *Manager) AuthorizationDidChange(status model.AuthorizationStatus) {
	start := time.Now()

	// The outstanding prompt, if any, is resolved; a later Add while
	// unauthorized must be able to prompt again.
	m.mu.Lock()
	m.authPrompted = false
	m.mu.Unlock()

	state := model.DeriveServiceState(m.svc.ServicesEnabled(), status)
	m.log.Info(context.Background(), "authorization changed",
		logging.String("state", state.String()))

	for _, req := range m.Requests() {
		req.notifyAuthChange(state)
	}

	switch {
	case status.Granted():
		for _, req := range m.Requests() {
			if req.State() != StateWaitingUserAuth {
				continue
			}
			if err := m.start(req); err != nil {
				m.log.Warn(context.Background(), "deferred start failed",
					logging.String("request_id", req.ID()), logging.Err(err))
			}
		}
	case status == model.AuthorizationDenied || status == model.AuthorizationRestricted:
		for _, req := range m.Requests() {
			if req.State() != StateWaitingUserAuth {
				continue
			}
			m.Remove(req, ErrAuthorizationChanged)
			req.notifyError(ErrAuthorizationChanged)
		}
	}
	m.updateGauges()
	m.recordEvent("auth_change", time.Since(start))
}

//
// ---------- internals ----------
//

// start begins platform monitoring or ranging and then transitions the
// request to running, so a failed platform start never leaves a running
// state to unwind. Failures remove the request with an
// ErrLocationManager-wrapped cause.
func (m *Manager) start(req *Request) error {
	if req.State().IsCancelled() {
		return fmt.Errorf("%w: %s", ErrRequestNotTracked, req.ID())
	}

	var err error
	switch req.kind {
	case KindBeaconRanging:
		err = m.svc.StartRanging(req.beacon)
	default:
		err = m.svc.StartMonitoring(req.region)
	}
	if err != nil {
		werr := fmt.Errorf("%w: %v", ErrLocationManager, err)
		m.Remove(req, werr)
		req.notifyError(werr)
		return werr
	}
	if !req.setState(StateRunning) {
		// Cancelled while the platform call was in flight.
		m.stopPlatform(req)
		return fmt.Errorf("%w: %s", ErrRequestNotTracked, req.ID())
	}
	return nil
}

func (m *Manager) stopPlatform(req *Request) {
	var err error
	switch req.kind {
	case KindBeaconRanging:
		err = m.svc.StopRanging(req.beacon.ID)
	default:
		err = m.svc.StopMonitoring(req.region.ID)
	}
	if err != nil {
		m.log.Warn(context.Background(), "platform stop failed",
			logging.String("request_id", req.ID()), logging.Err(err))
	}
}

// pause stops platform monitoring for a tracked, running request and
// parks it in StatePaused.
func (m *Manager) pause(req *Request) bool {
	if req == nil || !m.tracks(req) || !req.State().IsRunning() {
		return false
	}
	if !req.setState(StatePaused) {
		return false
	}
	m.stopPlatform(req)
	m.updateGauges()
	return true
}

// resume restarts a tracked, paused request, going back through the
// authorization gate if the grant went away in the meantime.
func (m *Manager) resume(req *Request) bool {
	if req == nil || !m.tracks(req) {
		return false
	}
	if st := req.State(); st != StatePaused && st != StateUndetermined {
		return false
	}

	if m.svc.AuthorizationStatus().Granted() {
		return m.start(req) == nil
	}
	req.setState(StateWaitingUserAuth)
	if _, err := m.RequestAuthorizationIfNeeded(); err != nil {
		m.Remove(req, err)
		req.notifyError(err)
		return false
	}
	return true
}

func (m *Manager) tracks(req *Request) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.requests[req.id]
	return ok
}

func (m *Manager) lookupByRegion(regionID string) *Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byRegion[regionID]
	if !ok {
		return nil
	}
	return m.requests[id]
}

func (m *Manager) dispatchRegionEvent(regionID string, kind model.RegionEventKind) {
	start := time.Now()
	_, span := m.tracer.Start(context.Background(), "Manager.RegionEvent",
		trace.WithAttributes(
			attribute.String("region.id", regionID),
			attribute.String("event.kind", kind.String()),
		))
	defer span.End()

	req := m.lookupByRegion(regionID)
	if req == nil || req.kind != KindRegionMonitoring {
		m.log.Debug(context.Background(), "region event for untracked region",
			logging.String("region_id", regionID))
		return
	}
	if req.onRegionEvent != nil {
		req.onRegionEvent(model.RegionEvent{RegionID: regionID, Kind: kind, At: start})
	}
	m.recordEvent(kind.String(), time.Since(start))
}

func (m *Manager) dispatchFailure(typ, regionID string, err error) {
	start := time.Now()
	req := m.lookupByRegion(regionID)
	if req == nil {
		return
	}
	werr := fmt.Errorf("%w: region %q: %v", ErrLocationManager, regionID, err)
	m.Remove(req, werr)
	req.notifyError(werr)
	m.recordEvent(typ, time.Since(start))
}

func (m *Manager) recordRequest(kind Kind, result string) {
	if m.metrics != nil {
		m.metrics.RecordRequest(kind.String(), result)
	}
}

func (m *Manager) recordEvent(typ string, elapsed time.Duration) {
	if m.metrics != nil {
		m.metrics.RecordEvent(typ)
		m.metrics.ObserveDispatch(typ, elapsed.Seconds())
	}
}

func (m *Manager) updateGauges() {
	if m.metrics == nil {
		return
	}
	active, waiting := 0, 0
	for _, req := range m.Requests() {
		active++
		if req.State() == StateWaitingUserAuth {
			waiting++
		}
	}
	m.metrics.SetRequestCounts(active, waiting)
}
