// Package platform defines the seam between locationkit and the host
// operating system's location service. The real geofencing, ranging, and
// permission prompts happen behind Service; locationkit only orchestrates
// requests on top of it.
package platform

import "github.com/signalsfoundry/locationkit/model"

// Service is the platform location service consumed by the manager.
//
// Implementations deliver asynchronous events through the Delegate
// registered with SetDelegate. Delegate callbacks are serialized: an
// implementation must not invoke two callbacks concurrently.
type Service interface {
	// MonitoringAvailable reports whether circular-region monitoring is
	// supported on this platform.
	MonitoringAvailable() bool
	// RangingAvailable reports whether beacon ranging is supported.
	RangingAvailable() bool

	StartMonitoring(region model.Region) error
	StopMonitoring(regionID string) error
	// MonitoredRegionIDs returns every region the platform is currently
	// monitoring, including regions registered by other components.
	MonitoredRegionIDs() []string

	StartRanging(region model.BeaconRegion) error
	StopRanging(regionID string) error

	// ServicesEnabled reports whether location services are switched on
	// system-wide.
	ServicesEnabled() bool
	AuthorizationStatus() model.AuthorizationStatus
	// RequestAuthorization asks the user for the given level. It is
	// fire-and-forget; the outcome arrives via
	// Delegate.AuthorizationDidChange.
	RequestAuthorization(level model.UsageLevel)

	// SetDelegate installs the single event receiver. The manager calls
	// this once during construction.
	SetDelegate(d Delegate)
}

// Delegate receives asynchronous platform events. All callbacks are
// invoked serially from a single goroutine at a time.
type Delegate interface {
	DidEnterRegion(regionID string)
	DidExitRegion(regionID string)
	MonitoringDidFail(regionID string, err error)

	DidRangeBeacons(regionID string, readings []model.BeaconReading)
	RangingDidFail(regionID string, err error)

	AuthorizationDidChange(status model.AuthorizationStatus)
}
