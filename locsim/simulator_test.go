package locsim

import (
	"fmt"
	"sync"
	"testing"

	"github.com/signalsfoundry/locationkit/model"
	"github.com/signalsfoundry/locationkit/platform"
)

// recordingDelegate captures emitted events for assertions.
type recordingDelegate struct {
	mu       sync.Mutex
	entered  []string
	exited   []string
	failures map[string]error
	beacons  map[string][]model.BeaconReading
	auth     []model.AuthorizationStatus
}

var _ platform.Delegate = (*recordingDelegate)(nil)

func newRecordingDelegate() *recordingDelegate {
	return &recordingDelegate{
		failures: make(map[string]error),
		beacons:  make(map[string][]model.BeaconReading),
	}
}

func (d *recordingDelegate) DidEnterRegion(regionID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entered = append(d.entered, regionID)
}

func (d *recordingDelegate) DidExitRegion(regionID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.exited = append(d.exited, regionID)
}

func (d *recordingDelegate) MonitoringDidFail(regionID string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures[regionID] = err
}

func (d *recordingDelegate) DidRangeBeacons(regionID string, readings []model.BeaconReading) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.beacons[regionID] = append(d.beacons[regionID], readings...)
}

func (d *recordingDelegate) RangingDidFail(regionID string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures[regionID] = err
}

func (d *recordingDelegate) AuthorizationDidChange(status model.AuthorizationStatus) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.auth = append(d.auth, status)
}

var turin = model.Coordinate{Lat: 45.0703, Lon: 7.6869}

func TestSimulatorBoundaryCrossings(t *testing.T) {
	sim := New(Config{})
	del := newRecordingDelegate()
	sim.SetDelegate(del)

	if err := sim.StartMonitoring(model.Region{ID: "turin", Center: turin, RadiusM: 10_000}); err != nil {
		t.Fatalf("StartMonitoring: %v", err)
	}

	far := model.Coordinate{Lat: 48.8566, Lon: 2.3522}
	sim.SetPosition(far)
	if len(del.entered) != 0 {
		t.Fatalf("entered after outside baseline = %v, want none", del.entered)
	}

	sim.SetPosition(turin)
	sim.SetPosition(turin) // containment unchanged, no duplicate event
	sim.SetPosition(far)

	if len(del.entered) != 1 || del.entered[0] != "turin" {
		t.Fatalf("entered = %v, want [turin]", del.entered)
	}
	if len(del.exited) != 1 || del.exited[0] != "turin" {
		t.Fatalf("exited = %v, want [turin]", del.exited)
	}
}

func TestSimulatorImmediateEnterOnStart(t *testing.T) {
	sim := New(Config{})
	del := newRecordingDelegate()
	sim.SetDelegate(del)

	sim.SetPosition(turin)
	if err := sim.StartMonitoring(model.Region{ID: "here", Center: turin, RadiusM: 500}); err != nil {
		t.Fatalf("StartMonitoring: %v", err)
	}

	if len(del.entered) != 1 || del.entered[0] != "here" {
		t.Fatalf("entered = %v, want [here]", del.entered)
	}
}

func TestSimulatorStartMonitoringValidation(t *testing.T) {
	sim := New(Config{})
	region := model.Region{ID: "r", Center: turin, RadiusM: 100}

	if err := sim.StartMonitoring(model.Region{Center: turin, RadiusM: 100}); err == nil {
		t.Fatalf("StartMonitoring without ID succeeded")
	}
	if err := sim.StartMonitoring(region); err != nil {
		t.Fatalf("StartMonitoring: %v", err)
	}
	if err := sim.StartMonitoring(region); err == nil {
		t.Fatalf("duplicate StartMonitoring succeeded")
	}

	disabled := New(Config{DisableMonitoring: true})
	if disabled.MonitoringAvailable() {
		t.Fatalf("MonitoringAvailable = true with DisableMonitoring")
	}
	if err := disabled.StartMonitoring(region); err == nil {
		t.Fatalf("StartMonitoring succeeded on disabled simulator")
	}
}

func TestSimulatorMonitoredRegionIDsSorted(t *testing.T) {
	sim := New(Config{})
	for _, id := range []string{"zulu", "alpha", "mike"} {
		if err := sim.StartMonitoring(model.Region{ID: id, Center: turin, RadiusM: 100}); err != nil {
			t.Fatalf("StartMonitoring(%s): %v", id, err)
		}
	}
	got := sim.MonitoredRegionIDs()
	want := []string{"alpha", "mike", "zulu"}
	if len(got) != len(want) {
		t.Fatalf("MonitoredRegionIDs = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("MonitoredRegionIDs = %v, want %v", got, want)
		}
	}

	if err := sim.StopMonitoring("mike"); err != nil {
		t.Fatalf("StopMonitoring: %v", err)
	}
	if got := sim.MonitoredRegionIDs(); len(got) != 2 {
		t.Fatalf("MonitoredRegionIDs after stop = %v, want 2 entries", got)
	}
}

func TestSimulatorAuthorizationPolicies(t *testing.T) {
	t.Run("auto grant", func(t *testing.T) {
		sim := New(Config{Policy: AuthAutoGrant})
		del := newRecordingDelegate()
		sim.SetDelegate(del)

		sim.RequestAuthorization(model.UsageAlways)
		if got := sim.AuthorizationStatus(); got != model.AuthorizationAlways {
			t.Fatalf("status = %v, want always", got)
		}
		sim2 := New(Config{Policy: AuthAutoGrant})
		sim2.RequestAuthorization(model.UsageWhenInUse)
		if got := sim2.AuthorizationStatus(); got != model.AuthorizationWhenInUse {
			t.Fatalf("status = %v, want when-in-use", got)
		}
		if len(del.auth) != 1 {
			t.Fatalf("auth callbacks = %d, want 1", len(del.auth))
		}
	})

	t.Run("auto deny", func(t *testing.T) {
		sim := New(Config{Policy: AuthAutoDeny})
		del := newRecordingDelegate()
		sim.SetDelegate(del)

		sim.RequestAuthorization(model.UsageAlways)
		if got := sim.AuthorizationStatus(); got != model.AuthorizationDenied {
			t.Fatalf("status = %v, want denied", got)
		}
		if len(del.auth) != 1 || del.auth[0] != model.AuthorizationDenied {
			t.Fatalf("auth callbacks = %v, want [denied]", del.auth)
		}
	})

	t.Run("manual", func(t *testing.T) {
		sim := New(Config{})
		del := newRecordingDelegate()
		sim.SetDelegate(del)

		sim.RequestAuthorization(model.UsageWhenInUse)
		if got := sim.AuthorizationStatus(); got != model.AuthorizationNotDetermined {
			t.Fatalf("status = %v, want not determined while prompt open", got)
		}
		if !sim.PromptOpen() {
			t.Fatalf("PromptOpen = false, want true")
		}

		sim.ResolveAuthorization(model.AuthorizationWhenInUse)
		if sim.PromptOpen() {
			t.Fatalf("PromptOpen = true after resolution")
		}
		if len(del.auth) != 1 || del.auth[0] != model.AuthorizationWhenInUse {
			t.Fatalf("auth callbacks = %v, want [when-in-use]", del.auth)
		}
	})
}

func TestSimulatorBeacons(t *testing.T) {
	sim := New(Config{})
	del := newRecordingDelegate()
	sim.SetDelegate(del)

	region := model.BeaconRegion{ID: "lobby", ProximityUUID: "f7826da6-4fa2-4e98-8024-bc5b71e0893e"}
	if err := sim.StartRanging(region); err != nil {
		t.Fatalf("StartRanging: %v", err)
	}

	readings := []model.BeaconReading{{ProximityUUID: region.ProximityUUID, Proximity: model.ProximityNear, RSSI: -70}}
	sim.EmitBeacons("lobby", readings)
	sim.EmitBeacons("unranged", readings) // dropped

	if got := len(del.beacons["lobby"]); got != 1 {
		t.Fatalf("lobby readings = %d, want 1", got)
	}
	if got := len(del.beacons["unranged"]); got != 0 {
		t.Fatalf("unranged readings = %d, want 0", got)
	}
}

func TestSimulatorFaultInjection(t *testing.T) {
	sim := New(Config{})
	del := newRecordingDelegate()
	sim.SetDelegate(del)

	if err := sim.StartMonitoring(model.Region{ID: "r", Center: turin, RadiusM: 100}); err != nil {
		t.Fatalf("StartMonitoring: %v", err)
	}
	sim.FailMonitoring("r", fmt.Errorf("injected"))

	if del.failures["r"] == nil {
		t.Fatalf("failure not delivered")
	}
	if got := sim.MonitoredRegionIDs(); len(got) != 0 {
		t.Fatalf("region still monitored after failure: %v", got)
	}
}
