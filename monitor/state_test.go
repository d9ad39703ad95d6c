package monitor

import "testing"

func TestStatePredicates(t *testing.T) {
	cases := []struct {
		state       State
		canStart    bool
		isRunning   bool
		isPending   bool
		isCancelled bool
	}{
		{StateUndetermined, true, false, false, false},
		{StatePending, true, false, true, false},
		{StatePaused, true, false, false, false},
		{StateWaitingUserAuth, true, false, false, false},
		{StateRunning, false, true, false, false},
		{StateCancelled, false, false, false, true},
	}
	for _, tc := range cases {
		if got := tc.state.CanStart(); got != tc.canStart {
			t.Errorf("%v.CanStart() = %v, want %v", tc.state, got, tc.canStart)
		}
		if got := tc.state.IsRunning(); got != tc.isRunning {
			t.Errorf("%v.IsRunning() = %v, want %v", tc.state, got, tc.isRunning)
		}
		if got := tc.state.IsPending(); got != tc.isPending {
			t.Errorf("%v.IsPending() = %v, want %v", tc.state, got, tc.isPending)
		}
		if got := tc.state.IsCancelled(); got != tc.isCancelled {
			t.Errorf("%v.IsCancelled() = %v, want %v", tc.state, got, tc.isCancelled)
		}
	}
}

func TestCancelledIsTerminal(t *testing.T) {
	mgr := newTestManager(t, newFakePlatform())
	req := newRegionRequest(mgr, testRegion(), nil, nil)

	req.cancel(nil)
	for _, next := range []State{StatePending, StateRunning, StatePaused, StateWaitingUserAuth} {
		if req.setState(next) {
			t.Fatalf("setState(%v) on cancelled request succeeded", next)
		}
	}
	if got := req.State(); !got.IsCancelled() {
		t.Fatalf("state = %v, want cancelled", got)
	}
}

func TestStateStrings(t *testing.T) {
	want := map[State]string{
		StateUndetermined:    "undetermined",
		StatePending:         "pending",
		StatePaused:          "paused",
		StateCancelled:       "cancelled",
		StateRunning:         "running",
		StateWaitingUserAuth: "waiting_user_auth",
	}
	for state, s := range want {
		if got := state.String(); got != s {
			t.Errorf("%d.String() = %q, want %q", state, got, s)
		}
	}
}
