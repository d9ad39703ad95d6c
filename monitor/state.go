package monitor

// State is the lifecycle state of a Request.
//
// Pending -> Running on successful registration. Cancelled is terminal and
// may carry the error that caused it (Request.Err). Paused requests can be
// resumed. WaitingUserAuth blocks on an authorization prompt and resolves
// through the manager's authorization dispatch.
type State int

const (
	StateUndetermined State = iota
	StatePending
	StatePaused
	StateCancelled
	StateRunning
	StateWaitingUserAuth
)

// IsRunning reports whether the request is actively monitored by the
// platform.
func (s State) IsRunning() bool { return s == StateRunning }

// IsPending reports whether the request awaits its first start.
func (s State) IsPending() bool { return s == StatePending }

// IsCancelled reports whether the request reached its terminal state.
// A cancelled request can never be re-queued.
func (s State) IsCancelled() bool { return s == StateCancelled }

// CanStart reports whether the request may (re)start platform monitoring.
func (s State) CanStart() bool {
	switch s {
	case StateUndetermined, StatePending, StatePaused, StateWaitingUserAuth:
		return true
	default:
		return false
	}
}

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StatePaused:
		return "paused"
	case StateCancelled:
		return "cancelled"
	case StateRunning:
		return "running"
	case StateWaitingUserAuth:
		return "waiting_user_auth"
	default:
		return "undetermined"
	}
}
