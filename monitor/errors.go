package monitor

import "errors"

// Closed error taxonomy for location requests. Callers match with
// errors.Is; asynchronous platform failures are wrapped around
// ErrLocationManager so the original platform error stays inspectable.
var (
	// ErrMissingUsageDeclaration indicates the host application declared no
	// authorization usage level, so no prompt can be issued.
	ErrMissingUsageDeclaration = errors.New("missing authorization usage declaration")
	// ErrTimeout indicates a request did not complete in time.
	ErrTimeout = errors.New("request timed out")
	// ErrAuthorizationChanged indicates authorization was revoked or denied
	// while a request depended on it.
	ErrAuthorizationChanged = errors.New("authorization changed")
	// ErrLocationManager wraps an error reported by the platform location
	// service.
	ErrLocationManager = errors.New("location manager failure")
	// ErrLocationUnavailable indicates location services are switched off.
	ErrLocationUnavailable = errors.New("location services unavailable")
	// ErrNoData indicates the platform produced no usable data.
	ErrNoData = errors.New("no data received")
	// ErrUnsupported indicates the platform lacks the requested capability.
	ErrUnsupported = errors.New("feature not supported")
	// ErrInvalidBeaconData indicates a malformed beacon region descriptor.
	ErrInvalidBeaconData = errors.New("invalid beacon data")

	// ErrDuplicateRequest indicates a request with the same identifier is
	// already tracked.
	ErrDuplicateRequest = errors.New("request already tracked")
	// ErrRequestNotTracked indicates the manager does not track the request.
	ErrRequestNotTracked = errors.New("request not tracked")
)
