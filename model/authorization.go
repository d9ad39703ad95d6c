package model

// AuthorizationStatus mirrors the platform's location permission state.
type AuthorizationStatus int

const (
	AuthorizationNotDetermined AuthorizationStatus = iota
	AuthorizationRestricted
	AuthorizationDenied
	AuthorizationAlways
	AuthorizationWhenInUse
)

// Granted reports whether the status allows location access at all.
func (s AuthorizationStatus) Granted() bool {
	return s == AuthorizationAlways || s == AuthorizationWhenInUse
}

func (s AuthorizationStatus) String() string {
	switch s {
	case AuthorizationRestricted:
		return "restricted"
	case AuthorizationDenied:
		return "denied"
	case AuthorizationAlways:
		return "authorized_always"
	case AuthorizationWhenInUse:
		return "authorized_when_in_use"
	default:
		return "not_determined"
	}
}

// UsageLevel is the authorization level the host application declares it
// intends to use. Declaring none and then monitoring is a configuration
// error surfaced by the manager.
type UsageLevel int

const (
	UsageNone UsageLevel = iota
	UsageWhenInUse
	UsageAlways
)

func (u UsageLevel) String() string {
	switch u {
	case UsageWhenInUse:
		return "when_in_use"
	case UsageAlways:
		return "always"
	default:
		return "none"
	}
}

// Availability is the coarse availability of location services.
type Availability int

const (
	AvailabilityUndetermined Availability = iota
	AvailabilityDisabled
	AvailabilityDenied
	AvailabilityRestricted
	AvailabilityAuthorized
)

func (a Availability) String() string {
	switch a {
	case AvailabilityDisabled:
		return "disabled"
	case AvailabilityDenied:
		return "denied"
	case AvailabilityRestricted:
		return "restricted"
	case AvailabilityAuthorized:
		return "authorized"
	default:
		return "undetermined"
	}
}

// ServiceState normalizes the platform's service-enabled flag and
// authorization status into one value.
type ServiceState struct {
	Availability Availability
	// Always is meaningful only when Availability is AvailabilityAuthorized
	// and reports whether background ("always") access was granted.
	Always bool
}

// Authorized reports whether location access is currently permitted.
func (s ServiceState) Authorized() bool {
	return s.Availability == AvailabilityAuthorized
}

func (s ServiceState) String() string {
	if s.Availability == AvailabilityAuthorized && s.Always {
		return "authorized_always"
	}
	return s.Availability.String()
}

// DeriveServiceState folds the platform's service-enabled flag and
// authorization status into a ServiceState.
func DeriveServiceState(servicesEnabled bool, status AuthorizationStatus) ServiceState {
	if !servicesEnabled {
		return ServiceState{Availability: AvailabilityDisabled}
	}
	switch status {
	case AuthorizationDenied:
		return ServiceState{Availability: AvailabilityDenied}
	case AuthorizationRestricted:
		return ServiceState{Availability: AvailabilityRestricted}
	case AuthorizationAlways:
		return ServiceState{Availability: AvailabilityAuthorized, Always: true}
	case AuthorizationWhenInUse:
		return ServiceState{Availability: AvailabilityAuthorized}
	default:
		return ServiceState{Availability: AvailabilityUndetermined}
	}
}
