package activation

// State identifies where a rental is in its lifecycle. Transitions only move
// forward; a poll that found nothing leaves the state untouched, so retrying
// is always safe.
type State int

const (
	// StateRequested marks an activation being negotiated with the provider.
	StateRequested State = iota
	// StateAwaitingCode marks a rented number waiting for its SMS code.
	StateAwaitingCode
	// StateVerified marks a completed activation whose code arrived (terminal).
	StateVerified
	// StateCancelled marks a cancelled activation (terminal).
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateRequested:
		return "requested"
	case StateAwaitingCode:
		return "awaiting_code"
	case StateVerified:
		return "verified"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Terminal reports whether the state accepts no further transitions.
func (s State) Terminal() bool {
	return s == StateVerified || s == StateCancelled
}

// Activation is one rented virtual number and its verification lifecycle.
// It is owned exclusively by the session that created it until it reaches a
// terminal state.
type Activation struct {
	ID          string
	Service     string
	CountryID   int
	PhoneNumber string
	State       State
	SMSCode     string
}

// advance moves the state forward; regressions and transitions out of a
// terminal state are ignored.
func (a *Activation) advance(next State) {
	if a.State.Terminal() || next <= a.State {
		return
	}
	a.State = next
}
