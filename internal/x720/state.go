package x720

// State is the driver lifecycle.
type State int32

const (
	Uninitialized State = iota
	Initializing
	Ready
	// Degraded is Ready with a stale reading after a failed refresh.
	Degraded
	// Failed means Initialize did not get a usable voltage. The host should
	// not poll a failed driver.
	Failed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	case Degraded:
		return "degraded"
	case Failed:
		return "failed"
	}
	return "unknown"
}
