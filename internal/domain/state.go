package domain

type LifecycleState string

const (
	StateCreated         LifecycleState = "created"
	StateAwaitingSignal  LifecycleState = "awaiting_signal"
	StateSignalExchanged LifecycleState = "signal_exchanged"
	StateConnected       LifecycleState = "connected"
	StateClosed          LifecycleState = "closed"
	StateErrored         LifecycleState = "errored"
)

// Terminal reports whether no further transition is possible.
func (s LifecycleState) Terminal() bool {
	return s == StateClosed || s == StateErrored
}

// Negotiated reports whether a remote signal has already been accepted.
func (s LifecycleState) Negotiated() bool {
	switch s {
	case StateSignalExchanged, StateConnected:
		return true
	}
	return false
}
