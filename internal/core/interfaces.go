package core

import (
	"context"

	"github.com/pion/webrtc/v4"
)

// TransportEvents is the set of callbacks a transport fires. Any of them may
// run on a transport-owned goroutine.
type TransportEvents struct {
	OnSignal  func(webrtc.SessionDescription)
	OnConnect func()
	OnStream  func(RemoteMedia)
	OnClose   func()
	OnError   func(error)
}

type TransportOptions struct {
	Initiator  bool
	Media      MediaHandle
	ICEServers []string
	// Trickle is always false here: the full description is produced and
	// consumed as one envelope.
	Trickle bool
}

// Transport is one real-time peer connection. It is owned by exactly one Session.
type Transport interface {
	// Start attaches local media and, for an initiator, begins producing the offer.
	Start(ctx context.Context) error
	// Signal feeds the peer's handshake payload in.
	Signal(webrtc.SessionDescription) error
	Connected() bool
	// Destroy releases every underlying resource. Safe to call more than once.
	Destroy() error
}

type TransportFactory interface {
	NewTransport(opts TransportOptions, events TransportEvents) (Transport, error)
}
