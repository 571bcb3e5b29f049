// Package orch drives the single peer session end to end.
package orch

import (
	"sync"

	"github.com/dkeye/Duet/internal/app"
	"github.com/dkeye/Duet/internal/core"
)

// Callbacks is what the owner of a session hears back. Any of them may be
// invoked from a transport goroutine.
type Callbacks struct {
	OnSignal       func(envelope string)
	OnRemoteStream func(core.RemoteMedia)
	OnConnected    func()
	OnClosed       func()
	OnError        func(error)
}

type Controller struct {
	Registry   *app.Registry
	Transports core.TransportFactory
	Codec      core.SignalCodec
	Rendezvous core.Rendezvous
	ICEServers []string

	mu    sync.Mutex
	bound *binding
}

// Current exposes the registered session for read-only status queries.
func (c *Controller) Current() (*core.Session, bool) {
	return c.Registry.Current()
}

// Status reports whether a call is up and whether the transport finished its
// encrypted handshake. It says nothing about the signal codec.
func (c *Controller) Status() (connected, secure bool) {
	sess, ok := c.Current()
	if !ok {
		return false, false
	}
	return sess.Connected(), sess.Secure()
}

func (c *Controller) bind(b *binding) {
	c.mu.Lock()
	c.bound = b
	c.mu.Unlock()
}

func (c *Controller) bindingFor(sess *core.Session) *binding {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bound != nil && c.bound.sess == sess {
		return c.bound
	}
	return nil
}
