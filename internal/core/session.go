package core

import (
	"fmt"
	"sync"

	"github.com/dkeye/Duet/internal/domain"
	"github.com/google/uuid"
)

type SessionID string

// Session is the single allowed active connection. Role, transport and media
// are fixed at creation; state moves forward only.
type Session struct {
	id        SessionID
	role      domain.Role
	transport Transport
	media     MediaHandle

	// AutoConnect guards the single scheduled forward of a pending remote
	// signal. It lives and dies with the session.
	AutoConnect Latch

	mu     sync.RWMutex
	state  domain.LifecycleState
	secure bool
	ready  bool

	release sync.Once
	relErr  error
}

func NewSession(role domain.Role, transport Transport, media MediaHandle) *Session {
	return &Session{
		id:        SessionID(uuid.NewString()),
		role:      role,
		transport: transport,
		media:     media,
		state:     domain.StateCreated,
	}
}

func (s *Session) ID() SessionID { return s.id }
func (s *Session) Role() domain.Role { return s.role }
func (s *Session) Transport() Transport { return s.transport }
func (s *Session) Media() MediaHandle { return s.media }
func (s *Session) Connected() bool { return s.transport.Connected() }
func (s *Session) String() string { return string(s.id) }

func (s *Session) State() domain.LifecycleState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) Secure() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.secure
}

// Ready reports whether the local side is prepared to take a remote signal.
func (s *Session) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready && !s.state.Terminal()
}

func (s *Session) MarkReady() {
	s.mu.Lock()
	s.ready = true
	s.mu.Unlock()
}

// MarkSignalProduced records that the local description went out.
// Only the first local signal of an initiator moves the state.
func (s *Session) MarkSignalProduced() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != domain.StateCreated {
		return false
	}
	s.state = domain.StateAwaitingSignal
	return true
}

// AcceptRemote admits exactly one remote signal per session.
func (s *Session) AcceptRemote() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.state.Terminal():
		return ErrNoActiveSession
	case s.state.Negotiated():
		return ErrAlreadyNegotiated
	case s.state == domain.StateCreated && s.role.Initiator():
		return fmt.Errorf("%w: local offer not produced yet", ErrNoActiveSession)
	}
	s.state = domain.StateSignalExchanged
	return nil
}

func (s *Session) MarkConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() || s.state == domain.StateConnected {
		return false
	}
	s.state = domain.StateConnected
	s.secure = true
	return true
}

func (s *Session) MarkClosed() bool { return s.finish(domain.StateClosed) }

func (s *Session) MarkErrored() bool { return s.finish(domain.StateErrored) }

func (s *Session) finish(to domain.LifecycleState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return false
	}
	s.state = to
	s.secure = false
	return true
}

// Release destroys the transport exactly once. The media handle is only
// detached; stopping the capture belongs to its owner.
func (s *Session) Release() error {
	s.release.Do(func() {
		s.relErr = s.transport.Destroy()
	})
	return s.relErr
}
