package app

import (
	"sync"

	"github.com/dkeye/Duet/internal/core"
	"github.com/rs/zerolog/log"
)

// Registry holds at most one active session process-wide.
type Registry struct {
	mu      sync.RWMutex
	current *core.Session
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Install tears down the previous session, if any, and stores s.
func (r *Registry) Install(s *core.Session) {
	r.mu.Lock()
	prev := r.current
	r.current = s
	r.mu.Unlock()

	if prev != nil && prev != s {
		teardown(prev)
		log.Info().Str("module", "app.registry").Str("sid", prev.String()).Msg("replaced session")
	}
	log.Info().Str("module", "app.registry").Str("sid", s.String()).Str("role", string(s.Role())).Msg("installed session")
}

func (r *Registry) Current() (*core.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current, r.current != nil
}

// Clear destroys the current session and leaves the registry empty.
func (r *Registry) Clear() bool {
	r.mu.Lock()
	s := r.current
	r.current = nil
	r.mu.Unlock()

	if s == nil {
		return false
	}
	teardown(s)
	log.Info().Str("module", "app.registry").Str("sid", s.String()).Msg("cleared session")
	return true
}

// Release clears the registry only while s is still the installed session.
// Late events from a replaced transport therefore never touch its successor.
func (r *Registry) Release(s *core.Session) bool {
	r.mu.Lock()
	if r.current != s {
		r.mu.Unlock()
		teardown(s)
		return false
	}
	r.current = nil
	r.mu.Unlock()

	teardown(s)
	log.Info().Str("module", "app.registry").Str("sid", s.String()).Msg("released session")
	return true
}

func teardown(s *core.Session) {
	s.MarkClosed()
	if err := s.Release(); err != nil {
		log.Error().Err(err).Str("module", "app.registry").Str("sid", s.String()).Msg("transport destroy")
	}
}
