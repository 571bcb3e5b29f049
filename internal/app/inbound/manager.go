package inbound

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

type Manager struct {
	mu      sync.RWMutex
	readers map[string]*reader
}

func NewManager() *Manager {
	return &Manager{
		readers: make(map[string]*reader),
	}
}

// Start begins draining src under id, replacing any reader already there.
func (m *Manager) Start(ctx context.Context, id, kind string, src Source) {
	logger := log.With().
		Str("module", "inbound").
		Str("track_id", id).
		Str("kind", kind).
		Logger()

	rctx, cancel := context.WithCancel(ctx)
	r := newReader(id, kind, src, cancel)

	m.mu.Lock()
	if old, ok := m.readers[id]; ok {
		logger.Info().Msg("replacing existing reader")
		old.cancel()
	}
	m.readers[id] = r
	m.mu.Unlock()

	logger.Info().Msg("starting inbound reader")
	go r.loop(rctx, &logger)
}

// StopAll forgets every reader. Their loops end once their sources do.
func (m *Manager) StopAll() {
	m.mu.Lock()
	old := m.readers
	m.readers = make(map[string]*reader)
	m.mu.Unlock()
	for _, r := range old {
		r.cancel()
	}
}

func (m *Manager) Stats() []Stats {
	m.mu.RLock()
	out := make([]Stats, 0, len(m.readers))
	for _, r := range m.readers {
		out = append(out, r.stats())
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].TrackID < out[j].TrackID })
	return out
}
