// Package rendezvous keeps the shareable slot both parties look at. The slot
// is a URL whose query carries the room token and, optionally, a signal.
package rendezvous

import (
	"fmt"
	"net/url"
	"sync"

	"github.com/dkeye/Duet/internal/core"
	"github.com/rs/zerolog/log"
)

type Link struct {
	mu   sync.RWMutex
	base url.URL
	q    url.Values
}

var _ core.Rendezvous = (*Link)(nil)

// NewLink parses raw as the public address of this instance. Any query already
// present on raw seeds the slot.
func NewLink(raw string) (*Link, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse public url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("public url %q must be absolute", raw)
	}
	q := u.Query()
	u.RawQuery = ""
	u.Fragment = ""
	return &Link{base: *u, q: q}, nil
}

func (l *Link) Get(key string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.q.Get(key)
}

func (l *Link) Set(key, value string) {
	l.mu.Lock()
	l.q.Set(key, value)
	l.mu.Unlock()
	log.Debug().Str("module", "rendezvous").Str("key", key).Msg("set")
}

func (l *Link) Delete(key string) {
	l.mu.Lock()
	l.q.Del(key)
	l.mu.Unlock()
}

// Reset empties the slot.
func (l *Link) Reset() {
	l.mu.Lock()
	l.q = url.Values{}
	l.mu.Unlock()
	log.Debug().Str("module", "rendezvous").Msg("reset")
}

// Link renders the share URL. Without a room there is nothing to share.
func (l *Link) Link() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.q.Get(core.RendezvousRoomKey) == "" {
		return ""
	}
	u := l.base
	u.RawQuery = l.q.Encode()
	return u.String()
}

func (l *Link) String() string { return l.Link() }
