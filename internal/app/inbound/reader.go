// Package inbound drains the peer's tracks and keeps per-track receive stats.
package inbound

import (
	"context"
	"sync/atomic"

	"github.com/pion/interceptor"
	"github.com/pion/rtp"
	"github.com/rs/zerolog"
)

// Source is satisfied by *webrtc.TrackRemote.
type Source interface {
	ReadRTP() (*rtp.Packet, interceptor.Attributes, error)
}

type Stats struct {
	TrackID string `json:"track_id"`
	Kind    string `json:"kind"`
	Packets uint64 `json:"packets"`
	Bytes   uint64 `json:"bytes"`
	Lost    uint64 `json:"lost"`
	Active  bool   `json:"active"`
}

type reader struct {
	id   string
	kind string
	src  Source

	cancel context.CancelFunc

	packets atomic.Uint64
	bytes   atomic.Uint64
	lost    atomic.Uint64
	active  atomic.Bool

	// only touched by loop
	seen    bool
	lastSeq uint16
}

func newReader(id, kind string, src Source, cancel context.CancelFunc) *reader {
	r := &reader{id: id, kind: kind, src: src, cancel: cancel}
	r.active.Store(true)
	return r
}

// loop reads until the source fails or ctx ends. A blocked read only returns
// once the peer connection is closed.
func (r *reader) loop(ctx context.Context, logger *zerolog.Logger) {
	defer r.active.Store(false)
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("inbound ctx done")
			return
		default:
		}
		pkt, _, err := r.src.ReadRTP()
		if err != nil {
			logger.Info().Err(err).Msg("inbound read stopped")
			return
		}
		r.observe(pkt)
	}
}

func (r *reader) observe(pkt *rtp.Packet) {
	r.packets.Add(1)
	r.bytes.Add(uint64(len(pkt.Payload)))

	seq := pkt.SequenceNumber
	if r.seen {
		// forward gaps count as loss, late packets are ignored
		if gap := seq - r.lastSeq; gap > 0 && gap < 1<<15 {
			r.lost.Add(uint64(gap - 1))
			r.lastSeq = seq
		}
	} else {
		r.seen = true
		r.lastSeq = seq
	}
}

func (r *reader) stats() Stats {
	return Stats{
		TrackID: r.id,
		Kind:    r.kind,
		Packets: r.packets.Load(),
		Bytes:   r.bytes.Load(),
		Lost:    r.lost.Load(),
		Active:  r.active.Load(),
	}
}
