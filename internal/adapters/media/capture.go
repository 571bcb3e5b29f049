// Package media provides the local capture collaborator: pion sample tracks
// fed by whatever produces encoded frames.
package media

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/dkeye/Duet/internal/core"
	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
	pionmedia "github.com/pion/webrtc/v4/pkg/media"
	"github.com/rs/zerolog/log"
)

var ErrStreamStopped = errors.New("stream stopped")

type Options struct {
	Audio bool
	Video bool
}

// Capture hands out local streams. Which kinds may be captured is decided by
// Options; asking for nothing is treated as denied access.
type Capture struct {
	opts Options

	mu   sync.Mutex
	live map[string]*Stream
}

var _ core.MediaCapture = (*Capture)(nil)

func NewCapture(opts Options) *Capture {
	return &Capture{opts: opts, live: make(map[string]*Stream)}
}

func (c *Capture) Acquire(ctx context.Context) (core.MediaHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !c.opts.Audio && !c.opts.Video {
		log.Warn().Str("module", "media").Msg("capture denied by configuration")
		return nil, core.ErrMediaAccessDenied
	}

	s := &Stream{id: uuid.NewString()}
	if c.opts.Audio {
		t, err := webrtc.NewTrackLocalStaticSample(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus}, "audio", s.id)
		if err != nil {
			return nil, err
		}
		s.audio = t
		s.audioOn.Store(true)
	}
	if c.opts.Video {
		t, err := webrtc.NewTrackLocalStaticSample(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8}, "video", s.id)
		if err != nil {
			return nil, err
		}
		s.video = t
		s.videoOn.Store(true)
	}

	c.mu.Lock()
	c.live[s.id] = s
	c.mu.Unlock()
	log.Info().Str("module", "media").Str("stream_id", s.id).Bool("audio", c.opts.Audio).Bool("video", c.opts.Video).Msg("acquired")
	return s, nil
}

// Release stops the stream. Later writes fail with ErrStreamStopped.
func (c *Capture) Release(h core.MediaHandle) {
	if h == nil {
		return
	}
	c.mu.Lock()
	s, ok := c.live[h.ID()]
	delete(c.live, h.ID())
	c.mu.Unlock()
	if !ok {
		return
	}
	s.stopped.Store(true)
	log.Info().Str("module", "media").Str("stream_id", s.id).Msg("released")
}

// Live reports how many streams are still held.
func (c *Capture) Live() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.live)
}

type Stream struct {
	id    string
	audio *webrtc.TrackLocalStaticSample
	video *webrtc.TrackLocalStaticSample

	audioOn atomic.Bool
	videoOn atomic.Bool
	stopped atomic.Bool
}

func (s *Stream) ID() string { return s.id }

func (s *Stream) Tracks() []webrtc.TrackLocal {
	var out []webrtc.TrackLocal
	if s.audio != nil {
		out = append(out, s.audio)
	}
	if s.video != nil {
		out = append(out, s.video)
	}
	return out
}

func (s *Stream) AudioEnabled() bool { return s.audio != nil && s.audioOn.Load() }
func (s *Stream) VideoEnabled() bool { return s.video != nil && s.videoOn.Load() }

func (s *Stream) SetAudioEnabled(v bool) {
	if s.audio != nil {
		s.audioOn.Store(v)
	}
}

func (s *Stream) SetVideoEnabled(v bool) {
	if s.video != nil {
		s.videoOn.Store(v)
	}
}

// WriteAudio sends one encoded opus frame. Frames are dropped while audio is off.
func (s *Stream) WriteAudio(sample pionmedia.Sample) error {
	return s.write(s.audio, &s.audioOn, sample)
}

// WriteVideo sends one encoded VP8 frame. Frames are dropped while video is off.
func (s *Stream) WriteVideo(sample pionmedia.Sample) error {
	return s.write(s.video, &s.videoOn, sample)
}

func (s *Stream) write(t *webrtc.TrackLocalStaticSample, on *atomic.Bool, sample pionmedia.Sample) error {
	if s.stopped.Load() {
		return ErrStreamStopped
	}
	if t == nil || !on.Load() {
		return nil
	}
	return t.WriteSample(sample)
}
