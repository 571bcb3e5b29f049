package media

import (
	"context"
	"testing"
	"time"

	"github.com/dkeye/Duet/internal/core"
	pionmedia "github.com/pion/webrtc/v4/pkg/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireAudioVideo(t *testing.T) {
	c := NewCapture(Options{Audio: true, Video: true})
	h, err := c.Acquire(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, h.ID())
	tracks := h.Tracks()
	require.Len(t, tracks, 2)
	assert.Equal(t, "audio", tracks[0].ID())
	assert.Equal(t, "video", tracks[1].ID())
	assert.Equal(t, h.ID(), tracks[0].StreamID())
	assert.True(t, h.AudioEnabled())
	assert.True(t, h.VideoEnabled())
	assert.Equal(t, 1, c.Live())
}

func TestAcquireDenied(t *testing.T) {
	c := NewCapture(Options{})
	_, err := c.Acquire(context.Background())
	assert.ErrorIs(t, err, core.ErrMediaAccessDenied)
	assert.Zero(t, c.Live())
}

func TestAcquireCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewCapture(Options{Audio: true}).Acquire(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestToggles(t *testing.T) {
	c := NewCapture(Options{Audio: true})
	h, err := c.Acquire(context.Background())
	require.NoError(t, err)

	h.SetAudioEnabled(false)
	assert.False(t, h.AudioEnabled())
	h.SetAudioEnabled(true)
	assert.True(t, h.AudioEnabled())

	// no video track to toggle
	h.SetVideoEnabled(true)
	assert.False(t, h.VideoEnabled())
	assert.Len(t, h.Tracks(), 1)
}

func TestWriteAfterRelease(t *testing.T) {
	c := NewCapture(Options{Audio: true, Video: true})
	h, err := c.Acquire(context.Background())
	require.NoError(t, err)
	s := h.(*Stream)

	frame := pionmedia.Sample{Data: []byte{0xf8, 0xff, 0xfe}, Duration: 20 * time.Millisecond}
	require.NoError(t, s.WriteAudio(frame))
	s.SetAudioEnabled(false)
	require.NoError(t, s.WriteAudio(frame))

	c.Release(h)
	c.Release(h)
	assert.Zero(t, c.Live())
	assert.ErrorIs(t, s.WriteAudio(frame), ErrStreamStopped)
	assert.ErrorIs(t, s.WriteVideo(frame), ErrStreamStopped)
}
