package core

import (
	"context"

	"github.com/pion/webrtc/v4"
)

// MediaHandle is a captured local stream. Toggles act on the capture, never on a Session.
type MediaHandle interface {
	ID() string
	Tracks() []webrtc.TrackLocal
	AudioEnabled() bool
	VideoEnabled() bool
	SetAudioEnabled(bool)
	SetVideoEnabled(bool)
}

type MediaCapture interface {
	// Acquire fails with ErrMediaAccessDenied when capture is not permitted.
	Acquire(ctx context.Context) (MediaHandle, error)
	Release(MediaHandle)
}

// RemoteMedia is one track the peer sent us.
type RemoteMedia struct {
	StreamID string              `json:"stream_id"`
	TrackID  string              `json:"track_id"`
	Kind     string              `json:"kind"`
	Track    *webrtc.TrackRemote `json:"-"`
}
