package core

import "github.com/pion/webrtc/v4"

// SignalCodec turns a handshake payload into a copy/paste envelope and back.
// Decode failures are *SignalFormatError.
type SignalCodec interface {
	EncodeDescription(webrtc.SessionDescription) (string, error)
	DecodeDescription(envelope string) (webrtc.SessionDescription, error)
}
