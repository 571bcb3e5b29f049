// Package codec obfuscates handshake payloads for the copy/paste channel.
//
// This is a fixed-key XOR, not encryption: it keeps the description from
// being readable at a glance and nothing more. Whether a call is secure is
// decided by the transport, never here.
package codec

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/dkeye/Duet/internal/core"
	"github.com/pion/sdp/v3"
	"github.com/pion/webrtc/v4"
)

// DefaultKey is the pre-shared constant both parties compile in.
const DefaultKey = "DUET_SECURE_TALK_KEY"

type Codec struct {
	key []byte
}

var _ core.SignalCodec = (*Codec)(nil)

func New(key string) *Codec {
	if key == "" {
		key = DefaultKey
	}
	return &Codec{key: []byte(key)}
}

func (c *Codec) xor(in []byte) []byte {
	out := make([]byte, len(in))
	for i, b := range in {
		out[i] = b ^ c.key[i%len(c.key)]
	}
	return out
}

// Encode is deterministic; Decode(Encode(p)) == p for every p.
func (c *Codec) Encode(payload []byte) string {
	return base64.RawURLEncoding.EncodeToString(c.xor(payload))
}

func (c *Codec) Decode(envelope string) ([]byte, error) {
	envelope = strings.TrimRight(strings.TrimSpace(envelope), "=")
	raw, err := base64.RawURLEncoding.DecodeString(envelope)
	if err != nil {
		return nil, &core.SignalFormatError{Reason: "envelope is not base64", Err: err}
	}
	return c.xor(raw), nil
}

func (c *Codec) EncodeDescription(desc webrtc.SessionDescription) (string, error) {
	b, err := json.Marshal(desc)
	if err != nil {
		return "", err
	}
	return c.Encode(b), nil
}

func (c *Codec) DecodeDescription(envelope string) (webrtc.SessionDescription, error) {
	var desc webrtc.SessionDescription
	if strings.TrimSpace(envelope) == "" {
		return desc, &core.SignalFormatError{Reason: "empty envelope"}
	}
	b, err := c.Decode(envelope)
	if err != nil {
		return desc, err
	}
	if err := json.Unmarshal(b, &desc); err != nil {
		return desc, &core.SignalFormatError{Reason: "payload is not a session description", Err: err}
	}
	switch desc.Type {
	case webrtc.SDPTypeOffer, webrtc.SDPTypeAnswer:
	default:
		return desc, &core.SignalFormatError{Reason: "unsupported description type " + desc.Type.String()}
	}
	var parsed sdp.SessionDescription
	if err := parsed.Unmarshal([]byte(desc.SDP)); err != nil {
		return desc, &core.SignalFormatError{Reason: "invalid sdp", Err: err}
	}
	return desc, nil
}
