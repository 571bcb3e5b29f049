// Package rtctest provides an in-memory transport whose events are fired by
// the test instead of a network.
package rtctest

import (
	"context"
	"sync"

	"github.com/dkeye/Duet/internal/core"
	"github.com/pion/webrtc/v4"
)

const (
	OfferSDP  = "v=0\r\no=- 1001 1 IN IP4 0.0.0.0\r\ns=-\r\nt=0 0\r\na=group:BUNDLE 0\r\n"
	AnswerSDP = "v=0\r\no=- 2002 1 IN IP4 0.0.0.0\r\ns=-\r\nt=0 0\r\na=group:BUNDLE 0\r\n"
)

func Offer() webrtc.SessionDescription {
	return webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: OfferSDP}
}

func Answer() webrtc.SessionDescription {
	return webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: AnswerSDP}
}

// Factory hands out Transports and remembers every one of them.
type Factory struct {
	// Err fails NewTransport.
	Err error
	// StartErr fails Start on every new transport.
	StartErr error
	// SignalErr fails Signal on every new transport.
	SignalErr error
	// OfferOnStart makes an initiator emit its offer from inside Start.
	OfferOnStart bool
	// AnswerOnSignal makes a responder emit its answer when fed an offer.
	AnswerOnSignal bool

	mu         sync.Mutex
	transports []*Transport
}

func (f *Factory) NewTransport(opts core.TransportOptions, events core.TransportEvents) (core.Transport, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	t := &Transport{
		Opts:           opts,
		events:         events,
		startErr:       f.StartErr,
		signalErr:      f.SignalErr,
		offerOnStart:   f.OfferOnStart,
		answerOnSignal: f.AnswerOnSignal,
	}
	f.mu.Lock()
	f.transports = append(f.transports, t)
	f.mu.Unlock()
	return t, nil
}

func (f *Factory) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.transports)
}

func (f *Factory) Last() *Transport {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.transports) == 0 {
		return nil
	}
	return f.transports[len(f.transports)-1]
}

func (f *Factory) All() []*Transport {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Transport(nil), f.transports...)
}

type Transport struct {
	Opts core.TransportOptions

	events         core.TransportEvents
	startErr       error
	signalErr      error
	offerOnStart   bool
	answerOnSignal bool

	mu        sync.Mutex
	started   bool
	connected bool
	destroyed int
	signals   []webrtc.SessionDescription
}

func (t *Transport) Start(context.Context) error {
	if t.startErr != nil {
		return t.startErr
	}
	t.mu.Lock()
	t.started = true
	t.mu.Unlock()
	if t.offerOnStart && t.Opts.Initiator {
		t.EmitSignal(Offer())
	}
	return nil
}

func (t *Transport) Signal(desc webrtc.SessionDescription) error {
	if t.signalErr != nil {
		return t.signalErr
	}
	t.mu.Lock()
	t.signals = append(t.signals, desc)
	t.mu.Unlock()
	if t.answerOnSignal && desc.Type == webrtc.SDPTypeOffer {
		t.EmitSignal(Answer())
	}
	return nil
}

func (t *Transport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected && t.destroyed == 0
}

func (t *Transport) Destroy() error {
	t.mu.Lock()
	t.destroyed++
	t.connected = false
	t.mu.Unlock()
	return nil
}

func (t *Transport) Started() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.started
}

func (t *Transport) Destroyed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.destroyed
}

func (t *Transport) Signals() []webrtc.SessionDescription {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]webrtc.SessionDescription(nil), t.signals...)
}

func (t *Transport) EmitSignal(desc webrtc.SessionDescription) {
	if t.events.OnSignal != nil {
		t.events.OnSignal(desc)
	}
}

func (t *Transport) EmitConnect() {
	t.mu.Lock()
	t.connected = true
	t.mu.Unlock()
	if t.events.OnConnect != nil {
		t.events.OnConnect()
	}
}

func (t *Transport) EmitStream(rm core.RemoteMedia) {
	if t.events.OnStream != nil {
		t.events.OnStream(rm)
	}
}

func (t *Transport) EmitClose() {
	t.mu.Lock()
	t.connected = false
	t.mu.Unlock()
	if t.events.OnClose != nil {
		t.events.OnClose()
	}
}

func (t *Transport) EmitError(err error) {
	if t.events.OnError != nil {
		t.events.OnError(err)
	}
}
