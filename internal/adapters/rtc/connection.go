package rtc

import (
	"context"
	"errors"
	"sync"

	"github.com/dkeye/Duet/internal/core"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

var ErrConnectionClosed = errors.New("connection closed")

// Factory creates pion-backed transports sharing one API.
type Factory struct {
	API  *webrtc.API
	TURN TURNCredentials
}

var _ core.TransportFactory = (*Factory)(nil)

func (f *Factory) NewTransport(opts core.TransportOptions, events core.TransportEvents) (core.Transport, error) {
	api := f.API
	if api == nil {
		api = webrtc.NewAPI()
	}
	pc, err := api.NewPeerConnection(webrtc.Configuration{
		ICEServers: ICEServers(opts.ICEServers, f.TURN),
	})
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WebRTCConnection{
		pc:        pc,
		initiator: opts.Initiator,
		media:     opts.Media,
		events:    events,
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// WebRTCConnection is one non-trickle peer connection. Local descriptions are
// only emitted once ICE gathering has completed, so each side produces exactly
// one signal.
type WebRTCConnection struct {
	pc        *webrtc.PeerConnection
	initiator bool
	media     core.MediaHandle
	events    core.TransportEvents

	// ctx bounds background negotiation work; Destroy cancels it.
	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	connected bool
	closed    bool

	connectOnce sync.Once
	closeOnce   sync.Once
	destroyOnce sync.Once
}

// Start wires callbacks and local tracks. ctx bounds Start only; the
// connection lives until Destroy.
func (c *WebRTCConnection) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.pc.OnICEConnectionStateChange(func(s webrtc.ICEConnectionState) {
		log.Debug().Str("module", "rtc").Str("ice_state", s.String()).Msg("ICE state")
	})

	c.pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		log.Info().Str("module", "rtc").Str("peer_connection_state", s.String()).Msg("Peer state")
		switch s {
		case webrtc.PeerConnectionStateConnected:
			c.setConnected(true)
			c.connectOnce.Do(func() {
				if c.events.OnConnect != nil {
					c.events.OnConnect()
				}
			})
		case webrtc.PeerConnectionStateDisconnected:
			c.setConnected(false)
		case webrtc.PeerConnectionStateFailed:
			c.setConnected(false)
			// Teardown closes the PeerConnection; never do that on pion's callback goroutine.
			go c.emitError(&core.TransportError{Op: "connect", Err: errors.New("peer connection failed")})
		case webrtc.PeerConnectionStateClosed:
			c.setConnected(false)
			go c.emitClose()
		}
	})

	c.pc.OnTrack(func(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
		log.Info().
			Str("module", "rtc").
			Str("kind", track.Kind().String()).
			Str("track_id", track.ID()).
			Str("stream_id", track.StreamID()).
			Msg("OnTrack received")
		if c.events.OnStream != nil {
			c.events.OnStream(core.RemoteMedia{
				StreamID: track.StreamID(),
				TrackID:  track.ID(),
				Kind:     track.Kind().String(),
				Track:    track,
			})
		}
	})

	if c.media != nil {
		for _, t := range c.media.Tracks() {
			sender, err := c.pc.AddTrack(t)
			if err != nil {
				return err
			}
			go c.drainRTCP(sender)
		}
	}

	if c.initiator {
		go c.produce(c.pc.CreateOffer, "offer")
	}
	return nil
}

// drainRTCP keeps interceptors fed; pion needs RTCP read for NACK to work.
func (c *WebRTCConnection) drainRTCP(sender *webrtc.RTPSender) {
	buf := make([]byte, 1500)
	for {
		if _, _, err := sender.Read(buf); err != nil {
			return
		}
	}
}

func (c *WebRTCConnection) produce(create func(*webrtc.OfferOptions) (webrtc.SessionDescription, error), op string) {
	desc, err := create(nil)
	if err != nil {
		c.emitError(&core.TransportError{Op: op, Err: err})
		return
	}
	c.publishLocal(desc, op)
}

func (c *WebRTCConnection) publishLocal(desc webrtc.SessionDescription, op string) {
	gatherComplete := webrtc.GatheringCompletePromise(c.pc)
	if err := c.pc.SetLocalDescription(desc); err != nil {
		c.emitError(&core.TransportError{Op: op, Err: err})
		return
	}
	select {
	case <-gatherComplete:
	case <-c.ctx.Done():
		return
	}
	local := c.pc.LocalDescription()
	if local == nil || c.isClosed() {
		return
	}
	log.Info().Str("module", "rtc").Str("type", local.Type.String()).Msg("local description ready")
	if c.events.OnSignal != nil {
		c.events.OnSignal(*local)
	}
}

// Signal applies the peer's description. A responder answers asynchronously.
func (c *WebRTCConnection) Signal(desc webrtc.SessionDescription) error {
	if c.isClosed() {
		return ErrConnectionClosed
	}
	if err := c.pc.SetRemoteDescription(desc); err != nil {
		return err
	}
	if desc.Type == webrtc.SDPTypeOffer {
		go c.produce(func(*webrtc.OfferOptions) (webrtc.SessionDescription, error) {
			return c.pc.CreateAnswer(nil)
		}, "answer")
	}
	return nil
}

func (c *WebRTCConnection) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected && !c.closed
}

func (c *WebRTCConnection) Destroy() error {
	var err error
	c.destroyOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.connected = false
		c.mu.Unlock()
		c.cancel()
		if err = c.pc.Close(); err != nil {
			log.Error().Err(err).Str("module", "rtc").Msg("close error")
		} else {
			log.Info().Str("module", "rtc").Msg("closed")
		}
	})
	return err
}

func (c *WebRTCConnection) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}

func (c *WebRTCConnection) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *WebRTCConnection) emitClose() {
	c.closeOnce.Do(func() {
		if c.events.OnClose != nil {
			c.events.OnClose()
		}
	})
}

func (c *WebRTCConnection) emitError(err error) {
	if c.isClosed() {
		return
	}
	log.Error().Err(err).Str("module", "rtc").Msg("transport error")
	if c.events.OnError != nil {
		c.events.OnError(err)
	}
}
