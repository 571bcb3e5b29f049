package orch

import (
	"context"
	"errors"

	"github.com/dkeye/Duet/internal/core"
	"github.com/dkeye/Duet/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

// CreateSession builds a transport for role around media and installs it as
// the only session, tearing down whatever was there. An initiator mints and
// publishes a room token first; the token is returned for it only.
func (c *Controller) CreateSession(
	ctx context.Context,
	media core.MediaHandle,
	role domain.Role,
	cb Callbacks,
) (*core.Session, domain.RoomToken, error) {
	if media == nil {
		return nil, "", core.ErrNoMedia
	}

	var token domain.RoomToken
	if role.Initiator() {
		t, err := domain.NewRoomToken()
		if err != nil {
			return nil, "", err
		}
		token = t
		if c.Rendezvous != nil {
			c.Rendezvous.Set(core.RendezvousRoomKey, token.String())
			c.Rendezvous.Delete(core.RendezvousSignalKey)
		}
		log.Info().Str("module", "orch").Str("room", token.String()).Msg("room token minted")
	}

	// No stale connection may coexist with the one being built.
	c.Registry.Clear()

	b := &binding{ctrl: c, cb: cb}
	tr, err := c.Transports.NewTransport(core.TransportOptions{
		Initiator:  role.Initiator(),
		Media:      media,
		ICEServers: c.ICEServers,
		Trickle:    false,
	}, b.events())
	if err != nil {
		return nil, "", &core.TransportError{Op: "create", Err: err}
	}

	sess := core.NewSession(role, tr, media)
	b.sess = sess
	c.bind(b)
	c.Registry.Install(sess)

	if err := tr.Start(ctx); err != nil {
		sess.MarkErrored()
		c.Registry.Release(sess)
		log.Error().Err(err).Str("module", "orch").Str("sid", sess.String()).Msg("transport start")
		return nil, "", &core.TransportError{Op: "start", Err: err}
	}
	sess.MarkReady()

	log.Info().Str("module", "orch").Str("sid", sess.String()).Str("role", string(role)).Msg("session created")
	return sess, token, nil
}

// EndSession releases the transport and empties the registry. The media
// handle is only detached; the capture stays with its owner.
func (c *Controller) EndSession() {
	sess, ok := c.Current()
	if !ok {
		return
	}
	if c.Registry.Release(sess) {
		log.Info().Str("module", "orch").Str("sid", sess.String()).Msg("session ended")
	}
}

// binding relays one transport's events to the owner of one session.
type binding struct {
	ctrl *Controller
	cb   Callbacks
	sess *core.Session
}

func (b *binding) events() core.TransportEvents {
	return core.TransportEvents{
		OnSignal:  b.onSignal,
		OnConnect: b.onConnect,
		OnStream:  b.onStream,
		OnClose:   b.onClose,
		OnError:   b.onError,
	}
}

func (b *binding) onSignal(desc webrtc.SessionDescription) {
	env, err := b.ctrl.Codec.EncodeDescription(desc)
	if err != nil {
		b.onError(err)
		return
	}
	b.sess.MarkSignalProduced()
	log.Info().
		Str("module", "orch").
		Str("sid", b.sess.String()).
		Str("type", desc.Type.String()).
		Str("state", string(b.sess.State())).
		Msg("local signal ready")
	if b.cb.OnSignal != nil {
		b.cb.OnSignal(env)
	}
}

func (b *binding) onConnect() {
	if !b.sess.MarkConnected() {
		return
	}
	log.Info().Str("module", "orch").Str("sid", b.sess.String()).Msg("connected")
	if b.cb.OnConnected != nil {
		b.cb.OnConnected()
	}
}

func (b *binding) onStream(rm core.RemoteMedia) {
	if b.sess.State().Terminal() {
		return
	}
	log.Info().
		Str("module", "orch").
		Str("sid", b.sess.String()).
		Str("kind", rm.Kind).
		Str("stream_id", rm.StreamID).
		Msg("remote media")
	if b.cb.OnRemoteStream != nil {
		b.cb.OnRemoteStream(rm)
	}
}

func (b *binding) onClose() {
	closed := b.sess.MarkClosed()
	current := b.ctrl.Registry.Release(b.sess)
	if !closed || !current {
		return
	}
	log.Info().Str("module", "orch").Str("sid", b.sess.String()).Msg("closed by transport")
	if b.cb.OnClosed != nil {
		b.cb.OnClosed()
	}
}

func (b *binding) onError(err error) {
	errored := b.sess.MarkErrored()
	current := b.ctrl.Registry.Release(b.sess)
	if !errored || !current {
		return
	}
	var te *core.TransportError
	if !errors.As(err, &te) {
		te = &core.TransportError{Op: "event", Err: err}
	}
	log.Error().Err(err).Str("module", "orch").Str("sid", b.sess.String()).Msg("transport error")
	if b.cb.OnError != nil {
		b.cb.OnError(te)
	}
}
