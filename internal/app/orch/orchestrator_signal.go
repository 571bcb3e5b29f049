package orch

import (
	"fmt"

	"github.com/dkeye/Duet/internal/core"
	"github.com/dkeye/Duet/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

// SubmitRemoteSignal decodes the peer's envelope and hands it to the
// transport. A bad paste never disturbs the session it was aimed at.
func (c *Controller) SubmitRemoteSignal(envelope string) error {
	sess, ok := c.Current()
	if !ok {
		log.Warn().Str("module", "orch").Msg("remote signal: no active session")
		return core.ErrNoActiveSession
	}

	desc, err := c.Codec.DecodeDescription(envelope)
	if err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("sid", sess.String()).Msg("remote signal: bad envelope")
		return err
	}
	if want := expectedRemoteType(sess.Role()); desc.Type != want {
		err := &core.SignalFormatError{Reason: fmt.Sprintf("expected %s from peer, got %s", want, desc.Type)}
		log.Warn().Err(err).Str("module", "orch").Str("sid", sess.String()).Msg("remote signal: wrong direction")
		return err
	}

	if err := sess.AcceptRemote(); err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("sid", sess.String()).Str("state", string(sess.State())).Msg("remote signal rejected")
		return err
	}

	if err := sess.Transport().Signal(desc); err != nil {
		te := &core.TransportError{Op: "signal", Err: err}
		if b := c.bindingFor(sess); b != nil {
			b.onError(te)
		} else {
			sess.MarkErrored()
			c.Registry.Release(sess)
		}
		return te
	}

	log.Info().Str("module", "orch").Str("sid", sess.String()).Str("type", desc.Type.String()).Msg("remote signal applied")
	return nil
}

func expectedRemoteType(role domain.Role) webrtc.SDPType {
	if role.Initiator() {
		return webrtc.SDPTypeAnswer
	}
	return webrtc.SDPTypeOffer
}
