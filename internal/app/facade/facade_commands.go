package facade

import (
	"errors"
	"strings"

	"github.com/dkeye/Duet/internal/app/orch"
	"github.com/dkeye/Duet/internal/core"
	"github.com/dkeye/Duet/internal/domain"
	"github.com/rs/zerolog/log"
)

// StartCall makes this side the initiator and creates the session. Calling it
// while a call is already set up does nothing.
func (f *Facade) StartCall() error {
	f.cmd.Lock()
	defer f.cmd.Unlock()

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	if f.attempt.initializing.Armed() {
		f.mu.Unlock()
		return nil
	}
	f.role = domain.RoleFor(false)
	f.mu.Unlock()

	return f.initialize()
}

// Join puts an invitation into the rendezvous slot and answers it as the
// responder. Any running call is ended first. envelope may be empty when the
// code is pasted later.
func (f *Facade) Join(token, envelope string) error {
	tok, err := domain.ParseRoomToken(token)
	if err != nil {
		return err
	}

	f.cmd.Lock()
	defer f.cmd.Unlock()

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	f.mu.Unlock()

	f.ctrl.EndSession()
	f.rv.Set(core.RendezvousRoomKey, tok.String())
	if envelope = strings.TrimSpace(envelope); envelope != "" {
		f.rv.Set(core.RendezvousSignalKey, envelope)
	} else {
		f.rv.Delete(core.RendezvousSignalKey)
	}

	f.mu.Lock()
	f.resetLocked()
	f.discoverLocked()
	f.mu.Unlock()

	log.Info().Str("module", "facade").Str("room", tok.String()).Msg("joining")
	return f.initialize()
}

// ConnectWithSignal feeds the peer's code in. A responder whose session is not
// ready yet keeps the code and forwards it once the session is.
func (f *Facade) ConnectWithSignal(envelope string) error {
	envelope = strings.TrimSpace(envelope)

	f.cmd.Lock()
	defer f.cmd.Unlock()

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	a := f.attempt
	if f.role == domain.RoleResponder && (a.sess == nil || !a.sess.Ready()) {
		f.pendingRemote = envelope
		f.mu.Unlock()
		log.Info().Str("module", "facade").Msg("remote signal kept until session is ready")
		return nil
	}
	if a.sess != nil {
		// a manual paste wins over any scheduled forward
		a.sess.AutoConnect.TryArm()
	}
	f.mu.Unlock()

	err := f.ctrl.SubmitRemoteSignal(envelope)
	f.reportSubmit(err)
	f.publish()
	return err
}

func (f *Facade) reportSubmit(err error) {
	switch {
	case err == nil:
	case core.IsSignalFormat(err):
		f.notify("Invalid code", "Check the code and try again", VariantDestructive)
	case errors.Is(err, core.ErrNoActiveSession):
		f.notify("No active call", "Start or join a call first", VariantDestructive)
	case errors.Is(err, core.ErrAlreadyNegotiated):
		log.Warn().Err(err).Str("module", "facade").Msg("duplicate remote signal")
	}
}

// EndCall tears the call down and forgets everything about it, the
// rendezvous slot included. Safe to call with no call running.
func (f *Facade) EndCall() {
	f.cmd.Lock()
	defer f.cmd.Unlock()

	f.mu.Lock()
	hadCall := f.attempt.sess != nil
	f.mu.Unlock()

	f.ctrl.EndSession()
	f.rv.Reset()

	f.mu.Lock()
	f.resetLocked()
	f.role = domain.RoleNone
	f.token = ""
	f.pendingRemote = ""
	f.lastErr = ""
	if f.mediaErr != nil {
		f.lastErr = f.mediaErr.Error()
	}
	f.mu.Unlock()

	if hadCall {
		f.notify("Call ended", "The connection was closed", VariantDestructive)
		log.Info().Str("module", "facade").Msg("call ended")
	}
	f.publish()
}

// ToggleAudio flips the local audio track. Without media it does nothing.
func (f *Facade) ToggleAudio() bool {
	f.mu.Lock()
	m := f.media
	f.mu.Unlock()
	if m == nil {
		return false
	}
	m.SetAudioEnabled(!m.AudioEnabled())
	f.publish()
	return m.AudioEnabled()
}

func (f *Facade) ToggleVideo() bool {
	f.mu.Lock()
	m := f.media
	f.mu.Unlock()
	if m == nil {
		return false
	}
	m.SetVideoEnabled(!m.VideoEnabled())
	f.publish()
	return m.VideoEnabled()
}

// initialize creates the session for the current role once per attempt.
// f.cmd must be held.
func (f *Facade) initialize() error {
	f.mu.Lock()
	a := f.attempt
	if f.media == nil {
		// acquireMedia already told the user
		f.mu.Unlock()
		return core.ErrMediaAccessDenied
	}
	if !a.initializing.TryArm() {
		f.mu.Unlock()
		return nil
	}
	media, role, ctx := f.media, f.role, f.ctx
	f.mu.Unlock()

	sess, token, err := f.ctrl.CreateSession(ctx, media, role, f.callbacks(a))
	if err != nil {
		f.mu.Lock()
		if f.attempt == a {
			a.initializing.Reset()
			f.lastErr = err.Error()
		}
		f.mu.Unlock()
		f.notify("Connection error", err.Error(), VariantDestructive)
		f.publish()
		return err
	}

	f.mu.Lock()
	a.sess = sess
	if role.Initiator() {
		f.token = token
	}
	f.lastErr = ""
	f.mu.Unlock()

	f.maybeAutoConnect(a)
	f.publish()
	return nil
}

// resetLocked drops the current attempt and everything it produced.
func (f *Facade) resetLocked() {
	f.attempt.stop()
	f.attempt = &attempt{}
	f.inbound.StopAll()
	f.localSignal = ""
	f.remote = nil
	f.setStatusLocked(false, false)
}

// setStatusLocked records a status pushed by the facade itself. Bumping the
// generation keeps an in-flight poll from writing an older reading back.
func (f *Facade) setStatusLocked(connected, secure bool) {
	f.connected, f.secure = connected, secure
	f.statusGen++
}

func (f *Facade) callbacks(a *attempt) orch.Callbacks {
	return orch.Callbacks{
		OnSignal: func(env string) {
			f.mu.Lock()
			if f.attempt != a {
				f.mu.Unlock()
				return
			}
			f.localSignal = env
			initiator := f.role.Initiator()
			f.mu.Unlock()

			if initiator {
				f.rv.Set(core.RendezvousSignalKey, env)
				f.notify("Room created", "Share the link to start a secure call", VariantDefault)
			} else {
				f.notify("Connection ready", "Secure connection established with peer", VariantDefault)
			}
			f.publish()
		},
		OnRemoteStream: func(rm core.RemoteMedia) {
			f.mu.Lock()
			if f.attempt != a {
				f.mu.Unlock()
				return
			}
			f.remote = append(f.remote, rm)
			ctx := f.ctx
			f.mu.Unlock()
			if rm.Track != nil {
				f.inbound.Start(ctx, rm.TrackID, rm.Kind, rm.Track)
			}
			f.publish()
		},
		OnConnected: func() {
			f.mu.Lock()
			if f.attempt != a {
				f.mu.Unlock()
				return
			}
			f.setStatusLocked(true, true)
			f.mu.Unlock()
			f.notify("Connected", "Secure call in progress", VariantDefault)
			f.publish()
		},
		OnClosed: func() {
			if !f.dropAttempt(a, "") {
				return
			}
			f.notify("Call ended", "The connection was closed", VariantDestructive)
			f.publish()
		},
		OnError: func(err error) {
			if !f.dropAttempt(a, err.Error()) {
				return
			}
			f.notify("Connection error", err.Error(), VariantDestructive)
			f.publish()
		},
	}
}

// dropAttempt returns the view to its pre-call state after the transport went
// away on its own. Role and token stay so the room can still be seen.
func (f *Facade) dropAttempt(a *attempt, errText string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.attempt != a {
		return false
	}
	f.resetLocked()
	f.pendingRemote = ""
	f.lastErr = errText
	return true
}
