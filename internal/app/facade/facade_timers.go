package facade

import (
	"errors"
	"time"

	"github.com/dkeye/Duet/internal/core"
	"github.com/dkeye/Duet/internal/domain"
	"github.com/rs/zerolog/log"
)

// maybeAutoConnect schedules the single forward of a pending remote signal
// for a responder whose session is ready but not connected.
func (f *Facade) maybeAutoConnect(a *attempt) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || f.attempt != a || a.sess == nil {
		return
	}
	if f.role != domain.RoleResponder || f.pendingRemote == "" || f.connected {
		return
	}
	if !a.sess.Ready() || !a.sess.AutoConnect.TryArm() {
		return
	}
	log.Info().
		Str("module", "facade").
		Str("sid", a.sess.String()).
		Dur("delay", f.opts.AutoConnectDelay).
		Msg("auto-connect scheduled")
	a.timer = time.AfterFunc(f.opts.AutoConnectDelay, func() { f.autoConnect(a) })
}

func (f *Facade) autoConnect(a *attempt) {
	f.cmd.Lock()
	defer f.cmd.Unlock()

	f.mu.Lock()
	if f.closed || f.attempt != a || a.sess == nil || a.sess.State().Negotiated() {
		f.mu.Unlock()
		return
	}
	env := f.pendingRemote
	sid := a.sess.String()
	f.mu.Unlock()

	err := f.ctrl.SubmitRemoteSignal(env)
	if err != nil && !errors.Is(err, core.ErrAlreadyNegotiated) {
		log.Warn().Err(err).Str("module", "facade").Str("sid", sid).Msg("auto-connect failed")
	} else if err == nil {
		log.Info().Str("module", "facade").Str("sid", sid).Msg("auto-connect forwarded")
	}
	f.reportSubmit(err)
	f.publish()
}

// poll catches changes the facade did not cause itself, such as a session
// torn down in the background.
func (f *Facade) poll() {
	defer f.wg.Done()
	t := time.NewTicker(f.opts.PollInterval)
	defer t.Stop()
	for {
		select {
		case <-f.ctx.Done():
			return
		case <-t.C:
			f.pollOnce()
		}
	}
}

func (f *Facade) pollOnce() {
	f.mu.Lock()
	gen := f.statusGen
	f.mu.Unlock()

	connected, secure := f.ctrl.Status()

	f.mu.Lock()
	// a callback or reset since the read is newer than what we polled
	stale := gen != f.statusGen
	changed := !stale && (connected != f.connected || secure != f.secure)
	if changed {
		f.connected, f.secure = connected, secure
	}
	a := f.attempt
	f.mu.Unlock()

	f.maybeAutoConnect(a)
	if changed {
		log.Debug().Str("module", "facade").Bool("connected", connected).Bool("secure", secure).Msg("status changed")
		f.publish()
	}
}
