// Package facade is what presentation code talks to. It decides the role from
// the rendezvous slot, keeps one coherent snapshot of the call and turns user
// commands into controller calls.
package facade

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dkeye/Duet/internal/app/inbound"
	"github.com/dkeye/Duet/internal/app/orch"
	"github.com/dkeye/Duet/internal/core"
	"github.com/dkeye/Duet/internal/domain"
	"github.com/rs/zerolog/log"
)

const (
	DefaultAutoConnectDelay = 500 * time.Millisecond
	DefaultPollInterval     = time.Second

	maxNotices = 64
)

var (
	ErrAlreadyStarted = errors.New("facade already started")
	ErrClosed         = errors.New("facade closed")
)

// SessionController is the part of orch.Controller the facade drives.
type SessionController interface {
	CreateSession(ctx context.Context, media core.MediaHandle, role domain.Role, cb orch.Callbacks) (*core.Session, domain.RoomToken, error)
	SubmitRemoteSignal(envelope string) error
	EndSession()
	Status() (connected, secure bool)
}

type Options struct {
	AutoConnectDelay time.Duration
	PollInterval     time.Duration
}

func (o Options) withDefaults() Options {
	if o.AutoConnectDelay <= 0 {
		o.AutoConnectDelay = DefaultAutoConnectDelay
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	return o
}

// Snapshot is everything a view needs to render the call.
type Snapshot struct {
	Connected    bool               `json:"connected"`
	Secure       bool               `json:"secure"`
	Role         domain.Role        `json:"role"`
	RoomToken    domain.RoomToken   `json:"room_token,omitempty"`
	LocalSignal  string             `json:"local_signal,omitempty"`
	ShareLink    string             `json:"share_link,omitempty"`
	RemoteMedia  []core.RemoteMedia `json:"remote_media"`
	Inbound      []inbound.Stats    `json:"inbound,omitempty"`
	AudioEnabled bool               `json:"audio_enabled"`
	VideoEnabled bool               `json:"video_enabled"`
	Error        string             `json:"error,omitempty"`
}

type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// Notice is a short user-facing message about something that just happened.
type Notice struct {
	Seq         int     `json:"seq"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Variant     Variant `json:"variant"`
}

// attempt is one try at a call. Everything one-shot about a call hangs off
// it, so replacing the attempt resets every latch at once.
type attempt struct {
	initializing core.Latch
	sess         *core.Session
	timer        *time.Timer
}

func (a *attempt) stop() {
	if a.timer != nil {
		a.timer.Stop()
	}
}

type Facade struct {
	ctrl    SessionController
	capture core.MediaCapture
	rv      core.Rendezvous
	inbound *inbound.Manager
	opts    Options

	// cmd serializes commands and the auto-connect forward. Controller calls
	// are made under cmd only, never under mu, because transports may call
	// back synchronously.
	cmd sync.Mutex

	mu            sync.Mutex
	ctx           context.Context
	cancel        context.CancelFunc
	started       bool
	closed        bool
	media         core.MediaHandle
	mediaErr      error
	role          domain.Role
	token         domain.RoomToken
	localSignal   string
	pendingRemote string
	remote        []core.RemoteMedia
	connected     bool
	secure        bool
	statusGen     uint64
	lastErr       string
	attempt       *attempt
	notices       []Notice
	noticeSeq     int

	subsMu  sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int

	wg        sync.WaitGroup
	closeOnce sync.Once
}

func New(ctrl SessionController, capture core.MediaCapture, rv core.Rendezvous, opts Options) *Facade {
	return &Facade{
		ctrl:    ctrl,
		capture: capture,
		rv:      rv,
		inbound: inbound.NewManager(),
		opts:    opts.withDefaults(),
		attempt: &attempt{},
		subs:    make(map[int]func(Snapshot)),
	}
}

// Start acquires media, discovers the role and begins polling. A responder
// gets its session right away. Cancelling ctx has the same effect as Close.
// Media denial is not an error here; it shows up in the snapshot.
func (f *Facade) Start(ctx context.Context) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	if f.started {
		f.mu.Unlock()
		return ErrAlreadyStarted
	}
	f.started = true
	f.ctx, f.cancel = context.WithCancel(ctx)
	f.mu.Unlock()

	f.acquireMedia()

	f.cmd.Lock()
	f.mu.Lock()
	f.discoverLocked()
	role := f.role
	f.mu.Unlock()
	if role == domain.RoleResponder {
		_ = f.initialize()
	}
	f.cmd.Unlock()

	f.wg.Add(1)
	go f.poll()
	go func() {
		<-f.ctx.Done()
		f.Close()
	}()

	log.Info().Str("module", "facade").Str("role", string(role)).Msg("started")
	f.publish()
	return nil
}

func (f *Facade) acquireMedia() {
	h, err := f.capture.Acquire(f.ctx)
	f.mu.Lock()
	if err != nil {
		f.mediaErr = err
		f.lastErr = err.Error()
		f.mu.Unlock()
		log.Warn().Err(err).Str("module", "facade").Msg("media unavailable")
		f.notify("Media unavailable", "Camera and microphone could not be accessed", VariantDestructive)
		return
	}
	f.media = h
	f.mu.Unlock()
	log.Info().Str("module", "facade").Str("stream_id", h.ID()).Msg("media acquired")
}

// discoverLocked reads the rendezvous slot: a room there means we were
// invited. f.mu must be held.
func (f *Facade) discoverLocked() {
	f.role = domain.RoleNone
	f.token = ""
	f.pendingRemote = ""

	raw := f.rv.Get(core.RendezvousRoomKey)
	if raw == "" {
		return
	}
	tok, err := domain.ParseRoomToken(raw)
	if err != nil {
		log.Warn().Err(err).Str("module", "facade").Msg("ignoring room in link")
		return
	}
	f.role = domain.RoleFor(true)
	f.token = tok
	f.pendingRemote = f.rv.Get(core.RendezvousSignalKey)
}

// Close stops timers, ends the session and gives the media back. Safe to
// call more than once.
func (f *Facade) Close() {
	f.closeOnce.Do(func() {
		f.mu.Lock()
		f.closed = true
		cancel := f.cancel
		f.mu.Unlock()
		if cancel != nil {
			cancel()
		}

		f.cmd.Lock()
		f.mu.Lock()
		f.resetLocked()
		media := f.media
		f.media = nil
		f.mu.Unlock()
		f.ctrl.EndSession()
		f.cmd.Unlock()

		if media != nil {
			f.capture.Release(media)
		}
		f.wg.Wait()
		log.Info().Str("module", "facade").Msg("closed")
		f.publish()
	})
}

func (f *Facade) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

func (f *Facade) snapshotLocked() Snapshot {
	s := Snapshot{
		Connected:   f.connected,
		Secure:      f.secure,
		Role:        f.role,
		RoomToken:   f.token,
		LocalSignal: f.localSignal,
		RemoteMedia: append([]core.RemoteMedia{}, f.remote...),
		Inbound:     f.inbound.Stats(),
		Error:       f.lastErr,
	}
	if f.role != domain.RoleNone {
		s.ShareLink = f.rv.Link()
	}
	if f.media != nil {
		s.AudioEnabled = f.media.AudioEnabled()
		s.VideoEnabled = f.media.VideoEnabled()
	}
	return s
}

// Subscribe registers fn for every republished snapshot. fn runs on whatever
// goroutine caused the change and must not block.
func (f *Facade) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	f.subsMu.Lock()
	id := f.nextSub
	f.nextSub++
	f.subs[id] = fn
	f.subsMu.Unlock()
	return func() {
		f.subsMu.Lock()
		delete(f.subs, id)
		f.subsMu.Unlock()
	}
}

func (f *Facade) publish() {
	snap := f.Snapshot()
	f.subsMu.Lock()
	fns := make([]func(Snapshot), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.subsMu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

// Notices returns the notices newer than after and the newest sequence number.
func (f *Facade) Notices(after int) ([]Notice, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Notice
	for _, n := range f.notices {
		if n.Seq > after {
			out = append(out, n)
		}
	}
	return out, f.noticeSeq
}

func (f *Facade) notify(title, desc string, v Variant) {
	f.mu.Lock()
	f.noticeSeq++
	f.notices = append(f.notices, Notice{Seq: f.noticeSeq, Title: title, Description: desc, Variant: v})
	if len(f.notices) > maxNotices {
		f.notices = f.notices[len(f.notices)-maxNotices:]
	}
	f.mu.Unlock()
}
