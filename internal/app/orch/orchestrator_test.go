package orch

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dkeye/Duet/internal/adapters/codec"
	"github.com/dkeye/Duet/internal/adapters/rtc/rtctest"
	"github.com/dkeye/Duet/internal/app"
	"github.com/dkeye/Duet/internal/core"
	"github.com/dkeye/Duet/internal/core/mocks"
	"github.com/dkeye/Duet/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type recorder struct {
	mu        sync.Mutex
	signals   []string
	streams   []core.RemoteMedia
	connected int
	closed    int
	errs      []error
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnSignal: func(env string) {
			r.mu.Lock()
			r.signals = append(r.signals, env)
			r.mu.Unlock()
		},
		OnRemoteStream: func(rm core.RemoteMedia) {
			r.mu.Lock()
			r.streams = append(r.streams, rm)
			r.mu.Unlock()
		},
		OnConnected: func() {
			r.mu.Lock()
			r.connected++
			r.mu.Unlock()
		},
		OnClosed: func() {
			r.mu.Lock()
			r.closed++
			r.mu.Unlock()
		},
		OnError: func(err error) {
			r.mu.Lock()
			r.errs = append(r.errs, err)
			r.mu.Unlock()
		},
	}
}

type fixture struct {
	ctrl    *Controller
	factory *rtctest.Factory
	codec   *codec.Codec
	media   core.MediaHandle
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mc := gomock.NewController(t)
	rv := mocks.NewMockRendezvous(mc)
	rv.EXPECT().Set(core.RendezvousRoomKey, gomock.Any()).AnyTimes()
	rv.EXPECT().Delete(core.RendezvousSignalKey).AnyTimes()

	f := &fixture{
		factory: &rtctest.Factory{},
		codec:   codec.New(""),
		media:   mocks.NewMockMediaHandle(mc),
	}
	f.ctrl = &Controller{
		Registry:   app.NewRegistry(),
		Transports: f.factory,
		Codec:      f.codec,
		Rendezvous: rv,
		ICEServers: []string{"stun:stun.l.google.com:19302"},
	}
	return f
}

func (f *fixture) envelope(t *testing.T, desc webrtc.SessionDescription) string {
	t.Helper()
	env, err := f.codec.EncodeDescription(desc)
	require.NoError(t, err)
	return env
}

func TestCreateSessionInitiator(t *testing.T) {
	mc := gomock.NewController(t)
	rv := mocks.NewMockRendezvous(mc)
	var published string
	rv.EXPECT().Set(core.RendezvousRoomKey, gomock.Any()).Do(func(_, v string) { published = v })
	rv.EXPECT().Delete(core.RendezvousSignalKey)

	f := newFixture(t)
	f.ctrl.Rendezvous = rv
	rec := &recorder{}

	sess, token, err := f.ctrl.CreateSession(context.Background(), f.media, domain.RoleInitiator, rec.callbacks())
	require.NoError(t, err)
	assert.Len(t, token.String(), domain.RoomTokenLen)
	assert.Equal(t, token.String(), published)
	assert.Equal(t, domain.StateCreated, sess.State())
	assert.True(t, sess.Ready())

	tr := f.factory.Last()
	require.NotNil(t, tr)
	assert.True(t, tr.Opts.Initiator)
	assert.False(t, tr.Opts.Trickle)
	assert.Equal(t, f.ctrl.ICEServers, tr.Opts.ICEServers)
	assert.True(t, tr.Started())

	tr.EmitSignal(rtctest.Offer())
	assert.Equal(t, domain.StateAwaitingSignal, sess.State())
	require.Len(t, rec.signals, 1)
	assert.NotEmpty(t, rec.signals[0])

	decoded, err := f.codec.DecodeDescription(rec.signals[0])
	require.NoError(t, err)
	assert.Equal(t, webrtc.SDPTypeOffer, decoded.Type)
}

func TestCreateSessionResponderDoesNotMint(t *testing.T) {
	mc := gomock.NewController(t)
	rv := mocks.NewMockRendezvous(mc) // no calls expected

	f := newFixture(t)
	f.ctrl.Rendezvous = rv

	sess, token, err := f.ctrl.CreateSession(context.Background(), f.media, domain.RoleResponder, Callbacks{})
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Equal(t, domain.RoleResponder, sess.Role())
	assert.False(t, f.factory.Last().Opts.Initiator)
}

func TestCreateSessionRequiresMedia(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.ctrl.CreateSession(context.Background(), nil, domain.RoleInitiator, Callbacks{})
	assert.ErrorIs(t, err, core.ErrNoMedia)
	assert.Equal(t, 0, f.factory.Count())
}

func TestSecondSessionReplacesFirst(t *testing.T) {
	f := newFixture(t)
	rec := &recorder{}

	first, _, err := f.ctrl.CreateSession(context.Background(), f.media, domain.RoleInitiator, rec.callbacks())
	require.NoError(t, err)
	firstTr := f.factory.Last()

	second, _, err := f.ctrl.CreateSession(context.Background(), f.media, domain.RoleInitiator, rec.callbacks())
	require.NoError(t, err)

	cur, ok := f.ctrl.Current()
	require.True(t, ok)
	assert.Same(t, second, cur)
	assert.Equal(t, 1, firstTr.Destroyed())
	assert.Equal(t, domain.StateClosed, first.State())
	assert.Equal(t, 0, f.factory.Last().Destroyed())

	// the replaced transport going down later is not news to anyone
	firstTr.EmitClose()
	firstTr.EmitError(errors.New("late"))
	assert.Zero(t, rec.closed)
	assert.Empty(t, rec.errs)
	_, ok = f.ctrl.Current()
	assert.True(t, ok)
}

func TestSubmitWithoutSession(t *testing.T) {
	f := newFixture(t)
	err := f.ctrl.SubmitRemoteSignal(f.envelope(t, rtctest.Answer()))
	assert.ErrorIs(t, err, core.ErrNoActiveSession)
	_, ok := f.ctrl.Current()
	assert.False(t, ok)
}

func TestSubmitBadEnvelopeKeepsSession(t *testing.T) {
	f := newFixture(t)
	sess, _, err := f.ctrl.CreateSession(context.Background(), f.media, domain.RoleInitiator, Callbacks{})
	require.NoError(t, err)
	f.factory.Last().EmitSignal(rtctest.Offer())

	err = f.ctrl.SubmitRemoteSignal("definitely not a code")
	assert.True(t, core.IsSignalFormat(err))
	assert.Equal(t, domain.StateAwaitingSignal, sess.State())
	assert.Empty(t, f.factory.Last().Signals())

	cur, ok := f.ctrl.Current()
	require.True(t, ok)
	assert.Same(t, sess, cur)
}

func TestSubmitWrongDirection(t *testing.T) {
	f := newFixture(t)
	sess, _, err := f.ctrl.CreateSession(context.Background(), f.media, domain.RoleInitiator, Callbacks{})
	require.NoError(t, err)
	f.factory.Last().EmitSignal(rtctest.Offer())

	// pasting our own offer back
	err = f.ctrl.SubmitRemoteSignal(f.envelope(t, rtctest.Offer()))
	assert.True(t, core.IsSignalFormat(err))
	assert.Equal(t, domain.StateAwaitingSignal, sess.State())
}

func TestSubmitBeforeOfferProduced(t *testing.T) {
	f := newFixture(t)
	sess, _, err := f.ctrl.CreateSession(context.Background(), f.media, domain.RoleInitiator, Callbacks{})
	require.NoError(t, err)

	err = f.ctrl.SubmitRemoteSignal(f.envelope(t, rtctest.Answer()))
	assert.ErrorIs(t, err, core.ErrNoActiveSession)
	assert.Equal(t, domain.StateCreated, sess.State())
}

func TestSubmitTwiceRejected(t *testing.T) {
	f := newFixture(t)
	f.factory.AnswerOnSignal = true
	rec := &recorder{}
	sess, _, err := f.ctrl.CreateSession(context.Background(), f.media, domain.RoleResponder, rec.callbacks())
	require.NoError(t, err)

	require.NoError(t, f.ctrl.SubmitRemoteSignal(f.envelope(t, rtctest.Offer())))
	assert.Equal(t, domain.StateSignalExchanged, sess.State())
	require.Len(t, rec.signals, 1, "responder answers exactly once")

	other := rtctest.Offer()
	other.SDP = rtctest.AnswerSDP
	err = f.ctrl.SubmitRemoteSignal(f.envelope(t, other))
	assert.ErrorIs(t, err, core.ErrAlreadyNegotiated)
	assert.Len(t, f.factory.Last().Signals(), 1)
	assert.Equal(t, domain.StateSignalExchanged, sess.State())
}

func TestConnectMarksSecure(t *testing.T) {
	f := newFixture(t)
	rec := &recorder{}
	sess, _, err := f.ctrl.CreateSession(context.Background(), f.media, domain.RoleInitiator, rec.callbacks())
	require.NoError(t, err)
	tr := f.factory.Last()

	tr.EmitSignal(rtctest.Offer())
	connected, secure := f.ctrl.Status()
	assert.False(t, connected)
	assert.False(t, secure)

	require.NoError(t, f.ctrl.SubmitRemoteSignal(f.envelope(t, rtctest.Answer())))
	tr.EmitConnect()
	tr.EmitConnect()

	assert.Equal(t, domain.StateConnected, sess.State())
	assert.True(t, sess.Secure())
	assert.Equal(t, 1, rec.connected)
	connected, secure = f.ctrl.Status()
	assert.True(t, connected)
	assert.True(t, secure)

	tr.EmitStream(core.RemoteMedia{StreamID: "s1", TrackID: "t1", Kind: "video"})
	require.Len(t, rec.streams, 1)
	assert.Equal(t, "video", rec.streams[0].Kind)
}

func TestErrorEventTearsDown(t *testing.T) {
	f := newFixture(t)
	rec := &recorder{}
	sess, _, err := f.ctrl.CreateSession(context.Background(), f.media, domain.RoleResponder, rec.callbacks())
	require.NoError(t, err)
	tr := f.factory.Last()

	tr.EmitError(errors.New("ice failed"))

	_, ok := f.ctrl.Current()
	assert.False(t, ok)
	assert.Equal(t, domain.StateErrored, sess.State())
	assert.Equal(t, 1, tr.Destroyed())
	require.Len(t, rec.errs, 1)
	assert.True(t, core.IsTransport(rec.errs[0]))

	// a second error for the same session is swallowed
	tr.EmitError(errors.New("again"))
	assert.Len(t, rec.errs, 1)
}

func TestCloseEventTearsDown(t *testing.T) {
	f := newFixture(t)
	rec := &recorder{}
	sess, _, err := f.ctrl.CreateSession(context.Background(), f.media, domain.RoleInitiator, rec.callbacks())
	require.NoError(t, err)
	tr := f.factory.Last()
	tr.EmitSignal(rtctest.Offer())
	require.NoError(t, f.ctrl.SubmitRemoteSignal(f.envelope(t, rtctest.Answer())))
	tr.EmitConnect()

	tr.EmitClose()

	assert.Equal(t, domain.StateClosed, sess.State())
	assert.False(t, sess.Secure())
	assert.Equal(t, 1, rec.closed)
	_, ok := f.ctrl.Current()
	assert.False(t, ok)
	connected, secure := f.ctrl.Status()
	assert.False(t, connected)
	assert.False(t, secure)
}

func TestEndSessionIdempotent(t *testing.T) {
	f := newFixture(t)
	rec := &recorder{}
	f.ctrl.EndSession()

	sess, _, err := f.ctrl.CreateSession(context.Background(), f.media, domain.RoleInitiator, rec.callbacks())
	require.NoError(t, err)
	tr := f.factory.Last()

	f.ctrl.EndSession()
	_, ok := f.ctrl.Current()
	assert.False(t, ok)
	f.ctrl.EndSession()
	_, ok = f.ctrl.Current()
	assert.False(t, ok)

	assert.Equal(t, domain.StateClosed, sess.State())
	assert.Equal(t, 1, tr.Destroyed())

	// the transport reporting its own close afterwards changes nothing
	tr.EmitClose()
	assert.Zero(t, rec.closed)
}

func TestTransportSignalFailureIsFatal(t *testing.T) {
	f := newFixture(t)
	f.factory.SignalErr = errors.New("set remote description")
	rec := &recorder{}
	sess, _, err := f.ctrl.CreateSession(context.Background(), f.media, domain.RoleResponder, rec.callbacks())
	require.NoError(t, err)

	err = f.ctrl.SubmitRemoteSignal(f.envelope(t, rtctest.Offer()))
	assert.True(t, core.IsTransport(err))
	assert.Equal(t, domain.StateErrored, sess.State())
	_, ok := f.ctrl.Current()
	assert.False(t, ok)
	assert.Len(t, rec.errs, 1)
}

func TestTransportCreateAndStartFailures(t *testing.T) {
	f := newFixture(t)
	f.factory.Err = errors.New("no api")
	_, _, err := f.ctrl.CreateSession(context.Background(), f.media, domain.RoleInitiator, Callbacks{})
	assert.True(t, core.IsTransport(err))

	f.factory.Err = nil
	f.factory.StartErr = errors.New("add track")
	_, _, err = f.ctrl.CreateSession(context.Background(), f.media, domain.RoleInitiator, Callbacks{})
	assert.True(t, core.IsTransport(err))
	_, ok := f.ctrl.Current()
	assert.False(t, ok)
	assert.Equal(t, 1, f.factory.Last().Destroyed())
}
