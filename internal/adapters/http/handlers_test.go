package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/Duet/internal/app/facade"
	"github.com/dkeye/Duet/internal/config"
	"github.com/dkeye/Duet/internal/core"
	"github.com/dkeye/Duet/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCall struct {
	mu        sync.Mutex
	snap      facade.Snapshot
	notices   []facade.Notice
	startErr  error
	joinErr   error
	signalErr error
	joined    []string
	signals   []string
	ended     int
	audio     bool
	subs      map[int]func(facade.Snapshot)
	nextSub   int
}

func newFakeCall() *fakeCall {
	return &fakeCall{audio: true, subs: map[int]func(facade.Snapshot){}}
}

func (f *fakeCall) Snapshot() facade.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeCall) Subscribe(fn func(facade.Snapshot)) func() {
	f.mu.Lock()
	id := f.nextSub
	f.nextSub++
	f.subs[id] = fn
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}
}

func (f *fakeCall) publish(s facade.Snapshot) {
	f.mu.Lock()
	f.snap = s
	fns := make([]func(facade.Snapshot), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}

func (f *fakeCall) subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *fakeCall) Notices(after int) ([]facade.Notice, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []facade.Notice
	last := 0
	for _, n := range f.notices {
		if n.Seq > after {
			out = append(out, n)
		}
		last = n.Seq
	}
	return out, last
}

func (f *fakeCall) StartCall() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr == nil {
		f.snap.Role = domain.RoleInitiator
	}
	return f.startErr
}

func (f *fakeCall) Join(token, envelope string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joined = append(f.joined, token+"|"+envelope)
	return f.joinErr
}

func (f *fakeCall) ConnectWithSignal(envelope string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signals = append(f.signals, envelope)
	return f.signalErr
}

func (f *fakeCall) EndCall() {
	f.mu.Lock()
	f.ended++
	f.snap = facade.Snapshot{}
	f.mu.Unlock()
}

func (f *fakeCall) ToggleAudio() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audio = !f.audio
	return f.audio
}

func (f *fakeCall) ToggleVideo() bool { return false }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Mode:       "test",
		StaticPath: t.TempDir(),
		Secret:     "test-secret",
		ReadLimit:  4096,
		PingPeriod: time.Second,
		Call: config.CallConfig{
			SignalRateLimit:    3,
			SignalRateInterval: time.Minute,
		},
	}
}

func newTestRouter(t *testing.T, call Call) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return SetupRouter(ctx, testConfig(t), call)
}

func do(r http.Handler, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestStateReturnsSnapshot(t *testing.T) {
	call := newFakeCall()
	call.snap = facade.Snapshot{Connected: true, Secure: true, Role: domain.RoleResponder, RoomToken: "abc123"}
	r := newTestRouter(t, call)

	w := do(r, http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got facade.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, call.snap.RoomToken, got.RoomToken)
	assert.True(t, got.Secure)
}

func TestClientTokenCookieIssued(t *testing.T) {
	r := newTestRouter(t, newFakeCall())
	w := do(r, http.MethodGet, "/api/state", "")
	var found bool
	for _, c := range w.Result().Cookies() {
		if c.Name == "ct" && c.Value != "" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestStartAndEndCall(t *testing.T) {
	call := newFakeCall()
	r := newTestRouter(t, call)

	w := do(r, http.MethodPost, "/api/call", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"initiator"`)

	w = do(r, http.MethodDelete, "/api/call", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, call.ended)
}

func TestStartCallMediaDenied(t *testing.T) {
	call := newFakeCall()
	call.startErr = core.ErrMediaAccessDenied
	r := newTestRouter(t, call)

	w := do(r, http.MethodPost, "/api/call", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestConnectWithSignal(t *testing.T) {
	call := newFakeCall()
	r := newTestRouter(t, call)

	w := do(r, http.MethodPost, "/api/call/signal", `{"signal":"abc"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"abc"}, call.signals)

	w = do(r, http.MethodPost, "/api/call/signal", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConnectWithSignalErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&core.SignalFormatError{Reason: "bad"}, http.StatusBadRequest},
		{core.ErrNoActiveSession, http.StatusConflict},
		{core.ErrAlreadyNegotiated, http.StatusConflict},
		{&core.TransportError{Op: "signal", Err: errors.New("x")}, http.StatusBadGateway},
		{facade.ErrClosed, http.StatusServiceUnavailable},
		{errors.New("other"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			call := newFakeCall()
			call.signalErr = tt.err
			r := newTestRouter(t, call)
			w := do(r, http.MethodPost, "/api/call/signal", `{"signal":"abc"}`)
			assert.Equal(t, tt.want, w.Code)
			assert.Contains(t, w.Body.String(), "error")
		})
	}
}

func TestConnectWithSignalRateLimited(t *testing.T) {
	call := newFakeCall()
	r := newTestRouter(t, call)
	ct := &http.Cookie{Name: "ct", Value: "client-1"}

	for i := 0; i < 3; i++ {
		w := do(r, http.MethodPost, "/api/call/signal", `{"signal":"abc"}`, ct)
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := do(r, http.MethodPost, "/api/call/signal", `{"signal":"abc"}`, ct)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	other := &http.Cookie{Name: "ct", Value: "client-2"}
	w = do(r, http.MethodPost, "/api/call/signal", `{"signal":"abc"}`, other)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJoin(t *testing.T) {
	call := newFakeCall()
	r := newTestRouter(t, call)

	w := do(r, http.MethodGet, "/join?room=abc123&signal=xyz", "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.Equal(t, []string{"abc123|xyz"}, call.joined)

	call.joinErr = domain.ErrRoomTokenEmpty
	w = do(r, http.MethodGet, "/join", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	call.joinErr = core.ErrMediaAccessDenied
	w = do(r, http.MethodGet, "/join?room=abc123", "")
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestToggles(t *testing.T) {
	r := newTestRouter(t, newFakeCall())

	w := do(r, http.MethodPost, "/api/media/audio", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"enabled":false}`, w.Body.String())

	w = do(r, http.MethodPost, "/api/media/video", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"enabled":false}`, w.Body.String())
}

func TestNoticesCursorPerBrowser(t *testing.T) {
	call := newFakeCall()
	call.notices = []facade.Notice{
		{Seq: 1, Title: "Room created"},
		{Seq: 2, Title: "Connected"},
	}
	r := newTestRouter(t, call)

	w := do(r, http.MethodGet, "/api/notices", "")
	require.Equal(t, http.StatusOK, w.Code)
	var first NoticesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	assert.Len(t, first.Notices, 2)

	var sessionCookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "DuetSessions" {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie)

	w = do(r, http.MethodGet, "/api/notices", "", sessionCookie)
	var second NoticesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.Empty(t, second.Notices)

	// a different browser sees everything
	w = do(r, http.MethodGet, "/api/notices", "")
	var third NoticesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &third))
	assert.Len(t, third.Notices, 2)
}

func TestStateWebSocketPushes(t *testing.T) {
	call := newFakeCall()
	call.snap = facade.Snapshot{Role: domain.RoleInitiator}
	srv := httptest.NewServer(newTestRouter(t, call))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/state"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	var initial facade.Snapshot
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, ws.ReadJSON(&initial))
	assert.Equal(t, domain.RoleInitiator, initial.Role)

	require.Eventually(t, func() bool { return call.subscribers() == 1 }, 2*time.Second, 5*time.Millisecond)
	call.publish(facade.Snapshot{Role: domain.RoleInitiator, Connected: true, Secure: true})

	var pushed facade.Snapshot
	require.NoError(t, ws.ReadJSON(&pushed))
	assert.True(t, pushed.Secure)

	require.NoError(t, ws.Close())
	require.Eventually(t, func() bool { return call.subscribers() == 0 }, 2*time.Second, 5*time.Millisecond)
}
