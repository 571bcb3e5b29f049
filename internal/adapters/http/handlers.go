package http

import (
	"errors"
	"net/http"

	"github.com/dkeye/Duet/internal/app/facade"
	"github.com/dkeye/Duet/internal/core"
	"github.com/dkeye/Duet/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const noticeCursorKey = "notice_seq"

type SignalRequest struct {
	Signal string `json:"signal"`
}

type ToggleResponse struct {
	Enabled bool `json:"enabled"`
}

type NoticesResponse struct {
	Notices []facade.Notice `json:"notices"`
}

type handlers struct {
	call    Call
	limiter *RateLimiter
}

func (h *handlers) state(c *gin.Context) {
	c.JSON(http.StatusOK, h.call.Snapshot())
}

func (h *handlers) join(c *gin.Context) {
	if err := h.call.Join(c.Query("room"), c.Query("signal")); err != nil {
		// media denial still leaves a joined room worth showing
		if !errors.Is(err, core.ErrMediaAccessDenied) {
			writeError(c, err)
			return
		}
	}
	c.Redirect(http.StatusFound, "/")
}

func (h *handlers) startCall(c *gin.Context) {
	if err := h.call.StartCall(); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.call.Snapshot())
}

func (h *handlers) connectWithSignal(c *gin.Context) {
	if !h.limiter.Allow(c.GetString("client_token")) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many attempts, wait a moment"})
		return
	}
	var req SignalRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Signal == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid signal"})
		return
	}
	if err := h.call.ConnectWithSignal(req.Signal); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.call.Snapshot())
}

func (h *handlers) endCall(c *gin.Context) {
	h.call.EndCall()
	c.JSON(http.StatusOK, h.call.Snapshot())
}

func (h *handlers) toggleAudio(c *gin.Context) {
	c.JSON(http.StatusOK, ToggleResponse{Enabled: h.call.ToggleAudio()})
}

func (h *handlers) toggleVideo(c *gin.Context) {
	c.JSON(http.StatusOK, ToggleResponse{Enabled: h.call.ToggleVideo()})
}

// notices hands out what this browser has not seen yet; the cursor lives in
// the cookie session.
func (h *handlers) notices(c *gin.Context) {
	s := sessions.Default(c)
	after, _ := s.Get(noticeCursorKey).(int)

	ns, last := h.call.Notices(after)
	s.Set(noticeCursorKey, last)
	if err := s.Save(); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("save session")
	}
	if ns == nil {
		ns = []facade.Notice{}
	}
	c.JSON(http.StatusOK, NoticesResponse{Notices: ns})
}

func statusFor(err error) int {
	switch {
	case core.IsSignalFormat(err),
		errors.Is(err, domain.ErrRoomTokenEmpty),
		errors.Is(err, domain.ErrRoomTokenTooLong):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrMediaAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, core.ErrNoActiveSession), errors.Is(err, core.ErrAlreadyNegotiated):
		return http.StatusConflict
	case core.IsTransport(err):
		return http.StatusBadGateway
	case errors.Is(err, facade.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("module", "adapters.http").Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
