package http

import (
	"context"

	"github.com/dkeye/Duet/internal/app/facade"
	"github.com/dkeye/Duet/internal/config"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Call is the facade surface the HTTP layer drives.
type Call interface {
	Snapshot() facade.Snapshot
	Subscribe(fn func(facade.Snapshot)) (unsubscribe func())
	Notices(after int) ([]facade.Notice, int)
	StartCall() error
	Join(token, envelope string) error
	ConnectWithSignal(envelope string) error
	EndCall()
	ToggleAudio() bool
	ToggleVideo() bool
}

func genClientToken() string {
	idStr := uuid.NewString()
	return idStr
}

func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, call Call) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("DuetSessions", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	h := &handlers{
		call:    call,
		limiter: NewRateLimiter(cfg.Call.SignalRateLimit, cfg.Call.SignalRateInterval),
	}
	r.GET("/join", h.join)

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	api := r.Group("/api")
	api.GET("/state", h.state)
	api.POST("/call", h.startCall)
	api.POST("/call/signal", h.connectWithSignal)
	api.DELETE("/call", h.endCall)
	api.POST("/media/audio", h.toggleAudio)
	api.POST("/media/video", h.toggleVideo)
	api.GET("/notices", h.notices)

	ws := NewStateWSController(call, cfg.ReadLimit, cfg.PingPeriod)
	api.GET("/ws/state", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("sid", c.GetString("client_token")).Msg("ws state endpoint hit")
		ws.HandleState(ctx, c)
	})

	return r
}
