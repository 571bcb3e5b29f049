package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Duet/internal/adapters/codec"
	router "github.com/dkeye/Duet/internal/adapters/http"
	"github.com/dkeye/Duet/internal/adapters/media"
	"github.com/dkeye/Duet/internal/adapters/rendezvous"
	"github.com/dkeye/Duet/internal/adapters/rtc"
	"github.com/dkeye/Duet/internal/app"
	"github.com/dkeye/Duet/internal/app/facade"
	"github.com/dkeye/Duet/internal/app/orch"
	"github.com/dkeye/Duet/internal/config"
	"github.com/dkeye/Duet/internal/core"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	zerolog.SetGlobalLevel(cfg.Level())

	api, err := rtc.NewAPI(cfg.Level())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build webrtc api")
	}

	link, err := rendezvous.NewLink(cfg.PublicURL)
	if err != nil {
		log.Fatal().Err(err).Msg("bad public url")
	}
	if cfg.Room != "" {
		link.Set(core.RendezvousRoomKey, cfg.Room)
		if cfg.Signal != "" {
			link.Set(core.RendezvousSignalKey, cfg.Signal)
		}
	}

	ctrl := &orch.Controller{
		Registry: app.NewRegistry(),
		Transports: &rtc.Factory{
			API:  api,
			TURN: rtc.TURNCredentials{Username: cfg.TURN.Username, Credential: cfg.TURN.Credential},
		},
		Codec:      codec.New(codec.DefaultKey),
		Rendezvous: link,
		ICEServers: cfg.ICEServers,
	}
	capture := media.NewCapture(media.Options{Audio: cfg.Media.Audio, Video: cfg.Media.Video})
	call := facade.New(ctrl, capture, link, facade.Options{
		AutoConnectDelay: cfg.Call.AutoConnectDelay,
		PollInterval:     cfg.Call.StatusPollInterval,
	})
	if err := call.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start call facade")
	}

	r := router.SetupRouter(ctx, cfg, call)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Str("public_url", cfg.PublicURL).Msg("Duet server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	call.Close()
	if n := capture.Live(); n > 0 {
		log.Warn().Int("streams", n).Msg("media streams still held after shutdown")
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
