package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	router "github.com/ralphvalcin/decentralize-video-app-sub000/internal/adapters/http"
	wsignal "github.com/ralphvalcin/decentralize-video-app-sub000/internal/adapters/signal"
	"github.com/ralphvalcin/decentralize-video-app-sub000/internal/app"
	"github.com/ralphvalcin/decentralize-video-app-sub000/internal/config"
	"github.com/ralphvalcin/decentralize-video-app-sub000/internal/core"
	"github.com/ralphvalcin/decentralize-video-app-sub000/internal/metrics"
	"github.com/ralphvalcin/decentralize-video-app-sub000/internal/protocol"
)

var rootCmd = &cobra.Command{
	Use:   "signaling-server",
	Short: "Room signaling and membership service for browser conferencing",
	RunE:  runServe,
}

// Execute runs the root command and returns the error (for main to log.Fatal).
func Execute() error {
	return rootCmd.Execute()
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Mode == "debug" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	m := metrics.New(protocol.InboundKinds, protocol.OutboundKinds)
	clock := core.NewSystemClock()

	reg := app.NewRegistry(cfg.MaxSessions)
	rooms := app.NewRoomManager(core.Limits{
		ChatHistory:  cfg.ChatHistoryLimit,
		Polls:        cfg.PollLimit,
		Questions:    cfg.QuestionLimit,
		ReactionRing: cfg.ReactionRingLimit,
		MaxMembers:   cfg.MaxMembersPerRoom,
	}, clock, app.NewClassPolicy(), m, cfg.RelayUnknownPeerError, cfg.MaxRooms)

	var gate app.JoinGate = app.OpenGate{}
	if cfg.JoinSecret != "" {
		gate = app.NewJWTGate(cfg.JoinSecret)
		log.Info().Msg("join gate enabled")
	}

	svc := app.NewService(app.ServiceOptions{
		Registry: reg,
		Rooms:    rooms,
		Gate:     gate,
		Metrics:  m,
		Clock:    clock,
		Rate: app.RateConfig{
			Window:    cfg.RateLimitWindow,
			General:   cfg.RateLimitGeneral,
			Chat:      cfg.RateLimitChat,
			Reactions: cfg.RateLimitReactions,
		},
		MaxFrameBytes:  cfg.MaxFrameBytes,
		MaxSignalBytes: cfg.MaxSignalPayloadBytes,
		ShutdownDrain:  cfg.ShutdownDrain,
	})

	ws := wsignal.NewController(svc, wsignal.Options{
		MaxSignalPayloadBytes: cfg.MaxSignalPayloadBytes,
		EgressFrames:          cfg.EgressCapacityFrames,
		EgressBytes:           cfg.EgressCapacityBytes,
		PingInterval:          cfg.PingInterval,
		PongTimeout:           cfg.PongTimeout,
	})

	srv := &http.Server{
		Addr:    cfg.BindAddress,
		Handler: router.SetupRouter(cfg, svc, ws),
	}

	go func() {
		log.Info().Str("addr", cfg.BindAddress).Msg("signaling server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	svc.Shutdown()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
	return nil
}
