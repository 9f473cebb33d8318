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

	router "github.com/kylechi05/swan-hacks-2025/internal/adapters/http"
	"github.com/kylechi05/swan-hacks-2025/internal/adapters/rtc"
	"github.com/kylechi05/swan-hacks-2025/internal/adapters/transcribe"
	"github.com/kylechi05/swan-hacks-2025/internal/app"
	"github.com/kylechi05/swan-hacks-2025/internal/app/orch"
	"github.com/kylechi05/swan-hacks-2025/internal/config"
	"github.com/kylechi05/swan-hacks-2025/internal/core"
	"github.com/kylechi05/swan-hacks-2025/internal/domain"
	"github.com/kylechi05/swan-hacks-2025/internal/eventstore"
	"github.com/kylechi05/swan-hacks-2025/internal/recording"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
	}

	if err := os.MkdirAll(cfg.RecordingsDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.RecordingsDir).Msg("cannot create recordings dir")
	}
	if err := os.MkdirAll(cfg.TranscriptsDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.TranscriptsDir).Msg("cannot create transcripts dir")
	}

	events, err := eventstore.LoadFile(cfg.EventsFile)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.EventsFile).Msg("cannot load events")
	}

	tasks := app.NewTasks(cfg.TaskQueueSize)
	bridge := app.NewBridge(cfg.BridgeTimeout)

	var transcriber recording.Transcriber
	if cfg.TranscriberURL != "" {
		transcriber = transcribe.New(cfg.TranscriberURL, cfg.TranscriptsDir)
	} else {
		log.Warn().Msg("no transcriber_url configured, recordings will not be transcribed")
	}

	recordings := recording.NewManager(recording.Config{
		Dir:         cfg.RecordingsDir,
		GracePeriod: cfg.TrackGrace,
		NewConn: func(meetingID domain.MeetingID, participantID string) (core.MediaConnection, error) {
			tag := fmt.Sprintf("%s/%s", meetingID, participantID)
			return rtc.NewRecorderConnection(rtc.DefaultWebRTCConfig(), tag)
		},
		Tasks:       tasks,
		Transcriber: transcriber,
	})

	o := &orch.Orchestrator{
		Registry:   app.NewRegistry(),
		Rooms:      core.NewMeetingRooms(),
		Chats:      core.NewChatRooms(),
		Events:     events,
		Recordings: recordings,
		Bridge:     bridge,
	}

	r := router.SetupRouter(ctx, cfg, o)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Meet server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	bridge.Close()
	tasks.Close()
	log.Info().Msg("Server exited gracefully")
}
