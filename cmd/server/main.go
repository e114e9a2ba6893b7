package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Talk/internal/adapters/bus"
	router "github.com/dkeye/Talk/internal/adapters/http"
	"github.com/dkeye/Talk/internal/adapters/rtc"
	wsignal "github.com/dkeye/Talk/internal/adapters/signal"
	"github.com/dkeye/Talk/internal/app"
	"github.com/dkeye/Talk/internal/app/orch"
	"github.com/dkeye/Talk/internal/auth"
	"github.com/dkeye/Talk/internal/config"
	"github.com/dkeye/Talk/internal/core"
	"github.com/dkeye/Talk/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogging(cfg)

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("close store")
		}
	}()

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("token service")
	}

	ice := rtc.NewProvider(cfg.ICEServers)
	if err := ice.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid ice_servers")
	}

	reg := app.NewRegistry(app.SimplePolicy{Action: app.ParseBackpressure(cfg.Backpressure)})
	calls := app.NewCoordinator(core.NewRoomTable(), reg)
	messenger := &app.Messenger{
		Store:      db,
		Rooms:      calls,
		Fanout:     calls,
		Out:        reg,
		Timeout:    cfg.PersistTimeout,
		MaxContent: cfg.MaxContent,
	}

	if cfg.RedisAddr != "" {
		b, err := bus.NewRedisBus(ctx, cfg.RedisAddr, cfg.RedisDB, calls)
		if err != nil {
			log.Error().Err(err).Msg("redis unavailable, chat fan-out stays local")
		} else {
			defer b.Close()
			messenger.Fanout = b
			go b.Run(ctx)
		}
	}

	o := orch.New(reg, calls, app.NewRelay(reg), messenger)
	ctl := wsignal.NewSignalWSController(o, wsignal.Options{
		ReadLimit:    cfg.ReadLimit,
		PingPeriod:   cfg.PingPeriod,
		SendBuffer:   cfg.SendBuffer,
		AllowOrigins: cfg.CORSAllow,
		Limiter:      wsignal.NewRateLimiter(cfg.RateLimit, cfg.RateInterval),
	})

	r := router.SetupRouter(ctx, cfg, router.Deps{
		Orch:      o,
		Signal:    ctl,
		Users:     db,
		Chats:     &app.ChatService{Store: db},
		Messenger: messenger,
		Tokens:    tokens,
		ICE:       ice,
	})
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           router.WithCORS(r, cfg.CORSAllow),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Talk server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}

// setupLogging switches to JSON outside debug mode and applies log_level.
func setupLogging(cfg *config.Config) {
	if cfg.Mode != "debug" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}
