package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresuchdata/dialfa-analytics/internal/api"
	"github.com/andresuchdata/dialfa-analytics/internal/app"
	"github.com/andresuchdata/dialfa-analytics/internal/config"
	"github.com/andresuchdata/dialfa-analytics/internal/warmup"
	"github.com/andresuchdata/dialfa-analytics/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.Setup(os.Stdout, cfg.Server.Mode == "debug")
	logger.SetLevel(cfg.LogLevel)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	var scheduler *warmup.Scheduler
	if cfg.Warmup.Enabled {
		scheduler, err = warmup.NewScheduler(application.WarmupRunner(), cfg.Warmup.Schedule)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to schedule cache warm-up")
		}
		scheduler.Start()
		log.Info().Str("schedule", cfg.Warmup.Schedule).Msg("Cache warm-up scheduled")
	}

	stopCleanup := make(chan struct{})
	router := api.NewRouter(application.APIServices(), api.RouterOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
		Done:           stopCleanup,
	})

	// Initialize HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	close(stopCleanup)

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if scheduler != nil {
		scheduler.Stop(ctx)
	}
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
