package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"transcription-service/config"
	"transcription-service/constant"
	"transcription-service/handler"
	"transcription-service/pkg/fetch"
	"transcription-service/pkg/pipeline"
	"transcription-service/pkg/worker"
	"transcription-service/repository"
	"transcription-service/service"
)

func RunHttp(cfg *config.Config) {
	ctx, cancel := signal.NotifyContext(setupLogger(cfg), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Bool("isProduction", cfg.App.Environment == constant.EnvironmentProduction.String()).Send()
	if cfg.App.Environment == constant.EnvironmentProduction.String() {
		gin.SetMode(gin.ReleaseMode)
	}

	repo, err := repository.NewRepo(cfg.Storage.Dir)
	if err != nil {
		zerolog.Ctx(ctx).Fatal().Err(err).Msg("failed to open storage")
	}

	splitter := pipeline.NewFFmpegSplitter(cfg.Pipeline.FFmpegPath, cfg.Pipeline.ChunkSeconds)
	recognizer := pipeline.NewWhisperRecognizer(cfg.Pipeline.WhisperPath, cfg.Pipeline.ModelPath)
	pipe := pipeline.New(splitter, recognizer, cfg.Pipeline.Workers)

	pool := worker.NewPool(cfg.Server.Workers, cfg.Server.QueueSize)
	pool.Start(ctx)

	mediaService := service.NewService(repo, fetch.NewFetcher(), pipe, pool)

	r := gin.Default()
	r.Use(contextLogger(ctx))
	addHealth(r)
	handler.NewHandler(mediaService).Register(r)

	srv := http.Server{
		Handler:           r,
		Addr:              fmt.Sprintf(":%s", cfg.Server.HttpPort),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("start http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
		}
	}()

	<-ctx.Done()
	zerolog.Ctx(ctx).Info().Msg("shutting down server")
	if err := srv.Shutdown(ctx); err != nil {
		zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
	}

	pool.Stop()
	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("server shutdown")
}

func addHealth(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})
}

// contextLogger carries the server logger into request contexts so
// handlers and the service can use zerolog.Ctx.
func contextLogger(ctx context.Context) gin.HandlerFunc {
	logger := zerolog.Ctx(ctx)
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context()))
		c.Next()
	}
}

func setupLogger(cfg *config.Config) context.Context {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.App.Environment == constant.EnvironmentDevelop.String() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Log to standard output
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(context.Background())

	return ctx
}
