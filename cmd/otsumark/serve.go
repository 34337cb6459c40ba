package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/otsu-watermark/internal/http/handlers"
	"github.com/phambaophuc/otsu-watermark/internal/http/routes"
	"github.com/phambaophuc/otsu-watermark/internal/services/queue"
	"github.com/phambaophuc/otsu-watermark/internal/services/storage"
	"github.com/phambaophuc/otsu-watermark/internal/services/video"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	var addrFlag string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the upload, preview and download web service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), ctx, addrFlag)
		},
	}
	cmd.Flags().StringVar(&addrFlag, "addr", "", "Listen address (default :$PORT)")
	return cmd
}

func runServer(runCtx context.Context, ctx *commandContext, addr string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}
	if addr == "" {
		addr = ":" + cfg.Server.Port
	}

	watermarker, err := ctx.newWatermarker()
	if err != nil {
		return err
	}
	// Fail at startup rather than on the first upload.
	if _, err := watermarker.Renderer(); err != nil {
		return err
	}

	if err := video.NewFFmpeg(cfg.Video.FFmpegPath, cfg.Video.FFprobePath).Available(); err != nil {
		logger.Warn("Video uploads will fail", zap.Error(err))
	}

	store, err := storage.NewStorageService(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	workerCtx, cancelWorkers := context.WithCancel(runCtx)
	defer cancelWorkers()

	jobs := queue.NewJobStore()
	var jobQueue handlers.JobQueue
	if cfg.RabbitMQ.URL != "" {
		qs, err := queue.NewQueueService(cfg.RabbitMQ.URL, watermarker, store, jobs, logger)
		if err != nil {
			// Continue without queue service; videos are processed inline.
			logger.Warn("Failed to initialize queue service", zap.Error(err))
		} else {
			defer qs.Close()
			if err := qs.StartWorkers(workerCtx, cfg.RabbitMQ.Workers); err != nil {
				return err
			}
			// Runs before qs.Close: interrupted videos are requeued first.
			defer func() {
				cancelWorkers()
				qs.Wait()
			}()
			jobQueue = qs
		}
	}

	gin.SetMode(gin.ReleaseMode)
	mediaHandler := handlers.NewMediaHandler(watermarker, store, jobQueue, jobs, logger, cfg)
	router := routes.NewRouter(mediaHandler, logger, cfg)

	server := &http.Server{
		Addr:         addr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Handler:      router.SetupRoutes(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
		return nil
	case <-runCtx.Done():
	}

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	logger.Info("Server exited")
	return nil
}
