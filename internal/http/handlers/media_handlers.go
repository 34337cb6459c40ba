package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/phambaophuc/otsu-watermark/internal/config"
	"github.com/phambaophuc/otsu-watermark/internal/models"
	"github.com/phambaophuc/otsu-watermark/internal/services/pipeline"
	"github.com/phambaophuc/otsu-watermark/internal/services/processor"
	"github.com/phambaophuc/otsu-watermark/internal/services/queue"
	"github.com/phambaophuc/otsu-watermark/internal/services/storage"
	"github.com/phambaophuc/otsu-watermark/pkg/utils"
	"go.uber.org/zap"
)

const (
	fileParamKey = "file"
	maxCacheAge  = 3600
)

// Watermarker runs the watermarking pipeline for one file.
type Watermarker interface {
	Process(ctx context.Context, inputPath, outputPath string) (*pipeline.Result, error)
}

// JobQueue hands video jobs to background workers.
type JobQueue interface {
	PublishJob(ctx context.Context, job *models.ProcessingJob) error
	GetQueueStats() (*queue.Stats, error)
	HealthCheck() string
}

type MediaHandler struct {
	watermarker Watermarker
	storage     *storage.StorageService
	queue       JobQueue
	jobs        *queue.JobStore
	logger      *zap.Logger
	config      *config.Config
}

// NewMediaHandler wires the handler. q may be nil, in which case videos are
// processed inside the request.
func NewMediaHandler(
	watermarker Watermarker,
	storage *storage.StorageService,
	q JobQueue,
	jobs *queue.JobStore,
	logger *zap.Logger,
	config *config.Config,
) *MediaHandler {
	if jobs == nil {
		jobs = queue.NewJobStore()
	}
	return &MediaHandler{
		watermarker: watermarker,
		storage:     storage,
		queue:       q,
		jobs:        jobs,
		logger:      logger,
		config:      config,
	}
}

func (h *MediaHandler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "OK",
		"message": "OTSU watermark service is running",
		"formats": gin.H{
			"image": sortedKeys(models.ImageExtensions),
			"video": sortedKeys(models.VideoExtensions),
		},
		"features": gin.H{
			"cache":   h.storage.CacheEnabled(),
			"publish": h.storage.PublishEnabled(),
			"queue":   h.queue != nil,
		},
	})
}

func (h *MediaHandler) GetStats(c *gin.Context) {
	cacheStats, err := h.storage.GetCacheStats(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get cache stats", zap.Error(err))
	}

	stats := map[string]interface{}{
		"cache":     cacheStats,
		"jobs":      h.jobs.Counts(),
		"timestamp": time.Now(),
	}
	if h.queue != nil {
		queueStats, err := h.queue.GetQueueStats()
		if err != nil {
			h.logger.Error("Failed to get queue stats", zap.Error(err))
		}
		stats["queue"] = queueStats
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    stats,
	})
}

func (h *MediaHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile(fileParamKey)
	if err != nil {
		if isTooLarge(err) {
			h.respondError(c, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		h.respondError(c, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		h.respondError(c, http.StatusBadRequest, "No file selected")
		return
	}
	if header.Size > h.config.Storage.MaxUploadBytes {
		h.respondError(c, http.StatusRequestEntityTooLarge, "File too large")
		return
	}

	kind, err := utils.ClassifyPath(header.Filename)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, "Unsupported file format")
		return
	}

	ctx := c.Request.Context()
	id := uuid.New().String()
	ext := strings.ToLower(filepath.Ext(header.Filename))

	saved, err := h.storage.SaveUpload(file, "upload_"+id+ext)
	if err != nil {
		h.logger.Error("Failed to save upload", zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, "Failed to save upload")
		return
	}

	if !h.sniff(saved.Path) {
		h.discard(saved.Path)
		h.respondError(c, http.StatusBadRequest, "File content is not an image or video")
		return
	}
	if kind == models.KindImage {
		if err := processor.ValidateImage(saved.Path, h.config.Storage.MaxUploadBytes); err != nil {
			h.discard(saved.Path)
			h.respondError(c, http.StatusBadRequest, fmt.Sprintf("Invalid image: %v", err))
			return
		}
	}

	outExt := utils.OutputExtension(ext)
	cacheKey := h.storage.GenerateCacheKey(saved.Hash, outExt)
	if cached := h.lookupCache(ctx, cacheKey); cached != "" {
		h.discard(saved.Path)
		c.JSON(http.StatusOK, models.UploadResponse{
			Success:      true,
			Filename:     cached,
			OriginalName: header.Filename,
			Type:         kind,
			URL:          previewURL(cached),
			Cached:       true,
		})
		return
	}

	filename := utils.GenerateFilename(id, outExt)
	outputPath, err := h.storage.OutputPath(filename)
	if err != nil {
		h.discard(saved.Path)
		h.respondError(c, http.StatusInternalServerError, "Invalid output name")
		return
	}

	job := &models.ProcessingJob{
		ID:           id,
		InputPath:    saved.Path,
		OutputPath:   outputPath,
		Filename:     filename,
		OriginalName: header.Filename,
		CacheKey:     cacheKey,
	}

	if kind == models.KindVideo && h.queue != nil {
		h.enqueue(c, job, kind)
		return
	}

	h.processAndRespond(c, job, kind)
}

func (h *MediaHandler) Preview(c *gin.Context) {
	path, ok := h.resolveOutput(c)
	if !ok {
		return
	}
	c.Header("Cache-Control", cacheControl())
	c.File(path)
}

func (h *MediaHandler) Download(c *gin.Context) {
	path, ok := h.resolveOutput(c)
	if !ok {
		return
	}

	name := filepath.Base(path)
	if original := c.Query("original_name"); original != "" {
		name = utils.DownloadName(original, name)
	}
	c.FileAttachment(path, name)
}

func (h *MediaHandler) JobStatus(c *gin.Context) {
	job, ok := h.jobs.Get(c.Param("id"))
	if !ok {
		h.respondError(c, http.StatusNotFound, "Job not found")
		return
	}
	c.JSON(http.StatusOK, models.APIResponse{Success: true, Data: job})
}

func (h *MediaHandler) HealthCheck(c *gin.Context) {
	services := h.storage.HealthCheck(c.Request.Context())
	if h.queue != nil {
		services["rabbitmq"] = h.queue.HealthCheck()
	} else {
		services["rabbitmq"] = "not configured"
	}

	overall := calculateOverallHealth(services)
	statusCode := http.StatusOK
	if overall == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, models.APIResponse{
		Success: overall == "healthy",
		Data: models.HealthCheck{
			Status:    overall,
			Timestamp: time.Now(),
			Services:  services,
		},
	})
}

// statusFor maps pipeline errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrUnsupportedExtension),
		errors.Is(err, models.ErrUnsupportedOutput),
		errors.Is(err, models.ErrInputNotFound):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		return 499
	default:
		return http.StatusInternalServerError
	}
}
