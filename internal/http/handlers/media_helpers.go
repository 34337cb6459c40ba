package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/otsu-watermark/internal/models"
	"github.com/phambaophuc/otsu-watermark/pkg/utils"
	"go.uber.org/zap"
)

// === PROCESSING LOGIC ===

func (h *MediaHandler) processAndRespond(c *gin.Context, job *models.ProcessingJob, kind models.MediaKind) {
	ctx := c.Request.Context()
	defer h.discard(job.InputPath)

	res, err := h.watermarker.Process(ctx, job.InputPath, job.OutputPath)
	if err != nil {
		h.logger.Error("Processing failed",
			zap.String("original_name", job.OriginalName),
			zap.Error(err))
		h.respondError(c, statusFor(err), fmt.Sprintf("Failed to process %s", kind))
		return
	}

	url := previewURL(job.Filename)
	if published, err := h.storage.Publish(ctx, res.OutputPath, job.Filename); err != nil {
		h.logger.Warn("Failed to publish output", zap.Error(err))
	} else if published != "" {
		url = published
	}

	if err := h.storage.SetCache(ctx, job.CacheKey, job.Filename); err != nil {
		h.logger.Warn("Failed to cache result", zap.String("cache_key", job.CacheKey), zap.Error(err))
	}

	c.JSON(http.StatusOK, models.UploadResponse{
		Success:      true,
		Filename:     job.Filename,
		OriginalName: job.OriginalName,
		Type:         kind,
		URL:          url,
	})
}

func (h *MediaHandler) enqueue(c *gin.Context, job *models.ProcessingJob, kind models.MediaKind) {
	if err := h.queue.PublishJob(c.Request.Context(), job); err != nil {
		h.discard(job.InputPath)
		h.logger.Error("Failed to enqueue job", zap.String("job_id", job.ID), zap.Error(err))
		h.respondError(c, http.StatusServiceUnavailable, "Failed to queue video")
		return
	}

	c.JSON(http.StatusAccepted, models.UploadResponse{
		Success:      true,
		Filename:     job.Filename,
		OriginalName: job.OriginalName,
		Type:         kind,
		JobID:        job.ID,
		Status:       models.StatusPending,
	})
}

// === FILE OPERATIONS ===

func (h *MediaHandler) resolveOutput(c *gin.Context) (string, bool) {
	name := c.Param("filename")
	if !h.storage.OutputExists(name) {
		h.respondError(c, http.StatusNotFound, "File not found")
		return "", false
	}
	path, err := h.storage.OutputPath(name)
	if err != nil {
		h.respondError(c, http.StatusNotFound, "File not found")
		return "", false
	}
	return path, true
}

func (h *MediaHandler) sniff(path string) bool {
	mtype, err := utils.DetectMediaType(path)
	if err != nil {
		h.logger.Warn("Content sniffing failed", zap.Error(err))
		return false
	}
	return utils.IsValidMediaType(mtype)
}

func (h *MediaHandler) discard(path string) {
	if err := h.storage.Remove(path); err != nil {
		h.logger.Warn("Failed to remove upload", zap.String("path", path), zap.Error(err))
	}
}

func (h *MediaHandler) lookupCache(ctx context.Context, cacheKey string) string {
	name, err := h.storage.GetFromCache(ctx, cacheKey)
	if err != nil {
		h.logger.Warn("Cache lookup failed", zap.Error(err))
		return ""
	}
	if name == "" || !h.storage.OutputExists(name) {
		return ""
	}
	h.logger.Info("Cache hit", zap.String("cache_key", cacheKey))
	return name
}

// === RESPONSE HANDLING ===

func (h *MediaHandler) respondError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, models.APIResponse{
		Success: false,
		Error:   message,
	})
}

// === UTILITY METHODS ===

func calculateOverallHealth(services map[string]string) string {
	for _, status := range services {
		if status != "healthy" && status != "not configured" {
			return "unhealthy"
		}
	}
	return "healthy"
}

func previewURL(filename string) string {
	return "/preview/" + filename
}

func cacheControl() string {
	return fmt.Sprintf("public, max-age=%d", maxCacheAge)
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
