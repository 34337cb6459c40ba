package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/otsu-watermark/internal/config"
	"github.com/phambaophuc/otsu-watermark/internal/http/handlers"
	"github.com/phambaophuc/otsu-watermark/internal/http/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type Router struct {
	mediaHandler *handlers.MediaHandler
	logger       *zap.Logger
	config       *config.Config
}

func NewRouter(
	mediaHandler *handlers.MediaHandler,
	logger *zap.Logger,
	config *config.Config,
) *Router {
	return &Router{
		mediaHandler: mediaHandler,
		logger:       logger,
		config:       config,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = 32 << 20

	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.ErrorHandler(r.logger))
	router.Use(middleware.CORS())
	router.Use(middleware.SecurityHeaders())

	upload := []gin.HandlerFunc{middleware.BodyLimit(r.config.Storage.MaxUploadBytes)}
	// A non-positive rate disables limiting.
	if r.config.Storage.UploadRate > 0 {
		limiter := middleware.NewRateLimiter(rate.Limit(r.config.Storage.UploadRate), r.config.Storage.UploadBurst)
		upload = append([]gin.HandlerFunc{limiter.Handler()}, upload...)
	}

	router.GET("/", r.mediaHandler.Index)
	router.POST("/upload", append(upload, r.mediaHandler.Upload)...)
	router.GET("/preview/:filename", r.mediaHandler.Preview)
	router.GET("/download/:filename", r.mediaHandler.Download)

	// API version 1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", r.mediaHandler.HealthCheck)
		v1.GET("/stats", r.mediaHandler.GetStats)
		v1.GET("/jobs/:id", r.mediaHandler.JobStatus)
	}

	return router
}
