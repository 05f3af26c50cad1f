package transport

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go-vision-tools/internal/config"
	apperrors "go-vision-tools/internal/errors"
	"go-vision-tools/internal/logger"
	"go-vision-tools/internal/observer"
	"go-vision-tools/internal/service"
	"go-vision-tools/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// toolFunc is the uniform shape every tool endpoint dispatches to
type toolFunc func(ctx context.Context, req models.ToolRequest) (*models.ToolResponse, error)

// ErrorResponse is the envelope for failed invocations. The embedded AppError
// carries the machine-readable type plus remediation context for model errors.
type ErrorResponse struct {
	Error   string              `json:"error"`
	Details *apperrors.AppError `json:"details"`
}

// NewHandler builds the HTTP router with one POST route per tool
func NewHandler(svc service.VisionService, metrics *observer.MetricsObserver, cfg *config.Config) http.Handler {
	r := gin.Default()

	r.Use(
		requestSizeLimiter(cfg.MaxRequestBodySize),
	)

	r.GET("/health", healthCheck)
	if metrics != nil {
		r.GET("/metrics", reportMetrics(metrics))
	}

	tools := r.Group("/tools")
	for name, fn := range map[string]toolFunc{
		"resize":         svc.Resize,
		"crop":           svc.Crop,
		"flip":           svc.Flip,
		"rotate":         svc.Rotate,
		"convert_color":  svc.ConvertColor,
		"edges":          svc.Edges,
		"features":       svc.Features,
		"contours":       svc.Contours,
		"detect_faces":   svc.DetectFaces,
		"detect_objects": svc.DetectObjects,
		"video_info":     svc.VideoInfo,
		"extract_frames": svc.ExtractFrames,
		"detect_motion":  svc.DetectMotion,
		"track_object":   svc.TrackObject,
	} {
		tools.POST("/"+name, invokeTool(name, fn, cfg))
	}

	return r
}

func invokeTool(name string, fn toolFunc, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		logger.WithFields(logrus.Fields{
			"tool":   name,
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"ip":     c.ClientIP(),
		}).Info("Processing tool invocation")

		var req models.ToolRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, apperrors.NewInvalidParameterError("body", "invalid request format: "+err.Error()))
			return
		}

		resp, err := fn(ctx, req)
		if err != nil {
			respondError(c, wrapTimeout(ctx, err))
			return
		}

		logger.WithFields(logrus.Fields{
			"tool":               name,
			"source":             req.Path,
			"processing_time_ms": time.Since(startTime).Milliseconds(),
		}).Info("Tool invocation completed")

		c.JSON(http.StatusOK, resp)
	}
}

// wrapTimeout maps a context deadline hit to an unreachable_source error so
// slow fetches and stalled decodes surface the same way.
func wrapTimeout(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperrors.NewUnreachableSourceError("request timed out", err)
	}
	return err
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func reportMetrics(metrics *observer.MetricsObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, metrics.GetMetrics())
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func respondError(c *gin.Context, err error) {
	appErr, ok := err.(*apperrors.AppError)
	if !ok {
		appErr = apperrors.NewInternalError("request processing failed", err)
	}

	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": appErr.StatusCode,
		"error_type":  appErr.Type,
		"path":        c.Request.URL.Path,
		"ip":          c.ClientIP(),
	}).Error("Tool invocation failed")

	c.AbortWithStatusJSON(appErr.StatusCode, ErrorResponse{
		Error:   http.StatusText(appErr.StatusCode),
		Details: appErr,
	})
}
