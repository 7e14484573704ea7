package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatkhan05/ai-try-on/internal/auth"
	"github.com/fatkhan05/ai-try-on/internal/inflight"
	"github.com/fatkhan05/ai-try-on/internal/logging"
	"github.com/fatkhan05/ai-try-on/internal/repository"
	"github.com/fatkhan05/ai-try-on/internal/tryon"
	"github.com/fatkhan05/ai-try-on/internal/usecase"
)

// bodySlack covers the JSON envelope and non-image fields.
const bodySlack = 64 * 1024

// bodyHeadroom lets bodies well past the image ceiling reach validation, so
// a missing field is still reported ahead of the image size.
const bodyHeadroom = 4

const busyMessage = "A try-on is already processing for this session"

// MaxBodySize is the transport limit for a try-on body given the image ceiling.
// Bodies above it are rejected with the image size reason without being parsed.
func MaxBodySize(maxImageBytes int64) int64 {
	return maxImageBytes*4/3*bodyHeadroom + bodySlack
}

// RegisterRoutes wires the HTTP handlers to the Gin router.
func RegisterRoutes(router *gin.Engine, uc *usecase.TryOnUseCase, sessionMiddleware gin.HandlerFunc, logger *zap.Logger) {
	h := &tryOnHandler{uc: uc, logger: logger.Named("handlers"), now: time.Now}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/ai-tryon")
	api.GET("", h.capabilities)
	api.POST("", sessionMiddleware, h.process)
	api.GET("/results/:id", h.result)
	api.GET("/metrics", h.metrics)
}

// Recovery converts panics into the standard internal error body.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("panic while handling request", zap.Any("panic", recovered), zap.String("path", c.Request.URL.Path))
		internalError(c, fmt.Errorf("%v", recovered), time.Now())
	})
}

type tryOnHandler struct {
	uc     *usecase.TryOnUseCase
	logger *zap.Logger
	now    func() time.Time
}

func (h *tryOnHandler) capabilities(c *gin.Context) {
	c.JSON(http.StatusOK, tryon.Capabilities{
		Status:  "healthy",
		Service: tryon.ServiceName,
		Version: tryon.ServiceVersion,
		Capabilities: tryon.CapabilityLimit{
			MaxImageSize:     h.uc.MaxImageBytes(),
			SupportedFormats: tryon.SupportedFormats(),
			OutputFormat:     tryon.OutputFormat,
			Garments:         tryon.Garments(),
			Fabrics:          tryon.Fabrics(),
			Sizes:            tryon.Sizes(),
			Colors:           tryon.Colors(),
		},
		Timestamp: h.now().UTC(),
	})
}

func (h *tryOnHandler) process(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodySize(h.uc.MaxImageBytes()))
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusBadRequest, tryon.ErrorResponse{Error: tryon.ReasonImageTooLarge})
			return
		}
		c.JSON(http.StatusBadRequest, tryon.ErrorResponse{Error: "unable to read request body"})
		return
	}

	var req *tryon.Request
	if trimmed := strings.TrimSpace(string(body)); trimmed != "" {
		if err := json.Unmarshal(body, &req); err != nil {
			c.JSON(http.StatusBadRequest, tryon.ErrorResponse{Error: "Invalid JSON body"})
			return
		}
	}

	sessionID, _ := auth.GetSessionID(c.Request.Context())
	outcome, err := h.uc.Process(c.Request.Context(), sessionID, req)
	if err != nil {
		switch {
		case tryon.IsValidationError(err):
			c.JSON(http.StatusBadRequest, tryon.ErrorResponse{Error: err.Error()})
		case errors.Is(err, inflight.ErrBusy):
			c.JSON(http.StatusConflict, tryon.ErrorResponse{Error: busyMessage})
		default:
			op, _ := logging.OperationOf(err)
			h.logger.Error("try-on failed", zap.String("failed_operation", op), zap.Error(err))
			internalError(c, err, h.now())
		}
		return
	}

	c.JSON(http.StatusOK, tryon.SuccessResponse{
		Success: true,
		Data: tryon.ResponseData{
			RequestID:      outcome.RequestID,
			ProcessedImage: outcome.Result.OutputImage,
			OriginalImage:  req.Image,
			Metadata: tryon.ResponseMetadata{
				ProcessingTime: outcome.Result.ProcessingTimeMs,
				Confidence:     outcome.Result.Confidence,
				ModelVersion:   outcome.Result.ModelVersion,
				Timestamp:      h.now().UTC(),
			},
			GarmentConfig: outcome.Config,
		},
	})
}

func (h *tryOnHandler) result(c *gin.Context) {
	requestID := c.Param("id")
	if requestID == "" {
		c.JSON(http.StatusBadRequest, tryon.ErrorResponse{Error: "id is required"})
		return
	}

	outcome, err := h.uc.GetResult(c.Request.Context(), requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, tryon.ErrorResponse{Error: "result not found"})
			return
		}
		internalError(c, err, h.now())
		return
	}

	// Session identities stay server side.
	body := *outcome
	body.SessionID = ""
	c.JSON(http.StatusOK, body)
}

func (h *tryOnHandler) metrics(c *gin.Context) {
	summary, err := h.uc.GetMetricsSummary(c.Request.Context())
	if err != nil {
		internalError(c, err, h.now())
		return
	}
	c.JSON(http.StatusOK, summary)
}

func internalError(c *gin.Context, err error, at time.Time) {
	ts := at.UTC()
	c.AbortWithStatusJSON(http.StatusInternalServerError, tryon.ErrorResponse{
		Error:     "Internal server error",
		Message:   err.Error(),
		Timestamp: &ts,
	})
}
