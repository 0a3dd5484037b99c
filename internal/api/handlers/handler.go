package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"quizcrafter/internal/config"
	"quizcrafter/internal/models"
	"quizcrafter/internal/quiz"
)

// QuizService is the pipeline the upload handler drives.
type QuizService interface {
	GenerateFromFile(ctx context.Context, path string, number int) (*quiz.Outcome, error)
}

// Handler contains the API handlers dependencies
type Handler struct {
	Service        QuizService
	Logger         logrus.FieldLogger
	Provider       string
	TempDir        string
	MaxUploadBytes int64
}

// NewHandler creates a new Handler
func NewHandler(cfg *config.Config, service QuizService, logger logrus.FieldLogger) *Handler {
	return &Handler{
		Service:        service,
		Logger:         logger,
		Provider:       cfg.Provider,
		TempDir:        cfg.TempDir,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}
}

// HandleHealth reports liveness and the configured provider.
func (h *Handler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "provider": h.Provider})
}

// requestLogger returns the handler logger tagged with the request id.
func (h *Handler) requestLogger(c *gin.Context) logrus.FieldLogger {
	if id := c.GetString("requestID"); id != "" {
		return h.Logger.WithField("request_id", id)
	}
	return h.Logger
}

// abortWithError logs and aborts the request with a JSON error body. A
// non-nil err is reported in the details field.
func (h *Handler) abortWithError(c *gin.Context, status int, message string, err error) {
	body := models.ErrorResponse{Error: message}
	entry := h.requestLogger(c).WithField("status", status)
	if err != nil {
		body.Details = err.Error()
		entry = entry.WithError(err)
		_ = c.Error(err)
	}
	if status >= http.StatusInternalServerError {
		entry.Error(message)
	} else {
		entry.Warn(message)
	}
	c.AbortWithStatusJSON(status, body)
}
