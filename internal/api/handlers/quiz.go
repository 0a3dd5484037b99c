package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"quizcrafter/internal/quiz"
)

// formOverhead is allowed on top of the file size for multipart framing and
// the other form fields.
const formOverhead = 1 << 20

// multipartMemory is how much of the form is kept in memory before parts
// spill to disk.
const multipartMemory = 32 << 20

// Error messages returned by the upload endpoint.
const (
	msgInvalidContentType = "Invalid content type. Expected multipart/form-data"
	msgParseForm          = "Failed to parse form data"
	msgNoFile             = "No file uploaded"
	msgInvalidFile        = "Invalid file format"
	msgOnlyPDF            = "Only PDF files are allowed"
	msgInvalidNumber      = "Invalid number of questions"
	msgNoQuestions        = "No quiz questions could be generated from the PDF content. The PDF might be too short, contain mostly images, or have unclear text."
	msgGenerationFailed   = "Error generating quiz from PDF"
)

func (h *Handler) msgFileTooLarge() string {
	return fmt.Sprintf("File too large. Maximum size is %dMB", h.MaxUploadBytes>>20)
}

// HandleGenerateQuiz accepts a PDF upload in the "pdf" form field and returns
// a generated multiple-choice quiz. An optional "number" field asks for a
// total number of questions.
func (h *Handler) HandleGenerateQuiz(c *gin.Context) {
	startTime := time.Now()
	log := h.requestLogger(c)

	// 1. Content type
	if !strings.Contains(c.GetHeader("Content-Type"), "multipart/form-data") {
		h.abortWithError(c, http.StatusBadRequest, msgInvalidContentType, nil)
		return
	}

	// 2. Parse Multipart Form Data
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes+formOverhead)
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.abortWithError(c, http.StatusBadRequest, h.msgFileTooLarge(), nil)
			return
		}
		h.abortWithError(c, http.StatusBadRequest, msgParseForm, err)
		return
	}
	form := c.Request.MultipartForm
	defer func() {
		if err := form.RemoveAll(); err != nil {
			log.WithError(err).Warn("failed to remove multipart spill files")
		}
	}()

	// 3-6. File part
	files := form.File["pdf"]
	if len(files) == 0 {
		if _, ok := form.Value["pdf"]; ok {
			h.abortWithError(c, http.StatusBadRequest, msgInvalidFile, nil)
			return
		}
		h.abortWithError(c, http.StatusBadRequest, msgNoFile, nil)
		return
	}
	fileHeader := files[0]
	if fileHeader.Filename == "" {
		h.abortWithError(c, http.StatusBadRequest, msgInvalidFile, nil)
		return
	}
	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".pdf") {
		h.abortWithError(c, http.StatusBadRequest, msgOnlyPDF, nil)
		return
	}
	if fileHeader.Size > h.MaxUploadBytes {
		h.abortWithError(c, http.StatusBadRequest, h.msgFileTooLarge(), nil)
		return
	}

	// 7. Optional question count
	number, ok := parseNumber(form.Value["number"])
	if !ok {
		h.abortWithError(c, http.StatusBadRequest, msgInvalidNumber, nil)
		return
	}

	log = log.WithFields(logrus.Fields{"filename": fileHeader.Filename, "size": fileHeader.Size})
	log.Info("handling quiz generation request")

	// 8. Stage the upload
	tempPath, err := saveTempFile(h.TempDir, fileHeader)
	if err != nil {
		h.abortWithError(c, http.StatusInternalServerError, msgGenerationFailed, err)
		return
	}
	defer func() {
		if err := os.Remove(tempPath); err != nil {
			log.WithError(err).Warn("failed to remove temporary file")
		}
	}()

	// A client disconnect must not cancel provider calls already in flight.
	ctx := context.WithoutCancel(c.Request.Context())

	// 9. Run the pipeline
	outcome, err := h.Service.GenerateFromFile(ctx, tempPath, number)
	switch {
	case errors.Is(err, quiz.ErrNoUsableText):
		h.abortWithError(c, http.StatusBadRequest, msgNoQuestions, nil)
		return
	case err != nil:
		h.abortWithError(c, http.StatusInternalServerError, msgGenerationFailed, err)
		return
	}

	if len(outcome.Questions) == 0 {
		if failed := outcome.FirstProviderFailure(); failed != nil {
			h.abortWithError(c, http.StatusBadRequest, failed.Err.Error(), nil)
			return
		}
		h.abortWithError(c, http.StatusBadRequest, msgNoQuestions, nil)
		return
	}

	log.WithFields(logrus.Fields{
		"questions":   len(outcome.Questions),
		"failures":    len(outcome.Failures()),
		"duration_ms": time.Since(startTime).Milliseconds(),
	}).Infof("quiz generated: %s", outcome)

	c.JSON(http.StatusOK, outcome.Response(fileHeader.Filename))
}

// parseNumber reads the optional "number" field. Absent or blank means 0.
func parseNumber(values []string) (int, bool) {
	if len(values) == 0 || strings.TrimSpace(values[0]) == "" {
		return 0, true
	}
	n, err := strconv.Atoi(strings.TrimSpace(values[0]))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
