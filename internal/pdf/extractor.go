// Package pdf turns an uploaded PDF into plain text.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"strings"

	ledongthuc "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/sirupsen/logrus"
)

// PageSeparator joins the text of consecutive pages.
const PageSeparator = "\n\n"

// ErrNoPages is wrapped in an ExtractionError for documents without pages.
var ErrNoPages = errors.New("document has no pages")

// ExtractionError reports a PDF that could not be read.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract text from %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Extractor is satisfied by anything that can produce the text of a document.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// FileExtractor validates the document with pdfcpu and reads page text with
// ledongthuc/pdf.
type FileExtractor struct {
	logger logrus.FieldLogger
	conf   *model.Configuration
}

// NewExtractor creates a FileExtractor.
func NewExtractor(logger logrus.FieldLogger) *FileExtractor {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	return &FileExtractor{
		logger: logger,
		conf:   conf,
	}
}

// Extract returns the text of every page, in order, joined by PageSeparator.
// Pages without a content stream are skipped, as are pages whose text cannot
// be decoded; a document that fails validation is an ExtractionError.
func (e *FileExtractor) Extract(ctx context.Context, path string) (text string, err error) {
	if err := api.ValidateFile(path, e.conf); err != nil {
		return "", &ExtractionError{Path: path, Err: fmt.Errorf("invalid PDF: %w", err)}
	}

	// The text decoder panics on some malformed streams that pass validation.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = &ExtractionError{Path: path, Err: fmt.Errorf("pdf reader panic: %v", r)}
		}
	}()

	file, reader, err := ledongthuc.Open(path)
	if err != nil {
		return "", &ExtractionError{Path: path, Err: fmt.Errorf("failed to create PDF reader: %w", err)}
	}
	defer file.Close()

	pageCount := reader.NumPage()
	if pageCount == 0 {
		return "", &ExtractionError{Path: path, Err: ErrNoPages}
	}

	pages := make([]string, 0, pageCount)
	for i := 1; i <= pageCount; i++ {
		if err := ctx.Err(); err != nil {
			return "", &ExtractionError{Path: path, Err: err}
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			e.logger.WithFields(logrus.Fields{"page": i, "error": err}).Warn("failed to extract text from page")
			continue
		}
		pages = append(pages, pageText)
	}

	e.logger.WithFields(logrus.Fields{
		"pages":      pageCount,
		"text_pages": len(pages),
	}).Debug("extracted PDF text")

	return strings.Join(pages, PageSeparator), nil
}
