package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// tempFilePrefix marks files staged by the upload handler.
const tempFilePrefix = "quiz_pdf_"

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// SanitizeFilename reduces an uploaded file name to a safe base name.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" || name == "" {
		return "upload.pdf"
	}
	return unsafeFilenameChars.ReplaceAllString(name, "_")
}

// tempFileName returns a unique staging name for an upload.
func tempFileName(original string, now time.Time) string {
	return fmt.Sprintf("%s%d_%s_%s", tempFilePrefix, now.UnixMilli(), uuid.NewString()[:8], SanitizeFilename(original))
}

// saveTempFile copies an uploaded part into dir. On error no file is left
// behind.
func saveTempFile(dir string, fileHeader *multipart.FileHeader) (string, error) {
	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	path := filepath.Join(dir, tempFileName(fileHeader.Filename, time.Now()))
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to save temporary file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to save temporary file: %w", err)
	}
	return path, nil
}
