package extract

import (
	"context"
	"errors"
	"mime"
	"path/filepath"
	"strings"
	"sync"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var ErrUnsupportedFileType = errors.New("unsupported file type")

// Extractor turns raw file bytes into plain text.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

type ExtractorFunc func(ctx context.Context, data []byte) (string, error)

func (f ExtractorFunc) Extract(ctx context.Context, data []byte) (string, error) {
	return f(ctx, data)
}

var (
	mu         sync.RWMutex
	extractors = map[string]Extractor{}
	extensions = map[string]string{
		".pdf":  MimePDF,
		".docx": MimeDOCX,
	}
)

func Register(mimeType string, ex Extractor) {
	mu.Lock()
	defer mu.Unlock()
	extractors[normalizeType(mimeType)] = ex
}

func Supported(mimeType string) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := extractors[normalizeType(mimeType)]
	return ok
}

// Text dispatches to the extractor registered for mimeType.
func Text(ctx context.Context, mimeType string, data []byte) (string, error) {
	mu.RLock()
	ex, ok := extractors[normalizeType(mimeType)]
	mu.RUnlock()
	if !ok {
		return "", ErrUnsupportedFileType
	}
	return ex.Extract(ctx, data)
}

// DetectType prefers the declared content type and falls back to the file extension.
func DetectType(declared, filename string) string {
	declared = normalizeType(declared)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if typ, ok := extensions[strings.ToLower(filepath.Ext(filename))]; ok {
		return typ
	}
	return declared
}

func normalizeType(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if parsed, _, err := mime.ParseMediaType(value); err == nil {
		return strings.ToLower(parsed)
	}
	return strings.ToLower(value)
}

// sanitizeText drops invalid UTF-8 and NUL bytes, which text columns reject.
func sanitizeText(s string) string {
	return strings.ReplaceAll(strings.ToValidUTF8(s, ""), "\x00", "")
}
