package handler

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/projdesk/internal/filestore"
)

// BlobSource serves objects behind signed links; the local store implements it.
type BlobSource interface {
	Verify(key, token string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

type BlobHandler struct {
	source BlobSource
}

func NewBlobHandler(source BlobSource) *BlobHandler {
	return &BlobHandler{source: source}
}

func (h *BlobHandler) Get(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if err := h.source.Verify(key, c.Query("token")); err != nil {
		if errors.Is(err, filestore.ErrInvalidKey) {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusForbidden)
		return
	}
	file, err := h.source.Open(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.Status(http.StatusNotFound)
			return
		}
		c.Status(http.StatusInternalServerError)
		return
	}
	defer file.Close()
	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "private, max-age=60")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, file)
}
