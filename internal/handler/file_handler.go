package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/projdesk/internal/extract"
	"github.com/xxxsen/projdesk/internal/model"
	"github.com/xxxsen/projdesk/internal/pkg/errcode"
	"github.com/xxxsen/projdesk/internal/pkg/response"
	"github.com/xxxsen/projdesk/internal/service"
)

type IngestAPI interface {
	Ingest(ctx context.Context, in service.IngestInput) (*model.Document, error)
}

type FileAPI interface {
	List(ctx context.Context, userID, projectID string) ([]model.Document, error)
	DownloadURL(ctx context.Context, userID, fileID string) (string, error)
	Delete(ctx context.Context, userID, projectID, fileID string) error
	PublicURL(key string) string
}

type FileHandler struct {
	ingest   IngestAPI
	files    FileAPI
	maxBytes int64
}

func NewFileHandler(ingest IngestAPI, files FileAPI, maxBytes int64) *FileHandler {
	return &FileHandler{ingest: ingest, files: files, maxBytes: maxBytes}
}

type fileView struct {
	model.Document
	URL string `json:"url"`
}

func (h *FileHandler) view(doc model.Document) fileView {
	doc.Content = ""
	doc.Embedding = nil
	return fileView{Document: doc, URL: h.files.PublicURL(doc.StorageKey)}
}

// Upload extracts text before anything is stored so unreadable files leave no trace.
func (h *FileHandler) Upload(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := c.Param("projectId")
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+1<<20)
	header, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			response.Error(c, errcode.ErrFileTooLarge, "file exceeds "+uploadLimitLabel(h.maxBytes))
			return
		}
		response.Error(c, errcode.ErrInvalidFile, "file is required")
		return
	}
	if header.Size > h.maxBytes {
		response.Error(c, errcode.ErrFileTooLarge, "file exceeds "+uploadLimitLabel(h.maxBytes))
		return
	}
	contentType := extract.DetectType(header.Header.Get("Content-Type"), header.Filename)
	if !extract.Supported(contentType) {
		response.Error(c, errcode.ErrUnsupportedFileType, "unsupported file type")
		return
	}
	opened, err := header.Open()
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "failed to open file")
		return
	}
	defer opened.Close()
	data, err := io.ReadAll(io.LimitReader(opened, h.maxBytes+1))
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "failed to read file")
		return
	}
	if int64(len(data)) > h.maxBytes {
		response.Error(c, errcode.ErrFileTooLarge, "file exceeds "+uploadLimitLabel(h.maxBytes))
		return
	}

	text := c.PostForm("text")
	if text == "" {
		text, err = extract.Text(ctx, contentType, data)
		if err != nil {
			logutil.GetLogger(ctx).Warn("extract text failed",
				zap.String("name", header.Filename), zap.String("type", contentType), zap.Error(err))
			response.Error(c, errcode.ErrInvalidFile, "failed to extract text")
			return
		}
	}

	doc, err := h.ingest.Ingest(ctx, service.IngestInput{
		UserID:    getUserID(c),
		ProjectID: projectID,
		Name:      header.Filename,
		Type:      contentType,
		Size:      int64(len(data)),
		Data:      data,
		Text:      text,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"success": true, "file": h.view(*doc)})
}

func (h *FileHandler) List(c *gin.Context) {
	docs, err := h.files.List(c.Request.Context(), getUserID(c), c.Param("projectId"))
	if err != nil {
		handleError(c, err)
		return
	}
	items := make([]fileView, 0, len(docs))
	for _, doc := range docs {
		items = append(items, h.view(doc))
	}
	response.Success(c, items)
}

func (h *FileHandler) Delete(c *gin.Context) {
	if err := h.files.Delete(c.Request.Context(), getUserID(c), c.Param("projectId"), c.Param("fileId")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"success": true})
}

// Download redirects to a short-lived signed URL.
func (h *FileHandler) Download(c *gin.Context) {
	link, err := h.files.DownloadURL(c.Request.Context(), getUserID(c), c.Param("fileId"))
	if err != nil {
		logutil.GetLogger(c.Request.Context()).Error("build download url failed",
			zap.String("file_id", c.Param("fileId")), zap.Error(err))
		c.String(http.StatusInternalServerError, "Error downloading file")
		return
	}
	c.Redirect(http.StatusFound, link)
}

func uploadLimitLabel(bytes int64) string {
	const mb = 1024 * 1024
	value := bytes / mb
	if value <= 0 {
		value = 1
	}
	return strconv.FormatInt(value, 10) + "MB"
}
