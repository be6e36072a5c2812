package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/projdesk/internal/middleware"
	"github.com/xxxsen/projdesk/internal/pkg/errcode"
	"github.com/xxxsen/projdesk/internal/pkg/response"
)

func getUserID(c *gin.Context) string {
	return middleware.UserID(c)
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	code, _ := response.Code(err)
	logger := logutil.GetLogger(c.Request.Context()).With(
		zap.String("request_id", c.GetString(middleware.ContextRequestIDKey)),
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.String("user_id", getUserID(c)),
		zap.Int("code", code),
		zap.Error(err),
	)
	switch code {
	case errcode.ErrInternal, errcode.ErrStorage, errcode.ErrDatabase, errcode.ErrAIUnavailable:
		logger.Error("request failed")
	default:
		logger.Warn("request rejected")
	}
	response.Fail(c, err)
}

func badRequest(c *gin.Context, message string) {
	response.Error(c, errcode.ErrInvalid, message)
}
