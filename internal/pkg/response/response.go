package response

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/webapi/proxyutil"

	"github.com/xxxsen/projdesk/internal/pkg/errcode"
	appErr "github.com/xxxsen/projdesk/internal/pkg/errors"
)

type codeErr struct {
	code uint32
	msg  string
}

func (e codeErr) Error() string {
	return e.msg
}

func (e codeErr) Code() uint32 {
	return e.code
}

func AsCodeErr(code uint32, msg string) error {
	return codeErr{code: code, msg: msg}
}

func Success(c *gin.Context, data interface{}) {
	proxyutil.SuccessJson(c, data)
}

func Error(c *gin.Context, code int, message string) {
	proxyutil.FailJson(c, 200, AsCodeErr(uint32(code), message))
}

type mapping struct {
	kind    error
	code    int
	message string
}

// Ordered: the first matching kind wins, so specific kinds precede generic ones.
var mappings = []mapping{
	{kind: appErr.ErrUnauthorized, code: errcode.ErrUnauthorized, message: "unauthorized"},
	{kind: appErr.ErrForbidden, code: errcode.ErrForbidden, message: "forbidden"},
	{kind: appErr.ErrNotFound, code: errcode.ErrNotFound, message: "not found"},
	{kind: appErr.ErrInvalid, code: errcode.ErrInvalid, message: "invalid request"},
	{kind: appErr.ErrConflict, code: errcode.ErrConflict, message: "conflict"},
	{kind: appErr.ErrTooMany, code: errcode.ErrTooMany, message: "too many requests"},
	{kind: appErr.ErrUnsupportedFileType, code: errcode.ErrUnsupportedFileType, message: "unsupported file type"},
	{kind: appErr.ErrFileTooLarge, code: errcode.ErrFileTooLarge, message: "file too large"},
	{kind: appErr.ErrStorage, code: errcode.ErrStorage, message: "storage error"},
	{kind: appErr.ErrDatabase, code: errcode.ErrDatabase, message: "database error"},
	{kind: appErr.ErrCompletion, code: errcode.ErrAIUnavailable, message: "ai unavailable"},
}

// Code resolves err to an API code and a client-safe message.
func Code(err error) (int, string) {
	for _, m := range mappings {
		if errors.Is(err, m.kind) {
			return m.code, m.message
		}
	}
	return errcode.ErrInternal, "internal error"
}

func Fail(c *gin.Context, err error) {
	code, message := Code(err)
	Error(c, code, message)
}
