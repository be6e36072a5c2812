package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/projdesk/internal/pkg/errcode"
	"github.com/xxxsen/projdesk/internal/pkg/jwt"
	"github.com/xxxsen/projdesk/internal/pkg/response"
)

const (
	ContextUserIDKey    = "user_id"
	ContextCompanyIDKey = "company_id"
)

func JWTAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, token, ok := strings.Cut(c.GetHeader("Authorization"), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			response.Error(c, errcode.ErrUnauthorized, "missing or malformed authorization")
			c.Abort()
			return
		}
		claims, err := jwt.ParseToken(strings.TrimSpace(token), secret)
		if err != nil {
			response.Error(c, errcode.ErrUnauthorized, "invalid token")
			c.Abort()
			return
		}
		c.Set(ContextUserIDKey, claims.UserID)
		if claims.CompanyID != "" {
			c.Set(ContextCompanyIDKey, claims.CompanyID)
		}
		c.Next()
	}
}

// UserID returns the authenticated caller, or "" outside JWTAuth.
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserIDKey)
}
