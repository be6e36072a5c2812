package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/projdesk/internal/middleware"
)

type RouterDeps struct {
	Chat          *ChatHandler
	Files         *FileHandler
	Blobs         *BlobHandler
	Projects      *ProjectHandler
	Tasks         *TaskHandler
	JWTSecret     []byte
	ChatRateLimit time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	if deps.Blobs != nil {
		api.GET("/blobs/*key", deps.Blobs.Get)
	}

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))

	chatHandlers := []gin.HandlerFunc{deps.Chat.Send}
	if deps.ChatRateLimit > 0 {
		chatHandlers = append([]gin.HandlerFunc{middleware.RateLimit(deps.ChatRateLimit)}, chatHandlers...)
	}
	authGroup.POST("/chat", chatHandlers...)
	authGroup.GET("/chat/:projectId/messages", deps.Chat.Messages)

	authGroup.POST("/projects", deps.Projects.Create)
	authGroup.GET("/projects", deps.Projects.List)
	authGroup.GET("/projects/:projectId", deps.Projects.Get)
	authGroup.PUT("/projects/:projectId", deps.Projects.Update)
	authGroup.DELETE("/projects/:projectId", deps.Projects.Delete)

	authGroup.POST("/projects/:projectId/files", deps.Files.Upload)
	authGroup.GET("/projects/:projectId/files", deps.Files.List)
	authGroup.DELETE("/projects/:projectId/files/:fileId", deps.Files.Delete)
	authGroup.GET("/files/:fileId", deps.Files.Download)

	authGroup.POST("/projects/:projectId/tasks", deps.Tasks.Create)
	authGroup.GET("/projects/:projectId/tasks", deps.Tasks.List)
	authGroup.PUT("/tasks/:taskId", deps.Tasks.Update)
	authGroup.DELETE("/tasks/:taskId", deps.Tasks.Delete)
}
