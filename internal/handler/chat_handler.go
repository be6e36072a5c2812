package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/projdesk/internal/model"
	"github.com/xxxsen/projdesk/internal/pkg/response"
)

type ChatAPI interface {
	Chat(ctx context.Context, userID, projectID, message string) (string, error)
	ListMessages(ctx context.Context, userID, projectID string) ([]model.ChatMessage, error)
}

type ChatHandler struct {
	chat ChatAPI
}

func NewChatHandler(chat ChatAPI) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type chatRequest struct {
	Message   string `json:"message"`
	ProjectID string `json:"projectId"`
}

func (h *ChatHandler) Send(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	if req.ProjectID == "" || req.Message == "" {
		badRequest(c, "message and projectId are required")
		return
	}
	reply, err := h.chat.Chat(c.Request.Context(), getUserID(c), req.ProjectID, req.Message)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"response": reply})
}

func (h *ChatHandler) Messages(c *gin.Context) {
	msgs, err := h.chat.ListMessages(c.Request.Context(), getUserID(c), c.Param("projectId"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, msgs)
}
