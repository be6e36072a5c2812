package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/projdesk/internal/ai"
	"github.com/xxxsen/projdesk/internal/config"
	"github.com/xxxsen/projdesk/internal/model"
	appErr "github.com/xxxsen/projdesk/internal/pkg/errors"
)

const systemPromptPrefix = "You are a helpful AI assistant. Use the following context to answer questions:\n\n"

type ChatOptions struct {
	ContextMode string
	TopK        int
}

type ChatService struct {
	projects  ProjectRepo
	docs      DocumentRepo
	messages  ChatMessageRepo
	completer Completer
	embedder  Embedder
	opts      ChatOptions
	now       func() time.Time
}

func NewChatService(projects ProjectRepo, docs DocumentRepo, messages ChatMessageRepo, completer Completer, embedder Embedder, opts ChatOptions) *ChatService {
	if opts.ContextMode == "" {
		opts.ContextMode = config.ContextModeFull
	}
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	return &ChatService{
		projects:  projects,
		docs:      docs,
		messages:  messages,
		completer: completer,
		embedder:  embedder,
		opts:      opts,
		now:       time.Now,
	}
}

// Chat answers message grounded on the project's documents and records both turns.
func (s *ChatService) Chat(ctx context.Context, userID, projectID, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", appErr.ErrInvalid
	}
	if _, err := s.projects.GetByID(ctx, userID, projectID); err != nil {
		return "", err
	}
	logger := logutil.GetLogger(ctx).With(zap.String("project_id", projectID))
	contents, err := s.contextDocuments(ctx, projectID, message)
	if err != nil {
		return "", appErr.Wrap(appErr.ErrDatabase, fmt.Errorf("load context: %w", err))
	}
	reply, err := s.completer.Complete(ctx, BuildMessages(contents, message))
	if err != nil {
		logger.Error("chat completion failed", zap.Int("documents", len(contents)), zap.Error(err))
		return "", appErr.Wrap(appErr.ErrCompletion, err)
	}

	ctime := s.now().UnixMilli()
	if err := s.messages.CreateBatch(ctx, []model.ChatMessage{
		{ID: newID(), ProjectID: projectID, UserID: userID, Content: message, Role: model.ChatRoleUser, Ctime: ctime},
		{ID: newID(), ProjectID: projectID, UserID: userID, Content: reply, Role: model.ChatRoleAssistant, Ctime: ctime},
	}); err != nil {
		logger.Error("save chat messages failed", zap.Error(err))
		return "", appErr.Wrap(appErr.ErrDatabase, fmt.Errorf("save messages: %w", err))
	}
	return reply, nil
}

func (s *ChatService) ListMessages(ctx context.Context, userID, projectID string) ([]model.ChatMessage, error) {
	if _, err := s.projects.GetByID(ctx, userID, projectID); err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListByProject(ctx, projectID)
	if err != nil {
		return nil, appErr.Wrap(appErr.ErrDatabase, err)
	}
	return msgs, nil
}

func (s *ChatService) contextDocuments(ctx context.Context, projectID, message string) ([]string, error) {
	if s.opts.ContextMode != config.ContextModeVector || s.embedder == nil {
		return s.docs.ListContents(ctx, projectID)
	}
	query, err := s.embedder.Embed(ctx, message, ai.TaskRetrievalQuery)
	if err != nil {
		logutil.GetLogger(ctx).Warn("embed question failed, using full context", zap.Error(err))
		return s.docs.ListContents(ctx, projectID)
	}
	nearest, err := s.docs.SearchContents(ctx, projectID, query, s.opts.TopK)
	if err != nil {
		return nil, err
	}
	if len(nearest) == 0 {
		return s.docs.ListContents(ctx, projectID)
	}
	return nearest, nil
}

// BuildMessages produces the system context turn followed by the user's question.
func BuildMessages(contents []string, message string) []ai.Message {
	return []ai.Message{
		{Role: ai.RoleSystem, Content: systemPromptPrefix + strings.Join(contents, "\n\n")},
		{Role: ai.RoleUser, Content: message},
	}
}
