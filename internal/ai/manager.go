package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/projdesk/internal/config"
)

type ManagerConfig struct {
	Timeout int
}

// Manager bounds every model call with the configured timeout.
type Manager struct {
	completer ICompleter
	embedder  IEmbedder
	cfg       ManagerConfig
}

func NewManager(completer ICompleter, embedder IEmbedder, cfg ManagerConfig) *Manager {
	return &Manager{completer: completer, embedder: embedder, cfg: cfg}
}

// BuildManager constructs the provider groups described by cfg.
func BuildManager(cfg config.AIConfig, wrapEmbedder func(IEmbedder) IEmbedder) (*Manager, error) {
	completers := make([]CompleterEntry, 0, len(cfg.Chat))
	for _, item := range cfg.Chat {
		provider, err := NewChatProvider(item.Provider, item.Data)
		if err != nil {
			return nil, fmt.Errorf("init chat provider %s: %w", entryName(item), err)
		}
		completers = append(completers, CompleterEntry{Name: entryName(item), Client: NewCompleter(provider, item.Model)})
	}
	embedders := make([]EmbedderEntry, 0, len(cfg.Embed))
	for _, item := range cfg.Embed {
		provider, err := NewEmbedProvider(item.Provider, item.Data)
		if err != nil {
			return nil, fmt.Errorf("init embed provider %s: %w", entryName(item), err)
		}
		embedders = append(embedders, EmbedderEntry{Name: entryName(item), Client: NewEmbedder(provider, item.Model)})
	}
	embedder := NewGroupEmbedder(embedders)
	if embedder != nil && wrapEmbedder != nil {
		embedder = wrapEmbedder(embedder)
	}
	return NewManager(NewGroupCompleter(completers), embedder, ManagerConfig{Timeout: cfg.Timeout}), nil
}

func entryName(item config.AIProviderConfig) string {
	if item.Name != "" {
		return item.Name
	}
	return item.Provider
}

func (m *Manager) Complete(ctx context.Context, messages []Message) (string, error) {
	if m.completer == nil {
		return "", ErrUnavailable
	}
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	resp, err := m.completer.Complete(ctx, messages)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp)
	if text == "" {
		return "", fmt.Errorf("empty ai response")
	}
	return text, nil
}

func (m *Manager) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	if m.embedder == nil {
		return nil, ErrUnavailable
	}
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	values, err := m.embedder.Embed(ctx, text, taskType)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("empty embedding")
	}
	return values, nil
}

func (m *Manager) HasEmbedder() bool {
	return m.embedder != nil
}

func (m *Manager) EmbeddingModelName() string {
	if m.embedder == nil {
		return ""
	}
	return m.embedder.ModelName()
}

func (m *Manager) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, time.Duration(m.cfg.Timeout)*time.Second)
	}
	return context.WithCancel(ctx)
}
