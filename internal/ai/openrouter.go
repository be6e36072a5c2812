package ai

import (
	"context"
	"strings"
)

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

type openrouterConfig struct {
	APIKey      string `json:"api_key"`
	BaseURL     string `json:"base_url"`
	HTTPReferer string `json:"http_referer"`
	XTitle      string `json:"x_title"`
}

type openrouterProvider struct {
	client *openAICompatClient
}

func (p *openrouterProvider) Name() string {
	return "openrouter"
}

func (p *openrouterProvider) Chat(ctx context.Context, model string, messages []Message) (string, error) {
	return p.client.chat(ctx, model, messages)
}

func createOpenRouterFactory(args interface{}) (IChatProvider, error) {
	cfg := &openrouterConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	client := newOpenAICompatClient("openrouter", cfg.APIKey, cfg.BaseURL, defaultOpenRouterBaseURL)
	if v := strings.TrimSpace(cfg.HTTPReferer); v != "" {
		client.headers["HTTP-Referer"] = v
	}
	if v := strings.TrimSpace(cfg.XTitle); v != "" {
		client.headers["X-Title"] = v
	}
	return &openrouterProvider{client: client}, nil
}

func init() {
	Register("openrouter", createOpenRouterFactory)
}
