package openai

import (
	"github.com/sashabaranov/go-openai"
)

// NewClient builds an API client for the given key. An empty baseURL keeps
// the public endpoint.
func NewClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}
