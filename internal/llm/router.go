package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/fachebot/talk-digest/internal/config"
	"github.com/fachebot/talk-digest/internal/logger"
)

// Router 按模型名称把请求分发到对应后端
type Router struct {
	defaultModel string
	localModel   string
	gemini       Generator
	openai       Generator
	local        Generator
}

// NewRouter 根据配置创建后端，未提供凭据的后端保持为空，调用时返回 ErrBackendNotConfigured
func NewRouter(ctx context.Context, c *config.LLM, httpClient *http.Client) (*Router, error) {
	r := &Router{
		defaultModel: c.DefaultModel,
		localModel:   c.Local.Model,
	}

	if c.Gemini.APIKey != "" {
		gemini, err := NewGeminiClient(ctx, c.Gemini.APIKey, httpClient)
		if err != nil {
			return nil, err
		}
		r.gemini = gemini
	}
	if c.OpenAI.APIKey != "" {
		r.openai = NewOpenAIClient(c.OpenAI.BaseURL, c.OpenAI.APIKey, httpClient)
	}
	if c.Local.BaseURL != "" {
		// 本地服务不校验 Key
		r.local = NewOpenAIClient(c.Local.BaseURL, "ollama", httpClient)
	}

	logger.Debugf("[LLM] 默认模型: %s, gemini=%t, openai=%t, local=%t",
		r.defaultModel, r.gemini != nil, r.openai != nil, r.local != nil)
	return r, nil
}

// DefaultModel 未指定模型时使用的模型
func (r *Router) DefaultModel() string {
	return r.defaultModel
}

// Generate 实现 Generator，model 为空时使用默认模型
func (r *Router) Generate(ctx context.Context, prompt, model string) (string, error) {
	backend, resolved, err := r.resolve(model)
	if err != nil {
		return "", err
	}
	return backend.Generate(ctx, prompt, resolved)
}

// resolve 返回模型对应的后端以及实际发送给后端的模型名称
func (r *Router) resolve(model string) (Generator, string, error) {
	if model == "" {
		model = r.defaultModel
	}

	var backend Generator
	var name string
	switch {
	case model == ModelLocal:
		backend, name = r.local, "local"
		model = r.localModel
	case isGeminiModel(model):
		backend, name = r.gemini, "gemini"
	default:
		backend, name = r.openai, "openai"
	}

	if backend == nil {
		return nil, "", fmt.Errorf("%w: %s (%s)", ErrBackendNotConfigured, name, model)
	}
	return backend, model, nil
}

func isGeminiModel(model string) bool {
	return strings.HasPrefix(model, "gemini") || strings.HasPrefix(model, "models/gemini")
}
