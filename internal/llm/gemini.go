package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// geminiModels genai.Models 的子集，便于测试注入 mock
type geminiModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiClient 调用 Gemini API
type GeminiClient struct {
	models geminiModels
}

func NewGeminiClient(ctx context.Context, apiKey string, httpClient *http.Client) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 Gemini 客户端失败: %w", err)
	}
	return &GeminiClient{models: client.Models}, nil
}

// generateConfig 危险内容与骚扰两类安全策略设为 BLOCK_NONE
func generateConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](Temperature),
		MaxOutputTokens: MaxOutputTokens,
		SafetySettings: []*genai.SafetySetting{
			{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockNone},
		},
	}
}

// Generate 调用 GenerateContent，被安全策略拦截或无候选时返回 ErrEmptyResponse
func (c *GeminiClient) Generate(ctx context.Context, prompt, model string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := c.models.GenerateContent(ctx, model, genai.Text(prompt), generateConfig())
	if err != nil {
		return "", fmt.Errorf("调用 Gemini API 失败: %w", err)
	}

	content := strings.TrimSpace(resp.Text())
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}
