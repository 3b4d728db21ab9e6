package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// openAIClientInterface 定义 OpenAI 客户端接口，便于测试
type openAIClientInterface interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIClient 调用兼容 OpenAI Chat Completions 的服务，本地模型（Ollama 等）也走这里
type OpenAIClient struct {
	openaiClient openAIClientInterface
}

func NewOpenAIClient(baseURL, apiKey string, httpClient *http.Client) *OpenAIClient {
	openaiConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		openaiConfig.BaseURL = baseURL
	}
	if httpClient != nil {
		openaiConfig.HTTPClient = httpClient
	}

	return &OpenAIClient{
		openaiClient: openai.NewClientWithConfig(openaiConfig),
	}
}

// Generate 以单条 user 消息发送提示词，返回去除首尾空白的回复
func (c *OpenAIClient) Generate(ctx context.Context, prompt, model string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: Temperature,
		MaxTokens:   MaxOutputTokens,
	}

	resp, err := c.openaiClient.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("调用 LLM API 失败: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}
