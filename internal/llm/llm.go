package llm

import (
	"context"
	"errors"
	"time"
)

// 生成参数，所有后端共用
const (
	Temperature     = 0.7
	MaxOutputTokens = 2000
)

// ModelLocal 路由到本地模型的保留名称
const ModelLocal = "local"

// requestTimeout 单次生成请求的超时时间
const requestTimeout = 5 * time.Minute

var (
	// ErrBackendNotConfigured 模型对应的后端未配置（缺少 API Key 等）
	ErrBackendNotConfigured = errors.New("模型后端未配置")
	// ErrEmptyResponse 后端返回了空内容
	ErrEmptyResponse = errors.New("LLM API 返回空结果")
)

// Generator 根据提示词生成文本
type Generator interface {
	Generate(ctx context.Context, prompt, model string) (string, error)
}
