package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFromFile_KeepsDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OPENAI_BASE_URL", "")

	path := writeConfig(t, `
LLM:
  Gemini:
    APIKey: gemini-key
Summary:
  Transcript: chat.txt
  RangeDays: 1
`)

	c, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "gemini-key", c.LLM.Gemini.APIKey)
	assert.Equal(t, DefaultModel, c.LLM.DefaultModel)
	assert.Equal(t, DefaultLocalURL, c.LLM.Local.BaseURL)
	assert.Equal(t, "chat.txt", c.Summary.Transcript)
	assert.Equal(t, 1, c.Summary.RangeDays)
	assert.Equal(t, "data/sqlite.db", c.Store.Path)
	assert.Equal(t, DefaultModel, c.SummaryModel())
}

func TestLoadFromFile_EnvOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-gemini")
	t.Setenv("OPENAI_API_KEY", "env-openai")
	t.Setenv("OPENAI_BASE_URL", "https://example.com/v1")

	path := writeConfig(t, `
LLM:
  Gemini:
    APIKey: file-key
`)

	c, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "env-gemini", c.LLM.Gemini.APIKey)
	assert.Equal(t, "env-openai", c.LLM.OpenAI.APIKey)
	assert.Equal(t, "https://example.com/v1", c.LLM.OpenAI.BaseURL)
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "默认配置有效",
			mutate: func(c *Config) {},
		},
		{
			name:    "代理缺少主机",
			mutate:  func(c *Config) { c.Sock5Proxy.Enable = true; c.Sock5Proxy.Port = 1080 },
			wantErr: "Sock5Proxy.Host",
		},
		{
			name:    "默认模型为空",
			mutate:  func(c *Config) { c.LLM.DefaultModel = " " },
			wantErr: "LLM.DefaultModel",
		},
		{
			name:   "OpenAI 未配置 BaseURL 时使用官方地址",
			mutate: func(c *Config) { c.LLM.OpenAI.APIKey = "k" },
		},
		{
			name:    "非法 cron",
			mutate:  func(c *Config) { c.Summary.Cron = "every day" },
			wantErr: "Summary.Cron",
		},
		{
			name:    "RangeDays 为负",
			mutate:  func(c *Config) { c.Summary.RangeDays = -1 },
			wantErr: "Summary.RangeDays",
		},
		{
			name:    "非法日志级别",
			mutate:  func(c *Config) { c.Log.Level = "trace" },
			wantErr: "Log.Level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDefault_EnvOnlyOpenAIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_BASE_URL", "")

	c := Default()
	c.ApplyEnv()
	require.NoError(t, c.Validate())
	assert.Equal(t, "sk-test", c.LLM.OpenAI.APIKey)
	assert.Empty(t, c.LLM.OpenAI.BaseURL)
}

func TestSummaryModel_Override(t *testing.T) {
	c := Default()
	c.Summary.Model = "local"
	assert.Equal(t, "local", c.SummaryModel())
}
