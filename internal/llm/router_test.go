package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/fachebot/talk-digest/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, prompt, model string) (string, error) {
	args := m.Called(ctx, prompt, model)
	return args.String(0), args.Error(1)
}

func TestRouter_Generate(t *testing.T) {
	tests := []struct {
		name        string
		model       string
		wantBackend string
		wantModel   string
	}{
		{"空模型使用默认", "", "gemini", "models/gemini-1.5-pro-001"},
		{"gemini 前缀", "gemini-1.5-flash", "gemini", "gemini-1.5-flash"},
		{"models/gemini 前缀", "models/gemini-pro", "gemini", "models/gemini-pro"},
		{"本地模型", "local", "local", "llama3.2"},
		{"其他模型走 OpenAI", "gpt-4o", "openai", "gpt-4o"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backends := map[string]*mockGenerator{
				"gemini": new(mockGenerator),
				"openai": new(mockGenerator),
				"local":  new(mockGenerator),
			}
			backends[tt.wantBackend].On("Generate", mock.Anything, "prompt", tt.wantModel).Return("ok", nil)

			r := &Router{
				defaultModel: "models/gemini-1.5-pro-001",
				localModel:   "llama3.2",
				gemini:       backends["gemini"],
				openai:       backends["openai"],
				local:        backends["local"],
			}
			got, err := r.Generate(context.Background(), "prompt", tt.model)
			require.NoError(t, err)
			assert.Equal(t, "ok", got)
			for name, b := range backends {
				if name == tt.wantBackend {
					b.AssertExpectations(t)
				} else {
					b.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
				}
			}
		})
	}
}

func TestRouter_BackendNotConfigured(t *testing.T) {
	r := &Router{defaultModel: "gpt-4o"}

	for _, model := range []string{"", "gemini-pro", "local"} {
		_, err := r.Generate(context.Background(), "prompt", model)
		assert.ErrorIs(t, err, ErrBackendNotConfigured, model)
	}
}

func TestRouter_PropagatesBackendError(t *testing.T) {
	openai := new(mockGenerator)
	openai.On("Generate", mock.Anything, "prompt", "gpt-4o").Return("", errors.New("boom"))

	r := &Router{defaultModel: "gpt-4o", openai: openai}
	_, err := r.Generate(context.Background(), "prompt", "")
	assert.EqualError(t, err, "boom")
}

func TestNewRouter(t *testing.T) {
	c := config.Default().LLM
	c.OpenAI.APIKey = "sk-test"

	r, err := NewRouter(context.Background(), &c, nil)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultModel, r.DefaultModel())
	assert.Nil(t, r.gemini)
	assert.NotNil(t, r.openai)
	assert.NotNil(t, r.local)
}

func TestNewHTTPClient(t *testing.T) {
	client, err := NewHTTPClient(config.Sock5Proxy{})
	require.NoError(t, err)
	assert.Nil(t, client.Transport)

	client, err = NewHTTPClient(config.Sock5Proxy{Host: "127.0.0.1", Port: 1080, Enable: true})
	require.NoError(t, err)
	assert.NotNil(t, client.Transport)
}
