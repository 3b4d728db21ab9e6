package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

type Sock5Proxy struct {
	Host   string `yaml:"Host"`
	Port   int32  `yaml:"Port"`
	Enable bool   `yaml:"Enable"`
}

type Gemini struct {
	APIKey string `yaml:"APIKey"`
}

type OpenAI struct {
	BaseURL string `yaml:"BaseURL"` // 兼容 OpenAI API 的端点
	APIKey  string `yaml:"APIKey"`
}

// Local 本地模型，走兼容 OpenAI API 的本地服务（如 Ollama）
type Local struct {
	BaseURL string `yaml:"BaseURL"`
	Model   string `yaml:"Model"` // 如 llama3.2
}

type LLM struct {
	DefaultModel string `yaml:"DefaultModel"` // 如 models/gemini-1.5-pro-001, gpt-4o, local
	Gemini       Gemini `yaml:"Gemini"`
	OpenAI       OpenAI `yaml:"OpenAI"`
	Local        Local  `yaml:"Local"`
}

type Summary struct {
	Cron       string `yaml:"Cron"`       // cron 表达式，如 "0 23 * * *"
	Transcript string `yaml:"Transcript"` // 定时总结的聊天导出文件
	OutputDir  string `yaml:"OutputDir"`  // 总结输出目录
	RangeDays  int    `yaml:"RangeDays"`  // 总结天数，1=仅昨天，7=最近7天
	Newsletter bool   `yaml:"Newsletter"` // 是否生成简报导语
	Model      string `yaml:"Model"`      // 为空时使用 LLM.DefaultModel
}

type Store struct {
	Path string `yaml:"Path"` // sqlite 数据库文件
}

type Server struct {
	Port int `yaml:"Port"`
}

type Log struct {
	Dir   string `yaml:"Dir"`
	Level string `yaml:"Level"` // debug / info / warn / error
}

type Config struct {
	Sock5Proxy Sock5Proxy `yaml:"Sock5Proxy"`
	LLM        LLM        `yaml:"LLM"`
	Summary    Summary    `yaml:"Summary"`
	Store      Store      `yaml:"Store"`
	Server     Server     `yaml:"Server"`
	Log        Log        `yaml:"Log"`
}

const (
	DefaultModel      = "models/gemini-1.5-pro-001"
	DefaultLocalURL   = "http://localhost:11434/v1"
	DefaultLocalModel = "llama3.2"
)

// Default 返回不依赖配置文件即可运行的默认配置
func Default() *Config {
	return &Config{
		LLM: LLM{
			DefaultModel: DefaultModel,
			Local: Local{
				BaseURL: DefaultLocalURL,
				Model:   DefaultLocalModel,
			},
		},
		Summary: Summary{
			Cron:      "0 23 * * 0",
			OutputDir: "data/digests",
			RangeDays: 7,
		},
		Store:  Store{Path: "data/sqlite.db"},
		Server: Server{Port: 8760},
		Log:    Log{Dir: "logs", Level: "info"},
	}
}

func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	c := Default()
	err = yaml.Unmarshal(data, c)
	if err != nil {
		return nil, err
	}

	c.ApplyEnv()

	// 验证配置
	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// ApplyEnv 使用环境变量覆盖密钥类配置，避免把 APIKey 写进配置文件
func (c *Config) ApplyEnv() {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.LLM.Gemini.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.LLM.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.LLM.OpenAI.BaseURL = v
	}
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	// 验证 Sock5Proxy
	if c.Sock5Proxy.Enable {
		if c.Sock5Proxy.Host == "" {
			return fmt.Errorf("Sock5Proxy.Host 不能为空")
		}
		if c.Sock5Proxy.Port <= 0 {
			return fmt.Errorf("Sock5Proxy.Port 必须大于 0")
		}
	}

	// 验证 LLM
	if strings.TrimSpace(c.LLM.DefaultModel) == "" {
		return fmt.Errorf("LLM.DefaultModel 不能为空")
	}

	// 验证 Summary
	if c.Summary.Cron != "" {
		if _, err := cron.ParseStandard(c.Summary.Cron); err != nil {
			return fmt.Errorf("Summary.Cron 无效: %w", err)
		}
	}
	if c.Summary.RangeDays < 0 {
		return fmt.Errorf("Summary.RangeDays 必须 >= 0")
	}

	// 验证 Server
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("Server.Port 必须在 0 ~ 65535 之间")
	}

	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("Log.Level 必须是 'debug', 'info', 'warn' 或 'error'")
	}

	return nil
}

// SummaryModel 定时总结使用的模型
func (c *Config) SummaryModel() string {
	if c.Summary.Model != "" {
		return c.Summary.Model
	}
	return c.LLM.DefaultModel
}
