package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// 默认值
const (
	DefaultTimeout       = 60
	DefaultMaxWorkers    = 4
	DefaultRPM           = 1000
	DefaultAddr          = "0.0.0.0:80"
	DefaultEntriesFile   = "entries.json"
	DefaultDigestFile    = "ai_news.json"
	DefaultFetchTimeout  = 30
	DefaultServerTimeout = "0s" // 0 表示不设请求超时
)

// Config 项目配置结构体
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Miniflux MinifluxConfig `yaml:"miniflux"`
	LLM      LLMConfig      `yaml:"llm"`
	AINews   AINewsConfig   `yaml:"ai_news"`
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Filter   FilterConfig   `yaml:"filter"`
	Content  ContentConfig  `yaml:"content"`
	Agents   Agents         `yaml:"agents"`
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// MinifluxConfig Miniflux 连接配置
type MinifluxConfig struct {
	BaseURL       string `yaml:"base_url"`
	APIKey        string `yaml:"api_key"`
	WebhookSecret string `yaml:"webhook_secret"`
}

// LLMConfig LLM 相关配置
type LLMConfig struct {
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	Timeout    int    `yaml:"timeout"` // 单次调用超时（秒）
	MaxWorkers int    `yaml:"max_workers"`
	RPM        int    `yaml:"rpm"`
	QPS        int    `yaml:"qps"` // 可选，>0 时额外做每秒平滑
}

// CallTimeout 返回单次生成调用的超时时间
func (c LLMConfig) CallTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// AINewsConfig 每日新闻摘要配置
type AINewsConfig struct {
	URL      string        `yaml:"url"`
	Schedule []string      `yaml:"schedule"`
	Prompts  AINewsPrompts `yaml:"prompts"`
}

// AINewsPrompts 生成摘要的三段提示词
type AINewsPrompts struct {
	Greeting     string `yaml:"greeting"`
	Summary      string `yaml:"summary"`
	SummaryBlock string `yaml:"summary_block"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Addr    string `yaml:"addr"`
	Timeout string `yaml:"timeout"`
}

// StorageConfig 本地 JSON 文件路径
type StorageConfig struct {
	EntriesFile string `yaml:"entries_file"`
	DigestFile  string `yaml:"digest_file"`
}

// FilterConfig 过滤器行为开关
type FilterConfig struct {
	// LegacyAllowListFallback 为 true 时，allow_list 未命中的条目回退到
	// auto_translate_non_chinese 的判断结果，而不是直接跳过
	LegacyAllowListFallback bool `yaml:"legacy_allow_list_fallback"`
}

// ContentConfig 正文抓取配置
type ContentConfig struct {
	FetchFullBelow int `yaml:"fetch_full_below"` // 纯文本少于该字数时抓取原文，0 表示关闭
	FetchTimeout   int `yaml:"fetch_timeout"`    // 秒
}

// FetchTimeoutDuration 返回原文抓取超时
func (c ContentConfig) FetchTimeoutDuration() time.Duration {
	return time.Duration(c.FetchTimeout) * time.Second
}

// LoadConfig 从指定路径加载配置
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse 解析 YAML 内容，补全默认值并校验
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.LLM.Timeout <= 0 {
		c.LLM.Timeout = DefaultTimeout
	}
	if c.LLM.MaxWorkers <= 0 {
		c.LLM.MaxWorkers = DefaultMaxWorkers
	}
	if c.LLM.RPM <= 0 {
		c.LLM.RPM = DefaultRPM
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.Timeout == "" {
		c.Server.Timeout = DefaultServerTimeout
	}
	if c.Storage.EntriesFile == "" {
		c.Storage.EntriesFile = DefaultEntriesFile
	}
	if c.Storage.DigestFile == "" {
		c.Storage.DigestFile = DefaultDigestFile
	}
	if c.Content.FetchTimeout <= 0 {
		c.Content.FetchTimeout = DefaultFetchTimeout
	}
}

// Validate 校验必填项
func (c *Config) Validate() error {
	var errs []error
	if c.Miniflux.BaseURL == "" {
		errs = append(errs, errors.New("miniflux.base_url 未配置"))
	}
	if c.Miniflux.APIKey == "" {
		errs = append(errs, errors.New("miniflux.api_key 未配置"))
	}
	if c.LLM.APIKey == "" {
		errs = append(errs, errors.New("llm.api_key 未配置"))
	}
	if c.LLM.Model == "" {
		errs = append(errs, errors.New("llm.model 未配置"))
	}
	if len(c.AINews.Schedule) > 0 {
		if c.AINews.URL == "" {
			errs = append(errs, errors.New("ai_news.url 未配置"))
		}
		for _, s := range c.AINews.Schedule {
			if _, err := time.Parse("15:04", s); err != nil {
				errs = append(errs, fmt.Errorf("ai_news.schedule 时间格式错误 %q，应为 HH:MM", s))
			}
		}
	}
	seen := make(map[string]bool, len(c.Agents))
	for _, a := range c.Agents {
		if seen[a.Name] {
			errs = append(errs, fmt.Errorf("agent 重复定义: %s", a.Name))
		}
		seen[a.Name] = true
	}
	return errors.Join(errs...)
}
