package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xxxsen/common/logger"

	"github.com/fedro86/almost-a-cms/internal/model"
)

type Config struct {
	Port          int              `json:"port"`
	DataDir       string           `json:"data_dir"`
	LogConfig     logger.LogConfig `json:"log_config"`
	Store         StoreConfig      `json:"store"`
	Cache         CacheConfig      `json:"cache"`
	Index         IndexConfig      `json:"index"`
	Assets        AssetsConfig     `json:"assets"`
	Watch         bool             `json:"watch"`
	CORSAllowlist []string         `json:"cors_allowlist"`
	// RegenerateWindowSeconds throttles POST /api/regenerate per client. Zero disables it.
	RegenerateWindowSeconds int `json:"regenerate_window_seconds"`
}

type StoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type CacheConfig struct {
	Size       int `json:"size"`
	TTLSeconds int `json:"ttl_seconds"`
}

type AssetsConfig struct {
	// MaxBytes caps a single image upload.
	MaxBytes int64 `json:"max_bytes"`
}

type IndexConfig struct {
	OutputPath string        `json:"output_path"`
	Template   string        `json:"template"`
	Title      string        `json:"title"`
	Markdown   *bool         `json:"markdown"`
	Cron       string        `json:"cron"`
	Publish    PublishConfig `json:"publish"`
}

// MarkdownEnabled defaults to true when the field is absent.
func (c IndexConfig) MarkdownEnabled() bool {
	return c.Markdown == nil || *c.Markdown
}

type PublishConfig struct {
	Enabled   bool   `json:"enabled"`
	Endpoint  string `json:"endpoint"`
	SecretID  string `json:"secret_id"`
	SecretKey string `json:"secret_key"`
	Bucket    string `json:"bucket"`
	Region    string `json:"region"`
	Key       string `json:"key"`
	UseSSL    bool   `json:"use_ssl"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration usable without a config file.
func Default() *Config {
	cfg := &Config{}
	_ = cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() error {
	if c.Port == 0 {
		c.Port = 5000
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "data"
	}
	if c.LogConfig.Level == "" {
		c.LogConfig.Level = "info"
	}
	if c.Store.Type == "" {
		c.Store.Type = "local"
	}
	switch strings.ToLower(c.Store.Type) {
	case "local":
		if c.Store.Data == nil {
			c.Store.Data = map[string]interface{}{"dir": c.DataDir}
		}
	case "s3":
		if c.Store.Data == nil {
			return fmt.Errorf("store.data is required for s3 store")
		}
		if c.Watch {
			return fmt.Errorf("watch is only supported with the local store")
		}
	default:
		return fmt.Errorf("store.type must be local or s3")
	}
	if c.RegenerateWindowSeconds < 0 {
		return fmt.Errorf("regenerate_window_seconds must not be negative")
	}
	if c.Cache.Size > 0 && c.Cache.TTLSeconds <= 0 {
		c.Cache.TTLSeconds = 60
	}
	if c.Assets.MaxBytes < 0 {
		return fmt.Errorf("assets.max_bytes must not be negative")
	}
	if c.Assets.MaxBytes == 0 {
		c.Assets.MaxBytes = model.DefaultMaxAssetBytes
	}
	if c.Index.OutputPath == "" {
		c.Index.OutputPath = "index.html"
	}
	if c.Index.Title == "" {
		c.Index.Title = "Index"
	}
	if c.Index.Publish.Enabled {
		p := c.Index.Publish
		if p.Endpoint == "" || p.Bucket == "" || p.SecretID == "" || p.SecretKey == "" {
			return fmt.Errorf("index.publish endpoint/bucket/secret_id/secret_key are required when publishing")
		}
		if p.Region == "" {
			c.Index.Publish.Region = "cn"
		}
		if p.Key == "" {
			c.Index.Publish.Key = "index.html"
		}
	}
	return nil
}
