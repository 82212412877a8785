package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

type ServerConfig struct {
	Port int `toml:"port"`
}

type StorageConfig struct {
	DataDir  string `toml:"data_dir"`
	MediaDir string `toml:"media_dir"`
}

type UploadConfig struct {
	MaxSizeMB     int  `toml:"max_size_mb"`
	ImageMaxWidth uint `toml:"image_max_width"`
}

type MailConfig struct {
	Enabled    bool     `toml:"enabled"`
	Host       string   `toml:"host"`
	Port       int      `toml:"port"`
	Username   string   `toml:"username"`
	Password   string   `toml:"password"`
	From       string   `toml:"from"`
	FromName   string   `toml:"from_name"`
	Recipients []string `toml:"recipients"` // notified on every new memory
}

type TaggerConfig struct {
	Provider     string `toml:"provider"` // "http" or "openai"
	URL          string `toml:"url"`      // base URL of the classifier service
	APIKey       string `toml:"api_key"`
	Model        string `toml:"model"`
	TopK         int    `toml:"top_k"`
	CacheTTLMins int    `toml:"cache_ttl_minutes"`
}

type RateLimitConfig struct {
	Requests int `toml:"requests"`
	PerMins  int `toml:"per_minutes"`
}

type Config struct {
	Server    ServerConfig    `toml:"server"`
	Storage   StorageConfig   `toml:"storage"`
	Upload    UploadConfig    `toml:"upload"`
	Mail      MailConfig      `toml:"mail"`
	Tagger    TaggerConfig    `toml:"tagger"`
	RateLimit RateLimitConfig `toml:"ratelimit"`
}

func LoadConfig(filepath string) (*Config, error) {
	var config Config

	// Set default values
	config.Server.Port = 3000
	config.Storage.DataDir = "./data"
	config.Storage.MediaDir = "./data/media"
	config.Upload.MaxSizeMB = 25
	config.Upload.ImageMaxWidth = 1920
	config.Mail.Port = 587
	config.Tagger.Provider = "http"
	config.Tagger.TopK = 5
	config.Tagger.CacheTTLMins = 60
	config.RateLimit.Requests = 100
	config.RateLimit.PerMins = 1

	// Load config file
	_, err := toml.DecodeFile(filepath, &config)
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	return &config, nil
}

// Validate checks the loaded configuration for inconsistencies
func (c *Config) Validate() error {
	if c.Storage.DataDir == "" {
		return fmt.Errorf("storage data directory is required")
	}

	if c.Mail.Enabled {
		if c.Mail.Host == "" {
			return fmt.Errorf("mail host is required when mail is enabled")
		}
		if c.Mail.From == "" {
			return fmt.Errorf("mail sender address is required when mail is enabled")
		}
		if len(c.Mail.Recipients) == 0 {
			return fmt.Errorf("at least one mail recipient is required when mail is enabled")
		}
	}

	switch c.Tagger.Provider {
	case "http":
		if c.Tagger.URL == "" {
			return fmt.Errorf("tagger URL is required for the http provider")
		}
	case "openai":
		if c.Tagger.APIKey == "" {
			return fmt.Errorf("tagger API key is required for the openai provider")
		}
	case "":
		// Tag suggestions disabled
	default:
		return fmt.Errorf("unknown tagger provider %q", c.Tagger.Provider)
	}

	return nil
}

// EnsureDirs creates the storage directories if they do not exist
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.Storage.DataDir, c.Storage.MediaDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// BodyLimit returns the maximum accepted request body size in bytes
func (c *Config) BodyLimit() int {
	if c.Upload.MaxSizeMB <= 0 {
		return 25 * 1024 * 1024
	}
	return c.Upload.MaxSizeMB * 1024 * 1024
}
