// Package config loads application settings from an optional YAML file with
// environment variable overrides. Environment always wins over the file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full application configuration.
type Config struct {
	ListenAddr     string   `yaml:"listen_addr"`
	DatabasePath   string   `yaml:"database_path"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	Debug          bool     `yaml:"debug"`

	OpenAI OpenAIConfig `yaml:"openai"`
	Cache  CacheConfig  `yaml:"cache"`
}

// OpenAIConfig configures the roadmap generator's LLM client. An empty
// APIKey disables roadmap generation; every other endpoint still works.
type OpenAIConfig struct {
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	MaxRetries  int     `yaml:"max_retries"`
}

// CacheConfig configures the roadmap response cache.
type CacheConfig struct {
	Dir      string        `yaml:"dir"`
	TTL      time.Duration `yaml:"-"`
	InMemory bool          `yaml:"in_memory"`
}

// UnmarshalYAML accepts the TTL as a duration string ("30m", "1h") and
// leaves defaults in place for fields the file omits.
func (c *CacheConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Dir      string `yaml:"dir"`
		TTL      string `yaml:"ttl"`
		InMemory *bool  `yaml:"in_memory"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.Dir != "" {
		c.Dir = raw.Dir
	}
	if raw.TTL != "" {
		d, err := time.ParseDuration(raw.TTL)
		if err != nil {
			return fmt.Errorf("parse cache ttl: %w", err)
		}
		c.TTL = d
	}
	if raw.InMemory != nil {
		c.InMemory = *raw.InMemory
	}
	return nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ListenAddr:     ":" + getEnv("PORT", "8080"),
		DatabasePath:   "gradplan.db",
		AllowedOrigins: []string{"http://localhost:3000"},
		OpenAI: OpenAIConfig{
			Model:       "gpt-4o",
			Temperature: 0.7,
			MaxRetries:  3,
		},
		Cache: CacheConfig{
			Dir: "roadmap-cache",
			TTL: time.Hour,
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty or the file does not exist), then environment
// variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// Optional file; defaults and environment carry it.
		default:
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.ListenAddr = getEnv("LISTEN_ADDR", c.ListenAddr)
	c.DatabasePath = getEnv("DATABASE_PATH", c.DatabasePath)
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		origins := []string{}
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
		c.AllowedOrigins = origins
	}
	c.Debug = getEnvBool("DEBUG", c.Debug)

	c.OpenAI.APIKey = getEnv("OPENAI_API_KEY", c.OpenAI.APIKey)
	c.OpenAI.Model = getEnv("OPENAI_MODEL", c.OpenAI.Model)
	c.OpenAI.MaxRetries = getEnvInt("OPENAI_MAX_RETRIES", c.OpenAI.MaxRetries)

	c.Cache.Dir = getEnv("CACHE_DIR", c.Cache.Dir)
	if v := os.Getenv("CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Cache.TTL = d
		}
	}
	c.Cache.InMemory = getEnvBool("CACHE_IN_MEMORY", c.Cache.InMemory)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
