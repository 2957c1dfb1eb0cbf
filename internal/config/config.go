// Package config loads the service configuration from YAML with sensible
// defaults for every key.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// DatabaseConfig holds the SQLite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LLMConfig holds settings for the model backend.
type LLMConfig struct {
	Model  string `mapstructure:"model" yaml:"model"`
	APIKey string `mapstructure:"api_key" yaml:"api_key"`
}

// SessionConfig holds per-user conversation settings.
type SessionConfig struct {
	MaxTurns int           `mapstructure:"max_turns" yaml:"max_turns"`
	IdleTTL  time.Duration `mapstructure:"idle_ttl" yaml:"idle_ttl"`
}

// AgentConfig holds chat-turn settings.
type AgentConfig struct {
	MaxToolRounds int `mapstructure:"max_tool_rounds" yaml:"max_tool_rounds"`
}

// Config is the top-level service configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	LLM      LLMConfig      `mapstructure:"llm" yaml:"llm"`
	Session  SessionConfig  `mapstructure:"session" yaml:"session"`
	Agent    AgentConfig    `mapstructure:"agent" yaml:"agent"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/taskchat/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "taskchat", "config.yaml")
}

func defaultConfig() *Config {
	return &Config{
		Server:   ServerConfig{Addr: ":8080"},
		Database: DatabaseConfig{Path: "taskchat.db"},
		LLM:      LLMConfig{Model: "gemini-2.5-flash"},
		Session:  SessionConfig{MaxTurns: 10, IdleTTL: 30 * time.Minute},
		Agent:    AgentConfig{MaxToolRounds: 5},
	}
}

// Load reads configuration from the given YAML file path using Viper. A
// missing file resolves to the defaults. GEMINI_API_KEY in the environment
// overrides llm.api_key either way.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("database.path", "taskchat.db")
	v.SetDefault("llm.model", "gemini-2.5-flash")
	v.SetDefault("session.max_turns", 10)
	v.SetDefault("session.idle_ttl", 30*time.Minute)
	v.SetDefault("agent.max_tool_rounds", 5)

	cfg := defaultConfig()
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); !ok {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		}
	} else if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.LLM.APIKey = key
	}

	return cfg, nil
}
