package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/spf13/viper"
)

const (
	defaultPath    = "config.yaml"
	envPrefix      = "CHATLINE"
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
)

// Config holds the application configuration
type Config struct {
	LLM      LLMConfig     `mapstructure:"llm"`
	History  HistoryConfig `mapstructure:"history"`
	Server   ServerConfig  `mapstructure:"server"`
	LogLevel string        `mapstructure:"log_level"`
	Stream   bool          `mapstructure:"stream"`
}

// LLMConfig holds the remote model endpoint, credential and model name.
type LLMConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// HistoryConfig holds where turns are persisted and which conversation they belong to.
type HistoryConfig struct {
	Path      string `mapstructure:"path"`
	SessionID string `mapstructure:"session_id"`
}

// ServerConfig holds the server configuration. An empty port disables the HTTP front end.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

// ConfigError reports a failure to load or save the configuration file.
type ConfigError struct {
	Op   string
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// EnsureSessionID assigns a new conversation id when none is set and
// reports whether it did.
func (c *Config) EnsureSessionID() bool {
	if c.History.SessionID != "" {
		return false
	}
	c.History.SessionID = uuid.NewString()
	return true
}

// Path returns the config file location, CONFIG_PATH when set.
func Path() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return defaultPath
}

// Load loads the configuration from Path().
func Load() (*Config, error) {
	return LoadFile(Path())
}

// LoadFile reads the YAML file at path, applying defaults and CHATLINE_*
// environment overrides. A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, &ConfigError{Op: "load", Path: path, Err: err}
	}
	return decode(v, path)
}

// Save writes cfg to path as YAML. An API key supplied through
// CHATLINE_LLM_API_KEY stays out of the file; whatever key the file
// already held is written back instead.
func Save(path string, cfg *Config) error {
	apiKey := cfg.LLM.APIKey
	if env := os.Getenv(envPrefix + "_LLM_API_KEY"); env != "" && env == apiKey {
		apiKey = fileValue(path, "llm.api_key")
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.Set("llm.base_url", cfg.LLM.BaseURL)
	if apiKey != "" {
		v.Set("llm.api_key", apiKey)
	}
	v.Set("llm.model", cfg.LLM.Model)
	v.Set("llm.timeout", cfg.LLM.Timeout.String())
	v.Set("history.path", cfg.History.Path)
	v.Set("history.session_id", cfg.History.SessionID)
	v.Set("server.host", cfg.Server.Host)
	v.Set("server.port", cfg.Server.Port)
	v.Set("log_level", cfg.LogLevel)
	v.Set("stream", cfg.Stream)
	if err := v.WriteConfigAs(path); err != nil {
		return &ConfigError{Op: "save", Path: path, Err: err}
	}
	return nil
}

// Watch calls onChange with the freshly decoded config every time the file
// at path is written. Read and decode failures are passed to onError and the
// change is skipped.
func Watch(path string, onChange func(*Config), onError func(error)) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		onError(&ConfigError{Op: "watch", Path: path, Err: err})
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		// viper already re-read the file but only logs a parse failure.
		if err := v.ReadInConfig(); err != nil {
			onError(&ConfigError{Op: "reload", Path: path, Err: err})
			return
		}
		cfg, err := decode(v, path)
		if err != nil {
			onError(err)
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("llm.base_url", defaultBaseURL)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", defaultModel)
	v.SetDefault("llm.timeout", "0s")
	v.SetDefault("history.path", "history.db")
	v.SetDefault("history.session_id", "")
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("stream", true)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// fileValue returns key as stored in the file at path, ignoring defaults
// and the environment. A missing or unreadable file yields "".
func fileValue(path, key string) string {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return ""
	}
	return v.GetString(key)
}

func decode(v *viper.Viper, path string) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, &ConfigError{Op: "decode", Path: path, Err: err}
	}
	return &config, nil
}
