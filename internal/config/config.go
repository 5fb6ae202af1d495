package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

// ErrConfiguration wraps every decode or validation failure.
var ErrConfiguration = errors.New("invalid configuration")

// EnvPath overrides the config file location.
const EnvPath = "CHATSTAT_CONFIG"

const (
	ProviderVader  = "vader"
	ProviderOpenAI = "openai"
	ProviderNone   = "none"
)

type Config struct {
	DBPath     string    `toml:"db_path"     validate:"required"`
	ExportRoot string    `toml:"export_root"`
	LogLevel   string    `toml:"log_level"   validate:"oneof=debug info warn error"`
	LogFormat  string    `toml:"log_format"  validate:"oneof=console json"`
	Sentiment  Sentiment `toml:"sentiment"`

	// Path is the file the config was read from; empty when only defaults apply.
	Path string `toml:"-"`
}

type Sentiment struct {
	Provider  string        `toml:"provider"    validate:"oneof=vader openai none"`
	Model     string        `toml:"model"`
	BaseURL   string        `toml:"base_url"    validate:"omitempty,url"`
	APIKeyEnv string        `toml:"api_key_env" validate:"required_if=Provider openai"`
	Timeout   time.Duration `toml:"timeout"     validate:"min=1s,max=10m"`
}

// APIKey reads the key from the configured environment variable.
func (s Sentiment) APIKey() string {
	if s.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(s.APIKeyEnv)
}

// Enabled reports whether a scorer can be built. The lexicon provider
// always can; openai needs its key.
func (s Sentiment) Enabled() bool {
	switch s.Provider {
	case ProviderVader:
		return true
	case ProviderOpenAI:
		return s.APIKey() != ""
	}
	return false
}

func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	cfgPath := os.Getenv(EnvPath)
	if cfgPath == "" {
		cfgPath = filepath.Join(home, ".config", "chatstat", "config.toml")
	}
	return LoadFrom(cfgPath, home)
}

// LoadFrom applies defaults, then the file at cfgPath if it exists.
func LoadFrom(cfgPath, home string) (*Config, error) {
	cfg := Default(home)

	if _, err := os.Stat(cfgPath); err == nil {
		if _, err := toml.DecodeFile(cfgPath, cfg); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", ErrConfiguration, cfgPath, err)
		}
		cfg.Path = cfgPath
	}

	// expand ~ in paths
	cfg.DBPath = expandHome(cfg.DBPath, home)
	cfg.ExportRoot = expandHome(cfg.ExportRoot, home)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return cfg, nil
}

func Default(home string) *Config {
	return &Config{
		DBPath:     filepath.Join(home, ".config", "chatstat", "chatstat.db"),
		ExportRoot: filepath.Join(home, "Downloads"),
		LogLevel:   "info",
		LogFormat:  "console",
		Sentiment: Sentiment{
			Provider:  ProviderVader,
			Model:     "gpt-4o-mini",
			APIKeyEnv: "OPENAI_API_KEY",
			Timeout:   2 * time.Minute,
		},
	}
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
