// Package config loads readmind.yaml, READMIND_* environment variables and
// command-line flags into one validated Config.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/abhisek/readmind/internal/capability"
	"github.com/abhisek/readmind/internal/i18n"
	"github.com/abhisek/readmind/internal/llm"
)

// EnvPrefix prefixes every environment override, e.g. READMIND_LLM_PROVIDER.
const EnvPrefix = "READMIND"

// Notes backends.
const (
	NotesSQLite = "sqlite"
	NotesFile   = "file"
	NotesRedis  = "redis"
	NotesMemory = "memory"
)

type Config struct {
	LLM      llm.Config     `mapstructure:"llm"`
	DB       string         `mapstructure:"db"`
	Notes    NotesConfig    `mapstructure:"notes"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Catalog  string         `mapstructure:"catalog" validate:"omitempty,file"`
	Profile  string         `mapstructure:"profile" validate:"required,profile"`
	Lang     string         `mapstructure:"lang" validate:"oneof=en zh"`
	Serve    ServeConfig    `mapstructure:"serve"`
	Dialogue DialogueConfig `mapstructure:"dialogue"`
	Log      LogConfig      `mapstructure:"log"`
}

type NotesConfig struct {
	Backend string `mapstructure:"backend" validate:"oneof=sqlite file redis memory"`
	Dir     string `mapstructure:"dir" validate:"required_if=Backend file"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr" validate:"omitempty,hostname_port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0,lte=15"`
}

type ServeConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gte=0"`
}

type DialogueConfig struct {
	MaxWords        int `mapstructure:"max_words" validate:"gte=10,lte=500"`
	MaxHistoryTurns int `mapstructure:"max_history_turns" validate:"gte=0"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// ParsedProfile returns the configured capability profile.
func (c *Config) ParsedProfile() (capability.Profile, error) {
	return capability.ParseProfile(c.Profile)
}

// flagKeys maps command-line flags onto configuration keys. --model is
// applied to whichever provider ends up selected.
var flagKeys = map[string]string{
	"provider":      "llm.provider",
	"db":            "db",
	"catalog":       "catalog",
	"profile":       "profile",
	"lang":          "lang",
	"notes-backend": "notes.backend",
	"notes-dir":     "notes.dir",
	"addr":          "serve.addr",
	"log-level":     "log.level",
	"log-format":    "log.format",
}

func setDefaults(v *viper.Viper) {
	d := llm.DefaultConfig()
	v.SetDefault("llm.anthropic.api_key", "")
	v.SetDefault("llm.anthropic.model", d.Anthropic.Model)
	v.SetDefault("llm.openai.api_key", "")
	v.SetDefault("llm.openai.model", d.OpenAI.Model)
	v.SetDefault("llm.openai.base_url", "")
	v.SetDefault("llm.gemini.api_key", "")
	v.SetDefault("llm.gemini.model", d.Gemini.Model)
	v.SetDefault("llm.openrouter.api_key", "")
	v.SetDefault("llm.openrouter.model", d.OpenRouter.Model)
	v.SetDefault("llm.openrouter.base_url", "")
	v.SetDefault("llm.retry.max_attempts", d.Retry.MaxAttempts)
	v.SetDefault("llm.retry.initial_wait", d.Retry.InitialWait)
	v.SetDefault("llm.retry.max_wait", d.Retry.MaxWait)
	v.SetDefault("llm.retry.multiplier", d.Retry.Multiplier)
	v.SetDefault("llm.timeout", d.Timeout)

	v.SetDefault("db", "")
	v.SetDefault("notes.backend", NotesSQLite)
	v.SetDefault("notes.dir", "")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("catalog", "")
	v.SetDefault("profile", capability.SampleProfile().String())
	v.SetDefault("lang", i18n.DefaultLang)
	v.SetDefault("serve.addr", "127.0.0.1:8080")
	v.SetDefault("serve.shutdown_timeout", 10*time.Second)
	v.SetDefault("dialogue.max_words", 100)
	v.SetDefault("dialogue.max_history_turns", 20)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads configuration from configFile (or readmind.yaml in the working
// directory or $HOME/.config/readmind), the environment and flags, in
// increasing precedence. flags may be nil.
//
// When llm.provider is not set anywhere, the first provider with a standard
// vendor key in the environment (GEMINI_API_KEY, ...) is used, falling back
// to gemini.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("readmind")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/readmind")
	}

	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("llm.provider"); err != nil {
		return nil, fmt.Errorf("bind llm.provider: %w", err)
	}

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag --%s: %w", name, err)
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = llm.ProviderGemini
		if p, ok := llm.DiscoverProvider(); ok {
			cfg.LLM.Provider = p
		}
	}
	cfg.LLM.FillStandardKeys()

	if flags != nil {
		if f := flags.Lookup("model"); f != nil && f.Changed {
			cfg.SetModel(f.Value.String())
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetModel overrides the model of the selected provider.
func (c *Config) SetModel(model string) {
	switch c.LLM.Provider {
	case llm.ProviderAnthropic:
		c.LLM.Anthropic.Model = model
	case llm.ProviderOpenAI:
		c.LLM.OpenAI.Model = model
	case llm.ProviderGemini:
		c.LLM.Gemini.Model = model
	case llm.ProviderOpenRouter:
		c.LLM.OpenRouter.Model = model
	}
}
