// Package config provides configuration management for the cheatsheet tool
// using Viper for loading from files, environment variables and flags.
//
// Configuration is read from .cheatsheet.yml (or the file named by --config
// or CHEATSHEET_CONFIG_FILE), overridden by CHEATSHEET_<SECTION>_<KEY>
// environment variables and by bound command-line flags. Load unmarshals the
// merged view into typed structs, applies defaults and validates the result.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	cserrors "github.com/conneroisu/cheatsheet/internal/errors"
)

// EnvPrefix is the prefix for environment overrides.
const EnvPrefix = "CHEATSHEET"

// DefaultSource is the Markdown file used when none is configured.
const DefaultSource = "README.md"

type Config struct {
	Source string       `mapstructure:"source" yaml:"source"`
	Output OutputConfig `mapstructure:"output" yaml:"output"`
	Render RenderConfig `mapstructure:"render" yaml:"render"`
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	Watch  WatchConfig  `mapstructure:"watch" yaml:"watch"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
}

type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
	Path   string `mapstructure:"path" yaml:"path"`
	Indent int    `mapstructure:"indent" yaml:"indent"`
	// Color is one of auto, always or never.
	Color string `mapstructure:"color" yaml:"color"`
}

type RenderConfig struct {
	Title    string `mapstructure:"title" yaml:"title"`
	Sanitize bool   `mapstructure:"sanitize" yaml:"sanitize"`
	TOC      bool   `mapstructure:"toc" yaml:"toc"`
}

type ServerConfig struct {
	Host           string   `mapstructure:"host" yaml:"host"`
	Port           int      `mapstructure:"port" yaml:"port"`
	Open           bool     `mapstructure:"open" yaml:"open"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	// Dir enables a daily log file in this directory when set.
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// SetDefaults registers default values on v. Explicitly set keys win.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("source", DefaultSource)
	v.SetDefault("output.format", "text")
	v.SetDefault("output.path", "")
	v.SetDefault("output.indent", 0)
	v.SetDefault("output.color", "auto")
	v.SetDefault("render.title", "")
	v.SetDefault("render.sanitize", true)
	v.SetDefault("render.toc", true)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.open", false)
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("watch.debounce", 300*time.Millisecond)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.dir", "")
}

// Setup points v at the config file and environment. An explicit file, from
// a flag or CHEATSHEET_CONFIG_FILE, takes precedence over .cheatsheet.yml in
// the working directory.
func Setup(v *viper.Viper, file string) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".cheatsheet")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
}

// ReadFile reads the configured file. A missing default file is not an
// error; a missing explicit file is.
func ReadFile(v *viper.Viper) (string, error) {
	err := v.ReadInConfig()
	if err == nil {
		return v.ConfigFileUsed(), nil
	}
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		return "", nil
	}
	return "", cserrors.WrapConfig(err, cserrors.ErrCodeConfigInvalid, "reading config file")
}

// Load unmarshals the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom unmarshals v into a Config, applies defaults and validates it.
func LoadFrom(v *viper.Viper) (*Config, error) {
	cfg, err := Decode(v)
	if err != nil {
		return nil, err
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode unmarshals v into a normalised Config without validating it.
func Decode(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, cserrors.WrapConfig(err, cserrors.ErrCodeConfigInvalid, "decoding configuration")
	}

	// env overrides of slices arrive as a single comma separated string
	if v.IsSet("server.allowed_origins") && len(cfg.Server.AllowedOrigins) == 1 {
		cfg.Server.AllowedOrigins = splitList(cfg.Server.AllowedOrigins[0])
	}

	cfg.Output.Format = strings.ToLower(strings.TrimSpace(cfg.Output.Format))
	cfg.Output.Color = strings.ToLower(strings.TrimSpace(cfg.Output.Color))
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))

	return &cfg, nil
}

// Addr returns host:port for the preview server.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SourceName returns the base name of the configured source.
func (c *Config) SourceName() string {
	return filepath.Base(c.Source)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// validateConfig rejects values no command can work with. Softer problems
// are reported by ValidateConfigWithDetails.
func validateConfig(cfg *Config) error {
	result := ValidateConfigWithDetails(cfg)
	if !result.HasErrors() {
		return nil
	}

	first := result.Errors[0]
	err := cserrors.NewConfigError(cserrors.ErrCodeConfigInvalid,
		fmt.Sprintf("invalid configuration: %s: %s", first.Field, first.Message))
	if first.Field == "output.format" {
		err.Cause = cserrors.UnsupportedFormat(fmt.Sprint(first.Value))
	}
	return err.WithContext("field", first.Field).WithContext("errors", len(result.Errors))
}
