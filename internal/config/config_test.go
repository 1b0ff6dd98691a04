package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cserrors "github.com/conneroisu/cheatsheet/internal/errors"
)

func TestLoadDefaults(t *testing.T) {
	v := viper.New()

	cfg, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, DefaultSource, cfg.Source)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Equal(t, "auto", cfg.Output.Color)
	assert.Equal(t, 0, cfg.Output.Indent)
	assert.True(t, cfg.Render.Sanitize)
	assert.True(t, cfg.Render.TOC)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost:8080", cfg.Server.Addr())
	assert.Equal(t, 300*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "README.md", cfg.SourceName())
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(v *viper.Viper)
		expectError bool
		field       string
		check       func(t *testing.T, cfg *Config)
	}{
		{
			name: "explicit values",
			setup: func(v *viper.Viper) {
				v.Set("source", "docs/react.md")
				v.Set("output.format", "JSON")
				v.Set("output.indent", 2)
				v.Set("server.port", 3000)
				v.Set("watch.debounce", "1s")
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "docs/react.md", cfg.Source)
				assert.Equal(t, "json", cfg.Output.Format)
				assert.Equal(t, 2, cfg.Output.Indent)
				assert.Equal(t, 3000, cfg.Server.Port)
				assert.Equal(t, time.Second, cfg.Watch.Debounce)
			},
		},
		{
			name: "format alias",
			setup: func(v *viper.Viper) {
				v.Set("output.format", "plain-text")
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "plain-text", cfg.Output.Format)
			},
		},
		{
			name: "comma separated origins",
			setup: func(v *viper.Viper) {
				v.Set("server.allowed_origins", []string{"http://a.test, http://b.test"})
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)
			},
		},
		{
			name:        "unsupported format",
			setup:       func(v *viper.Viper) { v.Set("output.format", "pdf") },
			expectError: true,
			field:       "output.format",
		},
		{
			name:        "port out of range",
			setup:       func(v *viper.Viper) { v.Set("server.port", 70000) },
			expectError: true,
			field:       "server.port",
		},
		{
			name:        "dangerous host",
			setup:       func(v *viper.Viper) { v.Set("server.host", "localhost;rm") },
			expectError: true,
			field:       "server.host",
		},
		{
			name:        "unknown log level",
			setup:       func(v *viper.Viper) { v.Set("log.level", "loud") },
			expectError: true,
			field:       "log.level",
		},
		{
			name:        "bad color mode",
			setup:       func(v *viper.Viper) { v.Set("output.color", "sometimes") },
			expectError: true,
			field:       "output.color",
		},
		{
			name:        "debounce too long",
			setup:       func(v *viper.Viper) { v.Set("watch.debounce", "1m") },
			expectError: true,
			field:       "watch.debounce",
		},
		{
			name:        "empty source",
			setup:       func(v *viper.Viper) { v.Set("source", " ") },
			expectError: true,
			field:       "source",
		},
		{
			name:        "invalid port type",
			setup:       func(v *viper.Viper) { v.Set("server.port", "invalid_port") },
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			tt.setup(v)

			cfg, err := LoadFrom(v)
			if tt.expectError {
				require.Error(t, err)
				assert.Nil(t, cfg)
				ctx := cserrors.GetErrorContext(err)
				assert.Equal(t, cserrors.ErrCodeConfigInvalid, ctx["code"])
				if tt.field != "" {
					assert.Equal(t, tt.field, ctx["field"])
				}
				return
			}

			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestSetupReadsFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "custom.yml")
	require.NoError(t, os.WriteFile(file, []byte(`
source: notes.md
output:
  format: html
server:
  port: 9000
  allowed_origins:
    - http://localhost:9000
`), 0o644))

	t.Setenv("CHEATSHEET_SERVER_PORT", "9100")

	v := viper.New()
	Setup(v, file)
	used, err := ReadFile(v)
	require.NoError(t, err)
	assert.Equal(t, file, used)

	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, "notes.md", cfg.Source)
	assert.Equal(t, "html", cfg.Output.Format)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:9000"}, cfg.Server.AllowedOrigins)
}

func TestReadFileMissing(t *testing.T) {
	v := viper.New()
	Setup(v, filepath.Join(t.TempDir(), "missing.yml"))
	_, err := ReadFile(v)
	require.Error(t, err)

	t.Chdir(t.TempDir())
	v = viper.New()
	Setup(v, "")
	used, err := ReadFile(v)
	require.NoError(t, err)
	assert.Empty(t, used)
}

func TestReadFileInvalidYAML(t *testing.T) {
	file := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(file, []byte("output: [unclosed"), 0o644))

	v := viper.New()
	Setup(v, file)
	_, err := ReadFile(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), cserrors.ErrCodeConfigInvalid)
}

func TestLoadUnsupportedFormatMatches(t *testing.T) {
	v := viper.New()
	v.Set("output.format", "pdf")

	_, err := LoadFrom(v)
	require.Error(t, err)
	assert.True(t, cserrors.IsUnsupportedFormat(err))
}
