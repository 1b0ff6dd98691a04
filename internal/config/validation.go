package config

import (
	"fmt"
	"net"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/conneroisu/cheatsheet/internal/logging"
	"github.com/conneroisu/cheatsheet/internal/renderer"
)

// ValidationError represents a configuration validation error with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder

	write := func(heading string, issues []ValidationError) {
		if len(issues) == 0 {
			return
		}
		builder.WriteString(heading + ":\n")
		for _, issue := range issues {
			builder.WriteString(fmt.Sprintf("  - %s: %s\n", issue.Field, issue.Message))
			for _, suggestion := range issue.Suggestions {
				builder.WriteString(fmt.Sprintf("      hint: %s\n", suggestion))
			}
		}
	}

	write("Errors", vr.Errors)
	write("Warnings", vr.Warnings)

	return builder.String()
}

// ValidateConfigWithDetails performs comprehensive validation with detailed feedback
func ValidateConfigWithDetails(cfg *Config) *ValidationResult {
	result := &ValidationResult{
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	validateSourceDetails(cfg.Source, result)
	validateOutputConfigDetails(&cfg.Output, result)
	validateServerConfigDetails(&cfg.Server, result)
	validateWatchConfigDetails(&cfg.Watch, result)
	validateLogConfigDetails(&cfg.Log, result)

	result.Valid = !result.HasErrors()

	return result
}

func validateSourceDetails(source string, result *ValidationResult) {
	if strings.TrimSpace(source) == "" {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "source",
			Value:   source,
			Message: "source cannot be empty",
			Suggestions: []string{
				"Point source at the Markdown cheat sheet, e.g. README.md",
			},
		})
		return
	}

	if err := validatePath(source); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "source",
			Value:   source,
			Message: err.Error(),
		})
		return
	}

	if !pathExists(source) {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "source",
			Value:   source,
			Message: "file does not exist; the bundled cheat sheet will be used",
			Suggestions: []string{
				"Check for typos in the path",
				"Pass --source to choose another file",
			},
		})
	} else if !strings.HasSuffix(strings.ToLower(source), ".md") && !strings.HasSuffix(strings.ToLower(source), ".markdown") {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "source",
			Value:   source,
			Message: "source does not look like a Markdown file",
		})
	}
}

func validateOutputConfigDetails(cfg *OutputConfig, result *ValidationResult) {
	if _, err := renderer.ParseFormat(cfg.Format); err != nil {
		names := make([]string, 0, len(renderer.Formats()))
		for _, f := range renderer.Formats() {
			names = append(names, string(f))
		}
		result.Errors = append(result.Errors, ValidationError{
			Field:   "output.format",
			Value:   cfg.Format,
			Message: fmt.Sprintf("unsupported format %q", cfg.Format),
			Suggestions: []string{
				"Available formats: " + strings.Join(names, ", "),
			},
		})
	}

	if cfg.Indent < 0 || cfg.Indent > 8 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "output.indent",
			Value:   cfg.Indent,
			Message: fmt.Sprintf("indent %d is not in range 0-8", cfg.Indent),
		})
	}

	if !contains([]string{"auto", "always", "never"}, cfg.Color) {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "output.color",
			Value:   cfg.Color,
			Message: fmt.Sprintf("unknown color mode %q", cfg.Color),
			Suggestions: []string{
				"Use 'auto', 'always' or 'never'",
			},
		})
	}

	if cfg.Path != "" {
		if err := validatePath(cfg.Path); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "output.path",
				Value:   cfg.Path,
				Message: err.Error(),
			})
		}
	}
}

func validateServerConfigDetails(cfg *ServerConfig, result *ValidationResult) {
	// Port 0 lets the system pick a free port.
	if cfg.Port < 0 || cfg.Port > 65535 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "server.port",
			Value:   cfg.Port,
			Message: fmt.Sprintf("port %d is not in valid range 0-65535", cfg.Port),
			Suggestions: []string{
				"Use a port between 1024-65535 for non-privileged access",
				"Port 0 allows system to assign an available port",
			},
		})
	} else if cfg.Port > 0 && cfg.Port < 1024 {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "server.port",
			Value:   cfg.Port,
			Message: "port below 1024 requires elevated privileges",
		})
	}

	if cfg.Host != "" {
		if err := validateHostname(cfg.Host); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "server.host",
				Value:   cfg.Host,
				Message: err.Error(),
				Suggestions: []string{
					"Use 'localhost' for local previews",
					"Use '0.0.0.0' to bind to all interfaces",
				},
			})
		} else if cfg.Host == "0.0.0.0" || cfg.Host == "::" {
			result.Warnings = append(result.Warnings, ValidationError{
				Field:   "server.host",
				Value:   cfg.Host,
				Message: "preview server will be reachable from other machines",
			})
		}
	}

	for i, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			result.Warnings = append(result.Warnings, ValidationError{
				Field:   fmt.Sprintf("server.allowed_origins[%d]", i),
				Value:   origin,
				Message: "wildcard origin accepts live-reload connections from any site",
			})
		}
	}
}

func validateWatchConfigDetails(cfg *WatchConfig, result *ValidationResult) {
	if cfg.Debounce < 0 || cfg.Debounce > 10*time.Second {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "watch.debounce",
			Value:   cfg.Debounce,
			Message: fmt.Sprintf("debounce %s is not in range 0s-10s", cfg.Debounce),
			Suggestions: []string{
				"Use a value like 300ms",
			},
		})
	}
}

func validateLogConfigDetails(cfg *LogConfig, result *ValidationResult) {
	if _, err := logging.ParseLevel(cfg.Level); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "log.level",
			Value:   cfg.Level,
			Message: err.Error(),
			Suggestions: []string{
				"Use 'debug', 'info', 'warn' or 'error'",
			},
		})
	}

	if !contains([]string{"text", "json"}, cfg.Format) {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "log.format",
			Value:   cfg.Format,
			Message: fmt.Sprintf("unknown log format %q", cfg.Format),
		})
	}

	if cfg.Dir != "" {
		if err := validatePath(cfg.Dir); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "log.dir",
				Value:   cfg.Dir,
				Message: err.Error(),
			})
		}
	}
}

// Helper validation functions

var hostnameRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

func validateHostname(host string) error {
	if strings.ContainsAny(host, ";&|$`()<>\"'\\") {
		return fmt.Errorf("host contains dangerous character")
	}

	if net.ParseIP(host) != nil {
		return nil
	}

	if !hostnameRegex.MatchString(host) {
		return fmt.Errorf("invalid hostname format")
	}

	return nil
}

// validatePath rejects paths with shell metacharacters or NUL bytes.
func validatePath(path string) error {
	if strings.ContainsRune(path, 0) {
		return fmt.Errorf("path contains NUL byte")
	}
	if strings.ContainsAny(path, ";&|$`<>\"'") {
		return fmt.Errorf("path contains dangerous character")
	}
	return nil
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
