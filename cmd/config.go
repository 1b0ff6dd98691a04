package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/cheatsheet/internal/config"
	cserrors "github.com/conneroisu/cheatsheet/internal/errors"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage cheatsheet configuration",
	Long: `Inspect, validate and create cheatsheet configuration.

Examples:
  cheatsheet config show               # Resolved configuration as YAML
  cheatsheet config show --json        # ... or JSON
  cheatsheet config validate --strict  # Fail on warnings too
  cheatsheet config init               # Write a default .cheatsheet.yml`,
	// Runs without validation so validate can report every problem.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		v, used, err := newViper(cmd)
		if err != nil {
			return err
		}
		loaded, err := config.Decode(v)
		if err != nil {
			return err
		}
		configUsed = used
		return setupRuntime(cmd, loaded, used)
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Check the resolved configuration for errors and likely mistakes.

Errors make the command fail. Warnings are reported, and fail the command
only with --strict.`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var (
	configUsed   string
	configJSON   bool
	configStrict bool
	configForce  bool
	configOutput string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configValidateCmd, configInitCmd)

	configShowCmd.Flags().BoolVar(&configJSON, "json", false, "output as JSON")
	configValidateCmd.Flags().BoolVar(&configStrict, "strict", false, "treat warnings as errors")
	configInitCmd.Flags().StringVarP(&configOutput, "output", "o", ".cheatsheet.yml", "file to write")
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if configJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	}

	if configUsed != "" {
		printer.Info("# from %s", configUsed)
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return cserrors.WrapIO(err, cserrors.ErrCodeIO, "encoding configuration")
	}
	return enc.Close()
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	result := config.ValidateConfigWithDetails(cfg)

	name := configUsed
	if name == "" {
		name = "defaults"
	}

	if result.HasErrors() || result.HasWarnings() {
		fmt.Fprint(cmd.OutOrStdout(), result.String())
	}

	switch {
	case result.HasErrors():
		return cserrors.NewConfigError(cserrors.ErrCodeConfigInvalid, "configuration has errors").
			WithContext("errors", len(result.Errors)).WithContext("config", name)
	case configStrict && result.HasWarnings():
		return cserrors.NewConfigError(cserrors.ErrCodeConfigInvalid, "configuration has warnings (strict mode)").
			WithContext("warnings", len(result.Warnings)).WithContext("config", name)
	}

	printer.Success("Configuration is valid (%s)", name)
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(configOutput); err == nil && !configForce {
		return cserrors.NewValidationError(cserrors.ErrCodeInvalidPath,
			configOutput+" already exists; pass --force to overwrite")
	}

	defaults, err := config.Decode(viper.New())
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(defaults)
	if err != nil {
		return cserrors.WrapIO(err, cserrors.ErrCodeIO, "encoding configuration")
	}
	if err := os.WriteFile(configOutput, data, 0o644); err != nil {
		return cserrors.WrapIO(err, cserrors.ErrCodeIO, "writing "+configOutput)
	}

	printer.Success("Wrote %s", configOutput)
	return nil
}
