package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	cserrors "github.com/conneroisu/cheatsheet/internal/errors"
	"github.com/conneroisu/cheatsheet/internal/version"
)

var (
	versionFormat   string
	versionShort    bool
	versionDetailed bool
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display version information for cheatsheet including:

- Semantic version number
- Git commit hash
- Build timestamp
- Go version used for compilation
- Target platform (OS/architecture)

Examples:
  cheatsheet version              # Version and commit
  cheatsheet version --detailed   # Every build field
  cheatsheet version --format json # Output as JSON`,
	Args: cobra.NoArgs,
	// Needs no configuration.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE:              runVersionCommand,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().StringVarP(&versionFormat, "format", "f", "text", "Output format (text, json)")
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Show short version only")
	versionCmd.Flags().BoolVar(&versionDetailed, "detailed", false, "Show detailed version information")
}

func runVersionCommand(cmd *cobra.Command, args []string) error {
	info := version.Get()
	out := cmd.OutOrStdout()

	switch versionFormat {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(info)
	case "text":
	default:
		return cserrors.UnsupportedFormat(versionFormat).WithContext("supported", "text, json")
	}

	switch {
	case versionShort:
		fmt.Fprintln(out, info.Version)
	case versionDetailed:
		fmt.Fprintln(out, info.String())
		if info.Release {
			fmt.Fprintln(out, "Build type: release")
		} else {
			fmt.Fprintln(out, "Build type: development")
		}
	default:
		line := "cheatsheet " + info.Short()
		if info.Dirty {
			line += " (dirty)"
		}
		fmt.Fprintln(out, line)
	}
	return nil
}
