package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/mobilcoder/internal/version"
)

var (
	versionFormat string
	versionShort  bool
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display version information for mobilcoder: version, git commit, build
time, Go version and platform.

Examples:
  mobilcoder version              # Show version details
  mobilcoder version --short      # Show the version only
  mobilcoder version --format json`,
	Args: cobra.NoArgs,
	RunE: runVersionCommand,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().StringVarP(&versionFormat, "format", "f", "text", "Output format (text, json, yaml)")
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Show short version only")
}

func runVersionCommand(cmd *cobra.Command, args []string) error {
	info := version.Get()
	out := cmd.OutOrStdout()

	switch versionFormat {
	case "json":
		return writeJSON(out, info)
	case "yaml":
		return writeYAML(out, info)
	case "text":
		if versionShort {
			fmt.Fprintln(out, info.Short())
			return nil
		}
		fmt.Fprintf(out, "mobilcoder %s\n%s\n", info.Short(), info.String())
		return nil
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json, yaml)", versionFormat)
	}
}
