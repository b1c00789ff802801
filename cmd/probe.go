package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/mobilcoder/internal/pkgprobe"
)

var probeCmd = &cobra.Command{
	Use:   "probe <package>",
	Short: "Check whether an npm package can be loaded in a project",
	Long: `Ask the package registry whether a package can be loaded with a script
tag, and explain why not when it cannot.

Examples:
  mobilcoder probe lodash
  mobilcoder probe @types/react
  mobilcoder probe fs -f json`,
	Args: cobra.ExactArgs(1),
	RunE: runProbe,
}

var probeFormat string

func init() {
	rootCmd.AddCommand(probeCmd)

	probeCmd.Flags().StringVarP(&probeFormat, "format", "f", "text", "Output format (text, json, yaml)")
	AddFlagValidation(probeCmd, "format", func(format string) error {
		return ValidateFormat(format, []string{"text", "json", "yaml"})
	})
}

func runProbe(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := pkgprobe.NewProber(a.cfg.Registry, a.logger).Probe(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch probeFormat {
	case "json":
		return writeJSON(out, report)
	case "yaml":
		return writeYAML(out, report)
	}
	fmt.Fprintf(out, "%s: %s\n", report.Package, report.Message)
	if report.Snippet != "" {
		fmt.Fprintln(out, report.Snippet)
	}
	return nil
}
