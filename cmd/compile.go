package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/mobilcoder/internal/dialect"
	"github.com/conneroisu/mobilcoder/internal/project"
)

var compileCmd = &cobra.Command{
	Use:     "compile <project>",
	Aliases: []string{"c"},
	Short:   "Write the standalone document of a stored project",
	Long: `Compile every pane of a stored project and write the standalone HTML
document. Panes that fail to compile are replaced by a comment in the output
and reported on stderr; the command still succeeds.

Examples:
  mobilcoder compile Demo             # Writes Demo.html
  mobilcoder compile "My Demo" -o -   # Prints the document
  mobilcoder compile Demo -o out.html`,
	Args: cobra.ExactArgs(1),
	RunE: runCompile,
}

var compileOutput string

func init() {
	rootCmd.AddCommand(compileCmd)

	compileCmd.Flags().StringVarP(&compileOutput, "output", "o", "", `Output file, "-" for stdout (default is the file-safe project name)`)
}

func runCompile(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	p, err := project.Open(ctx, args[0], a.store, a.pipeline, project.WithLogger(a.logger))
	if err != nil {
		return err
	}

	res, err := p.Compiled(ctx)
	if err != nil {
		return err
	}
	for i := range res.Diagnostics {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", res.Diagnostics[i].Error())
	}

	out := compileOutput
	if out == "" {
		out = dialect.FileName(p.Name())
	}
	if out == "-" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), res.HTML)
		return err
	}
	if err := os.WriteFile(out, []byte(res.HTML), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s in %s\n", out, res.Duration.Round(time.Millisecond))
	return nil
}
