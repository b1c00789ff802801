package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/mobilcoder/internal/dialect"
	"github.com/conneroisu/mobilcoder/internal/project"
	"github.com/conneroisu/mobilcoder/internal/types"
	"github.com/conneroisu/mobilcoder/internal/workspace"
)

var projectsCmd = &cobra.Command{
	Use:     "projects",
	Aliases: []string{"p"},
	Short:   "Manage stored projects",
}

var projectsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "l"},
	Short:   "List stored projects",
	Long: `List the stored projects with the dialect of each pane.

Examples:
  mobilcoder projects list           # Table
  mobilcoder projects list -f json   # JSON
  mobilcoder projects list -f yaml   # YAML`,
	Args: cobra.NoArgs,
	RunE: runProjectsList,
}

var projectsNewCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Create a project with the starter sources",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectsNew,
}

var projectsRenameCmd = &cobra.Command{
	Use:   "rename <name> <new-name>",
	Short: "Rename a stored project",
	Args:  cobra.ExactArgs(2),
	RunE:  runProjectsRename,
}

var projectsDeleteCmd = &cobra.Command{
	Use:     "delete <name>",
	Aliases: []string{"rm"},
	Short:   "Delete a stored project",
	Long: `Delete a stored project. Nothing is removed unless --yes is given.

Examples:
  mobilcoder projects delete Demo --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runProjectsDelete,
}

var projectsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print the sources and dialects of a stored project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectsShow,
}

var (
	listFormat string
	showFormat string
	deleteYes  bool
)

func init() {
	rootCmd.AddCommand(projectsCmd)
	projectsCmd.AddCommand(projectsListCmd, projectsNewCmd, projectsRenameCmd, projectsDeleteCmd, projectsShowCmd)

	projectsListCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "Output format (table, json, yaml)")
	projectsShowCmd.Flags().StringVarP(&showFormat, "format", "f", "yaml", "Output format (json, yaml)")
	projectsDeleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Confirm the deletion")

	AddFlagValidation(projectsListCmd, "format", func(format string) error {
		return ValidateFormat(format, []string{"table", "json", "yaml"})
	})
	AddFlagValidation(projectsShowCmd, "format", func(format string) error {
		return ValidateFormat(format, []string{"json", "yaml"})
	})
}

func runProjectsList(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	list, err := a.manager.List(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch strings.ToLower(listFormat) {
	case "json":
		return writeJSON(out, list)
	case "yaml":
		return writeYAML(out, list)
	default:
		if len(list) == 0 {
			fmt.Fprintln(out, "No projects found.")
			return nil
		}
		return writeProjectTable(out, list)
	}
}

func writeProjectTable(out io.Writer, list []workspace.Summary) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	upper := cases.Upper(language.English)
	title := cases.Title(language.English)

	fmt.Fprintln(w, "NAME\tMARKUP\tSTYLE\tSCRIPT")
	for _, s := range list {
		badge := dialect.BadgeFor(dialect.Script(s.Script))
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Name, title.String(s.Markup), upper.String(s.Style), badge.Label)
	}
	return w.Flush()
}

func runProjectsNew(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.manager.Create(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created project %s\n", p.Name())
	return nil
}

func runProjectsRename(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.manager.Rename(cmd.Context(), args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s\n", args[0], args[1])
	return nil
}

func runProjectsDelete(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	removed, err := a.manager.Delete(cmd.Context(), args[0], deleteYes)
	if err != nil {
		return err
	}
	if !removed {
		fmt.Fprintf(cmd.OutOrStdout(), "Kept %s; pass --yes to delete it\n", args[0])
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
	return nil
}

// projectDetail is the shape printed by projects show.
type projectDetail struct {
	Name      string            `json:"name" yaml:"name"`
	File      string            `json:"file" yaml:"file"`
	Selection dialect.Selection `json:"selection" yaml:"selection"`
	Units     map[string]string `json:"units" yaml:"units"`
}

func runProjectsShow(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := project.Open(cmd.Context(), args[0], a.store, a.pipeline, project.WithLogger(a.logger))
	if err != nil {
		return err
	}

	info := p.Info()
	detail := projectDetail{
		Name:      p.Name(),
		File:      dialect.FileName(p.Name()),
		Selection: info.Selection(),
		Units:     make(map[string]string),
	}
	for _, role := range types.Roles {
		if unit := info.Unit(role); unit != nil {
			detail.Units[string(role)] = unit.Code
		}
	}

	if strings.ToLower(showFormat) == "json" {
		return writeJSON(cmd.OutOrStdout(), detail)
	}
	return writeYAML(cmd.OutOrStdout(), detail)
}

func writeJSON(out io.Writer, v interface{}) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func writeYAML(out io.Writer, v interface{}) error {
	encoder := yaml.NewEncoder(out)
	defer encoder.Close()
	return encoder.Encode(v)
}
