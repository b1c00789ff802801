package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/mobilcoder/internal/errors"
	"github.com/conneroisu/mobilcoder/internal/project"
	"github.com/conneroisu/mobilcoder/internal/validation"
	"github.com/conneroisu/mobilcoder/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:     "watch <dir>",
	Aliases: []string{"w"},
	Short:   "Sync a project from source files and rebuild on change",
	Long: `Watch a directory holding index.html (or index.md), style.<css|sass|scss|less>
and script.<js|jsx|ts|tsx>. Each change updates the stored project, picks
the pane dialect from the file extension, and writes the standalone document
to <dir>/dist/.

Examples:
  mobilcoder watch ./site                  # Project named after the directory
  mobilcoder watch ./site --project Demo   # Sync into the Demo project`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

var (
	watchProject  string
	watchDebounce time.Duration
	watchOnce     bool
)

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&watchProject, "project", "n", "", "Project to sync into (default is the directory name)")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 300*time.Millisecond, "Quiet period before a batch of changes is applied")
	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "Sync and build once, then exit")
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	dir, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolving %s: %w", args[0], err)
	}
	name := watchProject
	if name == "" {
		name = filepath.Base(dir)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := openOrCreate(ctx, a, name)
	if err != nil {
		return err
	}

	syncer := watcher.NewSyncer(dir, p, a.logger)
	if err := syncer.Initial(ctx); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Synced %s into %s, wrote %s\n", dir, p.Name(), syncer.DistPath())
	if watchOnce {
		return nil
	}

	fw, err := watcher.NewFileWatcher(watchDebounce, a.logger)
	if err != nil {
		return err
	}
	fw.AddFilter(watcher.NoHiddenFilter)
	fw.AddFilter(watcher.NoBackupFilter)
	fw.AddFilter(watcher.SourceFilter)
	fw.AddHandler(syncer.Handler(ctx))
	if err := fw.AddPath(dir); err != nil {
		return err
	}
	if err := fw.Start(ctx); err != nil {
		return err
	}
	defer fw.Stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (Ctrl+C to stop)\n", dir)
	<-ctx.Done()
	return nil
}

// openOrCreate opens the stored project name, creating it with the starter
// sources when it does not exist yet.
func openOrCreate(ctx context.Context, a *app, name string) (*project.Project, error) {
	p, err := project.Open(ctx, name, a.store, a.pipeline, project.WithLogger(a.logger))
	if err == nil || !errors.IsNotFound(err) {
		return p, err
	}
	if err := validation.ValidateProjectName(name, nil); err != nil {
		return nil, err
	}
	p = project.New(name, a.store, a.pipeline, project.WithLogger(a.logger))
	if err := p.Save(ctx); err != nil {
		return nil, err
	}
	return p, nil
}
