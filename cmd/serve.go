package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/mobilcoder/internal/pkgprobe"
	"github.com/conneroisu/mobilcoder/internal/server"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Start the playground server",
	Long: `Start the playground: the host page, the live preview frame and the
project API. Every edit recompiles the sandbox document and reloads the
preview in connected browsers.

Examples:
  mobilcoder serve                  # Serve on localhost:8080
  mobilcoder serve -p 3000 --open   # Serve on port 3000 and open a browser
  mobilcoder serve --project Demo   # Start with a stored project open`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "Port to serve on")
	serveCmd.Flags().String("host", "localhost", "Host to bind to")
	serveCmd.Flags().Bool("open", false, "Open a browser once the server is up")
	serveCmd.Flags().Duration("debounce", 0, "Coalesce edits arriving within this window into one preview render")
	serveCmd.Flags().String("project", "", "Stored project to open at startup (default is a plain project)")

	AddFlagValidation(serveCmd, "port", ValidatePort)

	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.open", serveCmd.Flags().Lookup("open"))
	_ = viper.BindPFlag("preview.debounce", serveCmd.Flags().Lookup("debounce"))
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if name, _ := cmd.Flags().GetString("project"); name != "" {
		if _, err := a.manager.Open(ctx, name); err != nil {
			return err
		}
	}

	srv := server.New(a.cfg, a.manager, a.pipeline, pkgprobe.NewProber(a.cfg.Registry, a.logger), a.logger)

	fmt.Fprintf(cmd.OutOrStdout(), "Starting MobilCoder at http://%s\n", a.cfg.Server.Address())
	return srv.Start(ctx)
}
