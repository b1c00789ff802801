package cmd

import (
	"fmt"
	"io"

	"github.com/conneroisu/mobilcoder/internal/build"
	"github.com/conneroisu/mobilcoder/internal/compiler"
	"github.com/conneroisu/mobilcoder/internal/config"
	"github.com/conneroisu/mobilcoder/internal/logging"
	"github.com/conneroisu/mobilcoder/internal/store"
	"github.com/conneroisu/mobilcoder/internal/workspace"
)

// app holds the services every command builds from configuration.
type app struct {
	cfg      *config.Config
	logger   logging.Logger
	store    store.ProjectStore
	pipeline *build.Pipeline
	manager  *workspace.Manager
}

// newApp loads configuration and opens the project store. Log output goes
// to logOut.
func newApp(logOut io.Writer) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:     level,
		Format:    cfg.Log.Format,
		Output:    logOut,
		Component: "mobilcoder",
	})

	st, err := store.Open(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open project store: %w", err)
	}

	pipeline := build.NewPipeline(compiler.NewToolchain(cfg.Compilers), build.Options{
		ReactURL:    cfg.Compilers.ReactURL,
		ReactDOMURL: cfg.Compilers.ReactDOMURL,
	}, logger)

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    st,
		pipeline: pipeline,
		manager:  workspace.NewManager(st, pipeline, workspace.WithLogger(logger)),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
