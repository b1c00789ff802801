// Package server is the host surface of the playground: the host page, the
// preview frame, the notice websocket and the JSON API over the workspace.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/conneroisu/mobilcoder/internal/build"
	"github.com/conneroisu/mobilcoder/internal/config"
	"github.com/conneroisu/mobilcoder/internal/errors"
	"github.com/conneroisu/mobilcoder/internal/logging"
	"github.com/conneroisu/mobilcoder/internal/pkgprobe"
	"github.com/conneroisu/mobilcoder/internal/preview"
	"github.com/conneroisu/mobilcoder/internal/project"
	"github.com/conneroisu/mobilcoder/internal/types"
	"github.com/conneroisu/mobilcoder/internal/validation"
	"github.com/conneroisu/mobilcoder/internal/websocket"
	"github.com/conneroisu/mobilcoder/internal/workspace"
)

// PreviewServer serves the playground.
type PreviewServer struct {
	config   *config.Config
	manager  *workspace.Manager
	pipeline *build.Pipeline
	prober   *pkgprobe.Prober
	renderer *preview.Renderer
	hub      *websocket.Manager
	logger   logging.Logger
	errs     *errors.ErrorHandler

	httpServer  *http.Server
	serverMutex sync.Mutex
}

// New wires a server around a workspace. Every change to the active
// project schedules a preview render.
func New(cfg *config.Config, manager *workspace.Manager, pipeline *build.Pipeline, prober *pkgprobe.Prober, logger logging.Logger) *PreviewServer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger = logger.WithComponent("server")

	hub := websocket.NewManager(websocket.OriginList(cfg.Server.Origins()), logger)
	renderer := preview.NewRenderer(preview.NewFrame(),
		preview.WithHost(hub),
		preview.WithDebounce(cfg.Preview.Debounce),
		preview.WithLogger(logger))

	s := &PreviewServer{
		config:   cfg,
		manager:  manager,
		pipeline: pipeline,
		prober:   prober,
		renderer: renderer,
		hub:      hub,
		logger:   logger,
		errs:     errors.NewErrorHandler(logger),
	}
	manager.OnChange(func(p *project.Project, _ types.Role) {
		renderer.Schedule(p)
	})
	return s
}

// Handler returns the routed and wrapped HTTP handler.
func (s *PreviewServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /frame", s.handleFrame)
	mux.HandleFunc("GET /ws", s.hub.HandleWebSocket)
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /api/projects", s.handleListProjects)
	mux.HandleFunc("POST /api/projects", s.handleCreateProject)
	mux.HandleFunc("POST /api/projects/plain", s.handleOpenPlain)
	mux.HandleFunc("POST /api/projects/{name}/open", s.handleOpenProject)
	mux.HandleFunc("PATCH /api/projects/{name}", s.handleRenameProject)
	mux.HandleFunc("DELETE /api/projects/{name}", s.handleDeleteProject)

	mux.HandleFunc("GET /api/active", s.handleActive)
	mux.HandleFunc("POST /api/active/promote", s.handlePromote)
	mux.HandleFunc("PUT /api/active/units/{role}", s.handleSetUnit)
	mux.HandleFunc("PUT /api/active/selection", s.handleSetSelection)
	mux.HandleFunc("POST /api/active/preview", s.handlePreview)
	mux.HandleFunc("GET /api/active/compiled", s.handleCompiled)

	mux.HandleFunc("GET /api/packages/{name...}", s.handleProbe)
	mux.HandleFunc("GET /api/theme", s.handleGetTheme)
	mux.HandleFunc("PUT /api/theme", s.handleSetTheme)
	mux.HandleFunc("GET /api/stats", s.handleStats)

	return s.addMiddleware(mux)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *PreviewServer) Start(ctx context.Context) error {
	if s.manager.Active() == nil {
		s.manager.OpenPlain(ctx)
	}

	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Addr:    s.config.Server.Address(),
		Handler: s.Handler(),
	}
	srv := s.httpServer
	s.serverMutex.Unlock()

	if s.config.Server.Open {
		go s.openBrowser(ctx, "http://"+srv.Addr)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Preview server listening", "address", "http://"+srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server error: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

func (s *PreviewServer) openBrowser(ctx context.Context, url string) {
	time.Sleep(100 * time.Millisecond)

	if err := validation.ValidateURL(url); err != nil {
		s.logger.Warn(ctx, err, "Browser open skipped", "url", url)
		return
	}

	var err error
	switch runtime.GOOS {
	case "linux":
		err = exec.Command("xdg-open", url).Start()
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		err = exec.Command("open", url).Start()
	default:
		err = fmt.Errorf("unsupported platform %s", runtime.GOOS)
	}
	if err != nil {
		s.logger.Warn(ctx, err, "Failed to open browser", "url", url)
	}
}

// Shutdown stops the HTTP server, pending renders and the websocket hub.
func (s *PreviewServer) Shutdown(ctx context.Context) error {
	s.renderer.Stop()

	s.serverMutex.Lock()
	srv := s.httpServer
	s.serverMutex.Unlock()

	var err error
	if srv != nil {
		err = srv.Shutdown(ctx)
	}
	if hubErr := s.hub.Shutdown(ctx); err == nil {
		err = hubErr
	}
	s.logger.Info(ctx, "Preview server stopped")
	return err
}
