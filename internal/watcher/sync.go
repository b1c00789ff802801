package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/conneroisu/mobilcoder/internal/dialect"
	"github.com/conneroisu/mobilcoder/internal/logging"
	"github.com/conneroisu/mobilcoder/internal/project"
	"github.com/conneroisu/mobilcoder/internal/types"
)

// DistDir is the directory, relative to the watched one, that receives the
// static document.
const DistDir = "dist"

// Unit says which project unit a file feeds.
type Unit struct {
	Role   types.Role
	Style  dialect.Style
	Script dialect.Script
}

// UnitFor maps a file name onto a unit: index.html and index.md feed the
// markup, style.<ext> the style and script.<ext> the script, with the
// dialect taken from the extension.
func UnitFor(path string) (Unit, bool) {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	ext := strings.TrimPrefix(filepath.Ext(base), ".")

	switch stem {
	case "index":
		switch ext {
		case "html":
			return Unit{Role: types.RoleHTML}, true
		case "md":
			return Unit{Role: types.RoleMarkdown}, true
		}
	case "style":
		if s := dialect.Style(ext); s.Valid() {
			return Unit{Role: types.RoleCSS, Style: s}, true
		}
	case "script":
		if sc := dialect.Script(ext); sc.Valid() {
			return Unit{Role: types.RoleJS, Script: sc}, true
		}
	}
	return Unit{}, false
}

// Syncer mirrors a directory into a project.
type Syncer struct {
	dir     string
	project *project.Project
	logger  logging.Logger
}

// NewSyncer creates a syncer for dir.
func NewSyncer(dir string, p *project.Project, logger logging.Logger) *Syncer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Syncer{
		dir:     filepath.Clean(dir),
		project: p,
		logger:  logger.WithComponent("watcher"),
	}
}

// DistPath is where the static document is written.
func (s *Syncer) DistPath() string {
	return filepath.Join(s.dir, DistDir, dialect.FileName(s.project.Name()))
}

// Initial loads every source file already in the directory and writes the
// first static document.
func (s *Syncer) Initial(ctx context.Context) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", s.dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := UnitFor(e.Name()); ok {
			paths = append(paths, filepath.Join(s.dir, e.Name()))
		}
	}
	return s.Apply(ctx, paths, nil)
}

// Handler adapts the syncer to a FileWatcher.
func (s *Syncer) Handler(ctx context.Context) ChangeHandler {
	return func(events []ChangeEvent) error {
		var changed, removed []string
		for _, e := range events {
			if e.Type == EventTypeDeleted || e.Type == EventTypeRenamed {
				if _, err := os.Stat(e.Path); err != nil {
					removed = append(removed, e.Path)
					continue
				}
			}
			changed = append(changed, e.Path)
		}
		return s.Apply(ctx, changed, removed)
	}
}

// Apply reads the changed files into the project, turns markdown off when
// index.md disappeared, saves, and rewrites the static document.
func (s *Syncer) Apply(ctx context.Context, changed, removed []string) error {
	sort.Strings(changed)
	op := logging.StartOperation(s.logger, "sync")
	defer op.End(ctx, "changed", len(changed), "removed", len(removed))

	sel := s.project.Selection()
	selChanged := false

	for _, path := range changed {
		unit, ok := UnitFor(path)
		if !ok {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if err := s.project.SetCode(ctx, unit.Role, string(data)); err != nil {
			return err
		}

		next := withUnit(sel, unit)
		if next != sel {
			sel, selChanged = next, true
		}
		s.logger.Debug(ctx, "Unit updated from file", "file", path, "role", unit.Role)
	}

	for _, path := range removed {
		if unit, ok := UnitFor(path); ok && unit.Role == types.RoleMarkdown && sel.Markdown {
			sel.Markdown = false
			selChanged = true
		}
	}

	if selChanged {
		if err := s.project.ApplySelection(ctx, sel); err != nil {
			return err
		}
	}
	if len(changed) == 0 && !selChanged {
		return nil
	}
	_, err := s.WriteDist(ctx)
	return err
}

func withUnit(sel dialect.Selection, unit Unit) dialect.Selection {
	switch unit.Role {
	case types.RoleMarkdown:
		sel.Markdown = true
	case types.RoleCSS:
		sel.Sass = unit.Style == dialect.StyleSass || unit.Style == dialect.StyleSCSS
		sel.SCSS = unit.Style == dialect.StyleSCSS
		sel.Less = unit.Style == dialect.StyleLess
	case types.RoleJS:
		sel.TypeScript = unit.Script.Typed()
		sel.JSX = unit.Script.Component()
	}
	return sel
}

// WriteDist runs the static compile and writes it to DistPath.
func (s *Syncer) WriteDist(ctx context.Context) (string, error) {
	res, err := s.project.Compiled(ctx)
	if err != nil {
		return "", err
	}

	path := s.DistPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(res.HTML), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}

	for _, d := range res.Diagnostics {
		s.logger.Warn(ctx, &d, "Pane failed to compile", "role", d.Role)
	}
	s.logger.Info(ctx, "Static document written", "path", path, "duration_ms", res.Duration.Milliseconds())
	return path, nil
}
