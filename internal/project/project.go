// Package project implements a project: its sources, their persistence, the
// editors bound to them, and its two compile entry points.
//
// A saved project and the plain scratch project are the same type. The only
// difference is whether Save writes to the store.
package project

import (
	"context"
	"sync"

	"github.com/conneroisu/mobilcoder/internal/build"
	"github.com/conneroisu/mobilcoder/internal/dialect"
	"github.com/conneroisu/mobilcoder/internal/editor"
	"github.com/conneroisu/mobilcoder/internal/errors"
	"github.com/conneroisu/mobilcoder/internal/logging"
	"github.com/conneroisu/mobilcoder/internal/store"
	"github.com/conneroisu/mobilcoder/internal/types"
)

// PlainName is the name of the unsaved scratch project.
const PlainName = "Plain Project"

// ChangeFunc is notified after a project's sources or dialects changed.
type ChangeFunc func(p *Project, role types.Role)

// Project owns the sources of one project.
type Project struct {
	// persistMu is held across every read-name-then-write against the
	// store. Taken before mu.
	persistMu sync.Mutex
	mu        sync.RWMutex
	name      string
	info      types.ProjectInfo
	persisted bool
	editors   map[types.Role]editor.Surface
	listeners []ChangeFunc

	store    store.ProjectStore
	pipeline *build.Pipeline
	logger   logging.Logger
}

// Option configures a Project.
type Option func(*Project)

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(p *Project) {
		if logger != nil {
			p.logger = logger.WithComponent("project")
		}
	}
}

// WithInfo replaces the scaffolded sources.
func WithInfo(info types.ProjectInfo) Option {
	return func(p *Project) {
		p.info = info.Clone()
		p.info.Normalize()
	}
}

// New creates a saved project called name with scaffolded sources. Nothing
// is written until Save.
func New(name string, st store.ProjectStore, pipeline *build.Pipeline, opts ...Option) *Project {
	p := &Project{
		name:      name,
		info:      types.NewProjectInfo(name),
		persisted: true,
		editors:   make(map[types.Role]editor.Surface),
		store:     st,
		pipeline:  pipeline,
		logger:    logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewPlain creates the scratch project and loads it into editors right
// away. It is never written to the store.
func NewPlain(st store.ProjectStore, pipeline *build.Pipeline, editors map[types.Role]editor.Surface, opts ...Option) *Project {
	p := New(PlainName, st, pipeline, opts...)
	p.persisted = false
	p.Load(editors)
	return p
}

// Open reads the project stored under name.
func Open(ctx context.Context, name string, st store.ProjectStore, pipeline *build.Pipeline, opts ...Option) (*Project, error) {
	raw, ok, err := st.Get(ctx, name)
	if err != nil {
		return nil, errors.NewStorageError(errors.ErrCodeStorageRead, "reading project", err).WithProject(name)
	}
	if !ok {
		return nil, errors.ErrProjectNotFound(name)
	}
	info, err := types.DecodeRecord(raw)
	if err != nil {
		return nil, errors.NewStorageError(errors.ErrCodeStorageRead, "stored value is not a project", err).WithProject(name)
	}
	return New(name, st, pipeline, append(opts, WithInfo(info))...), nil
}

// Name returns the current name.
func (p *Project) Name() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.name
}

// Persisted reports whether Save writes to the store.
func (p *Project) Persisted() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.persisted
}

// Info returns a copy of the sources.
func (p *Project) Info() types.ProjectInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.info.Clone()
}

// Selection returns the toggle state of the stored dialects.
func (p *Project) Selection() dialect.Selection {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.info.Selection()
}

// Save writes the record under the project name. The plain project never
// saves.
func (p *Project) Save(ctx context.Context) error {
	p.persistMu.Lock()
	defer p.persistMu.Unlock()

	p.mu.RLock()
	name, persisted, info := p.name, p.persisted, p.info.Clone()
	p.mu.RUnlock()

	if !persisted {
		return nil
	}
	return p.write(ctx, name, info)
}

func (p *Project) write(ctx context.Context, name string, info types.ProjectInfo) error {
	raw, err := types.EncodeRecord(info)
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeInternalError, "encoding project", err).WithProject(name)
	}
	if err := p.store.Set(ctx, name, raw); err != nil {
		return errors.NewStorageError(errors.ErrCodeStorageWrite, "saving project", err).WithProject(name)
	}
	p.logger.Debug(ctx, "Project saved", "project", name, "bytes", len(raw))
	return nil
}

// Rename moves the project to a new name. An empty name is ignored. A
// stored record moves to the new key; a project that was never stored
// only changes its name. Uniqueness is the caller's concern.
func (p *Project) Rename(ctx context.Context, name string) error {
	if name == "" {
		return nil
	}

	p.persistMu.Lock()
	defer p.persistMu.Unlock()
	p.mu.Lock()
	defer p.mu.Unlock()

	old := p.name
	_, stored, err := p.store.Get(ctx, old)
	if err != nil {
		return errors.NewStorageError(errors.ErrCodeStorageRead, "reading project", err).WithProject(old)
	}
	if stored && p.persisted {
		raw, err := types.EncodeRecord(p.info)
		if err != nil {
			return errors.NewInternalError(errors.ErrCodeInternalError, "encoding project", err).WithProject(old)
		}
		if err := store.Move(ctx, p.store, old, name, raw); err != nil {
			return errors.NewStorageError(errors.ErrCodeStorageWrite, "renaming project", err).WithProject(old)
		}
	}
	p.name = name
	p.logger.Info(ctx, "Project renamed", "from", old, "to", name, "stored", stored)
	return nil
}

// Delete removes the stored record, but only when confirmed is true. It
// reports whether anything was removed.
func (p *Project) Delete(ctx context.Context, confirmed bool) (bool, error) {
	if !confirmed {
		return false, nil
	}
	p.persistMu.Lock()
	defer p.persistMu.Unlock()

	name := p.Name()
	if err := p.store.Delete(ctx, name); err != nil {
		return false, errors.NewStorageError(errors.ErrCodeStorageWrite, "deleting project", err).WithProject(name)
	}
	p.logger.Info(ctx, "Project deleted", "project", name)
	return true, nil
}

// ToSavableProject copies the current sources into a new saved project
// called name and stores it. The receiver is left as it was.
func (p *Project) ToSavableProject(ctx context.Context, name string) (*Project, error) {
	saved := New(name, p.store, p.pipeline, WithInfo(p.Info()))
	saved.logger = p.logger
	if err := saved.Save(ctx); err != nil {
		return nil, err
	}
	return saved, nil
}

// SetCode replaces the code of one unit, saves, and notifies listeners.
// An attached editor is brought up to date without firing its listeners.
func (p *Project) SetCode(ctx context.Context, role types.Role, code string) error {
	p.mu.Lock()
	unit := p.info.Unit(role)
	if unit == nil {
		p.mu.Unlock()
		return errors.NewValidationError(errors.ErrCodeInvalidRole, "unknown role "+string(role)).
			WithProject(p.name).
			WithRole(string(role))
	}
	unit.Code = code
	ed := p.editors[role]
	p.mu.Unlock()

	if ed != nil {
		ed.UpdateCode(code)
	}
	return p.changed(ctx, role)
}

// ApplySelection rewrites the dialects from toggle state, saves, and
// notifies listeners. Code is not touched.
func (p *Project) ApplySelection(ctx context.Context, sel dialect.Selection) error {
	p.mu.Lock()
	p.info.ApplySelection(sel)
	p.mu.Unlock()
	return p.changed(ctx, "")
}

func (p *Project) changed(ctx context.Context, role types.Role) error {
	err := p.Save(ctx)

	p.mu.RLock()
	listeners := make([]ChangeFunc, len(p.listeners))
	copy(listeners, p.listeners)
	p.mu.RUnlock()

	for _, fn := range listeners {
		fn(p, role)
	}
	return err
}

// OnChange registers a listener for source and dialect changes.
func (p *Project) OnChange(fn ChangeFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// Load binds one editor per role: the editor receives the current code,
// and every edit updates the unit and saves.
func (p *Project) Load(editors map[types.Role]editor.Surface) {
	for _, role := range types.Roles {
		ed, ok := editors[role]
		if !ok || ed == nil {
			continue
		}

		p.mu.Lock()
		ed.UpdateCode(p.info.Unit(role).Code)
		p.editors[role] = ed
		p.mu.Unlock()

		role := role
		ed.OnUpdate(func(text string) {
			ctx := context.Background()
			if err := p.SetCode(ctx, role, text); err != nil {
				p.logger.Error(ctx, err, "Saving edit failed", "project", p.Name(), "role", role)
			}
		})
	}
}

// Destroy releases every bound editor. The project keeps its sources and
// may be loaded again.
func (p *Project) Destroy() {
	p.mu.Lock()
	editors := p.editors
	p.editors = make(map[types.Role]editor.Surface)
	p.listeners = nil
	p.mu.Unlock()

	for _, ed := range editors {
		ed.Destroy()
	}
}

// Compiled runs the static compile over the current sources.
func (p *Project) Compiled(ctx context.Context) (*build.Result, error) {
	return p.pipeline.Compile(ctx, p.Info())
}

// Sandbox runs the sandbox compile over the current sources.
func (p *Project) Sandbox(ctx context.Context) (*build.Sandboxed, error) {
	return p.pipeline.Sandbox(ctx, p.Info())
}
