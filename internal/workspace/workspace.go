// Package workspace manages the single open project: creating, opening,
// renaming and deleting projects by name, and tearing the previous project
// down before the next one is attached to the editors.
package workspace

import (
	"context"
	"sort"
	"sync"

	"github.com/conneroisu/mobilcoder/internal/build"
	"github.com/conneroisu/mobilcoder/internal/dialect"
	"github.com/conneroisu/mobilcoder/internal/editor"
	"github.com/conneroisu/mobilcoder/internal/errors"
	"github.com/conneroisu/mobilcoder/internal/logging"
	"github.com/conneroisu/mobilcoder/internal/project"
	"github.com/conneroisu/mobilcoder/internal/store"
	"github.com/conneroisu/mobilcoder/internal/types"
	"github.com/conneroisu/mobilcoder/internal/validation"
)

// Theme values accepted by SetTheme.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// EditorFactory creates a fresh set of editors for a project being opened.
type EditorFactory func() map[types.Role]editor.Surface

// BufferEditors is the default factory: one in-process buffer per role.
func BufferEditors() map[types.Role]editor.Surface {
	editors := make(map[types.Role]editor.Surface, len(types.Roles))
	for _, role := range types.Roles {
		editors[role] = editor.NewBuffer()
	}
	return editors
}

// Summary describes one stored project.
type Summary struct {
	Name   string `json:"name" yaml:"name"`
	Markup string `json:"markup" yaml:"markup"`
	Style  string `json:"style" yaml:"style"`
	Script string `json:"script" yaml:"script"`
}

// Manager owns the active project.
type Manager struct {
	mu        sync.Mutex
	active    *project.Project
	listeners []project.ChangeFunc

	store    store.ProjectStore
	pipeline *build.Pipeline
	editors  EditorFactory
	logger   logging.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithEditors replaces the editor factory.
func WithEditors(factory EditorFactory) Option {
	return func(m *Manager) {
		if factory != nil {
			m.editors = factory
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a manager with no open project.
func NewManager(st store.ProjectStore, pipeline *build.Pipeline, opts ...Option) *Manager {
	m := &Manager{
		store:    st,
		pipeline: pipeline,
		editors:  BufferEditors,
		logger:   logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.WithComponent("workspace")
	return m
}

// OnChange registers a listener on every project the manager activates.
// It is also called with an empty role right after a project becomes
// active.
func (m *Manager) OnChange(fn project.ChangeFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
	if m.active != nil {
		m.active.OnChange(fn)
	}
}

// Active returns the open project, or nil.
func (m *Manager) Active() *project.Project {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

func (m *Manager) current() (*project.Project, error) {
	if p := m.Active(); p != nil {
		return p, nil
	}
	return nil, errors.ErrNoActiveProject()
}

// activate destroys the previous project, loads p and attaches the change
// listeners. The listeners are then told about the switch outside the lock.
func (m *Manager) activate(p *project.Project, load bool) {
	m.mu.Lock()
	if m.active != nil {
		m.active.Destroy()
	}
	m.active = p
	if load {
		p.Load(m.editors())
	}
	listeners := make([]project.ChangeFunc, len(m.listeners))
	copy(listeners, m.listeners)
	for _, fn := range listeners {
		p.OnChange(fn)
	}
	m.mu.Unlock()

	m.logger.Info(context.Background(), "Project activated", "project", p.Name(), "persisted", p.Persisted())
	for _, fn := range listeners {
		fn(p, "")
	}
}

func (m *Manager) exists(ctx context.Context, name string) (bool, error) {
	_, ok, err := m.store.Get(ctx, name)
	if err != nil {
		return false, errors.NewStorageError(errors.ErrCodeStorageRead, "looking up project", err).WithProject(name)
	}
	return ok, nil
}

func (m *Manager) validateName(ctx context.Context, name string) error {
	taken, err := m.exists(ctx, name)
	if err != nil {
		return err
	}
	return validation.ValidateProjectName(name, func(string) bool { return taken })
}

// Create validates name, stores a new scaffolded project under it and
// makes it the active project.
func (m *Manager) Create(ctx context.Context, name string) (*project.Project, error) {
	if err := m.validateName(ctx, name); err != nil {
		return nil, err
	}

	p := project.New(name, m.store, m.pipeline, project.WithLogger(m.logger))
	if err := p.Save(ctx); err != nil {
		return nil, err
	}

	m.activate(p, true)
	return p, nil
}

// Open makes the stored project name the active project.
func (m *Manager) Open(ctx context.Context, name string) (*project.Project, error) {
	p, err := project.Open(ctx, name, m.store, m.pipeline, project.WithLogger(m.logger))
	if err != nil {
		return nil, err
	}

	m.activate(p, true)
	return p, nil
}

// OpenPlain makes a fresh plain project the active project.
func (m *Manager) OpenPlain(ctx context.Context) *project.Project {
	m.mu.Lock()
	if m.active != nil {
		m.active.Destroy()
		m.active = nil
	}
	m.mu.Unlock()

	p := project.NewPlain(m.store, m.pipeline, m.editors(), project.WithLogger(m.logger))
	m.activate(p, false)
	return p
}

// List returns every stored project, sorted by name. Entries that do not
// decode as projects, the theme preference among them, are skipped.
func (m *Manager) List(ctx context.Context) ([]Summary, error) {
	entries, err := m.store.List(ctx)
	if err != nil {
		return nil, errors.NewStorageError(errors.ErrCodeStorageRead, "listing projects", err)
	}

	summaries := make([]Summary, 0, len(entries))
	for _, e := range entries {
		if e.Key == types.ThemeKey {
			continue
		}
		info, err := types.DecodeRecord(e.Value)
		if err != nil {
			m.logger.Debug(ctx, "Skipping stored value", "key", e.Key, "reason", err.Error())
			continue
		}
		summaries = append(summaries, Summary{
			Name:   e.Key,
			Markup: markupName(info.Markup()),
			Style:  string(info.Style()),
			Script: string(info.Script()),
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Name < summaries[j].Name })
	return summaries, nil
}

func markupName(m dialect.Markup) string {
	if m == dialect.MarkupHTML {
		return "html"
	}
	return string(m)
}

// Rename validates to and renames the stored project from. The active
// project is renamed in place.
func (m *Manager) Rename(ctx context.Context, from, to string) error {
	if from == to {
		return nil
	}
	if err := m.validateName(ctx, to); err != nil {
		return err
	}

	if p := m.Active(); p != nil && p.Name() == from {
		return p.Rename(ctx, to)
	}

	p, err := project.Open(ctx, from, m.store, m.pipeline, project.WithLogger(m.logger))
	if err != nil {
		return err
	}
	return p.Rename(ctx, to)
}

// Delete removes the stored project name once confirmed. Deleting the
// active project switches to a fresh plain project.
func (m *Manager) Delete(ctx context.Context, name string, confirmed bool) (bool, error) {
	ok, err := m.exists(ctx, name)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, errors.ErrProjectNotFound(name)
	}

	active := m.Active()
	if active != nil && active.Persisted() && active.Name() == name {
		removed, err := active.Delete(ctx, confirmed)
		if err != nil || !removed {
			return removed, err
		}
		m.OpenPlain(ctx)
		return true, nil
	}

	p := project.New(name, m.store, m.pipeline, project.WithLogger(m.logger))
	return p.Delete(ctx, confirmed)
}

// Promote saves the active project's sources under name and makes the
// saved copy the active project.
func (m *Manager) Promote(ctx context.Context, name string) (*project.Project, error) {
	current, err := m.current()
	if err != nil {
		return nil, err
	}
	if err := m.validateName(ctx, name); err != nil {
		return nil, err
	}

	saved, err := current.ToSavableProject(ctx, name)
	if err != nil {
		return nil, err
	}

	m.activate(saved, true)
	return saved, nil
}

// SetCode updates one unit of the active project.
func (m *Manager) SetCode(ctx context.Context, role types.Role, code string) error {
	p, err := m.current()
	if err != nil {
		return err
	}
	return p.SetCode(ctx, role, code)
}

// SetSelection applies dialect toggles to the active project.
func (m *Manager) SetSelection(ctx context.Context, sel dialect.Selection) error {
	p, err := m.current()
	if err != nil {
		return err
	}
	return p.ApplySelection(ctx, sel)
}

// Theme returns the stored theme, light when none was stored.
func (m *Manager) Theme(ctx context.Context) (string, error) {
	theme, ok, err := m.store.Get(ctx, types.ThemeKey)
	if err != nil {
		return "", errors.NewStorageError(errors.ErrCodeStorageRead, "reading theme", err)
	}
	if !ok || (theme != ThemeLight && theme != ThemeDark) {
		return ThemeLight, nil
	}
	return theme, nil
}

// SetTheme stores the theme preference.
func (m *Manager) SetTheme(ctx context.Context, theme string) error {
	if theme != ThemeLight && theme != ThemeDark {
		return errors.NewValidationError(errors.ErrCodeInvalidTheme, "theme must be light or dark")
	}
	if err := m.store.Set(ctx, types.ThemeKey, theme); err != nil {
		return errors.NewStorageError(errors.ErrCodeStorageWrite, "saving theme", err)
	}
	return nil
}
