package workspace

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/mobilcoder/internal/build"
	"github.com/conneroisu/mobilcoder/internal/compiler"
	"github.com/conneroisu/mobilcoder/internal/config"
	"github.com/conneroisu/mobilcoder/internal/dialect"
	"github.com/conneroisu/mobilcoder/internal/editor"
	perrors "github.com/conneroisu/mobilcoder/internal/errors"
	"github.com/conneroisu/mobilcoder/internal/project"
	"github.com/conneroisu/mobilcoder/internal/store"
	"github.com/conneroisu/mobilcoder/internal/types"
)

type recordingEditors struct {
	mu   sync.Mutex
	sets []map[types.Role]*editor.Buffer
}

func (r *recordingEditors) factory() map[types.Role]editor.Surface {
	r.mu.Lock()
	defer r.mu.Unlock()
	surfaces := make(map[types.Role]editor.Surface)
	bufs := make(map[types.Role]*editor.Buffer)
	for _, role := range types.Roles {
		b := editor.NewBuffer()
		surfaces[role] = b
		bufs[role] = b
	}
	r.sets = append(r.sets, bufs)
	return surfaces
}

func (r *recordingEditors) last() map[types.Role]*editor.Buffer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sets[len(r.sets)-1]
}

func newManager(t *testing.T) (*Manager, store.ProjectStore, *recordingEditors) {
	t.Helper()
	st := store.NewMemory()
	cfg := config.Default()
	pipeline := build.NewPipeline(compiler.NewToolchain(cfg.Compilers), build.Options{}, nil)
	eds := &recordingEditors{}
	return NewManager(st, pipeline, WithEditors(eds.factory)), st, eds
}

func TestCreateValidatesName(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newManager(t)

	tests := []struct {
		name    string
		input   string
		message string
	}{
		{"empty", "", "You must name the project"},
		{"blank", "   ", "You must name the project"},
		{"reserved", types.ThemeKey, "Invalid name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Create(ctx, tt.input)
			require.Error(t, err)
			assert.True(t, perrors.IsValidation(err))
			assert.Contains(t, err.Error(), tt.message)
		})
	}

	_, err := m.Create(ctx, "Demo")
	require.NoError(t, err)
	_, err = m.Create(ctx, "Demo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Project Demo already exists")
}

func TestCreateSwitchesEditors(t *testing.T) {
	ctx := context.Background()
	m, _, eds := newManager(t)

	_, err := m.Create(ctx, "First")
	require.NoError(t, err)
	first := eds.last()

	_, err = m.Create(ctx, "Second")
	require.NoError(t, err)
	second := eds.last()

	for _, b := range first {
		assert.True(t, b.Destroyed())
	}
	assert.False(t, second[types.RoleHTML].Destroyed())
	assert.Contains(t, second[types.RoleHTML].Code(), "<title>Second</title>")
	assert.Equal(t, "Second", m.Active().Name())
}

func TestOpenAndList(t *testing.T) {
	ctx := context.Background()
	m, st, _ := newManager(t)

	for _, name := range []string{"b", "a"} {
		_, err := m.Create(ctx, name)
		require.NoError(t, err)
	}
	require.NoError(t, st.Set(ctx, "junk", `{"html":{}}`))
	require.NoError(t, m.SetTheme(ctx, ThemeDark))

	list, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Name)
	assert.Equal(t, Summary{Name: "b", Markup: "html", Style: "css", Script: "js"}, list[1])

	p, err := m.Open(ctx, "a")
	require.NoError(t, err)
	assert.Same(t, p, m.Active())

	_, err = m.Open(ctx, "missing")
	assert.True(t, perrors.IsNotFound(err))
}

func TestEditsThroughEditorsPersist(t *testing.T) {
	ctx := context.Background()
	m, st, eds := newManager(t)
	_, err := m.Create(ctx, "Demo")
	require.NoError(t, err)

	eds.last()[types.RoleJS].Edit("console.log(1)")

	raw, ok, err := st.Get(ctx, "Demo")
	require.NoError(t, err)
	require.True(t, ok)
	info, err := types.DecodeRecord(raw)
	require.NoError(t, err)
	assert.Equal(t, "console.log(1)", info.JS.Code)
}

func TestRename(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newManager(t)
	for _, name := range []string{"one", "two"} {
		_, err := m.Create(ctx, name)
		require.NoError(t, err)
	}

	err := m.Rename(ctx, "one", "two")
	assert.True(t, perrors.IsValidation(err))

	require.NoError(t, m.Rename(ctx, "one", "uno"))
	require.NoError(t, m.Rename(ctx, "two", "dos"))
	assert.Equal(t, "dos", m.Active().Name())

	list, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "dos", list[0].Name)
	assert.Equal(t, "uno", list[1].Name)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newManager(t)
	_, err := m.Create(ctx, "keep")
	require.NoError(t, err)
	_, err = m.Create(ctx, "drop")
	require.NoError(t, err)

	removed, err := m.Delete(ctx, "drop", false)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, "drop", m.Active().Name())

	removed, err = m.Delete(ctx, "drop", true)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, project.PlainName, m.Active().Name())

	removed, err = m.Delete(ctx, "keep", true)
	require.NoError(t, err)
	assert.True(t, removed)

	_, err = m.Delete(ctx, "keep", true)
	assert.True(t, perrors.IsNotFound(err))
}

func TestPromotePlain(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newManager(t)

	_, err := m.Promote(ctx, "Saved")
	assert.True(t, perrors.IsValidation(err))

	plain := m.OpenPlain(ctx)
	require.NoError(t, m.SetCode(ctx, types.RoleCSS, "p{margin:0}"))

	saved, err := m.Promote(ctx, "Saved")
	require.NoError(t, err)
	assert.True(t, saved.Persisted())
	assert.NotSame(t, plain, saved)
	assert.Equal(t, "p{margin:0}", saved.Info().CSS.Code)

	list, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Saved", list[0].Name)
}

func TestSelectionNeedsActiveProject(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newManager(t)

	err := m.SetSelection(ctx, dialect.Selection{Less: true})
	assert.True(t, perrors.IsValidation(err))

	_, err = m.Create(ctx, "Demo")
	require.NoError(t, err)
	require.NoError(t, m.SetSelection(ctx, dialect.Selection{Less: true}))
	info := m.Active().Info()
	assert.Equal(t, dialect.StyleLess, info.Style())
}

func TestTheme(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newManager(t)

	theme, err := m.Theme(ctx)
	require.NoError(t, err)
	assert.Equal(t, ThemeLight, theme)

	require.NoError(t, m.SetTheme(ctx, ThemeDark))
	theme, err = m.Theme(ctx)
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, theme)

	assert.True(t, perrors.IsValidation(m.SetTheme(ctx, "neon")))
}

func TestChangeListeners(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newManager(t)

	var mu sync.Mutex
	var events []types.Role
	m.OnChange(func(_ *project.Project, role types.Role) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, role)
	})

	_, err := m.Create(ctx, "Demo")
	require.NoError(t, err)
	require.NoError(t, m.SetCode(ctx, types.RoleHTML, "<p>hi</p>"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []types.Role{"", types.RoleHTML}, events)
}
