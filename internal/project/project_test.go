package project

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/mobilcoder/internal/build"
	"github.com/conneroisu/mobilcoder/internal/compiler"
	"github.com/conneroisu/mobilcoder/internal/config"
	"github.com/conneroisu/mobilcoder/internal/dialect"
	"github.com/conneroisu/mobilcoder/internal/editor"
	perrors "github.com/conneroisu/mobilcoder/internal/errors"
	"github.com/conneroisu/mobilcoder/internal/store"
	"github.com/conneroisu/mobilcoder/internal/types"
)

func testPipeline() *build.Pipeline {
	cfg := config.Default()
	return build.NewPipeline(compiler.NewToolchain(cfg.Compilers), build.Options{
		ReactURL:    cfg.Compilers.ReactURL,
		ReactDOMURL: cfg.Compilers.ReactDOMURL,
	}, nil)
}

type failingStore struct {
	store.ProjectStore
}

func (failingStore) Set(context.Context, string, string) error {
	return errors.New("quota exceeded")
}

func buffers() (map[types.Role]editor.Surface, map[types.Role]*editor.Buffer) {
	surfaces := make(map[types.Role]editor.Surface)
	bufs := make(map[types.Role]*editor.Buffer)
	for _, role := range types.Roles {
		b := editor.NewBuffer()
		surfaces[role] = b
		bufs[role] = b
	}
	return surfaces, bufs
}

func stored(t *testing.T, st store.ProjectStore, name string) (types.ProjectInfo, bool) {
	t.Helper()
	raw, ok, err := st.Get(context.Background(), name)
	require.NoError(t, err)
	if !ok {
		return types.ProjectInfo{}, false
	}
	info, err := types.DecodeRecord(raw)
	require.NoError(t, err)
	return info, true
}

func TestNewScaffoldsDefaults(t *testing.T) {
	p := New("Demo", store.NewMemory(), testPipeline())

	info := p.Info()
	assert.Equal(t, "Demo", p.Name())
	assert.True(t, p.Persisted())
	assert.Contains(t, info.HTML.Code, "<title>Demo</title>")
	assert.Equal(t, types.DefaultStyle, info.CSS.Code)
	assert.Equal(t, types.DefaultScript, info.JS.Code)
	assert.Equal(t, dialect.Selection{}, p.Selection())
}

func TestSaveAndOpen(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()

	p := New("Demo", st, testPipeline())
	require.NoError(t, p.SetCode(ctx, types.RoleCSS, "body{color:red}"))

	opened, err := Open(ctx, "Demo", st, testPipeline())
	require.NoError(t, err)
	assert.Equal(t, "body{color:red}", opened.Info().CSS.Code)
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(context.Background(), "Nope", store.NewMemory(), testPipeline())
	require.Error(t, err)
	assert.True(t, perrors.IsNotFound(err))
}

func TestOpenCorruptRecord(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	require.NoError(t, st.Set(ctx, "Broken", `{"html":{"code":"","compiler":null}}`))

	_, err := Open(ctx, "Broken", st, testPipeline())
	require.Error(t, err)
	assert.True(t, perrors.IsStorage(err))
}

func TestPlainNeverSaves(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	surfaces, bufs := buffers()

	p := NewPlain(st, testPipeline(), surfaces)
	assert.Equal(t, PlainName, p.Name())
	assert.False(t, p.Persisted())
	assert.Contains(t, bufs[types.RoleHTML].Code(), "<title>Plain Project</title>")

	bufs[types.RoleJS].Edit("let x = 1")
	require.NoError(t, p.Save(ctx))

	entries, err := st.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, "let x = 1", p.Info().JS.Code)
}

func TestSaveStorageFailure(t *testing.T) {
	p := New("Demo", failingStore{store.NewMemory()}, testPipeline())

	err := p.Save(context.Background())
	require.Error(t, err)
	assert.True(t, perrors.IsStorage(err))
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestRenameStoredProject(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	p := New("Old", st, testPipeline())
	require.NoError(t, p.Save(ctx))

	require.NoError(t, p.Rename(ctx, "New"))

	assert.Equal(t, "New", p.Name())
	_, ok := stored(t, st, "Old")
	assert.False(t, ok)
	_, ok = stored(t, st, "New")
	assert.True(t, ok)
}

// gatedStore holds writes to one key until release is closed.
type gatedStore struct {
	*store.Memory
	key     string
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStore) Set(ctx context.Context, key, value string) error {
	if key == g.key {
		g.entered <- struct{}{}
		<-g.release
	}
	return g.Memory.Set(ctx, key, value)
}

func TestRenameWaitsForInflightSave(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	p := New("Old", mem, testPipeline())
	require.NoError(t, p.Save(ctx))

	st := &gatedStore{Memory: mem, key: "Old", entered: make(chan struct{}, 1), release: make(chan struct{})}
	p.store = st

	saved := make(chan error, 1)
	go func() { saved <- p.SetCode(ctx, types.RoleJS, "let edited = true;") }()
	<-st.entered

	renamed := make(chan error, 1)
	go func() { renamed <- p.Rename(ctx, "New") }()

	select {
	case err := <-renamed:
		t.Fatalf("rename finished while a save was in flight: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(st.release)
	require.NoError(t, <-saved)
	require.NoError(t, <-renamed)

	entries, err := mem.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "New", entries[0].Key)

	info, ok := stored(t, mem, "New")
	require.True(t, ok)
	assert.Equal(t, "let edited = true;", info.JS.Code)
}

func TestRenameUnsavedOnlyChangesName(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	p := New("Draft", st, testPipeline())

	require.NoError(t, p.Rename(ctx, "Final"))
	assert.Equal(t, "Final", p.Name())

	entries, err := st.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRenameEmptyIsIgnored(t *testing.T) {
	p := New("Keep", store.NewMemory(), testPipeline())
	require.NoError(t, p.Rename(context.Background(), ""))
	assert.Equal(t, "Keep", p.Name())
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	p := New("Demo", st, testPipeline())
	require.NoError(t, p.Save(ctx))

	removed, err := p.Delete(ctx, false)
	require.NoError(t, err)
	assert.False(t, removed)
	_, ok := stored(t, st, "Demo")
	assert.True(t, ok)

	removed, err = p.Delete(ctx, true)
	require.NoError(t, err)
	assert.True(t, removed)
	_, ok = stored(t, st, "Demo")
	assert.False(t, ok)
}

func TestToSavableProjectCopies(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	surfaces, bufs := buffers()
	plain := NewPlain(st, testPipeline(), surfaces)
	bufs[types.RoleMarkdown].Edit("# notes")

	saved, err := plain.ToSavableProject(ctx, "Kept")
	require.NoError(t, err)
	assert.True(t, saved.Persisted())

	info, ok := stored(t, st, "Kept")
	require.True(t, ok)
	require.NotNil(t, info.MD)
	assert.Equal(t, "# notes", info.MD.Code)

	bufs[types.RoleMarkdown].Edit("changed later")
	assert.Equal(t, "# notes", saved.Info().MD.Code)
}

func TestLoadPushesCodeAndSavesEdits(t *testing.T) {
	st := store.NewMemory()
	surfaces, bufs := buffers()
	p := New("Demo", st, testPipeline())
	p.Load(surfaces)

	assert.Equal(t, types.DefaultStyle, bufs[types.RoleCSS].Code())
	assert.Equal(t, "#Demo", bufs[types.RoleMarkdown].Code())

	var roles []types.Role
	p.OnChange(func(_ *Project, role types.Role) { roles = append(roles, role) })

	bufs[types.RoleCSS].Edit("a{}")

	info, ok := stored(t, st, "Demo")
	require.True(t, ok)
	assert.Equal(t, "a{}", info.CSS.Code)
	assert.Equal(t, []types.Role{types.RoleCSS}, roles)
}

func TestSetCodeSyncsEditor(t *testing.T) {
	surfaces, bufs := buffers()
	p := New("Demo", store.NewMemory(), testPipeline())
	p.Load(surfaces)

	require.NoError(t, p.SetCode(context.Background(), types.RoleJS, "alert(1)"))
	assert.Equal(t, "alert(1)", bufs[types.RoleJS].Code())
}

func TestSetCodeUnknownRole(t *testing.T) {
	p := New("Demo", store.NewMemory(), testPipeline())
	err := p.SetCode(context.Background(), types.Role("py"), "print()")
	assert.True(t, perrors.IsValidation(err))
}

func TestDestroyReleasesEditors(t *testing.T) {
	surfaces, bufs := buffers()
	p := New("Demo", store.NewMemory(), testPipeline())
	p.Load(surfaces)

	p.Destroy()

	for _, b := range bufs {
		assert.True(t, b.Destroyed())
	}
	assert.False(t, bufs[types.RoleJS].Edit("ignored"))
	assert.Equal(t, types.DefaultScript, p.Info().JS.Code)
}

func TestApplySelectionKeepsCode(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	p := New("Demo", st, testPipeline())
	before := p.Info()

	sel := dialect.Selection{TypeScript: true, JSX: true, Sass: true, SCSS: true}
	require.NoError(t, p.ApplySelection(ctx, sel))

	info, ok := stored(t, st, "Demo")
	require.True(t, ok)
	assert.Equal(t, types.Compiler("tsx"), info.JS.Compiler)
	assert.Equal(t, types.Compiler("scss"), info.CSS.Compiler)
	assert.Equal(t, before.JS.Code, info.JS.Code)
	assert.Equal(t, before.CSS.Code, info.CSS.Code)
	assert.Equal(t, sel, p.Selection())
}

func TestCompiledAndSandbox(t *testing.T) {
	ctx := context.Background()
	p := New("Demo", store.NewMemory(), testPipeline())

	res, err := p.Compiled(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.HTML, "<!DOCTYPE html>\n<!-- "+build.GeneratorMarker+" -->"))

	sb, err := p.Sandbox(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Demo", sb.Title)
	assert.Empty(t, sb.Diagnostics)
}
