package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/mobilcoder/internal/build"
	"github.com/conneroisu/mobilcoder/internal/compiler"
	"github.com/conneroisu/mobilcoder/internal/config"
	"github.com/conneroisu/mobilcoder/internal/dialect"
	"github.com/conneroisu/mobilcoder/internal/project"
	"github.com/conneroisu/mobilcoder/internal/store"
	"github.com/conneroisu/mobilcoder/internal/types"
)

func TestEventTypeString(t *testing.T) {
	testCases := []struct {
		eventType EventType
		expected  string
	}{
		{EventTypeCreated, "created"},
		{EventTypeModified, "modified"},
		{EventTypeDeleted, "deleted"},
		{EventTypeRenamed, "renamed"},
		{EventType(42), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.eventType.String())
		})
	}
}

func TestUnitFor(t *testing.T) {
	testCases := []struct {
		path string
		want Unit
		ok   bool
	}{
		{"index.html", Unit{Role: types.RoleHTML}, true},
		{"/tmp/p/index.md", Unit{Role: types.RoleMarkdown}, true},
		{"style.css", Unit{Role: types.RoleCSS, Style: dialect.StyleCSS}, true},
		{"style.scss", Unit{Role: types.RoleCSS, Style: dialect.StyleSCSS}, true},
		{"style.less", Unit{Role: types.RoleCSS, Style: dialect.StyleLess}, true},
		{"script.tsx", Unit{Role: types.RoleJS, Script: dialect.ScriptTSX}, true},
		{"script.js", Unit{Role: types.RoleJS, Script: dialect.ScriptJS}, true},
		{"style.styl", Unit{}, false},
		{"main.js", Unit{}, false},
		{"index.htm", Unit{}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			got, ok := UnitFor(tc.path)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFilters(t *testing.T) {
	assert.False(t, NoHiddenFilter("dir/.style.css.swp"))
	assert.True(t, NoHiddenFilter("dir/style.css"))
	assert.False(t, NoBackupFilter("style.css~"))
	assert.True(t, SourceFilter("script.ts"))
	assert.False(t, SourceFilter("dist"))
}

func TestNewFileWatcher(t *testing.T) {
	fw, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer fw.Stop()

	assert.NotNil(t, fw.watcher)
	assert.NotNil(t, fw.debouncer)
	assert.Empty(t, fw.filters)
	assert.Empty(t, fw.handlers)

	fw.AddFilter(SourceFilter)
	fw.AddHandler(func([]ChangeEvent) error { return nil })
	assert.Len(t, fw.filters, 1)
	assert.Len(t, fw.handlers, 1)
}

func TestFileWatcherAddPath(t *testing.T) {
	fw, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer fw.Stop()

	dir := t.TempDir()
	assert.NoError(t, fw.AddPath(dir))

	file := filepath.Join(dir, "index.html")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	assert.Error(t, fw.AddPath(file))
	assert.Error(t, fw.AddPath("/non/existent/path"))
}

func TestDebouncerCoalesces(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := NewDebouncer(30 * time.Millisecond)
	go d.start(ctx)

	d.Add(ChangeEvent{Type: EventTypeCreated, Path: "style.css"})
	d.Add(ChangeEvent{Type: EventTypeModified, Path: "style.css"})
	d.Add(ChangeEvent{Type: EventTypeModified, Path: "script.js"})

	select {
	case batch := <-d.Output():
		require.Len(t, batch, 2)
		for _, e := range batch {
			if e.Path == "style.css" {
				assert.Equal(t, EventTypeModified, e.Type)
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no batch delivered")
	}
}

func newProject(t *testing.T, name string) *project.Project {
	t.Helper()
	cfg := config.Default()
	pipeline := build.NewPipeline(compiler.NewToolchain(cfg.Compilers), build.Options{
		ReactURL:    cfg.Compilers.ReactURL,
		ReactDOMURL: cfg.Compilers.ReactDOMURL,
	}, nil)
	return project.New(name, store.NewMemory(), pipeline)
}

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSyncerInitial(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "index.html", "<!DOCTYPE html><html><head><title>Site</title></head><body><p>hi</p></body></html>")
	write(t, dir, "script.ts", `console.log("typed" as string)`)
	write(t, dir, "notes.txt", "ignored")

	p := newProject(t, "My Site")
	s := NewSyncer(dir, p, nil)
	require.NoError(t, s.Initial(context.Background()))

	assert.Equal(t, filepath.Join(dir, "dist", "My-Site.html"), s.DistPath())
	out, err := os.ReadFile(s.DistPath())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "<!DOCTYPE html>\n<!-- "+build.GeneratorMarker+" -->"))
	assert.Contains(t, string(out), "<p>hi</p>")
	assert.Contains(t, string(out), `console.log("typed")`)
	assert.NotContains(t, string(out), "as string")

	info := p.Info()
	assert.Equal(t, dialect.ScriptTS, info.Script())
}

func TestSyncerMarkdownToggle(t *testing.T) {
	dir := t.TempDir()
	md := write(t, dir, "index.md", "# Title")

	p := newProject(t, "Notes")
	s := NewSyncer(dir, p, nil)
	ctx := context.Background()

	require.NoError(t, s.Apply(ctx, []string{md}, nil))
	assert.True(t, p.Selection().Markdown)
	assert.Equal(t, "# Title", p.Info().MD.Code)

	require.NoError(t, os.Remove(md))
	require.NoError(t, s.Apply(ctx, nil, []string{md}))
	assert.False(t, p.Selection().Markdown)
}

func TestSyncerStyleDialectFromExtension(t *testing.T) {
	dir := t.TempDir()
	p := newProject(t, "Styles")
	s := NewSyncer(dir, p, nil)

	less := write(t, dir, "style.less", "@c: red; a { color: @c; }")
	require.NoError(t, s.Apply(context.Background(), []string{less}, nil))
	info := p.Info()
	assert.Equal(t, dialect.StyleLess, info.Style())

	css := write(t, dir, "style.css", "a { color: blue; }")
	require.NoError(t, s.Apply(context.Background(), []string{css}, nil))
	info = p.Info()
	assert.Equal(t, dialect.StyleCSS, info.Style())
}

func TestWatcherEndToEnd(t *testing.T) {
	dir := t.TempDir()
	p := newProject(t, "Live")
	s := NewSyncer(dir, p, nil)

	fw, err := NewFileWatcher(20*time.Millisecond, nil)
	require.NoError(t, err)
	defer fw.Stop()

	fw.AddFilter(NoHiddenFilter)
	fw.AddFilter(SourceFilter)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	batches := 0
	fw.AddHandler(func(events []ChangeEvent) error {
		mu.Lock()
		batches++
		mu.Unlock()
		return s.Handler(ctx)(events)
	})
	require.NoError(t, fw.AddPath(dir))
	require.NoError(t, fw.Start(ctx))

	write(t, dir, "script.js", "console.log('live')")

	require.Eventually(t, func() bool {
		return p.Info().JS.Code == "console.log('live')"
	}, 5*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		out, err := os.ReadFile(s.DistPath())
		return err == nil && strings.Contains(string(out), "live")
	}, 5*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, batches, 1)
}
