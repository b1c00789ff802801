// Package build turns a project's sources into documents. Compile produces
// the standalone static document; Sandbox produces the instrumented document
// rendered in the live preview frame.
//
// Neither entry point fails because a pane failed to compile. A failed pane
// degrades to a message embedded in the output and a diagnostic returned
// next to it.
package build

import (
	"context"
	"strings"
	"time"

	"golang.org/x/net/html/atom"
	"golang.org/x/sync/errgroup"

	"github.com/conneroisu/mobilcoder/internal/compiler"
	"github.com/conneroisu/mobilcoder/internal/dialect"
	"github.com/conneroisu/mobilcoder/internal/document"
	"github.com/conneroisu/mobilcoder/internal/errors"
	"github.com/conneroisu/mobilcoder/internal/logging"
	"github.com/conneroisu/mobilcoder/internal/shim"
	"github.com/conneroisu/mobilcoder/internal/types"
)

// GeneratorMarker is the comment placed in front of every static document.
const GeneratorMarker = "Generated with MobilCoder"

// Options holds the pipeline settings that are not compiler settings.
type Options struct {
	// ReactURL and ReactDOMURL are loaded by static documents of component
	// dialects
	ReactURL    string
	ReactDOMURL string
}

// Pipeline runs the static and sandbox compiles of a project.
type Pipeline struct {
	tools   *compiler.Toolchain
	opts    Options
	logger  logging.Logger
	metrics *Metrics
}

// Result is the outcome of a static compile.
type Result struct {
	HTML        string
	Diagnostics []errors.CompileDiagnostic
	Duration    time.Duration
}

// Sandboxed is the outcome of a sandbox compile.
type Sandboxed struct {
	HTML string
	// Title is what the host shows in its title field: the document title,
	// or a placeholder when there is none
	Title       string
	Diagnostics []errors.CompileDiagnostic
	Duration    time.Duration
}

// NewPipeline creates a pipeline over a toolchain.
func NewPipeline(tools *compiler.Toolchain, opts Options, logger logging.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Pipeline{
		tools:   tools,
		opts:    opts,
		logger:  logger.WithComponent("build"),
		metrics: &Metrics{},
	}
}

// Metrics returns a snapshot of the pipeline counters.
func (p *Pipeline) Metrics() MetricsSnapshot {
	return p.metrics.Snapshot()
}

// panes holds the three transformed sources of one compile.
type panes struct {
	markup string
	script string
	style  string
	// styleErr and markupErr are kept so the sandbox can echo them to the
	// frame console as well
	styleErr  error
	markupErr error
}

// failure converts a pane failure into the text embedded at its slot.
type failure func(msg string) string

// compilePanes runs the markup, script and style compiles concurrently and
// waits for all of them. Failures are recorded in dc and rendered with
// onScriptError (script) or as an inline comment (style).
func (p *Pipeline) compilePanes(ctx context.Context, info *types.ProjectInfo, minify bool, onScriptError failure, dc *errors.DiagnosticCollector) panes {
	var out panes
	var g errgroup.Group

	g.Go(func() error {
		src := info.MarkupSource()
		if info.Markup() != dialect.MarkupMarkdown {
			out.markup = src
			return nil
		}
		html, err := p.tools.Markup.Transform(ctx, src)
		if err != nil {
			out.markupErr = err
			dc.Failure(string(types.RoleMarkdown), string(dialect.MarkupMarkdown), err)
			out.markup = src
			return nil
		}
		out.markup = html
		return nil
	})

	g.Go(func() error {
		sc := info.Script()
		opts := compiler.ScriptOptionsFor(sc, p.tools.Target, minify)
		js, err := p.tools.Script.Transpile(ctx, info.JS.Code, opts)
		if err != nil {
			dc.Failure(string(types.RoleJS), string(sc), err)
			out.script = onScriptError(err.Error())
			return nil
		}
		out.script = js
		return nil
	})

	g.Go(func() error {
		st := info.Style()
		opts := compiler.StyleOptionsFor(st, p.tools.CompressStyles)
		css, err := p.tools.Style(st).Compile(ctx, info.CSS.Code, opts)
		if err != nil {
			out.styleErr = err
			dc.Failure(string(types.RoleCSS), string(st), err)
			out.style = errors.InlineComment(err.Error())
			return nil
		}
		out.style = css
		return nil
	})

	_ = g.Wait()
	return out
}

func (p *Pipeline) report(ctx context.Context, kind string, dc *errors.DiagnosticCollector, started time.Time) ([]errors.CompileDiagnostic, time.Duration) {
	diags := dc.Diagnostics()
	for i := range diags {
		p.logger.Warn(ctx, &diags[i], "Pane compile failed",
			"kind", kind,
			"role", diags[i].Role,
			"dialect", diags[i].Dialect)
	}
	elapsed := time.Since(started)
	p.metrics.record(kind == kindSandbox, len(diags), elapsed)
	return diags, elapsed
}

const (
	kindStatic  = "static"
	kindSandbox = "sandbox"
)

// Compile produces the standalone document of a project.
func (p *Pipeline) Compile(ctx context.Context, info types.ProjectInfo) (*Result, error) {
	started := time.Now()
	dc := errors.NewDiagnosticCollector()

	out := p.compilePanes(ctx, &info, false, errors.InlineComment, dc)

	doc, err := document.Parse(out.markup)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeMarkupTransform, "building document tree", err)
	}

	if info.Script().Component() {
		doc.AppendHead(document.ScriptSrc(p.opts.ReactURL))
		doc.AppendHead(document.ScriptSrc(p.opts.ReactDOMURL))
	}
	if strings.TrimSpace(out.style) != "" {
		doc.AppendHead(document.RawElement(atom.Style, out.style))
	}
	doc.PrependBody(document.RawElement(atom.Script, out.script))

	rendered, err := doc.Render(GeneratorMarker)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInternalError, "serializing document", err)
	}

	diags, elapsed := p.report(ctx, kindStatic, dc, started)
	p.logger.Debug(ctx, "Static compile finished",
		"duration_ms", elapsed.Milliseconds(),
		"failed_panes", len(diags))

	return &Result{HTML: rendered, Diagnostics: diags, Duration: elapsed}, nil
}

// Sandbox produces the document for the live preview frame. Script
// failures become console.error calls so they show up inside the preview.
func (p *Pipeline) Sandbox(ctx context.Context, info types.ProjectInfo) (*Sandboxed, error) {
	started := time.Now()
	dc := errors.NewDiagnosticCollector()

	out := p.compilePanes(ctx, &info, true, errors.ConsoleError, dc)
	script := out.script
	for _, err := range []error{out.markupErr, out.styleErr} {
		if err != nil {
			script += errors.ConsoleError(err.Error())
		}
	}

	doc, err := document.Parse(out.markup)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeMarkupTransform, "building document tree", err)
	}

	if info.Script().Component() {
		doc.AppendHead(document.RawElement(atom.Script, shim.ComponentAlias))
	}
	doc.AppendHead(document.RawElement(atom.Style, shim.ResetCSS))
	doc.AppendHead(document.RawElement(atom.Style, out.style))
	doc.AppendHead(document.RawElement(atom.Script, shim.Source()))
	doc.PrependBody(document.RawElement(atom.Script, script))

	title := doc.Title()
	if title == "" {
		doc.AppendHead(document.RawElement(atom.Script, shim.MissingTitleWarning))
		title = shim.NoTitle
	}

	rendered, err := doc.Render("")
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInternalError, "serializing document", err)
	}

	diags, elapsed := p.report(ctx, kindSandbox, dc, started)
	p.logger.Debug(ctx, "Sandbox compile finished",
		"duration_ms", elapsed.Milliseconds(),
		"failed_panes", len(diags))

	return &Sandboxed{HTML: rendered, Title: title, Diagnostics: diags, Duration: elapsed}, nil
}
