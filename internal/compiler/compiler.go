// Package compiler defines the dialect compiler contracts used by the build
// pipelines and provides their implementations: a markdown transform, a
// script transpiler and style preprocessors.
//
// Every compiler is a pure function of its input. Failures are returned as
// errors whose message is fit to be shown to the user; converting them into
// document content is the pipeline's job.
package compiler

import (
	"context"

	"github.com/conneroisu/mobilcoder/internal/config"
	"github.com/conneroisu/mobilcoder/internal/dialect"
)

// ScriptOptions selects the transpiler front-ends for one call.
type ScriptOptions struct {
	// Target is the output syntax level, e.g. "es2017"
	Target string
	// Types enables the typed-script front-end
	Types bool
	// Component enables the component (JSX) front-end
	Component bool
	// Minify strips comments and whitespace while keeping names
	Minify bool
}

// StyleOptions configures one preprocessor call.
type StyleOptions struct {
	Compress bool
	// Indented selects the whitespace-significant syntax of the sass engine
	Indented bool
}

// MarkupTransformer turns shorthand markup into HTML.
type MarkupTransformer interface {
	Transform(ctx context.Context, src string) (string, error)
}

// ScriptTranspiler compiles a script dialect down to plain script.
type ScriptTranspiler interface {
	Transpile(ctx context.Context, src string, opts ScriptOptions) (string, error)
}

// StylePreprocessor compiles a style dialect down to plain css.
type StylePreprocessor interface {
	Compile(ctx context.Context, src string, opts StyleOptions) (string, error)
}

// ScriptOptionsFor derives the transpiler options of a script dialect.
func ScriptOptionsFor(sc dialect.Script, target string, minify bool) ScriptOptions {
	return ScriptOptions{
		Target:    target,
		Types:     sc.Typed(),
		Component: sc.Component(),
		Minify:    minify,
	}
}

// StyleOptionsFor derives the preprocessor options of a style dialect.
func StyleOptionsFor(s dialect.Style, compress bool) StyleOptions {
	return StyleOptions{Compress: compress, Indented: s.Indented()}
}

// Toolchain bundles the compilers of every dialect.
type Toolchain struct {
	Markup MarkupTransformer
	Script ScriptTranspiler
	// Styles maps preprocessed style dialects to their engine. Plain css
	// never needs an entry.
	Styles map[dialect.Style]StylePreprocessor
	// Target is the script syntax level of every transpile
	Target string
	// CompressStyles asks the style engines for compact output
	CompressStyles bool
}

// NewToolchain wires the default compilers from configuration: goldmark for
// markdown, esbuild for scripts, and external sass and lessc processes.
func NewToolchain(cfg config.CompilersConfig) *Toolchain {
	sass := NewSassEngine(cfg.SassCommand, cfg.Timeout)
	return &Toolchain{
		Markup: NewMarkdown(),
		Script: NewESBuild(),
		Styles: map[dialect.Style]StylePreprocessor{
			dialect.StyleSass: sass,
			dialect.StyleSCSS: sass,
			dialect.StyleLess: NewLessEngine(cfg.LessCommand, cfg.Timeout),
		},
		Target:         cfg.Target,
		CompressStyles: cfg.CompressStyles,
	}
}

// Style returns the engine for a style dialect. Plain css and dialects
// without a registered engine pass through unchanged.
func (t *Toolchain) Style(s dialect.Style) StylePreprocessor {
	if p, ok := t.Styles[s]; ok && s.Preprocessed() {
		return p
	}
	return Passthrough{}
}

// Passthrough returns its input unchanged. It serves plain css.
type Passthrough struct{}

// Compile implements StylePreprocessor.
func (Passthrough) Compile(_ context.Context, src string, _ StyleOptions) (string, error) {
	return src, nil
}
