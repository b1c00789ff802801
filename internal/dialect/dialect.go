// Package dialect names the source dialects a project pane can be written in
// and derives them from the toggle state a user interface exposes.
//
// Dialect tags double as the wire values of the persisted project record, so
// their string forms must stay stable: markup is either raw ("") or
// "markdown", style is one of "css", "sass", "scss", "less", and script is one
// of "js", "jsx", "ts", "tsx".
package dialect

import "strings"

// Markup identifies the transform applied to the markup pane.
type Markup string

const (
	// MarkupHTML means raw markup, used verbatim. It persists as null.
	MarkupHTML Markup = ""
	// MarkupMarkdown routes the markup pane through the markdown transform.
	MarkupMarkdown Markup = "markdown"
)

// Style identifies the preprocessor applied to the style pane.
type Style string

const (
	StyleCSS  Style = "css"
	StyleSass Style = "sass"
	StyleSCSS Style = "scss"
	StyleLess Style = "less"
)

// Script identifies the transpiler front-ends applied to the script pane.
type Script string

const (
	ScriptJS  Script = "js"
	ScriptJSX Script = "jsx"
	ScriptTS  Script = "ts"
	ScriptTSX Script = "tsx"
)

// Styles lists every style dialect in toggle order.
var Styles = []Style{StyleCSS, StyleSass, StyleSCSS, StyleLess}

// Scripts lists every script dialect in toggle order.
var Scripts = []Script{ScriptJS, ScriptJSX, ScriptTS, ScriptTSX}

// Valid reports whether s is one of the known style dialects.
func (s Style) Valid() bool {
	switch s {
	case StyleCSS, StyleSass, StyleSCSS, StyleLess:
		return true
	}
	return false
}

// Preprocessed reports whether the style needs a preprocessor at all.
func (s Style) Preprocessed() bool {
	return s.Valid() && s != StyleCSS
}

// Indented reports whether the style uses the whitespace-significant syntax.
func (s Style) Indented() bool {
	return s == StyleSass
}

// Valid reports whether s is one of the known script dialects.
func (s Script) Valid() bool {
	switch s {
	case ScriptJS, ScriptJSX, ScriptTS, ScriptTSX:
		return true
	}
	return false
}

// Typed reports whether the typed-script front-end applies.
func (s Script) Typed() bool {
	return s == ScriptTS || s == ScriptTSX
}

// Component reports whether the component (JSX) front-end applies.
func (s Script) Component() bool {
	return s == ScriptJSX || s == ScriptTSX
}

// Valid reports whether m is a known markup dialect.
func (m Markup) Valid() bool {
	return m == MarkupHTML || m == MarkupMarkdown
}

// ResolveStyle maps an arbitrary tag onto a style dialect. Unknown or empty
// tags resolve to plain css so a loaded record is never ambiguous.
func ResolveStyle(tag string) Style {
	s := Style(strings.ToLower(strings.TrimSpace(tag)))
	if s.Valid() {
		return s
	}
	return StyleCSS
}

// ResolveScript maps an arbitrary tag onto a script dialect, defaulting to js.
func ResolveScript(tag string) Script {
	s := Script(strings.ToLower(strings.TrimSpace(tag)))
	if s.Valid() {
		return s
	}
	return ScriptJS
}

// ResolveMarkup maps an arbitrary tag onto a markup dialect, defaulting to raw.
func ResolveMarkup(tag string) Markup {
	if Markup(strings.ToLower(strings.TrimSpace(tag))) == MarkupMarkdown {
		return MarkupMarkdown
	}
	return MarkupHTML
}
