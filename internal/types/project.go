// Package types provides the project data model shared by the store, the
// build pipelines and the workspace. It lives apart from those packages to
// avoid circular dependencies between them.
package types

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/conneroisu/mobilcoder/internal/dialect"
)

// Role names one source unit of a project. The values are the keys of the
// persisted record.
type Role string

const (
	RoleHTML     Role = "html"
	RoleCSS      Role = "css"
	RoleJS       Role = "js"
	RoleMarkdown Role = "md"
)

// Roles lists every editable role, markup first.
var Roles = []Role{RoleHTML, RoleMarkdown, RoleCSS, RoleJS}

// ParseRole validates a role name coming from the outside world.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleHTML, RoleCSS, RoleJS, RoleMarkdown:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Compiler is the dialect tag stored with a unit. The empty tag is encoded
// as JSON null, which is how a raw markup unit persists.
type Compiler string

// MarshalJSON encodes the empty tag as null.
func (c Compiler) MarshalJSON() ([]byte, error) {
	if c == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(c))
}

// UnmarshalJSON accepts a string or null.
func (c *Compiler) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("compiler tag: %w", err)
	}
	*c = Compiler(s)
	return nil
}

// SourceUnit is one user-authored source fragment.
type SourceUnit struct {
	// Code is the raw text as typed by the user
	Code string `json:"code"`
	// Compiler names the dialect transform applied to Code
	Compiler Compiler `json:"compiler"`
}

// ProjectInfo holds the complete source of one project.
type ProjectInfo struct {
	HTML SourceUnit `json:"html"`
	// MD is the markdown source used while the markup dialect is markdown.
	// Records written before markdown support carry no md unit.
	MD  *SourceUnit `json:"md,omitempty"`
	CSS SourceUnit  `json:"css"`
	JS  SourceUnit  `json:"js"`
}

// Default placeholder sources of a freshly named project.
const (
	DefaultStyle  = "body, html {\n\t\n}"
	DefaultScript = "// JavaScript goes here"
)

// NewProjectInfo scaffolds the default sources for a project called name.
func NewProjectInfo(name string) ProjectInfo {
	return ProjectInfo{
		HTML: SourceUnit{Code: ScaffoldDocument(name)},
		MD:   &SourceUnit{Code: "#" + name},
		CSS:  SourceUnit{Code: DefaultStyle, Compiler: Compiler(dialect.StyleCSS)},
		JS:   SourceUnit{Code: DefaultScript, Compiler: Compiler(dialect.ScriptJS)},
	}
}

// ScaffoldDocument returns the starter markup whose title equals name.
func ScaffoldDocument(name string) string {
	lines := []string{
		"<!DOCTYPE html>",
		`<html lang="en">`,
		"<head>",
		"\t<meta charset=\"UTF-8\">",
		"\t<meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">",
		"\t<title>" + html.EscapeString(name) + "</title>",
		"</head>",
		"<body>",
		"\t",
		"</body>",
		"</html>",
	}
	return strings.Join(lines, "\n")
}

// Markup resolves the markup dialect.
func (p *ProjectInfo) Markup() dialect.Markup {
	return dialect.ResolveMarkup(string(p.HTML.Compiler))
}

// Style resolves the style dialect.
func (p *ProjectInfo) Style() dialect.Style {
	return dialect.ResolveStyle(string(p.CSS.Compiler))
}

// Script resolves the script dialect.
func (p *ProjectInfo) Script() dialect.Script {
	return dialect.ResolveScript(string(p.JS.Compiler))
}

// Selection returns the toggle state matching the stored dialects.
func (p *ProjectInfo) Selection() dialect.Selection {
	return dialect.SelectionOf(p.Markup(), p.Style(), p.Script())
}

// ApplySelection rewrites the three dialect tags from toggle state. Code is
// left untouched.
func (p *ProjectInfo) ApplySelection(sel dialect.Selection) {
	p.HTML.Compiler = Compiler(dialect.MarkupFor(sel))
	p.CSS.Compiler = Compiler(dialect.StyleFor(sel))
	p.JS.Compiler = Compiler(dialect.ScriptFor(sel))
}

// MarkupSource returns the text the markup stage starts from: the markdown
// unit while the markdown dialect is active, the html unit otherwise.
func (p *ProjectInfo) MarkupSource() string {
	if p.Markup() == dialect.MarkupMarkdown && p.MD != nil {
		return p.MD.Code
	}
	return p.HTML.Code
}

// Unit returns a pointer to the unit for role, creating the markdown unit
// on demand.
func (p *ProjectInfo) Unit(role Role) *SourceUnit {
	switch role {
	case RoleHTML:
		return &p.HTML
	case RoleCSS:
		return &p.CSS
	case RoleJS:
		return &p.JS
	case RoleMarkdown:
		if p.MD == nil {
			p.MD = &SourceUnit{}
		}
		return p.MD
	}
	return nil
}

// Clone returns a deep copy.
func (p ProjectInfo) Clone() ProjectInfo {
	out := p
	if p.MD != nil {
		md := *p.MD
		out.MD = &md
	}
	return out
}

// Normalize resolves the style and script tags so they always name exactly
// one known dialect.
func (p *ProjectInfo) Normalize() {
	p.CSS.Compiler = Compiler(p.Style())
	p.JS.Compiler = Compiler(p.Script())
	if p.HTML.Compiler != "" {
		p.HTML.Compiler = Compiler(p.Markup())
	}
}

// ThemeKey is the store key holding the theme preference. It shares the
// key space with project names, so no project may be called this.
const ThemeKey = "-mobilcoder-theme"
