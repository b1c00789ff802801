package dialect

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// \s in RE2 is ASCII only; \p{Z}, \v and U+FEFF make up the rest of
	// the Unicode whitespace set.
	unsafeFileChars = regexp.MustCompile(`[/\\:*?"'<>|\s\p{Z}\v\x{FEFF}]`)
	edgeHyphens     = regexp.MustCompile(`^-+|-+$`)
)

// Filify turns a project name into a file-system safe base name. Each
// disallowed character or whitespace rune becomes one hyphen and leading or
// trailing hyphens are trimmed.
func Filify(name string) string {
	return edgeHyphens.ReplaceAllString(unsafeFileChars.ReplaceAllString(name, "-"), "")
}

// FileName returns the download name of a project's static document.
func FileName(project string) string {
	base := Filify(project)
	if base == "" {
		base = "project"
	}
	return base + ".html"
}

// Badge describes how a project list entry labels its script dialect.
type Badge struct {
	Label    string `json:"label"`
	Family   string `json:"family"`
	Inverted bool   `json:"inverted"`
}

// BadgeFor builds the list badge for a script dialect: the upper-cased tag,
// the two letter family, and an inverted look for component dialects.
func BadgeFor(s Script) Badge {
	tag := string(ResolveScript(string(s)))
	return Badge{
		Label:    cases.Upper(language.Und).String(tag),
		Family:   tag[:2],
		Inverted: strings.HasSuffix(tag, "x"),
	}
}

// PaneLabel is the tab caption of a pane: the markup tab reads "md" while the
// markdown transform is active, the others show their dialect tag.
func PaneLabel(role string, m Markup, s Style, sc Script) string {
	switch role {
	case "html":
		if m == MarkupMarkdown {
			return "md"
		}
		return "html"
	case "css":
		return string(s)
	case "js":
		return string(sc)
	default:
		return role
	}
}
