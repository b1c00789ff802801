package dialect

// Selection is the serializable toggle state behind the dialect pickers.
// The interface produces it; compilation only ever reads the dialects derived
// from it, never the interface itself.
//
// Sass, SCSS and Less come from grouped toggles: SCSS only matters while Sass
// is on, and Less only matters while Sass is off.
type Selection struct {
	Markdown   bool `json:"markdown"`
	TypeScript bool `json:"typescript"`
	JSX        bool `json:"jsx"`
	Sass       bool `json:"sass"`
	SCSS       bool `json:"scss"`
	Less       bool `json:"less"`
}

// ScriptFor derives the script dialect from the toggle state.
func ScriptFor(sel Selection) Script {
	base := "js"
	if sel.TypeScript {
		base = "ts"
	}
	if sel.JSX {
		base += "x"
	}
	return Script(base)
}

// StyleFor derives the style dialect from the toggle state. Exactly one
// family is ever returned.
func StyleFor(sel Selection) Style {
	switch {
	case sel.Sass && sel.SCSS:
		return StyleSCSS
	case sel.Sass:
		return StyleSass
	case sel.Less:
		return StyleLess
	default:
		return StyleCSS
	}
}

// MarkupFor derives the markup dialect from the toggle state.
func MarkupFor(sel Selection) Markup {
	if sel.Markdown {
		return MarkupMarkdown
	}
	return MarkupHTML
}

// SelectionOf rebuilds the toggle state that produces the given dialects.
// SelectionOf followed by the *For functions is the identity on valid tags.
func SelectionOf(m Markup, s Style, sc Script) Selection {
	return Selection{
		Markdown:   m == MarkupMarkdown,
		TypeScript: sc.Typed(),
		JSX:        sc.Component(),
		Sass:       s == StyleSass || s == StyleSCSS,
		SCSS:       s == StyleSCSS,
		Less:       s == StyleLess,
	}
}
