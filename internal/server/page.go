package server

import (
	"context"
	_ "embed"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/conneroisu/mobilcoder/internal/shim"
)

var (
	//go:embed assets/host.css
	hostCSS string
	//go:embed assets/host.js
	hostJS string
)

// pageState is what the host page needs from the server.
type pageState struct {
	Theme       string
	Registry    string
	ReactURL    string
	ReactDOMURL string
	Version     string
}

// pageSettings is handed to the host script as JSON.
type pageSettings struct {
	Registry string `json:"registry"`
	NoData   string `json:"noData"`
}

// hostPage is the playground shell: the panes, the dialect toggles, the
// preview frame and the feedback panel. The frame runs same-origin so the
// shim can reach window.parent.
func hostPage(state pageState) templ.Component {
	settings := templ.JSONScript("settings", pageSettings{Registry: state.Registry, NoData: shim.NoData})
	return templ.Join(
		pageHead(state),
		templ.Raw(`<body class="theme-`+templ.EscapeString(state.Theme)+`">`),
		toolbar(),
		workbench(),
		templ.Raw(`<footer hidden>`+templ.EscapeString(state.Version)+`</footer>`),
		settings,
		templ.Raw(`<script>`+hostJS+`</script></body></html>`),
	)
}

func pageHead(state pageState) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>MobilCoder</title><style>%s</style>`, hostCSS); err != nil {
			return err
		}
		for _, src := range []string{state.ReactURL, state.ReactDOMURL} {
			if src == "" {
				continue
			}
			if _, err := fmt.Fprintf(w, `<script src="%s" crossorigin></script>`, templ.EscapeString(src)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</head>`)
		return err
	})
}

func toolbar() templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<header>`+
			`<select id="projects" aria-label="Projects"></select>`+
			`<strong id="project-name"></strong><span id="badge" class="badge"></span>`+
			`<span id="title">`+templ.EscapeString(shim.NoTitle)+`</span>`+
			`<button id="new">New</button><button id="rename">Rename</button><button id="delete">Delete</button>`+
			`<button id="download">Download</button><button id="theme">Theme</button>`+
			`</header>`)
		return err
	})
}

// toggles lists the dialect switches in the order they are shown.
var toggles = []struct{ key, label string }{
	{"markdown", "Markdown"},
	{"sass", "Sass"},
	{"scss", "SCSS syntax"},
	{"less", "Less"},
	{"typescript", "TypeScript"},
	{"jsx", "JSX"},
}

func workbench() templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<main><section class="panes"><nav class="tabs">`+
			`<button class="active" data-role="html">html</button><button data-role="css">css</button><button data-role="js">js</button>`+
			`</nav><div class="toggles">`); err != nil {
			return err
		}
		for _, t := range toggles {
			if _, err := fmt.Fprintf(w, `<label><input type="checkbox" data-toggle="%s"> %s</label> `, t.key, templ.EscapeString(t.label)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</div>`+
			`<div class="pane active" data-role="html"><textarea spellcheck="false"></textarea></div>`+
			`<div class="pane" data-role="css"><textarea spellcheck="false"></textarea></div>`+
			`<div class="pane" data-role="js"><textarea spellcheck="false"></textarea></div>`+
			`</section><section class="output">`+
			`<iframe id="frame" src="/frame" title="Preview" sandbox="allow-scripts allow-same-origin allow-modals allow-forms"></iframe>`+
			`<ul id="console">`+shim.NoData+`</ul>`+
			`</section></main>`)
		return err
	})
}
