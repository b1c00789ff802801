// Package shim holds the runtime code injected into every sandbox document.
// It replaces the frame's console, error handler, dialogs, module loader and
// title with versions that forward to the host page.
package shim

import (
	_ "embed"
	"strconv"
)

//go:embed shim.js
var source string

// Source returns the runtime shim script.
func Source() string {
	return source
}

// ResetCSS is the minimal reset placed before the compiled style.
const ResetCSS = "html{font-family:Arial,Helvetica,sans-serif}*{box-sizing:border-box;}"

// NoData is the feedback panel's empty-state item. The shim removes it on
// the first message.
const NoData = `<li class="table-view-cell" style="color: gray;">No data</li>`

// ComponentAlias makes the host's React globals visible to a component
// script without fetching them again for every preview.
const ComponentAlias = "var {React, ReactDOM} = window.parent;"

// MissingTitleWarning is appended to the head of a sandbox document that has
// no title.
const MissingTitleWarning = "console.warn('Valid document must have title');"

// NoTitle is shown in the host title field when the document has no title.
const NoTitle = "[no title]"

// Ordinal renders n the way the shim reports error positions: 1st, 2nd,
// 3rd, and Nth for everything else.
func Ordinal(n int) string {
	suffix := "th"
	switch n {
	case 1:
		suffix = "st"
	case 2:
		suffix = "nd"
	case 3:
		suffix = "rd"
	}
	return strconv.Itoa(n) + suffix
}
