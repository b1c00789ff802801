package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html/atom"
)

func TestParseSynthesizesStructure(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty", ""},
		{"fragment", "<h1>Hello</h1>"},
		{"full document", "<!DOCTYPE html><html><head><title>T</title></head><body><p>x</p></body></html>"},
		{"text only", "just words"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse(tt.src)
			require.NoError(t, err)
			assert.NotNil(t, doc.Head())
			assert.NotNil(t, doc.Body())
		})
	}
}

func TestTitle(t *testing.T) {
	doc, err := Parse("<title>\n  My   Page \n</title><title>second</title>")
	require.NoError(t, err)
	assert.Equal(t, "My Page", doc.Title())

	doc, err = Parse("<p>no title</p>")
	require.NoError(t, err)
	assert.Equal(t, "", doc.Title())
}

func TestPrependBody(t *testing.T) {
	doc, err := Parse("<p>existing</p>")
	require.NoError(t, err)
	doc.PrependBody(RawElement(atom.Script, "run()"))
	assert.Equal(t, atom.Script, doc.Body().FirstChild.DataAtom)

	empty, err := Parse("")
	require.NoError(t, err)
	empty.PrependBody(RawElement(atom.Script, "run()"))
	assert.Equal(t, atom.Script, empty.Body().FirstChild.DataAtom)
	assert.Nil(t, empty.Body().FirstChild.NextSibling)
}

func TestRenderDoctypeAndMarker(t *testing.T) {
	doc, err := Parse("<p>x</p>")
	require.NoError(t, err)

	out, err := doc.Render("Generated with MobilCoder")
	require.NoError(t, err)
	lines := strings.SplitN(out, "\n", 3)
	require.Len(t, lines, 3)
	assert.Equal(t, DefaultDoctype, lines[0])
	assert.Equal(t, "<!-- Generated with MobilCoder -->", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "<html>"))

	out, err = doc.Render("")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, DefaultDoctype+"\n<html>"))
}

func TestRenderKeepsParsedDoctype(t *testing.T) {
	doc, err := Parse(`<!DOCTYPE html PUBLIC "-//W3C//DTD HTML 4.01//EN" "http://www.w3.org/TR/html4/strict.dtd"><p>x</p>`)
	require.NoError(t, err)
	assert.Contains(t, doc.Doctype(), "-//W3C//DTD HTML 4.01//EN")

	lower, err := Parse("<!doctype html><p>x</p>")
	require.NoError(t, err)
	assert.Equal(t, "<!DOCTYPE html>", lower.Doctype())
}

func TestRawElementIsNotEscaped(t *testing.T) {
	doc, err := Parse("")
	require.NoError(t, err)
	doc.AppendHead(RawElement(atom.Style, "a > b { content: \"&\" }"))
	doc.PrependBody(RawElement(atom.Script, "if (a < b && c) {}"))

	out, err := doc.Render("")
	require.NoError(t, err)
	assert.Contains(t, out, "<style>a > b { content: \"&\" }</style>")
	assert.Contains(t, out, "<script>if (a < b && c) {}</script>")
}

func TestScriptSrc(t *testing.T) {
	doc, err := Parse("")
	require.NoError(t, err)
	doc.AppendHead(ScriptSrc("https://unpkg.com/react@17/umd/react.production.min.js"))

	out, err := doc.Render("")
	require.NoError(t, err)
	assert.Contains(t, out, `<script src="https://unpkg.com/react@17/umd/react.production.min.js" crossorigin="true"></script>`)
}

func TestFindAll(t *testing.T) {
	doc, err := Parse("<style>a{}</style><p><style>b{}</style></p>")
	require.NoError(t, err)
	assert.Len(t, doc.FindAll(atom.Style), 2)
	assert.Empty(t, doc.FindAll(atom.Script))
}
