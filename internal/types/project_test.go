package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/mobilcoder/internal/dialect"
)

func TestNewProjectInfo(t *testing.T) {
	info := NewProjectInfo("Test")

	assert.Contains(t, info.HTML.Code, "<title>Test</title>")
	assert.True(t, len(info.HTML.Code) > 0 && info.HTML.Code[:15] == "<!DOCTYPE html>")
	assert.Equal(t, Compiler(""), info.HTML.Compiler)
	assert.Equal(t, "body, html {\n\t\n}", info.CSS.Code)
	assert.Equal(t, Compiler("css"), info.CSS.Compiler)
	assert.Equal(t, "// JavaScript goes here", info.JS.Code)
	assert.Equal(t, Compiler("js"), info.JS.Compiler)
	require.NotNil(t, info.MD)
	assert.Equal(t, "#Test", info.MD.Code)
}

func TestScaffoldDocumentEscapesName(t *testing.T) {
	doc := ScaffoldDocument("A&B <x>")
	assert.Contains(t, doc, "<title>A&amp;B &lt;x&gt;</title>")
}

func TestRecordRoundTrip(t *testing.T) {
	info := NewProjectInfo("Round")
	info.ApplySelection(dialect.Selection{TypeScript: true, JSX: true, Sass: true, SCSS: true})
	info.JS.Code = "const x: number = 1;\n"

	raw, err := EncodeRecord(info)
	require.NoError(t, err)
	assert.Contains(t, raw, `"html":{"code":`)
	assert.Contains(t, raw, `"compiler":null`)

	decoded, err := DecodeRecord(raw)
	require.NoError(t, err)
	assert.Equal(t, info, decoded)

	again, err := EncodeRecord(decoded)
	require.NoError(t, err)
	assert.Equal(t, raw, again)
}

func TestDecodeRecordValidation(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"html":{"code":"","compiler":null},"css":{"code":"","compiler":"css"},"js":{"code":"","compiler":"js"}}`, false},
		{"missing js", `{"html":{"code":"","compiler":null},"css":{"code":"","compiler":"css"}}`, true},
		{"not json", `#light`, true},
		{"json string", `"dark"`, true},
		{"array", `[1,2]`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRecord(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDecodeRecordResolvesUnknownDialects(t *testing.T) {
	raw := `{"html":{"code":"x","compiler":"haml"},"css":{"code":"","compiler":"stylus"},"js":{"code":"","compiler":null}}`

	info, err := DecodeRecord(raw)
	require.NoError(t, err)
	assert.Equal(t, dialect.StyleCSS, info.Style())
	assert.Equal(t, dialect.ScriptJS, info.Script())
	assert.Equal(t, dialect.MarkupHTML, info.Markup())
	assert.Equal(t, Compiler("css"), info.CSS.Compiler)
	assert.Equal(t, Compiler("js"), info.JS.Compiler)
}

func TestApplySelectionKeepsCode(t *testing.T) {
	info := NewProjectInfo("Toggle")
	before := info.CSS.Code

	info.ApplySelection(dialect.Selection{Less: true})
	assert.Equal(t, Compiler("less"), info.CSS.Compiler)

	info.ApplySelection(dialect.Selection{})
	assert.Equal(t, Compiler("css"), info.CSS.Compiler)
	assert.Equal(t, before, info.CSS.Code)
}

func TestMarkupSource(t *testing.T) {
	info := NewProjectInfo("Doc")
	assert.Equal(t, info.HTML.Code, info.MarkupSource())

	info.ApplySelection(dialect.Selection{Markdown: true})
	assert.Equal(t, "#Doc", info.MarkupSource())

	info.MD = nil
	assert.Equal(t, info.HTML.Code, info.MarkupSource())
}

func TestUnitAndClone(t *testing.T) {
	info := NewProjectInfo("Clone")
	clone := info.Clone()
	clone.Unit(RoleMarkdown).Code = "changed"
	clone.Unit(RoleJS).Code = "changed"

	assert.Equal(t, "#Clone", info.MD.Code)
	assert.Equal(t, DefaultScript, info.JS.Code)
	assert.Nil(t, clone.Unit(Role("nope")))
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("css")
	require.NoError(t, err)
	assert.Equal(t, RoleCSS, r)

	_, err = ParseRole("sql")
	assert.Error(t, err)
}
