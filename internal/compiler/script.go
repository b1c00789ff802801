package compiler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

var targets = map[string]api.Target{
	"es5":    api.ES5,
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"esnext": api.ESNext,
}

// ESBuild transpiles scripts in-process with esbuild's transform API. JSX
// compiles to React.createElement calls, so component dialects expect a
// global React.
type ESBuild struct{}

// NewESBuild creates the script transpiler.
func NewESBuild() *ESBuild {
	return &ESBuild{}
}

// Transpile implements ScriptTranspiler.
func (e *ESBuild) Transpile(ctx context.Context, src string, opts ScriptOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	target, ok := targets[strings.ToLower(opts.Target)]
	if !ok {
		target = api.ES2017
	}

	transformOpts := api.TransformOptions{
		Loader:   loaderFor(opts),
		Target:   target,
		LogLevel: api.LogLevelSilent,
	}
	if opts.Minify {
		transformOpts.MinifyWhitespace = true
		transformOpts.MinifySyntax = true
		transformOpts.LegalComments = api.LegalCommentsNone
	}

	result := api.Transform(src, transformOpts)
	if len(result.Errors) > 0 {
		return "", formatMessages(result.Errors)
	}

	code := string(result.Code)
	if !opts.Minify {
		code = keepLeadingComments(src, code)
	}
	return code, nil
}

// keepLeadingComments puts the comments that open src back in front of
// code. esbuild drops ordinary comments, so a comment-only script would
// otherwise compile to nothing. Comments esbuild kept itself are skipped.
func keepLeadingComments(src, code string) string {
	var kept []string
	for _, c := range leadingComments(src) {
		if !strings.Contains(code, c) {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return code
	}
	head := strings.Join(kept, "\n")
	if code == "" {
		return head + "\n"
	}
	return head + "\n" + code
}

// leadingComments returns the line and block comments before the first
// token of src, in order.
func leadingComments(src string) []string {
	var out []string
	rest := src
	for {
		rest = strings.TrimLeft(rest, " \t\r\n")
		switch {
		case strings.HasPrefix(rest, "//"):
			end := strings.IndexByte(rest, '\n')
			if end < 0 {
				end = len(rest)
			}
			out = append(out, strings.TrimRight(rest[:end], " \t\r"))
			rest = rest[end:]
		case strings.HasPrefix(rest, "/*"):
			end := strings.Index(rest[2:], "*/")
			if end < 0 {
				return out
			}
			end += 4
			out = append(out, rest[:end])
			rest = rest[end:]
		default:
			return out
		}
	}
}

func loaderFor(opts ScriptOptions) api.Loader {
	switch {
	case opts.Types && opts.Component:
		return api.LoaderTSX
	case opts.Types:
		return api.LoaderTS
	case opts.Component:
		return api.LoaderJSX
	default:
		return api.LoaderJS
	}
}

// formatMessages renders esbuild errors as "line:column: text", one per line.
func formatMessages(messages []api.Message) error {
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		if msg.Location != nil {
			lines = append(lines, fmt.Sprintf("%d:%d: %s", msg.Location.Line, msg.Location.Column, msg.Text))
		} else {
			lines = append(lines, msg.Text)
		}
	}
	return errors.New(strings.Join(lines, "\n"))
}
