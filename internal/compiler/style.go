package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/conneroisu/mobilcoder/internal/validation"
)

// styleCommands is the allowlist of external style engines.
var styleCommands = map[string]bool{
	"sass":  true,
	"lessc": true,
}

// process runs one external engine, feeding the source on stdin and
// reading css from stdout.
type process struct {
	name    string
	command string
	timeout time.Duration
	allowed map[string]bool
}

func (p *process) run(ctx context.Context, src string, args []string) (string, error) {
	if err := p.validate(args); err != nil {
		return "", fmt.Errorf("command validation failed: %w", err)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, p.command, args...)
	cmd.Stdin = strings.NewReader(src)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("%s compiler is not installed (%s not found on PATH)", p.name, p.command)
		}
		if ctx.Err() != nil {
			return "", fmt.Errorf("%s compile timed out: %w", p.name, ctx.Err())
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", errors.New(msg)
		}
		return "", fmt.Errorf("%s compile failed: %w", p.name, err)
	}

	return stdout.String(), nil
}

func (p *process) validate(args []string) error {
	if err := validation.ValidateCommand(p.command, p.allowed); err != nil {
		return err
	}
	for _, arg := range args {
		if err := validation.ValidateArgument(arg); err != nil {
			return fmt.Errorf("invalid argument '%s': %w", arg, err)
		}
	}
	return nil
}

// SassEngine compiles both sass syntaxes with the dart-sass executable. The
// Indented option picks between the indented and the block syntax.
type SassEngine struct {
	proc process
}

// NewSassEngine creates a sass engine running command with a per-call
// timeout. A zero timeout only honours the caller's context.
func NewSassEngine(command string, timeout time.Duration) *SassEngine {
	return &SassEngine{proc: process{name: "sass", command: command, timeout: timeout, allowed: styleCommands}}
}

// Compile implements StylePreprocessor.
func (s *SassEngine) Compile(ctx context.Context, src string, opts StyleOptions) (string, error) {
	args := []string{"--stdin", "--no-source-map"}
	if opts.Indented {
		args = append(args, "--indented")
	} else {
		args = append(args, "--no-indented")
	}
	if opts.Compress {
		args = append(args, "--style=compressed")
	} else {
		args = append(args, "--style=expanded")
	}
	return s.proc.run(ctx, src, args)
}

// LessEngine compiles less with the lessc executable.
type LessEngine struct {
	proc process
}

// NewLessEngine creates a less engine running command with a per-call
// timeout.
func NewLessEngine(command string, timeout time.Duration) *LessEngine {
	return &LessEngine{proc: process{name: "less", command: command, timeout: timeout, allowed: styleCommands}}
}

// Compile implements StylePreprocessor.
func (l *LessEngine) Compile(ctx context.Context, src string, opts StyleOptions) (string, error) {
	args := []string{"--no-color"}
	if opts.Compress {
		args = append(args, "--compress")
	}
	args = append(args, "-")
	return l.proc.run(ctx, src, args)
}
