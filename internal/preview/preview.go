// Package preview drives the live preview: it renders the sandbox compile
// of a project into the frame slot and tells the host page about it.
package preview

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/conneroisu/mobilcoder/internal/build"
	"github.com/conneroisu/mobilcoder/internal/errors"
	"github.com/conneroisu/mobilcoder/internal/logging"
)

// BlankDocument is what the frame shows after a reset.
const BlankDocument = "<!DOCTYPE html><html><head></head><body></body></html>"

// Frame holds the document currently shown in the embedded frame.
type Frame struct {
	mu       sync.RWMutex
	doc      string
	revision uint64
}

// NewFrame creates a frame showing the blank document.
func NewFrame() *Frame {
	return &Frame{doc: BlankDocument}
}

// Reset replaces the document with the blank one.
func (f *Frame) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.doc = BlankDocument
}

// Write installs doc and returns the new revision.
func (f *Frame) Write(doc string) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.doc = doc
	f.revision++
	return f.revision
}

// Document returns the current document and its revision.
func (f *Frame) Document() (string, uint64) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.doc, f.revision
}

// Host is the page around the frame.
type Host interface {
	SetTitle(title string)
	ClearFeedback()
	// Reload tells the page that the frame has a new revision
	Reload(revision uint64)
}

type nopHost struct{}

func (nopHost) SetTitle(string) {}
func (nopHost) ClearFeedback()  {}
func (nopHost) Reload(uint64)   {}

// Source is anything that can produce a sandbox compile.
type Source interface {
	Name() string
	Sandbox(ctx context.Context) (*build.Sandboxed, error)
}

// Outcome describes one render request.
type Outcome struct {
	RequestID string `json:"request_id"`
	// Stale is set when a newer request was issued while this one compiled.
	// A stale outcome changed nothing.
	Stale       bool                       `json:"stale"`
	Revision    uint64                     `json:"revision"`
	Title       string                     `json:"title"`
	Diagnostics []errors.CompileDiagnostic `json:"diagnostics"`
	Duration    time.Duration              `json:"duration"`
}

// Renderer renders sources into a frame. When several renders overlap,
// only the most recently requested one is applied.
type Renderer struct {
	frame    *Frame
	host     Host
	logger   logging.Logger
	debounce time.Duration

	tickets atomic.Uint64

	applyMu sync.Mutex

	timerMu sync.Mutex
	timer   *time.Timer
	pending Source
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithHost sets the host page.
func WithHost(host Host) Option {
	return func(r *Renderer) {
		if host != nil {
			r.host = host
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithDebounce delays scheduled renders until edits pause for d.
func WithDebounce(d time.Duration) Option {
	return func(r *Renderer) {
		r.debounce = d
	}
}

// NewRenderer creates a renderer writing into frame.
func NewRenderer(frame *Frame, opts ...Option) *Renderer {
	r := &Renderer{
		frame:  frame,
		host:   nopHost{},
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.WithComponent("preview")
	return r
}

// Frame returns the frame the renderer writes into.
func (r *Renderer) Frame() *Frame {
	return r.frame
}

// Render compiles src and shows the result: the host title is set, the
// feedback panel cleared, and the frame reset and rewritten. The result is
// dropped when another render was requested in the meantime.
func (r *Renderer) Render(ctx context.Context, src Source) (*Outcome, error) {
	ticket := r.tickets.Add(1)
	out := &Outcome{RequestID: uuid.NewString()}

	sb, err := src.Sandbox(ctx)
	if err != nil {
		return nil, err
	}
	out.Title = sb.Title
	out.Diagnostics = sb.Diagnostics
	out.Duration = sb.Duration

	r.applyMu.Lock()
	defer r.applyMu.Unlock()

	if ticket != r.tickets.Load() {
		out.Stale = true
		r.logger.Debug(ctx, "Dropping stale render",
			"project", src.Name(),
			"request_id", out.RequestID,
			"ticket", ticket)
		return out, nil
	}

	r.host.SetTitle(sb.Title)
	r.host.ClearFeedback()
	r.frame.Reset()
	out.Revision = r.frame.Write(sb.HTML)
	r.host.Reload(out.Revision)

	r.logger.Debug(ctx, "Preview rendered",
		"project", src.Name(),
		"request_id", out.RequestID,
		"revision", out.Revision,
		"failed_panes", len(sb.Diagnostics))
	return out, nil
}

// Schedule renders src once edits pause for the debounce interval. Without
// a debounce interval it renders right away in the background.
func (r *Renderer) Schedule(src Source) {
	r.timerMu.Lock()
	defer r.timerMu.Unlock()

	r.pending = src
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.debounce, r.flush)
}

func (r *Renderer) flush() {
	r.timerMu.Lock()
	src := r.pending
	r.pending = nil
	r.timer = nil
	r.timerMu.Unlock()

	if src == nil {
		return
	}
	ctx := context.Background()
	if _, err := r.Render(ctx, src); err != nil {
		r.logger.Error(ctx, err, "Scheduled render failed", "project", src.Name())
	}
}

// Stop cancels a pending scheduled render.
func (r *Renderer) Stop() {
	r.timerMu.Lock()
	defer r.timerMu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.pending = nil
}
