// Package editor provides the editing surface a project pane is bound to.
package editor

import "sync"

// Surface is the contract a project expects from a pane editor.
type Surface interface {
	// UpdateCode replaces the contents programmatically. Listeners are not
	// notified.
	UpdateCode(text string)
	// OnUpdate registers a listener fired on every user edit.
	OnUpdate(fn func(text string))
	// Destroy detaches all listeners and releases the surface.
	Destroy()
}

// Buffer is an in-process Surface. The server feeds user edits into it
// with Edit.
type Buffer struct {
	mu        sync.Mutex
	code      string
	listeners []func(string)
	destroyed bool
}

// NewBuffer creates an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// UpdateCode implements Surface.
func (b *Buffer) UpdateCode(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed {
		return
	}
	b.code = text
}

// OnUpdate implements Surface.
func (b *Buffer) OnUpdate(fn func(text string)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed || fn == nil {
		return
	}
	b.listeners = append(b.listeners, fn)
}

// Destroy implements Surface.
func (b *Buffer) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.destroyed = true
	b.listeners = nil
}

// Edit applies a user edit and notifies the listeners. It reports false
// when the buffer was already destroyed.
func (b *Buffer) Edit(text string) bool {
	b.mu.Lock()
	if b.destroyed {
		b.mu.Unlock()
		return false
	}
	b.code = text
	listeners := make([]func(string), len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.Unlock()

	for _, fn := range listeners {
		fn(text)
	}
	return true
}

// Code returns the current contents.
func (b *Buffer) Code() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.code
}

// Destroyed reports whether Destroy was called.
func (b *Buffer) Destroyed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.destroyed
}
