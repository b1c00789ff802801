package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferUpdateCodeIsSilent(t *testing.T) {
	b := NewBuffer()
	fired := 0
	b.OnUpdate(func(string) { fired++ })

	b.UpdateCode("set by program")
	assert.Equal(t, "set by program", b.Code())
	assert.Equal(t, 0, fired)
}

func TestBufferEditNotifies(t *testing.T) {
	b := NewBuffer()
	var got []string
	b.OnUpdate(func(text string) { got = append(got, "first:"+text) })
	b.OnUpdate(func(text string) { got = append(got, "second:"+text) })

	assert.True(t, b.Edit("hello"))
	assert.Equal(t, []string{"first:hello", "second:hello"}, got)
	assert.Equal(t, "hello", b.Code())
}

func TestBufferListenerMayRegisterAnother(t *testing.T) {
	b := NewBuffer()
	b.OnUpdate(func(string) { b.OnUpdate(func(string) {}) })
	assert.NotPanics(t, func() { b.Edit("x") })
}

func TestBufferDestroy(t *testing.T) {
	b := NewBuffer()
	fired := 0
	b.OnUpdate(func(string) { fired++ })
	b.UpdateCode("before")

	b.Destroy()
	assert.True(t, b.Destroyed())
	assert.False(t, b.Edit("after"))
	b.UpdateCode("after")
	b.OnUpdate(func(string) { fired++ })

	assert.Equal(t, 0, fired)
	assert.Equal(t, "before", b.Code())
}

func TestBufferImplementsSurface(t *testing.T) {
	var _ Surface = NewBuffer()
}
