package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingSink struct {
	progressCalls []string
	messages      []string
	errors        []string
}

func (r *recordingSink) Progress(step string, current, total int64) {
	r.progressCalls = append(r.progressCalls, step)
}
func (r *recordingSink) Message(text string)      { r.messages = append(r.messages, text) }
func (r *recordingSink) Error(code int32, text string) { r.errors = append(r.errors, text) }

func TestMultiSinkFansOut(t *testing.T) {
	a := &recordingSink{}
	b := &recordingSink{}
	m := NewMultiSink(a, nil, b)

	m.Progress("Decrypting", 50, 100)
	m.Message("hello")
	m.Error(1, "boom")

	assert.Equal(t, []string{"Decrypting"}, a.progressCalls)
	assert.Equal(t, []string{"Decrypting"}, b.progressCalls)
	assert.Equal(t, []string{"hello"}, a.messages)
	assert.Equal(t, []string{"boom"}, a.errors)
}

func TestPercentOf(t *testing.T) {
	assert.Equal(t, 50, percentOf(50, 100))
	assert.Equal(t, 0, percentOf(0, 0))
	assert.Equal(t, 100, percentOf(150, 100))
}

func TestNewMultiSinkDropsNil(t *testing.T) {
	m := NewMultiSink(nil, nil)
	assert.NotPanics(t, func() { m.Progress("x", 1, 2) })
}
