package secure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZero(t *testing.T) {
	b := []byte{1, 2, 3, 4, 5}
	Zero(b)
	assert.Equal(t, []byte{0, 0, 0, 0, 0}, b)
}

func TestZeroEmpty(t *testing.T) {
	var b []byte
	assert.NotPanics(t, func() { Zero(b) })
}

func TestZeroLarge(t *testing.T) {
	b := make([]byte, 64*1024)
	for i := range b {
		b[i] = byte(i)
	}
	Zero(b)
	for i, v := range b {
		if v != 0 {
			t.Fatalf("byte %d not zeroed: %d", i, v)
		}
	}
}

func TestZeroAll(t *testing.T) {
	a := []byte{1, 2, 3}
	b := []byte{4, 5, 6}
	ZeroAll(a, b)
	assert.Equal(t, []byte{0, 0, 0}, a)
	assert.Equal(t, []byte{0, 0, 0}, b)
}

func TestKeyMaterialBytesAndClose(t *testing.T) {
	original := []byte{0xAA, 0xBB, 0xCC, 0xDD}
	km := NewKeyMaterial(original)
	assert.Equal(t, original, km.Bytes())
	assert.Equal(t, 4, km.Len())
	assert.False(t, km.IsClosed())

	km.Close()
	assert.True(t, km.IsClosed())
	assert.Nil(t, km.Bytes())
	assert.Equal(t, 0, km.Len())

	// Original caller slice is untouched; only the internal copy is zeroed.
	assert.Equal(t, []byte{0xAA, 0xBB, 0xCC, 0xDD}, original)
}

func TestKeyMaterialCloseIdempotent(t *testing.T) {
	km := NewKeyMaterial([]byte{1, 2, 3})
	km.Close()
	assert.NotPanics(t, func() { km.Close() })
}

func TestKeyMaterialNilData(t *testing.T) {
	km := NewKeyMaterial(nil)
	assert.Equal(t, 0, km.Len())
	assert.NotPanics(t, func() { km.Close() })
}
