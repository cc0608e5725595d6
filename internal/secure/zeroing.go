// Package secure provides memory-zeroing utilities for key material used by
// the upgrade pipeline, chiefly the AES-128 key. Adapted from the teacher's
// key-zeroing helpers; KeyMaterial here carries only what this pipeline's
// CryptoMaterial needs (a single AES key), not a multi-cipher-suite context.
package secure

import "crypto/subtle"

// Zero overwrites a byte slice with zeros to prevent sensitive data from
// persisting in memory. This helps mitigate memory-dump attacks and reduces
// the window during which keys are recoverable from RAM.
//
// Due to Go's garbage collector and potential compiler optimizations, this
// function cannot guarantee complete erasure, but it is far better than
// letting the backing array get reused with the key still in it. The
// constant-time copy from a zero slice prevents the compiler from optimizing
// the zeroing away as a dead store.
func Zero(b []byte) {
	if len(b) == 0 {
		return
	}
	zeros := make([]byte, len(b))
	subtle.ConstantTimeCopy(1, b, zeros)
}

// ZeroAll zeros multiple byte slices in a single call.
func ZeroAll(slices ...[]byte) {
	for _, s := range slices {
		Zero(s)
	}
}

// KeyMaterial wraps sensitive key data with automatic zeroing on Close().
//
// Example:
//
//	km := secure.NewKeyMaterial(aesKey)
//	defer km.Close()
//	// ... use km.Bytes() ...
type KeyMaterial struct {
	data   []byte
	closed bool
}

// NewKeyMaterial creates a new KeyMaterial wrapper. The data is copied so
// the caller's original slice is unaffected by a later Close().
func NewKeyMaterial(data []byte) *KeyMaterial {
	if data == nil {
		return &KeyMaterial{}
	}
	copied := make([]byte, len(data))
	copy(copied, data)
	return &KeyMaterial{data: copied}
}

// Bytes returns the underlying key data, or nil if Close has been called.
func (km *KeyMaterial) Bytes() []byte {
	if km.closed {
		return nil
	}
	return km.data
}

// Len returns the length of the key data.
func (km *KeyMaterial) Len() int {
	if km.closed || km.data == nil {
		return 0
	}
	return len(km.data)
}

// Close securely zeros the key data and marks it closed. Idempotent.
func (km *KeyMaterial) Close() {
	if km.closed || km.data == nil {
		return
	}
	Zero(km.data)
	km.data = nil
	km.closed = true
}

// IsClosed returns whether the KeyMaterial has been closed.
func (km *KeyMaterial) IsClosed() bool {
	return km.closed
}
