// Package aead implements a bounded-memory streaming AES-128-GCM decryptor.
//
// The standard library's crypto/cipher.GCM requires the entire ciphertext
// in memory before it will release any plaintext, which rules it out for a
// device with constrained RAM decrypting a multi-hundred-megabyte firmware
// payload. This package instead exposes an incremental Decryptor that
// consumes ciphertext one caller-sized chunk at a time, writes the
// corresponding plaintext immediately, and defers the GCM tag comparison
// until Finalize — following the same split (streaming Next/Finalize,
// tag checked only once at the end) as other from-scratch streaming-GCM
// implementations, built here directly on crypto/aes and a GF(2^128)
// multiply rather than a borrowed GCM internals package.
package aead

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/subtle"
	"fmt"

	"iota-cli/internal/ioerr"
)

// ErrAuthenticationFailed is returned by Finalize when the computed GCM
// tag does not match the tag supplied by the caller.
var ErrAuthenticationFailed = ioerr.NewCryptoError("gcm-decrypt", ioerr.ErrAuthenticationFailed)

const (
	KeySize   = 16 // AES-128
	NonceSize = 12 // standard GCM nonce size
	TagSize   = 16
	blockSize = 16
)

// reductionByte is the high byte of the GCM reduction polynomial
// R = 0xE1 || 0^120, used when a 1-bit right shift of the accumulator
// carries out of the low bit.
const reductionByte = 0xE1

// Decryptor performs streaming AES-128-GCM decryption with a 12-byte nonce
// and no associated data (the package format carries none). Ciphertext is
// fed via Update in arbitrary-sized chunks; plaintext for each completed
// 16-byte block is appended to the caller-supplied dst slice as soon as the
// block is available. The authentication tag is verified only in
// Finalize, once the full ciphertext length declared by the header has
// been consumed.
type Decryptor struct {
	block   cipher.Block
	h       [blockSize]byte // hash subkey: E(K, 0^128)
	y       [blockSize]byte // GHASH accumulator
	ctr     [blockSize]byte // next counter block for keystream generation
	tagMask [blockSize]byte // E(K, J0), XORed into the final tag
	ctLen   uint64          // ciphertext bytes processed so far
	buf     []byte          // ciphertext bytes not yet forming a full block
	skipTag bool
}

// NewDecryptor creates a Decryptor for a 16-byte AES-128 key. skipTag
// bypasses the Finalize tag comparison; callers MUST treat that as a
// testing-only affordance and warn accordingly (see verify.WarnSkipped for
// the analogous signature-verification flag).
func NewDecryptor(key []byte, skipTag bool) (*Decryptor, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("aead: key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aead: %w", err)
	}
	d := &Decryptor{block: block, skipTag: skipTag}
	block.Encrypt(d.h[:], d.h[:]) // h = E(K, 0^128); d.h starts zeroed
	return d, nil
}

// Reset prepares the Decryptor for a new stream under the given 12-byte
// nonce, discarding any state from a prior Reset/Update/Finalize sequence.
func (d *Decryptor) Reset(nonce []byte) error {
	if len(nonce) != NonceSize {
		return fmt.Errorf("aead: nonce must be %d bytes, got %d", NonceSize, len(nonce))
	}
	var j0 [blockSize]byte
	copy(j0[:NonceSize], nonce)
	j0[15] = 1

	d.block.Encrypt(d.tagMask[:], j0[:])
	d.ctr = j0
	incCounter(&d.ctr)

	d.y = [blockSize]byte{}
	d.ctLen = 0
	d.buf = d.buf[:0]
	return nil
}

// Update decrypts as many complete 16-byte ciphertext blocks as are
// available across src plus any buffered remainder from a prior call,
// appends the resulting plaintext to dst, and returns the updated slice.
// Bytes that do not yet form a full block are retained internally for the
// next call (or for Finalize, if this was the last chunk).
func (d *Decryptor) Update(dst, src []byte) []byte {
	d.buf = append(d.buf, src...)
	d.ctLen += uint64(len(src))

	n := (len(d.buf) / blockSize) * blockSize
	if n == 0 {
		return dst
	}

	full := d.buf[:n]
	d.ghashBlocks(full)
	dst = append(dst, d.decryptBlocks(full)...)
	d.buf = append(d.buf[:0], d.buf[n:]...)
	return dst
}

// Finalize processes any remaining buffered ciphertext (fewer than 16
// bytes), appends the resulting plaintext to dst, computes the GCM tag
// over the full ciphertext seen since Reset, and compares it in constant
// time against tag. On mismatch it returns ErrAuthenticationFailed-wrapped
// error and the caller MUST discard dst's output as untrusted, per the
// package contract.
func (d *Decryptor) Finalize(dst []byte, tag [TagSize]byte) ([]byte, error) {
	if len(d.buf) > 0 {
		d.ghashPartial(d.buf)
		dst = append(dst, d.decryptPartial(d.buf)...)
		d.buf = d.buf[:0]
	}

	computed := d.computeTag()
	if d.skipTag {
		return dst, nil
	}
	if subtle.ConstantTimeCompare(computed[:], tag[:]) != 1 {
		return dst, ErrAuthenticationFailed
	}
	return dst, nil
}

func (d *Decryptor) decryptBlocks(ct []byte) []byte {
	pt := make([]byte, len(ct))
	var ks [blockSize]byte
	for off := 0; off < len(ct); off += blockSize {
		d.block.Encrypt(ks[:], d.ctr[:])
		incCounter(&d.ctr)
		xorInto(pt[off:off+blockSize], ct[off:off+blockSize], ks[:])
	}
	return pt
}

func (d *Decryptor) decryptPartial(ct []byte) []byte {
	var ks [blockSize]byte
	d.block.Encrypt(ks[:], d.ctr[:])
	incCounter(&d.ctr)
	pt := make([]byte, len(ct))
	xorInto(pt, ct, ks[:len(ct)])
	return pt
}

func (d *Decryptor) ghashBlocks(ct []byte) {
	var block [blockSize]byte
	for off := 0; off < len(ct); off += blockSize {
		copy(block[:], ct[off:off+blockSize])
		xorBlock(&d.y, &block)
		d.y = gfMul(d.y, d.h)
	}
}

func (d *Decryptor) ghashPartial(ct []byte) {
	var block [blockSize]byte
	copy(block[:], ct) // zero-padded to a full block, per GHASH
	xorBlock(&d.y, &block)
	d.y = gfMul(d.y, d.h)
}

// computeTag finalizes GHASH with the length block (bit-lengths of the
// associated data, always zero for this format, and the ciphertext) and
// XORs in the tag mask derived from J0 in Reset.
func (d *Decryptor) computeTag() [blockSize]byte {
	var lenBlock [blockSize]byte
	putUint64BE(lenBlock[8:], d.ctLen*8) // AAD length (0) occupies the first 8 bytes
	xorBlock(&d.y, &lenBlock)
	d.y = gfMul(d.y, d.h)

	var tag [blockSize]byte
	xorInto(tag[:], d.y[:], d.tagMask[:])
	return tag
}

func incCounter(ctr *[blockSize]byte) {
	for i := blockSize - 1; i >= blockSize-4; i-- {
		ctr[i]++
		if ctr[i] != 0 {
			break
		}
	}
}

func xorInto(dst, a, b []byte) {
	for i := range dst {
		dst[i] = a[i] ^ b[i]
	}
}

func xorBlock(dst, src *[blockSize]byte) {
	for i := range dst {
		dst[i] ^= src[i]
	}
}

func putUint64BE(b []byte, v uint64) {
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
}

// gfMul multiplies two elements of GF(2^128) under the GCM reduction
// polynomial, using the textbook shift-and-xor algorithm (no precomputed
// tables). The hot path here is decrypting firmware images on boot, not a
// throughput-critical TLS record stream, so the simpler implementation is
// the right tradeoff.
func gfMul(x, y [blockSize]byte) [blockSize]byte {
	var z, v [blockSize]byte
	copy(v[:], y[:])

	for i := 0; i < 128; i++ {
		byteIdx := i / 8
		bitIdx := 7 - uint(i%8)
		if (x[byteIdx]>>bitIdx)&1 == 1 {
			xorBlock(&z, &v)
		}

		lsb := v[15] & 1
		shiftRight1(&v)
		if lsb == 1 {
			v[0] ^= reductionByte
		}
	}
	return z
}

func shiftRight1(v *[blockSize]byte) {
	var carry byte
	for i := 0; i < blockSize; i++ {
		next := v[i] & 1
		v[i] = (v[i] >> 1) | (carry << 7)
		carry = next
	}
}
