// Package imagefmt parses and validates the upgrade-package container
// format: a fixed-size header, an AES-GCM ciphertext region, and a trailing
// RSA signature over everything but the signature itself.
package imagefmt

import (
	"encoding/binary"
	"errors"
)

// Field sizes, in bytes, of the fixed-layout ImageHeader at file offset 0.
const (
	MagicSize    = 4
	DatetimeSize = 20
	SizeFieldLen = 4
	IVSize       = 12
	ReservedSize = 12

	HeaderSize = MagicSize + DatetimeSize + SizeFieldLen + IVSize + ReservedSize // 52

	TagSize       = 16
	SignatureSize = 256
)

// Magic is the required 4-byte identifier at the start of every package.
var Magic = [MagicSize]byte{'I', 'O', 'T', 'A'}

// ErrBadMagic indicates the header's magic bytes do not match Magic.
var ErrBadMagic = errors.New("imagefmt: bad magic")

// ErrTruncated indicates the file is shorter than the header declares.
var ErrTruncated = errors.New("imagefmt: truncated package")

// ImageHeader is the fixed 52-byte little-endian record at file offset 0.
type ImageHeader struct {
	Magic    [MagicSize]byte
	Datetime [DatetimeSize]byte
	Size     uint32 // length of the AEAD ciphertext region, tag included
	IV       [IVSize]byte
	Reserved [ReservedSize]byte
}

// Decode parses a 52-byte buffer into an ImageHeader. It validates only the
// magic; other fields are range-checked by the caller against file size.
func Decode(buf []byte) (ImageHeader, error) {
	var h ImageHeader
	if len(buf) != HeaderSize {
		return h, ErrTruncated
	}
	copy(h.Magic[:], buf[0:MagicSize])
	copy(h.Datetime[:], buf[MagicSize:MagicSize+DatetimeSize])
	h.Size = binary.LittleEndian.Uint32(buf[MagicSize+DatetimeSize : MagicSize+DatetimeSize+SizeFieldLen])
	copy(h.IV[:], buf[MagicSize+DatetimeSize+SizeFieldLen:MagicSize+DatetimeSize+SizeFieldLen+IVSize])
	copy(h.Reserved[:], buf[HeaderSize-ReservedSize:HeaderSize])
	if h.Magic != Magic {
		return h, ErrBadMagic
	}
	return h, nil
}

// Encode serializes an ImageHeader to its 52-byte wire form. Reserved bytes
// are always written as zero regardless of the struct's Reserved field.
func Encode(h ImageHeader) []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:MagicSize], Magic[:])
	copy(buf[MagicSize:MagicSize+DatetimeSize], h.Datetime[:])
	binary.LittleEndian.PutUint32(buf[MagicSize+DatetimeSize:MagicSize+DatetimeSize+SizeFieldLen], h.Size)
	copy(buf[MagicSize+DatetimeSize+SizeFieldLen:MagicSize+DatetimeSize+SizeFieldLen+IVSize], h.IV[:])
	return buf
}

// CiphertextLen returns the number of plaintext+tag bytes in the ciphertext
// region, i.e. header.Size.
func (h ImageHeader) CiphertextLen() int64 { return int64(h.Size) }

// PlaintextLen returns the number of bytes of plaintext produced by
// decrypting the ciphertext region (ciphertext length minus the GCM tag).
func (h ImageHeader) PlaintextLen() int64 { return int64(h.Size) - TagSize }

// TagOffset returns the absolute file offset of the first byte of the
// 16-byte GCM tag.
func (h ImageHeader) TagOffset() int64 { return HeaderSize + h.PlaintextLen() }

// SignedRegionEnd returns the absolute end offset (exclusive) of the region
// covered by the signature: the header plus the full ciphertext region.
func (h ImageHeader) SignedRegionEnd() int64 { return HeaderSize + h.CiphertextLen() }

// MinFileSize returns the minimum total file length implied by this header:
// header + ciphertext + trailing signature.
func (h ImageHeader) MinFileSize() int64 { return h.SignedRegionEnd() + SignatureSize }
