package imagefmt

import (
	"fmt"
	"io"
	"os"

	"iota-cli/internal/ioerr"
)

// Reader provides random-access reads over a package file: the header, the
// trailing tag and signature, and a sequential view of the ciphertext
// region. It holds one underlying file handle and does not cache.
type Reader struct {
	f    *os.File
	size int64

	header ImageHeader
	read   bool
}

// Open opens path and prepares it for header/ciphertext reads. The caller
// must call Close when done.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ioerr.NewFileError("open", path, ioerr.ErrNotFound)
		}
		return nil, ioerr.NewFileError("open", path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, ioerr.NewFileError("stat", path, err)
	}
	return &Reader{f: f, size: fi.Size()}, nil
}

// Close releases the underlying file handle.
func (r *Reader) Close() error { return r.f.Close() }

// Size returns the total file length.
func (r *Reader) Size() int64 { return r.size }

// ReadHeader reads exactly 52 bytes at offset 0 and validates the magic.
// It also returns ErrTruncated when the file is shorter than the header's
// MinFileSize; other fields are not validated.
func (r *Reader) ReadHeader() (ImageHeader, error) {
	buf := make([]byte, HeaderSize)
	if _, err := r.f.ReadAt(buf, 0); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return ImageHeader{}, ErrTruncated
		}
		return ImageHeader{}, fmt.Errorf("imagefmt: read header: %w", err)
	}
	h, err := Decode(buf)
	if err != nil {
		return ImageHeader{}, err
	}
	if r.size < h.MinFileSize() {
		return ImageHeader{}, ErrTruncated
	}
	r.header = h
	r.read = true
	return h, nil
}

// ReadTag reads the 16-byte GCM tag ending at absolute offset
// 52 + header.Size.
func (r *Reader) ReadTag() ([TagSize]byte, error) {
	var tag [TagSize]byte
	if !r.read {
		return tag, fmt.Errorf("imagefmt: ReadTag before ReadHeader")
	}
	buf := make([]byte, TagSize)
	if _, err := r.f.ReadAt(buf, r.header.TagOffset()); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return tag, ErrTruncated
		}
		return tag, fmt.Errorf("imagefmt: read tag: %w", err)
	}
	copy(tag[:], buf)
	return tag, nil
}

// ReadSignature reads the last 256 bytes of the file.
func (r *Reader) ReadSignature() ([SignatureSize]byte, error) {
	var sig [SignatureSize]byte
	buf := make([]byte, SignatureSize)
	if _, err := r.f.ReadAt(buf, r.size-SignatureSize); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return sig, ErrTruncated
		}
		return sig, fmt.Errorf("imagefmt: read signature: %w", err)
	}
	copy(sig[:], buf)
	return sig, nil
}

// SignedRegionRange returns the byte range [start, end) covered by the
// signature: the header and the full ciphertext region, excluding the
// trailing signature itself.
func (r *Reader) SignedRegionRange() (start, end int64) {
	return 0, r.header.SignedRegionEnd()
}

// CiphertextStream returns a sequential reader over the ciphertext region,
// starting at offset 52, for header.Size - 16 bytes (the tag is excluded;
// fetch it separately via ReadTag).
func (r *Reader) CiphertextStream() io.Reader {
	return io.NewSectionReader(r.f, HeaderSize, r.header.PlaintextLen())
}

// SignedRegionReader returns a sequential reader over the full signed
// region [0, 52+header.Size), for streaming signature verification.
func (r *Reader) SignedRegionReader() io.Reader {
	start, end := r.SignedRegionRange()
	return io.NewSectionReader(r.f, start, end-start)
}
