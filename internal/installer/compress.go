package installer

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/ulikunitz/xz"
)

var (
	gzipMagic  = []byte{0x1f, 0x8b}
	bzip2Magic = []byte{'B', 'Z', 'h'}
	xzMagic    = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
)

// detectAndWrap sniffs the magic bytes of r and, if it recognizes a
// compression container, returns a reader that decompresses on the fly.
// Otherwise it returns r unchanged (treated as a plain tar stream). The
// returned reader always starts from the beginning of the stream — the
// peeked bytes are pushed back via a buffered reader.
func detectAndWrap(r io.Reader) (io.Reader, error) {
	br := bufio.NewReaderSize(r, 512)
	peek, err := br.Peek(6)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("installer: peek compression magic: %w", err)
	}

	switch {
	case bytes.HasPrefix(peek, gzipMagic):
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("installer: open gzip stream: %w", err)
		}
		return gz, nil
	case bytes.HasPrefix(peek, bzip2Magic):
		return bzip2.NewReader(br), nil
	case bytes.HasPrefix(peek, xzMagic):
		xr, err := xz.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("installer: open xz stream: %w", err)
		}
		return xr, nil
	default:
		return br, nil
	}
}
