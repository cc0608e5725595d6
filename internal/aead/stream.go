package aead

import (
	"io"

	"iota-cli/internal/applog"
	"iota-cli/internal/imagefmt"
	"iota-cli/internal/ioerr"
	"iota-cli/internal/util"
)

// DefaultStreamCount is the chunk size used to decrypt the ciphertext
// region when the caller does not override it.
const DefaultStreamCount = 4096

// ProgressFunc is invoked after every chunk is decrypted and written, with
// the cumulative plaintext byte count and the total expected.
type ProgressFunc func(done, total int64)

// DecryptStream decrypts exactly plaintextLen bytes read from ciphertext,
// writing plaintext to out as each chunk is produced, then verifies tag.
// A short read from ciphertext (fewer bytes than plaintextLen) is reported
// as imagefmt.ErrTruncated; the caller must treat any output already
// written as untrue and discard it, per the streaming-decryptor contract.
func DecryptStream(key, iv []byte, ciphertext io.Reader, plaintextLen int64, out io.Writer, tag [TagSize]byte, streamCount int, skipTag bool, progress ProgressFunc) error {
	if streamCount <= 0 {
		streamCount = DefaultStreamCount
	}

	dec, err := NewDecryptor(key, skipTag)
	if err != nil {
		return err
	}
	if err := dec.Reset(iv); err != nil {
		return err
	}
	if skipTag {
		applog.Warn("GCM tag verification skipped", applog.Bool("skip_auth_tag", true))
	}

	var chunk []byte
	if streamCount == util.SmallBufSize {
		chunk = util.GetSmallBuffer()
		defer util.PutSmallBuffer(chunk)
	} else {
		chunk = make([]byte, streamCount)
	}
	var done int64
	var plain []byte

	for done < plaintextLen {
		want := streamCount
		if remaining := plaintextLen - done; remaining < int64(want) {
			want = int(remaining)
		}
		n, err := io.ReadFull(ciphertext, chunk[:want])
		if err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return imagefmt.ErrTruncated
			}
			return ioerr.NewFileError("read", "ciphertext", err)
		}

		plain = dec.Update(plain[:0], chunk[:n])
		if len(plain) > 0 {
			if _, err := out.Write(plain); err != nil {
				return ioerr.NewFileError("write", "plaintext", err)
			}
		}

		done += int64(n)
		if progress != nil {
			progress(done, plaintextLen)
		}
	}

	plain, err = dec.Finalize(plain[:0], tag)
	if len(plain) > 0 {
		if _, werr := out.Write(plain); werr != nil {
			return ioerr.NewFileError("write", "plaintext", werr)
		}
	}
	return err
}
