// Package installer extracts the decrypted firmware tarball into a target
// directory: either the running root filesystem (in-place upgrade) or the
// inactive slot's mount point. Grounded on the teacher's fileops.Unpack,
// adapted from zip to tar, with compression auto-detection, reserved-path
// filtering, and escape-path rejection the spec adds on top.
package installer

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"iota-cli/internal/applog"
	"iota-cli/internal/ioerr"
	"iota-cli/internal/util"
)

// reservedPrefixes are leading path segments that must never be written to,
// even if present in the archive: they are live runtime mount points on the
// target the installer must not disturb.
var reservedPrefixes = []string{"proc", "sys", "dev", "run", "tmp", "mnt", "media"}

// ProgressFunc reports cumulative bytes written against the total computed
// in pass 1.
type ProgressFunc func(step string, done, total int64)

// CancelFunc reports whether the caller requested cancellation.
type CancelFunc func() bool

// Options configures a single extraction run.
type Options struct {
	TarPath   string // path to the (possibly compressed) tar container
	TargetDir string // base directory entries are written into
	Progress  ProgressFunc
	Cancel    CancelFunc
}

// Install performs the two-pass extraction described in 4.4: pass one sums
// declared entry sizes for progress, pass two extracts.
func Install(opts Options) error {
	total, err := sumSizes(opts.TarPath)
	if err != nil {
		return err
	}
	return extract(opts, total)
}

func openTarStream(path string) (io.ReadCloser, io.Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, ioerr.NewFileError("open", path, err)
	}
	wrapped, err := detectAndWrap(f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return f, wrapped, nil
}

func sumSizes(tarPath string) (int64, error) {
	f, wrapped, err := openTarStream(tarPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	tr := tar.NewReader(wrapped)
	var total int64
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("installer: read tar header: %w", err)
		}
		if hdr.Typeflag == tar.TypeReg {
			total += hdr.Size
		}
	}
	return total, nil
}

// normalizeEntry cleans a tar entry's path and rejects it with an
// UnsafePath error if it is absolute or escapes the target root. It returns
// the cleaned relative path (never containing a leading slash or ".." after
// Clean); the reserved-prefix check is left to isReserved.
func normalizeEntry(name string) (rel string, err error) {
	rel = filepath.Clean(strings.TrimPrefix(name, "/"))
	if rel == "." {
		return "", nil
	}
	if rel == ".." || strings.HasPrefix(rel, "../") || filepath.IsAbs(name) {
		return "", ioerr.NewPathError(name)
	}
	return rel, nil
}

func isReserved(rel string) bool {
	first := rel
	if idx := strings.IndexByte(rel, filepath.Separator); idx >= 0 {
		first = rel[:idx]
	}
	for _, prefix := range reservedPrefixes {
		if first == prefix {
			return true
		}
	}
	return false
}

func extract(opts Options, total int64) error {
	f, wrapped, err := openTarStream(opts.TarPath)
	if err != nil {
		return err
	}
	defer f.Close()

	tr := tar.NewReader(wrapped)
	buf := util.GetMiBBuffer()
	defer util.PutMiBBuffer(buf)
	start := time.Now()
	var done int64

	for {
		if opts.Cancel != nil && opts.Cancel() {
			return ioerr.ErrCancelled
		}

		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("installer: read tar header: %w", err)
		}

		rel, err := normalizeEntry(hdr.Name)
		if err != nil {
			return err
		}
		if rel == "" || isReserved(rel) {
			continue
		}

		outPath := filepath.Join(opts.TargetDir, rel)
		if err := extractEntry(tr, hdr, outPath); err != nil {
			return err
		}

		if hdr.Typeflag == tar.TypeReg {
			written, err := copyWithProgress(tr, outPath, hdr.Size, buf)
			if err != nil {
				return err
			}
			done += written
			if opts.Progress != nil {
				opts.Progress("Unpacking&Installing", done, total)
			}
		}

		if err := restoreAttrs(outPath, hdr); err != nil {
			applog.Warn("failed to restore archive entry attributes",
				applog.String("path", outPath), applog.Err(err))
		}

		frac, speed, eta := util.Statify(done, total, start)
		applog.Debug("extract progress",
			applog.Float64("fraction", float64(frac)),
			applog.Float64("speed_mib_s", speed),
			applog.String("eta", eta))
	}
	return nil
}

// extractEntry creates the filesystem object named by hdr at outPath,
// except for regular files' contents, which copyWithProgress streams
// separately. Progress is reported once per regular file, after all of its
// data has been written, not after each data block.
func extractEntry(tr *tar.Reader, hdr *tar.Header, outPath string) error {
	switch hdr.Typeflag {
	case tar.TypeDir:
		return os.MkdirAll(outPath, os.FileMode(hdr.Mode&0o7777))
	case tar.TypeReg:
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return ioerr.NewFileError("mkdir", filepath.Dir(outPath), err)
		}
		f, err := os.OpenFile(outPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode&0o7777))
		if err != nil {
			return ioerr.NewFileError("create", outPath, err)
		}
		return f.Close() // reopened by copyWithProgress for the streaming write
	case tar.TypeSymlink:
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return ioerr.NewFileError("mkdir", filepath.Dir(outPath), err)
		}
		_ = os.Remove(outPath)
		if err := os.Symlink(hdr.Linkname, outPath); err != nil {
			return ioerr.NewFileError("symlink", outPath, err)
		}
		return nil
	case tar.TypeLink:
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return ioerr.NewFileError("mkdir", filepath.Dir(outPath), err)
		}
		// Linkname is relative to the archive root, like hdr.Name.
		linkRel, err := normalizeEntry(hdr.Linkname)
		if err != nil {
			return err
		}
		root := strings.TrimSuffix(outPath, filepath.Clean(strings.TrimPrefix(hdr.Name, "/")))
		target := filepath.Join(root, linkRel)
		_ = os.Remove(outPath)
		if err := os.Link(target, outPath); err != nil {
			return ioerr.NewFileError("link", outPath, err)
		}
		return nil
	default:
		// Device nodes, FIFOs, and other special types have no analog in a
		// firmware payload; skip silently rather than fail the install.
		return nil
	}
}

func copyWithProgress(r io.Reader, outPath string, size int64, buf []byte) (int64, error) {
	f, err := os.OpenFile(outPath, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return 0, ioerr.NewFileError("open", outPath, err)
	}
	defer f.Close()

	written, err := io.CopyBuffer(f, io.LimitReader(r, size), buf)
	if err != nil {
		return written, ioerr.NewFileError("write", outPath, err)
	}
	return written, nil
}
