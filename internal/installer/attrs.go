package installer

import (
	"archive/tar"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// restoreAttrs applies the metadata the spec requires to be preserved:
// modification time, permission bits, ownership, and any POSIX ACL/xattr
// entries the archive carried in its PAX records. Ownership and xattrs are
// best-effort — a device root filesystem extraction runs privileged, but a
// test run typically does not, and losing ownership fidelity in that case
// is not fatal to the extraction itself.
func restoreAttrs(path string, hdr *tar.Header) error {
	if hdr.Typeflag == tar.TypeSymlink {
		return restoreSymlinkAttrs(path, hdr)
	}

	if err := os.Chmod(path, os.FileMode(hdr.Mode&0o7777)); err != nil {
		return err
	}

	if err := unix.Chown(path, hdr.Uid, hdr.Gid); err != nil && !os.IsPermission(err) {
		// Ignore EPERM (unprivileged test runs); surface anything else.
		if err != unix.EPERM {
			return err
		}
	}

	restoreXattrs(path, hdr)

	mtime := hdr.ModTime
	if mtime.IsZero() {
		mtime = time.Now()
	}
	return os.Chtimes(path, mtime, mtime)
}

func restoreSymlinkAttrs(path string, hdr *tar.Header) error {
	if err := unix.Lchown(path, hdr.Uid, hdr.Gid); err != nil && err != unix.EPERM {
		return err
	}
	return nil
}

// restoreXattrs applies any extended attributes captured in the tar
// entry's PAX records under the SCHILY.xattr namespace, which is how GNU
// and BSD tar encode POSIX ACLs and other xattrs. Failures are logged by
// the caller via restoreAttrs' return value only for the chmod/chown path;
// individual xattr failures are tolerated since not every target
// filesystem supports every attribute namespace.
func restoreXattrs(path string, hdr *tar.Header) {
	const xattrPrefix = "SCHILY.xattr."
	for key, value := range hdr.PAXRecords {
		if len(key) <= len(xattrPrefix) || key[:len(xattrPrefix)] != xattrPrefix {
			continue
		}
		name := key[len(xattrPrefix):]
		_ = unix.Setxattr(path, name, []byte(value), 0)
	}
}
