package installer

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTestTar(t *testing.T, gzipped bool, entries map[string]string) string {
	t.Helper()
	var raw bytes.Buffer
	tw := tar.NewWriter(&raw)
	for name, content := range entries {
		hdr := &tar.Header{
			Name: name,
			Mode: 0o644,
			Size: int64(len(content)),
		}
		require.NoError(t, tw.WriteHeader(hdr))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())

	path := filepath.Join(t.TempDir(), "payload.tar")
	var out []byte
	if gzipped {
		var gzBuf bytes.Buffer
		gz := gzip.NewWriter(&gzBuf)
		_, err := gz.Write(raw.Bytes())
		require.NoError(t, err)
		require.NoError(t, gz.Close())
		out = gzBuf.Bytes()
		path += ".gz"
	} else {
		out = raw.Bytes()
	}
	require.NoError(t, os.WriteFile(path, out, 0o644))
	return path
}

func TestInstallExtractsFiles(t *testing.T) {
	tarPath := writeTestTar(t, false, map[string]string{
		"etc/hostname":    "device-01\n",
		"var/ota/marker":  "ok",
	})
	target := t.TempDir()

	err := Install(Options{TarPath: tarPath, TargetDir: target})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(target, "etc/hostname"))
	require.NoError(t, err)
	require.Equal(t, "device-01\n", string(data))
}

func TestInstallGzipAutoDetect(t *testing.T) {
	tarPath := writeTestTar(t, true, map[string]string{"bin/init": "#!/bin/sh\n"})
	target := t.TempDir()

	err := Install(Options{TarPath: tarPath, TargetDir: target})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(target, "bin/init"))
	require.NoError(t, err)
	require.Equal(t, "#!/bin/sh\n", string(data))
}

func TestInstallSkipsReservedPrefixes(t *testing.T) {
	tarPath := writeTestTar(t, false, map[string]string{
		"proc/cpuinfo": "should not be written",
		"etc/valid":    "ok",
	})
	target := t.TempDir()

	err := Install(Options{TarPath: tarPath, TargetDir: target})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(target, "proc"))
	require.True(t, os.IsNotExist(err))

	_, err = os.Stat(filepath.Join(target, "etc/valid"))
	require.NoError(t, err)
}

func TestInstallRejectsPathEscape(t *testing.T) {
	var raw bytes.Buffer
	tw := tar.NewWriter(&raw)
	hdr := &tar.Header{Name: "../../etc/passwd", Mode: 0o644, Size: 3}
	require.NoError(t, tw.WriteHeader(hdr))
	_, err := tw.Write([]byte("hi\n"))
	require.NoError(t, err)
	require.NoError(t, tw.Close())

	path := filepath.Join(t.TempDir(), "evil.tar")
	require.NoError(t, os.WriteFile(path, raw.Bytes(), 0o644))

	err = Install(Options{TarPath: path, TargetDir: t.TempDir()})
	require.Error(t, err)
}

func TestInstallProgressReachesTotal(t *testing.T) {
	tarPath := writeTestTar(t, false, map[string]string{
		"a": "aaaaaaaaaa",
		"b": "bbbbbbbbbb",
	})
	target := t.TempDir()

	var last int64
	var total int64
	err := Install(Options{
		TarPath:   tarPath,
		TargetDir: target,
		Progress: func(step string, done, tot int64) {
			last = done
			total = tot
		},
	})
	require.NoError(t, err)
	require.Equal(t, total, last)
}

func TestNormalizeEntryRejectsAbsolute(t *testing.T) {
	_, err := normalizeEntry("/etc/passwd")
	require.Error(t, err)
}

func TestIsReserved(t *testing.T) {
	require.True(t, isReserved("proc/cpuinfo"))
	require.True(t, isReserved("tmp"))
	require.False(t, isReserved("etc/hostname"))
	require.False(t, isReserved("procfs/notreally"))
}
