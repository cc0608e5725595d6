package imagefmt

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

func writeTestPackage(t *testing.T, plaintextLen int) (string, ImageHeader) {
	t.Helper()
	ciphertext := make([]byte, plaintextLen+TagSize)
	for i := range ciphertext {
		ciphertext[i] = byte(i)
	}

	h := ImageHeader{Size: uint32(len(ciphertext))}
	copy(h.Datetime[:], "2026-07-30T00:00:00Z")

	var buf []byte
	buf = append(buf, Encode(h)...)
	buf = append(buf, ciphertext...)
	buf = append(buf, make([]byte, SignatureSize)...) // zero signature

	path := filepath.Join(t.TempDir(), "package.bin")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path, h
}

func TestReaderReadHeader(t *testing.T) {
	path, want := writeTestPackage(t, 1024)
	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	h, err := r.ReadHeader()
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if h.Size != want.Size {
		t.Errorf("Size = %d; want %d", h.Size, want.Size)
	}
}

func TestReaderReadHeaderTruncated(t *testing.T) {
	path, _ := writeTestPackage(t, 1024)
	data, _ := os.ReadFile(path)
	// Truncate well below the declared ciphertext + signature length.
	if err := os.WriteFile(path, data[:HeaderSize+10], 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if _, err := r.ReadHeader(); err != ErrTruncated {
		t.Errorf("ReadHeader() err = %v; want ErrTruncated", err)
	}
}

func TestReaderOpenNotFound(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.bin"))
	if err == nil {
		t.Fatal("Open() err = nil; want not-found error")
	}
}

func TestReaderCiphertextStreamAndTag(t *testing.T) {
	path, _ := writeTestPackage(t, 1024)
	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if _, err := r.ReadHeader(); err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}

	plain, err := io.ReadAll(r.CiphertextStream())
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(plain) != 1024 {
		t.Fatalf("CiphertextStream length = %d; want 1024", len(plain))
	}
	if plain[0] != 0 || plain[1] != 1 {
		t.Errorf("CiphertextStream does not start at offset 52")
	}

	if _, err := r.ReadTag(); err != nil {
		t.Fatalf("ReadTag: %v", err)
	}
	if _, err := r.ReadSignature(); err != nil {
		t.Fatalf("ReadSignature: %v", err)
	}
}

func TestReaderSignedRegionRange(t *testing.T) {
	path, h := writeTestPackage(t, 1024)
	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()
	if _, err := r.ReadHeader(); err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}

	start, end := r.SignedRegionRange()
	if start != 0 || end != HeaderSize+int64(h.Size) {
		t.Errorf("SignedRegionRange() = (%d,%d); want (0,%d)", start, end, HeaderSize+int64(h.Size))
	}
}
