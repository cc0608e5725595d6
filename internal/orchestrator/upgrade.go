// Package orchestrator sequences the image reader, signature verifier,
// AEAD decryptor, archive installer, and slot controller into the
// `upgrade` and `checkout` command flows, owning temporary-file and mount
// lifecycle so that every exit path — success, fatal error, or signal —
// leaves the device in a well-defined state.
package orchestrator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"iota-cli/internal/aead"
	"iota-cli/internal/applog"
	"iota-cli/internal/imagefmt"
	"iota-cli/internal/installer"
	"iota-cli/internal/ioerr"
	"iota-cli/internal/progress"
	"iota-cli/internal/secure"
	"iota-cli/internal/slot"
	"iota-cli/internal/verify"
)

// TempTarballPath is the fixed path the decrypted payload is staged at
// before extraction. Concurrent upgrades on the same device share this
// path and are unsupported, per the spec's resource model.
const TempTarballPath = "/tmp/upgrade_firmware.tar.gz"

// DefaultKeyHex is the built-in AES-128 key used when the caller does not
// supply -k/--key. Like the rest of the fixed, device-local material in
// this pipeline, it is a known-placeholder default meant to be overridden
// in any real deployment.
const DefaultKeyHex = "00112233445566778899aabbccddeeff"

// UpgradeRequest carries every parameter the `upgrade` command line
// surface exposes, plus the one affordance the spec keeps developer-only
// (SkipAuthTag — see the package-level Open Question note in DESIGN.md).
type UpgradeRequest struct {
	ImagePath   string
	KeyHex      string
	VerifyKey   string // PEM path; empty means verification is not requested
	SkipVerify  bool
	StreamCount int
	InPlace     bool
	Sink        progress.Sink

	SkipAuthTag bool // testing-only; never wired to a CLI flag
}

// Upgrade runs the full sequence in 4.7: open/validate the image,
// optionally verify its signature, decrypt the payload to a temp file,
// mount the inactive slot (unless in-place), extract, record a checksum,
// and clean up. All steps after opening the image register their release
// with a guard so any early return still leaves the device consistent.
func Upgrade(ctx context.Context, req UpgradeRequest) error {
	if req.Sink == nil {
		req.Sink = progress.NewMultiSink()
	}
	if !req.SkipVerify && req.VerifyKey == "" {
		return fmt.Errorf("upgrade: %w: public key required unless --skip-verify", ioerr.ErrInvalid)
	}

	key, err := decodeKey(req.KeyHex)
	if err != nil {
		return err
	}
	km := secure.NewKeyMaterial(key)
	secure.Zero(key) // km holds its own copy
	defer km.Close()

	g := &guard{}
	defer g.Close()

	reader, err := imagefmt.Open(req.ImagePath)
	if err != nil {
		return err
	}
	g.add(func() error { return reader.Close() })

	header, err := reader.ReadHeader()
	if err != nil {
		return fmt.Errorf("upgrade: %w", err)
	}
	req.Sink.Message(fmt.Sprintf("package opened: %d bytes ciphertext", header.Size))

	if req.SkipVerify {
		verify.WarnSkipped()
	} else {
		if err := runVerify(reader, req); err != nil {
			return err
		}
	}

	tag, err := reader.ReadTag()
	if err != nil {
		return fmt.Errorf("upgrade: %w", err)
	}

	tempPath := TempTarballPath
	tempFile, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return ioerr.NewFileError("create", tempPath, err)
	}
	g.add(func() error {
		err := os.Remove(tempPath)
		if err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	})

	if err := decryptPayload(reader, header, km.Bytes(), tag, tempFile, req); err != nil {
		tempFile.Close()
		return err
	}
	if err := tempFile.Close(); err != nil {
		return ioerr.NewFileError("close", tempPath, err)
	}

	targetDir, slotErr := prepareTarget(req.InPlace, g)
	if slotErr != nil {
		return slotErr
	}

	if err := installer.Install(installer.Options{
		TarPath:   tempPath,
		TargetDir: targetDir,
		Progress: func(step string, done, total int64) {
			req.Sink.Progress(step, done, total)
		},
		Cancel: func() bool { return ctx.Err() != nil },
	}); err != nil {
		return err
	}

	if err := recordChecksum(req.ImagePath, targetDir); err != nil {
		return err
	}

	req.Sink.Message("upgrade complete; run checkout to select the new slot")
	return nil
}

func decodeKey(keyHex string) ([]byte, error) {
	if keyHex == "" {
		keyHex = DefaultKeyHex
	}
	if len(keyHex) != 32 {
		return nil, fmt.Errorf("upgrade: %w: key must be 32 hex chars", ioerr.ErrBadKey)
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("upgrade: %w: %v", ioerr.ErrBadKey, err)
	}
	return key, nil
}

func runVerify(reader *imagefmt.Reader, req UpgradeRequest) error {
	pub, err := verify.LoadPublicKey(req.VerifyKey)
	if err != nil {
		return err
	}
	sig, err := reader.ReadSignature()
	if err != nil {
		return fmt.Errorf("upgrade: %w", err)
	}

	outcome, err := verify.Verify(pub, reader.SignedRegionReader(), sig[:], req.StreamCount)
	if outcome != verify.Ok {
		return fmt.Errorf("upgrade: signature %s: %w", outcome, err)
	}
	return nil
}

func decryptPayload(reader *imagefmt.Reader, header imagefmt.ImageHeader, key []byte, tag [imagefmt.TagSize]byte, out io.Writer, req UpgradeRequest) error {
	return aead.DecryptStream(
		key, header.IV[:], reader.CiphertextStream(), header.PlaintextLen(), out, tag,
		req.StreamCount, req.SkipAuthTag,
		func(done, total int64) {
			req.Sink.Progress("Decrypting", done, total)
		},
	)
}

func prepareTarget(inPlace bool, g *guard) (string, error) {
	if inPlace {
		return "/", nil
	}

	env := slot.FwEnv{}
	controller := slot.NewController(env)
	if err := controller.MountInactive(); err != nil {
		return "", err
	}
	g.add(func() error { return controller.UnmountInactive() })
	return controller.MountPoint(), nil
}

func recordChecksum(imagePath, targetDir string) error {
	f, err := os.Open(imagePath)
	if err != nil {
		return ioerr.NewFileError("open", imagePath, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return ioerr.NewFileError("read", imagePath, err)
	}

	auditDir := filepath.Join(targetDir, "var", "ota")
	if err := os.MkdirAll(auditDir, 0o755); err != nil {
		return ioerr.NewFileError("mkdir", auditDir, err)
	}

	absPath, err := filepath.Abs(imagePath)
	if err != nil {
		absPath = imagePath
	}
	record := fmt.Sprintf("%s  %s\n", hex.EncodeToString(h.Sum(nil)), absPath)

	recordPath := filepath.Join(auditDir, "current.sha256")
	if err := os.WriteFile(recordPath, []byte(record), 0o644); err != nil {
		return ioerr.NewFileError("write", recordPath, err)
	}
	applog.Info("checksum recorded", applog.String("path", recordPath))
	return nil
}
