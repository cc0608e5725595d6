// Package verify checks a package's RSA-PKCS#1v1.5/SHA-256 signature,
// streaming the signed region through the digest in caller-sized chunks so
// memory use stays bounded regardless of package size.
package verify

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"io"
	"os"

	"iota-cli/internal/applog"
	"iota-cli/internal/ioerr"
	"iota-cli/internal/util"
)

// Outcome distinguishes the three results the spec requires callers be able
// to tell apart: a valid signature, an explicit cryptographic mismatch, or
// a failure of the verification machinery itself (bad key, I/O error).
type Outcome int

const (
	Ok Outcome = iota
	Invalid
	VerifyError
)

func (o Outcome) String() string {
	switch o {
	case Ok:
		return "ok"
	case Invalid:
		return "invalid"
	case VerifyError:
		return "verify-error"
	default:
		return "unknown"
	}
}

// DefaultStreamCount is the chunk size used to stream the signed region
// through SHA-256 when the caller does not override it.
const DefaultStreamCount = 4096

// LoadPublicKey reads and parses a PEM-encoded RSA public key from path.
// The file is opened exactly once.
func LoadPublicKey(path string) (*rsa.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ioerr.NewFileError("open", path, ioerr.ErrNotFound)
		}
		return nil, ioerr.NewFileError("read", path, err)
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, ioerr.NewCryptoError("key-load", fmt.Errorf("%w: no PEM block in %s", ioerr.ErrBadKey, path))
	}

	if pub, err := x509.ParsePKIXPublicKey(block.Bytes); err == nil {
		if rsaPub, ok := pub.(*rsa.PublicKey); ok {
			return rsaPub, nil
		}
		return nil, ioerr.NewCryptoError("key-load", fmt.Errorf("%w: not an RSA key", ioerr.ErrBadKey))
	}

	// Fall back to PKCS#1 format for keys exported without the PKIX wrapper.
	rsaPub, err := x509.ParsePKCS1PublicKey(block.Bytes)
	if err != nil {
		return nil, ioerr.NewCryptoError("key-load", fmt.Errorf("%w: %v", ioerr.ErrBadKey, err))
	}
	return rsaPub, nil
}

// Verify streams signedRegion through SHA-256 in chunks of streamCount
// bytes (DefaultStreamCount if zero or negative) and checks sig against
// pub using RSA-PKCS#1v1.5. It returns a distinguishable Outcome rather
// than relying solely on the error value, per the contract in 4.2.
func Verify(pub *rsa.PublicKey, signedRegion io.Reader, sig []byte, streamCount int) (Outcome, error) {
	if streamCount <= 0 {
		streamCount = DefaultStreamCount
	}

	h := sha256.New()
	var buf []byte
	if streamCount == util.SmallBufSize {
		buf = util.GetSmallBuffer()
		defer util.PutSmallBuffer(buf)
	} else {
		buf = make([]byte, streamCount)
	}
	if _, err := io.CopyBuffer(h, signedRegion, buf); err != nil {
		return VerifyError, ioerr.NewCryptoError("sha256", err)
	}
	digest := h.Sum(nil)

	err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest, sig)
	if err != nil {
		return Invalid, ioerr.NewCryptoError("rsa-verify", fmt.Errorf("%w: %v", ioerr.ErrVerifyFailed, err))
	}
	return Ok, nil
}

// WarnSkipped emits the mandatory warning-level notification for the
// caller-controlled skip-verification path.
func WarnSkipped() {
	applog.Warn("signature verification skipped", applog.Bool("skip_verify", true))
}
