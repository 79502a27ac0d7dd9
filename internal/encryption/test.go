package encryption

import (
	"bytes"
	"fmt"
	"io"

	"yd-go/internal/yd"
)

// testHeader marks output of TestEncryptor.
var testHeader = []byte("YDENC\x00\x00\x00")

// TestEncryptor is a deterministic stand-in for tests. It prepends a fixed
// header on Encrypt and strips it on Decrypt. The passphrase given to Setup
// is the only one Unlock accepts.
type TestEncryptor struct {
	passphrase string
	configured bool
}

var _ yd.Encryptor = (*TestEncryptor)(nil)

// NewTestEncryptor creates a configured TestEncryptor with an empty passphrase.
func NewTestEncryptor() *TestEncryptor {
	return &TestEncryptor{configured: true}
}

func (e *TestEncryptor) Setup(passphrase string) error {
	e.passphrase = passphrase
	e.configured = true
	return nil
}

func (e *TestEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := w.Write(testHeader); err != nil {
		return fmt.Errorf("writing test header: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

func (e *TestEncryptor) Unlock(passphrase string) (yd.DecryptionContext, error) {
	if passphrase != e.passphrase {
		return nil, fmt.Errorf("wrong passphrase")
	}
	return &TestDecryptionContext{}, nil
}

func (e *TestEncryptor) IsConfigured() bool {
	return e.configured
}

func (e *TestEncryptor) IsEncrypted(data []byte) bool {
	return bytes.HasPrefix(data, testHeader)
}

// TestDecryptionContext strips the test header added by TestEncryptor.
type TestDecryptionContext struct{}

var _ yd.DecryptionContext = (*TestDecryptionContext)(nil)

func (c *TestDecryptionContext) Decrypt(r io.Reader, w io.Writer) error {
	header := make([]byte, len(testHeader))
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("reading test header: %w", err)
	}
	if !bytes.Equal(header, testHeader) {
		return fmt.Errorf("invalid test encryption header")
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}
