package yd

import "io"

// Encryptor seals exported YRD files for a key pair owned by the user.
// Sealing needs only the public key; opening a sealed file needs the
// passphrase that protects the private key.
type Encryptor interface {
	// Setup generates the key pair and protects the private key with passphrase.
	Setup(passphrase string) error

	// Encrypt reads plaintext from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock opens the private key for the rest of the session.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured reports whether both key files exist.
	IsConfigured() bool

	// IsEncrypted reports whether data looks like output of Encrypt.
	IsEncrypted(data []byte) bool
}

// DecryptionContext holds an unlocked private key in memory.
type DecryptionContext interface {
	Decrypt(r io.Reader, w io.Writer) error
}
