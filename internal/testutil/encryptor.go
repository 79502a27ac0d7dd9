package testutil

import (
	"yd-go/internal/encryption"
	"yd-go/internal/yd"
)

// NewTestEncryptor creates a configured test encryptor unlocked by
// TestPassphrase.
func NewTestEncryptor() yd.Encryptor {
	e := encryption.NewTestEncryptor()
	_ = e.Setup(TestPassphrase)
	return e
}

// TestPassphrase unlocks encryptors made by NewTestEncryptor.
const TestPassphrase = "secret"
