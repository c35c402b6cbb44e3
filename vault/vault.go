// Package vault seals the durable state into an encrypted blob on disk.
//
// The master key is generated on first use and kept in a keyfile with owner
// only permissions; the state file is sealed with NaCl secretbox
// (XSalsa20-Poly1305) under that key. Losing the keyfile means losing the
// state, which is the intended trade-off for a local, passwordless tool.
package vault

import (
	"crypto/rand"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keySize   = 32
	nonceSize = 24
)

// Vault binds a state blob path to its keyfile.
type Vault struct {
	statePath string
	keyPath   string
}

// New creates a vault for the given state blob and keyfile paths. No file
// is touched until Save or Load.
func New(statePath, keyPath string) *Vault {
	return &Vault{statePath: statePath, keyPath: keyPath}
}

// Save seals data under the master key and writes it atomically to the
// state path. The keyfile is created on first use.
func (v *Vault) Save(data []byte) error {
	key, err := v.ensureKey()
	if err != nil {
		return err
	}

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return fmt.Errorf("cannot generate nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], data, &nonce, key)

	tmp := v.statePath + ".tmp"
	if err := os.WriteFile(tmp, sealed, 0o600); err != nil {
		return fmt.Errorf("cannot write state blob: %w", err)
	}
	if err := os.Rename(tmp, v.statePath); err != nil {
		return fmt.Errorf("cannot replace state blob: %w", err)
	}
	return nil
}

// Load reads and opens the state blob. A missing blob returns
// fs.ErrNotExist (via os.Open), which callers treat as a fresh start.
func (v *Vault) Load() ([]byte, error) {
	sealed, err := os.ReadFile(v.statePath)
	if err != nil {
		return nil, err
	}
	if len(sealed) < nonceSize {
		return nil, fmt.Errorf("state blob %q is truncated", v.statePath)
	}

	key, err := v.loadKey()
	if err != nil {
		return nil, err
	}

	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	data, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, key)
	if !ok {
		return nil, fmt.Errorf("cannot decrypt state blob %q: wrong key or corrupt data", v.statePath)
	}
	return data, nil
}

// ensureKey loads the master key, generating and persisting a fresh one
// when the keyfile does not exist yet.
func (v *Vault) ensureKey() (*[keySize]byte, error) {
	key, err := v.loadKey()
	if err == nil {
		return key, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	var fresh [keySize]byte
	if _, err := io.ReadFull(rand.Reader, fresh[:]); err != nil {
		return nil, fmt.Errorf("cannot generate master key: %w", err)
	}
	tmp := v.keyPath + ".tmp"
	if err := os.WriteFile(tmp, fresh[:], 0o600); err != nil {
		return nil, fmt.Errorf("cannot write keyfile: %w", err)
	}
	if err := os.Rename(tmp, v.keyPath); err != nil {
		return nil, fmt.Errorf("cannot replace keyfile: %w", err)
	}
	return &fresh, nil
}

func (v *Vault) loadKey() (*[keySize]byte, error) {
	raw, err := os.ReadFile(v.keyPath)
	if err != nil {
		return nil, err
	}
	if len(raw) != keySize {
		return nil, fmt.Errorf("keyfile %q has %d bytes, want %d", v.keyPath, len(raw), keySize)
	}
	var key [keySize]byte
	copy(key[:], raw)
	return &key, nil
}
