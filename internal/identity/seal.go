package identity

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	sealedPrefix = "sb1:"
	nonceSize    = 24
	hkdfInfo     = "servicecart identity token"
)

var errSealKeyMissing = errors.New("identity: sealed token found but no seal key configured")

// Sealer encrypts bearer tokens before they reach the identity store.
// A Sealer built from an empty secret passes values through unchanged.
type Sealer struct {
	key     *[32]byte
	enabled bool
}

// NewSealer derives a secretbox key from secret with HKDF-SHA256.
func NewSealer(secret string) (*Sealer, error) {
	if secret == "" {
		return &Sealer{}, nil
	}

	var key [32]byte
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte(hkdfInfo))
	if _, err := io.ReadFull(kdf, key[:]); err != nil {
		return nil, fmt.Errorf("identity: derive seal key: %w", err)
	}
	return &Sealer{key: &key, enabled: true}, nil
}

func (s *Sealer) Seal(plain string) (string, error) {
	if s == nil || !s.enabled || plain == "" {
		return plain, nil
	}

	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("identity: nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(plain), &nonce, s.key)
	return sealedPrefix + base64.RawURLEncoding.EncodeToString(box), nil
}

// Open reverses Seal. Values without the sealed prefix are returned as-is so
// tokens stored before a key was configured keep working.
func (s *Sealer) Open(stored string) (string, error) {
	if !strings.HasPrefix(stored, sealedPrefix) {
		return stored, nil
	}
	if s == nil || !s.enabled {
		return "", errSealKeyMissing
	}

	box, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(stored, sealedPrefix))
	if err != nil {
		return "", fmt.Errorf("identity: decode sealed token: %w", err)
	}
	if len(box) < nonceSize+secretbox.Overhead {
		return "", errors.New("identity: sealed token too short")
	}

	var nonce [nonceSize]byte
	copy(nonce[:], box[:nonceSize])
	plain, ok := secretbox.Open(nil, box[nonceSize:], &nonce, s.key)
	if !ok {
		return "", errors.New("identity: sealed token failed authentication")
	}
	return string(plain), nil
}
