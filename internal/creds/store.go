package creds

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"

	"xcdash/internal/types"

	json "github.com/goccy/go-json"
)

const KeyLenBytes = 32 // AES-256

// Store transforms the client-held credential blob. It holds the process-wide
// symmetric key and nothing else; every call receives the full credential set
// explicitly and the store keeps no state between calls.
type Store struct {
	key []byte
}

func NewStore(key []byte) (*Store, error) {
	if len(key) != KeyLenBytes {
		return nil, types.Err(types.ErrInvalidConfig, nil, "secret key must be %d bytes, got %d", KeyLenBytes, len(key))
	}
	return &Store{key: key}, nil
}

// NewStoreFromHex builds a Store from a hex-encoded key, the form the key
// takes in the environment.
func NewStoreFromHex(hexKey string) (*Store, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, types.Err(types.ErrInvalidConfig, err, "secret key is not valid hex")
	}
	return NewStore(key)
}

// Load decodes a client-supplied blob into the credential set, decrypting any
// entry stored in encrypted form. Entries come back with clear secrets ready
// for resolution.
func (s *Store) Load(raw string) ([]types.Credential, error) {
	if raw == "" {
		return nil, types.ErrMissingCredentials
	}
	b, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, types.Err(types.ErrDecryption, err, "credential blob is not valid base64")
	}
	var list []types.Credential
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, types.Err(types.ErrDecryption, err, "credential blob does not decode")
	}
	for i := range list {
		if list[i].SecretFormat != types.SecretFormatEncrypted {
			continue
		}
		plain, err := s.decrypt(list[i].Secret)
		if err != nil {
			return nil, err
		}
		list[i].Secret = plain
		list[i].SecretFormat = types.SecretFormatClear
	}
	return list, nil
}

// Save validates and re-encrypts the full credential set and returns the
// encoded blob for client storage. Format is checked per entry first, so an
// already-encrypted secret is never double-encrypted; saving twice is a no-op
// on those entries.
func (s *Store) Save(list []types.Credential) (string, error) {
	if len(list) == 0 {
		return "", types.ErrMissingCredentials
	}
	out := make([]types.Credential, len(list))
	for i, c := range list {
		if err := c.Validate(); err != nil {
			return "", types.Err(types.ErrInvalidConfig, err, "credential %d", i)
		}
		if c.SecretFormat == types.SecretFormatClear {
			enc, err := s.encrypt(c.Secret)
			if err != nil {
				return "", err
			}
			c.Secret = enc
			c.SecretFormat = types.SecretFormatEncrypted
		}
		out[i] = c
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("encode credentials: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// encrypt seals the secret with AES-GCM; the nonce is prepended to the
// ciphertext and the whole value base64-encoded.
func (s *Store) encrypt(secret string) (string, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return "", fmt.Errorf("cipher init: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("gcm init: %w", err)
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	sealed := gcm.Seal(nonce, nonce, []byte(secret), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (s *Store) decrypt(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", types.Err(types.ErrDecryption, err, "ciphertext is not valid base64")
	}
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return "", types.Err(types.ErrDecryption, err, "")
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", types.Err(types.ErrDecryption, err, "")
	}
	if len(raw) < gcm.NonceSize() {
		return "", types.Err(types.ErrDecryption, nil, "ciphertext too short")
	}
	nonce, ct := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", types.Err(types.ErrDecryption, nil, "ciphertext does not open with the configured key")
	}
	return string(plain), nil
}
