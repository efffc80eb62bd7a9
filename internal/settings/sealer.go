package settings

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// sealedPrefix marks a value encrypted by Sealer
const sealedPrefix = "sealed:v1:"

// Sealer encrypts secret settings fields at rest with XChaCha20-Poly1305
type Sealer struct {
	key []byte
}

// NewSealer creates a sealer from a base64-encoded 32 byte key
func NewSealer(encodedKey string) (*Sealer, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encodedKey))
	if err != nil {
		return nil, fmt.Errorf("encryption key is not valid base64: %w", err)
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	return &Sealer{key: key}, nil
}

// GenerateKey returns a new random base64-encoded key
func GenerateKey() (string, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// Seal encrypts plaintext. Empty strings stay empty.
func (s *Sealer) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return sealedPrefix + base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal. Values without the sealed prefix are
// returned unchanged so plaintext records written before encryption was enabled still load.
func (s *Sealer) Open(value string) (string, error) {
	if !strings.HasPrefix(value, sealedPrefix) {
		return value, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(value, sealedPrefix))
	if err != nil {
		return "", fmt.Errorf("sealed value is not valid base64: %w", err)
	}
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", err
	}
	if len(data) < aead.NonceSize() {
		return "", errors.New("sealed value is too short")
	}
	nonce, ciphertext := data[:aead.NonceSize()], data[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt sealed value: %w", err)
	}
	return string(plaintext), nil
}

// SealedStore wraps a Store, encrypting client_secret, token and refresh_token
type SealedStore struct {
	Store
	sealer *Sealer
}

// NewSealedStore wraps store with sealer
func NewSealedStore(store Store, sealer *Sealer) *SealedStore {
	return &SealedStore{Store: store, sealer: sealer}
}

// Load reads and decrypts the record
func (s *SealedStore) Load(ctx context.Context) (Settings, error) {
	out, err := s.Store.Load(ctx)
	if err != nil {
		return Settings{}, err
	}
	for _, field := range s.secretFields(&out) {
		if *field, err = s.sealer.Open(*field); err != nil {
			return Settings{}, err
		}
	}
	return out, nil
}

// Save encrypts and writes the record
func (s *SealedStore) Save(ctx context.Context, in Settings) error {
	var err error
	for _, field := range s.secretFields(&in) {
		if *field, err = s.sealer.Seal(*field); err != nil {
			return err
		}
	}
	return s.Store.Save(ctx, in)
}

func (s *SealedStore) secretFields(st *Settings) []*string {
	return []*string{&st.ClientSecret, &st.Token, &st.RefreshToken}
}
