package draft

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/existflow/projectdraft/internal/model"
	"golang.org/x/crypto/pbkdf2"
)

const (
	keySize          = 32 // AES-256
	saltSize         = 16
	pbkdf2Iterations = 100000
)

// Sealer encrypts draft payloads at rest with AES-256-GCM
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives the key from a passphrase and a base64 salt
func NewSealer(passphrase, saltB64 string) (*Sealer, error) {
	if passphrase == "" {
		return nil, errors.New("encryption key is empty")
	}
	salt, err := base64.StdEncoding.DecodeString(saltB64)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption salt: %w", err)
	}
	if len(salt) < saltSize {
		return nil, fmt.Errorf("encryption salt must be at least %d bytes", saltSize)
	}

	key := pbkdf2.Key([]byte(passphrase), salt, pbkdf2Iterations, keySize, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: aead}, nil
}

// GenerateSalt returns a random base64 salt for NewSealer
func GenerateSalt() (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(salt), nil
}

// Seal returns base64(nonce || ciphertext)
func (s *Sealer) Seal(plaintext []byte) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(s.aead.Seal(nonce, nonce, plaintext, nil)), nil
}

// Open reverses Seal
func (s *Sealer) Open(sealed string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return nil, err
	}
	n := s.aead.NonceSize()
	if len(data) < n {
		return nil, errors.New("ciphertext too short")
	}
	plaintext, err := s.aead.Open(nil, data[:n], data[n:], nil)
	if err != nil {
		return nil, errors.New("decryption failed: invalid key or corrupted data")
	}
	return plaintext, nil
}

// encodeData serializes form data for a storage column, sealing it when s is set
func encodeData(s *Sealer, data model.ProjectFormData) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	if s == nil {
		return string(raw), nil
	}
	return s.Seal(raw)
}

func decodeData(s *Sealer, stored string) (model.ProjectFormData, error) {
	var data model.ProjectFormData
	raw := []byte(stored)
	if s != nil {
		plain, err := s.Open(stored)
		if err != nil {
			return data, err
		}
		raw = plain
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return data, err
	}
	return data, nil
}
