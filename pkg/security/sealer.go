package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"io"

	"github.com/google/uuid"
)

var (
	ErrInvalidKeySize = errors.New("invalid key size")
	ErrSeal           = errors.New("sealing text failed")
	ErrOpen           = errors.New("opening sealed text failed")
)

// sealVersion prefixes every sealed value so the layout can change later.
const sealVersion byte = 1

// TextSealer encrypts prescription text kept in analysis history.
// The binding is authenticated but not stored; Open only succeeds with the
// binding that was passed to Seal.
type TextSealer interface {
	Seal(plaintext, binding []byte) ([]byte, error)
	Open(sealed, binding []byte) ([]byte, error)
}

// RecordBinding ties sealed text to one analysis row and its owner, so a
// value copied onto another row or user no longer opens.
func RecordBinding(analysisID uuid.UUID, userID string) []byte {
	b := make([]byte, 0, len(analysisID)+len(userID))
	b = append(b, analysisID[:]...)
	return append(b, userID...)
}

// NewAESSealer returns an AES-GCM sealer. key must be 16, 24 or 32 bytes.
func NewAESSealer(key []byte) (TextSealer, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrInvalidKeySize
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, ErrSeal
	}
	return &aesSealer{gcm: gcm}, nil
}

type aesSealer struct {
	gcm cipher.AEAD
}

// Seal returns version || nonce || ciphertext.
func (a *aesSealer) Seal(plaintext, binding []byte) ([]byte, error) {
	nonceSize := a.gcm.NonceSize()
	out := make([]byte, 1+nonceSize, 1+nonceSize+len(plaintext)+a.gcm.Overhead())
	out[0] = sealVersion
	nonce := out[1:]
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, ErrSeal
	}
	return a.gcm.Seal(out, nonce, plaintext, a.additionalData(binding)), nil
}

func (a *aesSealer) Open(sealed, binding []byte) ([]byte, error) {
	nonceSize := a.gcm.NonceSize()
	if len(sealed) < 1+nonceSize || sealed[0] != sealVersion {
		return nil, ErrOpen
	}

	nonce, ciphertext := sealed[1:1+nonceSize], sealed[1+nonceSize:]
	plaintext, err := a.gcm.Open(nil, nonce, ciphertext, a.additionalData(binding))
	if err != nil {
		return nil, ErrOpen
	}
	return plaintext, nil
}

// additionalData covers the version byte as well as the binding.
func (a *aesSealer) additionalData(binding []byte) []byte {
	ad := make([]byte, 0, 1+len(binding))
	ad = append(ad, sealVersion)
	return append(ad, binding...)
}
