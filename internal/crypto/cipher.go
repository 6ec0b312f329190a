// Package crypto handles encryption and decryption of caller-supplied secrets
// such as API keys and proxy connection strings.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// saltSize is the size of the per-message PBKDF2 salt in bytes
	saltSize = 16

	// nonceSize is the size of the AES-GCM nonce
	nonceSize = 12

	// keySize is the size of the derived key (AES-256)
	keySize = 32

	// pbkdf2Iterations is the number of iterations for key derivation
	pbkdf2Iterations = 100000
)

var (
	// ErrInvalidCiphertext is returned when the encrypted payload is not in the
	// expected format (bad base64, too short).
	ErrInvalidCiphertext = errors.New("invalid encrypted data format")

	// ErrDecryptFailed is returned when decryption fails: the payload was
	// produced under a different key or has been tampered with.
	ErrDecryptFailed = errors.New("decryption failed: wrong key or corrupted data")
)

// Cipher encrypts and decrypts secrets under a single process-wide key.
// The key string itself never leaves the struct; each encrypted payload uses
// a fresh salt and nonce so identical plaintexts produce distinct outputs.
type Cipher struct {
	secret []byte
}

func New(secret string) *Cipher {
	return &Cipher{secret: []byte(secret)}
}

// deriveKey derives an AES key from the process secret using PBKDF2.
func (c *Cipher) deriveKey(salt []byte) []byte {
	return pbkdf2.Key(c.secret, salt, pbkdf2Iterations, keySize, sha256.New)
}

// Encrypt encrypts plaintext using AES-256-GCM and returns a base64-encoded
// payload laid out as salt || nonce || ciphertext.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	block, err := aes.NewCipher(c.deriveKey(salt))
	if err != nil {
		return "", fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("create GCM: %w", err)
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)

	payload := make([]byte, 0, saltSize+nonceSize+len(sealed))
	payload = append(payload, salt...)
	payload = append(payload, nonce...)
	payload = append(payload, sealed...)

	return base64.StdEncoding.EncodeToString(payload), nil
}

// Decrypt reverses Encrypt. It returns ErrInvalidCiphertext for payloads that
// are not even well-formed, and ErrDecryptFailed when authentication fails
// (foreign key, truncation, tampering).
func (c *Cipher) Decrypt(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	if len(data) < saltSize+nonceSize+1 {
		return "", ErrInvalidCiphertext
	}

	salt := data[:saltSize]
	nonce := data[saltSize : saltSize+nonceSize]
	sealed := data[saltSize+nonceSize:]

	block, err := aes.NewCipher(c.deriveKey(salt))
	if err != nil {
		return "", fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("create GCM: %w", err)
	}

	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrDecryptFailed
	}

	return string(plaintext), nil
}
