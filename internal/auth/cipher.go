package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// gcmNonceSize matches the 16-byte IV the credential store writes.
const gcmNonceSize = 16

// Cipher decrypts credentials encrypted at rest with AES-256-GCM.
// Ciphertext format: ivHex:tagHex:dataHex.
type Cipher struct {
	key []byte
}

// NewCipher creates a Cipher from a 32-byte hex-encoded server key.
func NewCipher(hexKey string) (*Cipher, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decode server key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("server key must be 32 bytes, got %d", len(key))
	}
	return &Cipher{key: key}, nil
}

// Encrypt seals plaintext into the ivHex:tagHex:dataHex format.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	gcm, err := c.gcm()
	if err != nil {
		return "", err
	}

	iv := make([]byte, gcmNonceSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}

	// Seal appends ciphertext||tag; split them back out for the wire format.
	sealed := gcm.Seal(nil, iv, []byte(plaintext), nil)
	tagStart := len(sealed) - gcm.Overhead()
	data, tag := sealed[:tagStart], sealed[tagStart:]

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(tag) + ":" + hex.EncodeToString(data), nil
}

// Decrypt opens an ivHex:tagHex:dataHex ciphertext.
func (c *Cipher) Decrypt(encrypted string) (string, error) {
	parts := strings.Split(encrypted, ":")
	if len(parts) != 3 {
		return "", fmt.Errorf("ciphertext must have 3 parts, got %d", len(parts))
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("decode iv: %w", err)
	}
	tag, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("decode tag: %w", err)
	}
	data, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", fmt.Errorf("decode data: %w", err)
	}

	gcm, err := c.gcm()
	if err != nil {
		return "", err
	}
	if len(iv) != gcmNonceSize {
		return "", fmt.Errorf("iv must be %d bytes, got %d", gcmNonceSize, len(iv))
	}

	plain, err := gcm.Open(nil, iv, append(data, tag...), nil)
	if err != nil {
		return "", fmt.Errorf("decrypt: %w", err)
	}
	return string(plain), nil
}

// EncryptedCredentials holds one user's credentials as stored.
type EncryptedCredentials struct {
	APIKey     string
	Secret     string
	Passphrase string
}

// DecryptCredentials decrypts a stored credential set.
func (c *Cipher) DecryptCredentials(enc EncryptedCredentials) (Credentials, error) {
	apiKey, err := c.Decrypt(enc.APIKey)
	if err != nil {
		return Credentials{}, fmt.Errorf("api key: %w", err)
	}
	secret, err := c.Decrypt(enc.Secret)
	if err != nil {
		return Credentials{}, fmt.Errorf("api secret: %w", err)
	}
	passphrase, err := c.Decrypt(enc.Passphrase)
	if err != nil {
		return Credentials{}, fmt.Errorf("passphrase: %w", err)
	}
	return Credentials{APIKey: apiKey, Secret: secret, Passphrase: passphrase}, nil
}

func (c *Cipher) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, gcmNonceSize)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}
