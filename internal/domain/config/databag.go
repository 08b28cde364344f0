package config

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Encrypted data bag format versions.
const (
	EncryptionV1 = 1 // aes-256-cbc
	EncryptionV2 = 2 // aes-256-cbc with HMAC-SHA256 over the ciphertext
	EncryptionV3 = 3 // aes-256-gcm
)

const (
	cipherCBC    = "aes-256-cbc"
	cipherGCM    = "aes-256-gcm"
	itemIDKey    = "id"
	wrapperKey   = "json_wrapper"
	gcmNonceSize = 12
)

// Errors returned while decrypting data bag values.
var (
	ErrHMACMismatch   = errors.New("hmac signature mismatch")
	ErrInvalidPadding = errors.New("invalid block padding")
	ErrEmptySecret    = errors.New("secret is empty")
)

// EncryptedValue is one encrypted entry of a data bag item.
type EncryptedValue struct {
	EncryptedData string `json:"encrypted_data"`
	IV            string `json:"iv"`
	HMAC          string `json:"hmac,omitempty"`
	AuthTag       string `json:"auth_tag,omitempty"`
	Version       int    `json:"version"`
	Cipher        string `json:"cipher"`
}

// ParseSecret normalizes secret file content.
func ParseSecret(data []byte) ([]byte, error) {
	secret := bytes.TrimSpace(data)
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	return secret, nil
}

// IsEncryptedItem reports whether any non-id value in the item is an encrypted envelope.
func IsEncryptedItem(item map[string]json.RawMessage) bool {
	for key, raw := range item {
		if key == itemIDKey {
			continue
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			continue
		}
		if _, ok := fields["encrypted_data"]; ok {
			return true
		}
	}
	return false
}

// DecryptItem decrypts every value of an encrypted data bag item except its id.
func DecryptItem(item map[string]json.RawMessage, secret []byte) (map[string]json.RawMessage, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	out := make(map[string]json.RawMessage, len(item))
	for key, raw := range item {
		if key == itemIDKey {
			out[key] = raw
			continue
		}
		var ev EncryptedValue
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, NewDecryptError(key, err)
		}
		plain, err := DecryptValue(ev, secret)
		if err != nil {
			return nil, NewDecryptError(key, err)
		}
		out[key] = plain
	}
	return out, nil
}

// DecryptValue decrypts a single envelope and unwraps its JSON payload.
func DecryptValue(ev EncryptedValue, secret []byte) (json.RawMessage, error) {
	key := sha256.Sum256(secret)

	ciphertext, err := base64.StdEncoding.DecodeString(ev.EncryptedData)
	if err != nil {
		return nil, fmt.Errorf("decode encrypted_data: %w", err)
	}
	iv, err := base64.StdEncoding.DecodeString(ev.IV)
	if err != nil {
		return nil, fmt.Errorf("decode iv: %w", err)
	}

	var plaintext []byte
	switch ev.Version {
	case EncryptionV1, EncryptionV2:
		if ev.Version == EncryptionV2 {
			if err := verifyHMAC(ev, secret); err != nil {
				return nil, err
			}
		}
		plaintext, err = decryptCBC(key[:], iv, ciphertext)
	case EncryptionV3:
		var tag []byte
		tag, err = base64.StdEncoding.DecodeString(ev.AuthTag)
		if err != nil {
			return nil, fmt.Errorf("decode auth_tag: %w", err)
		}
		plaintext, err = decryptGCM(key[:], iv, append(ciphertext, tag...))
	default:
		return nil, NewUserError(ErrCodeUnsupportedEncryption,
			fmt.Sprintf("unsupported encrypted data bag version %d", ev.Version)).
			WithSuggestion("Supported versions are 1, 2 and 3.")
	}
	if err != nil {
		return nil, err
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(plaintext, &wrapper); err != nil {
		return nil, fmt.Errorf("decode plaintext: %w", err)
	}
	value, ok := wrapper[wrapperKey]
	if !ok {
		return nil, fmt.Errorf("plaintext has no %s", wrapperKey)
	}
	return value, nil
}

// EncryptValue wraps and encrypts a value in the given format version.
func EncryptValue(value any, secret []byte, version int) (EncryptedValue, error) {
	if len(secret) == 0 {
		return EncryptedValue{}, ErrEmptySecret
	}
	plaintext, err := json.Marshal(map[string]any{wrapperKey: value})
	if err != nil {
		return EncryptedValue{}, err
	}
	key := sha256.Sum256(secret)

	switch version {
	case EncryptionV1, EncryptionV2:
		iv := make([]byte, aes.BlockSize)
		if _, err := rand.Read(iv); err != nil {
			return EncryptedValue{}, err
		}
		ciphertext, err := encryptCBC(key[:], iv, plaintext)
		if err != nil {
			return EncryptedValue{}, err
		}
		ev := EncryptedValue{
			EncryptedData: base64.StdEncoding.EncodeToString(ciphertext),
			IV:            base64.StdEncoding.EncodeToString(iv),
			Version:       version,
			Cipher:        cipherCBC,
		}
		if version == EncryptionV2 {
			ev.HMAC = computeHMAC(ev.EncryptedData, secret)
		}
		return ev, nil
	case EncryptionV3:
		nonce := make([]byte, gcmNonceSize)
		if _, err := rand.Read(nonce); err != nil {
			return EncryptedValue{}, err
		}
		aead, err := newGCM(key[:])
		if err != nil {
			return EncryptedValue{}, err
		}
		sealed := aead.Seal(nil, nonce, plaintext, nil)
		tagStart := len(sealed) - aead.Overhead()
		return EncryptedValue{
			EncryptedData: base64.StdEncoding.EncodeToString(sealed[:tagStart]),
			IV:            base64.StdEncoding.EncodeToString(nonce),
			AuthTag:       base64.StdEncoding.EncodeToString(sealed[tagStart:]),
			Version:       version,
			Cipher:        cipherGCM,
		}, nil
	default:
		return EncryptedValue{}, fmt.Errorf("unsupported encrypted data bag version %d", version)
	}
}

// EncryptItem encrypts every value of a plain item except its id.
func EncryptItem(item map[string]any, secret []byte, version int) (map[string]any, error) {
	out := make(map[string]any, len(item))
	for key, value := range item {
		if key == itemIDKey {
			out[key] = value
			continue
		}
		ev, err := EncryptValue(value, secret, version)
		if err != nil {
			return nil, fmt.Errorf("encrypt %q: %w", key, err)
		}
		out[key] = ev
	}
	return out, nil
}

func computeHMAC(encryptedData string, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(encryptedData))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func verifyHMAC(ev EncryptedValue, secret []byte) error {
	expected, err := base64.StdEncoding.DecodeString(computeHMAC(ev.EncryptedData, secret))
	if err != nil {
		return err
	}
	actual, err := base64.StdEncoding.DecodeString(strings.TrimSpace(ev.HMAC))
	if err != nil {
		return fmt.Errorf("decode hmac: %w", err)
	}
	if !hmac.Equal(expected, actual) {
		return ErrHMACMismatch
	}
	return nil
}

func decryptCBC(key, iv, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("iv must be %d bytes, got %d", aes.BlockSize, len(iv))
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("ciphertext is not a multiple of the block size")
	}
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)
	return unpad(plaintext)
}

func encryptCBC(key, iv, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	padded := pad(plaintext)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)
	return ciphertext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func decryptGCM(key, nonce, sealed []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aead.NonceSize() {
		return nil, fmt.Errorf("iv must be %d bytes, got %d", aead.NonceSize(), len(nonce))
	}
	return aead.Open(nil, nonce, sealed, nil)
}

func pad(data []byte) []byte {
	n := aes.BlockSize - len(data)%aes.BlockSize
	return append(append([]byte(nil), data...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrInvalidPadding
	}
	n := int(data[len(data)-1])
	if n == 0 || n > aes.BlockSize || n > len(data) {
		return nil, ErrInvalidPadding
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, ErrInvalidPadding
		}
	}
	return data[:len(data)-n], nil
}
