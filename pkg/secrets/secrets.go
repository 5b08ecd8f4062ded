// Package secrets seals and opens the encrypted fields of the sync protocol.
// One AES-256-GCM key covers both uses: payload fields persisted at rest
// (title, desc, images, files) and the request/response envelope that clients
// wrap whole atom lists in.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/flashnote/flashnote/pkg/models"
)

// Codec seals and opens CipherText values with one shared AES-256-GCM key.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec builds a Codec from a base64-encoded 32-byte key.
func NewCodec(base64Key string) (*Codec, error) {
	key, err := base64.StdEncoding.DecodeString(base64Key)
	if err != nil {
		return nil, fmt.Errorf("decoding AES key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("AES key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("building AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("building GCM: %w", err)
	}
	return &Codec{aead: aead}, nil
}

// Seal encrypts data under a fresh nonce.
func (c *Codec) Seal(data []byte) (models.CipherText, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return models.CipherText{}, fmt.Errorf("generating nonce: %w", err)
	}
	sealed := c.aead.Seal(nil, nonce, data, nil)
	return models.CipherText{
		CipherText: base64.StdEncoding.EncodeToString(sealed),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
	}, nil
}

// Open decrypts a CipherText produced by Seal.
func (c *Codec) Open(ct models.CipherText) ([]byte, error) {
	nonce, err := base64.StdEncoding.DecodeString(ct.Nonce)
	if err != nil {
		return nil, fmt.Errorf("decoding nonce: %w", err)
	}
	sealed, err := base64.StdEncoding.DecodeString(ct.CipherText)
	if err != nil {
		return nil, fmt.Errorf("decoding ciphertext: %w", err)
	}
	data, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("opening ciphertext: %w", err)
	}
	return data, nil
}

// SealString encrypts a string field. Empty input yields nil so that absent
// payloads stay absent.
func (c *Codec) SealString(s string) (*models.CipherText, error) {
	if s == "" {
		return nil, nil
	}
	ct, err := c.Seal([]byte(s))
	if err != nil {
		return nil, err
	}
	return &ct, nil
}

// OpenString decrypts a string field; nil input yields "".
func (c *Codec) OpenString(ct *models.CipherText) (string, error) {
	if ct == nil {
		return "", nil
	}
	data, err := c.Open(*ct)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SealJSON encrypts a raw JSON payload. Empty input yields nil.
func (c *Codec) SealJSON(raw json.RawMessage) (*models.CipherText, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	ct, err := c.Seal(raw)
	if err != nil {
		return nil, err
	}
	return &ct, nil
}

// OpenJSON decrypts a raw JSON payload; nil input yields nil.
func (c *Codec) OpenJSON(ct *models.CipherText) (json.RawMessage, error) {
	if ct == nil {
		return nil, nil
	}
	data, err := c.Open(*ct)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

// SealValue marshals v to JSON and encrypts it; used for the response
// envelope.
func (c *Codec) SealValue(v any) (*models.CipherText, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshaling envelope: %w", err)
	}
	ct, err := c.Seal(data)
	if err != nil {
		return nil, err
	}
	return &ct, nil
}

// OpenValue decrypts an envelope field and unmarshals it into target.
func (c *Codec) OpenValue(ct models.CipherText, target any) error {
	data, err := c.Open(ct)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("unmarshaling envelope: %w", err)
	}
	return nil
}
