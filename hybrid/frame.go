package hybrid

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// frameMarker is a leading byte prepended to every encrypted reference
// envelope's byte subject, separating "our AEAD ciphertext" from most user
// payloads before any decryption (spec.md §9 Open Question). The check
// looks at the raw subject bytes, so a user payload whose byte subject
// happens to begin with frameMarker still passes it; that case is told
// apart by AEAD open failing, after which Get returns the payload
// unchanged. A payload that fails this shape check is never handed to
// AEAD open.
const frameMarker = 0xEE

// encryptReference seals refBytes under key, producing
// frameMarker || nonce || ciphertext. A fresh random nonce makes two
// encryptions of the same plaintext produce distinct ciphertexts, per
// spec.md §4.H step 4.
func encryptReference(key, refBytes []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("hybrid: build aead: %w", err)
	}

	nonce := make([]byte, chacha20poly1305.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("hybrid: generate nonce: %w", err)
	}

	sealed := aead.Seal(nil, nonce, refBytes, nil)

	framed := make([]byte, 0, 1+len(nonce)+len(sealed))
	framed = append(framed, frameMarker)
	framed = append(framed, nonce...)
	framed = append(framed, sealed...)
	return framed, nil
}

// isFramed reports whether data has the shape of an encrypted reference:
// the marker byte followed by at least one nonce's worth of bytes plus a
// minimal AEAD tag.
func isFramed(data []byte) bool {
	minLen := 1 + chacha20poly1305.NonceSize + chacha20poly1305.Overhead
	return len(data) >= minLen && data[0] == frameMarker
}

// decryptReference opens a framed ciphertext produced by encryptReference.
// A non-nil error means the input is not framed or the caller's key does
// not open it (wrong key, or not actually our ciphertext) — the spec's
// "return the ciphertext unchanged" case.
func decryptReference(key, framed []byte) ([]byte, error) {
	if !isFramed(framed) {
		return nil, fmt.Errorf("hybrid: not a framed ciphertext")
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("hybrid: build aead: %w", err)
	}

	rest := framed[1:]
	nonce, sealed := rest[:chacha20poly1305.NonceSize], rest[chacha20poly1305.NonceSize:]
	return aead.Open(nil, nonce, sealed, nil)
}
