package dhtkv

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"sync"
)

// InMemoryClient is a same-process MutableItemClient, modeled on the
// teacher's crypto/storage memoryKeyStorage: a single mutex-guarded map
// standing in for the embedded DHT's routing table. It is what the DHT
// Backend is exercised against in tests; a real deployment swaps it for
// an adapter over an embedded mainline-DHT client.
type InMemoryClient struct {
	mu    sync.RWMutex
	items map[string]MutableItem
}

// NewInMemoryClient creates an empty in-memory DHT stand-in.
func NewInMemoryClient() *InMemoryClient {
	return &InMemoryClient{items: make(map[string]MutableItem)}
}

func itemKey(pubKey ed25519.PublicKey, salt []byte) string {
	return hex.EncodeToString(pubKey) + "|" + hex.EncodeToString(salt)
}

// PutMutable signs value with key and publishes it, unless a later or
// equal sequence number is already present (BEP-44 convergence).
func (c *InMemoryClient) PutMutable(_ context.Context, key ed25519.PrivateKey, salt []byte, seq int64, value []byte) (MutableItem, error) {
	pub := key.Public().(ed25519.PublicKey)
	sig := ed25519.Sign(key, signedBytes(salt, seq, value))

	c.mu.Lock()
	defer c.mu.Unlock()

	k := itemKey(pub, salt)
	if existing, ok := c.items[k]; ok && existing.Seq >= seq {
		return existing, nil
	}
	item := MutableItem{PublicKey: pub, Salt: salt, Seq: seq, Value: value, Signature: sig}
	c.items[k] = item
	return item, nil
}

// GetMutable returns the most recently published item at (pubKey, salt).
func (c *InMemoryClient) GetMutable(_ context.Context, pubKey ed25519.PublicKey, salt []byte) (MutableItem, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.items[itemKey(pubKey, salt)]
	if !ok {
		return MutableItem{}, false, nil
	}
	return item, true, nil
}

// signedBytes is the canonical payload a BEP-44 signature covers: salt
// length-prefixed, sequence number, then the value. Real BEP-44 signs a
// bencoded dictionary; this stand-in only needs to be internally
// consistent since the wire format itself is the embedded DHT's concern.
func signedBytes(salt []byte, seq int64, value []byte) []byte {
	out := make([]byte, 0, len(salt)+8+len(value)+8)
	out = append(out, []byte(fmt.Sprintf("salt:%d:", len(salt)))...)
	out = append(out, salt...)
	out = append(out, []byte(fmt.Sprintf("seq:%d:", seq))...)
	out = append(out, value...)
	return out
}
