// Package dhtkv implements Component C (spec.md §4.C): the BEP-44
// mutable-item DHT backend. The embedded DHT implementation itself is an
// external collaborator (spec.md §1) — this package talks to it through
// the narrow MutableItemClient adapter below, the same way the teacher's
// pkg/agent/transport package talks to HTTP/websocket transports through
// a small interface rather than owning the socket code.
package dhtkv

import (
	"context"
	"crypto/ed25519"
)

// MutableItem is a BEP-44 mutable item: a signed, sequence-numbered value
// published under an ed25519 public key and optional salt, matching the
// krpc "v"/"seq"/"k"/"sig"/"salt" fields of the mutable-put/get query.
type MutableItem struct {
	PublicKey ed25519.PublicKey
	Salt      []byte
	Seq       int64
	Value     []byte
	Signature []byte
}

// MutableItemClient is the adapter a DHT Backend drives. A production
// implementation wraps an embedded mainline-DHT client; InMemoryClient
// below is a same-process stand-in used for tests.
type MutableItemClient interface {
	// PutMutable signs and publishes value at (key's public key, salt)
	// with the given sequence number, returning the item actually
	// accepted by the network (so callers can detect a race, per spec.md
	// §4.C's concurrency note).
	PutMutable(ctx context.Context, key ed25519.PrivateKey, salt []byte, seq int64, value []byte) (MutableItem, error)

	// GetMutable fetches the most recent mutable item at (pubKey, salt).
	// ok=false with err=nil means "nothing published yet."
	GetMutable(ctx context.Context, pubKey ed25519.PublicKey, salt []byte) (item MutableItem, ok bool, err error)
}
