// Package ipfskv implements Component D (spec.md §4.D): the content-
// addressed IPFS/IPNS backend. The Kubo daemon itself is an external
// collaborator (spec.md §1); this package talks to it through the narrow
// Daemon adapter below, the same way dhtkv talks to the embedded DHT
// through MutableItemClient.
package ipfskv

import "context"

// KeyInfo is an IPNS key the daemon holds: a name (the IPNS key slot) and
// the peer-id that name resolves under.
type KeyInfo struct {
	Name   string
	PeerID string
}

// Daemon is the adapter a Backend drives. A production implementation
// wraps a Kubo RPC client (the teacher pack's ipfs-api-backend-hyper
// equivalent in Go is go-ipfs-api); InMemoryDaemon below is a same-process
// stand-in used for tests.
type Daemon interface {
	// KeyList returns every IPNS key the daemon currently holds.
	KeyList(ctx context.Context) ([]KeyInfo, error)

	// KeyGen generates a new ed25519 IPNS key named name.
	KeyGen(ctx context.Context, name string) (KeyInfo, error)

	// Add adds data to content-addressed storage, returning its CID.
	Add(ctx context.Context, data []byte) (cid string, err error)

	// Pin pins cid so it isn't garbage-collected.
	Pin(ctx context.Context, cid string) error

	// Cat fetches the bytes stored at cid.
	Cat(ctx context.Context, cid string) ([]byte, error)

	// Publish publishes path (e.g. "/ipfs/<cid>") under the IPNS key
	// named keyName, with the given lifetime (formatted "Ns"/"Nm"/"Nh"/"Nd").
	Publish(ctx context.Context, keyName, path, lifetime string) error

	// Resolve resolves the IPNS name addressed by peerID to its current
	// path. ok=false with err=nil means "not published yet."
	Resolve(ctx context.Context, peerID string) (path string, ok bool, err error)
}
