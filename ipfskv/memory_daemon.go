package ipfskv

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
)

// InMemoryDaemon is a same-process Daemon stand-in, modeled on the
// teacher's crypto/storage memoryKeyStorage: everything lives behind one
// mutex rather than an RPC round-trip to a Kubo node.
type InMemoryDaemon struct {
	mu        sync.Mutex
	keys      map[string]KeyInfo // name -> info
	blocks    map[string][]byte  // cid -> content
	pinned    map[string]bool
	published map[string]string // peerID -> path
}

// NewInMemoryDaemon creates an empty in-memory IPFS/IPNS stand-in.
func NewInMemoryDaemon() *InMemoryDaemon {
	return &InMemoryDaemon{
		keys:      make(map[string]KeyInfo),
		blocks:    make(map[string][]byte),
		pinned:    make(map[string]bool),
		published: make(map[string]string),
	}
}

func (d *InMemoryDaemon) KeyList(_ context.Context) ([]KeyInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]KeyInfo, 0, len(d.keys))
	for _, k := range d.keys {
		out = append(out, k)
	}
	return out, nil
}

func (d *InMemoryDaemon) KeyGen(_ context.Context, name string) (KeyInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if existing, ok := d.keys[name]; ok {
		return existing, nil
	}
	var raw [16]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return KeyInfo{}, fmt.Errorf("ipfskv: generate peer id: %w", err)
	}
	info := KeyInfo{Name: name, PeerID: "Qm" + hex.EncodeToString(raw[:])}
	d.keys[name] = info
	return info, nil
}

func (d *InMemoryDaemon) Add(_ context.Context, data []byte) (string, error) {
	sum := sha256.Sum256(data)
	cid := "bafy" + hex.EncodeToString(sum[:])

	d.mu.Lock()
	defer d.mu.Unlock()
	d.blocks[cid] = append([]byte(nil), data...)
	return cid, nil
}

func (d *InMemoryDaemon) Pin(_ context.Context, cid string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.blocks[cid]; !ok {
		return fmt.Errorf("ipfskv: cannot pin unknown cid %s", cid)
	}
	d.pinned[cid] = true
	return nil
}

func (d *InMemoryDaemon) Cat(_ context.Context, cid string) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	data, ok := d.blocks[cid]
	if !ok {
		return nil, fmt.Errorf("ipfskv: no block for cid %s", cid)
	}
	return append([]byte(nil), data...), nil
}

// Publish resolves keyName to its peer-id and records path as published
// under it, mirroring Kubo's name_publish(key=keyName) RPC.
func (d *InMemoryDaemon) Publish(_ context.Context, keyName, path, _ string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	info, ok := d.keys[keyName]
	if !ok {
		return fmt.Errorf("ipfskv: unknown key %s", keyName)
	}
	if _, exists := d.published[info.PeerID]; exists {
		return fmt.Errorf("ipfskv: %s already published", info.PeerID)
	}
	d.published[info.PeerID] = path
	return nil
}

func (d *InMemoryDaemon) Resolve(_ context.Context, peerID string) (string, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	path, ok := d.published[peerID]
	return path, ok, nil
}
