// Package hybrid implements Component H (spec.md §4.H): a size-based
// router that stores small payloads directly in a DHT-shaped store and
// spills large payloads to an IPFS-shaped store, planting an encrypted
// indirection record (the reference package) in the DHT.
package hybrid

import (
	"context"
	"fmt"

	"github.com/hubert-project/hubert/envelope"
	"github.com/hubert-project/hubert/internal/logger"
	"github.com/hubert-project/hubert/keyderive"
	"github.com/hubert-project/hubert/reference"
	"github.com/hubert-project/hubert/store"
)

// DefaultThreshold is the size above which Put spills to IPFS
// (spec.md §4.H).
const DefaultThreshold = 1000

// Router wraps a DHT-shaped store and an IPFS-shaped store behind the
// unified store.Store contract.
type Router struct {
	dht       store.Store
	ipfs      store.Store
	threshold int
	log       logger.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithThreshold overrides the default 1000-byte spill threshold.
func WithThreshold(n int) Option {
	return func(r *Router) { r.threshold = n }
}

// WithLogger overrides the default logger.
func WithLogger(log logger.Logger) Option {
	return func(r *Router) { r.log = log }
}

// New creates a Router over dht and ipfs.
func New(dht, ipfs store.Store, opts ...Option) *Router {
	r := &Router{
		dht:       dht,
		ipfs:      ipfs,
		threshold: DefaultThreshold,
		log:       logger.GetDefaultLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ store.Store = (*Router)(nil)

// Put stores env directly in the DHT if its encoded size is within the
// threshold; otherwise it spills to IPFS under a fresh ARID and plants an
// encrypted reference in the DHT under arid.
func (r *Router) Put(ctx context.Context, arid envelope.ARID, env envelope.Envelope, opts store.PutOptions) (string, error) {
	value := envelope.Encode(env)
	if len(value) <= r.threshold {
		if opts.Verbose {
			r.log.Info("hybrid put: within threshold, using dht directly",
				logger.Int("size", len(value)), logger.Int("threshold", r.threshold))
		}
		return r.dht.Put(ctx, arid, env, opts)
	}

	spillARID, err := envelope.NewARID()
	if err != nil {
		return "", fmt.Errorf("hybrid: mint spill arid: %w", err)
	}

	if opts.Verbose {
		r.log.Info("hybrid put: exceeds threshold, spilling to ipfs",
			logger.Int("size", len(value)), logger.String("spill_arid", spillARID.String()))
	}

	ipfsReceipt, err := r.ipfs.Put(ctx, spillARID, env, opts)
	if err != nil {
		return "", err
	}

	ref := reference.Make(spillARID, len(value))
	refBytes := envelope.Encode(ref)

	key, err := keyderive.DeriveReferenceEncryptionKey(arid)
	if err != nil {
		return "", fmt.Errorf("hybrid: derive reference key: %w", err)
	}

	framed, err := encryptReference(key, refBytes)
	if err != nil {
		return "", fmt.Errorf("hybrid: encrypt reference: %w", err)
	}

	refEnvelope := envelope.New(framed)
	if _, err := r.dht.Put(ctx, arid, refEnvelope, opts); err != nil {
		return "", err
	}

	return fmt.Sprintf("hybrid: dht-reference -> %s", ipfsReceipt), nil
}

// Get fetches the DHT cell at arid. If it holds a plain payload it is
// returned unchanged; if it holds an encrypted reference decryptable
// with arid's key, the referenced payload is fetched from IPFS.
func (r *Router) Get(ctx context.Context, arid envelope.ARID, opts store.GetOptions) (*envelope.Envelope, error) {
	dhtEnv, err := r.dht.Get(ctx, arid, opts)
	if err != nil {
		return nil, err
	}
	if dhtEnv == nil {
		return nil, nil
	}

	framed, ok := dhtEnv.Subject.([]byte)
	if !ok || len(dhtEnv.Assertions) != 0 || !isFramed(framed) {
		return dhtEnv, nil
	}

	key, err := keyderive.DeriveReferenceEncryptionKey(arid)
	if err != nil {
		return nil, fmt.Errorf("hybrid: derive reference key: %w", err)
	}

	plaintext, err := decryptReference(key, framed)
	if err != nil {
		// Wrong key, or not actually our ciphertext: the caller's own
		// payload happened to look framed. Hand it back unchanged.
		return dhtEnv, nil
	}

	ref, err := envelope.Decode(plaintext)
	if err != nil || !reference.Is(ref) {
		return nil, ErrInvalidDecryptedReference
	}

	spillARID, err := reference.ExtractARID(ref)
	if err != nil {
		return nil, ErrInvalidDecryptedReference
	}

	payload, err := r.ipfs.Get(ctx, spillARID, opts)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, ErrContentNotFound
	}
	return payload, nil
}

// Exists delegates to the DHT: a reference cell counts as existing even
// if IPFS is unavailable.
func (r *Router) Exists(ctx context.Context, arid envelope.ARID) (bool, error) {
	return r.dht.Exists(ctx, arid)
}
