package dhtkv

import (
	"context"
	"crypto/ed25519"
	"fmt"

	"github.com/hubert-project/hubert/envelope"
	"github.com/hubert-project/hubert/internal/logger"
	"github.com/hubert-project/hubert/keyderive"
	"github.com/hubert-project/hubert/store"
)

// DefaultMaxValueSize is the practical BEP-44 mutable-item protocol limit
// (spec.md §4.C).
const DefaultMaxValueSize = 1000

// writeSeq is the fixed sequence number every write-once DHT put uses
// (spec.md §4.C).
const writeSeq = 1

// Backend is the write-once mutable-item DHT store.
type Backend struct {
	client   MutableItemClient
	salt     []byte
	maxValue int
	log      logger.Logger
}

// Option configures a Backend.
type Option func(*Backend)

// WithSalt sets the BEP-44 namespace salt (empty by default).
func WithSalt(salt []byte) Option {
	return func(b *Backend) { b.salt = salt }
}

// WithMaxValueSize overrides the default 1000-byte protocol limit.
func WithMaxValueSize(n int) Option {
	return func(b *Backend) { b.maxValue = n }
}

// WithLogger overrides the default logger.
func WithLogger(log logger.Logger) Option {
	return func(b *Backend) { b.log = log }
}

// New creates a DHT Backend over client.
func New(client MutableItemClient, opts ...Option) *Backend {
	b := &Backend{
		client:   client,
		maxValue: DefaultMaxValueSize,
		log:      logger.GetDefaultLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

var _ store.Store = (*Backend)(nil)

// Put publishes env under arid. TTL is accepted but ignored — the DHT
// backend has no expiry mechanism (spec.md §4.C).
func (b *Backend) Put(ctx context.Context, arid envelope.ARID, env envelope.Envelope, opts store.PutOptions) (string, error) {
	value := envelope.Encode(env)
	if len(value) > b.maxValue {
		return "", store.NewValueTooLarge(len(value), b.maxValue)
	}

	key, err := keyderive.DeriveMainlineSigningKey(arid)
	if err != nil {
		return "", fmt.Errorf("dhtkv: derive signing key: %w", err)
	}
	pub := key.Public().(ed25519.PublicKey)

	if opts.Verbose {
		b.log.Info("dht put: checking for existing item", logger.String("pubkey", fmt.Sprintf("%x", pub)))
	}

	existing, ok, err := b.client.GetMutable(ctx, pub, b.salt)
	if err != nil {
		return "", store.NewNetworkError("dht", err)
	}
	if ok && existing.Seq >= writeSeq {
		return "", store.NewAlreadyExists(arid)
	}

	published, err := b.client.PutMutable(ctx, key, b.salt, writeSeq, value)
	if err != nil {
		return "", store.NewNetworkError("dht", err)
	}

	// The put-then-read race (spec.md §4.C concurrency note): our publish
	// may have lost to a concurrent writer converging on the same
	// sequence number. Compare the item the client reports as accepted
	// with ours.
	if !ed25519.Verify(pub, signedBytes(b.salt, published.Seq, published.Value), published.Signature) {
		return "", fmt.Errorf("dhtkv: published item failed signature self-check")
	}
	if string(published.Value) != string(value) {
		return "", store.NewAlreadyExists(arid)
	}

	receipt := fmt.Sprintf("dht://%x", pub)
	if opts.Verbose {
		b.log.Info("dht put: published", logger.String("receipt", receipt))
	}
	return receipt, nil
}

// Get polls the DHT for arid's mutable item until it appears or opts.Timeout
// elapses.
func (b *Backend) Get(ctx context.Context, arid envelope.ARID, opts store.GetOptions) (*envelope.Envelope, error) {
	key, err := keyderive.DeriveMainlineSigningKey(arid)
	if err != nil {
		return nil, fmt.Errorf("dhtkv: derive signing key: %w", err)
	}
	pub := key.Public().(ed25519.PublicKey)

	val, ok, err := store.Poll(ctx, opts.Timeout, opts.Verbose, b.log, func(ctx context.Context) (envelope.Envelope, bool, error) {
		item, found, err := b.client.GetMutable(ctx, pub, b.salt)
		if err != nil {
			return envelope.Envelope{}, false, store.NewNetworkError("dht", err)
		}
		if !found {
			return envelope.Envelope{}, false, nil
		}
		env, err := envelope.Decode(item.Value)
		if err != nil {
			return envelope.Envelope{}, false, fmt.Errorf("%w: %v", store.ErrDecode, err)
		}
		return env, true, nil
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &val, nil
}

// Exists performs a single probe for arid's mutable item.
func (b *Backend) Exists(ctx context.Context, arid envelope.ARID) (bool, error) {
	key, err := keyderive.DeriveMainlineSigningKey(arid)
	if err != nil {
		return false, fmt.Errorf("dhtkv: derive signing key: %w", err)
	}
	pub := key.Public().(ed25519.PublicKey)

	_, ok, err := b.client.GetMutable(ctx, pub, b.salt)
	if err != nil {
		return false, store.NewNetworkError("dht", err)
	}
	return ok, nil
}
