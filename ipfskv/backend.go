package ipfskv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hubert-project/hubert/envelope"
	"github.com/hubert-project/hubert/internal/logger"
	"github.com/hubert-project/hubert/keyderive"
	"github.com/hubert-project/hubert/store"
)

// DefaultMaxValueSize is the default envelope size bound (spec.md §4.D).
const DefaultMaxValueSize = 10 * 1024 * 1024

// DefaultLifetime is used when a put omits a TTL.
const DefaultLifetime = 24 * time.Hour

// publishResolveTimeout bounds the existence-check resolve Put issues
// before publishing. Unlike Get's poll (which maps a deadline to
// not-found), a deadline exceeded here is fatal and surfaced as
// store.ErrTimeout (spec.md §7: "publish-time resolve returns Timeout").
// It is a var, not a const, so tests can shrink it rather than block for
// the production duration.
var publishResolveTimeout = 10 * time.Second

const ipfsPathPrefix = "/ipfs/"

// Backend is the content-addressed, IPNS-bound IPFS store.
type Backend struct {
	daemon          Daemon
	maxValue        int
	pin             bool
	defaultLifetime time.Duration
	log             logger.Logger

	cacheMu sync.RWMutex
	cache   map[string]KeyInfo // key name -> info
}

// Option configures a Backend.
type Option func(*Backend)

// WithMaxValueSize overrides the default 10 MiB envelope size bound.
func WithMaxValueSize(n int) Option {
	return func(b *Backend) { b.maxValue = n }
}

// WithPin sets whether Put pins content by default (spec.md §4.D allows
// per-call PutOptions.Pin to request pinning explicitly; this sets the
// backend-wide default for callers that don't).
func WithPin(pin bool) Option {
	return func(b *Backend) { b.pin = pin }
}

// WithDefaultLifetime overrides the 24h lifetime Put publishes with when
// a Put omits a TTL.
func WithDefaultLifetime(d time.Duration) Option {
	return func(b *Backend) { b.defaultLifetime = d }
}

// WithLogger overrides the default logger.
func WithLogger(log logger.Logger) Option {
	return func(b *Backend) { b.log = log }
}

// New creates an IPFS Backend over daemon.
func New(daemon Daemon, opts ...Option) *Backend {
	b := &Backend{
		daemon:          daemon,
		maxValue:        DefaultMaxValueSize,
		pin:             true,
		defaultLifetime: DefaultLifetime,
		log:             logger.GetDefaultLogger(),
		cache:           make(map[string]KeyInfo),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

var _ store.Store = (*Backend)(nil)

// getOrCreateKey returns the cached KeyInfo for keyName, consulting (and
// populating) the daemon-backed cache if it isn't already known.
func (b *Backend) getOrCreateKey(ctx context.Context, keyName string) (KeyInfo, error) {
	b.cacheMu.RLock()
	if info, ok := b.cache[keyName]; ok {
		b.cacheMu.RUnlock()
		return info, nil
	}
	b.cacheMu.RUnlock()

	keys, err := b.daemon.KeyList(ctx)
	if err != nil {
		return KeyInfo{}, store.NewNetworkError("ipfs", err)
	}
	for _, k := range keys {
		if k.Name == keyName {
			b.cacheMu.Lock()
			b.cache[keyName] = k
			b.cacheMu.Unlock()
			return k, nil
		}
	}

	info, err := b.daemon.KeyGen(ctx, keyName)
	if err != nil {
		return KeyInfo{}, store.NewNetworkError("ipfs", err)
	}
	b.cacheMu.Lock()
	b.cache[keyName] = info
	b.cacheMu.Unlock()
	return info, nil
}

// lookupKey returns the cached KeyInfo for keyName without generating one,
// consulting the daemon's key list if the cache is cold. ok=false means the
// key has never been created (and so nothing has ever been published).
func (b *Backend) lookupKey(ctx context.Context, keyName string) (KeyInfo, bool, error) {
	b.cacheMu.RLock()
	if info, ok := b.cache[keyName]; ok {
		b.cacheMu.RUnlock()
		return info, true, nil
	}
	b.cacheMu.RUnlock()

	keys, err := b.daemon.KeyList(ctx)
	if err != nil {
		return KeyInfo{}, false, store.NewNetworkError("ipfs", err)
	}
	for _, k := range keys {
		if k.Name == keyName {
			b.cacheMu.Lock()
			b.cache[keyName] = k
			b.cacheMu.Unlock()
			return k, true, nil
		}
	}
	return KeyInfo{}, false, nil
}

// formatLifetime renders ttl the way Kubo's name_publish --lifetime flag
// expects: the largest unit ("d"/"h"/"m"/"s") that divides ttl evenly,
// falling back to whole seconds (spec.md §4.D, §6).
func formatLifetime(ttl time.Duration) string {
	if ttl <= 0 {
		ttl = DefaultLifetime
	}
	switch {
	case ttl%(24*time.Hour) == 0:
		return fmt.Sprintf("%dd", ttl/(24*time.Hour))
	case ttl%time.Hour == 0:
		return fmt.Sprintf("%dh", ttl/time.Hour)
	case ttl%time.Minute == 0:
		return fmt.Sprintf("%dm", ttl/time.Minute)
	default:
		return fmt.Sprintf("%ds", int64(ttl.Seconds()))
	}
}

// isNotFoundErr reports whether err from the daemon's resolve path
// indicates "not published yet" rather than a protocol fault. The
// InMemoryDaemon and Resolve's own ok=false already model this cleanly;
// this only matters for daemon adapters that surface it as an error
// string instead, mirroring the original's err_str.contains checks.
func isNotFoundErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "could not resolve name") ||
		strings.Contains(msg, "no link named") ||
		strings.Contains(msg, "not found")
}

// Put adds env's bytes to content storage, optionally pins them, and
// publishes the resulting CID under the ARID-derived IPNS key name
// (write-once).
func (b *Backend) Put(ctx context.Context, arid envelope.ARID, env envelope.Envelope, opts store.PutOptions) (string, error) {
	value := envelope.Encode(env)
	if len(value) > b.maxValue {
		return "", store.NewValueTooLarge(len(value), b.maxValue)
	}

	keyName, err := keyderive.DeriveIPFSKeyName(arid)
	if err != nil {
		return "", fmt.Errorf("ipfskv: derive key name: %w", err)
	}

	info, err := b.getOrCreateKey(ctx, keyName)
	if err != nil {
		return "", err
	}

	resolveCtx, cancel := context.WithTimeout(ctx, publishResolveTimeout)
	path, ok, err := b.daemon.Resolve(resolveCtx, info.PeerID)
	cancel()
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "", store.NewTimeout("ipfs", "publish resolve", err)
	case err != nil && !isNotFoundErr(err):
		return "", store.NewNetworkError("ipfs", err)
	case ok:
		_ = path
		return "", store.NewAlreadyExists(arid)
	}

	cid, err := b.daemon.Add(ctx, value)
	if err != nil {
		return "", store.NewNetworkError("ipfs", err)
	}

	if opts.Pin || b.pin {
		if err := b.daemon.Pin(ctx, cid); err != nil {
			return "", store.NewNetworkError("ipfs", err)
		}
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = b.defaultLifetime
	}
	lifetime := formatLifetime(ttl)
	if err := b.daemon.Publish(ctx, keyName, ipfsPathPrefix+cid, lifetime); err != nil {
		if isNotFoundErr(err) {
			return "", store.NewAlreadyExists(arid)
		}
		return "", store.NewNetworkError("ipfs", err)
	}

	if opts.Verbose {
		b.log.Info("ipfs put: published",
			logger.String("peer_id", info.PeerID),
			logger.String("cid", cid))
	}

	return fmt.Sprintf("ipns://%s -> ipfs://%s", info.PeerID, cid), nil
}

// Get polls the IPFS backend for arid's published content until it
// resolves or opts.Timeout elapses.
func (b *Backend) Get(ctx context.Context, arid envelope.ARID, opts store.GetOptions) (*envelope.Envelope, error) {
	keyName, err := keyderive.DeriveIPFSKeyName(arid)
	if err != nil {
		return nil, fmt.Errorf("ipfskv: derive key name: %w", err)
	}

	info, ok, err := b.lookupKey(ctx, keyName)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	cid, found, err := store.Poll(ctx, opts.Timeout, opts.Verbose, b.log, func(ctx context.Context) (string, bool, error) {
		path, ok, err := b.daemon.Resolve(ctx, info.PeerID)
		if err != nil {
			if isNotFoundErr(err) {
				return "", false, nil
			}
			return "", false, store.NewNetworkError("ipfs", err)
		}
		if !ok {
			return "", false, nil
		}
		if !strings.HasPrefix(path, ipfsPathPrefix) {
			return "", false, &UnexpectedIPNSPathFormatError{Path: path}
		}
		return strings.TrimPrefix(path, ipfsPathPrefix), true, nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	data, err := b.daemon.Cat(ctx, cid)
	if err != nil {
		return nil, store.NewNetworkError("ipfs", err)
	}
	env, err := envelope.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrDecode, err)
	}
	return &env, nil
}

// Exists performs a key-list lookup plus a single resolve attempt.
func (b *Backend) Exists(ctx context.Context, arid envelope.ARID) (bool, error) {
	keyName, err := keyderive.DeriveIPFSKeyName(arid)
	if err != nil {
		return false, fmt.Errorf("ipfskv: derive key name: %w", err)
	}

	info, ok, err := b.lookupKey(ctx, keyName)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	_, resolved, err := b.daemon.Resolve(ctx, info.PeerID)
	if err != nil {
		if isNotFoundErr(err) {
			return false, nil
		}
		return false, store.NewNetworkError("ipfs", err)
	}
	return resolved, nil
}
