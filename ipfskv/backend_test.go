package ipfskv

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubert-project/hubert/envelope"
	"github.com/hubert-project/hubert/keyderive"
	"github.com/hubert-project/hubert/store"
)

func TestBackendPutGetRoundTrip(t *testing.T) {
	b := New(NewInMemoryDaemon())
	arid, err := envelope.NewARID()
	require.NoError(t, err)
	env := envelope.New("hello ipfs")

	receipt, err := b.Put(context.Background(), arid, env, store.PutOptions{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(receipt, "ipns://"))
	assert.Contains(t, receipt, "ipfs://")

	got, err := b.Get(context.Background(), arid, store.GetOptions{Timeout: time.Second})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, env.Equal(*got))

	exists, err := b.Exists(context.Background(), arid)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestBackendPutIsWriteOnce(t *testing.T) {
	b := New(NewInMemoryDaemon())
	arid, err := envelope.NewARID()
	require.NoError(t, err)

	_, err = b.Put(context.Background(), arid, envelope.New("first"), store.PutOptions{})
	require.NoError(t, err)

	_, err = b.Put(context.Background(), arid, envelope.New("second"), store.PutOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestBackendPutRejectsOversizedValue(t *testing.T) {
	b := New(NewInMemoryDaemon(), WithMaxValueSize(8))
	arid, err := envelope.NewARID()
	require.NoError(t, err)

	_, err = b.Put(context.Background(), arid, envelope.New(strings.Repeat("x", 100)), store.PutOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrValueTooLarge)
}

func TestBackendGetReturnsNilWhenKeyNeverCreated(t *testing.T) {
	b := New(NewInMemoryDaemon())
	arid, err := envelope.NewARID()
	require.NoError(t, err)

	got, err := b.Get(context.Background(), arid, store.GetOptions{Timeout: 50 * time.Millisecond})
	require.NoError(t, err)
	assert.Nil(t, got)

	exists, err := b.Exists(context.Background(), arid)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFormatLifetime(t *testing.T) {
	assert.Equal(t, "24h", formatLifetime(0))
	assert.Equal(t, "1d", formatLifetime(24*time.Hour))
	assert.Equal(t, "2h", formatLifetime(2*time.Hour))
	assert.Equal(t, "90s", formatLifetime(90*time.Second))
	assert.Equal(t, "5m", formatLifetime(5*time.Minute))
}

func TestBackendGetSurfacesUnexpectedPathFormat(t *testing.T) {
	daemon := NewInMemoryDaemon()
	b := New(daemon)
	arid, err := envelope.NewARID()
	require.NoError(t, err)

	keyName, err := keyderive.DeriveIPFSKeyName(arid)
	require.NoError(t, err)
	info, err := daemon.KeyGen(context.Background(), keyName)
	require.NoError(t, err)
	daemon.published[info.PeerID] = "/ipns/somethingelse"

	_, err = b.Get(context.Background(), arid, store.GetOptions{Timeout: 50 * time.Millisecond})
	require.Error(t, err)
	var pathErr *UnexpectedIPNSPathFormatError
	assert.True(t, errors.As(err, &pathErr))
}

// hangingResolveDaemon wraps InMemoryDaemon but never returns from
// Resolve until the caller's context is done, simulating an unresponsive
// daemon during Put's publish-time existence check.
type hangingResolveDaemon struct {
	*InMemoryDaemon
}

func (d *hangingResolveDaemon) Resolve(ctx context.Context, peerID string) (string, bool, error) {
	<-ctx.Done()
	return "", false, ctx.Err()
}

// TestBackendPutSurfacesTimeoutOnHungPublishResolve pins spec.md §7's
// "publish-time resolve returns Timeout" (distinct from Get, which maps a
// poll deadline to a nil envelope rather than an error).
func TestBackendPutSurfacesTimeoutOnHungPublishResolve(t *testing.T) {
	orig := publishResolveTimeout
	publishResolveTimeout = 50 * time.Millisecond
	defer func() { publishResolveTimeout = orig }()

	daemon := &hangingResolveDaemon{InMemoryDaemon: NewInMemoryDaemon()}
	b := New(daemon)
	arid, err := envelope.NewARID()
	require.NoError(t, err)

	_, err = b.Put(context.Background(), arid, envelope.New("hello"), store.PutOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrTimeout)
}
