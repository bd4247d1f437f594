package hybrid

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubert-project/hubert/dhtkv"
	"github.com/hubert-project/hubert/envelope"
	"github.com/hubert-project/hubert/ipfskv"
	"github.com/hubert-project/hubert/store"
)

func newTestRouter() *Router {
	dht := dhtkv.New(dhtkv.NewInMemoryClient())
	ipfs := ipfskv.New(ipfskv.NewInMemoryDaemon())
	return New(dht, ipfs, WithThreshold(64))
}

func TestRouterSmallPayloadGoesDirectlyToDHT(t *testing.T) {
	r := newTestRouter()
	arid, err := envelope.NewARID()
	require.NoError(t, err)
	env := envelope.New("small")

	receipt, err := r.Put(context.Background(), arid, env, store.PutOptions{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(receipt, "dht://"))

	got, err := r.Get(context.Background(), arid, store.GetOptions{Timeout: time.Second})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, env.Equal(*got))
}

func TestRouterLargePayloadSpillsToIPFS(t *testing.T) {
	r := newTestRouter()
	arid, err := envelope.NewARID()
	require.NoError(t, err)
	env := envelope.New(strings.Repeat("x", 500))

	receipt, err := r.Put(context.Background(), arid, env, store.PutOptions{})
	require.NoError(t, err)
	assert.Contains(t, receipt, "hybrid:")

	got, err := r.Get(context.Background(), arid, store.GetOptions{Timeout: time.Second})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, env.Equal(*got))
}

func TestRouterLargePayloadPutIsWriteOnce(t *testing.T) {
	r := newTestRouter()
	arid, err := envelope.NewARID()
	require.NoError(t, err)
	env := envelope.New(strings.Repeat("x", 500))

	_, err = r.Put(context.Background(), arid, env, store.PutOptions{})
	require.NoError(t, err)

	_, err = r.Put(context.Background(), arid, env, store.PutOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestRouterTwoPutsOfSamePayloadProduceDistinctCiphertexts(t *testing.T) {
	dht1 := dhtkv.New(dhtkv.NewInMemoryClient())
	ipfs1 := ipfskv.New(ipfskv.NewInMemoryDaemon())
	r1 := New(dht1, ipfs1, WithThreshold(64))

	dht2 := dhtkv.New(dhtkv.NewInMemoryClient())
	ipfs2 := ipfskv.New(ipfskv.NewInMemoryDaemon())
	r2 := New(dht2, ipfs2, WithThreshold(64))

	arid, err := envelope.NewARID()
	require.NoError(t, err)
	env := envelope.New(strings.Repeat("y", 500))

	_, err = r1.Put(context.Background(), arid, env, store.PutOptions{})
	require.NoError(t, err)
	_, err = r2.Put(context.Background(), arid, env, store.PutOptions{})
	require.NoError(t, err)

	cell1, err := dht1.Get(context.Background(), arid, store.GetOptions{Timeout: time.Second})
	require.NoError(t, err)
	cell2, err := dht2.Get(context.Background(), arid, store.GetOptions{Timeout: time.Second})
	require.NoError(t, err)

	bytes1, ok1 := cell1.Subject.([]byte)
	bytes2, ok2 := cell2.Subject.([]byte)
	require.True(t, ok1)
	require.True(t, ok2)
	assert.NotEqual(t, bytes1, bytes2)
}

func TestRouterGetReturnsForeignCiphertextUnchangedOnWrongKey(t *testing.T) {
	r := newTestRouter()
	arid, err := envelope.NewARID()
	require.NoError(t, err)

	foreign := make([]byte, 64)
	foreign[0] = frameMarker
	env := envelope.New(foreign)

	_, err = r.dht.Put(context.Background(), arid, env, store.PutOptions{})
	require.NoError(t, err)

	got, err := r.Get(context.Background(), arid, store.GetOptions{Timeout: time.Second})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, foreign, got.Subject)
}

// vanishingIPFSStore wraps a store.Store and makes every Get behave as if
// the underlying cell was never published, regardless of what Put wrote.
// This models an IPFS daemon whose resolve stops returning the spilled
// name (e.g. the node lost the IPNS record or was garbage collected).
type vanishingIPFSStore struct {
	store.Store
}

func (v *vanishingIPFSStore) Get(ctx context.Context, arid envelope.ARID, opts store.GetOptions) (*envelope.Envelope, error) {
	return nil, nil
}

// TestRouterGetSurfacesContentNotFoundWhenIPFSCellVanishes pins spec.md
// §8 scenario 6: a large payload spills to IPFS and plants a DHT
// reference, but if the IPFS side no longer resolves the spilled name,
// Get must report ErrContentNotFound rather than treating the reference
// as if it never existed.
func TestRouterGetSurfacesContentNotFoundWhenIPFSCellVanishes(t *testing.T) {
	dht := dhtkv.New(dhtkv.NewInMemoryClient())
	ipfs := ipfskv.New(ipfskv.NewInMemoryDaemon())
	r := New(dht, &vanishingIPFSStore{Store: ipfs}, WithThreshold(64))

	arid, err := envelope.NewARID()
	require.NoError(t, err)
	env := envelope.New(strings.Repeat("x", 500))

	_, err = r.Put(context.Background(), arid, env, store.PutOptions{})
	require.NoError(t, err)

	_, err = r.Get(context.Background(), arid, store.GetOptions{Timeout: time.Second})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrContentNotFound)
}

func TestRouterExistsDelegatesToDHT(t *testing.T) {
	r := newTestRouter()
	arid, err := envelope.NewARID()
	require.NoError(t, err)

	exists, err := r.Exists(context.Background(), arid)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = r.Put(context.Background(), arid, envelope.New("small"), store.PutOptions{})
	require.NoError(t, err)

	exists, err = r.Exists(context.Background(), arid)
	require.NoError(t, err)
	assert.True(t, exists)
}
