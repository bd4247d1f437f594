package dhtkv

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubert-project/hubert/envelope"
	"github.com/hubert-project/hubert/store"
)

func newTestEnvelope(t *testing.T, body string) envelope.Envelope {
	t.Helper()
	return envelope.New(body)
}

func TestBackendPutGetRoundTrip(t *testing.T) {
	b := New(NewInMemoryClient())
	arid, err := envelope.NewARID()
	require.NoError(t, err)
	env := newTestEnvelope(t, "hello hubert")

	receipt, err := b.Put(context.Background(), arid, env, store.PutOptions{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(receipt, "dht://"))

	got, err := b.Get(context.Background(), arid, store.GetOptions{Timeout: time.Second})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, env.Equal(*got))

	exists, err := b.Exists(context.Background(), arid)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestBackendPutIsWriteOnce(t *testing.T) {
	b := New(NewInMemoryClient())
	arid, err := envelope.NewARID()
	require.NoError(t, err)

	_, err = b.Put(context.Background(), arid, newTestEnvelope(t, "first"), store.PutOptions{})
	require.NoError(t, err)

	_, err = b.Put(context.Background(), arid, newTestEnvelope(t, "second"), store.PutOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrAlreadyExists)

	var aee *store.AlreadyExistsError
	require.ErrorAs(t, err, &aee)
	assert.Equal(t, arid, aee.ARID)
}

func TestBackendPutRejectsOversizedValue(t *testing.T) {
	b := New(NewInMemoryClient(), WithMaxValueSize(16))
	arid, err := envelope.NewARID()
	require.NoError(t, err)

	_, err = b.Put(context.Background(), arid, newTestEnvelope(t, strings.Repeat("x", 100)), store.PutOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrValueTooLarge)

	var vtl *store.ValueTooLargeError
	require.ErrorAs(t, err, &vtl)
	assert.Equal(t, 16, vtl.Limit)
}

func TestBackendGetReturnsNilOnCleanTimeout(t *testing.T) {
	b := New(NewInMemoryClient())
	arid, err := envelope.NewARID()
	require.NoError(t, err)

	start := time.Now()
	got, err := b.Get(context.Background(), arid, store.GetOptions{Timeout: 50 * time.Millisecond})
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestBackendExistsFalseForUnpublishedARID(t *testing.T) {
	b := New(NewInMemoryClient())
	arid, err := envelope.NewARID()
	require.NoError(t, err)

	exists, err := b.Exists(context.Background(), arid)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestBackendGetPicksUpValuePublishedAfterFirstProbe(t *testing.T) {
	client := NewInMemoryClient()
	b := New(client)
	arid, err := envelope.NewARID()
	require.NoError(t, err)
	env := newTestEnvelope(t, "delayed")

	go func() {
		time.Sleep(50 * time.Millisecond)
		_, err := b.Put(context.Background(), arid, env, store.PutOptions{})
		assert.NoError(t, err)
	}()

	got, err := b.Get(context.Background(), arid, store.GetOptions{Timeout: 3 * time.Second})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, env.Equal(*got))
}
