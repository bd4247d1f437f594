package keyderive

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubert-project/hubert/envelope"
)

func allZerosARID() envelope.ARID {
	var a envelope.ARID
	return a
}

func TestDerivationsAreDeterministic(t *testing.T) {
	arid, err := envelope.NewARID()
	require.NoError(t, err)

	name1, err := DeriveIPFSKeyName(arid)
	require.NoError(t, err)
	name2, err := DeriveIPFSKeyName(arid)
	require.NoError(t, err)
	assert.Equal(t, name1, name2)

	seed1, err := DeriveMainlineSeed(arid)
	require.NoError(t, err)
	seed2, err := DeriveMainlineSeed(arid)
	require.NoError(t, err)
	assert.Equal(t, seed1, seed2)
}

func TestDerivationsAreDistinctAcrossARIDs(t *testing.T) {
	a, err := envelope.NewARID()
	require.NoError(t, err)
	b, err := envelope.NewARID()
	require.NoError(t, err)

	nameA, err := DeriveIPFSKeyName(a)
	require.NoError(t, err)
	nameB, err := DeriveIPFSKeyName(b)
	require.NoError(t, err)
	assert.NotEqual(t, nameA, nameB)
}

func TestDerivationsAreIndependentAcrossSalts(t *testing.T) {
	arid, err := envelope.NewARID()
	require.NoError(t, err)

	ipfsName, err := DeriveIPFSKeyName(arid)
	require.NoError(t, err)
	mainline, err := DeriveMainlineSeed(arid)
	require.NoError(t, err)
	refKey, err := DeriveReferenceEncryptionKey(arid)
	require.NoError(t, err)

	assert.NotEqual(t, ipfsName, hex.EncodeToString(mainline))
	assert.NotEqual(t, hex.EncodeToString(mainline), hex.EncodeToString(refKey))
}

func TestIPFSKeyNameShape(t *testing.T) {
	arid, err := envelope.NewARID()
	require.NoError(t, err)
	name, err := DeriveIPFSKeyName(arid)
	require.NoError(t, err)
	assert.Len(t, name, 64)
	_, err = hex.DecodeString(name)
	assert.NoError(t, err)
}

func TestMainlineSeedLength(t *testing.T) {
	arid, err := envelope.NewARID()
	require.NoError(t, err)
	seed, err := DeriveMainlineSeed(arid)
	require.NoError(t, err)
	assert.Len(t, seed, 20)
}

// TestSeedExtensionPinnedVector pins the deterministic 20->32 byte seed
// extension (spec.md §4.A, §9) against a fixed all-zero ARID so the
// algorithm can never silently drift.
func TestSeedExtensionPinnedVector(t *testing.T) {
	material, err := DeriveMainlineSeed(allZerosARID())
	require.NoError(t, err)

	seed, err := ExtendMainlineSeedToEd25519(material)
	require.NoError(t, err)

	assert.Equal(t, material, seed[:20])
	for i := 20; i < 32; i++ {
		want := byte(uint32(material[i%20]) * uint32(i) % 256)
		assert.Equal(t, want, seed[i], "byte %d of extension", i)
	}
}

func TestExtendMainlineSeedRejectsWrongLength(t *testing.T) {
	_, err := ExtendMainlineSeedToEd25519([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestDeriveMainlineSigningKeyDeterministic(t *testing.T) {
	arid, err := envelope.NewARID()
	require.NoError(t, err)

	k1, err := DeriveMainlineSigningKey(arid)
	require.NoError(t, err)
	k2, err := DeriveMainlineSigningKey(arid)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
	assert.Len(t, k1.Public(), 32)
}
