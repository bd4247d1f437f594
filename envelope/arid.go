// Package envelope holds the two opaque data types the Hubert core
// consumes but does not own: ARID (the rendezvous capability) and
// Envelope (the document being exchanged). Both are external-collaborator
// types per spec.md §1 — their real-world counterparts (Blockchain
// Commons' ARID and Gordian Envelope) have their own canonical CBOR/UR
// encodings. This package provides the minimal opaque stand-ins the core
// needs to compile and test against: fixed-width random identity for
// ARID, and a byte-transparent wrapper for Envelope, each with the
// `ur:arid/…` / `ur:envelope/…` textual form the server line protocol
// (spec.md §6) parses and formats.
package envelope

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// ARIDSize is the fixed width of an ARID in bytes (spec.md §3).
const ARIDSize = 32

const aridPrefix = "ur:arid/"

// ARID is an Apparently Random IDentifier: the only capability that lets
// a party read or (once) write at a rendezvous point. Equality and
// hashing are byte-wise, so ARID is safe to use as a map key.
type ARID [ARIDSize]byte

// NewARID draws a fresh cryptographically random ARID.
func NewARID() (ARID, error) {
	var a ARID
	if _, err := rand.Read(a[:]); err != nil {
		return ARID{}, fmt.Errorf("envelope: generate arid: %w", err)
	}
	return a, nil
}

// Bytes returns the raw 32 bytes.
func (a ARID) Bytes() []byte {
	out := make([]byte, ARIDSize)
	copy(out, a[:])
	return out
}

// String renders the canonical textual form, "ur:arid/<64 hex chars>".
func (a ARID) String() string {
	return aridPrefix + hex.EncodeToString(a[:])
}

// IsZero reports whether a is the zero-value ARID.
func (a ARID) IsZero() bool {
	return a == ARID{}
}

// ParseARID parses the textual form produced by String.
func ParseARID(s string) (ARID, error) {
	rest, ok := strings.CutPrefix(s, aridPrefix)
	if !ok {
		return ARID{}, fmt.Errorf("envelope: arid missing %q prefix", aridPrefix)
	}
	return aridFromHex(rest)
}

// ARIDFromBytes wraps exactly ARIDSize bytes as an ARID.
func ARIDFromBytes(b []byte) (ARID, error) {
	if len(b) != ARIDSize {
		return ARID{}, fmt.Errorf("envelope: arid must be %d bytes, got %d", ARIDSize, len(b))
	}
	var a ARID
	copy(a[:], b)
	return a, nil
}

func aridFromHex(s string) (ARID, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return ARID{}, fmt.Errorf("envelope: invalid arid hex: %w", err)
	}
	return ARIDFromBytes(b)
}
