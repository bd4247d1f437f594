// Package reference implements Component G (spec.md §4.G): the small
// indirection envelope the Hybrid Router plants in the DHT when a
// payload has spilled to IPFS.
package reference

import (
	"errors"

	"github.com/hubert-project/hubert/envelope"
)

// Predicate and value literals fixed by the reference envelope's wire
// shape (spec.md §3).
const (
	predicateDereferenceVia = "dereferenceVia"
	predicateID             = "id"
	predicateSize           = "size"
	dereferenceViaIPFS      = "ipfs"
)

// Sentinel errors for extraction (spec.md §4.G).
var (
	ErrNotReferenceEnvelope = errors.New("reference: not a reference envelope")
	ErrInvalidReferenceArid = errors.New("reference: id assertion is not an ARID")
	ErrNoIDAssertion        = errors.New("reference: no id assertion")
)

// Make builds the three-assertion reference envelope pointing at
// referenceARID, the ARID under which the actual payload was stored in
// IPFS. actualSize is carried only for diagnostics.
func Make(referenceARID envelope.ARID, actualSize int) envelope.Envelope {
	return envelope.New(envelope.Unit{}).
		AddAssertion(predicateDereferenceVia, dereferenceViaIPFS).
		AddAssertion(predicateID, referenceARID).
		AddAssertion(predicateSize, int64(actualSize))
}

// Is reports whether env is a reference envelope: subject is the unit
// value, it carries a dereferenceVia assertion whose object is the text
// "ipfs", and it carries an id assertion (of any object). Unknown
// assertions do not disqualify it.
func Is(env envelope.Envelope) bool {
	if _, ok := env.Subject.(envelope.Unit); !ok {
		return false
	}

	via, ok := env.ObjectForPredicate(predicateDereferenceVia)
	if !ok {
		return false
	}
	text, ok := via.(string)
	if !ok || text != dereferenceViaIPFS {
		return false
	}

	_, hasID := env.ObjectForPredicate(predicateID)
	return hasID
}

// ExtractARID returns the ARID carried by env's id assertion.
func ExtractARID(env envelope.Envelope) (envelope.ARID, error) {
	if !Is(env) {
		return envelope.ARID{}, ErrNotReferenceEnvelope
	}

	obj, ok := env.ObjectForPredicate(predicateID)
	if !ok {
		return envelope.ARID{}, ErrNoIDAssertion
	}
	arid, ok := obj.(envelope.ARID)
	if !ok {
		return envelope.ARID{}, ErrInvalidReferenceArid
	}
	return arid, nil
}
