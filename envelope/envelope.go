package envelope

import (
	"encoding/hex"
	"fmt"
	"strings"
)

const envelopePrefix = "ur:envelope/"

// Unit is the distinguished "unit" subject value used by reference
// envelopes (spec.md §3).
type Unit struct{}

// Assertion is a single predicate/object pair attached to an Envelope's
// subject.
type Assertion struct {
	Predicate Value
	Object    Value
}

// Envelope is the structured cryptographic document Hubert stores and
// retrieves. The core only needs it to be losslessly encodable; the real
// Gordian Envelope's semantics (elision, digests, multi-level assertions)
// are an external collaborator's concern.
type Envelope struct {
	Subject    Value
	Assertions []Assertion
}

// New wraps a plain subject with no assertions, e.g. Envelope holding a
// short text message.
func New(subject Value) Envelope {
	return Envelope{Subject: subject}
}

// AddAssertion returns a copy of e with one more predicate/object pair.
func (e Envelope) AddAssertion(predicate, object Value) Envelope {
	out := Envelope{Subject: e.Subject, Assertions: make([]Assertion, len(e.Assertions)+1)}
	copy(out.Assertions, e.Assertions)
	out.Assertions[len(e.Assertions)] = Assertion{Predicate: predicate, Object: object}
	return out
}

// ObjectForPredicate returns the object of the first assertion whose
// predicate equals predicate, and whether one was found.
func (e Envelope) ObjectForPredicate(predicate Value) (Value, bool) {
	for _, a := range e.Assertions {
		if valuesEqual(a.Predicate, predicate) {
			return a.Object, true
		}
	}
	return nil, false
}

// Equal reports deep equality of subject and assertions (order-sensitive,
// matching the canonical encoding's determinism).
func (e Envelope) Equal(other Envelope) bool {
	if !valuesEqual(e.Subject, other.Subject) {
		return false
	}
	if len(e.Assertions) != len(other.Assertions) {
		return false
	}
	for i := range e.Assertions {
		if !valuesEqual(e.Assertions[i].Predicate, other.Assertions[i].Predicate) {
			return false
		}
		if !valuesEqual(e.Assertions[i].Object, other.Assertions[i].Object) {
			return false
		}
	}
	return true
}

// String renders the canonical textual form, "ur:envelope/<hex bytes>".
func (e Envelope) String() string {
	return envelopePrefix + hex.EncodeToString(Encode(e))
}

// Parse parses the textual form produced by String.
func Parse(s string) (Envelope, error) {
	rest, ok := strings.CutPrefix(s, envelopePrefix)
	if !ok {
		return Envelope{}, fmt.Errorf("envelope: missing %q prefix", envelopePrefix)
	}
	b, err := hex.DecodeString(rest)
	if err != nil {
		return Envelope{}, fmt.Errorf("envelope: invalid hex: %w", err)
	}
	return Decode(b)
}
