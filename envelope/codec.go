package envelope

import (
	"encoding/binary"
	"fmt"
)

// Component B (spec.md §4.B): encode/decode form the core's only contract
// with the wire representation of an Envelope. decode(encode(e)) == e and
// encode(decode(b)) == b whenever decode succeeds; the encoding itself is
// a deterministic, canonical TLV scheme rather than the real Gordian
// Envelope CBOR form, which is an external collaborator's concern here.

type tag byte

const (
	tagNil tag = iota
	tagUnit
	tagString
	tagBytes
	tagInt64
	tagARID
)

// Encode canonically serializes e.
func Encode(e Envelope) []byte {
	var buf []byte
	buf = appendValue(buf, e.Subject)
	buf = binary.AppendUvarint(buf, uint64(len(e.Assertions)))
	for _, a := range e.Assertions {
		buf = appendValue(buf, a.Predicate)
		buf = appendValue(buf, a.Object)
	}
	return buf
}

// Decode parses bytes produced by Encode, or returns DecodeError.
func Decode(b []byte) (Envelope, error) {
	subject, rest, err := readValue(b)
	if err != nil {
		return Envelope{}, fmt.Errorf("envelope: decode subject: %w", err)
	}

	count, rest, err := readUvarint(rest)
	if err != nil {
		return Envelope{}, fmt.Errorf("envelope: decode assertion count: %w", err)
	}

	e := Envelope{Subject: subject}
	for i := uint64(0); i < count; i++ {
		var pred, obj Value
		pred, rest, err = readValue(rest)
		if err != nil {
			return Envelope{}, fmt.Errorf("envelope: decode assertion %d predicate: %w", i, err)
		}
		obj, rest, err = readValue(rest)
		if err != nil {
			return Envelope{}, fmt.Errorf("envelope: decode assertion %d object: %w", i, err)
		}
		e.Assertions = append(e.Assertions, Assertion{Predicate: pred, Object: obj})
	}
	if len(rest) != 0 {
		return Envelope{}, fmt.Errorf("envelope: %d trailing bytes after decode", len(rest))
	}
	return e, nil
}

func appendValue(buf []byte, v Value) []byte {
	switch vv := v.(type) {
	case nil:
		return append(buf, byte(tagNil))
	case Unit:
		return append(buf, byte(tagUnit))
	case string:
		buf = append(buf, byte(tagString))
		buf = binary.AppendUvarint(buf, uint64(len(vv)))
		return append(buf, vv...)
	case []byte:
		buf = append(buf, byte(tagBytes))
		buf = binary.AppendUvarint(buf, uint64(len(vv)))
		return append(buf, vv...)
	case int64:
		buf = append(buf, byte(tagInt64))
		var tmp [8]byte
		binary.BigEndian.PutUint64(tmp[:], uint64(vv))
		return append(buf, tmp[:]...)
	case ARID:
		buf = append(buf, byte(tagARID))
		return append(buf, vv[:]...)
	default:
		panic(fmt.Sprintf("envelope: unsupported value type %T", v))
	}
}

func readValue(b []byte) (Value, []byte, error) {
	if len(b) < 1 {
		return nil, nil, fmt.Errorf("envelope: truncated value tag")
	}
	t, rest := tag(b[0]), b[1:]
	switch t {
	case tagNil:
		return nil, rest, nil
	case tagUnit:
		return Unit{}, rest, nil
	case tagString:
		n, rest2, err := readUvarint(rest)
		if err != nil {
			return nil, nil, err
		}
		if uint64(len(rest2)) < n {
			return nil, nil, fmt.Errorf("envelope: truncated string")
		}
		return string(rest2[:n]), rest2[n:], nil
	case tagBytes:
		n, rest2, err := readUvarint(rest)
		if err != nil {
			return nil, nil, err
		}
		if uint64(len(rest2)) < n {
			return nil, nil, fmt.Errorf("envelope: truncated bytes")
		}
		out := make([]byte, n)
		copy(out, rest2[:n])
		return out, rest2[n:], nil
	case tagInt64:
		if len(rest) < 8 {
			return nil, nil, fmt.Errorf("envelope: truncated int64")
		}
		return int64(binary.BigEndian.Uint64(rest[:8])), rest[8:], nil
	case tagARID:
		if len(rest) < ARIDSize {
			return nil, nil, fmt.Errorf("envelope: truncated arid")
		}
		a, err := ARIDFromBytes(rest[:ARIDSize])
		if err != nil {
			return nil, nil, err
		}
		return a, rest[ARIDSize:], nil
	default:
		return nil, nil, fmt.Errorf("envelope: unknown value tag %d", t)
	}
}

func readUvarint(b []byte) (uint64, []byte, error) {
	n, k := binary.Uvarint(b)
	if k <= 0 {
		return 0, nil, fmt.Errorf("envelope: malformed varint")
	}
	return n, b[k:], nil
}
