// Package codec implements the order-preserving byte encoding of datoms
// into index-specific keys: lexicographic byte order on an encoded key
// matches the logical order of the index it was encoded for. Three
// indexes are supported, EAVT, AEVT, and AVET (see spec.md §4.2); VAET and
// TAEV are a later optimisation spec.md explicitly excludes.
package codec

import (
	"fmt"

	"github.com/jrsmith-dev/faktadb"
)

// IndexType selects one of the three maintained index orderings.
type IndexType uint8

const (
	// EAVT orders by (Entity, Attribute, Value, Tx). Primary index: "facts
	// about entity e".
	EAVT IndexType = iota
	// AEVT orders by (Attribute, Entity, Value, Tx): "all values of
	// attribute a".
	AEVT
	// AVET orders by (Attribute, Value, Entity, Tx): "who has value v for
	// attribute a", and uniqueness checks.
	AVET
)

// String renders an IndexType for diagnostics.
func (idx IndexType) String() string {
	switch idx {
	case EAVT:
		return "EAVT"
	case AEVT:
		return "AEVT"
	case AVET:
		return "AVET"
	default:
		return fmt.Sprintf("IndexType(%d)", uint8(idx))
	}
}

// EncodeDatom encodes a Datom into the byte key for the given index. The
// op flag is appended as the final byte, outside the key's logical
// prefix, so a prefix scan up to (but not including) the op byte matches
// both the assert and retract variant of the same (e, a, v, t).
func EncodeDatom(index IndexType, d faktadb.Datom) ([]byte, error) {
	vBytes, err := encodeValue(d.V)
	if err != nil {
		return nil, fmt.Errorf("codec: encoding value for %s: %w", d, err)
	}

	e := encodeUint64(uint64(d.E))
	a := encodeUint64(uint64(d.A))
	t := encodeUint64(uint64(d.T))

	var key []byte
	switch index {
	case EAVT:
		key = concat(e, a, vBytes, t)
	case AEVT:
		key = concat(a, e, vBytes, t)
	case AVET:
		key = concat(a, vBytes, e, t)
	default:
		return nil, fmt.Errorf("codec: unknown index %s", index)
	}
	return append(key, byte(d.Op)), nil
}

// DecodeDatom decodes a previously encoded key back into a Datom. Decode
// failures (truncated key, invalid tag, missing string terminator) surface
// as a *ReadError. String payloads are not checked for valid UTF-8.
func DecodeDatom(index IndexType, key []byte) (faktadb.Datom, error) {
	switch index {
	case EAVT:
		return decodeEAVT(key)
	case AEVT:
		return decodeAEVT(key)
	case AVET:
		return decodeAVET(key)
	default:
		return faktadb.Datom{}, &ReadError{Reason: fmt.Sprintf("unknown index %s", index)}
	}
}

const (
	uint64Width = 8
	opWidth     = 1
)

func decodeEAVT(key []byte) (faktadb.Datom, error) {
	if len(key) < 2*uint64Width {
		return faktadb.Datom{}, &ReadError{Reason: "EAVT key shorter than E+A prefix"}
	}
	e := decodeUint64(key[0:uint64Width])
	a := decodeUint64(key[uint64Width : 2*uint64Width])
	rest := key[2*uint64Width:]

	v, n, err := decodeValue(rest)
	if err != nil {
		return faktadb.Datom{}, err
	}
	rest = rest[n:]
	t, op, err := decodeTrailer(rest)
	if err != nil {
		return faktadb.Datom{}, err
	}
	return faktadb.Datom{E: faktadb.EntityID(e), A: faktadb.AttrID(a), V: v, T: faktadb.TxID(t), Op: op}, nil
}

func decodeAEVT(key []byte) (faktadb.Datom, error) {
	if len(key) < 2*uint64Width {
		return faktadb.Datom{}, &ReadError{Reason: "AEVT key shorter than A+E prefix"}
	}
	a := decodeUint64(key[0:uint64Width])
	e := decodeUint64(key[uint64Width : 2*uint64Width])
	rest := key[2*uint64Width:]

	v, n, err := decodeValue(rest)
	if err != nil {
		return faktadb.Datom{}, err
	}
	rest = rest[n:]
	t, op, err := decodeTrailer(rest)
	if err != nil {
		return faktadb.Datom{}, err
	}
	return faktadb.Datom{E: faktadb.EntityID(e), A: faktadb.AttrID(a), V: v, T: faktadb.TxID(t), Op: op}, nil
}

func decodeAVET(key []byte) (faktadb.Datom, error) {
	if len(key) < uint64Width {
		return faktadb.Datom{}, &ReadError{Reason: "AVET key shorter than A prefix"}
	}
	a := decodeUint64(key[0:uint64Width])
	rest := key[uint64Width:]

	v, n, err := decodeValue(rest)
	if err != nil {
		return faktadb.Datom{}, err
	}
	rest = rest[n:]
	if len(rest) < uint64Width {
		return faktadb.Datom{}, &ReadError{Reason: "AVET key truncated before entity"}
	}
	e := decodeUint64(rest[0:uint64Width])
	rest = rest[uint64Width:]
	t, op, err := decodeTrailer(rest)
	if err != nil {
		return faktadb.Datom{}, err
	}
	return faktadb.Datom{E: faktadb.EntityID(e), A: faktadb.AttrID(a), V: v, T: faktadb.TxID(t), Op: op}, nil
}

func decodeTrailer(rest []byte) (uint64, faktadb.Op, error) {
	if len(rest) != uint64Width+opWidth {
		return 0, 0, &ReadError{Reason: fmt.Sprintf("expected %d trailing bytes (tx+op), got %d", uint64Width+opWidth, len(rest))}
	}
	t := decodeUint64(rest[0:uint64Width])
	return t, faktadb.Op(rest[uint64Width]), nil
}

func concat(parts ...[]byte) []byte {
	size := 0
	for _, p := range parts {
		size += len(p)
	}
	out := make([]byte, 0, size)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
