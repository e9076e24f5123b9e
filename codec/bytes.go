package codec

import (
	"encoding/binary"
	"errors"
	"math/big"
	"strings"

	"github.com/jrsmith-dev/faktadb"
)

func encodeUint64(n uint64) []byte {
	buf := make([]byte, uint64Width)
	binary.BigEndian.PutUint64(buf, n)
	return buf
}

func decodeUint64(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}

// int64Bias flips the sign bit so that big-endian byte order on the
// biased uint64 matches numeric order on the original int64.
const int64Bias = uint64(1) << 63

func encodeInt64(n int64) []byte {
	return encodeUint64(uint64(n) ^ int64Bias)
}

func decodeInt64(b []byte) int64 {
	return int64(decodeUint64(b) ^ int64Bias)
}

// decimal128Width is the width, in bytes, of a fixed-point Decimal key
// component: a 128-bit sign-biased integer built from the Decimal's
// DecimalScale-quantized coefficient.
const decimal128Width = 16

var decimal128Bias = new(big.Int).Lsh(big.NewInt(1), 127)
var decimal128Max = new(big.Int).Lsh(big.NewInt(1), 128)

func encodeDecimal(d faktadb.Decimal) ([]byte, error) {
	coeff := d.ScaledCoefficient()
	biased := new(big.Int).Add(coeff, decimal128Bias)
	if biased.Sign() < 0 || biased.Cmp(decimal128Max) >= 0 {
		return nil, errors.New("codec: decimal magnitude exceeds 128-bit encoding range")
	}
	buf := make([]byte, decimal128Width)
	biased.FillBytes(buf)
	return buf, nil
}

func decodeDecimal(b []byte) (faktadb.Decimal, error) {
	if len(b) != decimal128Width {
		return faktadb.Decimal{}, &ReadError{Reason: "decimal key component must be 16 bytes"}
	}
	biased := new(big.Int).SetBytes(b)
	coeff := new(big.Int).Sub(biased, decimal128Bias)
	return faktadb.DecimalFromScaledCoefficient(coeff), nil
}

// encodeString returns the value's UTF-8 bytes followed by a terminating
// 0x00. Embedded NUL bytes are rejected since they would otherwise corrupt
// the boundary a decoder relies on to find the end of the string.
func encodeString(s string) ([]byte, error) {
	if strings.IndexByte(s, 0x00) >= 0 {
		return nil, ErrEmbeddedNUL
	}
	buf := make([]byte, 0, len(s)+1)
	buf = append(buf, s...)
	buf = append(buf, 0x00)
	return buf, nil
}

// decodeString reads a NUL-terminated string starting at b[0], returning
// the decoded string and the number of bytes consumed (including the
// terminator).
func decodeString(b []byte) (string, int, error) {
	i := strings_IndexByte(b, 0x00)
	if i < 0 {
		return "", 0, &ReadError{Reason: "string value missing NUL terminator"}
	}
	return string(b[:i]), i + 1, nil
}

func strings_IndexByte(b []byte, c byte) int {
	for i, x := range b {
		if x == c {
			return i
		}
	}
	return -1
}

// encodeValue writes the value's 1-byte type tag followed by its
// tag-specific payload.
func encodeValue(v faktadb.Value) ([]byte, error) {
	tag := faktadb.Type(v)
	switch tag {
	case faktadb.TypeNil:
		return []byte{byte(tag)}, nil
	case faktadb.TypeI64:
		return append([]byte{byte(tag)}, encodeInt64(v.(int64))...), nil
	case faktadb.TypeU64:
		return append([]byte{byte(tag)}, encodeUint64(v.(uint64))...), nil
	case faktadb.TypeDecimal:
		payload, err := encodeDecimal(v.(faktadb.Decimal))
		if err != nil {
			return nil, err
		}
		return append([]byte{byte(tag)}, payload...), nil
	case faktadb.TypeStr:
		payload, err := encodeString(v.(string))
		if err != nil {
			return nil, err
		}
		return append([]byte{byte(tag)}, payload...), nil
	case faktadb.TypeRef:
		return append([]byte{byte(tag)}, encodeUint64(uint64(v.(faktadb.EntityID)))...), nil
	default:
		return nil, errors.New("codec: cannot encode unknown value type")
	}
}

// decodeValue reads a tagged value starting at b[0], returning the value
// and the number of bytes consumed (tag byte included).
func decodeValue(b []byte) (faktadb.Value, int, error) {
	if len(b) < 1 {
		return nil, 0, &ReadError{Reason: "value missing type tag"}
	}
	tag := faktadb.ValueType(b[0])
	payload := b[1:]

	switch tag {
	case faktadb.TypeNil:
		return nil, 1, nil
	case faktadb.TypeI64:
		if len(payload) < uint64Width {
			return nil, 0, &ReadError{Reason: "truncated i64 value"}
		}
		return decodeInt64(payload[:uint64Width]), 1 + uint64Width, nil
	case faktadb.TypeU64:
		if len(payload) < uint64Width {
			return nil, 0, &ReadError{Reason: "truncated u64 value"}
		}
		return decodeUint64(payload[:uint64Width]), 1 + uint64Width, nil
	case faktadb.TypeDecimal:
		if len(payload) < decimal128Width {
			return nil, 0, &ReadError{Reason: "truncated decimal value"}
		}
		d, err := decodeDecimal(payload[:decimal128Width])
		if err != nil {
			return nil, 0, err
		}
		return d, 1 + decimal128Width, nil
	case faktadb.TypeStr:
		s, n, err := decodeString(payload)
		if err != nil {
			return nil, 0, err
		}
		return s, 1 + n, nil
	case faktadb.TypeRef:
		if len(payload) < uint64Width {
			return nil, 0, &ReadError{Reason: "truncated ref value"}
		}
		return faktadb.EntityID(decodeUint64(payload[:uint64Width])), 1 + uint64Width, nil
	default:
		return nil, 0, &ReadError{Reason: "unknown value type tag"}
	}
}
