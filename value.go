// Package faktadb implements the core of a simplified Datomic-style
// immutable fact database: a typed value model, an append-only Datom
// record, and the total ordering the key codec relies on.
package faktadb

import "fmt"

// EntityID identifies an entity. Zero is never a valid entity id.
type EntityID uint64

// AttrID identifies an attribute. Attributes are themselves entities, so
// AttrID and EntityID share a numbering space; the distinct type exists so
// the compiler catches an attribute id used where an entity id belongs.
type AttrID uint64

// TxID identifies a transaction. Transaction ids are strictly increasing
// and double as the entity id of the transaction itself.
type TxID uint64

// Value is any value storable as the V position of a Datom. The valid
// concrete types are: untyped nil, int64, uint64, Decimal, string, and
// EntityID (used as a reference to another entity). Any other concrete
// type is a programmer error.
type Value interface{}

// ValueType tags a Value's variant. It is the first byte of a value's
// encoded form (see package codec) and the declared type of an attribute.
type ValueType byte

const (
	TypeNil ValueType = iota
	TypeI64
	TypeU64
	TypeDecimal
	TypeStr
	TypeRef
)

// String renders a ValueType for diagnostics.
func (t ValueType) String() string {
	switch t {
	case TypeNil:
		return "nil"
	case TypeI64:
		return "i64"
	case TypeU64:
		return "u64"
	case TypeDecimal:
		return "decimal"
	case TypeStr:
		return "str"
	case TypeRef:
		return "ref"
	default:
		return fmt.Sprintf("unknown(%d)", byte(t))
	}
}

// I64 constructs a signed 64-bit value.
func I64(n int64) Value { return n }

// I32 constructs a signed value, coercing to I64 on construction per the
// data model's "only four numeric variants are stored" rule.
func I32(n int32) Value { return int64(n) }

// U64 constructs an unsigned 64-bit value.
func U64(n uint64) Value { return n }

// U32 constructs an unsigned value, coercing to U64 on construction.
func U32(n uint32) Value { return uint64(n) }

// Str constructs a string value.
func Str(s string) Value { return s }

// Ref constructs a reference value pointing at another entity.
func Ref(id EntityID) Value { return id }

// NilValue is the absent/unset value.
func NilValue() Value { return nil }

// Type infers the ValueType of a Value. It panics on a Go type outside the
// closed set of variants, which indicates a programmer error rather than a
// data error (every value entering the system is constructed through the
// helpers above or decoded through package codec, both of which only ever
// produce members of the closed set).
func Type(v Value) ValueType {
	switch v.(type) {
	case nil:
		return TypeNil
	case int64:
		return TypeI64
	case uint64:
		return TypeU64
	case Decimal:
		return TypeDecimal
	case string:
		return TypeStr
	case EntityID:
		return TypeRef
	default:
		panic(fmt.Sprintf("faktadb: unknown value type %T", v))
	}
}

// TypeName is a convenience for error messages.
func TypeName(v Value) string {
	return Type(v).String()
}
