package faktadb

import "strings"

// CompareValues imposes the total order the key codec relies on: first by
// ValueType tag, then by payload in a tag-specific order-preserving form.
// It returns -1, 0, or 1.
func CompareValues(a, b Value) int {
	ta, tb := Type(a), Type(b)
	if ta != tb {
		if ta < tb {
			return -1
		}
		return 1
	}

	switch ta {
	case TypeNil:
		return 0
	case TypeI64:
		return compareInt64(a.(int64), b.(int64))
	case TypeU64:
		return compareUint64(a.(uint64), b.(uint64))
	case TypeDecimal:
		return a.(Decimal).Cmp(b.(Decimal))
	case TypeStr:
		return strings.Compare(a.(string), b.(string))
	case TypeRef:
		return compareUint64(uint64(a.(EntityID)), uint64(b.(EntityID)))
	default:
		return 0
	}
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareUint64(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Equal reports whether two values compare equal under CompareValues.
func Equal(a, b Value) bool {
	return Type(a) == Type(b) && CompareValues(a, b) == 0
}
