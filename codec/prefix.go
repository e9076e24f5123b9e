package codec

import "github.com/jrsmith-dev/faktadb"

// EAVTPrefixE returns the EAVT key prefix for "all datoms about entity e".
func EAVTPrefixE(e faktadb.EntityID) []byte {
	return encodeUint64(uint64(e))
}

// EAVTPrefixEA returns the EAVT key prefix for "datoms about entity e,
// attribute a".
func EAVTPrefixEA(e faktadb.EntityID, a faktadb.AttrID) []byte {
	return concat(encodeUint64(uint64(e)), encodeUint64(uint64(a)))
}

// EAVTPrefixEAV returns the EAVT key prefix for a fully-bound (e, a, v).
func EAVTPrefixEAV(e faktadb.EntityID, a faktadb.AttrID, v faktadb.Value) ([]byte, error) {
	vBytes, err := encodeValue(v)
	if err != nil {
		return nil, err
	}
	return concat(encodeUint64(uint64(e)), encodeUint64(uint64(a)), vBytes), nil
}

// AEVTPrefixA returns the AEVT key prefix for "all values of attribute a".
func AEVTPrefixA(a faktadb.AttrID) []byte {
	return encodeUint64(uint64(a))
}

// AEVTPrefixAE returns the AEVT key prefix for "attribute a on entity e".
func AEVTPrefixAE(a faktadb.AttrID, e faktadb.EntityID) []byte {
	return concat(encodeUint64(uint64(a)), encodeUint64(uint64(e)))
}

// AVETPrefixA returns the AVET key prefix for "attribute a, any value".
func AVETPrefixA(a faktadb.AttrID) []byte {
	return encodeUint64(uint64(a))
}

// AVETPrefixAV returns the AVET key prefix for "attribute a, value v",
// the prefix uniqueness checks and value-bound lookups scan.
func AVETPrefixAV(a faktadb.AttrID, v faktadb.Value) ([]byte, error) {
	vBytes, err := encodeValue(v)
	if err != nil {
		return nil, err
	}
	return concat(encodeUint64(uint64(a)), vBytes), nil
}

// PrefixUpperBound returns the smallest key that sorts strictly after every
// key having prefix as a prefix, i.e. an exclusive end bound for a prefix
// scan. It does so by incrementing the last byte that is not 0xFF and
// truncating everything after it. If prefix consists entirely of 0xFF
// bytes (or is empty), there is no finite upper bound and the second
// return value is false; the caller should treat the scan as open-ended.
func PrefixUpperBound(prefix []byte) ([]byte, bool) {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] != 0xFF {
			end[i]++
			return end[:i+1], true
		}
	}
	return nil, false
}
