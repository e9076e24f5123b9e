package storage

import (
	"github.com/jrsmith-dev/faktadb"
	"github.com/jrsmith-dev/faktadb/codec"
)

// SelectIndex picks the index to scan for r, per spec.md §4.3 (first match
// wins):
//  1. attribute and value both set  -> AVET
//  2. attribute set                 -> AEVT
//  3. entity set                    -> EAVT
//  4. otherwise                     -> AEVT (full scan)
func SelectIndex(r Restricts) codec.IndexType {
	switch {
	case r.A != nil && r.V != nil:
		return codec.AVET
	case r.A != nil:
		return codec.AEVT
	case r.E != nil:
		return codec.EAVT
	default:
		return codec.AEVT
	}
}

// KeyRange computes the [start, end) byte range to scan on the given
// index for r. end is nil when the prefix has no finite upper bound (a
// full-index scan, or a prefix of entirely 0xFF bytes).
func KeyRange(index codec.IndexType, r Restricts) (start, end []byte, err error) {
	var prefix []byte

	switch index {
	case codec.AVET:
		switch {
		case r.A != nil && r.V != nil:
			prefix, err = codec.AVETPrefixAV(*r.A, *r.V)
		case r.A != nil:
			prefix = codec.AVETPrefixA(*r.A)
		}
	case codec.AEVT:
		switch {
		case r.A != nil && r.E != nil:
			prefix = codec.AEVTPrefixAE(*r.A, *r.E)
		case r.A != nil:
			prefix = codec.AEVTPrefixA(*r.A)
		}
	case codec.EAVT:
		switch {
		case r.E != nil && r.A != nil:
			prefix = codec.EAVTPrefixEA(*r.E, *r.A)
		case r.E != nil:
			prefix = codec.EAVTPrefixE(*r.E)
		}
	}
	if err != nil {
		return nil, nil, err
	}
	if len(prefix) == 0 {
		return nil, nil, nil
	}
	if upper, ok := codec.PrefixUpperBound(prefix); ok {
		return prefix, upper, nil
	}
	return prefix, nil, nil
}

// matches reports whether d satisfies every bound position of r. KeyRange
// narrows a scan to a byte prefix that is necessary but not always
// sufficient (e.g. an AEVT scan bound only by attribute still needs a
// value check), so every backend runs datoms through matches before
// yielding them.
func matches(r Restricts, d faktadb.Datom) bool {
	if r.E != nil && *r.E != d.E {
		return false
	}
	if r.A != nil && *r.A != d.A {
		return false
	}
	if r.V != nil && faktadb.CompareValues(*r.V, d.V) != 0 {
		return false
	}
	return true
}
