package storage

import "github.com/jrsmith-dev/faktadb"

// visibleIterator wraps a raw backend iterator (one that simply decodes
// every key in a scanned range into a Datom) and applies the read
// semantics spec.md §4.3 describes: restrict to datoms visible at the
// requested transaction time, then hide any (e, a, v) group whose latest
// visible entry is a retraction.
//
// Grouping relies on all three indexes placing E, A, and V (in some
// permutation) before T: datoms sharing an (e, a, v) triple are always
// contiguous in key order, regardless of which index is being scanned.
type visibleIterator struct {
	raw       Iterator
	r         Restricts
	hasRawCur bool
	rawCur    faktadb.Datom
	rawEOF    bool
	err       error
	cur       faktadb.Datom
}

func newVisibleIterator(raw Iterator, r Restricts) *visibleIterator {
	return &visibleIterator{raw: raw, r: r}
}

func (it *visibleIterator) ensureRawCur() bool {
	if it.hasRawCur {
		return true
	}
	if it.rawEOF {
		return false
	}
	if it.raw.Next() {
		it.rawCur = it.raw.Datom()
		it.hasRawCur = true
		return true
	}
	it.rawEOF = true
	if err := it.raw.Err(); err != nil {
		it.err = err
	}
	return false
}

func sameGroup(a, b faktadb.Datom) bool {
	return a.E == b.E && a.A == b.A && faktadb.CompareValues(a.V, b.V) == 0
}

func (it *visibleIterator) nextGroup() ([]faktadb.Datom, bool) {
	if !it.ensureRawCur() {
		return nil, false
	}
	first := it.rawCur
	it.hasRawCur = false
	group := []faktadb.Datom{first}
	for it.ensureRawCur() && sameGroup(first, it.rawCur) {
		group = append(group, it.rawCur)
		it.hasRawCur = false
	}
	return group, true
}

// resolveGroup applies the tx-time bound and retraction-hiding rule to one
// (e, a, v) group, returning the live datom (if any) for the group.
func resolveGroup(group []faktadb.Datom, r Restricts) (faktadb.Datom, bool) {
	if len(group) == 0 || !matches(r, group[0]) {
		return faktadb.Datom{}, false
	}

	var latest faktadb.Datom
	found := false
	for _, d := range group {
		if r.Tx != nil && d.T != *r.Tx {
			continue
		}
		if r.TxFilter != nil && d.T > *r.TxFilter {
			continue
		}
		latest = d
		found = true
	}
	if !found || latest.Op != faktadb.Assert {
		return faktadb.Datom{}, false
	}
	return latest, true
}

func (it *visibleIterator) Next() bool {
	for {
		group, ok := it.nextGroup()
		if !ok {
			return false
		}
		if d, visible := resolveGroup(group, it.r); visible {
			it.cur = d
			return true
		}
	}
}

func (it *visibleIterator) Datom() faktadb.Datom { return it.cur }

func (it *visibleIterator) Err() error { return it.err }

func (it *visibleIterator) Close() error { return it.raw.Close() }
