package codec

import (
	"bytes"
	"sort"
	"testing"

	"github.com/jrsmith-dev/faktadb"
)

func TestEncodeDecodeDatomRoundTrip(t *testing.T) {
	dec, _ := faktadb.DecimalFromString("3.14")
	datoms := []faktadb.Datom{
		faktadb.New(1, 2, faktadb.I64(-42), 10),
		faktadb.New(1, 2, faktadb.U64(42), 10),
		faktadb.New(1, 2, faktadb.Str("hello"), 10),
		faktadb.New(1, 2, faktadb.Ref(99), 10),
		faktadb.New(1, 2, dec, 10),
		faktadb.NewRetraction(1, 2, faktadb.Str("hello"), 11),
		faktadb.New(1, 2, faktadb.NilValue(), 10),
	}

	for _, idx := range []IndexType{EAVT, AEVT, AVET} {
		for _, d := range datoms {
			key, err := EncodeDatom(idx, d)
			if err != nil {
				t.Fatalf("EncodeDatom(%s, %s): %v", idx, d, err)
			}
			got, err := DecodeDatom(idx, key)
			if err != nil {
				t.Fatalf("DecodeDatom(%s, %x): %v", idx, key, err)
			}
			if got.E != d.E || got.A != d.A || got.T != d.T || got.Op != d.Op {
				t.Fatalf("round trip mismatch for %s under %s: got %s", d, idx, got)
			}
			if faktadb.CompareValues(got.V, d.V) != 0 {
				t.Fatalf("round trip value mismatch for %s under %s: got %v", d, idx, got.V)
			}
		}
	}
}

func TestEmbeddedNULRejected(t *testing.T) {
	d := faktadb.New(1, 2, faktadb.Str("bad\x00value"), 10)
	if _, err := EncodeDatom(EAVT, d); err == nil {
		t.Fatalf("expected error encoding embedded NUL")
	}
}

func TestEAVTKeyOrderMatchesEntityThenAttributeThenValueThenTx(t *testing.T) {
	type tuple struct {
		e faktadb.EntityID
		a faktadb.AttrID
		v faktadb.Value
		t faktadb.TxID
	}
	tuples := []tuple{
		{1, 1, faktadb.I64(1), 1},
		{1, 1, faktadb.I64(1), 2},
		{1, 1, faktadb.I64(2), 1},
		{1, 2, faktadb.I64(0), 1},
		{2, 1, faktadb.I64(0), 1},
	}

	var keys [][]byte
	for _, tt := range tuples {
		k, err := EncodeDatom(EAVT, faktadb.New(tt.e, tt.a, tt.v, tt.t))
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		keys = append(keys, k)
	}

	sorted := make([][]byte, len(keys))
	copy(sorted, keys)
	sort.Slice(sorted, func(i, j int) bool { return bytes.Compare(sorted[i], sorted[j]) < 0 })
	for i := range keys {
		if !bytes.Equal(keys[i], sorted[i]) {
			t.Fatalf("expected insertion order to already be key order; tuple %d out of place", i)
		}
	}
}

func TestAssertAndRetractShareKeyPrefixUpToOp(t *testing.T) {
	assert, err := EncodeDatom(EAVT, faktadb.New(1, 2, faktadb.I64(5), 10))
	if err != nil {
		t.Fatalf("encode assert: %v", err)
	}
	retract, err := EncodeDatom(EAVT, faktadb.NewRetraction(1, 2, faktadb.I64(5), 10))
	if err != nil {
		t.Fatalf("encode retract: %v", err)
	}
	if len(assert) != len(retract) {
		t.Fatalf("expected equal length keys")
	}
	prefixLen := len(assert) - opWidth
	if !bytes.Equal(assert[:prefixLen], retract[:prefixLen]) {
		t.Fatalf("expected identical key prefix up to the op byte")
	}
	if assert[prefixLen] == retract[prefixLen] {
		t.Fatalf("expected differing op byte")
	}
}

func TestPrefixUpperBound(t *testing.T) {
	end, ok := PrefixUpperBound([]byte{0x01, 0x02})
	if !ok || !bytes.Equal(end, []byte{0x01, 0x03}) {
		t.Fatalf("got %x, %v", end, ok)
	}

	end, ok = PrefixUpperBound([]byte{0x01, 0xFF})
	if !ok || !bytes.Equal(end, []byte{0x02}) {
		t.Fatalf("expected carry to truncate trailing 0xFF, got %x, %v", end, ok)
	}

	_, ok = PrefixUpperBound([]byte{0xFF, 0xFF})
	if ok {
		t.Fatalf("expected no finite upper bound for all-0xFF prefix")
	}
}

func TestEAVTPrefixIsKeyPrefixOfFullEncoding(t *testing.T) {
	d := faktadb.New(7, 3, faktadb.I64(9), 5)
	full, err := EncodeDatom(EAVT, d)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	prefix := EAVTPrefixE(7)
	if !bytes.HasPrefix(full, prefix) {
		t.Fatalf("expected %x to have prefix %x", full, prefix)
	}
	prefix2 := EAVTPrefixEA(7, 3)
	if !bytes.HasPrefix(full, prefix2) {
		t.Fatalf("expected %x to have prefix %x", full, prefix2)
	}
	prefix3, err := EAVTPrefixEAV(7, 3, faktadb.I64(9))
	if err != nil {
		t.Fatalf("prefix3: %v", err)
	}
	if !bytes.HasPrefix(full, prefix3) {
		t.Fatalf("expected %x to have prefix %x", full, prefix3)
	}
}
