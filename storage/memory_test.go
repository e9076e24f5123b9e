package storage

import (
	"context"
	"testing"

	"github.com/jrsmith-dev/faktadb"
)

func drain(t *testing.T, it Iterator) []faktadb.Datom {
	t.Helper()
	defer it.Close()
	var out []faktadb.Datom
	for it.Next() {
		out = append(out, it.Datom())
	}
	if err := it.Err(); err != nil {
		t.Fatalf("iterator error: %v", err)
	}
	return out
}

func entity(e faktadb.EntityID) *faktadb.EntityID { return &e }
func attr(a faktadb.AttrID) *faktadb.AttrID       { return &a }
func val(v faktadb.Value) *faktadb.Value          { return &v }
func tx(t faktadb.TxID) *faktadb.TxID             { return &t }

func TestMemoryStoreWriteAndFindByEntity(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	err := s.Write(ctx, []faktadb.Datom{
		faktadb.New(1, 10, faktadb.Str("alice"), 100),
		faktadb.New(1, 11, faktadb.I64(30), 100),
		faktadb.New(2, 10, faktadb.Str("bob"), 100),
	})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	it, err := s.Find(ctx, Restricts{E: entity(1)})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	got := drain(t, it)
	if len(got) != 2 {
		t.Fatalf("expected 2 datoms for entity 1, got %d: %v", len(got), got)
	}
}

func TestMemoryStoreRetractionHidesDatom(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Write(ctx, []faktadb.Datom{
		faktadb.New(1, 10, faktadb.Str("alice"), 100),
	}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Write(ctx, []faktadb.Datom{
		faktadb.NewRetraction(1, 10, faktadb.Str("alice"), 101),
	}); err != nil {
		t.Fatalf("Write retract: %v", err)
	}

	it, err := s.Find(ctx, Restricts{E: entity(1)})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	got := drain(t, it)
	if len(got) != 0 {
		t.Fatalf("expected retracted datom to be hidden, got %v", got)
	}
}

func TestMemoryStoreCardinalityOneReplacement(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Write(ctx, []faktadb.Datom{
		faktadb.New(1, 10, faktadb.I64(1), 100),
	}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Write(ctx, []faktadb.Datom{
		faktadb.NewRetraction(1, 10, faktadb.I64(1), 101),
		faktadb.New(1, 10, faktadb.I64(2), 101),
	}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	it, err := s.Find(ctx, Restricts{E: entity(1), A: attr(10)})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	got := drain(t, it)
	if len(got) != 1 || !faktadb.Equal(got[0].V, faktadb.I64(2)) {
		t.Fatalf("expected exactly one live value of 2, got %v", got)
	}
}

func TestMemoryStoreAsOfSnapshot(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Write(ctx, []faktadb.Datom{
		faktadb.New(1, 10, faktadb.I64(1), 100),
	}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Write(ctx, []faktadb.Datom{
		faktadb.NewRetraction(1, 10, faktadb.I64(1), 101),
		faktadb.New(1, 10, faktadb.I64(2), 101),
	}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	it, err := s.Find(ctx, Restricts{E: entity(1), A: attr(10), TxFilter: tx(100)})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	got := drain(t, it)
	if len(got) != 1 || !faktadb.Equal(got[0].V, faktadb.I64(1)) {
		t.Fatalf("expected as-of value 1 at tx 100, got %v", got)
	}

	it2, err := s.Find(ctx, Restricts{E: entity(1), A: attr(10), TxFilter: tx(99)})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got2 := drain(t, it2); len(got2) != 0 {
		t.Fatalf("expected no value visible before tx 100, got %v", got2)
	}
}

func TestMemoryStoreFindByAttributeAndValue(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Write(ctx, []faktadb.Datom{
		faktadb.New(1, 10, faktadb.Str("alice"), 100),
		faktadb.New(2, 10, faktadb.Str("bob"), 100),
		faktadb.New(3, 10, faktadb.Str("alice"), 100),
	}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	v := faktadb.Str("alice")
	it, err := s.Find(ctx, Restricts{A: attr(10), V: &v})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	got := drain(t, it)
	if len(got) != 2 {
		t.Fatalf("expected 2 entities named alice, got %d", len(got))
	}
}

func TestMemoryStoreSnapshotIsolatesWriter(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Write(ctx, []faktadb.Datom{faktadb.New(1, 10, faktadb.I64(1), 100)}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	snap := s.Snapshot()

	if err := s.Write(ctx, []faktadb.Datom{faktadb.New(2, 10, faktadb.I64(2), 101)}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	it, err := snap.Find(ctx, Restricts{E: entity(2)})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got := drain(t, it); len(got) != 0 {
		t.Fatalf("expected snapshot to be isolated from later write, got %v", got)
	}
}

func TestRestrictsRejectsConflictingTxFields(t *testing.T) {
	r := Restricts{Tx: tx(5), TxFilter: tx(10)}
	if err := r.Validate(); err != ErrConflictingTxRestrict {
		t.Fatalf("expected ErrConflictingTxRestrict, got %v", err)
	}
}

func TestSelectIndexRules(t *testing.T) {
	v := faktadb.I64(1)
	cases := []struct {
		name string
		r    Restricts
		want string
	}{
		{"attr+value", Restricts{A: attr(1), V: &v}, "AVET"},
		{"attr only", Restricts{A: attr(1)}, "AEVT"},
		{"entity only", Restricts{E: entity(1)}, "EAVT"},
		{"nothing bound", Restricts{}, "AEVT"},
	}
	for _, c := range cases {
		if got := SelectIndex(c.r).String(); got != c.want {
			t.Errorf("%s: got %s, want %s", c.name, got, c.want)
		}
	}
}
