package schema

import (
	"context"
	"testing"

	"github.com/jrsmith-dev/faktadb/storage"
)

func newBootstrappedStore(t *testing.T) *storage.MemoryStore {
	t.Helper()
	s := storage.NewMemoryStore()
	if err := s.Write(context.Background(), BootstrapDatoms()); err != nil {
		t.Fatalf("bootstrap write: %v", err)
	}
	return s
}

func TestResolverResolvesBootstrapAttributesByIdent(t *testing.T) {
	s := newBootstrappedStore(t)
	r := NewResolver(s, 100)

	a, err := r.ResolveIdent(context.Background(), IdentIdent)
	if err != nil {
		t.Fatalf("ResolveIdent: %v", err)
	}
	if a.ID != IdentAttrID || !a.Unique {
		t.Fatalf("expected db/ident to resolve to id %d and be unique, got %+v", IdentAttrID, a)
	}
}

func TestResolverResolvesByID(t *testing.T) {
	s := newBootstrappedStore(t)
	r := NewResolver(s, 100)

	a, err := r.ResolveID(context.Background(), TxInstantAttrID)
	if err != nil {
		t.Fatalf("ResolveID: %v", err)
	}
	if a.Ident != TxInstantIdent {
		t.Fatalf("got ident %q, want %q", a.Ident, TxInstantIdent)
	}
}

func TestResolverUnknownIdentFails(t *testing.T) {
	s := newBootstrappedStore(t)
	r := NewResolver(s, 100)

	_, err := r.ResolveIdent(context.Background(), "user/nonexistent")
	re, ok := err.(*ResolveError)
	if !ok || re.Kind != IdentNotFound {
		t.Fatalf("expected IdentNotFound ResolveError, got %v", err)
	}
}

func TestResolverNonAttributeEntityFails(t *testing.T) {
	s := newBootstrappedStore(t)
	r := NewResolver(s, 100)

	_, err := r.ResolveID(context.Background(), 999)
	re, ok := err.(*ResolveError)
	if !ok || re.Kind != NotAnAttribute {
		t.Fatalf("expected NotAnAttribute ResolveError, got %v", err)
	}
}
