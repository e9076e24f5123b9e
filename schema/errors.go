package schema

import (
	"fmt"

	"github.com/jrsmith-dev/faktadb"
)

// ResolveErrorKind distinguishes why an attribute lookup failed.
type ResolveErrorKind int

const (
	// IdentNotFound means no entity asserts the given ident via db/ident.
	IdentNotFound ResolveErrorKind = iota
	// NotAnAttribute means no db/value-type datom is visible for the id
	// (whether or not the entity has other datoms), so it cannot be used
	// as an attribute.
	NotAnAttribute
)

// ResolveError reports a failed attribute lookup, by numeric id or by
// string ident.
type ResolveError struct {
	Kind  ResolveErrorKind
	Ident string
	ID    faktadb.AttrID
}

func (e *ResolveError) Error() string {
	switch e.Kind {
	case IdentNotFound:
		return fmt.Sprintf("schema: ident %q not found", e.Ident)
	case NotAnAttribute:
		return fmt.Sprintf("schema: entity %d is not an attribute", e.ID)
	default:
		return "schema: resolve error"
	}
}
