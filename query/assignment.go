package query

import "github.com/jrsmith-dev/faktadb"

// PartialAssignment is the variable binding map threaded through the
// depth-first join: each clause either consumes already-bound variables
// as constraints or extends the assignment with newly bound ones. The
// resolver always undoes an extension before backtracking, so one
// PartialAssignment is reused for the whole join rather than copied per
// clause.
type PartialAssignment map[Symbol]faktadb.Value

// Clone returns an independent copy, used when a caller needs to retain
// a binding set past the point where the resolver would otherwise mutate
// it (e.g. emitting one result row per leaf of the join tree).
func (a PartialAssignment) Clone() PartialAssignment {
	out := make(PartialAssignment, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}
