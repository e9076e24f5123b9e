package query

import "fmt"

// QueryErrorKind distinguishes why a query failed to compile or run.
type QueryErrorKind int

const (
	UnknownVariable QueryErrorKind = iota
	TypeMismatchInPredicate
	AggregateTypeMismatch
	ResolveFailure
	StorageFailure
)

// QueryError reports a failed compilation or evaluation.
type QueryError struct {
	Kind   QueryErrorKind
	Detail string
	Err    error
}

func (e *QueryError) Error() string {
	switch e.Kind {
	case UnknownVariable:
		return fmt.Sprintf("query: unknown variable %s", e.Detail)
	case TypeMismatchInPredicate:
		return fmt.Sprintf("query: type mismatch in predicate: %s", e.Detail)
	case AggregateTypeMismatch:
		return fmt.Sprintf("query: aggregate type mismatch: %s", e.Detail)
	case ResolveFailure:
		return fmt.Sprintf("query: resolve failure: %v", e.Err)
	case StorageFailure:
		return fmt.Sprintf("query: storage failure: %v", e.Err)
	default:
		return "query: error"
	}
}

func (e *QueryError) Unwrap() error { return e.Err }
