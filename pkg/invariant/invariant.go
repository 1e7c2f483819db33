package invariant

import "github.com/ferrall/leasehold/pkg/types"

// a declared invariant over a value: a predicate plus the description
// reported when it fails
type Invariant[T any] struct {
	Describe string
	Holds    func(T) bool
}

// Declare is a small helper for building invariant lists inline.
func Declare[T any](describe string, holds func(T) bool) Invariant[T] {
	return Invariant[T]{Describe: describe, Holds: holds}
}

// Enforce checks the invariants in declaration order and returns an
// InvariantViolationError carrying the first failing description, or nil.
//
// The guard never calls this on its own. Callers invoke it explicitly after
// mutating a value and before releasing write access, as part of their
// transaction discipline; by then the mutation has already happened, so a
// failure reports the violation without rolling anything back.
func Enforce[T any](value T, invs ...Invariant[T]) error {
	for _, inv := range invs {
		if !inv.Holds(value) {
			return &types.InvariantViolationError{Description: inv.Describe}
		}
	}
	return nil
}
