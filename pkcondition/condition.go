// Package pkcondition defines the contract the planner consumes for
// evaluating a compiled predicate against primary-key index boundaries,
// plus a conservative reference implementation (RangeSet) used by this
// module's own tests and by sampling's condition-tightening step.
//
// The real predicate compiler — translating a WHERE/PREWHERE AST into a
// Condition — is an external collaborator this module does not implement.
package pkcondition

import "github.com/coltree/mergetree/part"

// Condition is a compiled predicate capable of conservatively answering
// range-membership questions against a part's sparse primary key index.
//
// Implementations must be conservative: MayBeTrueInRange and MayBeTrueAfter
// may return true for a range that turns out to contain no matching rows
// (a false positive, paid for as wasted I/O), but must never return false
// for a range that does contain a match (a false negative is a correctness
// bug).
type Condition interface {
	// AlwaysTrue reports whether the condition admits every possible key,
	// short-circuiting the planner straight to the full mark range.
	AlwaysTrue() bool

	// MayBeTrueInRange reports whether any key in [left, right] could
	// satisfy the condition.
	MayBeTrueInRange(left, right part.Key) bool

	// MayBeTrueAfter reports whether any key >= left could satisfy the
	// condition. Used for the rightmost range, which has no upper bound.
	MayBeTrueAfter(left part.Key) bool

	// AddCondition tightens the condition in place by intersecting column's
	// existing constraint with r. Returns false if column does not
	// participate in the primary key this condition was compiled against.
	AddCondition(column string, r Range) bool

	// String renders the condition for debug logging.
	String() string
}
