package sampling

import "fmt"

// These are sampling's own local error types; the planner package
// translates them into its public Err* types via the accessor functions
// below, mirroring the
// teacher's translateError pattern for turning a collaborator's errors
// into the caller-facing taxonomy.

type badArgument struct {
	Size float64
}

func (e *badArgument) Error() string { return fmt.Sprintf("bad sample argument: %g", e.Size) }

type illegalColumnType struct {
	Column string
}

func (e *illegalColumnType) Error() string {
	return fmt.Sprintf("illegal column type for sampling column %s", e.Column)
}

type illegalColumn struct {
	Column string
}

func (e *illegalColumn) Error() string {
	return fmt.Sprintf("illegal sampling column: %s", e.Column)
}

// BadArgumentSize returns the Size payload of a bad-argument error, for
// planner's error translation. ok is false if err is not that kind.
func BadArgumentSize(err error) (float64, bool) {
	if e, ok := err.(*badArgument); ok {
		return e.Size, true
	}
	return 0, false
}

// IllegalColumnTypeName returns the Column payload of an illegal-column
// -type error, for planner's error translation.
func IllegalColumnTypeName(err error) (string, bool) {
	if e, ok := err.(*illegalColumnType); ok {
		return e.Column, true
	}
	return "", false
}

// IllegalColumnName returns the Column payload of an illegal-column
// error, for planner's error translation.
func IllegalColumnName(err error) (string, bool) {
	if e, ok := err.(*illegalColumn); ok {
		return e.Column, true
	}
	return "", false
}
