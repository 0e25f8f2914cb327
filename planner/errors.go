package planner

import "fmt"

// ErrUnknownColumn is returned when a query asks to return a column the
// table does not have.
type ErrUnknownColumn struct {
	Column string
}

func (e *ErrUnknownColumn) Error() string {
	return fmt.Sprintf("unknown column: %s", e.Column)
}

// ErrBadSampleArgument is returned when a SAMPLE clause's size is
// negative.
type ErrBadSampleArgument struct {
	Size float64
}

func (e *ErrBadSampleArgument) Error() string {
	return fmt.Sprintf("invalid sample size: %g", e.Size)
}

// ErrIllegalColumnType is returned when a column's declared type can't
// participate in the operation attempted against it (e.g. sampling on a
// non-numeric column).
type ErrIllegalColumnType struct {
	Column string
	Type   string
}

func (e *ErrIllegalColumnType) Error() string {
	return fmt.Sprintf("illegal type %s for column %s", e.Type, e.Column)
}

// ErrIllegalColumn is returned when a column is referenced in a context
// that forbids it, such as sampling on a column outside the primary key.
type ErrIllegalColumn struct {
	Column string
}

func (e *ErrIllegalColumn) Error() string {
	return fmt.Sprintf("illegal column: %s", e.Column)
}

// ErrLogicalError indicates a planner invariant was violated. It should
// never surface from correct input; its presence signals a planner bug.
type ErrLogicalError struct {
	Detail string
}

func (e *ErrLogicalError) Error() string {
	return fmt.Sprintf("logical error: %s", e.Detail)
}
