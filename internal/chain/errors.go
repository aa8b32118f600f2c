package chain

import "fmt"

// UnresolvedPreconditionError is returned when an operation needs its target
// materialized in the warehouse but the reference only exists in memory.
type UnresolvedPreconditionError struct {
	FQTN      string
	Operation string
}

func (e *UnresolvedPreconditionError) Error() string {
	return fmt.Sprintf(
		"cannot %s %s: the object does not exist in the warehouse yet, save the chain first",
		e.Operation, e.FQTN,
	)
}

// EmptyChainError is returned when an operation needs at least one transform.
type EmptyChainError struct {
	Operation string
}

func (e *EmptyChainError) Error() string {
	return fmt.Sprintf("cannot %s a chain without transforms", e.Operation)
}
