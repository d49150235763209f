package session

import "fmt"

// InvalidStateError indicates an operation was requested in a state that
// does not permit it.
type InvalidStateError struct {
	Op     string
	Status Status
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s while session is %s", e.Op, e.Status)
}

// OperationInFlightError indicates an extraction or enhancement call is
// already outstanding. The session never runs two model-backed operations
// concurrently; the caller must wait and re-trigger.
type OperationInFlightError struct {
	Current string
}

func (e *OperationInFlightError) Error() string {
	return fmt.Sprintf("another operation is in flight (%s); wait for it to finish", e.Current)
}

// IndexError indicates an entry index outside the document's sequence.
type IndexError struct {
	Section string
	Index   int
	Length  int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s index %d out of range (have %d entries)", e.Section, e.Index, e.Length)
}
