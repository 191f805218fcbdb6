package calltrace

import "fmt"

// An InvalidStateError reports a Start or End call that is not allowed by the
// session state machine. It is informational: the session state and the
// recorded tree are left untouched.
type InvalidStateError struct {
	Op     string
	State  SessionState
	Reason string
}

func (e *InvalidStateError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("calltrace: cannot %s session: %s", e.Op, e.Reason)
	}

	return fmt.Sprintf(
		"calltrace: cannot %s session in state %s", e.Op, e.State)
}

// A RenderError reports that flushing the report to its target failed. The
// finalized tree is retained, so End can be retried, possibly with a
// different target.
type RenderError struct {
	Target string
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("calltrace: cannot render report to %q: %v",
		e.Target, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// A HierarchyInconsistency describes a return event that could not be matched
// against the call stack. Inconsistencies are reconciled and surfaced as
// diagnostics; they never fail the traced program.
type HierarchyInconsistency struct {
	Seq        uint64
	CallableID string
	Reason     string
}

func (i HierarchyInconsistency) String() string {
	return fmt.Sprintf("%s (callable %s, seq %d)",
		i.Reason, i.CallableID, i.Seq)
}
