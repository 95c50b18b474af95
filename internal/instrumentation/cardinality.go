package instrumentation

// Cardinality management helpers for metrics.
// Label values that come from callers are folded into a fixed set so that
// a typo or a new code path cannot create unbounded series.

// Calendar gateway operation names used as metric labels.
const (
	OperationList              = "list"
	OperationInsert            = "insert"
	OperationConditionalInsert = "conditional_insert"
	OperationOther             = "other"
)

// Slot lock results used as metric labels.
const (
	LockAcquired  = "acquired"
	LockContended = "contended"
	LockError     = "error"
)

// NormalizeOperation maps an operation name to one of the known calendar
// operations, or "other".
//
// Example:
//
//	NormalizeOperation("list")    // "list"
//	NormalizeOperation("delete")  // "other"
func NormalizeOperation(operation string) string {
	switch operation {
	case OperationList, OperationInsert, OperationConditionalInsert:
		return operation
	default:
		return OperationOther
	}
}

// NormalizeOutcome maps a booking outcome to one of the known outcomes, or
// "unknown".
func NormalizeOutcome(outcome string) string {
	switch outcome {
	case OutcomeBooked, OutcomeConflict, OutcomeRejected, OutcomeFailed:
		return outcome
	default:
		return StatusUnknown
	}
}
