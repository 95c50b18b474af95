package instrumentation

import "testing"

func TestNormalizeOperation(t *testing.T) {
	tests := []struct {
		operation string
		expected  string
	}{
		{OperationList, OperationList},
		{OperationInsert, OperationInsert},
		{OperationConditionalInsert, OperationConditionalInsert},
		{"delete", OperationOther},
		{"", OperationOther},
	}

	for _, tt := range tests {
		t.Run(tt.operation, func(t *testing.T) {
			if got := NormalizeOperation(tt.operation); got != tt.expected {
				t.Errorf("NormalizeOperation(%q) = %q, want %q", tt.operation, got, tt.expected)
			}
		})
	}
}

func TestNormalizeOutcome(t *testing.T) {
	tests := []struct {
		outcome  string
		expected string
	}{
		{OutcomeBooked, OutcomeBooked},
		{OutcomeConflict, OutcomeConflict},
		{OutcomeRejected, OutcomeRejected},
		{OutcomeFailed, OutcomeFailed},
		{"cancelled", StatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.outcome, func(t *testing.T) {
			if got := NormalizeOutcome(tt.outcome); got != tt.expected {
				t.Errorf("NormalizeOutcome(%q) = %q, want %q", tt.outcome, got, tt.expected)
			}
		})
	}
}
