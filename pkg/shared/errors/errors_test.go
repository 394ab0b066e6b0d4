package errors

import (
	"fmt"
	"testing"
)

func TestOperationErrorError(t *testing.T) {
	tests := []struct {
		name     string
		err      *OperationError
		expected string
	}{
		{
			name: "full error",
			err: &OperationError{
				Operation: "set slot",
				Component: "store",
				Resource:  "analytics/complaints",
				Cause:     fmt.Errorf("value was nil"),
			},
			expected: "failed to set slot, component: store, resource: analytics/complaints, cause: value was nil",
		},
		{
			name: "minimal error",
			err: &OperationError{
				Operation: "compute rate",
				Cause:     fmt.Errorf("division by zero guarded"),
			},
			expected: "failed to compute rate, cause: division by zero guarded",
		},
		{
			name: "no cause",
			err: &OperationError{
				Operation: "validate manifest",
				Component: "loader",
			},
			expected: "failed to validate manifest, component: loader",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("OperationError.Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestOpChaining(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := Op("build annex table", cause).WithComponent("annex").WithResource("A05")

	if err.Unwrap() != cause {
		t.Fatalf("Unwrap() = %v, want %v", err.Unwrap(), cause)
	}
	want := "failed to build annex table, component: annex, resource: A05, cause: boom"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
