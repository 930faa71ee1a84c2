package multihop

import (
	"errors"
	"strings"
	"testing"
)

func TestPlanParseError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *PlanParseError
		want string
	}{
		{
			name: "reason only",
			err:  &PlanParseError{Reason: "no JSON found in model output"},
			want: "plan parsing failed: no JSON found in model output",
		},
		{
			name: "reason with cause",
			err: &PlanParseError{
				Reason: "inference failed",
				Err:    errors.New("connection refused"),
			},
			want: "plan parsing failed: inference failed: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPlanParseError_Unwrap(t *testing.T) {
	cause := errors.New("timeout")
	err := &PlanParseError{Reason: "inference failed", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is() should find the wrapped cause")
	}

	var parseErr *PlanParseError
	if !errors.As(error(err), &parseErr) {
		t.Fatal("errors.As() should match *PlanParseError")
	}
	if parseErr.Reason != "inference failed" {
		t.Errorf("Reason = %q, want %q", parseErr.Reason, "inference failed")
	}
}

func TestPlanParseError_PreservesRawOutput(t *testing.T) {
	raw := `I cannot produce a plan for that question.`
	err := &PlanParseError{RawOutput: raw, Reason: "no JSON found in model output"}

	if err.RawOutput != raw {
		t.Errorf("RawOutput = %q, want %q", err.RawOutput, raw)
	}
}

func TestHopError_Error(t *testing.T) {
	err := &HopError{
		StepNumber: 2,
		Stage:      StageExecute,
		Err:        errors.New("syntax error"),
	}

	got := err.Error()
	if !strings.Contains(got, "hop 2") {
		t.Errorf("Error() = %q, want step number mentioned", got)
	}
	if !strings.Contains(got, StageExecute) {
		t.Errorf("Error() = %q, want stage mentioned", got)
	}
	if !strings.Contains(got, "syntax error") {
		t.Errorf("Error() = %q, want cause mentioned", got)
	}
}

func TestHopError_Unwrap(t *testing.T) {
	cause := errors.New("rejected")
	err := &HopError{StepNumber: 1, Stage: StagePolicy, Err: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is() should find the wrapped cause")
	}
}
