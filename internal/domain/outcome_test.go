package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStepResultClassification(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name     string
		step     StepResult
		severity Severity
		fatal    bool
	}{
		{"ok", StepOK(), SeverityOK, false},
		{"degraded keeps cause", StepDegraded("grant failed", cause), SeverityDegraded, false},
		{"fatal aborts", StepFatal("connect failed", cause), SeverityFatal, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.severity, tc.step.Severity)
			assert.Equal(t, tc.fatal, tc.step.Fatal())
		})
	}
}
