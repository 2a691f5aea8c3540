package domain

// Severity classifies a single farm-cycle step. Only fatal results abort the
// cycle; degraded steps keep the main path going with a safe default.
type Severity string

const (
	SeverityOK       Severity = "ok"
	SeverityDegraded Severity = "degraded"
	SeverityFatal    Severity = "fatal"
)

type StepResult struct {
	Severity Severity
	Cause    string
	Err      error
}

func StepOK() StepResult {
	return StepResult{Severity: SeverityOK}
}

func StepDegraded(cause string, err error) StepResult {
	return StepResult{Severity: SeverityDegraded, Cause: cause, Err: err}
}

func StepFatal(cause string, err error) StepResult {
	return StepResult{Severity: SeverityFatal, Cause: cause, Err: err}
}

func (r StepResult) Fatal() bool {
	return r.Severity == SeverityFatal
}
