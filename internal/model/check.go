package model

// CheckStatus is the outcome of a doctor check.
type CheckStatus string

const (
	CheckStatusOK      CheckStatus = "ok"
	CheckStatusWarning CheckStatus = "warning"
	// CheckStatusError makes the doctor command fail.
	CheckStatusError CheckStatus = "error"
)

// CheckResult is the result of a single doctor check.
type CheckResult struct {
	// ID identifies the check, like "model_credentials" or "store_reachable".
	ID      string
	Message string
	Status  CheckStatus
}

// CountByStatus counts the warnings and errors of a doctor run.
func CountByStatus(results []CheckResult) (warnings, errors int) {
	for _, r := range results {
		switch r.Status {
		case CheckStatusWarning:
			warnings++
		case CheckStatusError:
			errors++
		}
	}
	return warnings, errors
}
