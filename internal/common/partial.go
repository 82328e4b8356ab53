package common

import "fmt"

// PartialFailure reports a cascade that completed with some sub-operations
// failing. The parent record is gone; FailedIDs lists the dependent records
// that could not be deleted and are now orphaned.
type PartialFailure struct {
	FailedIDs []string
	Err       error
}

func (e *PartialFailure) Error() string {
	return fmt.Sprintf("cascade completed with %d undeleted record(s): %v", len(e.FailedIDs), e.Err)
}

// Unwrap exposes the combined per-item causes (a multierr) for errors.Is/As.
func (e *PartialFailure) Unwrap() error { return e.Err }
