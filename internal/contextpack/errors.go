package contextpack

import "errors"

var (
	// ErrInvalidBudget is returned for a negative chunk budget.
	ErrInvalidBudget = errors.New("contextpack: chunk size must be zero or greater")
	// ErrInvalidHeaderMode is returned for an unknown header placement.
	ErrInvalidHeaderMode = errors.New("contextpack: unknown header mode")
	// ErrNilCounter is returned when no token counter is configured.
	ErrNilCounter = errors.New("contextpack: token counter is nil")
	// ErrNegativeCount is returned when the counter reports a negative cost.
	ErrNegativeCount = errors.New("contextpack: token counter returned a negative count")
	// ErrSplitNotConverged is returned when part labels never stabilise.
	ErrSplitNotConverged = errors.New("contextpack: part splitting did not converge")
	// ErrPlanNotConverged is returned when header fitting never stabilises.
	ErrPlanNotConverged = errors.New("contextpack: chunk planning did not converge")
)
