package series

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingData indicates no sample exists for a requested chain.
	ErrMissingData = errors.New("series: no sample for chain")
	// ErrEmptySeries indicates a sample is present but has zero rows.
	ErrEmptySeries = errors.New("series: empty sample")
)

// InsufficientSampleError reports that a sub-analysis needs more rows than
// the series provides. The affected sub-report is omitted; the run continues.
type InsufficientSampleError struct {
	Analysis string
	Need     int
	Have     int
}

func (e *InsufficientSampleError) Error() string {
	return fmt.Sprintf("series: %s requires at least %d records, have %d", e.Analysis, e.Need, e.Have)
}
