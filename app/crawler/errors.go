package crawler

import (
	"fmt"
)

// NetworkError marks transport-level failures so pipeline stages can record
// them on the affected record and keep going instead of crashing a batch.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error fetching %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
