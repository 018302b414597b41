package curation

// ValidationError reports that an operation was invoked on an item that
// does not satisfy its preconditions, such as translating an item with no
// crawled body. Callers should not retry without changing the input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}
