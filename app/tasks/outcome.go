package tasks

// Stage outcomes. Pipeline stages never fail their scheduled invocation
// over a single item's problem; they downgrade it into an outcome and
// persist the failure on the affected record instead.
const (
	OutcomeSuccess          = "success"
	OutcomeNoItems          = "no_items"
	OutcomeFailed           = "failed"
	OutcomePermissionDenied = "permission_denied"
)
