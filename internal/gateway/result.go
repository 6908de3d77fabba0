package gateway

import "github.com/noah-isme/sma-fee-sync/internal/models"

// ResultKind discriminates gateway call outcomes that are not transport
// failures. Callers branch on the tag instead of inspecting status codes.
type ResultKind string

const (
	ResultOK       ResultKind = "ok"
	ResultConflict ResultKind = "conflict"
)

// CreateSingleResult is the outcome of a single-fee create. On conflict the
// gateway names the record that already occupies the (student, month) slot.
type CreateSingleResult struct {
	Kind          ResultKind
	Fee           *models.FeeRecord
	ExistingFeeID string
}

// BatchResult is the outcome of a monthly batch create. On conflict the
// gateway supplies a human-readable warning for the confirmation prompt.
type BatchResult struct {
	Kind    ResultKind
	Message string
	Warning string
}
