package extract

// Record is one structured error extracted from a raw log dump.
// Records are immutable once extracted.
type Record struct {
	// Email is the affected end user's address as it appeared in the block.
	Email string `json:"email"`

	// Code is the upstream error code. Only "400" and "409" pass the
	// acceptance policy; anything else is operational noise.
	Code string `json:"code"`

	// Message is the raw error message text from the block.
	Message string `json:"message"`
}

// Actionable error codes. Other codes are system errors that never reach
// the approval workflow.
const (
	CodeBadRequest = "400"
	CodeConflict   = "409"
)
