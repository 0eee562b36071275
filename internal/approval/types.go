package approval

import (
	"encoding/json"
	"fmt"

	"github.com/fyrsmithlabs/remedyd/internal/draft"
	"github.com/fyrsmithlabs/remedyd/internal/extract"
)

// State is the lifecycle state of one approval request.
type State string

const (
	// StateDrafted is the initial state: a draft exists but no prompt has
	// been published.
	StateDrafted State = "drafted"

	// StatePendingApproval means the prompt is in front of the approvers.
	StatePendingApproval State = "pending_approval"

	// Terminal states. A request is acted on by at most one terminal
	// transition.
	StateApproved State = "approved"
	StateEdited   State = "edited"
	StateRejected State = "rejected"
)

// Request is one approval request: a draft presented to a set of approvers.
// Requests are not persisted; once terminal they are garbage.
type Request struct {
	Draft     draft.Draft
	Approvers []string
	State     State
}

// Payload is the opaque blob round-tripped through every interactive
// callback. It carries the request's full identity, so no in-process table
// of pending requests is needed: the state lives in the round trip.
type Payload struct {
	// ID tags the request for duplicate-callback detection.
	ID string `json:"id"`

	// Record is the original extracted error record.
	Record extract.Record `json:"record"`

	// DraftBody is the composed draft text at presentation time.
	DraftBody string `json:"draft"`
}

// Encode serializes the payload for embedding in a prompt or edit surface.
func (p Payload) Encode() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode payload: %w", err)
	}
	return string(data), nil
}

// DecodePayload parses the opaque blob carried by a callback.
func DecodePayload(raw string) (Payload, error) {
	var p Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Payload{}, fmt.Errorf("failed to decode payload: %w", err)
	}
	if p.ID == "" {
		return Payload{}, fmt.Errorf("payload missing request id")
	}
	return p, nil
}
