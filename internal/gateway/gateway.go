// Package gateway abstracts the chat platform used for prompts, delivery,
// and identity resolution.
//
// Components publish through the Gateway interface; the Slack adapter is the
// only implementation. Keeping the port here lets the approval workflow and
// bot handlers stay platform-free and testable with fakes.
package gateway

import (
	"context"
	"errors"
)

// ErrIdentityNotFound reports that an email address resolved to no chat
// identity. Callers report it to the approver; there is no retry.
var ErrIdentityNotFound = errors.New("identity not found")

// Interactive affordance identifiers, shared between the prompt renderer
// and the callback handlers.
const (
	ActionApprove = "approve_fix"
	ActionEdit    = "edit_fix"
	ActionReject  = "reject_fix"

	// CallbackSubmitEdit identifies the edit surface's submission callback.
	CallbackSubmitEdit = "submit_edit"

	// EditBlockID and EditInputID locate the edited text in a submission.
	EditBlockID = "edit_block"
	EditInputID = "edited_text"
)

// Prompt is one interactive approval prompt: summary text plus the opaque
// payload round-tripped through every action callback.
type Prompt struct {
	Text    string
	Payload string
}

// EditSurface is the editable view opened by the edit affordance.
type EditSurface struct {
	// InitialValue pre-fills the input with the current draft body.
	InitialValue string

	// Metadata is the opaque payload carried through to submission.
	Metadata string
}

// Gateway is the chat-platform port: publish messages and prompts, open
// edit surfaces, and resolve user identities from email addresses.
type Gateway interface {
	// PostMessage sends plain text to a channel or user identity.
	PostMessage(ctx context.Context, channelID, text string) error

	// PostPrompt publishes an interactive approval prompt with
	// approve/edit/reject affordances.
	PostPrompt(ctx context.Context, channelID string, prompt Prompt) error

	// OpenEditSurface opens the editable draft view for an interaction.
	OpenEditSurface(ctx context.Context, triggerID string, surface EditSurface) error

	// ResolveEmail maps an email address to a deliverable identity.
	// Returns ErrIdentityNotFound (wrapped) when no identity exists.
	ResolveEmail(ctx context.Context, email string) (string, error)
}
