// Package approval manages the lifecycle of drafted remediation messages:
// presentation to approvers, the approve/edit/reject transitions, and the
// resulting delivery or report.
//
// There is no in-process table of pending requests. Each request's identity
// travels inside the opaque payload attached to its prompt, so a callback
// carries everything needed to act. The only server-side memory is a small
// LRU of already-acted request IDs used to drop duplicate callbacks.
package approval

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/remedyd/internal/draft"
	"github.com/fyrsmithlabs/remedyd/internal/gateway"
)

// actedCacheSize bounds the duplicate-callback guard. Old entries falling
// out of the cache weaken the guard to best-effort, which is acceptable:
// at-most-once delivery is not a hard guarantee here.
const actedCacheSize = 1024

// Workflow is the approval state machine over one gateway and a fixed
// approver set.
type Workflow struct {
	gateway    gateway.Gateway
	approvers  []string
	dispatcher *Dispatcher
	acted      *lru.Cache[string, struct{}]
	metrics    *Metrics
	logger     *zap.Logger
}

// NewWorkflow creates the approval workflow.
func NewWorkflow(gw gateway.Gateway, approvers []string, dispatcher *Dispatcher, logger *zap.Logger) (*Workflow, error) {
	if gw == nil {
		return nil, fmt.Errorf("gateway is required")
	}
	if len(approvers) == 0 {
		return nil, fmt.Errorf("at least one approver is required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	acted, err := lru.New[string, struct{}](actedCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create acted cache: %w", err)
	}

	return &Workflow{
		gateway:    gw,
		approvers:  approvers,
		dispatcher: dispatcher,
		acted:      acted,
		metrics:    NewMetrics(logger),
		logger:     logger,
	}, nil
}

// Present publishes an approval prompt for the draft to every configured
// approver: the Drafted -> PendingApproval transition. Each approver gets an
// independent copy of the same prompt; any one of them may act on it.
//
// Publishing is best-effort per approver. The request reaches
// PendingApproval if at least one prompt went out.
func (w *Workflow) Present(ctx context.Context, d draft.Draft) (*Request, error) {
	payload := Payload{
		ID:        uuid.NewString(),
		Record:    d.Record,
		DraftBody: d.Body,
	}

	encoded, err := payload.Encode()
	if err != nil {
		return nil, err
	}

	req := &Request{
		Draft:     d,
		Approvers: w.approvers,
		State:     StateDrafted,
	}

	prompt := gateway.Prompt{
		Text:    promptText(d),
		Payload: encoded,
	}

	published := 0
	for _, approver := range w.approvers {
		if err := w.gateway.PostPrompt(ctx, approver, prompt); err != nil {
			w.logger.Error("failed to publish approval prompt",
				zap.String("approver", approver),
				zap.String("request_id", payload.ID),
				zap.Error(err))
			continue
		}
		published++
		w.metrics.recordPrompt(ctx)
	}

	if published == 0 {
		return req, fmt.Errorf("failed to publish prompt to any approver")
	}

	req.State = StatePendingApproval
	w.logger.Info("approval prompt published",
		zap.String("request_id", payload.ID),
		zap.String("email", d.Record.Email),
		zap.Int("approvers", published))

	return req, nil
}

// Approve handles an approve callback: PendingApproval -> Approved.
// Resolution and delivery run on the dispatcher; the caller only
// acknowledges the callback.
func (w *Workflow) Approve(p Payload) {
	if !w.firstAction(p.ID) {
		return
	}

	w.submit("approve", func(ctx context.Context) {
		w.resolveAndDeliver(ctx, "approve", p.Record.Email, p.DraftBody,
			fmt.Sprintf("Message sent to user (%s)", p.Record.Email))
	})
}

// Edit handles an edit callback by opening the editable surface pre-filled
// with the current draft body. Not a terminal transition: externally
// visible state changes only on submission.
func (w *Workflow) Edit(p Payload, triggerID string) {
	encoded, err := p.Encode()
	if err != nil {
		w.logger.Error("failed to re-encode payload for edit surface",
			zap.String("request_id", p.ID),
			zap.Error(err))
		return
	}

	w.submit("edit", func(ctx context.Context) {
		err := w.gateway.OpenEditSurface(ctx, triggerID, gateway.EditSurface{
			InitialValue: p.DraftBody,
			Metadata:     encoded,
		})
		if err != nil {
			w.logger.Error("failed to open edit surface",
				zap.String("request_id", p.ID),
				zap.Error(err))
		}
	})
}

// SubmitEdit handles submission of the edit surface: PendingApproval ->
// Edited. Same resolve-and-deliver path as Approve, with the edited body.
func (w *Workflow) SubmitEdit(p Payload, editedBody string) {
	if !w.firstAction(p.ID) {
		return
	}

	w.submit("submit_edit", func(ctx context.Context) {
		w.resolveAndDeliver(ctx, "submit_edit", p.Record.Email, editedBody,
			fmt.Sprintf("Edited message sent to user (%s)", p.Record.Email))
	})
}

// Reject handles a reject callback: PendingApproval -> Rejected. No
// delivery occurs; approvers are told nothing was done.
func (w *Workflow) Reject(p Payload) {
	if !w.firstAction(p.ID) {
		return
	}

	w.submit("reject", func(ctx context.Context) {
		w.metrics.recordRejection(ctx)
		w.report(ctx, "Message rejected. No action taken.")
	})
}

// resolveAndDeliver resolves the record's email to an identity, delivers
// the body, and reports the outcome to the approvers. Resolution failure is
// terminal: the approvers get the underlying detail and no retry happens.
func (w *Workflow) resolveAndDeliver(ctx context.Context, transition, email, body, successReport string) {
	userID, err := w.gateway.ResolveEmail(ctx, email)
	if err != nil {
		reason := "transport"
		if errors.Is(err, gateway.ErrIdentityNotFound) {
			reason = "identity_not_found"
		}
		w.metrics.recordDeliveryFailure(ctx, reason)
		w.logger.Warn("identity resolution failed",
			zap.String("email", email),
			zap.Error(err))
		w.report(ctx, fmt.Sprintf("Could not find a user for %s. Please send manually.\nError: %v", email, err))
		return
	}

	if err := w.gateway.PostMessage(ctx, userID, body); err != nil {
		w.metrics.recordDeliveryFailure(ctx, "transport")
		w.logger.Error("delivery failed",
			zap.String("email", email),
			zap.String("user_id", userID),
			zap.Error(err))
		w.report(ctx, fmt.Sprintf("Could not deliver message to %s.\nError: %v", email, err))
		return
	}

	w.metrics.recordDelivery(ctx, transition)
	w.logger.Info("remediation delivered",
		zap.String("email", email),
		zap.String("transition", transition))
	w.report(ctx, successReport)
}

// report sends a status message to every approver, best-effort.
func (w *Workflow) report(ctx context.Context, text string) {
	for _, approver := range w.approvers {
		if err := w.gateway.PostMessage(ctx, approver, text); err != nil {
			w.logger.Warn("failed to report to approver",
				zap.String("approver", approver),
				zap.Error(err))
		}
	}
}

// firstAction records the request ID and reports whether this is the first
// terminal callback seen for it. Duplicates are dropped with a log.
func (w *Workflow) firstAction(requestID string) bool {
	if _, seen := w.acted.Get(requestID); seen {
		w.metrics.recordDuplicate(context.Background())
		w.logger.Info("dropping duplicate callback",
			zap.String("request_id", requestID))
		return false
	}
	w.acted.Add(requestID, struct{}{})
	return true
}

// submit queues a side effect, logging the rare queue-full drop.
func (w *Workflow) submit(name string, fn func(context.Context)) {
	if !w.dispatcher.Submit(name, fn) {
		w.logger.Error("failed to queue approval side effect",
			zap.String("task", name))
	}
}

// promptText renders the approver-facing summary for a draft.
func promptText(d draft.Draft) string {
	return fmt.Sprintf("*Detected Error*\nEmail: %s\nCode: %s\nError: %s\n\n*Draft Message:*\n%s",
		d.Record.Email, d.Record.Code, d.Record.Message, d.Body)
}
