package bot

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/remedyd/internal/approval"
	"github.com/fyrsmithlabs/remedyd/internal/gateway"
)

// HandleInteraction handles POST /slack/interactions: the approve, edit,
// and reject button callbacks plus the edit surface submission.
//
// Every callback is acknowledged immediately; the workflow queues its side
// effects on the dispatcher. Malformed callbacks are logged and dropped —
// returning an error here would only make the platform retry a payload
// that cannot improve.
func (h *Handler) HandleInteraction(c echo.Context) error {
	body, err := h.verifiedBody(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "signature verification failed")
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form payload")
	}

	var callback slack.InteractionCallback
	if err := json.Unmarshal([]byte(values.Get("payload")), &callback); err != nil {
		h.logger.Warn("failed to parse interaction callback", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid interaction payload")
	}

	ctx := c.Request().Context()

	switch callback.Type {
	case slack.InteractionTypeBlockActions:
		h.handleBlockAction(c, callback)

	case slack.InteractionTypeViewSubmission:
		if callback.View.CallbackID == gateway.CallbackSubmitEdit {
			h.metrics.recordCallback(ctx, gateway.CallbackSubmitEdit)
			h.handleEditSubmission(callback)
		}
	}

	return c.NoContent(http.StatusOK)
}

// handleBlockAction routes one button press to its workflow transition.
func (h *Handler) handleBlockAction(c echo.Context, callback slack.InteractionCallback) {
	if len(callback.ActionCallback.BlockActions) == 0 {
		return
	}
	action := callback.ActionCallback.BlockActions[0]

	payload, err := approval.DecodePayload(action.Value)
	if err != nil {
		h.logger.Warn("dropping callback with undecodable payload",
			zap.String("action", action.ActionID),
			zap.Error(err))
		return
	}

	h.metrics.recordCallback(c.Request().Context(), action.ActionID)

	switch action.ActionID {
	case gateway.ActionApprove:
		h.workflow.Approve(payload)
	case gateway.ActionEdit:
		h.workflow.Edit(payload, callback.TriggerID)
	case gateway.ActionReject:
		h.workflow.Reject(payload)
	default:
		h.logger.Warn("ignoring unknown action",
			zap.String("action", action.ActionID))
	}
}

// handleEditSubmission extracts the edited body from the submitted view
// and completes the edit transition.
func (h *Handler) handleEditSubmission(callback slack.InteractionCallback) {
	payload, err := approval.DecodePayload(callback.View.PrivateMetadata)
	if err != nil {
		h.logger.Warn("dropping edit submission with undecodable metadata",
			zap.Error(err))
		return
	}

	if callback.View.State == nil {
		h.logger.Warn("edit submission missing view state",
			zap.String("request_id", payload.ID))
		return
	}
	edited := callback.View.State.Values[gateway.EditBlockID][gateway.EditInputID].Value
	if edited == "" {
		h.logger.Warn("edit submission with empty body, ignoring",
			zap.String("request_id", payload.ID))
		return
	}

	h.workflow.SubmitEdit(payload, edited)
}
