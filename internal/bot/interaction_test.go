package bot

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/remedyd/internal/approval"
	"github.com/fyrsmithlabs/remedyd/internal/extract"
	"github.com/fyrsmithlabs/remedyd/internal/gateway"
)

func testPayload(t *testing.T, id string) (approval.Payload, string) {
	t.Helper()

	p := approval.Payload{
		ID: id,
		Record: extract.Record{
			Email:   "a@b.com",
			Code:    extract.CodeConflict,
			Message: "already exists",
		},
		DraftBody: "Hi a@b.com, a record with this data already exists.",
	}
	encoded, err := p.Encode()
	require.NoError(t, err)
	return p, encoded
}

// postInteraction sends a signed, form-encoded interaction callback.
func postInteraction(t *testing.T, h *Handler, callback map[string]any) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(callback)
	require.NoError(t, err)

	form := url.Values{"payload": {string(raw)}}
	body := []byte(form.Encode())

	req := signedRequest(t, "/slack/interactions", echo.MIMEApplicationForm, body)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	require.NoError(t, h.HandleInteraction(c))
	return rec
}

func blockActionCallback(actionID, value, triggerID string) map[string]any {
	return map[string]any{
		"type":       "block_actions",
		"trigger_id": triggerID,
		"actions": []map[string]any{{
			"type":      "button",
			"action_id": actionID,
			"block_id":  "actions_block",
			"value":     value,
			"action_ts": "1700000000.000001",
		}},
	}
}

func TestHandleInteraction_ApproveDeliversDraft(t *testing.T) {
	gw := &fakeGateway{resolveID: "UTARGET"}
	h, d := newTestHandler(t, gw)

	p, encoded := testPayload(t, "req-approve")
	rec := postInteraction(t, h, blockActionCallback(gateway.ActionApprove, encoded, ""))
	assert.Equal(t, http.StatusOK, rec.Code)

	d.Close()

	messages := gw.sentMessages()
	require.Len(t, messages, 2, "delivery plus approver report")
	assert.Equal(t, p.DraftBody, messages[0])
	assert.Equal(t, []string{"UTARGET", "UAPPROVER"}, gw.channels)
	assert.Contains(t, messages[1], "Message sent to user (a@b.com)")
}

func TestHandleInteraction_RejectReportsNoAction(t *testing.T) {
	gw := &fakeGateway{resolveID: "UTARGET"}
	h, d := newTestHandler(t, gw)

	_, encoded := testPayload(t, "req-reject")
	rec := postInteraction(t, h, blockActionCallback(gateway.ActionReject, encoded, ""))
	assert.Equal(t, http.StatusOK, rec.Code)

	d.Close()

	messages := gw.sentMessages()
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0], "No action taken")
	assert.Equal(t, []string{"UAPPROVER"}, gw.channels)
}

func TestHandleInteraction_EditOpensPrefilledSurface(t *testing.T) {
	gw := &fakeGateway{resolveID: "UTARGET"}
	h, d := newTestHandler(t, gw)

	p, encoded := testPayload(t, "req-edit")
	rec := postInteraction(t, h, blockActionCallback(gateway.ActionEdit, encoded, "trigger-1"))
	assert.Equal(t, http.StatusOK, rec.Code)

	d.Close()

	require.Len(t, gw.editSurfaces, 1)
	assert.Equal(t, p.DraftBody, gw.editSurfaces[0].InitialValue)

	carried, err := approval.DecodePayload(gw.editSurfaces[0].Metadata)
	require.NoError(t, err)
	assert.Equal(t, p.ID, carried.ID)
	assert.Empty(t, gw.sentMessages(), "opening the edit surface delivers nothing")
}

func TestHandleInteraction_ViewSubmissionDeliversEditedBody(t *testing.T) {
	gw := &fakeGateway{resolveID: "UTARGET"}
	h, d := newTestHandler(t, gw)

	_, encoded := testPayload(t, "req-submit")
	callback := map[string]any{
		"type": "view_submission",
		"view": map[string]any{
			"callback_id":      gateway.CallbackSubmitEdit,
			"private_metadata": encoded,
			"state": map[string]any{
				"values": map[string]any{
					gateway.EditBlockID: map[string]any{
						gateway.EditInputID: map[string]any{
							"type":  "plain_text_input",
							"value": "Hi a@b.com, the corrected message.",
						},
					},
				},
			},
		},
	}

	rec := postInteraction(t, h, callback)
	assert.Equal(t, http.StatusOK, rec.Code)

	d.Close()

	messages := gw.sentMessages()
	require.Len(t, messages, 2)
	assert.Equal(t, "Hi a@b.com, the corrected message.", messages[0])
	assert.Contains(t, messages[1], "Edited message sent to user (a@b.com)")
}

func TestHandleInteraction_DuplicateCallbackDropped(t *testing.T) {
	gw := &fakeGateway{resolveID: "UTARGET"}
	h, d := newTestHandler(t, gw)

	_, encoded := testPayload(t, "req-dup")
	postInteraction(t, h, blockActionCallback(gateway.ActionApprove, encoded, ""))
	postInteraction(t, h, blockActionCallback(gateway.ActionApprove, encoded, ""))

	d.Close()

	assert.Len(t, gw.sentMessages(), 2, "second press must not deliver again")
}

func TestHandleInteraction_UndecodablePayloadAcknowledged(t *testing.T) {
	gw := &fakeGateway{resolveID: "UTARGET"}
	h, d := newTestHandler(t, gw)
	defer d.Close()

	rec := postInteraction(t, h, blockActionCallback(gateway.ActionApprove, "not-json", ""))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, gw.sentMessages())
}

func TestHandleInteraction_BadSignatureRejected(t *testing.T) {
	h, d := newTestHandler(t, &fakeGateway{})
	defer d.Close()

	req := httptest.NewRequest(http.MethodPost, "/slack/interactions", nil)
	req.Header.Set("X-Slack-Signature", "v0=bogus")
	req.Header.Set("X-Slack-Request-Timestamp", "1700000000")
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	err := h.HandleInteraction(c)
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}
