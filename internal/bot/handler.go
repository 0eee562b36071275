package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/remedyd/internal/approval"
	"github.com/fyrsmithlabs/remedyd/internal/draft"
	"github.com/fyrsmithlabs/remedyd/internal/extract"
	"github.com/fyrsmithlabs/remedyd/internal/gateway"
)

// greetings short-circuit processing with a canned liveness reply.
var greetings = map[string]bool{
	"hi":    true,
	"hello": true,
	"hey":   true,
}

// Handler processes chat events: message events run the extraction and
// drafting pipeline, interactive callbacks drive the approval workflow.
type Handler struct {
	extractor     *extract.Extractor
	composer      *draft.Composer
	workflow      *approval.Workflow
	gateway       gateway.Gateway
	signingSecret string
	metrics       *Metrics
	logger        *zap.Logger
}

// NewHandler creates the event handler.
func NewHandler(
	extractor *extract.Extractor,
	composer *draft.Composer,
	workflow *approval.Workflow,
	gw gateway.Gateway,
	signingSecret string,
	logger *zap.Logger,
) (*Handler, error) {
	if extractor == nil || composer == nil || workflow == nil || gw == nil {
		return nil, fmt.Errorf("extractor, composer, workflow, and gateway are required")
	}
	if signingSecret == "" {
		return nil, fmt.Errorf("signing secret is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Handler{
		extractor:     extractor,
		composer:      composer,
		workflow:      workflow,
		gateway:       gw,
		signingSecret: signingSecret,
		metrics:       NewMetrics(logger),
		logger:        logger,
	}, nil
}

// HandleEvent handles POST /slack/events: the verification handshake and
// message event callbacks.
func (h *Handler) HandleEvent(c echo.Context) error {
	body, err := h.verifiedBody(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "signature verification failed")
	}

	event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		h.logger.Warn("failed to parse event", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid event payload")
	}

	switch event.Type {
	case slackevents.URLVerification:
		// Echo the challenge back verbatim to complete the handshake.
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid challenge payload")
		}
		return c.JSON(http.StatusOK, map[string]string{"challenge": challenge.Challenge})

	case slackevents.CallbackEvent:
		if msg, ok := event.InnerEvent.Data.(*slackevents.MessageEvent); ok {
			h.processMessage(c.Request().Context(), msg)
		}
	}

	return c.NoContent(http.StatusOK)
}

// processMessage runs the extraction pipeline for one inbound message:
// normalize, extract, and present one approval request per accepted record.
// Records within a message are processed sequentially; failures affect only
// their own record.
func (h *Handler) processMessage(ctx context.Context, msg *slackevents.MessageEvent) {
	// Ignore our own (and any other bot's) messages and empty text.
	if msg.BotID != "" || msg.Text == "" {
		return
	}

	h.metrics.recordMessage(ctx)

	if greetings[strings.ToLower(strings.TrimSpace(msg.Text))] {
		h.metrics.recordGreeting(ctx)
		reply := fmt.Sprintf("Hey <@%s>, I'm alive and connected!", msg.User)
		if err := h.gateway.PostMessage(ctx, msg.Channel, reply); err != nil {
			h.logger.Warn("failed to send greeting reply", zap.Error(err))
		}
		return
	}

	// Extraction works on the raw paste: the field patterns depend on the
	// quoting that normalization strips. Cleanup happens downstream, on the
	// summarizer path.
	records := h.extractor.Extract(msg.Text)
	if len(records) == 0 {
		return
	}

	h.metrics.recordRecords(ctx, len(records))
	h.logger.Info("extracted error records",
		zap.Int("count", len(records)),
		zap.String("sender", msg.User))

	for _, rec := range records {
		d := h.composer.Compose(ctx, rec)
		if _, err := h.workflow.Present(ctx, d); err != nil {
			h.logger.Error("failed to present draft for approval",
				zap.String("email", rec.Email),
				zap.Error(err))
		}
	}
}

// verifiedBody reads the request body and checks its platform signature.
func (h *Handler) verifiedBody(c echo.Context) ([]byte, error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}

	verifier, err := slack.NewSecretsVerifier(c.Request().Header, h.signingSecret)
	if err != nil {
		h.metrics.recordVerificationFailure(c.Request().Context())
		return nil, fmt.Errorf("failed to create verifier: %w", err)
	}
	if _, err := verifier.Write(body); err != nil {
		return nil, fmt.Errorf("failed to hash request body: %w", err)
	}
	if err := verifier.Ensure(); err != nil {
		h.metrics.recordVerificationFailure(c.Request().Context())
		h.logger.Warn("rejected request with bad signature")
		return nil, err
	}

	return body, nil
}
