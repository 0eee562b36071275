package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

// SlackGateway implements Gateway on the Slack Web API.
type SlackGateway struct {
	client *slack.Client
	logger *zap.Logger
}

// NewSlack creates a Slack-backed gateway.
func NewSlack(botToken string, logger *zap.Logger, opts ...slack.Option) *SlackGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SlackGateway{
		client: slack.New(botToken, opts...),
		logger: logger,
	}
}

// PostMessage sends plain text to a channel or user.
func (g *SlackGateway) PostMessage(ctx context.Context, channelID, text string) error {
	_, _, err := g.client.PostMessageContext(ctx, channelID,
		slack.MsgOptionText(text, false),
	)
	if err != nil {
		return fmt.Errorf("failed to post message to %s: %w", channelID, err)
	}
	return nil
}

// PostPrompt publishes the approval prompt as a section block followed by
// the three action buttons. Every button carries the opaque payload so the
// callback round-trip needs no server-side state.
func (g *SlackGateway) PostPrompt(ctx context.Context, channelID string, prompt Prompt) error {
	section := slack.NewSectionBlock(
		slack.NewTextBlockObject(slack.MarkdownType, prompt.Text, false, false),
		nil, nil,
	)

	approve := slack.NewButtonBlockElement(ActionApprove, prompt.Payload,
		slack.NewTextBlockObject(slack.PlainTextType, "Approve", false, false))
	approve.Style = slack.StylePrimary

	edit := slack.NewButtonBlockElement(ActionEdit, prompt.Payload,
		slack.NewTextBlockObject(slack.PlainTextType, "Edit", false, false))

	reject := slack.NewButtonBlockElement(ActionReject, prompt.Payload,
		slack.NewTextBlockObject(slack.PlainTextType, "Reject", false, false))
	reject.Style = slack.StyleDanger

	actions := slack.NewActionBlock("approval_actions", approve, edit, reject)

	_, _, err := g.client.PostMessageContext(ctx, channelID,
		slack.MsgOptionText(prompt.Text, false),
		slack.MsgOptionBlocks(section, actions),
	)
	if err != nil {
		return fmt.Errorf("failed to post prompt to %s: %w", channelID, err)
	}

	g.logger.Debug("posted approval prompt",
		zap.String("channel", channelID))
	return nil
}

// OpenEditSurface opens a modal pre-filled with the draft body. The payload
// rides in the view's private metadata until submission.
func (g *SlackGateway) OpenEditSurface(ctx context.Context, triggerID string, surface EditSurface) error {
	input := slack.NewPlainTextInputBlockElement(nil, EditInputID)
	input.Multiline = true
	input.InitialValue = surface.InitialValue

	inputBlock := slack.NewInputBlock(EditBlockID,
		slack.NewTextBlockObject(slack.PlainTextType, "Edit your message", false, false),
		nil, input)

	view := slack.ModalViewRequest{
		Type:            slack.VTModal,
		CallbackID:      CallbackSubmitEdit,
		Title:           slack.NewTextBlockObject(slack.PlainTextType, "Edit Draft Message", false, false),
		Submit:          slack.NewTextBlockObject(slack.PlainTextType, "Send", false, false),
		Close:           slack.NewTextBlockObject(slack.PlainTextType, "Cancel", false, false),
		PrivateMetadata: surface.Metadata,
		Blocks:          slack.Blocks{BlockSet: []slack.Block{inputBlock}},
	}

	if _, err := g.client.OpenViewContext(ctx, triggerID, view); err != nil {
		return fmt.Errorf("failed to open edit view: %w", err)
	}
	return nil
}

// ResolveEmail looks up the Slack user for an email address.
func (g *SlackGateway) ResolveEmail(ctx context.Context, email string) (string, error) {
	user, err := g.client.GetUserByEmailContext(ctx, email)
	if err != nil {
		if strings.Contains(err.Error(), "users_not_found") {
			return "", fmt.Errorf("%w: no user for %s", ErrIdentityNotFound, email)
		}
		return "", fmt.Errorf("failed to look up %s: %w", email, err)
	}
	return user.ID, nil
}

// Ensure SlackGateway implements Gateway.
var _ Gateway = (*SlackGateway)(nil)
