// Package notify delivers escalation notifications to external channels.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/slack-go/slack"

	"github.com/resolvd-io/resolvd/pkg/protocol"
)

// slackAPI is the subset of the Slack client the notifier uses.
type slackAPI interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackNotifier posts escalations to a Slack channel. It implements
// workflow.EscalationSink; delivery failures surface as errors for the
// engine to log, never as run failures.
type SlackNotifier struct {
	api     slackAPI
	channel string
	logger  *slog.Logger
}

// NewSlack creates a Slack notifier for the given bot token and channel.
func NewSlack(token, channel string, logger *slog.Logger) *SlackNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlackNotifier{
		api:     slack.New(token),
		channel: channel,
		logger:  logger,
	}
}

// Record posts a formatted escalation message.
func (n *SlackNotifier) Record(ctx context.Context, row protocol.EscalationRow) error {
	text := fmt.Sprintf(
		":rotating_light: *Ticket escalated* %s\n*Subject:* %s\n*Category:* %s | *Attempts:* %d | *Last score:* %.2f\n*Last feedback:* %s",
		row.RunID, row.Subject, row.Category, row.Attempts, row.FinalScore, row.FinalFeedback,
	)
	return n.Post(ctx, text)
}

// Post sends a plain message to the configured channel.
func (n *SlackNotifier) Post(ctx context.Context, text string) error {
	_, _, err := n.api.PostMessageContext(ctx, n.channel, slack.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("slack: post message: %w", err)
	}
	n.logger.Debug("slack notification sent", "channel", n.channel)
	return nil
}
