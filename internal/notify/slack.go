// Package notify announces routing decisions to the sales team.
package notify

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-qualifier/internal/model"
	"github.com/sells-group/lead-qualifier/pkg/slack"
)

// SlackNotifier posts lead assignment messages to a Slack webhook.
type SlackNotifier struct {
	client slack.Client
}

// NewSlackNotifier creates a Slack-backed assignment notifier.
func NewSlackNotifier(client slack.Client) *SlackNotifier {
	return &SlackNotifier{client: client}
}

// NotifyAssignment implements route.Notifier.
func (n *SlackNotifier) NotifyAssignment(ctx context.Context, lead model.Lead, qual model.QualificationResult, rep model.SalesRep, action model.RoutingAction) error {
	company := lead.Company
	if company == "" {
		company = lead.Domain()
	}

	title := fmt.Sprintf("New %s Lead Assigned", qual.Tier)
	msg := slack.Message{
		Text: fmt.Sprintf("%s: %s (%d/100) to %s", title, company, qual.Score, rep.Name),
		Blocks: []slack.Block{
			slack.Header(title),
			slack.SectionFields(
				fmt.Sprintf("*Company:*\n%s", company),
				fmt.Sprintf("*Score:*\n%d/100", qual.Score),
				fmt.Sprintf("*Assigned to:*\n%s", rep.Name),
				fmt.Sprintf("*Action:*\n%s", action),
			),
		},
	}

	if err := n.client.PostMessage(ctx, msg); err != nil {
		return eris.Wrap(err, "notify: post assignment")
	}
	return nil
}
