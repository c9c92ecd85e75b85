package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/haasonsaas/concierge/internal/apps"
	"github.com/haasonsaas/concierge/pkg/models"
)

const toolNudge = "You have tools available for this request. Please use them to look up real data or take the action instead of answering from memory."

// flushProposals enriches the queued writes and emits them as a single
// proposal event preceded by a multi_app_status frame. Returns false when
// nothing was queued.
func (t *turn) flushProposals(ctx context.Context) bool {
	st := t.state
	if len(st.pendingWrites) == 0 {
		return false
	}

	queue := make([]models.Proposal, 0, len(st.pendingWrites))
	for _, action := range st.pendingWrites {
		enriched := t.d.registry.Enrich(ctx, t.input.UserID, action.Tool, action.Args)
		queue = append(queue, models.Proposal{
			Tool:        action.Tool,
			Args:        enriched,
			AppID:       action.AppID,
			CallID:      action.CallID,
			SummaryText: apps.EarlySummary(action.AppID),
		})
		if t.d.metrics != nil {
			t.d.metrics.ProposalCounter.WithLabelValues(action.AppID).Inc()
		}
	}
	st.pendingWrites = nil
	t.d.logger.Info(ctx, "emitting proposals", "count", len(queue))

	states := make([]models.AppState, 0, len(st.involvedApps))
	for _, app := range st.involvedApps {
		states = append(states, models.AppState{AppID: app, State: "waiting"})
	}
	t.emit(models.MultiAppStatusEvent{
		Type:      models.EventMultiAppStatus,
		Apps:      states,
		ActiveApp: queue[0].AppID,
	})

	first := queue[0]
	remaining := make([]models.ProposalRef, 0, len(queue)-1)
	for _, p := range queue[1:] {
		remaining = append(remaining, p.Ref())
	}
	t.emit(models.ProposalEvent{
		Type:               models.EventProposal,
		Tool:               first.Tool,
		Content:            first.Args,
		SummaryText:        first.SummaryText,
		AppID:              first.AppID,
		CallID:             first.CallID,
		ProposalIndex:      0,
		TotalProposals:     len(queue),
		RemainingProposals: remaining,
	})
	return true
}

var appSummaryClauses = map[string]string{
	apps.AppLinear:         "create a ticket in Linear",
	apps.AppSlack:          "notify the team on Slack",
	apps.AppGitHub:         "check GitHub",
	apps.AppNotion:         "look in Notion",
	apps.AppGmail:          "check Gmail",
	apps.AppGoogleCalendar: "check your calendar",
}

// combinedSummary builds the fast first line for a multi-app request.
func combinedSummary(appIDs []string) string {
	clauses := make([]string, 0, len(appIDs))
	for _, id := range appIDs {
		if clause, ok := appSummaryClauses[id]; ok {
			clauses = append(clauses, clause)
		} else {
			clauses = append(clauses, "look in "+apps.DisplayName(id))
		}
	}
	if len(clauses) >= 2 {
		return fmt.Sprintf("I'll %s and %s.", clauses[0], clauses[1])
	}
	return fmt.Sprintf("I'll %s.", strings.Join(clauses, " and "))
}

func coverageNudge(missing []string) string {
	names := make([]string, 0, len(missing))
	for _, id := range missing {
		names = append(names, apps.DisplayName(id))
	}
	return fmt.Sprintf("The request also involves %s. Please use the %s tools to cover that part as well.",
		strings.Join(names, " and "), strings.Join(names, " and "))
}
