package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/haasonsaas/concierge/internal/apps"
	"github.com/haasonsaas/concierge/internal/llm"
	"github.com/haasonsaas/concierge/pkg/models"
)

// executeConfirmed runs a user-approved write. The action's dedup key and app
// are marked before execution so the model cannot re-propose it, and writes
// the model suggested alongside the confirmation are queued first so a
// failure here still surfaces them as proposals.
func (t *turn) executeConfirmed(ctx context.Context, resp *llm.Response) (*llm.Response, error) {
	st := t.state
	action := *t.input.ConfirmedAction
	if action.AppID == "" {
		action.AppID = apps.AppForTool(action.Tool)
	}

	st.noteApp(action.AppID)
	st.executedWriteKeys[action.DedupKey()] = true
	st.completedWriteApps[action.AppID] = true

	t.emit(models.NewEarlySummary(
		fmt.Sprintf("Executing your confirmed %s action...", apps.DisplayName(action.AppID)),
		action.AppID, st.involvedApps))
	st.earlySummarySent = true

	// Reads in this response are stale once the write result round-trips;
	// only carry the writes forward. Classified before the app is marked
	// mid-write so the gate does not drop them.
	t.classify(ctx, resp, false)
	st.writeExecuting[action.AppID] = true

	started := time.Now()
	result, err := t.d.broker.Execute(ctx, t.input.UserID, action.Tool, action.Args)
	if err == nil && !result.Succeeded() {
		err = fmt.Errorf("tool %s reported failure", action.Tool)
	}

	if t.d.metrics != nil {
		outcome := models.StatusDone
		if err != nil {
			outcome = models.StatusError
		}
		t.d.metrics.ToolExecutionCounter.WithLabelValues(action.AppID, "write", string(outcome)).Inc()
		t.d.metrics.ToolExecutionDuration.WithLabelValues(action.AppID).Observe(time.Since(started).Seconds())
	}

	delete(st.writeExecuting, action.AppID)

	if err != nil {
		t.d.logger.Error(ctx, "confirmed action failed", "tool", action.Tool, "app", action.AppID, "error", err)
		st.readStatus[action.AppID] = models.StatusError
		t.emit(models.NewMessage(
			fmt.Sprintf("Error executing %s action: %v", apps.DisplayName(action.AppID), err), ""))
		t.flushProposals(ctx)
		t.outcome = "confirm_failed"
		return nil, errTurnEnded
	}

	st.readStatus[action.AppID] = models.StatusDone
	st.writeExecuted = true
	st.actionPerformed = apps.DisplayName(action.AppID) + " action executed"

	payload := map[string]any{"result": buildResultPayload(resultData(result), t.d.config.PayloadLimit)}
	return t.roundTrip(ctx, func() (*llm.Response, error) {
		return t.chat.SendToolResult(ctx, action.Tool, payload, action.CallID)
	})
}

func resultData(result *models.ToolResult) any {
	if result == nil {
		return nil
	}
	return result.Data
}
