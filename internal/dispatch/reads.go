package dispatch

import (
	"context"
	"time"

	"github.com/haasonsaas/concierge/internal/llm"
	"github.com/haasonsaas/concierge/pkg/models"
)

// executeRead runs one read action: searching status, broker call, result
// transform, completion status, then the result round-trip back to the model.
// The status pair always completes before the model call so pills never hang
// on a rate-limit retry.
func (t *turn) executeRead(ctx context.Context, action models.ActionRecord) (*llm.Response, error) {
	st := t.state

	t.emit(models.NewToolStatus(action.Tool, models.StatusSearching, action.AppID, st.involvedApps))

	started := time.Now()
	result, execErr := t.d.broker.Execute(ctx, t.input.UserID, action.Tool, action.Args)

	status := models.StatusDone
	var payload map[string]any
	if execErr != nil {
		t.d.logger.Warn(ctx, "read execution failed", "tool", action.Tool, "error", execErr)
		status = models.StatusError
		payload = map[string]any{"error": execErr.Error()}
	} else {
		result = t.d.registry.TransformResult(ctx, t.input.UserID, action.Tool, action.Args, result)
		if !result.Succeeded() {
			status = models.StatusError
		}
		payload = map[string]any{"result": buildResultPayload(result.Data, t.d.config.PayloadLimit)}
	}

	if t.d.metrics != nil {
		t.d.metrics.ToolExecutionCounter.WithLabelValues(action.AppID, "read", string(status)).Inc()
		t.d.metrics.ToolExecutionDuration.WithLabelValues(action.AppID).Observe(time.Since(started).Seconds())
	}

	st.readStatus[action.AppID] = status
	t.emit(models.NewToolStatus(action.Tool, status, action.AppID, st.involvedApps))

	return t.roundTrip(ctx, func() (*llm.Response, error) {
		return t.chat.SendToolResult(ctx, action.Tool, payload, action.CallID)
	})
}
