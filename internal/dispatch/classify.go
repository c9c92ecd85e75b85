package dispatch

import (
	"context"

	"github.com/haasonsaas/concierge/internal/apps"
	"github.com/haasonsaas/concierge/internal/llm"
	"github.com/haasonsaas/concierge/pkg/models"
)

type classified struct {
	reads     []models.ActionRecord
	foundCall bool
}

// classify walks one model response, queueing writes and collecting reads.
// Writes are deduplicated by key and skipped for apps that already completed
// a confirmed write; both reads and writes defer behind an unfinished gate
// prerequisite. With includeReads false only writes are queued, used when a
// confirmed action is about to supersede the response's reads.
func (t *turn) classify(ctx context.Context, resp *llm.Response, includeReads bool) classified {
	var out classified
	if resp == nil {
		return out
	}
	st := t.state

	// Reads arriving in this response mark their app pending before any
	// gating decision, so call order within the response does not matter.
	if includeReads {
		for _, call := range resp.ToolCalls {
			if !t.d.registry.IsWriteAction(call.Name, call.Args) {
				st.readStatus[apps.AppForTool(call.Name)] = statusPending
			}
		}
	}

	for _, call := range resp.ToolCalls {
		out.foundCall = true
		appID := apps.AppForTool(call.Name)
		record := models.ActionRecord{
			Tool:   call.Name,
			Args:   call.Args,
			CallID: call.CallID,
			AppID:  appID,
		}
		st.noteApp(appID)

		if !st.earlySummarySent {
			t.emit(models.NewEarlySummary(apps.EarlySummary(appID), appID, st.involvedApps))
			st.earlySummarySent = true
		}

		isWrite := t.d.registry.IsWriteAction(call.Name, call.Args)
		key := record.DedupKey()
		t.d.logger.Debug(ctx, "tool call", "tool", call.Name, "app", appID, "write", isWrite)

		if isWrite {
			if st.executedWriteKeys[key] {
				t.d.logger.Debug(ctx, "skipping duplicate write", "tool", call.Name)
				continue
			}
			if st.completedWriteApps[appID] {
				t.d.logger.Debug(ctx, "skipping write for completed app", "app", appID)
				continue
			}
			if t.gate.deferred(appID, st) {
				t.d.logger.Debug(ctx, "deferring gated write", "app", appID)
				continue
			}
			st.pendingWrites = append(st.pendingWrites, record)
			st.executedWriteKeys[key] = true
			continue
		}

		if !includeReads {
			continue
		}
		if t.gate.deferred(appID, st) {
			t.d.logger.Debug(ctx, "deferring gated read", "app", appID)
			continue
		}
		out.reads = append(out.reads, record)
	}
	return out
}
