package dispatch

import "github.com/haasonsaas/concierge/pkg/models"

// Phase is the dispatcher's position in the turn state machine.
type Phase string

const (
	PhasePlanning             Phase = "planning"
	PhaseExecutingRead        Phase = "executing_read"
	PhaseAwaitingConfirmation Phase = "awaiting_confirmation"
	PhaseFinished             Phase = "finished"
)

// statusPending marks an app whose read has been seen but not yet executed.
// It never appears in a tool_status event.
const statusPending models.ToolStatus = "pending"

// turnState is the per-turn bookkeeping. Nothing here survives the turn;
// dedup across turns is carried by the confirmed action the client resubmits.
type turnState struct {
	phase     Phase
	iteration int

	// involvedApps preserves first-seen order for UI events.
	involvedApps []string
	involvedSet  map[string]bool

	// executedWriteKeys holds dedup keys of writes already executed or
	// queued this turn, so the model re-proposing the same call is a no-op.
	executedWriteKeys map[string]bool
	// completedWriteApps lists apps whose confirmed write ran this turn.
	completedWriteApps map[string]bool
	// readStatus is each app's last read outcome.
	readStatus map[string]models.ToolStatus
	// writeExecuting marks apps currently mid confirmed-write execution.
	writeExecuting map[string]bool

	pendingReads  []models.ActionRecord
	pendingWrites []models.ActionRecord

	earlySummarySent  bool
	toolNudgeSent     bool
	coverageNudgeSent bool

	writeExecuted   bool
	actionPerformed string
}

func newTurnState() *turnState {
	return &turnState{
		phase:              PhasePlanning,
		involvedSet:        make(map[string]bool),
		executedWriteKeys:  make(map[string]bool),
		completedWriteApps: make(map[string]bool),
		readStatus:         make(map[string]models.ToolStatus),
		writeExecuting:     make(map[string]bool),
	}
}

// noteApp records app involvement, returning true the first time.
func (st *turnState) noteApp(appID string) bool {
	if st.involvedSet[appID] {
		return false
	}
	st.involvedSet[appID] = true
	st.involvedApps = append(st.involvedApps, appID)
	return true
}
