package models

import "encoding/json"

// Event is one unit of the outward stream. Each concrete event marshals to a
// single JSON object with a "type" discriminator; the transport writes one
// object per line (NDJSON) in emission order.
type Event interface {
	Kind() EventKind
}

// EventKind discriminates stream event types.
type EventKind string

const (
	EventEarlySummary   EventKind = "early_summary"
	EventToolStatus     EventKind = "tool_status"
	EventMultiAppStatus EventKind = "multi_app_status"
	EventProposal       EventKind = "proposal"
	EventMessage        EventKind = "message"
	EventThinking       EventKind = "thinking"
)

// ToolStatus is the lifecycle state of one action in the stream.
type ToolStatus string

const (
	StatusSearching ToolStatus = "searching"
	StatusDone      ToolStatus = "done"
	StatusError     ToolStatus = "error"
)

// EarlySummaryEvent is the fast first feedback line emitted before any tool
// work completes.
type EarlySummaryEvent struct {
	Type         EventKind `json:"type"`
	Content      string    `json:"content"`
	AppID        string    `json:"app_id"`
	InvolvedApps []string  `json:"involved_apps"`
}

func (EarlySummaryEvent) Kind() EventKind { return EventEarlySummary }

// ToolStatusEvent reports one action's status transition. For every executed
// read the stream carries a searching event followed by a done or error
// event before any other action's searching event.
type ToolStatusEvent struct {
	Type         EventKind  `json:"type"`
	Tool         string     `json:"tool"`
	Status       ToolStatus `json:"status"`
	AppID        string     `json:"app_id"`
	InvolvedApps []string   `json:"involved_apps"`
}

func (ToolStatusEvent) Kind() EventKind { return EventToolStatus }

// AppState is one entry of a multi_app_status event.
type AppState struct {
	AppID string `json:"app_id"`
	State string `json:"state"`
}

// MultiAppStatusEvent lists every involved app just before the proposal
// queue is emitted.
type MultiAppStatusEvent struct {
	Type      EventKind  `json:"type"`
	Apps      []AppState `json:"apps"`
	ActiveApp string     `json:"active_app"`
}

func (MultiAppStatusEvent) Kind() EventKind { return EventMultiAppStatus }

// ProposalEvent carries the first queued proposal plus the rest of the queue
// as an ordered sidecar. total_proposals is always 1 + len(remaining).
type ProposalEvent struct {
	Type               EventKind      `json:"type"`
	Tool               string         `json:"tool"`
	Content            map[string]any `json:"content"`
	SummaryText        string         `json:"summary_text"`
	AppID              string         `json:"app_id"`
	CallID             string         `json:"call_id,omitempty"`
	ProposalIndex      int            `json:"proposal_index"`
	TotalProposals     int            `json:"total_proposals"`
	RemainingProposals []ProposalRef  `json:"remaining_proposals"`
}

func (ProposalEvent) Kind() EventKind { return EventProposal }

// MessageEvent is the final text of a turn. ActionPerformed is non-null only
// when a confirmed write executed during the turn.
type MessageEvent struct {
	Type            EventKind `json:"type"`
	Content         string    `json:"content"`
	ActionPerformed *string   `json:"action_performed"`
}

func (MessageEvent) Kind() EventKind { return EventMessage }

// ThinkingEvent forwards a model reasoning fragment opaquely, best effort.
type ThinkingEvent struct {
	Type    EventKind `json:"type"`
	Content string    `json:"content"`
}

func (ThinkingEvent) Kind() EventKind { return EventThinking }

// EncodeEvent renders an event as a single JSON line without a trailing
// newline.
func EncodeEvent(ev Event) ([]byte, error) {
	return json.Marshal(ev)
}

// NewEarlySummary builds an early_summary event, copying involved so later
// appends by the dispatcher do not mutate an already-emitted event.
func NewEarlySummary(content, appID string, involved []string) EarlySummaryEvent {
	return EarlySummaryEvent{
		Type:         EventEarlySummary,
		Content:      content,
		AppID:        appID,
		InvolvedApps: copyStrings(involved),
	}
}

// NewToolStatus builds a tool_status event.
func NewToolStatus(tool string, status ToolStatus, appID string, involved []string) ToolStatusEvent {
	return ToolStatusEvent{
		Type:         EventToolStatus,
		Tool:         tool,
		Status:       status,
		AppID:        appID,
		InvolvedApps: copyStrings(involved),
	}
}

// NewMessage builds a message event. actionPerformed may be empty, which
// marshals as null.
func NewMessage(content, actionPerformed string) MessageEvent {
	ev := MessageEvent{Type: EventMessage, Content: content}
	if actionPerformed != "" {
		ev.ActionPerformed = &actionPerformed
	}
	return ev
}

func copyStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
