package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDedupKey_ArgOrderInsensitive(t *testing.T) {
	a := ActionRecord{Tool: "LINEAR_CREATE_LINEAR_ISSUE", Args: map[string]any{
		"title":   "Buy milk",
		"team_id": "abc-123",
	}}
	b := ActionRecord{Tool: "LINEAR_CREATE_LINEAR_ISSUE", Args: map[string]any{
		"team_id": "abc-123",
		"title":   "Buy milk",
	}}

	if a.DedupKey() != b.DedupKey() {
		t.Errorf("keys differ for identical args:\n%q\n%q", a.DedupKey(), b.DedupKey())
	}
}

func TestDedupKey_DistinguishesToolAndArgs(t *testing.T) {
	base := ActionRecord{Tool: "SLACK_SEND_MESSAGE", Args: map[string]any{"channel": "C1", "text": "hi"}}

	otherTool := ActionRecord{Tool: "SLACK_SCHEDULE_MESSAGE", Args: base.Args}
	if base.DedupKey() == otherTool.DedupKey() {
		t.Error("different tools produced the same key")
	}

	otherArgs := ActionRecord{Tool: base.Tool, Args: map[string]any{"channel": "C1", "text": "bye"}}
	if base.DedupKey() == otherArgs.DedupKey() {
		t.Error("different args produced the same key")
	}
}

func TestCanonicalJSON_NestedMaps(t *testing.T) {
	got := CanonicalJSON(map[string]any{
		"b": map[string]any{"y": 1, "x": 2},
		"a": []any{map[string]any{"k": "v"}},
	})
	want := `{"a":[{"k":"v"}],"b":{"x":2,"y":1}}`
	if got != want {
		t.Errorf("CanonicalJSON = %s, want %s", got, want)
	}
}

func TestCanonicalJSON_RawMessage(t *testing.T) {
	got := CanonicalJSON(map[string]any{"q": json.RawMessage(`{"z":1,"a":2}`)})
	want := `{"q":{"a":2,"z":1}}`
	if got != want {
		t.Errorf("CanonicalJSON = %s, want %s", got, want)
	}
}

func TestToolResult_Succeeded(t *testing.T) {
	yes, no := true, false

	cases := []struct {
		name string
		res  *ToolResult
		want bool
	}{
		{"nil result", nil, false},
		{"flag absent", &ToolResult{Data: "ok"}, true},
		{"flag true", &ToolResult{Data: "ok", Successful: &yes}, true},
		{"flag false", &ToolResult{Data: "nope", Successful: &no}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.res.Succeeded(); got != tc.want {
				t.Errorf("Succeeded() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMessageEvent_NullActionPerformed(t *testing.T) {
	b, err := EncodeEvent(NewMessage("done", ""))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(string(b), `"action_performed":null`) {
		t.Errorf("expected explicit null action_performed, got %s", b)
	}

	b, err = EncodeEvent(NewMessage("done", "Linear action executed"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(string(b), `"action_performed":"Linear action executed"`) {
		t.Errorf("expected action_performed string, got %s", b)
	}
}

func TestProposalEvent_IndexAlwaysPresent(t *testing.T) {
	b, err := EncodeEvent(ProposalEvent{
		Type:           EventProposal,
		Tool:           "SLACK_SEND_MESSAGE",
		Content:        map[string]any{"channel": "C1"},
		AppID:          "slack",
		TotalProposals: 1,
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(string(b), `"proposal_index":0`) {
		t.Errorf("proposal_index must be serialized even when zero, got %s", b)
	}
}

func TestEarlySummary_CopiesInvolvedApps(t *testing.T) {
	involved := []string{"linear"}
	ev := NewEarlySummary("working", "linear", involved)
	involved[0] = "slack"
	if ev.InvolvedApps[0] != "linear" {
		t.Error("event shares backing array with caller slice")
	}
}
