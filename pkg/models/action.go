// Package models defines the wire types shared between the dispatcher core,
// the app capability services, and the HTTP transport: model-proposed tool
// calls, normalized action records, write proposals, broker results, and the
// outward event stream.
package models

import (
	"encoding/json"
	"sort"
	"strings"
)

// ToolCall is a raw tool invocation as returned by a model provider, before
// the dispatcher has resolved which app owns it.
type ToolCall struct {
	Name   string         `json:"name"`
	Args   map[string]any `json:"args"`
	CallID string         `json:"call_id,omitempty"`
}

// ActionRecord is the normalized representation of one model-proposed call.
// It is immutable once created; the dispatcher never mutates Args in place.
type ActionRecord struct {
	Tool   string         `json:"tool"`
	Args   map[string]any `json:"args"`
	CallID string         `json:"call_id,omitempty"`
	AppID  string         `json:"app_id"`
}

// DedupKey returns the canonical identity of this action: the tool name plus
// a canonical-JSON rendering of its arguments. Two calls with the same tool
// and semantically identical arguments collapse to the same key regardless
// of map ordering.
func (a ActionRecord) DedupKey() string {
	return a.Tool + "\x00" + CanonicalJSON(a.Args)
}

// CanonicalJSON renders v as JSON with all object keys sorted. Values that
// cannot be marshaled degrade to their Go string form rather than failing,
// since dedup keys must always be derivable.
func CanonicalJSON(v any) string {
	b, err := json.Marshal(canonicalize(v))
	if err != nil {
		return strings.ReplaceAll(strings.TrimSpace(jsonFallback(v)), "\n", " ")
	}
	return string(b)
}

// canonicalize rewrites maps into a key-sorted form that encoding/json
// preserves. encoding/json already sorts map[string]any keys, but arguments
// may arrive as map[string]json.RawMessage or nested slices, so the tree is
// normalized first.
func canonicalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(map[string]any, len(t))
		for _, k := range keys {
			out[k] = canonicalize(t[k])
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = canonicalize(t[i])
		}
		return out
	case json.RawMessage:
		var decoded any
		if err := json.Unmarshal(t, &decoded); err == nil {
			return canonicalize(decoded)
		}
		return string(t)
	default:
		return v
	}
}

func jsonFallback(v any) string {
	b, err := json.Marshal(map[string]string{"unencodable": strings.TrimSpace(strings.ToValidUTF8(stringify(v), ""))})
	if err != nil {
		return "{}"
	}
	return string(b)
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, _ := json.Marshal(v)
	return string(b)
}

// Proposal is a write ActionRecord enriched with human-readable fields,
// awaiting confirmation by the user.
type Proposal struct {
	Tool        string         `json:"tool"`
	Args        map[string]any `json:"args"`
	AppID       string         `json:"app_id"`
	CallID      string         `json:"call_id,omitempty"`
	SummaryText string         `json:"summary_text"`
}

// Ref returns the compact form of the proposal carried in the
// remaining_proposals sidecar of a proposal event.
func (p Proposal) Ref() ProposalRef {
	return ProposalRef{Tool: p.Tool, AppID: p.AppID, Args: p.Args, CallID: p.CallID}
}

// ProposalRef is the short proposal form listed in remaining_proposals.
type ProposalRef struct {
	Tool   string         `json:"tool"`
	AppID  string         `json:"app_id"`
	Args   map[string]any `json:"args"`
	CallID string         `json:"call_id,omitempty"`
}

// ToolDefinition describes one tool exposed to the model: its slug, a
// human-readable description, and a JSON-schema parameter object.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// ToolResult is the outcome of one broker execution. Successful is a
// tri-state: a nil pointer means the broker did not report an outcome flag
// and the result is treated as success.
type ToolResult struct {
	Data       any   `json:"data"`
	Successful *bool `json:"successful,omitempty"`
}

// Succeeded reports whether the result counts as a success. Absence of the
// flag defaults to success.
func (r *ToolResult) Succeeded() bool {
	if r == nil {
		return false
	}
	return r.Successful == nil || *r.Successful
}
