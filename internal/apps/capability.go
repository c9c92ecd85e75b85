package apps

import (
	"context"

	"github.com/haasonsaas/concierge/pkg/models"
)

// Capability is the per-app service contract. One implementation exists per
// integrated app; the dispatcher consults it to classify tool calls and to
// enrich proposals before surfacing them for confirmation.
type Capability interface {
	// ID returns the app identifier (e.g. "linear").
	ID() string

	// ToolSlugs returns the curated tool slugs this app exposes to the model.
	ToolSlugs() []string

	// IsWriteAction reports whether the tool call mutates external state and
	// therefore needs user confirmation before executing.
	IsWriteAction(tool string, args map[string]any) bool

	// EnrichProposal returns args augmented with human-readable context
	// (names for opaque IDs). Enrichment is best effort: failures return the
	// original args.
	EnrichProposal(ctx context.Context, userID, tool string, args map[string]any) map[string]any
}

// ResultTransformer is implemented by capabilities that post-process read
// results before they are fed back to the model, e.g. to aggregate
// pagination or strip noisy fields.
type ResultTransformer interface {
	TransformResult(ctx context.Context, userID, tool string, args map[string]any, result *models.ToolResult) *models.ToolResult
}

// Registry holds the capability table keyed by app ID.
type Registry struct {
	caps  map[string]Capability
	order []string
}

// NewRegistry builds a registry from the given capabilities. Later
// registrations with the same ID replace earlier ones.
func NewRegistry(caps ...Capability) *Registry {
	r := &Registry{caps: make(map[string]Capability, len(caps))}
	for _, cap := range caps {
		if _, exists := r.caps[cap.ID()]; !exists {
			r.order = append(r.order, cap.ID())
		}
		r.caps[cap.ID()] = cap
	}
	return r
}

// ForApp returns the capability registered for the app ID.
func (r *Registry) ForApp(appID string) (Capability, bool) {
	cap, ok := r.caps[NormalizeAppID(appID)]
	return cap, ok
}

// ForTool returns the capability owning the tool slug.
func (r *Registry) ForTool(tool string) (Capability, bool) {
	return r.ForApp(AppForTool(tool))
}

// All returns the registered capabilities in registration order.
func (r *Registry) All() []Capability {
	result := make([]Capability, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.caps[id])
	}
	return result
}

// IsWriteAction classifies a tool call. Tools from apps without a registered
// capability are treated as reads; writes must be identified explicitly,
// never inferred, and blocking an unknown harmless call would stall the user
// with no recourse.
func (r *Registry) IsWriteAction(tool string, args map[string]any) bool {
	if cap, ok := r.ForTool(tool); ok {
		return cap.IsWriteAction(tool, args)
	}
	return false
}

// Enrich enriches proposal args through the owning capability. Unknown apps
// pass through unchanged.
func (r *Registry) Enrich(ctx context.Context, userID, tool string, args map[string]any) map[string]any {
	if cap, ok := r.ForTool(tool); ok {
		return cap.EnrichProposal(ctx, userID, tool, args)
	}
	return args
}

// TransformResult applies the owning capability's result transformation, if
// it has one.
func (r *Registry) TransformResult(ctx context.Context, userID, tool string, args map[string]any, result *models.ToolResult) *models.ToolResult {
	if cap, ok := r.ForTool(tool); ok {
		if transformer, ok := cap.(ResultTransformer); ok {
			return transformer.TransformResult(ctx, userID, tool, args, result)
		}
	}
	return result
}

func cloneArgs(args map[string]any) map[string]any {
	cloned := make(map[string]any, len(args))
	for k, v := range args {
		cloned[k] = v
	}
	return cloned
}

func hasWritePrefix(tool string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if len(tool) >= len(prefix) && tool[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}
