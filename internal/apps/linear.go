package apps

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/haasonsaas/concierge/internal/broker"
	"github.com/haasonsaas/concierge/internal/observability"
)

var linearToolSlugs = []string{
	"LINEAR_CREATE_LINEAR_ISSUE",
	"LINEAR_CREATE_LINEAR_ISSUE_DETAILS",
	"LINEAR_CREATE_LINEAR_LABEL",
	"LINEAR_CREATE_LINEAR_PROJECT",
	"LINEAR_DELETE_LINEAR_ISSUE",
	"LINEAR_GET_ALL_LINEAR_TEAMS",
	"LINEAR_GET_ATTACHMENTS",
	"LINEAR_GET_CURRENT_USER",
	"LINEAR_GET_CYCLES_BY_TEAM_ID",
	"LINEAR_GET_LINEAR_ISSUE",
	"LINEAR_LIST_ISSUE_DRAFTS",
	"LINEAR_LIST_LINEAR_CYCLES",
	"LINEAR_LIST_LINEAR_ISSUES",
	"LINEAR_LIST_LINEAR_LABELS",
	"LINEAR_LIST_LINEAR_PROJECTS",
	"LINEAR_LIST_LINEAR_STATES",
	"LINEAR_LIST_LINEAR_TEAMS",
	"LINEAR_LIST_LINEAR_USERS",
	"LINEAR_MANAGE_DRAFT",
	"LINEAR_REMOVE_ISSUE_LABEL",
	"LINEAR_REMOVE_REACTION",
	"LINEAR_RUN_QUERY_OR_MUTATION",
	"LINEAR_UPDATE_ISSUE",
	"LINEAR_UPDATE_LINEAR_ISSUE",
	"LINEAR_CREATE_A_COMMENT",
	"LINEAR_GET_COMMENTS",
}

var linearPriorityLabels = map[int]string{
	0: "No priority",
	1: "Urgent",
	2: "High",
	3: "Medium",
	4: "Low",
}

// LinearCapability implements Capability for Linear. Proposal enrichment
// resolves entity IDs to names through Linear's GraphQL endpoint, reached via
// the broker's query tool.
type LinearCapability struct {
	broker broker.Broker
	logger *observability.Logger

	mu    sync.Mutex
	cache map[string]string
}

// NewLinearCapability creates the Linear capability.
func NewLinearCapability(b broker.Broker, logger *observability.Logger) *LinearCapability {
	if logger == nil {
		logger = observability.NewDefaultLogger()
	}
	return &LinearCapability{
		broker: b,
		logger: logger.WithComponent("linear"),
		cache:  make(map[string]string),
	}
}

// ID implements Capability.
func (c *LinearCapability) ID() string { return AppLinear }

// ToolSlugs implements Capability.
func (c *LinearCapability) ToolSlugs() []string { return linearToolSlugs }

// IsWriteAction implements Capability. Beyond the usual prefixes, raw
// GraphQL submissions count as writes when the document is a mutation.
func (c *LinearCapability) IsWriteAction(tool string, args map[string]any) bool {
	lower := strings.ToLower(tool)

	for _, marker := range []string{"create_", "update_", "delete_", "remove_", "manage_"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}

	if strings.Contains(lower, "run_query_or_mutation") {
		if query, ok := args["query_or_mutation"].(string); ok {
			return strings.HasPrefix(strings.ToLower(strings.TrimSpace(query)), "mutation")
		}
	}
	return false
}

// EnrichProposal implements Capability. Each opaque ID argument gets a
// companion *Name field so the confirmation card can show real names.
func (c *LinearCapability) EnrichProposal(ctx context.Context, userID, tool string, args map[string]any) map[string]any {
	enriched := cloneArgs(args)

	c.resolveEntity(ctx, userID, enriched, "teamName", "team",
		[]string{"team_id", "teamId", "team"})
	c.resolveEntity(ctx, userID, enriched, "stateName", "workflowState",
		[]string{"state_id", "stateId", "status"})
	c.resolveEntity(ctx, userID, enriched, "projectName", "project",
		[]string{"project_id", "projectId", "project"})
	c.resolveEntity(ctx, userID, enriched, "assigneeName", "user",
		[]string{"assignee_id", "assigneeId", "assignee"})

	if priority, ok := numericArg(args["priority"]); ok {
		if label, known := linearPriorityLabels[priority]; known && enriched["priorityLabel"] == nil {
			enriched["priorityLabel"] = label
		}
	}
	return enriched
}

// resolveEntity looks up the name of a Linear entity referenced by one of
// the candidate ID keys and stores it under nameKey.
func (c *LinearCapability) resolveEntity(ctx context.Context, userID string, enriched map[string]any, nameKey, entity string, idKeys []string) {
	if _, present := enriched[nameKey]; present {
		return
	}
	var entityID string
	for _, key := range idKeys {
		if id, ok := enriched[key].(string); ok && id != "" {
			entityID = id
			break
		}
	}
	if entityID == "" {
		return
	}

	cacheKey := entity + ":" + entityID
	c.mu.Lock()
	if name, ok := c.cache[cacheKey]; ok {
		c.mu.Unlock()
		enriched[nameKey] = name
		return
	}
	c.mu.Unlock()

	name, err := c.queryEntityName(ctx, userID, entity, entityID)
	if err != nil {
		c.logger.Debug(ctx, "enrichment lookup failed", "entity", entity, "error", err)
		return
	}
	if name == "" {
		return
	}

	c.mu.Lock()
	c.cache[cacheKey] = name
	c.mu.Unlock()
	enriched[nameKey] = name
}

func (c *LinearCapability) queryEntityName(ctx context.Context, userID, entity, id string) (string, error) {
	query := fmt.Sprintf(`{ %s(id: %q) { id name } }`, entity, id)
	result, err := c.broker.Execute(ctx, userID, "LINEAR_RUN_QUERY_OR_MUTATION", map[string]any{
		"query_or_mutation": query,
	})
	if err != nil {
		return "", err
	}
	if !result.Succeeded() {
		return "", fmt.Errorf("query for %s %s was not successful", entity, id)
	}

	// Broker versions differ in how deeply they nest the GraphQL payload.
	node := digMap(result.Data, entity)
	if node == nil {
		node = digMap(result.Data, "data", entity)
	}
	if node == nil {
		node = digMap(result.Data, "data", "data", entity)
	}
	if node == nil {
		return "", nil
	}
	name, _ := node["name"].(string)
	return name, nil
}

// digMap walks nested map[string]any values by key.
func digMap(v any, keys ...string) map[string]any {
	current, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	for _, key := range keys {
		next, ok := current[key].(map[string]any)
		if !ok {
			return nil
		}
		current = next
	}
	return current
}

func numericArg(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

var _ Capability = (*LinearCapability)(nil)
