// Package broker connects the dispatcher to the tool execution backend. The
// backend hosts the actual productivity-app integrations; the dispatcher only
// ever sees tool slugs, argument maps, and result envelopes.
package broker

import (
	"context"

	"github.com/haasonsaas/concierge/pkg/models"
)

// Broker executes tools and serves tool definitions on behalf of a user.
type Broker interface {
	// Execute runs one tool invocation. A non-nil error means the call never
	// produced a result envelope; app-level failures come back as a result
	// with Successful=false.
	Execute(ctx context.Context, userID, slug string, args map[string]any) (*models.ToolResult, error)

	// FetchTools returns definitions for the requested tool slugs. Slugs the
	// backend does not know are omitted from the result.
	FetchTools(ctx context.Context, userID string, slugs []string) ([]models.ToolDefinition, error)
}
